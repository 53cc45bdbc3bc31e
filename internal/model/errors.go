package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist or is
	// not owned by the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when a credential is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSyncInProgress is returned when a reconciliation is already running
	// for the device. The caller should try again later.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrQuotaExceeded is returned when an upload would exceed the user's
	// storage limit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrNotUploaded is returned when a download is requested for a font
	// whose bytes were never durably uploaded.
	ErrNotUploaded = errors.New("font has no uploaded content")

	// ErrInvalidInput marks a request rejected by validation.
	ErrInvalidInput = errors.New("invalid input")
)

// ConflictError reports a duplicate identity together with the id of the
// entity that already holds it, so callers can act on the existing row.
type ConflictError struct {
	FontID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("font already exists: %s", e.FontID)
}
