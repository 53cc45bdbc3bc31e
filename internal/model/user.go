package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines read operations for users. Account creation belongs to
// the external auth system; the core only references existing rows.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
}

// User is the opaque owner of fonts, devices and settings.
type User struct {
	ID           uuid.UUID
	Email        string
	StorageLimit int64
	CreatedAt    time.Time
}
