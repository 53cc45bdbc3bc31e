package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AssociationStore defines persistence operations for device-font pairs.
type AssociationStore interface {
	Associate(ctx context.Context, df DeviceFont) error
	IsAssociated(ctx context.Context, deviceID, fontID uuid.UUID) (bool, error)
	ListFontIDs(ctx context.Context, deviceID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
	CountForDevice(ctx context.Context, deviceID uuid.UUID) (int64, error)
}

// InstallStatus enumerates the state of a font on a device.
type InstallStatus string

const (
	StatusInstalled InstallStatus = "installed"
	StatusPending   InstallStatus = "pending"
)

// DeviceFont records the state of one font on one device. The pair
// (DeviceID, FontID) is unique; writes are upserts with last writer winning
// on status and flags.
type DeviceFont struct {
	DeviceID      uuid.UUID
	FontID        uuid.UUID
	Status        InstallStatus
	PresentAtScan bool
	SystemFont    bool
	InstalledAt   time.Time
	LastCheckedAt time.Time
}
