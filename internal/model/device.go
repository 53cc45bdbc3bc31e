package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeviceStore defines persistence operations for devices.
type DeviceStore interface {
	Upsert(ctx context.Context, device Device) (Device, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (Device, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Device, error)
	ListActiveSiblings(ctx context.Context, userID uuid.UUID, exclude uuid.UUID) ([]Device, error)
	Rename(ctx context.Context, id uuid.UUID, userID uuid.UUID, name string) (Device, error)
	Heartbeat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	SetSyncEnabled(ctx context.Context, id uuid.UUID, userID uuid.UUID, enabled bool) (Device, error)
	SetLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
	RefreshScanStats(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// Device represents one installation of the client for a user. Identifier is
// hardware-derived and globally unique: re-registration with the same
// identifier updates the existing row and re-associates it with the caller.
type Device struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Name             string
	Identifier       string
	OSType           string
	OSVersion        string
	Active           bool
	SyncEnabled      bool
	LastSeen         time.Time
	LastSync         *time.Time
	LastScan         *time.Time
	FontsContributed int
	FontsInstalled   int64
	CreatedAt        time.Time
}

// Alive reports derived liveness: whether the device heartbeated within
// threshold of now. The persisted Active flag is a coarser "has registered"
// signal and is never a substitute for this computation.
func (d Device) Alive(now time.Time, threshold time.Duration) bool {
	return now.Sub(d.LastSeen) < threshold
}
