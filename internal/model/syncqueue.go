package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncQueueStore defines persistence operations for pending install hints.
// The queue is denormalized: reconciliation recomputes missing fonts from the
// catalog, so queue rows are an audit trail, never a source of truth.
type SyncQueueStore interface {
	Enqueue(ctx context.Context, deviceID, fontID uuid.UUID) (bool, error)
	ListPending(ctx context.Context, deviceID uuid.UUID) ([]SyncQueueEntry, error)
	CountPendingForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkCompleted(ctx context.Context, deviceID, fontID uuid.UUID) error
	MarkFailed(ctx context.Context, deviceID, fontID uuid.UUID, message string) error
}

// QueueAction enumerates queued instructions.
type QueueAction string

// ActionInstall instructs a device to install a font.
const ActionInstall QueueAction = "install"

// QueueStatus enumerates the lifecycle of a queue entry.
type QueueStatus string

const (
	QueuePending   QueueStatus = "pending"
	QueueCompleted QueueStatus = "completed"
)

// SyncQueueEntry is a pending or historical instruction to install a font on
// a device.
type SyncQueueEntry struct {
	ID          uuid.UUID
	DeviceID    uuid.UUID
	FontID      uuid.UUID
	Action      QueueAction
	Status      QueueStatus
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
