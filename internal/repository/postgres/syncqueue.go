package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fontcap/fontcap-server/internal/model"
)

var _ model.SyncQueueStore = (*SyncQueueRepository)(nil)

type SyncQueueRepository struct {
	db *Connection
}

func NewSyncQueueRepository(db *Connection) *SyncQueueRepository {
	return &SyncQueueRepository{
		db: db,
	}
}

// Enqueue inserts a pending install entry unless the device already has the
// font or a pending entry exists. The pre-checks are best-effort race
// avoidance; the partial unique index on pending rows is the real guard, and
// a violation of it is reported as a skip, not an error.
func (r *SyncQueueRepository) Enqueue(ctx context.Context, deviceID, fontID uuid.UUID) (bool, error) {
	const query = `
		INSERT INTO sync_queue (id, device_id, font_id, action, status)
		SELECT $1, $2, $3, 'install', 'pending'
		WHERE NOT EXISTS (
			SELECT 1 FROM device_fonts WHERE device_id = $2 AND font_id = $3
		)
		ON CONFLICT (device_id, font_id) WHERE status = 'pending' DO NOTHING`

	cmd, err := r.db.Exec(ctx, query, uuid.New(), deviceID, fontID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return false, nil
		}
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *SyncQueueRepository) ListPending(ctx context.Context, deviceID uuid.UUID) ([]model.SyncQueueEntry, error) {
	const query = `
		SELECT id, device_id, font_id, action, status, COALESCE(error, ''), created_at, completed_at
		FROM sync_queue
		WHERE device_id = $1 AND status = 'pending'
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.SyncQueueEntry
	for rows.Next() {
		var e model.SyncQueueEntry
		err := rows.Scan(&e.ID, &e.DeviceID, &e.FontID, &e.Action, &e.Status, &e.Error, &e.CreatedAt, &e.CompletedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *SyncQueueRepository) CountPendingForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM sync_queue sq
		JOIN devices d ON d.id = sq.device_id
		WHERE d.user_id = $1 AND sq.status = 'pending'`

	var n int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// MarkCompleted transitions a pending entry to completed. Calling it when no
// entry is pending is a no-op, so it is safe after every successful install.
func (r *SyncQueueRepository) MarkCompleted(ctx context.Context, deviceID, fontID uuid.UUID) error {
	const query = `
		UPDATE sync_queue
		SET status = 'completed', completed_at = now(), error = NULL
		WHERE device_id = $1 AND font_id = $2 AND status = 'pending'`

	_, err := r.db.Exec(ctx, query, deviceID, fontID)
	return err
}

// MarkFailed records the last error on a pending entry without terminating
// it: the font remains a candidate for the next reconciliation.
func (r *SyncQueueRepository) MarkFailed(ctx context.Context, deviceID, fontID uuid.UUID, message string) error {
	const query = `
		UPDATE sync_queue
		SET error = $3
		WHERE device_id = $1 AND font_id = $2 AND status = 'pending'`

	_, err := r.db.Exec(ctx, query, deviceID, fontID, message)
	return err
}
