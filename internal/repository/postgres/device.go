package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fontcap/fontcap-server/internal/model"
)

var _ model.DeviceStore = (*DeviceRepository)(nil)

type DeviceRepository struct {
	db *Connection
}

func NewDeviceRepository(db *Connection) *DeviceRepository {
	return &DeviceRepository{
		db: db,
	}
}

const deviceColumns = `d.id, d.user_id, d.name, d.identifier, d.os_type, d.os_version, d.is_active,
	d.sync_enabled, d.last_seen, d.last_sync, d.last_scan, d.fonts_contributed, d.created_at`

func scanDevice(row pgx.Row) (model.Device, error) {
	var d model.Device
	err := row.Scan(
		&d.ID, &d.UserID, &d.Name, &d.Identifier, &d.OSType, &d.OSVersion,
		&d.Active, &d.SyncEnabled, &d.LastSeen, &d.LastSync, &d.LastScan,
		&d.FontsContributed, &d.CreatedAt,
	)
	return d, err
}

// Upsert registers a device keyed on its hardware-derived identifier. The
// identifier is globally unique, so a conflict re-associates the row with the
// calling user and refreshes its descriptive fields instead of duplicating.
func (r *DeviceRepository) Upsert(ctx context.Context, device model.Device) (model.Device, bool, error) {
	query := `
		INSERT INTO devices (id, user_id, name, identifier, os_type, os_version, is_active, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, true, now())
		ON CONFLICT (identifier) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			name = EXCLUDED.name,
			os_type = EXCLUDED.os_type,
			os_version = EXCLUDED.os_version,
			is_active = true,
			last_seen = now()
		RETURNING ` + deviceColumnsBare + `, (xmax = 0) AS inserted`

	var d model.Device
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		device.ID, device.UserID, device.Name, device.Identifier, device.OSType, device.OSVersion,
	).Scan(
		&d.ID, &d.UserID, &d.Name, &d.Identifier, &d.OSType, &d.OSVersion,
		&d.Active, &d.SyncEnabled, &d.LastSeen, &d.LastSync, &d.LastScan,
		&d.FontsContributed, &d.CreatedAt, &inserted,
	)
	if err != nil {
		return model.Device{}, false, err
	}
	return d, inserted, nil
}

const deviceColumnsBare = `id, user_id, name, identifier, os_type, os_version, is_active,
	sync_enabled, last_seen, last_sync, last_scan, fonts_contributed, created_at`

func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Device, error) {
	query := `SELECT ` + deviceColumnsBare + ` FROM devices WHERE id = $1`

	d, err := scanDevice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Device{}, model.ErrNotFound
		}
		return model.Device{}, err
	}
	return d, nil
}

// ListByUser returns the user's devices newest-first with installed-font
// counts attached.
func (r *DeviceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Device, error) {
	query := `
		SELECT ` + deviceColumns + `,
			(SELECT COUNT(*) FROM device_fonts df WHERE df.device_id = d.id) AS fonts_installed
		FROM devices d
		WHERE d.user_id = $1
		ORDER BY d.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		err := rows.Scan(
			&d.ID, &d.UserID, &d.Name, &d.Identifier, &d.OSType, &d.OSVersion,
			&d.Active, &d.SyncEnabled, &d.LastSeen, &d.LastSync, &d.LastScan,
			&d.FontsContributed, &d.CreatedAt, &d.FontsInstalled,
		)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return devices, nil
}

// ListActiveSiblings returns the user's other registered devices, the fan-out
// targets for newly registered fonts.
func (r *DeviceRepository) ListActiveSiblings(ctx context.Context, userID uuid.UUID, exclude uuid.UUID) ([]model.Device, error) {
	query := `
		SELECT ` + deviceColumnsBare + ` FROM devices
		WHERE user_id = $1 AND id != $2 AND is_active = true
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, userID, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return devices, nil
}

func (r *DeviceRepository) Rename(ctx context.Context, id uuid.UUID, userID uuid.UUID, name string) (model.Device, error) {
	query := `
		UPDATE devices SET name = $1
		WHERE id = $2 AND user_id = $3
		RETURNING ` + deviceColumnsBare

	d, err := scanDevice(r.db.QueryRow(ctx, query, name, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Device{}, model.ErrNotFound
		}
		return model.Device{}, err
	}
	return d, nil
}

func (r *DeviceRepository) Heartbeat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	const query = `UPDATE devices SET last_seen = now() WHERE id = $1 AND user_id = $2`
	cmd, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *DeviceRepository) SetSyncEnabled(ctx context.Context, id uuid.UUID, userID uuid.UUID, enabled bool) (model.Device, error) {
	query := `
		UPDATE devices SET sync_enabled = $1
		WHERE id = $2 AND user_id = $3
		RETURNING ` + deviceColumnsBare

	d, err := scanDevice(r.db.QueryRow(ctx, query, enabled, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Device{}, model.ErrNotFound
		}
		return model.Device{}, err
	}
	return d, nil
}

func (r *DeviceRepository) SetLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `UPDATE devices SET last_sync = $1 WHERE id = $2`
	cmd, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// RefreshScanStats recounts the device's contributed fonts and stamps the
// scan time after a bulk registration.
func (r *DeviceRepository) RefreshScanStats(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE devices
		SET fonts_contributed = (SELECT COUNT(*) FROM fonts WHERE origin_device_id = $1),
		    last_scan = now()
		WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes the device; associations and queue rows cascade, font
// ownership is unaffected.
func (r *DeviceRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	const query = `DELETE FROM devices WHERE id = $1 AND user_id = $2`
	cmd, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
