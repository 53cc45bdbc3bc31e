package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/model"
)

var _ model.AssociationStore = (*AssociationRepository)(nil)

type AssociationRepository struct {
	db *Connection
}

func NewAssociationRepository(db *Connection) *AssociationRepository {
	return &AssociationRepository{
		db: db,
	}
}

// Associate upserts a (device, font) pair. Last writer wins on status and
// flags; the install timestamp is set on first insert and kept on updates
// unless the pair transitions into the installed state.
func (r *AssociationRepository) Associate(ctx context.Context, df model.DeviceFont) error {
	const query = `
		INSERT INTO device_fonts (device_id, font_id, status, present_at_scan, system_font)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id, font_id) DO UPDATE SET
			status = EXCLUDED.status,
			present_at_scan = EXCLUDED.present_at_scan,
			system_font = EXCLUDED.system_font,
			installed_at = CASE
				WHEN device_fonts.status != 'installed' AND EXCLUDED.status = 'installed' THEN now()
				ELSE device_fonts.installed_at
			END,
			last_checked_at = now()`

	_, err := r.db.Exec(ctx, query, df.DeviceID, df.FontID, string(df.Status), df.PresentAtScan, df.SystemFont)
	return err
}

func (r *AssociationRepository) IsAssociated(ctx context.Context, deviceID, fontID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM device_fonts WHERE device_id = $1 AND font_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, deviceID, fontID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AssociationRepository) ListFontIDs(ctx context.Context, deviceID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	const query = `
		SELECT font_id FROM device_fonts
		WHERE device_id = $1
		ORDER BY font_id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, deviceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *AssociationRepository) CountForDevice(ctx context.Context, deviceID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM device_fonts WHERE device_id = $1`
	var n int64
	if err := r.db.QueryRow(ctx, query, deviceID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
