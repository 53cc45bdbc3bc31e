package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fontcap/fontcap-server/internal/model"
)

var _ model.FontStore = (*FontRepository)(nil)

type FontRepository struct {
	db *Connection
}

func NewFontRepository(db *Connection) *FontRepository {
	return &FontRepository{
		db: db,
	}
}

const fontColumns = `id, user_id, name, family, content_hash, file_size, format, COALESCE(storage_key, ''), origin_device_id, metadata, created_at`

func scanFont(row pgx.Row) (model.Font, error) {
	var f model.Font
	var meta []byte
	err := row.Scan(
		&f.ID, &f.UserID, &f.Name, &f.Family, &f.ContentHash, &f.FileSize,
		&f.Format, &f.StorageKey, &f.OriginDeviceID, &meta, &f.CreatedAt,
	)
	if err != nil {
		return model.Font{}, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &f.Metadata); err != nil {
			return model.Font{}, fmt.Errorf("failed to decode font metadata: %w", err)
		}
	}
	return f, nil
}

// RegisterOrGet inserts a catalog row keyed on (user_id, content_hash) or
// returns the existing one as stored. The uniqueness constraint in the
// schema, not an application-level check, arbitrates concurrent
// registrations of the same hash. A storage key on a duplicate is never
// applied here; callers backfill through AttachStorageKey so the
// metadata-to-syncable transition is observed and acted on exactly once.
func (r *FontRepository) RegisterOrGet(ctx context.Context, font model.Font) (model.Font, bool, error) {
	meta, err := json.Marshal(font.Metadata)
	if err != nil {
		return model.Font{}, false, fmt.Errorf("failed to encode font metadata: %w", err)
	}
	if font.Metadata == nil {
		meta = []byte("{}")
	}

	insert := `
		INSERT INTO fonts (id, user_id, name, family, content_hash, file_size, format, storage_key, origin_device_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
		ON CONFLICT (user_id, content_hash) DO NOTHING
		RETURNING ` + fontColumns

	created, err := scanFont(r.db.QueryRow(ctx, insert,
		font.ID, font.UserID, font.Name, font.Family, font.ContentHash,
		font.FileSize, string(font.Format), font.StorageKey, font.OriginDeviceID, meta,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Font{}, false, err
	}

	existing, err := r.GetByHash(ctx, font.UserID, font.ContentHash)
	if err != nil {
		return model.Font{}, false, err
	}
	return existing, false, nil
}

// AttachStorageKey sets the storage key only if it is currently null and
// reports whether this call made the font syncable.
func (r *FontRepository) AttachStorageKey(ctx context.Context, fontID uuid.UUID, key string) (bool, error) {
	const query = `UPDATE fonts SET storage_key = $1 WHERE id = $2 AND storage_key IS NULL`
	cmd, err := r.db.Exec(ctx, query, key, fontID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *FontRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Font, error) {
	query := `SELECT ` + fontColumns + ` FROM fonts WHERE id = $1`

	font, err := scanFont(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Font{}, model.ErrNotFound
		}
		return model.Font{}, err
	}
	return font, nil
}

func (r *FontRepository) GetByHash(ctx context.Context, userID uuid.UUID, contentHash string) (model.Font, error) {
	query := `SELECT ` + fontColumns + ` FROM fonts WHERE user_id = $1 AND content_hash = $2`

	font, err := scanFont(r.db.QueryRow(ctx, query, userID, contentHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Font{}, model.ErrNotFound
		}
		return model.Font{}, err
	}
	return font, nil
}

func (r *FontRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	const query = `DELETE FROM fonts WHERE id = $1 AND user_id = $2`
	cmd, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *FontRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Font, error) {
	query := `
		SELECT ` + fontColumns + ` FROM fonts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return r.queryFonts(ctx, query, userID, limit, offset)
}

// ListSyncable returns fonts whose bytes are durably uploaded, newest-first.
func (r *FontRepository) ListSyncable(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Font, error) {
	query := `
		SELECT ` + fontColumns + ` FROM fonts
		WHERE user_id = $1 AND storage_key IS NOT NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return r.queryFonts(ctx, query, userID, limit, offset)
}

func (r *FontRepository) queryFonts(ctx context.Context, query string, args ...any) ([]model.Font, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fonts []model.Font
	for rows.Next() {
		font, err := scanFont(rows)
		if err != nil {
			return nil, err
		}
		fonts = append(fonts, font)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fonts, nil
}

func (r *FontRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID, userID uuid.UUID) ([]model.DeviceFontView, error) {
	query := `
		SELECT f.id, f.user_id, f.name, f.family, f.content_hash, f.file_size, f.format,
		       COALESCE(f.storage_key, ''), f.origin_device_id, f.metadata, f.created_at,
		       df.status, df.system_font, df.installed_at, df.last_checked_at
		FROM fonts f
		JOIN device_fonts df ON df.font_id = f.id
		WHERE df.device_id = $1 AND f.user_id = $2
		ORDER BY df.installed_at DESC`

	rows, err := r.db.Query(ctx, query, deviceID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []model.DeviceFontView
	for rows.Next() {
		var v model.DeviceFontView
		var meta []byte
		err := rows.Scan(
			&v.ID, &v.UserID, &v.Name, &v.Family, &v.ContentHash, &v.FileSize,
			&v.Format, &v.StorageKey, &v.OriginDeviceID, &meta, &v.CreatedAt,
			&v.Status, &v.SystemFont, &v.InstalledAt, &v.LastCheckedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &v.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode font metadata: %w", err)
			}
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return views, nil
}

func (r *FontRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM fonts WHERE user_id = $1`
	var n int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *FontRepository) StorageUsage(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT COALESCE(SUM(file_size), 0) FROM fonts WHERE user_id = $1 AND storage_key IS NOT NULL`
	var n int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
