package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/model"
)

var _ model.SettingsStore = (*SettingsRepository)(nil)

type SettingsRepository struct {
	db *Connection
}

func NewSettingsRepository(db *Connection) *SettingsRepository {
	return &SettingsRepository{
		db: db,
	}
}

// GetOrCreate returns the user's settings, inserting the defaults on first
// access.
func (r *SettingsRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (model.UserSettings, error) {
	defaults := model.DefaultSettings(userID)

	const query = `
		INSERT INTO user_settings (user_id, auto_sync, scan_frequency, duplicate_policy)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, auto_sync, scan_frequency, duplicate_policy, updated_at`

	var s model.UserSettings
	err := r.db.QueryRow(ctx, query,
		defaults.UserID, defaults.AutoSync, string(defaults.ScanFrequency), string(defaults.DuplicatePolicy),
	).Scan(&s.UserID, &s.AutoSync, &s.ScanFrequency, &s.DuplicatePolicy, &s.UpdatedAt)
	if err != nil {
		return model.UserSettings{}, err
	}
	return s, nil
}

func (r *SettingsRepository) Update(ctx context.Context, settings model.UserSettings) (model.UserSettings, error) {
	const query = `
		INSERT INTO user_settings (user_id, auto_sync, scan_frequency, duplicate_policy, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			auto_sync = EXCLUDED.auto_sync,
			scan_frequency = EXCLUDED.scan_frequency,
			duplicate_policy = EXCLUDED.duplicate_policy,
			updated_at = now()
		RETURNING user_id, auto_sync, scan_frequency, duplicate_policy, updated_at`

	var s model.UserSettings
	err := r.db.QueryRow(ctx, query,
		settings.UserID, settings.AutoSync, string(settings.ScanFrequency), string(settings.DuplicatePolicy),
	).Scan(&s.UserID, &s.AutoSync, &s.ScanFrequency, &s.DuplicatePolicy, &s.UpdatedAt)
	if err != nil {
		return model.UserSettings{}, err
	}
	return s, nil
}
