package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
)

// Settings manages per-user preferences.
type Settings struct {
	store  model.SettingsStore
	logger *logger.Logger
}

func NewSettings(store model.SettingsStore, logger *logger.Logger) *Settings {
	return &Settings{store: store, logger: logger}
}

// Get returns the user's settings, creating defaults on first access.
func (s *Settings) Get(ctx context.Context, userID uuid.UUID) (model.UserSettings, error) {
	settings, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return model.UserSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// SettingsUpdate carries a partial settings change; nil fields keep the
// current value.
type SettingsUpdate struct {
	AutoSync        *bool
	ScanFrequency   *model.ScanFrequency
	DuplicatePolicy *model.DuplicatePolicy
}

// Update applies a partial change on top of the stored settings. Unknown
// enum values are rejected before anything is written.
func (s *Settings) Update(ctx context.Context, userID uuid.UUID, update SettingsUpdate) (model.UserSettings, error) {
	if update.ScanFrequency != nil {
		switch *update.ScanFrequency {
		case model.ScanManual, model.ScanHourly, model.ScanDaily:
		default:
			return model.UserSettings{}, fmt.Errorf("unknown scan frequency %q: %w", *update.ScanFrequency, model.ErrInvalidInput)
		}
	}
	if update.DuplicatePolicy != nil {
		switch *update.DuplicatePolicy {
		case model.DuplicateAsk, model.DuplicateKeepNewest, model.DuplicateKeepAll:
		default:
			return model.UserSettings{}, fmt.Errorf("unknown duplicate policy %q: %w", *update.DuplicatePolicy, model.ErrInvalidInput)
		}
	}

	current, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return model.UserSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	if update.AutoSync != nil {
		current.AutoSync = *update.AutoSync
	}
	if update.ScanFrequency != nil {
		current.ScanFrequency = *update.ScanFrequency
	}
	if update.DuplicatePolicy != nil {
		current.DuplicatePolicy = *update.DuplicatePolicy
	}

	saved, err := s.store.Update(ctx, current)
	if err != nil {
		return model.UserSettings{}, fmt.Errorf("failed to update settings: %w", err)
	}
	return saved, nil
}
