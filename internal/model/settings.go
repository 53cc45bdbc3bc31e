package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SettingsStore defines persistence operations for per-user preferences.
type SettingsStore interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (UserSettings, error)
	Update(ctx context.Context, settings UserSettings) (UserSettings, error)
}

// DuplicatePolicy enumerates how duplicate uploads should be treated.
// The policy is persisted and editable but the dedup resolver currently
// treats every hash match as a hard duplicate regardless of it.
type DuplicatePolicy string

const (
	DuplicateAsk        DuplicatePolicy = "ask"
	DuplicateKeepNewest DuplicatePolicy = "keep-newest"
	DuplicateKeepAll    DuplicatePolicy = "keep-all"
)

// ScanFrequency enumerates how often clients rescan local fonts.
type ScanFrequency string

const (
	ScanManual ScanFrequency = "manual"
	ScanHourly ScanFrequency = "hourly"
	ScanDaily  ScanFrequency = "daily"
)

// UserSettings holds per-user preferences, created lazily with defaults on
// first access.
type UserSettings struct {
	UserID          uuid.UUID
	AutoSync        bool
	ScanFrequency   ScanFrequency
	DuplicatePolicy DuplicatePolicy
	UpdatedAt       time.Time
}

// DefaultSettings returns the settings a user starts with.
func DefaultSettings(userID uuid.UUID) UserSettings {
	return UserSettings{
		UserID:          userID,
		AutoSync:        true,
		ScanFrequency:   ScanDaily,
		DuplicatePolicy: DuplicateAsk,
	}
}
