package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
)

func TestSettings_Get(t *testing.T) {
	userID := uuid.New()
	stored := model.DefaultSettings(userID)

	store := &MockSettingsStore{}
	store.On("GetOrCreate", mock.Anything, userID).Return(stored, nil)

	settings := NewSettings(store, logger.NewDiscard())

	got, err := settings.Get(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, stored, got)
	store.AssertExpectations(t)
}

func TestSettings_Update(t *testing.T) {
	userID := uuid.New()

	boolPtr := func(b bool) *bool { return &b }
	freqPtr := func(f model.ScanFrequency) *model.ScanFrequency { return &f }
	policyPtr := func(p model.DuplicatePolicy) *model.DuplicatePolicy { return &p }

	tests := []struct {
		name      string
		update    SettingsUpdate
		mockSetup func(*MockSettingsStore)
		check     func(*testing.T, model.UserSettings, error)
	}{
		{
			name: "partial update keeps untouched fields",
			update: SettingsUpdate{
				ScanFrequency: freqPtr(model.ScanHourly),
			},
			mockSetup: func(store *MockSettingsStore) {
				store.On("GetOrCreate", mock.Anything, userID).Return(model.DefaultSettings(userID), nil)
				store.On("Update", mock.Anything, mock.MatchedBy(func(s model.UserSettings) bool {
					return s.ScanFrequency == model.ScanHourly && s.AutoSync && s.DuplicatePolicy == model.DuplicateAsk
				})).Return(model.UserSettings{
					UserID:          userID,
					AutoSync:        true,
					ScanFrequency:   model.ScanHourly,
					DuplicatePolicy: model.DuplicateAsk,
				}, nil)
			},
			check: func(t *testing.T, got model.UserSettings, err error) {
				require.NoError(t, err)
				assert.Equal(t, model.ScanHourly, got.ScanFrequency)
				assert.True(t, got.AutoSync)
			},
		},
		{
			name: "full update",
			update: SettingsUpdate{
				AutoSync:        boolPtr(false),
				ScanFrequency:   freqPtr(model.ScanManual),
				DuplicatePolicy: policyPtr(model.DuplicateKeepNewest),
			},
			mockSetup: func(store *MockSettingsStore) {
				store.On("GetOrCreate", mock.Anything, userID).Return(model.DefaultSettings(userID), nil)
				store.On("Update", mock.Anything, mock.MatchedBy(func(s model.UserSettings) bool {
					return !s.AutoSync && s.ScanFrequency == model.ScanManual && s.DuplicatePolicy == model.DuplicateKeepNewest
				})).Return(model.UserSettings{
					UserID:          userID,
					ScanFrequency:   model.ScanManual,
					DuplicatePolicy: model.DuplicateKeepNewest,
				}, nil)
			},
			check: func(t *testing.T, got model.UserSettings, err error) {
				require.NoError(t, err)
				assert.False(t, got.AutoSync)
			},
		},
		{
			name: "unknown scan frequency rejected before any write",
			update: SettingsUpdate{
				ScanFrequency: freqPtr(model.ScanFrequency("weekly")),
			},
			mockSetup: func(store *MockSettingsStore) {},
			check: func(t *testing.T, _ model.UserSettings, err error) {
				assert.ErrorIs(t, err, model.ErrInvalidInput)
			},
		},
		{
			name: "unknown duplicate policy rejected before any write",
			update: SettingsUpdate{
				DuplicatePolicy: policyPtr(model.DuplicatePolicy("merge")),
			},
			mockSetup: func(store *MockSettingsStore) {},
			check: func(t *testing.T, _ model.UserSettings, err error) {
				assert.ErrorIs(t, err, model.ErrInvalidInput)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockSettingsStore{}
			tt.mockSetup(store)

			settings := NewSettings(store, logger.NewDiscard())

			got, err := settings.Update(context.Background(), userID, tt.update)
			tt.check(t, got, err)

			store.AssertExpectations(t)
		})
	}
}
