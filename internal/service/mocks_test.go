package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fontcap/fontcap-server/internal/model"
)

// MockFontStore mocks the FontStore interface
type MockFontStore struct {
	mock.Mock
}

func (m *MockFontStore) RegisterOrGet(ctx context.Context, font model.Font) (model.Font, bool, error) {
	args := m.Called(ctx, font)
	return args.Get(0).(model.Font), args.Bool(1), args.Error(2)
}

func (m *MockFontStore) AttachStorageKey(ctx context.Context, fontID uuid.UUID, key string) (bool, error) {
	args := m.Called(ctx, fontID, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockFontStore) GetByID(ctx context.Context, id uuid.UUID) (model.Font, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Font), args.Error(1)
}

func (m *MockFontStore) GetByHash(ctx context.Context, userID uuid.UUID, contentHash string) (model.Font, error) {
	args := m.Called(ctx, userID, contentHash)
	return args.Get(0).(model.Font), args.Error(1)
}

func (m *MockFontStore) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockFontStore) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Font, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]model.Font), args.Error(1)
}

func (m *MockFontStore) ListSyncable(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Font, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]model.Font), args.Error(1)
}

func (m *MockFontStore) ListByDevice(ctx context.Context, deviceID uuid.UUID, userID uuid.UUID) ([]model.DeviceFontView, error) {
	args := m.Called(ctx, deviceID, userID)
	return args.Get(0).([]model.DeviceFontView), args.Error(1)
}

func (m *MockFontStore) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFontStore) StorageUsage(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockDeviceStore mocks the DeviceStore interface
type MockDeviceStore struct {
	mock.Mock
}

func (m *MockDeviceStore) Upsert(ctx context.Context, device model.Device) (model.Device, bool, error) {
	args := m.Called(ctx, device)
	return args.Get(0).(model.Device), args.Bool(1), args.Error(2)
}

func (m *MockDeviceStore) GetByID(ctx context.Context, id uuid.UUID) (model.Device, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Device), args.Error(1)
}

func (m *MockDeviceStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Device, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Device), args.Error(1)
}

func (m *MockDeviceStore) ListActiveSiblings(ctx context.Context, userID uuid.UUID, exclude uuid.UUID) ([]model.Device, error) {
	args := m.Called(ctx, userID, exclude)
	return args.Get(0).([]model.Device), args.Error(1)
}

func (m *MockDeviceStore) Rename(ctx context.Context, id uuid.UUID, userID uuid.UUID, name string) (model.Device, error) {
	args := m.Called(ctx, id, userID, name)
	return args.Get(0).(model.Device), args.Error(1)
}

func (m *MockDeviceStore) Heartbeat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockDeviceStore) SetSyncEnabled(ctx context.Context, id uuid.UUID, userID uuid.UUID, enabled bool) (model.Device, error) {
	args := m.Called(ctx, id, userID, enabled)
	return args.Get(0).(model.Device), args.Error(1)
}

func (m *MockDeviceStore) SetLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockDeviceStore) RefreshScanStats(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeviceStore) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockAssociationStore mocks the AssociationStore interface
type MockAssociationStore struct {
	mock.Mock
}

func (m *MockAssociationStore) Associate(ctx context.Context, df model.DeviceFont) error {
	args := m.Called(ctx, df)
	return args.Error(0)
}

func (m *MockAssociationStore) IsAssociated(ctx context.Context, deviceID, fontID uuid.UUID) (bool, error) {
	args := m.Called(ctx, deviceID, fontID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAssociationStore) ListFontIDs(ctx context.Context, deviceID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	args := m.Called(ctx, deviceID, limit, offset)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAssociationStore) CountForDevice(ctx context.Context, deviceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSyncQueueStore mocks the SyncQueueStore interface
type MockSyncQueueStore struct {
	mock.Mock
}

func (m *MockSyncQueueStore) Enqueue(ctx context.Context, deviceID, fontID uuid.UUID) (bool, error) {
	args := m.Called(ctx, deviceID, fontID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSyncQueueStore) ListPending(ctx context.Context, deviceID uuid.UUID) ([]model.SyncQueueEntry, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).([]model.SyncQueueEntry), args.Error(1)
}

func (m *MockSyncQueueStore) CountPendingForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSyncQueueStore) MarkCompleted(ctx context.Context, deviceID, fontID uuid.UUID) error {
	args := m.Called(ctx, deviceID, fontID)
	return args.Error(0)
}

func (m *MockSyncQueueStore) MarkFailed(ctx context.Context, deviceID, fontID uuid.UUID, message string) error {
	args := m.Called(ctx, deviceID, fontID, message)
	return args.Error(0)
}

// MockUserStore mocks the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

// MockSettingsStore mocks the SettingsStore interface
type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) GetOrCreate(ctx context.Context, userID uuid.UUID) (model.UserSettings, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.UserSettings), args.Error(1)
}

func (m *MockSettingsStore) Update(ctx context.Context, settings model.UserSettings) (model.UserSettings, error) {
	args := m.Called(ctx, settings)
	return args.Get(0).(model.UserSettings), args.Error(1)
}

// MockStorage mocks the Storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) PutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, contentType, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) GetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockInstaller mocks the Installer interface
type MockInstaller struct {
	mock.Mock
}

func (m *MockInstaller) CheckInstalledBatch(ctx context.Context, fileNames []string) (map[string]bool, error) {
	args := m.Called(ctx, fileNames)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockInstaller) InstallFromURL(ctx context.Context, url, fileName string) (model.InstallResult, error) {
	args := m.Called(ctx, url, fileName)
	return args.Get(0).(model.InstallResult), args.Error(1)
}
