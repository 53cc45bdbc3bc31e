package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
)

func testReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Workers:         2,
		RetryAttempts:   2,
		RetryBaseDelay:  time.Millisecond,
		PageSize:        200,
		ProbeAheadPages: 3,
		DownloadURLTTL:  time.Hour,
	}
}

func newTestReconciler(
	fontStore *MockFontStore,
	deviceStore *MockDeviceStore,
	assocStore *MockAssociationStore,
	queueStore *MockSyncQueueStore,
	storage *MockStorage,
	installer *MockInstaller,
	cfg ReconcilerConfig,
) *Reconciler {
	return NewReconciler(fontStore, deviceStore, assocStore, queueStore, storage, installer, logger.NewDiscard(), cfg)
}

func TestReconciler_Reconcile(t *testing.T) {
	userID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	deviceID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")
	device := model.Device{ID: deviceID, UserID: userID, Name: "MacBook"}

	localFont := model.Font{ID: uuid.New(), UserID: userID, Name: "Inter", Format: model.FormatTTF, StorageKey: "k-local"}
	okFont1 := model.Font{ID: uuid.New(), UserID: userID, Name: "Roboto", Format: model.FormatTTF, StorageKey: "k-ok1"}
	okFont2 := model.Font{ID: uuid.New(), UserID: userID, Name: "Lato", Format: model.FormatOTF, StorageKey: "k-ok2"}
	badFont := model.Font{ID: uuid.New(), UserID: userID, Name: "Broken", Format: model.FormatWOFF2, StorageKey: "k-bad"}

	fontStore := &MockFontStore{}
	deviceStore := &MockDeviceStore{}
	assocStore := &MockAssociationStore{}
	queueStore := &MockSyncQueueStore{}
	storage := &MockStorage{}
	installer := &MockInstaller{}

	deviceStore.On("GetByID", mock.Anything, deviceID).Return(device, nil)
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 200, 0).Return([]uuid.UUID{}, nil)
	fontStore.On("ListSyncable", mock.Anything, userID, 200, 0).
		Return([]model.Font{localFont, okFont1, okFont2, badFont}, nil)

	installer.On("CheckInstalledBatch", mock.Anything, mock.Anything).Return(map[string]bool{
		"Inter.ttf":    true,
		"Roboto.ttf":   false,
		"Lato.otf":     false,
		"Broken.woff2": false,
	}, nil)

	// The already-present font must not touch the network; no presign or
	// install expectations exist for it.
	storage.On("GetURL", mock.Anything, "k-ok1", time.Hour).Return("https://dl/k-ok1", nil)
	storage.On("GetURL", mock.Anything, "k-ok2", time.Hour).Return("https://dl/k-ok2", nil)
	storage.On("GetURL", mock.Anything, "k-bad", time.Hour).Return("", errors.New("presign error")).Times(2)

	installer.On("InstallFromURL", mock.Anything, "https://dl/k-ok1", "Roboto.ttf").Return(model.InstallResult{InstalledPath: "/fonts/Roboto.ttf"}, nil)
	installer.On("InstallFromURL", mock.Anything, "https://dl/k-ok2", "Lato.otf").Return(model.InstallResult{InstalledPath: "/fonts/Lato.otf"}, nil)

	for _, f := range []model.Font{localFont, okFont1, okFont2} {
		fontID := f.ID
		assocStore.On("Associate", mock.Anything, mock.MatchedBy(func(df model.DeviceFont) bool {
			return df.DeviceID == deviceID && df.FontID == fontID && df.Status == model.StatusInstalled
		})).Return(nil)
		queueStore.On("MarkCompleted", mock.Anything, deviceID, fontID).Return(nil)
	}
	queueStore.On("MarkFailed", mock.Anything, deviceID, badFont.ID, mock.Anything).Return(nil)

	deviceStore.On("SetLastSync", mock.Anything, deviceID, mock.Anything).Return(nil)

	reconciler := newTestReconciler(fontStore, deviceStore, assocStore, queueStore, storage, installer, testReconcilerConfig())

	var progressMu sync.Mutex
	var progressCalls int
	var lastTotal int
	report, err := reconciler.Reconcile(context.Background(), deviceID, userID, func(completed, total int) {
		progressMu.Lock()
		defer progressMu.Unlock()
		progressCalls++
		lastTotal = total
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Downloaded)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 4, report.Downloaded+report.Skipped+report.Failed)
	assert.NotEmpty(t, report.Message)

	assert.Equal(t, 4, progressCalls)
	assert.Equal(t, 4, lastTotal)

	fontStore.AssertExpectations(t)
	deviceStore.AssertExpectations(t)
	assocStore.AssertExpectations(t)
	queueStore.AssertExpectations(t)
	storage.AssertExpectations(t)
	installer.AssertExpectations(t)
}

func TestReconciler_Reconcile_UpToDate(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()
	font := model.Font{ID: uuid.New(), UserID: userID, Name: "Inter", Format: model.FormatTTF, StorageKey: "k1"}

	fontStore := &MockFontStore{}
	deviceStore := &MockDeviceStore{}
	assocStore := &MockAssociationStore{}
	queueStore := &MockSyncQueueStore{}
	storage := &MockStorage{}
	installer := &MockInstaller{}

	deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: userID}, nil)
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 200, 0).Return([]uuid.UUID{font.ID}, nil)
	fontStore.On("ListSyncable", mock.Anything, userID, 200, 0).Return([]model.Font{font}, nil)

	reconciler := newTestReconciler(fontStore, deviceStore, assocStore, queueStore, storage, installer, testReconcilerConfig())

	report, err := reconciler.Reconcile(context.Background(), deviceID, userID, nil)

	require.NoError(t, err)
	assert.Zero(t, report.Downloaded)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Failed)
	assert.Equal(t, "device is up to date", report.Message)

	// A run with nothing to do must not advance the sync timestamp.
	deviceStore.AssertNotCalled(t, "SetLastSync", mock.Anything, mock.Anything, mock.Anything)
	installer.AssertNotCalled(t, "CheckInstalledBatch", mock.Anything, mock.Anything)
}

func TestReconciler_Reconcile_DevicePreconditions(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()

	tests := []struct {
		name      string
		mockSetup func(*MockDeviceStore)
		wantErr   error
	}{
		{
			name: "unknown device",
			mockSetup: func(deviceStore *MockDeviceStore) {
				deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{}, model.ErrNotFound)
			},
			wantErr: model.ErrNotFound,
		},
		{
			name: "device owned by another user",
			mockSetup: func(deviceStore *MockDeviceStore) {
				deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: uuid.New()}, nil)
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deviceStore := &MockDeviceStore{}
			tt.mockSetup(deviceStore)

			reconciler := newTestReconciler(&MockFontStore{}, deviceStore, &MockAssociationStore{}, &MockSyncQueueStore{}, &MockStorage{}, &MockInstaller{}, testReconcilerConfig())

			_, err := reconciler.Reconcile(context.Background(), deviceID, userID, nil)

			assert.ErrorIs(t, err, tt.wantErr)
			deviceStore.AssertExpectations(t)
		})
	}
}

func TestReconciler_Reconcile_RejectsConcurrentRun(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()

	fontStore := &MockFontStore{}
	deviceStore := &MockDeviceStore{}
	assocStore := &MockAssociationStore{}

	deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: userID}, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 200, 0).Run(func(args mock.Arguments) {
		once.Do(func() { close(started) })
		<-release
	}).Return([]uuid.UUID{}, nil)
	fontStore.On("ListSyncable", mock.Anything, userID, 200, 0).Return([]model.Font{}, nil)

	reconciler := newTestReconciler(fontStore, deviceStore, assocStore, &MockSyncQueueStore{}, &MockStorage{}, &MockInstaller{}, testReconcilerConfig())

	done := make(chan error, 1)
	go func() {
		_, err := reconciler.Reconcile(context.Background(), deviceID, userID, nil)
		done <- err
	}()

	<-started
	_, err := reconciler.Reconcile(context.Background(), deviceID, userID, nil)
	assert.ErrorIs(t, err, model.ErrSyncInProgress)

	close(release)
	require.NoError(t, <-done)

	// The flag is released once the first run finishes.
	_, err = reconciler.Reconcile(context.Background(), deviceID, userID, nil)
	require.NoError(t, err)
}

func TestReconciler_Reconcile_ProbeAheadScan(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()

	// Four full pages of two fonts each. Pages 0, 2 and 3 hold only
	// associated fonts; page 1 holds one unassociated font. With a probe
	// budget of one quiet page the scan must survive page 0, reset on
	// page 1, tolerate page 2 and stop after page 3 without requesting
	// page 4.
	makeFont := func(name, key string) model.Font {
		return model.Font{ID: uuid.New(), UserID: userID, Name: name, Format: model.FormatTTF, StorageKey: key}
	}
	page0 := []model.Font{makeFont("A", "ka"), makeFont("B", "kb")}
	page1 := []model.Font{makeFont("C", "kc"), makeFont("D", "kd")}
	page2 := []model.Font{makeFont("E", "ke"), makeFont("F", "kf")}
	page3 := []model.Font{makeFont("G", "kg"), makeFont("H", "kh")}
	target := page1[1]

	associated := []uuid.UUID{
		page0[0].ID, page0[1].ID,
		page1[0].ID,
		page2[0].ID, page2[1].ID,
		page3[0].ID, page3[1].ID,
	}

	fontStore := &MockFontStore{}
	deviceStore := &MockDeviceStore{}
	assocStore := &MockAssociationStore{}
	queueStore := &MockSyncQueueStore{}
	storage := &MockStorage{}
	installer := &MockInstaller{}

	cfg := testReconcilerConfig()
	cfg.PageSize = 2
	cfg.ProbeAheadPages = 1

	deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: userID}, nil)
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 2, 0).Return(associated[:2], nil)
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 2, 2).Return(associated[2:4], nil)
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 2, 4).Return(associated[4:6], nil)
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 2, 6).Return(associated[6:], nil)

	fontStore.On("ListSyncable", mock.Anything, userID, 2, 0).Return(page0, nil)
	fontStore.On("ListSyncable", mock.Anything, userID, 2, 2).Return(page1, nil)
	fontStore.On("ListSyncable", mock.Anything, userID, 2, 4).Return(page2, nil)
	fontStore.On("ListSyncable", mock.Anything, userID, 2, 6).Return(page3, nil)

	installer.On("CheckInstalledBatch", mock.Anything, []string{"D.ttf"}).Return(map[string]bool{"D.ttf": false}, nil)
	storage.On("GetURL", mock.Anything, "kd", time.Hour).Return("https://dl/kd", nil)
	installer.On("InstallFromURL", mock.Anything, "https://dl/kd", "D.ttf").Return(model.InstallResult{InstalledPath: "/fonts/D.ttf"}, nil)
	assocStore.On("Associate", mock.Anything, mock.MatchedBy(func(df model.DeviceFont) bool {
		return df.FontID == target.ID
	})).Return(nil)
	queueStore.On("MarkCompleted", mock.Anything, deviceID, target.ID).Return(nil)
	deviceStore.On("SetLastSync", mock.Anything, deviceID, mock.Anything).Return(nil)

	reconciler := newTestReconciler(fontStore, deviceStore, assocStore, queueStore, storage, installer, cfg)

	report, err := reconciler.Reconcile(context.Background(), deviceID, userID, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Downloaded)

	fontStore.AssertExpectations(t)
	fontStore.AssertNotCalled(t, "ListSyncable", mock.Anything, userID, 2, 8)
}

func TestReconciler_Reconcile_InstallAlreadyExisted(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()
	font := model.Font{ID: uuid.New(), UserID: userID, Name: "Inter", Format: model.FormatTTF, StorageKey: "k1"}

	fontStore := &MockFontStore{}
	deviceStore := &MockDeviceStore{}
	assocStore := &MockAssociationStore{}
	queueStore := &MockSyncQueueStore{}
	storage := &MockStorage{}
	installer := &MockInstaller{}

	deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: userID}, nil)
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 200, 0).Return([]uuid.UUID{}, nil)
	fontStore.On("ListSyncable", mock.Anything, userID, 200, 0).Return([]model.Font{font}, nil)

	// Pre-check misses the file but the installer finds it on disk anyway;
	// the run must count it as skipped, not downloaded.
	installer.On("CheckInstalledBatch", mock.Anything, []string{"Inter.ttf"}).Return(map[string]bool{"Inter.ttf": false}, nil)
	storage.On("GetURL", mock.Anything, "k1", time.Hour).Return("https://dl/k1", nil)
	installer.On("InstallFromURL", mock.Anything, "https://dl/k1", "Inter.ttf").Return(model.InstallResult{InstalledPath: "/fonts/Inter.ttf", AlreadyExisted: true}, nil)
	assocStore.On("Associate", mock.Anything, mock.Anything).Return(nil)
	queueStore.On("MarkCompleted", mock.Anything, deviceID, font.ID).Return(nil)
	deviceStore.On("SetLastSync", mock.Anything, deviceID, mock.Anything).Return(nil)

	reconciler := newTestReconciler(fontStore, deviceStore, assocStore, queueStore, storage, installer, testReconcilerConfig())

	report, err := reconciler.Reconcile(context.Background(), deviceID, userID, nil)

	require.NoError(t, err)
	assert.Zero(t, report.Downloaded)
	assert.Equal(t, 1, report.Skipped)
}

func TestReconciler_Reconcile_RetryThenSuccess(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()
	font := model.Font{ID: uuid.New(), UserID: userID, Name: "Inter", Format: model.FormatTTF, StorageKey: "k1"}

	fontStore := &MockFontStore{}
	deviceStore := &MockDeviceStore{}
	assocStore := &MockAssociationStore{}
	queueStore := &MockSyncQueueStore{}
	storage := &MockStorage{}
	installer := &MockInstaller{}

	deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: userID}, nil)
	assocStore.On("ListFontIDs", mock.Anything, deviceID, 200, 0).Return([]uuid.UUID{}, nil)
	fontStore.On("ListSyncable", mock.Anything, userID, 200, 0).Return([]model.Font{font}, nil)
	installer.On("CheckInstalledBatch", mock.Anything, []string{"Inter.ttf"}).Return(map[string]bool{"Inter.ttf": false}, nil)

	storage.On("GetURL", mock.Anything, "k1", time.Hour).Return("", errors.New("transient")).Once()
	storage.On("GetURL", mock.Anything, "k1", time.Hour).Return("https://dl/k1", nil).Once()
	installer.On("InstallFromURL", mock.Anything, "https://dl/k1", "Inter.ttf").Return(model.InstallResult{InstalledPath: "/fonts/Inter.ttf"}, nil)
	assocStore.On("Associate", mock.Anything, mock.Anything).Return(nil)
	queueStore.On("MarkCompleted", mock.Anything, deviceID, font.ID).Return(nil)
	deviceStore.On("SetLastSync", mock.Anything, deviceID, mock.Anything).Return(nil)

	reconciler := newTestReconciler(fontStore, deviceStore, assocStore, queueStore, storage, installer, testReconcilerConfig())

	report, err := reconciler.Reconcile(context.Background(), deviceID, userID, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Downloaded)
	assert.Zero(t, report.Failed)
	storage.AssertExpectations(t)
}

func TestReconciler_Status(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()
	lastSync := time.Now().Add(-time.Hour)

	tests := []struct {
		name      string
		deviceID  uuid.UUID
		mockSetup func(*MockFontStore, *MockDeviceStore, *MockAssociationStore, *MockSyncQueueStore)
		want      SyncStatus
		wantErr   error
	}{
		{
			name:     "user-wide status",
			deviceID: uuid.Nil,
			mockSetup: func(fontStore *MockFontStore, deviceStore *MockDeviceStore, assocStore *MockAssociationStore, queueStore *MockSyncQueueStore) {
				fontStore.On("CountByUser", mock.Anything, userID).Return(int64(12), nil)
				queueStore.On("CountPendingForUser", mock.Anything, userID).Return(int64(3), nil)
			},
			want: SyncStatus{TotalFonts: 12, PendingSync: 3},
		},
		{
			name:     "device-scoped status",
			deviceID: deviceID,
			mockSetup: func(fontStore *MockFontStore, deviceStore *MockDeviceStore, assocStore *MockAssociationStore, queueStore *MockSyncQueueStore) {
				fontStore.On("CountByUser", mock.Anything, userID).Return(int64(12), nil)
				deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: userID, LastSync: &lastSync}, nil)
				assocStore.On("CountForDevice", mock.Anything, deviceID).Return(int64(7), nil)
				queueStore.On("CountPendingForUser", mock.Anything, userID).Return(int64(3), nil)
			},
			want: SyncStatus{TotalFonts: 12, DeviceFonts: 7, PendingSync: 3, LastSync: &lastSync},
		},
		{
			name:     "foreign device",
			deviceID: deviceID,
			mockSetup: func(fontStore *MockFontStore, deviceStore *MockDeviceStore, assocStore *MockAssociationStore, queueStore *MockSyncQueueStore) {
				fontStore.On("CountByUser", mock.Anything, userID).Return(int64(12), nil)
				deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: uuid.New()}, nil)
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fontStore := &MockFontStore{}
			deviceStore := &MockDeviceStore{}
			assocStore := &MockAssociationStore{}
			queueStore := &MockSyncQueueStore{}
			tt.mockSetup(fontStore, deviceStore, assocStore, queueStore)

			reconciler := newTestReconciler(fontStore, deviceStore, assocStore, queueStore, &MockStorage{}, &MockInstaller{}, testReconcilerConfig())

			status, err := reconciler.Status(context.Background(), userID, tt.deviceID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestReconciler_PendingQueue(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()
	entries := []model.SyncQueueEntry{
		{ID: uuid.New(), DeviceID: deviceID, FontID: uuid.New(), Action: model.ActionInstall, Status: model.QueuePending},
	}

	deviceStore := &MockDeviceStore{}
	queueStore := &MockSyncQueueStore{}
	deviceStore.On("GetByID", mock.Anything, deviceID).Return(model.Device{ID: deviceID, UserID: userID}, nil)
	queueStore.On("ListPending", mock.Anything, deviceID).Return(entries, nil)

	reconciler := newTestReconciler(&MockFontStore{}, deviceStore, &MockAssociationStore{}, queueStore, &MockStorage{}, &MockInstaller{}, testReconcilerConfig())

	got, err := reconciler.PendingQueue(context.Background(), userID, deviceID)

	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
