// Package http implements the HTTP transport layer of the application.
// It decodes requests, forwards them to the service layer and maps domain
// errors to response statuses. Authentication and request logging are
// handled by middleware before handlers run.
package http

import (
	"context"

	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
	"github.com/fontcap/fontcap-server/internal/service"
)

// CatalogService is the font catalog surface the transport depends on.
type CatalogService interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Font, error)
	CheckHash(ctx context.Context, userID uuid.UUID, contentHash string) (model.Font, bool, error)
	Delete(ctx context.Context, fontID, userID uuid.UUID) error
	CreateUploadURL(ctx context.Context, userID uuid.UUID, req service.UploadRequest) (service.UploadTicket, error)
	DownloadURL(ctx context.Context, fontID, userID uuid.UUID) (string, error)
	StorageUsage(ctx context.Context, userID uuid.UUID) (service.Usage, error)
	ListForDevice(ctx context.Context, deviceID, userID uuid.UUID) ([]model.DeviceFontView, error)
}

// DeviceService is the device registry surface the transport depends on.
type DeviceService interface {
	Register(ctx context.Context, params service.RegisterDeviceParams) (model.Device, bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]service.DeviceStatus, error)
	Rename(ctx context.Context, deviceID, userID uuid.UUID, name string) (model.Device, error)
	Heartbeat(ctx context.Context, deviceID, userID uuid.UUID)
	SetSyncEnabled(ctx context.Context, deviceID, userID uuid.UUID, enabled bool) (model.Device, error)
	Delete(ctx context.Context, deviceID, userID uuid.UUID) error
}

// RegistrarService ingests scanned font batches.
type RegistrarService interface {
	BulkRegister(ctx context.Context, userID, originDeviceID uuid.UUID, items []service.RegistrationItem) (service.BulkReport, error)
}

// SyncService runs and reports on reconciliation.
type SyncService interface {
	Reconcile(ctx context.Context, deviceID, userID uuid.UUID, progress model.ProgressSink) (service.ReconcileReport, error)
	Status(ctx context.Context, userID, deviceID uuid.UUID) (service.SyncStatus, error)
	PendingQueue(ctx context.Context, userID, deviceID uuid.UUID) ([]model.SyncQueueEntry, error)
}

// SettingsService manages per-user preferences.
type SettingsService interface {
	Get(ctx context.Context, userID uuid.UUID) (model.UserSettings, error)
	Update(ctx context.Context, userID uuid.UUID, update service.SettingsUpdate) (model.UserSettings, error)
}

type Handler struct {
	catalog   CatalogService
	devices   DeviceService
	registrar RegistrarService
	sync      SyncService
	settings  SettingsService
	resolver  model.TokenResolver

	logger *logger.Logger
}

func NewHandler(
	catalog CatalogService,
	devices DeviceService,
	registrar RegistrarService,
	sync SyncService,
	settings SettingsService,
	resolver model.TokenResolver,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		catalog:   catalog,
		devices:   devices,
		registrar: registrar,
		sync:      sync,
		settings:  settings,
		resolver:  resolver,
		logger:    logger,
	}
}
