package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/model"
	"github.com/fontcap/fontcap-server/internal/service"
)

type fontResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Family      string            `json:"family,omitempty"`
	ContentHash string            `json:"contentHash"`
	FileSize    int64             `json:"fileSize"`
	Format      model.FontFormat  `json:"format"`
	Syncable    bool              `json:"syncable"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func toFontResponse(f model.Font) fontResponse {
	return fontResponse{
		ID:          f.ID,
		Name:        f.Name,
		Family:      f.Family,
		ContentHash: f.ContentHash,
		FileSize:    f.FileSize,
		Format:      f.Format,
		Syncable:    f.Syncable(),
		Metadata:    f.Metadata,
		CreatedAt:   f.CreatedAt,
	}
}

type fontListResponse struct {
	Fonts []fontResponse `json:"fonts"`
}

type checkHashResponse struct {
	Exists bool          `json:"exists"`
	Font   *fontResponse `json:"font,omitempty"`
}

type uploadURLRequest struct {
	ContentHash string `json:"contentHash"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	Format      string `json:"format"`
}

type uploadURLResponse struct {
	URL         string `json:"url"`
	StorageKey  string `json:"storageKey"`
	ContentType string `json:"contentType"`
}

type downloadURLResponse struct {
	URL string `json:"url"`
}

type registrationItem struct {
	Name        string            `json:"name"`
	Family      string            `json:"family"`
	ContentHash string            `json:"contentHash"`
	FileSize    int64             `json:"fileSize"`
	Format      string            `json:"format"`
	StorageKey  string            `json:"storageKey"`
	Metadata    map[string]string `json:"metadata"`
}

func (i registrationItem) toService() (service.RegistrationItem, bool) {
	format, ok := model.ParseFontFormat(i.Format)
	if !ok {
		return service.RegistrationItem{}, false
	}
	return service.RegistrationItem{
		Name:        i.Name,
		Family:      i.Family,
		ContentHash: i.ContentHash,
		FileSize:    i.FileSize,
		Format:      format,
		StorageKey:  i.StorageKey,
		Metadata:    i.Metadata,
	}, true
}

type bulkRegisterRequest struct {
	DeviceID uuid.UUID          `json:"deviceId"`
	Fonts    []registrationItem `json:"fonts"`
}

type duplicateResponse struct {
	Name   string    `json:"name"`
	FontID uuid.UUID `json:"fontId"`
}

type bulkRegisterResponse struct {
	Registered        []fontResponse      `json:"registered"`
	Duplicates        []duplicateResponse `json:"duplicates"`
	StorageBackfilled int                 `json:"storageBackfilled"`
	SyncQueuedDevices int                 `json:"syncQueuedDevices"`
}

func toBulkRegisterResponse(report service.BulkReport) bulkRegisterResponse {
	resp := bulkRegisterResponse{
		Registered:        make([]fontResponse, 0, len(report.Registered)),
		Duplicates:        make([]duplicateResponse, 0, len(report.Duplicates)),
		StorageBackfilled: report.StorageBackfilled,
		SyncQueuedDevices: report.SyncQueuedDevices,
	}
	for _, f := range report.Registered {
		resp.Registered = append(resp.Registered, toFontResponse(f))
	}
	for _, d := range report.Duplicates {
		resp.Duplicates = append(resp.Duplicates, duplicateResponse{Name: d.Name, FontID: d.FontID})
	}
	return resp
}

type confirmUploadRequest struct {
	DeviceID uuid.UUID        `json:"deviceId"`
	Font     registrationItem `json:"font"`
}

type confirmUploadResponse struct {
	Font      fontResponse `json:"font"`
	Duplicate bool         `json:"duplicate"`
}

type registerDeviceRequest struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	OSType     string `json:"osType"`
	OSVersion  string `json:"osVersion"`
}

type deviceResponse struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Identifier       string     `json:"identifier"`
	OSType           string     `json:"osType,omitempty"`
	OSVersion        string     `json:"osVersion,omitempty"`
	Online           bool       `json:"online"`
	SyncEnabled      bool       `json:"syncEnabled"`
	LastSeen         time.Time  `json:"lastSeen"`
	LastSync         *time.Time `json:"lastSync,omitempty"`
	LastScan         *time.Time `json:"lastScan,omitempty"`
	FontsContributed int        `json:"fontsContributed"`
	FontsInstalled   int64      `json:"fontsInstalled"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toDeviceResponse(d model.Device, online bool) deviceResponse {
	return deviceResponse{
		ID:               d.ID,
		Name:             d.Name,
		Identifier:       d.Identifier,
		OSType:           d.OSType,
		OSVersion:        d.OSVersion,
		Online:           online,
		SyncEnabled:      d.SyncEnabled,
		LastSeen:         d.LastSeen,
		LastSync:         d.LastSync,
		LastScan:         d.LastScan,
		FontsContributed: d.FontsContributed,
		FontsInstalled:   d.FontsInstalled,
		CreatedAt:        d.CreatedAt,
	}
}

type deviceListResponse struct {
	Devices []deviceResponse `json:"devices"`
}

type renameDeviceRequest struct {
	Name string `json:"name"`
}

type syncEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type deviceFontResponse struct {
	fontResponse
	Status      model.InstallStatus `json:"status"`
	SystemFont  bool                `json:"systemFont"`
	InstalledAt time.Time           `json:"installedAt"`
}

type deviceFontListResponse struct {
	Fonts []deviceFontResponse `json:"fonts"`
}

type syncStatusResponse struct {
	TotalFonts  int64      `json:"totalFonts"`
	DeviceFonts int64      `json:"deviceFonts"`
	PendingSync int64      `json:"pendingSync"`
	LastSync    *time.Time `json:"lastSync,omitempty"`
}

type reconcileRequest struct {
	DeviceID uuid.UUID `json:"deviceId"`
}

type reconcileResponse struct {
	Downloaded int    `json:"downloaded"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Message    string `json:"message"`
}

type queueEntryResponse struct {
	ID        uuid.UUID         `json:"id"`
	FontID    uuid.UUID         `json:"fontId"`
	Action    model.QueueAction `json:"action"`
	Status    model.QueueStatus `json:"status"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type queueListResponse struct {
	Entries []queueEntryResponse `json:"entries"`
}

type settingsResponse struct {
	AutoSync        bool                  `json:"autoSync"`
	ScanFrequency   model.ScanFrequency   `json:"scanFrequency"`
	DuplicatePolicy model.DuplicatePolicy `json:"duplicatePolicy"`
}

type settingsUpdateRequest struct {
	AutoSync        *bool   `json:"autoSync"`
	ScanFrequency   *string `json:"scanFrequency"`
	DuplicatePolicy *string `json:"duplicatePolicy"`
}

type storageUsageResponse struct {
	Used    int64   `json:"used"`
	Limit   int64   `json:"limit"`
	Percent float64 `json:"percent"`
}

type errorResponse struct {
	Error  string     `json:"error"`
	FontID *uuid.UUID `json:"fontId,omitempty"`
}
