package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/hash"
	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
)

// Registrar ingests batches of locally scanned fonts, resolves duplicates by
// content hash and fans install hints out to the user's other devices.
type Registrar struct {
	fontStore   model.FontStore
	deviceStore model.DeviceStore
	assocStore  model.AssociationStore
	queueStore  model.SyncQueueStore
	logger      *logger.Logger
}

func NewRegistrar(
	fontStore model.FontStore,
	deviceStore model.DeviceStore,
	assocStore model.AssociationStore,
	queueStore model.SyncQueueStore,
	logger *logger.Logger,
) *Registrar {
	return &Registrar{
		fontStore:   fontStore,
		deviceStore: deviceStore,
		assocStore:  assocStore,
		queueStore:  queueStore,
		logger:      logger,
	}
}

// RegistrationItem is one scanned font in a bulk registration.
type RegistrationItem struct {
	Name        string
	Family      string
	ContentHash string
	FileSize    int64
	Format      model.FontFormat
	StorageKey  string
	Metadata    map[string]string
}

// DuplicateRef points a rejected duplicate at the font that already owns its
// content.
type DuplicateRef struct {
	Name   string
	FontID uuid.UUID
}

// BulkReport summarizes a bulk registration. Items lost to transient store
// errors appear in neither list; retrying the batch is safe because
// registration is idempotent.
type BulkReport struct {
	Registered        []model.Font
	Duplicates        []DuplicateRef
	StorageBackfilled int
	SyncQueuedDevices int
}

// BulkRegister processes items in input order. Each item either creates a
// catalog row (and associates it with the origin device as present at scan)
// or resolves to an existing row by hash. Duplicates can still contribute: a
// storage key arriving for a row that has none is backfilled, making the font
// newly downloadable. New and newly-downloadable fonts are then queued for
// the user's other active devices. The batch is not atomic; a failing item is
// logged and dropped without aborting the rest.
func (s *Registrar) BulkRegister(ctx context.Context, userID, originDeviceID uuid.UUID, items []RegistrationItem) (BulkReport, error) {
	device, err := s.deviceStore.GetByID(ctx, originDeviceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return BulkReport{}, model.ErrNotFound
		}
		return BulkReport{}, fmt.Errorf("failed to get device by id: %w", err)
	}
	if device.UserID != userID {
		return BulkReport{}, model.ErrNotFound
	}

	var report BulkReport
	var fanOut []model.Font

	for _, item := range items {
		contentHash := hash.Normalize(item.ContentHash)
		if !hash.Valid(contentHash) {
			s.logger.Warn("skipping item with invalid content hash", "name", item.Name)
			continue
		}

		font := model.Font{
			ID:             uuid.New(),
			UserID:         userID,
			Name:           item.Name,
			Family:         item.Family,
			ContentHash:    contentHash,
			FileSize:       item.FileSize,
			Format:         item.Format,
			StorageKey:     item.StorageKey,
			OriginDeviceID: &originDeviceID,
			Metadata:       item.Metadata,
		}

		saved, isNew, err := s.fontStore.RegisterOrGet(ctx, font)
		if err != nil {
			s.logger.Warn("failed to register font", "name", item.Name, "error", err)
			continue
		}

		if isNew {
			report.Registered = append(report.Registered, saved)
			fanOut = append(fanOut, saved)
		} else {
			if item.StorageKey != "" && !saved.Syncable() {
				changed, err := s.fontStore.AttachStorageKey(ctx, saved.ID, item.StorageKey)
				if err != nil {
					s.logger.Warn("failed to backfill storage key", "font_id", saved.ID, "error", err)
				} else if changed {
					saved.StorageKey = item.StorageKey
					report.StorageBackfilled++
					fanOut = append(fanOut, saved)
				}
			}
			report.Duplicates = append(report.Duplicates, DuplicateRef{Name: item.Name, FontID: saved.ID})
		}

		// The origin device has the bytes locally either way; mark it so
		// reconciliation never re-downloads them.
		assoc := model.DeviceFont{
			DeviceID:      originDeviceID,
			FontID:        saved.ID,
			Status:        model.StatusInstalled,
			PresentAtScan: true,
			SystemFont:    true,
		}
		if err := s.assocStore.Associate(ctx, assoc); err != nil {
			s.logger.Warn("failed to associate origin device", "font_id", saved.ID, "error", err)
		}
	}

	if err := s.deviceStore.RefreshScanStats(ctx, originDeviceID); err != nil {
		s.logger.Warn("failed to refresh scan stats", "device_id", originDeviceID, "error", err)
	}

	if len(fanOut) > 0 {
		queued, err := s.fanOutToSiblings(ctx, userID, originDeviceID, fanOut)
		if err != nil {
			s.logger.Warn("sync fan-out incomplete", "error", err)
		}
		report.SyncQueuedDevices = queued
	}

	return report, nil
}

// fanOutToSiblings enqueues one install hint per (font, sibling device) pair,
// skipping pairs where the sibling already has the font. Returns the number
// of devices that received at least one entry.
func (s *Registrar) fanOutToSiblings(ctx context.Context, userID, originDeviceID uuid.UUID, fonts []model.Font) (int, error) {
	siblings, err := s.deviceStore.ListActiveSiblings(ctx, userID, originDeviceID)
	if err != nil {
		return 0, fmt.Errorf("failed to list sibling devices: %w", err)
	}

	reached := make(map[uuid.UUID]struct{})
	for _, font := range fonts {
		for _, sibling := range siblings {
			has, err := s.assocStore.IsAssociated(ctx, sibling.ID, font.ID)
			if err != nil {
				s.logger.Warn("failed to check association", "device_id", sibling.ID, "font_id", font.ID, "error", err)
				continue
			}
			if has {
				continue
			}

			queued, err := s.queueStore.Enqueue(ctx, sibling.ID, font.ID)
			if err != nil {
				s.logger.Warn("failed to enqueue sync entry", "device_id", sibling.ID, "font_id", font.ID, "error", err)
				continue
			}
			if queued {
				reached[sibling.ID] = struct{}{}
			}
		}
	}

	return len(reached), nil
}
