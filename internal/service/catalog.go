package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/hash"
	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
)

// CatalogConfig carries the catalog's presign and quota tunables.
type CatalogConfig struct {
	UploadURLTTL        time.Duration
	DownloadURLTTL      time.Duration
	DefaultStorageLimit int64
}

// Catalog implements the font catalog operations: listing, deletion,
// hash lookups and the presigned upload/download flow.
type Catalog struct {
	fontStore model.FontStore
	userStore model.UserStore
	storage   model.Storage
	logger    *logger.Logger
	cfg       CatalogConfig
}

func NewCatalog(
	fontStore model.FontStore,
	userStore model.UserStore,
	storage model.Storage,
	logger *logger.Logger,
	cfg CatalogConfig,
) *Catalog {
	return &Catalog{
		fontStore: fontStore,
		userStore: userStore,
		storage:   storage,
		logger:    logger,
		cfg:       cfg,
	}
}

func (s *Catalog) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Font, error) {
	fonts, err := s.fontStore.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list fonts: %w", err)
	}
	return fonts, nil
}

// CheckHash reports whether the user already owns content with this hash.
func (s *Catalog) CheckHash(ctx context.Context, userID uuid.UUID, contentHash string) (model.Font, bool, error) {
	font, err := s.fontStore.GetByHash(ctx, userID, hash.Normalize(contentHash))
	if errors.Is(err, model.ErrNotFound) {
		return model.Font{}, false, nil
	}
	if err != nil {
		return model.Font{}, false, fmt.Errorf("failed to look up hash: %w", err)
	}
	return font, true, nil
}

// Delete removes the catalog row and then the stored bytes. Object deletion
// failures are logged, not surfaced: the row is gone and the orphaned object
// is harmless.
func (s *Catalog) Delete(ctx context.Context, fontID, userID uuid.UUID) error {
	font, err := s.fontStore.GetByID(ctx, fontID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get font by id: %w", err)
	}
	if font.UserID != userID {
		return model.ErrNotFound
	}

	if err := s.fontStore.Delete(ctx, fontID, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to delete font: %w", err)
	}

	if font.Syncable() {
		if err := s.storage.Delete(ctx, font.StorageKey); err != nil {
			s.logger.Warn("failed to delete font bytes", "font_id", fontID, "key", font.StorageKey, "error", err)
		}
	}

	return nil
}

// UploadRequest describes a client's intent to upload font bytes.
type UploadRequest struct {
	ContentHash string
	FileName    string
	FileSize    int64
	Format      model.FontFormat
}

// UploadTicket is a time-limited permission to PUT font bytes.
type UploadTicket struct {
	URL         string
	StorageKey  string
	ContentType string
}

// CreateUploadURL issues a presigned PUT for new content. A hash the user
// already owns with uploaded bytes is a conflict carrying the existing id; a
// hash owned as metadata only is allowed through so the upload can backfill
// its storage key on confirm.
func (s *Catalog) CreateUploadURL(ctx context.Context, userID uuid.UUID, req UploadRequest) (UploadTicket, error) {
	req.ContentHash = hash.Normalize(req.ContentHash)
	if !hash.Valid(req.ContentHash) {
		return UploadTicket{}, fmt.Errorf("invalid content hash %q: %w", req.ContentHash, model.ErrInvalidInput)
	}

	existing, found, err := s.CheckHash(ctx, userID, req.ContentHash)
	if err != nil {
		return UploadTicket{}, err
	}
	if found && existing.Syncable() {
		return UploadTicket{}, &model.ConflictError{FontID: existing.ID}
	}

	if err := s.checkQuota(ctx, userID, req.FileSize); err != nil {
		return UploadTicket{}, err
	}

	key := fmt.Sprintf("%s/%s%s", userID, uuid.New(), req.Format.Extension())
	url, err := s.storage.PutURL(ctx, key, req.Format.ContentType(), s.cfg.UploadURLTTL)
	if err != nil {
		return UploadTicket{}, fmt.Errorf("failed to presign upload: %w", err)
	}

	return UploadTicket{
		URL:         url,
		StorageKey:  key,
		ContentType: req.Format.ContentType(),
	}, nil
}

// DownloadURL issues a presigned GET for the font's bytes.
func (s *Catalog) DownloadURL(ctx context.Context, fontID, userID uuid.UUID) (string, error) {
	font, err := s.fontStore.GetByID(ctx, fontID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get font by id: %w", err)
	}
	if font.UserID != userID {
		return "", model.ErrNotFound
	}
	if !font.Syncable() {
		return "", model.ErrNotUploaded
	}

	url, err := s.storage.GetURL(ctx, font.StorageKey, s.cfg.DownloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return url, nil
}

// Usage summarizes the user's storage consumption against their quota.
type Usage struct {
	Used    int64
	Limit   int64
	Percent float64
}

func (s *Catalog) StorageUsage(ctx context.Context, userID uuid.UUID) (Usage, error) {
	used, err := s.fontStore.StorageUsage(ctx, userID)
	if err != nil {
		return Usage{}, fmt.Errorf("failed to compute storage usage: %w", err)
	}

	limit := s.cfg.DefaultStorageLimit
	user, err := s.userStore.GetByID(ctx, userID)
	if err == nil && user.StorageLimit > 0 {
		limit = user.StorageLimit
	}

	u := Usage{Used: used, Limit: limit}
	if limit > 0 {
		u.Percent = float64(used) / float64(limit) * 100
	}
	return u, nil
}

func (s *Catalog) checkQuota(ctx context.Context, userID uuid.UUID, incoming int64) error {
	usage, err := s.StorageUsage(ctx, userID)
	if err != nil {
		return err
	}
	if usage.Used+incoming > usage.Limit {
		return model.ErrQuotaExceeded
	}
	return nil
}

// ListForDevice returns the catalog rows associated with a device.
func (s *Catalog) ListForDevice(ctx context.Context, deviceID, userID uuid.UUID) ([]model.DeviceFontView, error) {
	views, err := s.fontStore.ListByDevice(ctx, deviceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device fonts: %w", err)
	}
	return views, nil
}
