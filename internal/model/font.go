package model

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FontStore defines persistence operations for the font catalog.
type FontStore interface {
	RegisterOrGet(ctx context.Context, font Font) (Font, bool, error)
	AttachStorageKey(ctx context.Context, fontID uuid.UUID, key string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (Font, error)
	GetByHash(ctx context.Context, userID uuid.UUID, contentHash string) (Font, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Font, error)
	ListSyncable(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Font, error)
	ListByDevice(ctx context.Context, deviceID uuid.UUID, userID uuid.UUID) ([]DeviceFontView, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	StorageUsage(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Font represents one unique binary font file owned by a user.
// (UserID, ContentHash) is the dedup key: byte-identical uploads by the same
// user always resolve to the same row regardless of filename.
type Font struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Family         string
	ContentHash    string
	FileSize       int64
	Format         FontFormat
	StorageKey     string
	OriginDeviceID *uuid.UUID
	Metadata       map[string]string
	CreatedAt      time.Time
}

// Syncable reports whether the font's bytes are durably uploaded and can be
// the source of a download. A font without a storage key is metadata only.
func (f Font) Syncable() bool {
	return f.StorageKey != ""
}

// FileName returns the name the font is installed under on a device.
func (f Font) FileName() string {
	ext := f.Format.Extension()
	if strings.HasSuffix(strings.ToLower(f.Name), ext) {
		return f.Name
	}
	return f.Name + ext
}

// FontFormat enumerates supported font file formats.
type FontFormat string

const (
	FormatTTF   FontFormat = "TTF"
	FormatOTF   FontFormat = "OTF"
	FormatWOFF  FontFormat = "WOFF"
	FormatWOFF2 FontFormat = "WOFF2"
)

// ParseFontFormat normalizes a file extension or format label.
func ParseFontFormat(s string) (FontFormat, bool) {
	f := FontFormat(strings.ToUpper(strings.TrimPrefix(s, ".")))
	switch f {
	case FormatTTF, FormatOTF, FormatWOFF, FormatWOFF2:
		return f, true
	}
	return "", false
}

// Extension returns the lowercase file extension including the dot.
func (f FontFormat) Extension() string {
	return "." + strings.ToLower(string(f))
}

// ContentType returns the MIME type used for presigned uploads.
func (f FontFormat) ContentType() string {
	switch f {
	case FormatTTF:
		return "font/ttf"
	case FormatOTF:
		return "font/otf"
	case FormatWOFF:
		return "font/woff"
	case FormatWOFF2:
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}

// DeviceFontView is a catalog row joined with its association state on one
// device, as returned by the device fonts listing.
type DeviceFontView struct {
	Font
	Status        InstallStatus
	SystemFont    bool
	InstalledAt   time.Time
	LastCheckedAt time.Time
}
