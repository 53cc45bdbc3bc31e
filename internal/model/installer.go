package model

import (
	"context"

	"github.com/google/uuid"
)

// Installer is the device-local font installation capability. The platform
// specifics (font directories, cache rebuilds) are entirely its concern.
type Installer interface {
	// CheckInstalledBatch reports, for each file name, whether it already
	// exists in the device's font install directory.
	CheckInstalledBatch(ctx context.Context, fileNames []string) (map[string]bool, error)
	// InstallFromURL downloads font bytes from a presigned URL and installs
	// them under fileName. Installing a file that already exists is success.
	InstallFromURL(ctx context.Context, url, fileName string) (InstallResult, error)
}

// InstallResult reports the outcome of a single install.
type InstallResult struct {
	InstalledPath  string
	AlreadyExisted bool
}

// ProgressSink receives per-unit progress during reconciliation. Transport
// (IPC event, channel, log line) is the caller's concern.
type ProgressSink func(completed, total int)

// TokenResolver resolves a bearer credential to a user id.
type TokenResolver interface {
	Resolve(token string) (uuid.UUID, error)
}
