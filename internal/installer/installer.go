// Package installer implements the local font installation capability: it
// downloads font bytes over presigned URLs and places them in the host's
// user font directory.
package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
)

// Local installs fonts into a directory on the local filesystem.
type Local struct {
	dir    string
	client *http.Client
	logger *logger.Logger
}

var _ model.Installer = (*Local)(nil)

// NewLocal creates an installer rooted at dir. An empty dir selects the
// platform's user font directory.
func NewLocal(dir string, logger *logger.Logger) (*Local, error) {
	if dir == "" {
		d, err := defaultFontDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create font directory: %w", err)
	}

	return &Local{
		dir:    dir,
		client: &http.Client{Timeout: 2 * time.Minute},
		logger: logger,
	}, nil
}

func defaultFontDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Fonts"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Microsoft", "Windows", "Fonts"), nil
	default:
		return filepath.Join(home, ".local", "share", "fonts"), nil
	}
}

// Dir returns the install directory.
func (l *Local) Dir() string {
	return l.dir
}

// CheckInstalledBatch reports which of fileNames already exist in the
// install directory.
func (l *Local) CheckInstalledBatch(ctx context.Context, fileNames []string) (map[string]bool, error) {
	present := make(map[string]bool, len(fileNames))
	for _, name := range fileNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, err := os.Stat(filepath.Join(l.dir, filepath.Base(name)))
		present[name] = err == nil
	}
	return present, nil
}

// InstallFromURL downloads font bytes and writes them under fileName. A file
// that already exists is left untouched and reported as such. The write goes
// through a temp file so a failed download never leaves a truncated font
// behind.
func (l *Local) InstallFromURL(ctx context.Context, url, fileName string) (model.InstallResult, error) {
	target := filepath.Join(l.dir, filepath.Base(fileName))

	if _, err := os.Stat(target); err == nil {
		return model.InstallResult{InstalledPath: target, AlreadyExisted: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.InstallResult{}, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return model.InstallResult{}, fmt.Errorf("failed to download font: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.InstallResult{}, fmt.Errorf("unexpected download status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(l.dir, ".download-*")
	if err != nil {
		return model.InstallResult{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return model.InstallResult{}, fmt.Errorf("failed to write font bytes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return model.InstallResult{}, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return model.InstallResult{}, fmt.Errorf("failed to move font into place: %w", err)
	}

	l.logger.Info("font installed", "path", target)
	return model.InstallResult{InstalledPath: target}, nil
}
