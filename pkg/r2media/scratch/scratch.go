// Package scratch manages the local working directory used to stage bytes
// between remote download and remote upload.
package scratch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/magezero/r2media/pkg/r2media"
)

// maxAge is how long an orphaned scratch file may linger before the sweep
// removes it. Normal requests delete their files immediately; the sweep is
// a backstop for crashed or aborted requests.
const maxAge = time.Hour

// Manager stages files under a private scratch root. TempPath is
// deterministic, so the transcoder and orchestrator derive the same
// location independently.
type Manager struct {
	root   string
	media  *r2media.MediaStore
	cache  r2media.ExistenceCache
	logger *slog.Logger
}

// New creates the scratch root (if needed) and returns a manager
func New(root string, media *r2media.MediaStore, cache r2media.ExistenceCache, logger *slog.Logger) (*Manager, error) {
	if root == "" {
		return nil, errors.New("scratch root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{root: root, media: media, cache: cache, logger: logger}, nil
}

// Root returns the scratch root directory
func (m *Manager) Root() string {
	return m.root
}

// TempPath maps a logical path to its scratch location, preserving the
// directory structure under the root.
func (m *Manager) TempPath(path string) string {
	return filepath.Join(m.root, filepath.FromSlash(strings.TrimLeft(path, "/")))
}

// DownloadToTemp fetches a remote object into the scratch space. Returns
// ok=false when the object is missing or any step fails; failures are
// logged, never surfaced, so the caller treats both as "unavailable".
func (m *Manager) DownloadToTemp(ctx context.Context, path string) (string, bool) {
	file, err := m.media.LoadByPath(ctx, path)
	if err != nil {
		if errors.Is(err, r2media.ErrObjectNotFound) {
			m.logger.Debug("File not found in store", "path", path)
		} else {
			m.logger.Error("Failed to download file to scratch", "path", path, "error", err)
		}
		return "", false
	}

	tempPath := m.TempPath(path)
	if err := os.MkdirAll(filepath.Dir(tempPath), 0o755); err != nil {
		m.logger.Error("Failed to create scratch directory", "path", tempPath, "error", err)
		return "", false
	}
	if err := os.WriteFile(tempPath, file.Content, 0o644); err != nil {
		m.logger.Error("Failed to write scratch file", "path", tempPath, "error", err)
		return "", false
	}

	return tempPath, true
}

// Upload writes a scratch file to the store at the given logical path and
// records existence on success (write-through into the cache).
func (m *Manager) Upload(ctx context.Context, localPath, path string) bool {
	content, err := os.ReadFile(localPath)
	if err != nil {
		m.logger.Error("Scratch file not found for upload", "path", localPath, "error", err)
		return false
	}

	if _, err := m.media.SaveFile(ctx, r2media.File{Path: path, Content: content}, true); err != nil {
		m.logger.Error("Failed to upload scratch file",
			"local_path", localPath, "path", path, "error", err)
		return false
	}

	if m.cache != nil {
		m.cache.Set(strings.TrimLeft(path, "/"), true)
	}
	return true
}

// Cleanup removes a scratch file, best effort. Failures are logged at warn
// level and never block the caller.
func (m *Manager) Cleanup(localPath string) {
	if localPath == "" {
		return
	}
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("Failed to cleanup scratch file", "path", localPath, "error", err)
	}
}

// CleanupOldFiles deletes scratch files older than an hour and prunes
// directories emptied as a result. Runs out of band, never on the request
// path.
func (m *Manager) CleanupOldFiles() {
	cutoff := time.Now().Add(-maxAge)
	if err := m.sweepDir(m.root, cutoff); err != nil {
		m.logger.Warn("Failed to sweep old scratch files", "error", err)
	}
}

// sweepDir depth-first removes stale files, then empty directories
func (m *Manager) sweepDir(dir string, cutoff time.Time) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := m.sweepDir(path, cutoff); err != nil {
				m.logger.Warn("Failed to sweep scratch directory", "path", path, "error", err)
				continue
			}
			if remaining, err := os.ReadDir(path); err == nil && len(remaining) == 0 {
				_ = os.Remove(path)
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() && info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				m.logger.Warn("Failed to remove stale scratch file", "path", path, "error", err)
			}
		}
	}

	return nil
}
