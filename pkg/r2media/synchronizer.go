package r2media

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// derivedCacheDir is the logical directory holding generated image sizes
const derivedCacheDir = "catalog/product/cache"

// CacheSynchronizer uploads a locally generated image cache to the remote
// store and purges the remote derived cache on demand.
type CacheSynchronizer struct {
	media    *MediaStore
	cache    ExistenceCache
	mediaDir string
	logger   *slog.Logger
}

// NewCacheSynchronizer creates a synchronizer rooted at the local media
// directory.
func NewCacheSynchronizer(media *MediaStore, cache ExistenceCache, mediaDir string, logger *slog.Logger) *CacheSynchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheSynchronizer{media: media, cache: cache, mediaDir: mediaDir, logger: logger}
}

// Sync walks the local derived-image cache and uploads every regular file.
// Per-file failures are logged and do not abort the walk. A missing cache
// directory is a no-op.
func (s *CacheSynchronizer) Sync(ctx context.Context) error {
	root := filepath.Join(s.mediaDir, filepath.FromSlash(derivedCacheDir))
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Error("Error walking image cache directory", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(s.mediaDir, path)
		if err != nil {
			return nil
		}
		logicalPath := filepath.ToSlash(rel)

		content, err := os.ReadFile(path)
		if err != nil {
			s.logger.Error("Failed to read image cache file", "path", path, "error", err)
			return nil
		}

		if _, err := s.media.SaveFile(ctx, File{Path: logicalPath, Content: content}, true); err != nil {
			s.logger.Error("Failed to sync image cache file", "path", logicalPath, "error", err)
			return nil
		}

		if s.cache != nil {
			s.cache.Set(logicalPath, true)
		}
		s.logger.Debug("Synced image cache file", "path", logicalPath)
		return nil
	})
}

// SyncAfter runs a batch job and always synchronizes afterwards, matching
// the scoped-resource semantics of the platform's bulk resize command: the
// sync is the finalizer, executed whether the job succeeds or fails.
func (s *CacheSynchronizer) SyncAfter(ctx context.Context, job func() error) error {
	defer func() {
		if err := s.Sync(ctx); err != nil {
			s.logger.Error("Failed to sync image cache after batch job", "error", err)
		}
	}()
	return job()
}

// PurgeDerivedCache deletes the remote derived-image cache and resets the
// existence cache, so stale entries cannot mask the deletion.
func (s *CacheSynchronizer) PurgeDerivedCache(ctx context.Context) error {
	if err := s.media.DeleteDirectory(ctx, derivedCacheDir); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return nil
}

// LocalCacheDir returns the absolute local path of the derived-image cache
func (s *CacheSynchronizer) LocalCacheDir() string {
	return filepath.Join(s.mediaDir, filepath.FromSlash(derivedCacheDir))
}
