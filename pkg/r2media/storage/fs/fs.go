// Package fs implements the r2media.BlobStore interface on the local
// filesystem. It backs the "local" media strategy and doubles as the
// integration-test store.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magezero/r2media/pkg/r2media"
)

// Backend stores objects as files under a base directory
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string
}

// New creates a new filesystem storage backend, creating the base
// directory if needed.
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Backend{baseDir: config.BaseDir}, nil
}

func (b *Backend) filePath(objectKey string) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(objectKey))
}

// Upload uploads content directly to the filesystem
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	path := b.filePath(objectKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// UploadWithParams uploads content; content type is re-detected on read, so
// the params carry no extra effect here.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params r2media.UploadParams) error {
	return b.Upload(ctx, params.ObjectKey, reader)
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	file, err := os.Open(b.filePath(objectKey))
	if os.IsNotExist(err) {
		return nil, r2media.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists reports whether the key maps to a regular file
func (b *Backend) Exists(ctx context.Context, objectKey string) (bool, error) {
	info, err := os.Stat(b.filePath(objectKey))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// Delete deletes content from the filesystem and prunes directories left
// empty as a result.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	path := b.filePath(objectKey)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return r2media.ErrObjectNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	b.cleanupEmptyDirectories(filepath.Dir(path))
	return nil
}

// DeleteBatch deletes the given keys; missing keys are skipped
func (b *Backend) DeleteBatch(ctx context.Context, objectKeys []string) error {
	for _, key := range objectKeys {
		if err := b.Delete(ctx, key); err != nil && !errors.Is(err, r2media.ErrObjectNotFound) {
			return err
		}
	}
	return nil
}

// Copy copies an object to a new key
func (b *Backend) Copy(ctx context.Context, srcKey, dstKey string) error {
	src, err := b.Download(ctx, srcKey)
	if err != nil {
		return err
	}
	defer src.Close()
	return b.Upload(ctx, dstKey, src)
}

// List walks the base directory, filtering by prefix. With a "/" delimiter
// only direct children are returned and subdirectories surface as prefix
// entries.
func (b *Backend) List(ctx context.Context, opts r2media.ListOptions) ([]r2media.ObjectInfo, error) {
	var infos []r2media.ObjectInfo
	prefixes := make(map[string]bool)

	err := filepath.Walk(b.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, err := filepath.Rel(b.baseDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			return nil
		}

		if opts.Delimiter != "" {
			rest := strings.TrimPrefix(key, opts.Prefix)
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				prefixes[opts.Prefix+rest[:i+1]] = true
				return nil
			}
		}

		infos = append(infos, r2media.ObjectInfo{
			Key:       key,
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	for prefix := range prefixes {
		infos = append(infos, r2media.ObjectInfo{Key: prefix, IsPrefix: true})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })

	return infos, nil
}

// GetObjectMeta retrieves metadata for an object, sniffing the content type
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*r2media.ObjectMeta, error) {
	path := b.filePath(objectKey)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, r2media.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	contentType := "application/octet-stream"
	if file, err := os.Open(path); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &r2media.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{"content_type": contentType},
	}, nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
