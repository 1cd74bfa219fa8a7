// Package memory implements the r2media.BlobStore interface in process
// memory, for tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/magezero/r2media/pkg/r2media"
)

type object struct {
	data        []byte
	contentType string
	disposition string
	updatedAt   time.Time
}

// Backend is an in-memory implementation of the r2media.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{objects: make(map[string]object)}
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, r2media.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params r2media.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	contentType := params.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[params.ObjectKey] = object{
		data:        data,
		contentType: contentType,
		disposition: params.Disposition,
		updatedAt:   time.Now().UTC(),
	}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, r2media.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Exists reports whether the key is present
func (b *Backend) Exists(ctx context.Context, objectKey string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, exists := b.objects[objectKey]
	return exists, nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return r2media.ErrObjectNotFound
	}
	delete(b.objects, objectKey)
	return nil
}

// DeleteBatch deletes the given keys; missing keys are skipped
func (b *Backend) DeleteBatch(ctx context.Context, objectKeys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range objectKeys {
		delete(b.objects, key)
	}
	return nil
}

// Copy copies an object to a new key
func (b *Backend) Copy(ctx context.Context, srcKey, dstKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, exists := b.objects[srcKey]
	if !exists {
		return r2media.ErrObjectNotFound
	}
	cp := obj
	cp.data = append([]byte(nil), obj.data...)
	cp.updatedAt = time.Now().UTC()
	b.objects[dstKey] = cp
	return nil
}

// List lists keys by prefix; with a "/" delimiter subdirectories collapse
// into prefix entries.
func (b *Backend) List(ctx context.Context, opts r2media.ListOptions) ([]r2media.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var infos []r2media.ObjectInfo
	prefixes := make(map[string]bool)

	for key, obj := range b.objects {
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		if opts.Delimiter != "" {
			rest := strings.TrimPrefix(key, opts.Prefix)
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				prefixes[opts.Prefix+rest[:i+1]] = true
				continue
			}
		}
		infos = append(infos, r2media.ObjectInfo{
			Key:       key,
			Size:      int64(len(obj.data)),
			UpdatedAt: obj.updatedAt,
		})
	}

	for prefix := range prefixes {
		infos = append(infos, r2media.ObjectInfo{Key: prefix, IsPrefix: true})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })

	return infos, nil
}

// GetObjectMeta retrieves metadata for an object
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*r2media.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, r2media.ErrObjectNotFound
	}

	meta := &r2media.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		UpdatedAt:   obj.updatedAt,
		Metadata:    map[string]string{"content_type": obj.contentType},
	}
	if obj.disposition != "" {
		meta.Metadata["content_disposition"] = obj.disposition
	}
	return meta, nil
}
