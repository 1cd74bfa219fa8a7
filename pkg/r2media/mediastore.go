package r2media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// MediaStore exposes file-storage operations in logical-path terms on top
// of a BlobStore and a key prefix.
type MediaStore struct {
	store  BlobStore
	keys   KeyFormatter
	logger *slog.Logger
}

// NewMediaStore creates a media store. A nil logger falls back to
// slog.Default().
func NewMediaStore(store BlobStore, keys KeyFormatter, logger *slog.Logger) *MediaStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaStore{store: store, keys: keys, logger: logger}
}

// LoadByPath fetches a file by logical path. Returns ErrObjectNotFound when
// the object does not exist.
func (m *MediaStore) LoadByPath(ctx context.Context, path string) (*File, error) {
	path = strings.TrimLeft(path, "/")

	rc, err := m.store.Download(ctx, m.keys.ToKey(path))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, &StorageError{Backend: "media", Key: path, Op: "load", Err: err}
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, &StorageError{Backend: "media", Key: path, Op: "load", Err: err}
	}

	return &File{Path: path, Content: content}, nil
}

// SaveFile uploads a file, sniffing its content type and setting an inline
// disposition for human-viewable types. With overwrite=false an existing
// object is left untouched and false is returned.
func (m *MediaStore) SaveFile(ctx context.Context, file File, overwrite bool) (bool, error) {
	path := strings.TrimLeft(file.Path, "/")
	if path == "" {
		return false, fmt.Errorf("%w: empty file path", ErrInvalidInput)
	}

	if !overwrite {
		exists, err := m.FileExists(ctx, path)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	params := UploadParams{ObjectKey: m.keys.ToKey(path)}
	if mime := DetectMimeType(path, file.Content); mime != "" {
		params.MimeType = mime
		if IsInlineMimeType(mime) {
			params.Disposition = "inline"
		}
	}

	if err := m.store.UploadWithParams(ctx, bytes.NewReader(file.Content), params); err != nil {
		m.logger.Error("Failed to save media file", "path", path, "error", err)
		return false, &StorageError{Backend: "media", Key: path, Op: "save", Err: err}
	}

	return true, nil
}

// FileExists probes the store for a logical path
func (m *MediaStore) FileExists(ctx context.Context, path string) (bool, error) {
	exists, err := m.store.Exists(ctx, m.keys.ToKey(strings.TrimLeft(path, "/")))
	if err != nil {
		return false, &StorageError{Backend: "media", Key: path, Op: "exists", Err: err}
	}
	return exists, nil
}

// CopyFile copies a file between logical paths
func (m *MediaStore) CopyFile(ctx context.Context, oldPath, newPath string) error {
	err := m.store.Copy(ctx, m.keys.ToKey(oldPath), m.keys.ToKey(newPath))
	if err != nil {
		m.logger.Error("Failed to copy media file", "from", oldPath, "to", newPath, "error", err)
		return &StorageError{Backend: "media", Key: oldPath, Op: "copy", Err: err}
	}
	return nil
}

// RenameFile copies then deletes the source
func (m *MediaStore) RenameFile(ctx context.Context, oldPath, newPath string) error {
	if err := m.CopyFile(ctx, oldPath, newPath); err != nil {
		return err
	}
	return m.DeleteFile(ctx, oldPath)
}

// DeleteFile removes a single file
func (m *MediaStore) DeleteFile(ctx context.Context, path string) error {
	if err := m.store.Delete(ctx, m.keys.ToKey(path)); err != nil {
		m.logger.Error("Failed to delete media file", "path", path, "error", err)
		return &StorageError{Backend: "media", Key: path, Op: "delete", Err: err}
	}
	return nil
}

// DeleteDirectory removes every object under the given logical path
func (m *MediaStore) DeleteDirectory(ctx context.Context, path string) error {
	prefix := m.directoryPrefix(path)
	if prefix == "" {
		return nil
	}

	infos, err := m.store.List(ctx, ListOptions{Prefix: prefix})
	if err != nil {
		return &StorageError{Backend: "media", Key: path, Op: "delete_directory", Err: err}
	}

	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.Key)
	}

	if err := m.store.DeleteBatch(ctx, keys); err != nil {
		return &StorageError{Backend: "media", Key: path, Op: "delete_directory", Err: err}
	}
	return nil
}

// ListDirectory returns the files directly under a logical path
func (m *MediaStore) ListDirectory(ctx context.Context, path string) ([]string, error) {
	infos, err := m.store.List(ctx, ListOptions{Prefix: m.directoryPrefix(path), Delimiter: "/"})
	if err != nil {
		return nil, &StorageError{Backend: "media", Key: path, Op: "list", Err: err}
	}

	var files []string
	for _, info := range infos {
		if info.IsPrefix {
			continue
		}
		files = append(files, m.keys.FromKey(info.Key))
	}
	return files, nil
}

// ListSubdirectories returns the directory-style prefixes directly under a
// logical path
func (m *MediaStore) ListSubdirectories(ctx context.Context, path string) ([]string, error) {
	infos, err := m.store.List(ctx, ListOptions{Prefix: m.directoryPrefix(path), Delimiter: "/"})
	if err != nil {
		return nil, &StorageError{Backend: "media", Key: path, Op: "list_subdirectories", Err: err}
	}

	var dirs []string
	for _, info := range infos {
		if !info.IsPrefix {
			continue
		}
		dir := strings.TrimRight(m.keys.FromKey(info.Key), "/")
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// ListAllFiles returns every logical path in the store
func (m *MediaStore) ListAllFiles(ctx context.Context) ([]string, error) {
	infos, err := m.store.List(ctx, ListOptions{Prefix: m.directoryPrefix("")})
	if err != nil {
		return nil, &StorageError{Backend: "media", Op: "list_all", Err: err}
	}

	var files []string
	for _, info := range infos {
		if info.Key == "" || strings.HasSuffix(info.Key, "/") {
			continue
		}
		files = append(files, m.keys.FromKey(info.Key))
	}
	return files, nil
}

// Clear removes every object under the media prefix
func (m *MediaStore) Clear(ctx context.Context) error {
	files, err := m.ListAllFiles(ctx)
	if err != nil {
		return err
	}
	m.logger.Info("Clearing media storage", "files", len(files))

	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, m.keys.ToKey(f))
	}
	if err := m.store.DeleteBatch(ctx, keys); err != nil {
		return &StorageError{Backend: "media", Op: "clear", Err: err}
	}
	return nil
}

// directoryPrefix maps a logical path to a trailing-slash key prefix. An
// empty path yields the bare media prefix ("" when none is configured).
func (m *MediaStore) directoryPrefix(path string) string {
	key := m.keys.ToKey(strings.Trim(path, "/"))
	if key == "" {
		return ""
	}
	return strings.TrimRight(key, "/") + "/"
}
