package r2media

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrObjectNotFound indicates an object was not found in the store
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidInput indicates a missing or malformed request parameter
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates an image format the transcoder cannot handle
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrInvalidImage indicates image data that cannot be decoded
	ErrInvalidImage = errors.New("invalid image")

	// ErrUploadFailed indicates a remote write was rejected or the local source vanished
	ErrUploadFailed = errors.New("upload failed")
)

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
