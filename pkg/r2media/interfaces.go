package r2media

import (
	"context"
	"io"
)

// BlobStore defines the interface for object-store backends
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with content type and disposition
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly. Returns ErrObjectNotFound when
	// the key does not exist.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Exists reports whether the key currently exists in the store
	Exists(ctx context.Context, objectKey string) (bool, error)

	// Delete deletes a single object
	Delete(ctx context.Context, objectKey string) error

	// DeleteBatch deletes the given keys, chunking requests as the backend requires
	DeleteBatch(ctx context.Context, objectKeys []string) error

	// Copy copies an object within the store
	Copy(ctx context.Context, srcKey, dstKey string) error

	// List lists objects, following pagination to exhaustion
	List(ctx context.Context, opts ListOptions) ([]ObjectInfo, error)

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// ExistenceCache memoizes whether a logical path currently exists remotely.
// Absence of an entry means "unknown", not "false".
type ExistenceCache interface {
	// Get returns the cached value; ok is false on a miss or expired entry
	Get(path string) (exists bool, ok bool)

	// Set stores the value under the cache's TTL
	Set(path string, exists bool)

	// Remove drops a single entry
	Remove(path string)

	// Clear drops every entry owned by this cache
	Clear()
}

// Scratch stages bytes between remote download and remote upload in a local
// working directory.
type Scratch interface {
	// DownloadToTemp fetches the remote object to a local file. Returns
	// ok=false when the object is missing or the read failed; callers do
	// not distinguish the two.
	DownloadToTemp(ctx context.Context, path string) (localPath string, ok bool)

	// Upload writes the local file to the store at the given logical path
	// and records existence on success
	Upload(ctx context.Context, localPath, path string) bool

	// Cleanup removes a scratch file, best effort
	Cleanup(localPath string)

	// TempPath maps a logical path to its deterministic scratch location
	TempPath(path string) string
}

// Transcoder re-encodes a local image file at new dimensions and quality.
// Zero width or height means "not given"; a single given dimension
// preserves the source aspect ratio.
type Transcoder interface {
	Resize(srcPath, dstPath string, width, height, quality int) error
}

// Prober checks whether a URL currently resolves, typically with a HEAD
// request against the CDN. The error return distinguishes a failed check
// from a confirmed-negative result.
type Prober interface {
	Probe(ctx context.Context, url string) (bool, error)
}
