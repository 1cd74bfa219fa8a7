package r2media

import "time"

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey   string
	MimeType    string
	Disposition string // e.g. "inline"; empty omits the header
}

// ListOptions controls object listing
type ListOptions struct {
	Prefix    string
	Delimiter string // "/" for directory-style listing
}

// ObjectInfo describes one entry returned by a listing
type ObjectInfo struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
	IsPrefix  bool // true for a common prefix ("directory") entry
}

// File is a media asset addressed by its logical path
type File struct {
	Path    string
	Content []byte
}

// ResizeRequest describes a derived image size. Width and Height are zero
// when the caller did not supply that dimension.
type ResizeRequest struct {
	ImagePath string
	Width     int
	Height    int
	Quality   int
}

// ResizeResult is the terminal state of a successful resize request
type ResizeResult struct {
	Path      string // derived logical path
	URL       string // canonical CDN URL for the derived object
	Generated bool   // false when served from the existence cache
}
