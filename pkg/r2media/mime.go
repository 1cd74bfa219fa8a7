package r2media

import (
	"net/http"
	"path/filepath"
	"strings"
)

// extensionMimeTypes is the fallback table used when content sniffing is
// inconclusive.
var extensionMimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"bmp":  "image/bmp",
	"ico":  "image/vnd.microsoft.icon",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"html": "text/html",
	"htm":  "text/html",
	"mp4":  "video/mp4",
	"mp3":  "audio/mpeg",
	"zip":  "application/zip",
}

// inlineMimePrefixes lists content types that browsers render in place;
// objects of these types get an inline content disposition.
var inlineMimePrefixes = []string{
	"image/",
	"text/plain",
	"text/css",
	"text/html",
	"application/javascript",
	"application/json",
	"application/xml",
	"application/pdf",
	"video/",
	"audio/",
}

// DetectMimeType sniffs the content first and falls back to the extension
// table. Returns "" when neither yields anything useful.
func DetectMimeType(path string, content []byte) string {
	if len(content) > 0 {
		sniffed := http.DetectContentType(content)
		// Strip any "; charset=..." suffix the sniffer appends.
		if i := strings.Index(sniffed, ";"); i >= 0 {
			sniffed = sniffed[:i]
		}
		if sniffed != "application/octet-stream" {
			return sniffed
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return extensionMimeTypes[ext]
}

// IsInlineMimeType reports whether objects of the given type should be
// served with an inline disposition.
func IsInlineMimeType(mime string) bool {
	for _, prefix := range inlineMimePrefixes {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	return false
}
