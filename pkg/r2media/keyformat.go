package r2media

import "strings"

// KeyFormatter maps logical media paths to object-store keys under an
// optional immutable prefix.
type KeyFormatter struct {
	prefix string
}

// NewKeyFormatter creates a formatter. Leading and trailing slashes are
// stripped from the prefix.
func NewKeyFormatter(prefix string) KeyFormatter {
	return KeyFormatter{prefix: strings.Trim(prefix, "/")}
}

// ToKey maps a logical path to its object-store key
func (f KeyFormatter) ToKey(path string) string {
	path = strings.TrimLeft(path, "/")
	if f.prefix == "" {
		return path
	}
	return f.prefix + "/" + path
}

// FromKey maps an object-store key back to its logical path. Keys that do
// not carry the prefix are treated as already logical.
func (f KeyFormatter) FromKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if f.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, f.prefix+"/")
}
