package domain

import (
	"path"
	"strings"
)

// RawDocument represents the bytes of a case file before normalisation.
type RawDocument struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains loader-specific key-value pairs.
	Metadata map[string]any
}

// BaseName returns the last URI segment without its extension.
// Normalisers use it as the document ID and fallback title.
func (r *RawDocument) BaseName() string {
	uri := strings.TrimRight(strings.ReplaceAll(r.URI, "\\", "/"), "/")
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	base := path.Base(uri)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// MetaString returns a string metadata value or "".
func (r *RawDocument) MetaString(key string) string {
	if r.Metadata == nil {
		return ""
	}
	s, _ := r.Metadata[key].(string)
	return s
}
