package filesystem

import "strings"

// LocalPath converts a file:// URI to a local path.
// Bare paths pass through unchanged.
func LocalPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}
