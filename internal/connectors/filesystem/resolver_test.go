package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"file URI", "file:///cases/2023-wasat-12.pdf", "/cases/2023-wasat-12.pdf"},
		{"file URI with spaces", "file:///cases/my cases/a.txt", "/cases/my cases/a.txt"},
		{"bare path", "/cases/a.txt", "/cases/a.txt"},
		{"relative path", "cases/a.txt", "cases/a.txt"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalPath(tt.uri))
		})
	}
}
