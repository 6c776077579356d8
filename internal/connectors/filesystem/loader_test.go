package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func corpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "smith-v-jones.md"), "# Smith v Jones")
	writeFile(t, filepath.Join(dir, "notes.txt"), "notes")
	writeFile(t, filepath.Join(dir, "image.png"), "png")
	writeFile(t, filepath.Join(dir, ".hidden.md"), "hidden")
	writeFile(t, filepath.Join(dir, ".git", "HEAD.txt"), "ref")
	writeFile(t, filepath.Join(dir, "appeals", "2023-wasat-12.html"), "<p>appeal</p>")
	writeFile(t, filepath.Join(dir, "appeals", "drafts", "draft.md"), "draft")
	return dir
}

func TestLoader_Collect(t *testing.T) {
	dir := corpus(t)

	t.Run("walks directories recursively", func(t *testing.T) {
		files, err := New().Collect([]string{dir})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "appeals", "2023-wasat-12.html"),
			filepath.Join(dir, "appeals", "drafts", "draft.md"),
			filepath.Join(dir, "notes.txt"),
			filepath.Join(dir, "smith-v-jones.md"),
		}, files)
	})

	t.Run("expands doublestar patterns", func(t *testing.T) {
		files, err := New().Collect([]string{filepath.Join(dir, "**", "*.md")})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "appeals", "drafts", "draft.md"),
			filepath.Join(dir, "smith-v-jones.md"),
		}, files)
	})

	t.Run("de-duplicates overlapping arguments", func(t *testing.T) {
		files, err := New().Collect([]string{dir, filepath.Join(dir, "notes.txt")})
		require.NoError(t, err)
		assert.Len(t, files, 4)
	})

	t.Run("applies excludes", func(t *testing.T) {
		files, err := New(WithExcludes("drafts", "*.txt")).Collect([]string{dir})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "appeals", "2023-wasat-12.html"),
			filepath.Join(dir, "smith-v-jones.md"),
		}, files)
	})

	t.Run("restricts extensions", func(t *testing.T) {
		files, err := New(WithExtensions("html")).Collect([]string{dir})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "appeals", "2023-wasat-12.html")}, files)
	})

	t.Run("accepts file URIs", func(t *testing.T) {
		files, err := New().Collect([]string{"file://" + filepath.Join(dir, "notes.txt")})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := New().Collect([]string{filepath.Join(dir, "missing.md")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unsupported file named explicitly", func(t *testing.T) {
		_, err := New().Collect([]string{filepath.Join(dir, "image.png")})
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := New().Collect([]string{filepath.Join(dir, "[")})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLoader_Dirs(t *testing.T) {
	dir := corpus(t)

	dirs, err := New().Dirs(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		dir,
		filepath.Join(dir, "appeals"),
		filepath.Join(dir, "appeals", "drafts"),
	}, dirs)
}

func TestLoader_Read(t *testing.T) {
	dir := corpus(t)
	path := filepath.Join(dir, "appeals", "2023-wasat-12.html")

	raw, err := New().Read(path)
	require.NoError(t, err)

	assert.Equal(t, path, raw.URI)
	assert.Equal(t, "text/html", raw.MIMEType)
	assert.Equal(t, "<p>appeal</p>", string(raw.Content))
	assert.Equal(t, "2023-wasat-12", raw.BaseName())
	assert.Equal(t, path, raw.MetaString(MetaPath))
	assert.Equal(t, int64(len("<p>appeal</p>")), raw.Metadata[MetaSize])
	assert.NotEmpty(t, raw.MetaString(MetaModified))

	_, err = New().Read(filepath.Join(dir, "missing.md"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = New().Read(dir)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoader_Accepts(t *testing.T) {
	l := New()
	assert.True(t, l.Accepts("cases/a.MD"))
	assert.True(t, l.Accepts("/home/user/.caselaw/cases/a.pdf"))
	assert.False(t, l.Accepts("cases/.a.md"))
	assert.False(t, l.Accepts("cases/a.png"))
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/path/.hidden/file.txt", true},
		{"dir/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
		{"directory.name/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}
