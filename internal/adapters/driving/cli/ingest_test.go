package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func writeCase(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestCmd(t *testing.T) {
	t.Run("ingests a directory with configured chunking", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		require.NoError(t, ts.config.Set("chunking.size", 800))

		dir := t.TempDir()
		writeCase(t, filepath.Join(dir, "smith-v-jones.md"), "# Smith v Jones\n\nNotice was given.")
		writeCase(t, filepath.Join(dir, "appeals", "r-v-brown.txt"), "R v Brown\nThe appeal is dismissed.")
		writeCase(t, filepath.Join(dir, "scan.png"), "binary")

		out, err := execute("ingest", "--no-progress", "--topic", "Contract Law", dir)
		require.NoError(t, err)

		assert.Contains(t, out, "Ingested 2 document(s), 4 chunk(s)")
		require.Len(t, ts.ingest.processed, 2)

		byID := map[string]domain.Document{}
		for _, d := range ts.ingest.processed {
			byID[d.ID] = d
		}
		assert.Equal(t, "Smith v Jones", byID["smith-v-jones"].Title)
		assert.Equal(t, "R v Brown", byID["r-v-brown"].Title)
		assert.Equal(t, "Contract Law", byID["r-v-brown"].Topic)
		assert.Equal(t, 800, ts.ingest.opts[0].Size)
		assert.Equal(t, 100, ts.ingest.opts[0].Overlap)
	})

	t.Run("flags override chunking", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		path := filepath.Join(t.TempDir(), "case.txt")
		writeCase(t, path, "One. Two. Three.")

		_, err := execute("ingest", "--size", "3", "--overlap", "1", "--unit", "sentences", path)
		require.NoError(t, err)
		require.Len(t, ts.ingest.opts, 1)
		assert.Equal(t, domain.ChunkOptions{Size: 3, Overlap: 1, Unit: domain.ChunkUnitSentences}, ts.ingest.opts[0])
	})

	t.Run("rejects invalid chunking", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		path := filepath.Join(t.TempDir(), "case.txt")
		writeCase(t, path, "text")

		_, err := execute("ingest", "--size", "10", "--overlap", "10", path)
		assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
	})

	t.Run("expands patterns and excludes", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		dir := t.TempDir()
		writeCase(t, filepath.Join(dir, "a.md"), "# A")
		writeCase(t, filepath.Join(dir, "drafts", "b.md"), "# B")
		writeCase(t, filepath.Join(dir, "c.txt"), "C")

		out, err := execute("ingest", "--exclude", "drafts", filepath.Join(dir, "**", "*.md"))
		require.NoError(t, err)
		assert.Contains(t, out, "Ingested 1 document(s)")
		require.Len(t, ts.ingest.processed, 1)
		assert.Equal(t, "a", ts.ingest.processed[0].ID)
	})

	t.Run("reports failures", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.err = errors.New("embedding backend down")

		path := filepath.Join(t.TempDir(), "case.txt")
		writeCase(t, path, "text")

		out, err := execute("ingest", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding backend down")
		assert.Contains(t, out, "Failed 1 file(s):")
	})

	t.Run("outputs JSON", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		path := filepath.Join(t.TempDir(), "case.txt")
		writeCase(t, path, "text")

		out, err := execute("ingest", "--json", path)
		require.NoError(t, err)
		assert.Contains(t, out, `"documents": 1`)
		assert.Contains(t, out, `"chunks": 2`)
	})

	t.Run("missing path", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute("ingest", filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("without service", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()
		ingestService = nil

		_, err := execute("ingest", t.TempDir())
		assert.EqualError(t, err, "ingest service not configured")
	})
}

func TestIngestCmd_Watch(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		rootCmd.SetArgs([]string{"ingest", "--watch", dir})
		rootCmd.SetOut(new(safeBuffer))
		done <- rootCmd.ExecuteContext(ctx)
	}()

	path := filepath.Join(dir, "new-case.txt")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("New case"), 0o644)
		ts.ingest.mu.Lock()
		defer ts.ingest.mu.Unlock()
		return len(ts.ingest.processed) > 0
	}, 3*time.Second, 100*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		ts.ingest.mu.Lock()
		defer ts.ingest.mu.Unlock()
		return len(ts.ingest.removed) > 0
	}, 3*time.Second, 50*time.Millisecond)
	ts.ingest.mu.Lock()
	assert.Equal(t, "new-case", ts.ingest.removed[0])
	ts.ingest.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchRoots(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	writeCase(t, file, "a")

	assert.Equal(t, []string{dir}, watchRoots([]string{dir, file, filepath.Join(dir, "*.txt")}))
}
