package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commandNames := make([]string, 0)
	for _, cmd := range documentCmd.Commands() {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "get", "content", "chunks", "remove"}, commandNames)
}

func TestDocumentListCmd(t *testing.T) {
	t.Run("lists every case", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute("document", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "smith-v-jones")
		assert.Contains(t, out, "Title: Smith v Jones")
		assert.Contains(t, out, "Total: 2 documents")
	})

	t.Run("filters by topic", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute("documents", "list", "--topic", "Criminal Law")
		require.NoError(t, err)
		assert.Contains(t, out, "r-v-brown")
		assert.NotContains(t, out, "smith-v-jones")
	})

	t.Run("outputs JSON", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute("document", "list", "--json")
		require.NoError(t, err)
		assert.Contains(t, out, `"id": "smith-v-jones"`)
		assert.Contains(t, out, `"url": "https://example.org/2023wasat12"`)
	})

	t.Run("rejects arguments", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute("document", "list", "extra")
		assert.Error(t, err)
	})

	t.Run("without service", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()
		documentService = nil

		_, err := execute("document", "list")
		assert.EqualError(t, err, "document service not configured")
	})
}

func TestDocumentGetCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("document", "get", "smith-v-jones")
	require.NoError(t, err)
	assert.Contains(t, out, "Document: smith-v-jones")
	assert.Contains(t, out, "Topic:    Contract Law")
	assert.Contains(t, out, "Chunks:   2")
	assert.Contains(t, out, "citation: [2023] WASAT 12")

	_, err = execute("document", "get", "unknown")
	assert.Error(t, err)
}

func TestDocumentContentCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("document", "content", "smith-v-jones")
	require.NoError(t, err)
	assert.Contains(t, out, "Full text of Smith v Jones.")
}

func TestDocumentChunksCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("document", "chunks", "smith-v-jones")
	require.NoError(t, err)
	assert.Contains(t, out, "smith-v-jones_1 (position 1")
	assert.Contains(t, out, "Total: 2 chunks")

	out, err = execute("document", "chunks", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "No chunks stored for other.")
}

func TestDocumentRemoveCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("document", "rm", "smith-v-jones")
	require.NoError(t, err)
	assert.Contains(t, out, "Document smith-v-jones removed.")
	assert.Equal(t, []string{"smith-v-jones"}, ts.ingest.removed)

	_, err = execute("document", "remove", "missing")
	assert.EqualError(t, err, "document missing not found")
}
