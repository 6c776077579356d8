package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".caselaw", "prompts"), store.Dir())
}

func TestDefaultPrompts_AllNamesPresentAndParse(t *testing.T) {
	for _, name := range driven.PromptNames() {
		text, ok := DefaultPrompt(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, text, name)

		_, err := template.New(name).Parse(text)
		assert.NoError(t, err, name)
	}

	_, ok := DefaultPrompt("nonexistent")
	assert.False(t, ok)
}

func TestDefaultSteps(t *testing.T) {
	steps := DefaultSteps()

	require.Len(t, steps, 5)
	assert.Equal(t, "Analyze Case Content", steps[0].Name)
	assert.Equal(t, "Formulate Final Arguments", steps[4].Name)
	assert.Contains(t, steps[4].Instructions, "## Key Insights")
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	for _, name := range driven.PromptNames() {
		_, err := os.Stat(filepath.Join(dir, name+".txt"))
		assert.NoError(t, err, "expected %s.txt to exist", name)
	}
	for _, f := range []string{ReasoningFile, "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte("Custom: {{.Query}}\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, "Custom: {{.Query}}", prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptSystem)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "general.txt")))

	prompt, err := store.Load(driven.PromptGeneral)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptGeneral)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptSystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("edited"), 0600))
	cached, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	assert.NotEqual(t, "edited", cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	assert.Equal(t, "edited", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "step.txt")
	require.NoError(t, os.WriteFile(path, []byte("mine"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptStep)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range driven.PromptNames() {
				_, err := store.Load(name)
				assert.NoError(t, err)
			}
			_, err := store.Steps()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestPromptStore_Steps_Default(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	steps, err := store.Steps()
	require.NoError(t, err)
	assert.Equal(t, DefaultSteps(), steps)
}

func TestPromptStore_Steps_CustomAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Steps()
	require.NoError(t, err)

	custom := "steps:\n  - name: Summarise\n    instructions: Summarise the case.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ReasoningFile), []byte(custom), 0600))

	store.Reload()
	steps, err := store.Steps()
	require.NoError(t, err)
	assert.Equal(t, []domain.StepDefinition{{Name: "Summarise", Instructions: "Summarise the case."}}, steps)
}

func TestPromptStore_Steps_MissingFileUsesDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptSystem)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, ReasoningFile)))

	steps, err := store.Steps()
	require.NoError(t, err)
	assert.Len(t, steps, 5)
}

func TestParseSteps_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "steps: [unclosed"},
		{"empty", "steps: []"},
		{"missing name", "steps:\n  - instructions: do it\n"},
		{"missing instructions", "steps:\n  - name: Step\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSteps([]byte(tt.yaml))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestPromptStore_Steps_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ReasoningFile), []byte("steps: {"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Steps()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), ReasoningFile))
}
