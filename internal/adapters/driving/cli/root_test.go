package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
	"github.com/custodia-labs/caselaw/internal/core/services"
)

type fakeBuilder struct {
	settingsCalls int
	buildCalls    int
	configDir     string
	buildErr      error
	closed        bool
}

func (b *fakeBuilder) Settings(dir string) (driving.SettingsService, error) {
	b.settingsCalls++
	b.configDir = dir
	return services.NewSettingsService(memory.NewConfigStore(), nil), nil
}

func (b *fakeBuilder) Build(_ context.Context, _ string) (*Services, error) {
	b.buildCalls++
	if b.buildErr != nil {
		return nil, b.buildErr
	}
	return &Services{
		Retrieval: &mockRetrievalService{},
		Documents: &mockDocumentService{},
		Close: func() error {
			b.closed = true
			return nil
		},
	}, nil
}

// clearServices removes the installed services so wire builds them.
func clearServices(t *testing.T) {
	t.Helper()
	_, cleanup := setupTestServices()
	settingsService = nil
	ingestService = nil
	retrievalService = nil
	generationService = nil
	documentService = nil
	normaliser = nil
	providerChecker = nil
	t.Cleanup(cleanup)
	t.Cleanup(func() { closeServices = nil })
}

func TestExecute_BuildsServicesForCommands(t *testing.T) {
	b := &fakeBuilder{}
	clearServices(t)

	rootCmd.SetArgs([]string{"--config-dir", "/tmp/caselaw-test", "retrieve", "lease"})
	rootCmd.SetOut(new(safeBuffer))
	err := Execute(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 1, b.settingsCalls)
	assert.Equal(t, 1, b.buildCalls)
	assert.Equal(t, "/tmp/caselaw-test", b.configDir)
	assert.True(t, b.closed, "storage closed after the command")
}

func TestExecute_SettingsOnlyCommandsSkipBuild(t *testing.T) {
	b := &fakeBuilder{buildErr: errors.New("embedding backend unreachable")}
	clearServices(t)

	rootCmd.SetArgs([]string{"config", "path"})
	rootCmd.SetOut(new(safeBuffer))
	err := Execute(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 1, b.settingsCalls)
	assert.Zero(t, b.buildCalls)
}

func TestExecute_StandaloneCommandsSkipWiring(t *testing.T) {
	b := &fakeBuilder{}
	clearServices(t)

	rootCmd.SetArgs([]string{"topics"})
	rootCmd.SetOut(new(safeBuffer))
	require.NoError(t, Execute(context.Background(), b))

	assert.Zero(t, b.settingsCalls)
	assert.Zero(t, b.buildCalls)
}

func TestExecute_BuildError(t *testing.T) {
	b := &fakeBuilder{buildErr: errors.New("embedding backend unreachable")}
	clearServices(t)

	rootCmd.SetArgs([]string{"retrieve", "lease"})
	rootCmd.SetOut(new(safeBuffer))
	rootCmd.SetErr(new(safeBuffer))
	err := Execute(context.Background(), b)
	assert.EqualError(t, err, "embedding backend unreachable")
}
