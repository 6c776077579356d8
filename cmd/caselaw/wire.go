package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/ai"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/config/env"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/config/file"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage"
	"github.com/custodia-labs/caselaw/internal/adapters/driving/cli"
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
	"github.com/custodia-labs/caselaw/internal/core/services"
	"github.com/custodia-labs/caselaw/internal/logger"
	"github.com/custodia-labs/caselaw/internal/normalisers"
	"github.com/custodia-labs/caselaw/internal/normalisers/caserecord"
	"github.com/custodia-labs/caselaw/internal/normalisers/docx"
	"github.com/custodia-labs/caselaw/internal/normalisers/html"
	"github.com/custodia-labs/caselaw/internal/normalisers/markdown"
	"github.com/custodia-labs/caselaw/internal/normalisers/pdf"
	"github.com/custodia-labs/caselaw/internal/normalisers/plaintext"
	"github.com/custodia-labs/caselaw/internal/postprocessors"
)

// DefaultDirName is the config directory under the user's home.
const DefaultDirName = ".caselaw"

// builder wires adapters into services for the CLI.
type builder struct {
	lookupEnv services.EnvLookup
}

// resolveConfigDir returns dir, or ~/.caselaw when dir is empty.
func resolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// Settings loads .env files and opens the config file.
func (b *builder) Settings(configDir string) (driving.SettingsService, error) {
	dir, err := resolveConfigDir(configDir)
	if err != nil {
		return nil, err
	}
	if err := env.Load(dir); err != nil {
		return nil, err
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return services.NewSettingsService(store, b.lookupEnv), nil
}

// Build creates every service from the resolved settings.
func (b *builder) Build(ctx context.Context, configDir string) (*cli.Services, error) {
	dir, err := resolveConfigDir(configDir)
	if err != nil {
		return nil, err
	}
	settingsService, err := b.Settings(dir)
	if err != nil {
		return nil, err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loader, err := ai.NewModelLoader(settings)
	if err != nil {
		return nil, err
	}
	reranker, err := ai.NewReranker(settings.Retrieval)
	if err != nil {
		return nil, err
	}

	stores, err := storage.Open(ctx, settings.Storage, ai.EmbeddingDimensions(settings.Embedding))
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	providers := ai.NewProviders(settings.LLM)
	logger.Debug("Built %d providers, %d unconfigured", len(providers.Registry.IDs()), len(providers.Warnings))

	engine := services.NewEmbeddingEngine(loader, settings.Embedding.Model)
	retrieval := services.NewRetrievalService(engine, stores.Chunks,
		services.WithReranker(reranker),
		services.WithCandidateMultiplier(settings.Retrieval.CandidateMultiplier),
		services.WithRerankFallback(settings.Retrieval.RerankFallback),
	)

	return &cli.Services{
		Settings:   settingsService,
		Ingest:     services.NewIngestService(engine, stores.Documents, stores.Chunks, postprocessors.NewPipelineBuilder()),
		Retrieval:  retrieval,
		Generation: services.NewGenerationService(retrieval, providers.Registry, stores.Conversations, prompts, services.GenerationConfigFromSettings(settings)),
		Documents:  services.NewDocumentService(stores.Documents, stores.Chunks),
		Normaliser: newNormaliser(),
		Providers:  providerChecker(providers, loader),
		Close: func() error {
			return errors.Join(engine.Close(), stores.Close())
		},
	}, nil
}

func newNormaliser() *normalisers.Registry {
	return normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		pdf.New(),
		docx.New(),
		caserecord.New(),
	)
}

// embeddingStatusID labels the embedding model in provider listings.
const embeddingStatusID domain.ProviderID = "embedding"

// providerChecker adapts the provider set to the CLI's status listing.
// A ping also loads the embedding model once.
func providerChecker(p *ai.Providers, loader driven.ModelLoader) cli.ProviderChecker {
	return func(ctx context.Context, ping bool) []cli.ProviderStatus {
		var statuses []ai.ProviderStatus
		if ping {
			statuses = p.Check(ctx)
		} else {
			statuses = p.Statuses()
		}
		out := make([]cli.ProviderStatus, 0, len(statuses)+1)
		for _, s := range statuses {
			out = append(out, cli.ProviderStatus{ID: s.ID, Configured: s.Configured, Err: s.Err})
		}
		if ping {
			dims, err := ai.ValidateEmbedding(ctx, loader)
			if err == nil {
				logger.Debug("Embedding model loaded with %d dimensions", dims)
			}
			out = append(out, cli.ProviderStatus{ID: embeddingStatusID, Configured: true, Err: err})
		}
		return out
	}
}
