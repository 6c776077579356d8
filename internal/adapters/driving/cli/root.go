// Package cli provides the caselaw command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Command annotations that limit what wire builds.
const (
	annotationSettingsOnly = "settings-only"
	annotationStandalone   = "standalone"
)

// Normaliser turns raw case files into documents.
type Normaliser interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error)
	SupportedMIMETypes() []string
}

// ProviderStatus reports whether an LLM provider can be used.
type ProviderStatus struct {
	ID         domain.ProviderID
	Configured bool
	Err        error
}

// ProviderChecker lists providers, pinging them when ping is true.
type ProviderChecker func(ctx context.Context, ping bool) []ProviderStatus

// Services holds the driving ports the commands use.
type Services struct {
	Settings   driving.SettingsService
	Ingest     driving.IngestService
	Retrieval  driving.RetrievalService
	Generation driving.GenerationService
	Documents  driving.DocumentService
	Normaliser Normaliser
	Providers  ProviderChecker

	// Close releases storage handles. May be nil.
	Close func() error
}

// Builder wires services for a config directory.
type Builder interface {
	// Settings creates the settings service alone, so configuration can be
	// inspected and repaired even when the rest cannot be built.
	Settings(configDir string) (driving.SettingsService, error)

	// Build creates every service.
	Build(ctx context.Context, configDir string) (*Services, error)
}

// Services used by the commands. Set by the builder before a command runs,
// or directly by tests.
var (
	settingsService   driving.SettingsService
	ingestService     driving.IngestService
	retrievalService  driving.RetrievalService
	generationService driving.GenerationService
	documentService   driving.DocumentService
	normaliser        Normaliser
	providerChecker   ProviderChecker
)

var (
	builder       Builder
	closeServices func() error
)

// Global flags.
var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "caselaw",
	Short: "Legal research over a local case corpus",
	Long: `caselaw ingests court decisions, retrieves the passages most relevant
to a legal question and drafts grounded answers and arguments with an LLM.

Configuration lives in ~/.caselaw/config.toml and can be overridden with
environment variables or a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: wire,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.caselaw)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline details to stderr")
}

// Execute runs the root command with services from b.
func Execute(ctx context.Context, b Builder) error {
	builder = b
	defer func() {
		if closeServices != nil {
			if err := closeServices(); err != nil {
				logger.Warn("Closing storage: %v", err)
			}
			closeServices = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// wire builds the services a command needs before it runs.
func wire(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if builder == nil || cmd.Annotations[annotationStandalone] == "true" {
		return nil
	}

	if settingsService == nil {
		s, err := builder.Settings(configDir)
		if err != nil {
			return err
		}
		settingsService = s
	}
	if cmd.Annotations[annotationSettingsOnly] == "true" || retrievalService != nil {
		return nil
	}

	svc, err := builder.Build(cmd.Context(), configDir)
	if err != nil {
		return err
	}
	setServices(svc)
	return nil
}

func setServices(svc *Services) {
	if svc.Settings != nil {
		settingsService = svc.Settings
	}
	ingestService = svc.Ingest
	retrievalService = svc.Retrieval
	generationService = svc.Generation
	documentService = svc.Documents
	normaliser = svc.Normaliser
	providerChecker = svc.Providers
	closeServices = svc.Close
}

func settingsOnly() map[string]string {
	return map[string]string{annotationSettingsOnly: "true"}
}

func standalone() map[string]string {
	return map[string]string{annotationStandalone: "true"}
}
