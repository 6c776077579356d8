package driving

import "github.com/custodia-labs/caselaw/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves settings from defaults, the config file and the environment.
	Get() (*domain.Settings, error)

	// Set persists a single config file value.
	Set(key string, value any) error

	// Unset removes a config file value so the default applies again.
	Unset(key string) error

	// Value returns the raw config file value of key.
	Value(key string) (any, bool)

	// StoredKeys returns the keys set in the config file, sorted.
	StoredKeys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// ConfigPath returns the config file path.
	ConfigPath() string
}
