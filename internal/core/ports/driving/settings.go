package driving

import "github.com/custodia-labs/projctx/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves current settings, applying defaults for anything unset.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// SetEmbeddingProvider configures the primary or remote embedding provider.
	SetEmbeddingProvider(role domain.EmbeddingRole, provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
