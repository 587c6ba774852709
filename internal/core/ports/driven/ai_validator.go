package driven

import "github.com/custodia-labs/projctx/internal/core/domain"

// AIConfigValidator validates embedding provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates a provider configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidateEmbedding(config *domain.ProviderSettings) error
}
