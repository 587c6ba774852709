package ai

import (
	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates embedding provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates a provider configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.ProviderSettings) error {
	return ValidateEmbeddingConfig(config)
}
