// Package ai provides factory functions for creating embedding provider adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/projctx/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/projctx/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Native output size of known embedding models. Unknown models fall back to
// the provider default.
var modelDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// InitResult contains the embedding providers built from settings.
type InitResult struct {
	Primary  driven.EmbeddingService
	Remote   driven.EmbeddingService
	Warnings []string // Non-fatal issues that left a provider slot empty.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	if r.Primary != nil {
		errs = append(errs, r.Primary.Close())
	}
	if r.Remote != nil {
		errs = append(errs, r.Remote.Close())
	}
	return errors.Join(errs...)
}

// CreateEmbeddingServices builds both provider slots. A slot that is not
// configured or fails to build is left nil with a warning, so the caller can
// still run with the other slot or without the vector tier.
func CreateEmbeddingServices(settings *domain.EmbeddingSettings) *InitResult {
	result := &InitResult{}
	if settings == nil {
		return result
	}

	primary, err := CreateEmbeddingService(&settings.Primary, settings.Dimensions)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("primary embedding provider: %v", err))
	}
	result.Primary = primary

	remote, err := CreateEmbeddingService(&settings.Remote, settings.Dimensions)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("remote embedding provider: %v", err))
	}
	result.Remote = remote

	return result
}

// ValidateEmbeddingConfig validates a provider configuration by creating a service and pinging it.
// This is intended for use by the settings command to validate credentials on configuration.
func ValidateEmbeddingConfig(settings *domain.ProviderSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings, 0)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w). Run 'projctx settings embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// CreateEmbeddingService creates the appropriate embedding service for one
// provider slot. dims is the vector size documents are stored with; zero
// keeps the model's native size. Returns nil if the slot is not configured.
func CreateEmbeddingService(settings *domain.ProviderSettings, dims int) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings, dims)

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service. Ollama cannot
// resize its output, so the model's native size is reported.
func createOllamaEmbedding(settings *domain.ProviderSettings) driven.EmbeddingService {
	dimensions := modelDimensions[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service. The
// text-embedding-3 models are asked for the stored size directly.
func createOpenAIEmbedding(settings *domain.ProviderSettings, dims int) (driven.EmbeddingService, error) {
	model := settings.Model
	if model == "" {
		model = openaiembed.DefaultModel
	}
	dimensions := modelDimensions[model]
	if dims > 0 && (dimensions == 0 || dims < dimensions) {
		dimensions = dims
	}

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      model,
		Dimensions: dimensions,
	})
}
