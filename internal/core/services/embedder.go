package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
	"github.com/custodia-labs/projctx/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder turns text into vectors of exactly the configured dimensionality.
// It tries the primary embedding function first and falls back to the remote
// provider. Either may be nil.
type Embedder struct {
	primary       driven.EmbeddingService
	remote        driven.EmbeddingService
	dimensions    int
	maxInputChars int
}

// NewEmbedder creates an embedder. The primary and remote services are
// optional but at least one must be non-nil for Embed to succeed.
func NewEmbedder(primary, remote driven.EmbeddingService, settings domain.EmbeddingSettings) *Embedder {
	dims := settings.Dimensions
	if dims <= 0 {
		dims = domain.DefaultEmbeddingDimensions
	}
	maxChars := settings.MaxInputChars
	if maxChars <= 0 {
		maxChars = domain.DefaultMaxInputChars
	}

	return &Embedder{
		primary:       primary,
		remote:        remote,
		dimensions:    dims,
		maxInputChars: maxChars,
	}
}

// Embed generates a vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	text = truncateRunes(text, e.maxInputChars)

	if e.primary != nil {
		vec, err := e.primary.Embed(ctx, text)
		switch {
		case err != nil:
			logger.Error("Primary embedding (%s) failed: %v", e.primary.ModelName(), err)
		case len(vec) != e.dimensions:
			logger.Error("Primary embedding (%s) returned %d dimensions, want %d",
				e.primary.ModelName(), len(vec), e.dimensions)
		default:
			return vec, nil
		}
	}

	if e.remote == nil {
		return nil, fmt.Errorf("embed: %w", domain.ErrEmbeddingUnavailable)
	}

	vec, err := e.remote.Embed(ctx, text)
	if err != nil {
		logger.Error("Embedding provider (%s) failed: %v", e.remote.ModelName(), err)
		if errors.Is(err, domain.ErrProviderFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}

	fitted, changed := domain.FitDimensions(vec, e.dimensions)
	if changed {
		logger.Error("Embedding dimension drift: got %d, fitted to %d", len(vec), e.dimensions)
	}
	return fitted, nil
}

// EmbedBatch embeds each text in turn. The first failure aborts the batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the fixed output dimensionality.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName names the services behind the embedder.
func (e *Embedder) ModelName() string {
	var names []string
	if e.primary != nil {
		names = append(names, e.primary.ModelName())
	}
	if e.remote != nil {
		names = append(names, e.remote.ModelName())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// Ping succeeds if any configured service is reachable.
func (e *Embedder) Ping(ctx context.Context) error {
	var errs []error
	for _, svc := range []driven.EmbeddingService{e.primary, e.remote} {
		if svc == nil {
			continue
		}
		err := svc.Ping(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return domain.ErrEmbeddingUnavailable
	}
	return errors.Join(errs...)
}

// Close releases both services.
func (e *Embedder) Close() error {
	var errs []error
	for _, svc := range []driven.EmbeddingService{e.primary, e.remote} {
		if svc != nil {
			errs = append(errs, svc.Close())
		}
	}
	return errors.Join(errs...)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
