package driving

import (
	"context"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// RetrievalService finds documents relevant to a free-text query.
type RetrievalService interface {
	// Retrieve runs the tier cascade and returns the first non-empty tier's
	// candidates. "Nothing found" is an empty result, not an error; an error
	// is returned only when every tier failed.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error)
}

// ContextAssembler packs ranked candidates into prompt context.
type ContextAssembler interface {
	// Build packs candidates into at most maxChars characters of text
	// (plus a trailing ellipsis). maxChars <= 0 uses the default budget.
	Build(candidates []domain.RetrievalCandidate, maxChars int) domain.RAGContext
}
