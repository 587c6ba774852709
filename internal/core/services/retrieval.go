package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
	"github.com/custodia-labs/projctx/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// tierFunc is one retrieval strategy. A nil error with no candidates means
// the tier legitimately found nothing.
type tierFunc func(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.RetrievalCandidate, error)

// retrievalTier pairs a strategy with its name.
type retrievalTier struct {
	name domain.RetrievalTier
	run  tierFunc
}

// RetrievalService answers queries through the vector, full-text and keyword
// tiers, in that order. The first tier returning candidates wins.
type RetrievalService struct {
	docStore driven.DocumentStore
	embedder driven.EmbeddingService
	settings domain.RetrievalSettings
	scorer   keywordScorer
	tiers    []retrievalTier
}

// NewRetrievalService creates a new retrieval service.
// The embedder is optional; without it the vector tier always fails over.
func NewRetrievalService(
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	settings domain.RetrievalSettings,
) *RetrievalService {
	defaults := domain.DefaultSettings().Retrieval
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.VectorCandidateLimit <= 0 {
		settings.VectorCandidateLimit = defaults.VectorCandidateLimit
	}
	if settings.KeywordCandidateLimit <= 0 {
		settings.KeywordCandidateLimit = defaults.KeywordCandidateLimit
	}
	if settings.Weights == (domain.ScoringWeights{}) {
		settings.Weights = defaults.Weights
	}

	s := &RetrievalService{
		docStore: docStore,
		embedder: embedder,
		settings: settings,
		scorer:   newKeywordScorer(settings.Weights),
	}
	s.tiers = []retrievalTier{
		{name: domain.TierVector, run: s.vectorTier},
		{name: domain.TierFullText, run: s.fullTextTier},
		{name: domain.TierKeyword, run: s.keywordTier},
	}
	return s
}

// Retrieve runs the cascade. It errors only when every tier errored; an
// empty result is a successful answer.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q, scope: %s", query, opts.Scope)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return &domain.RetrievalResult{Tier: domain.TierNone}, nil
	}
	if opts.TopK <= 0 {
		opts.TopK = s.settings.TopK
	}

	var errs []error
	succeeded := false
	for _, tier := range s.tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		done := logger.Timed(tier.name.Description() + " tier")
		candidates, err := tier.run(ctx, query, opts)
		done()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Error("%s tier failed, falling back: %v", tier.name.Description(), err)
			errs = append(errs, fmt.Errorf("%s: %w", tier.name, err))
			continue
		}
		succeeded = true

		if len(candidates) == 0 {
			logger.Info("%s tier returned no results, falling back", tier.name.Description())
			continue
		}

		logger.Info("%s tier returned %d results", tier.name.Description(), len(candidates))
		return &domain.RetrievalResult{Candidates: candidates, Tier: tier.name}, nil
	}

	if !succeeded {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, errors.Join(errs...))
	}
	return &domain.RetrievalResult{Tier: domain.TierNone}, nil
}

// vectorTier ranks stored embeddings by cosine similarity to the query.
func (s *RetrievalService) vectorTier(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) ([]domain.RetrievalCandidate, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.docStore.ListEmbedded(ctx, opts.Scope, s.settings.VectorCandidateLimit)
	if err != nil {
		return nil, storeError("list embedded documents", err)
	}
	logger.Debug("Vector tier: %d stored vectors", len(rows))

	candidates := make([]domain.RetrievalCandidate, 0, len(rows))
	for i := range rows {
		vec, err := domain.ParseVector(rows[i].RawEmbedding)
		if err != nil {
			logger.Error("Skipping document %s: %v", rows[i].Document.ID, err)
			continue
		}
		if len(vec) != len(queryVec) {
			logger.Error("Skipping document %s: vector has %d dimensions, query has %d",
				rows[i].Document.ID, len(vec), len(queryVec))
			continue
		}

		doc := rows[i].Document
		doc.Embedding = vec
		candidates = append(candidates, domain.RetrievalCandidate{
			Document: doc,
			Score:    clamp01(domain.CosineSimilarity(queryVec, vec)),
		})
	}

	return topCandidates(candidates, opts.TopK), nil
}

// fullTextTier runs the store's text-search operator and re-scores its hits
// with rank decay.
func (s *RetrievalService) fullTextTier(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) ([]domain.RetrievalCandidate, error) {
	terms := sanitizeTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	docs, err := s.docStore.FullTextSearch(ctx, terms, opts.Scope, s.settings.KeywordCandidateLimit)
	if err != nil {
		if errors.Is(err, domain.ErrFullTextUnsupported) {
			return nil, err
		}
		return nil, storeError("full-text search", err)
	}

	q := s.scorer.prepare(query)
	candidates := make([]domain.RetrievalCandidate, len(docs))
	for rank := range docs {
		candidates[rank] = domain.RetrievalCandidate{
			Document: docs[rank],
			Score:    s.scorer.rescoreFullText(q, &docs[rank], rank),
		}
	}

	return topCandidates(candidates, opts.TopK), nil
}

// keywordTier scores a bounded slice of the corpus from scratch.
func (s *RetrievalService) keywordTier(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) ([]domain.RetrievalCandidate, error) {
	q := s.scorer.prepare(query)
	if len(q.words) == 0 {
		logger.Debug("Keyword tier: no query words longer than %d characters", s.settings.Weights.MinWordLength)
		return nil, nil
	}

	docs, err := s.docStore.ListPublished(ctx, opts.Scope, s.settings.KeywordCandidateLimit)
	if err != nil {
		return nil, storeError("list published documents", err)
	}

	var candidates []domain.RetrievalCandidate
	for i := range docs {
		score, matched := s.scorer.score(q, &docs[i])
		if !matched {
			continue
		}
		candidates = append(candidates, domain.RetrievalCandidate{Document: docs[i], Score: score})
	}

	return topCandidates(candidates, opts.TopK), nil
}

// topCandidates sorts by descending score, keeping input order on ties, and
// keeps the first k.
func topCandidates(candidates []domain.RetrievalCandidate, k int) []domain.RetrievalCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// storeError tags err as a store failure unless it already is one.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStoreFailure) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreFailure, err)
}
