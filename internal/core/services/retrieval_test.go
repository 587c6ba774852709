package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

func newTestRetrieval(store *mockDocStore, embedder *mockEmbedder) *RetrievalService {
	if embedder == nil {
		return NewRetrievalService(store, nil, domain.RetrievalSettings{})
	}
	return NewRetrievalService(store, embedder, domain.RetrievalSettings{})
}

func saveDocs(t *testing.T, store *mockDocStore, docs ...domain.Document) {
	t.Helper()
	for i := range docs {
		require.NoError(t, store.SaveDocument(context.Background(), &docs[i]))
	}
}

func candidateIDs(candidates []domain.RetrievalCandidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Document.ID
	}
	return ids
}

func TestNewRetrievalService_Defaults(t *testing.T) {
	s := NewRetrievalService(newMockDocStore(), nil, domain.RetrievalSettings{})

	assert.Equal(t, domain.DefaultTopK, s.settings.TopK)
	assert.Equal(t, domain.DefaultKeywordCandidateLimit, s.settings.KeywordCandidateLimit)
	assert.Equal(t, domain.DefaultScoringWeights(), s.settings.Weights)
	require.Len(t, s.tiers, 3)
	assert.Equal(t, domain.TierVector, s.tiers[0].name)
	assert.Equal(t, domain.TierFullText, s.tiers[1].name)
	assert.Equal(t, domain.TierKeyword, s.tiers[2].name)
}

func TestRetrievalService_EmptyQuery(t *testing.T) {
	s := newTestRetrieval(newMockDocStore(), nil)

	result, err := s.Retrieve(context.Background(), "   ", domain.RetrievalOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TierNone, result.Tier)
	assert.Empty(t, result.Candidates)
}

func TestRetrievalService_RefundPolicyWithoutEmbeddings(t *testing.T) {
	store := newMockDocStore()
	saveDocs(t, store,
		domain.Document{ID: "shipping", Title: "Shipping times", Body: "Refund policy applies to late parcels", Published: true},
		domain.Document{ID: "refunds", Title: "Refund policy", Body: "Refunds are issued within 14 days", Published: true},
		domain.Document{ID: "unrelated", Title: "Office hours", Body: "Open 9 to 5", Published: true},
	)
	embedder := fixedEmbedder(1, 0, 0)
	s := newTestRetrieval(store, embedder)

	result, err := s.Retrieve(context.Background(), "refund policy", domain.RetrievalOptions{})
	require.NoError(t, err)

	// Vector tier had nothing, memory store has no full-text operator
	assert.Equal(t, domain.TierKeyword, result.Tier)
	assert.Equal(t, []string{"refunds", "shipping"}, candidateIDs(result.Candidates))
	assert.Greater(t, result.Candidates[0].Score, result.Candidates[1].Score)
	assert.Equal(t, 1, embedder.calls())
}

func TestRetrievalService_VectorTier(t *testing.T) {
	store := newMockDocStore()
	saveDocs(t, store,
		domain.Document{ID: "far", Title: "Far", Published: true, Embedding: []float32{0, 1}},
		domain.Document{ID: "near", Title: "Near", Published: true, Embedding: []float32{1, 0.1}},
		domain.Document{ID: "mid", Title: "Mid", Published: true, Embedding: []float32{1, 1}},
	)
	s := newTestRetrieval(store, fixedEmbedder(1, 0))

	result, err := s.Retrieve(context.Background(), "anything", domain.RetrievalOptions{TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.TierVector, result.Tier)
	assert.Equal(t, []string{"near", "mid"}, candidateIDs(result.Candidates))
	for _, c := range result.Candidates {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
	}
}

func TestRetrievalService_VectorTier_StringAndNativeEncodingsAgree(t *testing.T) {
	store := newMockDocStore()
	saveDocs(t, store,
		domain.Document{ID: "text", Title: "Text", Published: true},
		domain.Document{ID: "native", Title: "Native", Published: true},
	)
	require.NoError(t, store.SetRawEmbedding("text", "[0.12, 0.98, 0.3]"))
	require.NoError(t, store.SetRawEmbedding("native", []float64{0.12, 0.98, 0.3}))
	s := newTestRetrieval(store, fixedEmbedder(0.5, 0.5, 0.5))

	result, err := s.Retrieve(context.Background(), "query", domain.RetrievalOptions{})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)
	assert.InDelta(t, result.Candidates[0].Score, result.Candidates[1].Score, 1e-6)
}

func TestRetrievalService_VectorTier_SkipsBadVectors(t *testing.T) {
	store := newMockDocStore()
	saveDocs(t, store,
		domain.Document{ID: "good", Title: "Good", Published: true, Embedding: []float32{1, 0}},
		domain.Document{ID: "garbage", Title: "Garbage", Published: true},
		domain.Document{ID: "short", Title: "Short", Published: true, Embedding: []float32{1}},
	)
	require.NoError(t, store.SetRawEmbedding("garbage", "not a vector"))
	s := newTestRetrieval(store, fixedEmbedder(1, 0))

	result, err := s.Retrieve(context.Background(), "query", domain.RetrievalOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, candidateIDs(result.Candidates))
}

func TestRetrievalService_VectorTier_RespectsScope(t *testing.T) {
	store := newMockDocStore()
	saveDocs(t, store,
		domain.Document{ID: "global", Title: "G", Published: true, Embedding: []float32{1, 0}},
		domain.Document{ID: "acme", Title: "A", TenantID: "acme", Published: true, Embedding: []float32{1, 0}},
		domain.Document{ID: "other", Title: "O", TenantID: "other", Published: true, Embedding: []float32{1, 0}},
	)
	s := newTestRetrieval(store, fixedEmbedder(1, 0))

	result, err := s.Retrieve(context.Background(), "q", domain.RetrievalOptions{Scope: domain.TenantScope("acme")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"global", "acme"}, candidateIDs(result.Candidates))

	result, err = s.Retrieve(context.Background(), "q", domain.RetrievalOptions{Scope: domain.GlobalScope()})
	require.NoError(t, err)
	assert.Equal(t, []string{"global"}, candidateIDs(result.Candidates))
}

func TestRetrievalService_FullTextTier(t *testing.T) {
	store := newMockDocStore()
	store.ftsErr = nil
	store.ftsResults = []domain.Document{
		{ID: "weak", Title: "Other", Published: true},
		{ID: "strong", Title: "Refund policy", Published: true},
	}
	s := newTestRetrieval(store, nil)

	result, err := s.Retrieve(context.Background(), "refund policy", domain.RetrievalOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.TierFullText, result.Tier)
	assert.Equal(t, []string{"refund", "policy"}, store.ftsTerms)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "strong", result.Candidates[0].Document.ID)
	// 0.9 keyword score with rank-1 decay of 0.95
	assert.InDelta(t, 0.855, result.Candidates[0].Score, 1e-9)
	// No keyword match: floor
	assert.InDelta(t, 0.1, result.Candidates[1].Score, 1e-9)
}

func TestRetrievalService_FullTextErrorFallsBackToKeyword(t *testing.T) {
	store := newMockDocStore()
	store.ftsErr = errors.New("no such table: documents_fts")
	saveDocs(t, store, domain.Document{ID: "doc", Title: "Refund policy", Published: true})
	s := newTestRetrieval(store, nil)

	result, err := s.Retrieve(context.Background(), "refund", domain.RetrievalOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TierKeyword, result.Tier)
	assert.Equal(t, []string{"doc"}, candidateIDs(result.Candidates))
}

func TestRetrievalService_TiersAreNotMerged(t *testing.T) {
	store := newMockDocStore()
	store.ftsErr = nil
	store.ftsResults = []domain.Document{{ID: "fts", Title: "Refund", Published: true}}
	saveDocs(t, store, domain.Document{ID: "kw", Title: "Refund", Published: true})
	s := newTestRetrieval(store, nil)

	result, err := s.Retrieve(context.Background(), "refund", domain.RetrievalOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fts"}, candidateIDs(result.Candidates))
}

func TestRetrievalService_EmptyIsNotAnError(t *testing.T) {
	store := newMockDocStore()
	saveDocs(t, store, domain.Document{ID: "doc", Title: "Office hours", Published: true})
	s := newTestRetrieval(store, failingEmbedder(domain.ErrProviderFailure))

	result, err := s.Retrieve(context.Background(), "refund", domain.RetrievalOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TierNone, result.Tier)
	assert.Empty(t, result.Candidates)
}

func TestRetrievalService_AllTiersFailed(t *testing.T) {
	store := newMockDocStore()
	store.listErr = errors.New("connection reset")
	s := newTestRetrieval(store, failingEmbedder(domain.ErrProviderFailure))

	_, err := s.Retrieve(context.Background(), "refund", domain.RetrievalOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestRetrievalService_VectorStoreErrorFallsBack(t *testing.T) {
	store := newMockDocStore()
	store.embeddedErr = errors.New("timeout")
	saveDocs(t, store, domain.Document{ID: "doc", Title: "Refund", Published: true})
	s := newTestRetrieval(store, fixedEmbedder(1))

	result, err := s.Retrieve(context.Background(), "refund", domain.RetrievalOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TierKeyword, result.Tier)
}

func TestRetrievalService_KeywordTier_TopKAndScope(t *testing.T) {
	store := newMockDocStore()
	saveDocs(t, store,
		domain.Document{ID: "a", Title: "Refund A", Published: true},
		domain.Document{ID: "b", Title: "Refund B", TenantID: "acme", Published: true},
		domain.Document{ID: "c", Title: "Refund C", TenantID: "other", Published: true},
		domain.Document{ID: "d", Title: "Refund D", Published: false},
		domain.Document{ID: "e", Title: "Refund E", Published: true},
	)
	s := newTestRetrieval(store, nil)

	result, err := s.Retrieve(context.Background(), "refund", domain.RetrievalOptions{
		Scope: domain.TenantScope("acme"),
		TopK:  2,
	})
	require.NoError(t, err)
	// Equal scores keep store order
	assert.Equal(t, []string{"a", "b"}, candidateIDs(result.Candidates))
}

func TestRetrievalService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestRetrieval(newMockDocStore(), nil)

	_, err := s.Retrieve(ctx, "refund", domain.RetrievalOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTopCandidates_StableTies(t *testing.T) {
	in := []domain.RetrievalCandidate{
		{Document: domain.Document{ID: "1"}, Score: 0.5},
		{Document: domain.Document{ID: "2"}, Score: 0.9},
		{Document: domain.Document{ID: "3"}, Score: 0.5},
	}
	assert.Equal(t, []string{"2", "1", "3"}, candidateIDs(topCandidates(in, 0)))
	assert.Len(t, topCandidates(in, 1), 1)
}
