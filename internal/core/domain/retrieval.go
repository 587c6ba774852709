package domain

// RetrievalTier identifies the cascade tier that produced a result set.
type RetrievalTier string

// Retrieval tiers in cascade order.
const (
	// TierVector ranks by cosine similarity against stored embeddings.
	TierVector RetrievalTier = "vector"

	// TierFullText uses the store's native text-search operator.
	TierFullText RetrievalTier = "full_text"

	// TierKeyword scores documents heuristically by word matches.
	TierKeyword RetrievalTier = "keyword"

	// TierNone means no tier produced results.
	TierNone RetrievalTier = "none"
)

// String returns the string representation.
func (t RetrievalTier) String() string {
	return string(t)
}

// Description returns a human-readable description of the tier.
func (t RetrievalTier) Description() string {
	switch t {
	case TierVector:
		return "Vector similarity"
	case TierFullText:
		return "Full-text search"
	case TierKeyword:
		return "Keyword scoring"
	case TierNone:
		return "No results"
	default:
		return unknownDescription
	}
}

// RetrievalOptions configures a retrieval query.
type RetrievalOptions struct {
	// Scope selects which documents are visible.
	Scope Scope

	// TopK is the maximum number of candidates. Zero uses the configured default.
	TopK int
}

// RetrievalCandidate is a ranked retrieval hit. It is never persisted.
type RetrievalCandidate struct {
	// Document is the matched document.
	Document Document

	// Score is the relevance in [0,1].
	Score float64
}

// RetrievalResult is the output of one cascade run. Only one tier's
// candidates are ever returned.
type RetrievalResult struct {
	// Candidates are ordered by descending score.
	Candidates []RetrievalCandidate

	// Tier is the tier that produced Candidates.
	Tier RetrievalTier
}

// ContextArticle is the snapshot of a candidate recorded in a RAGContext.
type ContextArticle struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Score    float64  `json:"score"`
	Included bool     `json:"included"`
}

// RAGContext is the prompt context assembled from retrieval candidates.
// Articles lists every candidate passed in, whether or not its text made it
// into Text, so callers can still cite sources.
type RAGContext struct {
	Articles []ContextArticle `json:"articles"`
	Text     string           `json:"context_text"`
}
