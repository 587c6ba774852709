package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
	"github.com/custodia-labs/projctx/internal/logger"
)

// Ensure RelationService implements the interface.
var _ driving.RelationService = (*RelationService)(nil)

const (
	defaultRelatedLimit   = 5
	relatedOverfetch      = 3
	maxRelationKeywords   = 10
	minRelationKeywordLen = 3
)

// stopwords are dropped before keyword matching.
var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "against": true,
	"also": true, "because": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "cannot": true, "could": true,
	"does": true, "doing": true, "down": true, "during": true, "each": true,
	"from": true, "further": true, "have": true, "having": true, "here": true,
	"into": true, "just": true, "more": true, "most": true, "must": true,
	"only": true, "other": true, "ought": true, "over": true, "same": true,
	"should": true, "some": true, "such": true, "than": true, "that": true,
	"their": true, "theirs": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"under": true, "until": true, "very": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "will": true,
	"with": true, "would": true, "your": true, "yours": true, "yourself": true,
}

// RelationService finds documents and project entities related to a document.
type RelationService struct {
	docStore       driven.DocumentStore
	relationStore  driven.RelationStore
	candidateLimit int
}

// NewRelationService creates a new relation service.
// The relationStore is optional; without it RelatedItems returns nothing.
func NewRelationService(
	docStore driven.DocumentStore,
	relationStore driven.RelationStore,
	settings domain.RetrievalSettings,
) *RelationService {
	limit := settings.KeywordCandidateLimit
	if limit <= 0 {
		limit = domain.DefaultKeywordCandidateLimit
	}
	return &RelationService{
		docStore:       docStore,
		relationStore:  relationStore,
		candidateLimit: limit,
	}
}

// RelatedDocuments ranks embedded documents in the source's scope by cosine
// similarity. A source without an embedding has no related documents.
func (s *RelationService) RelatedDocuments(
	ctx context.Context, documentID string, limit int,
) ([]domain.RelatedDocument, error) {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	src, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get source document: %w", err)
	}
	if !src.HasEmbedding() {
		logger.Debug("Document %s has no embedding, no related documents", documentID)
		return []domain.RelatedDocument{}, nil
	}

	scope := domain.ScopeOf(src)
	// One extra row for the source itself.
	rows, err := s.docStore.ListEmbedded(ctx, scope, limit*relatedOverfetch+1)
	if err != nil {
		return nil, storeError("list embedded documents", err)
	}

	related := make([]domain.RelatedDocument, 0, len(rows))
	for i := range rows {
		doc := rows[i].Document
		if doc.ID == src.ID || !scope.Allows(&doc) {
			continue
		}
		vec, err := domain.ParseVector(rows[i].RawEmbedding)
		if err != nil {
			logger.Error("Skipping document %s: %v", doc.ID, err)
			continue
		}
		if len(vec) != len(src.Embedding) {
			logger.Error("Skipping document %s: vector has %d dimensions, source has %d",
				doc.ID, len(vec), len(src.Embedding))
			continue
		}
		doc.Embedding = vec
		related = append(related, domain.RelatedDocument{
			Document:   doc,
			Similarity: domain.CosineSimilarity(src.Embedding, vec),
		})
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Similarity > related[j].Similarity
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

// RelatedItems matches keywords from the source's title and summary against
// tasks, phases or dashboards of the tenant. tenantID defaults to the
// source document's tenant.
func (s *RelationService) RelatedItems(
	ctx context.Context, documentID string, kind domain.RelationKind, tenantID string, limit int,
) ([]domain.RelatedItem, error) {
	if !kind.IsValid() || kind == domain.RelationDocument {
		return nil, fmt.Errorf("%w: relation kind %q", domain.ErrUnsupportedType, kind)
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	if s.relationStore == nil {
		return []domain.RelatedItem{}, nil
	}

	src, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get source document: %w", err)
	}
	if tenantID == "" {
		tenantID = src.TenantID
	}

	keywords := ExtractKeywords(src.Title+" "+src.Summary, maxRelationKeywords)
	if len(keywords) == 0 {
		return []domain.RelatedItem{}, nil
	}
	logger.Debug("Relation keywords for %s: %v", documentID, keywords)

	targets, err := s.relationStore.ListRelationTargets(ctx, kind, tenantID, s.candidateLimit)
	if err != nil {
		return nil, storeError("list relation targets", err)
	}

	var items []domain.RelatedItem
	for _, target := range targets {
		text := strings.ToLower(target.Title + " " + target.Text)
		var matched []string
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}
		items = append(items, domain.RelatedItem{Target: target, MatchedKeywords: matched})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return len(items[i].MatchedKeywords) > len(items[j].MatchedKeywords)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []domain.RelatedItem{}
	}
	return items, nil
}

// ExtractKeywords returns up to maxKeywords unique lowercase tokens of text
// longer than three characters, in order of first appearance, skipping
// stopwords.
func ExtractKeywords(text string, maxKeywords int) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, tok := range tokenize(strings.ToLower(text)) {
		if len(keywords) >= maxKeywords {
			break
		}
		if utf8.RuneCountInString(tok) <= minRelationKeywordLen || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}
	return keywords
}
