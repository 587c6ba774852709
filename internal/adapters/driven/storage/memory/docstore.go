package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// It has no text-search operator, so FullTextSearch always reports
// domain.ErrFullTextUnsupported. Documents are listed in insertion order.
type DocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	embeddings map[string]any
	order      []string
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:  make(map[string]domain.Document),
		embeddings: make(map[string]any),
	}
}

// SaveDocument stores or updates a document. The vector is kept in the
// bracketed string encoding, like a real store column.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; !ok {
		s.order = append(s.order, doc.ID)
	}

	stored := *doc
	stored.Tags = slices.Clone(doc.Tags)
	stored.Embedding = nil
	s.documents[doc.ID] = stored

	if doc.HasEmbedding() {
		s.embeddings[doc.ID] = domain.FormatVector(doc.Embedding)
	} else {
		delete(s.embeddings, doc.ID)
	}
	return nil
}

// SetRawEmbedding stores a vector in an arbitrary encoding, as found in
// legacy rows. The document must already exist.
func (s *DocumentStore) SetRawEmbedding(id string, raw any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	s.embeddings[id] = raw
	return nil
}

// GetDocument retrieves a document by ID. A stored vector that cannot be
// decoded is returned as missing.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if raw, ok := s.embeddings[id]; ok {
		if vec, err := domain.ParseVector(raw); err == nil {
			doc.Embedding = vec
		}
	}
	return &doc, nil
}

// DeleteDocument removes a document.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.embeddings, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// ListEmbedded returns published in-scope documents with a stored vector,
// leaving the vector undecoded. Over the limit, the most recently updated
// documents are kept, still in insertion order.
func (s *DocumentStore) ListEmbedded(
	_ context.Context, scope domain.Scope, limit int,
) ([]domain.EmbeddedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.EmbeddedDocument
	for _, id := range s.order {
		doc := s.documents[id]
		raw, ok := s.embeddings[id]
		if !ok || !visible(&doc, scope) {
			continue
		}
		out = append(out, domain.EmbeddedDocument{Document: doc, RawEmbedding: raw})
	}
	if limit <= 0 || len(out) <= limit {
		return out, nil
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	// Newest first; later insertion wins a tie.
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := out[idx[a]].Document.UpdatedAt, out[idx[b]].Document.UpdatedAt
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return idx[a] > idx[b]
	})
	keep := idx[:limit]
	sort.Ints(keep)

	kept := make([]domain.EmbeddedDocument, len(keep))
	for i, j := range keep {
		kept[i] = out[j]
	}
	return kept, nil
}

// FullTextSearch is not supported by the in-memory store.
func (s *DocumentStore) FullTextSearch(
	_ context.Context, _ []string, _ domain.Scope, _ int,
) ([]domain.Document, error) {
	return nil, domain.ErrFullTextUnsupported
}

// ListPublished returns published in-scope documents.
func (s *DocumentStore) ListPublished(_ context.Context, scope domain.Scope, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Document
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		doc := s.documents[id]
		if visible(&doc, scope) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// ListMissingEmbeddings returns documents of any tenant without a vector.
func (s *DocumentStore) ListMissingEmbeddings(_ context.Context, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Document
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		if _, ok := s.embeddings[id]; !ok {
			out = append(out, s.documents[id])
		}
	}
	return out, nil
}

// visible applies the published and scope filters shared by the list reads.
func visible(doc *domain.Document, scope domain.Scope) bool {
	return doc.Published && scope.Allows(doc)
}
