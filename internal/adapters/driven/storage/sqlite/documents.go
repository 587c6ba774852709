package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, title, summary, body, tags, tenant_id, published, content_hash, created_at, updated_at`

// visibleClause restricts rows to published documents visible under a scope.
// It takes the scope's tenant ID twice.
const visibleClause = `published = 1 AND (tenant_id = '' OR (? <> '' AND tenant_id = ?))`

// SaveDocument stores or updates a document. The vector is written in the
// bracketed text encoding, or NULL when the document has none.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	tags, err := marshalStrings(doc.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	now := time.Now().UTC()
	createdAt := doc.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	// Stored as text, so UTC keeps updated_at ordering correct.
	updatedAt := doc.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = now
	}

	var embedding any
	if doc.HasEmbedding() {
		embedding = domain.FormatVector(doc.Embedding)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, summary, body, tags, tenant_id, published,
			embedding, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			body = excluded.body,
			tags = excluded.tags,
			tenant_id = excluded.tenant_id,
			published = excluded.published,
			embedding = excluded.embedding,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.Summary, doc.Body, tags, doc.TenantID, doc.Published,
		embedding, doc.ContentHash, createdAt.UTC(), updatedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID, published or not. A stored vector
// that cannot be decoded is reported as missing.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`, embedding
		FROM documents WHERE id = ?
	`, id)

	var raw any
	doc, err := scanDocument(row, &raw)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if raw != nil {
		if vec, err := domain.ParseVector(raw); err == nil {
			doc.Embedding = vec
		}
	}
	return doc, nil
}

// DeleteDocument removes a document.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListEmbedded returns visible documents with a stored vector, most recently
// updated first. The vector is left in its column encoding: TEXT rows come
// back as string, BLOB rows as []byte.
func (s *documentStore) ListEmbedded(
	ctx context.Context, scope domain.Scope, limit int,
) ([]domain.EmbeddedDocument, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`, embedding
		FROM documents
		WHERE embedding IS NOT NULL AND `+visibleClause+`
		ORDER BY updated_at DESC, seq DESC
		LIMIT ?
	`, scope.TenantID, scope.TenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying embedded documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.EmbeddedDocument //nolint:prealloc // size unknown from query
	for rows.Next() {
		var raw any
		doc, err := scanDocument(rows, &raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.EmbeddedDocument{Document: *doc, RawEmbedding: raw})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embedded documents: %w", err)
	}

	return docs, nil
}

// FullTextSearch matches every term against the FTS5 index and returns
// visible documents in bm25 rank order.
func (s *documentStore) FullTextSearch(
	ctx context.Context, terms []string, scope domain.Scope, limit int,
) ([]domain.Document, error) {
	match := ftsQuery(terms)
	if match == "" {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT d.id, d.title, d.summary, d.body, d.tags, d.tenant_id, d.published,
			d.content_hash, d.created_at, d.updated_at
		FROM documents_fts fts
		JOIN documents d ON d.seq = fts.rowid
		WHERE documents_fts MATCH ?
			AND d.published = 1 AND (d.tenant_id = '' OR (? <> '' AND d.tenant_id = ?))
		ORDER BY fts.rank
		LIMIT ?
	`, match, scope.TenantID, scope.TenantID, limit)
	if err != nil {
		if isFTSUnavailable(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrFullTextUnsupported, err)
		}
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListPublished returns visible documents for heuristic scoring.
func (s *documentStore) ListPublished(
	ctx context.Context, scope domain.Scope, limit int,
) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE `+visibleClause+`
		ORDER BY seq
		LIMIT ?
	`, scope.TenantID, scope.TenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying published documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListMissingEmbeddings returns documents of any tenant, published or not,
// whose vector is NULL.
func (s *documentStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE embedding IS NULL
		ORDER BY seq
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents without embeddings: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ftsQuery quotes each term and requires all of them.
func ftsQuery(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " AND ")
}

// isFTSUnavailable reports whether err means the FTS5 module or index is missing.
func isFTSUnavailable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such module: fts5") ||
		strings.Contains(msg, "no such table: documents_fts")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans documentColumns, plus the raw embedding when raw is non-nil.
func scanDocument(row rowScanner, raw *any) (*domain.Document, error) {
	var doc domain.Document
	var tags string
	var createdAt, updatedAt sql.NullTime

	dest := []any{&doc.ID, &doc.Title, &doc.Summary, &doc.Body, &tags, &doc.TenantID,
		&doc.Published, &doc.ContentHash, &createdAt, &updatedAt}
	if raw != nil {
		dest = append(dest, raw)
	}

	if err := row.Scan(dest...); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	var err error
	if doc.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}
	doc.CreatedAt = timeValue(createdAt)
	doc.UpdatedAt = timeValue(updatedAt)

	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows, nil)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}
