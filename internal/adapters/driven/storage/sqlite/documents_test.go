package sqlite

import (
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

func saveTestDocuments(t *testing.T, store *Store, docs ...domain.Document) {
	t.Helper()
	docStore := store.DocumentStore()
	for i := range docs {
		require.NoError(t, docStore.SaveDocument(context.Background(), &docs[i]))
	}
}

func docIDs(docs []domain.Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}

func float32Blob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	docStore := store.DocumentStore()
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	doc := &domain.Document{
		ID:          "doc-1",
		Title:       "Refund policy",
		Summary:     "How refunds work",
		Body:        "Refunds are issued within 14 days.",
		Tags:        []string{"billing", "policy"},
		TenantID:    "acme",
		Published:   true,
		Embedding:   []float32{0.25, -0.5, 1},
		ContentHash: "hash",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, docStore.SaveDocument(ctx, doc))

	got, err := docStore.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Refund policy", got.Title)
	assert.Equal(t, "How refunds work", got.Summary)
	assert.Equal(t, []string{"billing", "policy"}, got.Tags)
	assert.Equal(t, "acme", got.TenantID)
	assert.True(t, got.Published)
	assert.Equal(t, []float32{0.25, -0.5, 1}, got.Embedding)
	assert.Equal(t, "hash", got.ContentHash)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestDocumentStore_WritesBracketedEncoding(t *testing.T) {
	store := setupTestStore(t)
	saveTestDocuments(t, store, domain.Document{ID: "doc-1", Title: "T", Embedding: []float32{0.1, 0.2}})

	var raw string
	var typ string
	require.NoError(t, store.db.QueryRow(
		"SELECT embedding, typeof(embedding) FROM documents WHERE id = ?", "doc-1",
	).Scan(&raw, &typ))

	assert.Equal(t, "[0.1,0.2]", raw)
	assert.Equal(t, "text", typ)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.DocumentStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Update(t *testing.T) {
	store := setupTestStore(t)
	docStore := store.DocumentStore()
	ctx := context.Background()

	saveTestDocuments(t, store, domain.Document{ID: "doc-1", Title: "Old", Embedding: []float32{1}})
	require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{ID: "doc-1", Title: "New"}))

	got, err := docStore.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.False(t, got.HasEmbedding())
	assert.Nil(t, got.Tags)
}

func TestDocumentStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	docStore := store.DocumentStore()
	ctx := context.Background()

	saveTestDocuments(t, store, domain.Document{ID: "doc-1", Title: "Refund", Published: true})
	require.NoError(t, docStore.DeleteDocument(ctx, "doc-1"))

	_, err := docStore.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The full-text index follows the table.
	hits, err := docStore.FullTextSearch(ctx, []string{"refund"}, domain.GlobalScope(), 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func seedScopedDocuments(t *testing.T, store *Store) {
	t.Helper()
	saveTestDocuments(t, store,
		domain.Document{ID: "global", Title: "Refund policy", Published: true, Embedding: []float32{1, 0}},
		domain.Document{ID: "acme", Title: "Acme refund policy", TenantID: "acme", Published: true, Embedding: []float32{0, 1}},
		domain.Document{ID: "other", Title: "Other refund policy", TenantID: "other", Published: true, Embedding: []float32{1, 1}},
		domain.Document{ID: "draft", Title: "Draft refund policy", Published: false, Embedding: []float32{1, 0}},
		domain.Document{ID: "plain", Title: "Refund without vector", Published: true},
	)
}

func TestDocumentStore_ListEmbedded_Scope(t *testing.T) {
	store := setupTestStore(t)
	seedScopedDocuments(t, store)
	ctx := context.Background()

	tenant, err := store.DocumentStore().ListEmbedded(ctx, domain.TenantScope("acme"), 10)
	require.NoError(t, err)
	require.Len(t, tenant, 2)
	assert.Equal(t, "acme", tenant[0].Document.ID)
	assert.Equal(t, "[0,1]", tenant[0].RawEmbedding)
	assert.Equal(t, "global", tenant[1].Document.ID)

	global, err := store.DocumentStore().ListEmbedded(ctx, domain.GlobalScope(), 10)
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "global", global[0].Document.ID)
}

func TestDocumentStore_ListEmbedded_Limit(t *testing.T) {
	store := setupTestStore(t)
	seedScopedDocuments(t, store)

	docs, err := store.DocumentStore().ListEmbedded(context.Background(), domain.TenantScope("acme"), 1)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDocumentStore_ListEmbedded_KeepsMostRecentlyUpdated(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	saveTestDocuments(t, store,
		domain.Document{ID: "old", Title: "Old", Published: true, Embedding: []float32{1, 0}, UpdatedAt: base},
		domain.Document{ID: "new", Title: "New", Published: true, Embedding: []float32{1, 0}, UpdatedAt: base.Add(48 * time.Hour)},
		domain.Document{ID: "mid", Title: "Mid", Published: true, Embedding: []float32{1, 0}, UpdatedAt: base.Add(24 * time.Hour)},
	)

	docs, err := store.DocumentStore().ListEmbedded(context.Background(), domain.GlobalScope(), 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].Document.ID)
	assert.Equal(t, "mid", docs[1].Document.ID)
}

func TestDocumentStore_ListEmbedded_BlobEncoding(t *testing.T) {
	store := setupTestStore(t)
	saveTestDocuments(t, store, domain.Document{ID: "legacy", Title: "Legacy", Published: true})

	_, err := store.db.Exec("UPDATE documents SET embedding = ? WHERE id = ?",
		float32Blob([]float32{0.5, 0.25}), "legacy")
	require.NoError(t, err)

	docs, err := store.DocumentStore().ListEmbedded(context.Background(), domain.GlobalScope(), 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	raw, ok := docs[0].RawEmbedding.([]byte)
	require.True(t, ok, "blob rows come back as []byte, got %T", docs[0].RawEmbedding)
	vec, err := domain.ParseVector(raw)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)

	got, err := store.DocumentStore().GetDocument(context.Background(), "legacy")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, got.Embedding)
}

func TestDocumentStore_FullTextSearch(t *testing.T) {
	store := setupTestStore(t)
	saveTestDocuments(t, store,
		domain.Document{ID: "title", Title: "Refund policy", Body: "Details inside.", Published: true},
		domain.Document{ID: "body", Title: "Billing FAQ", Body: "Our refund policy is generous.", Published: true},
		domain.Document{ID: "partial", Title: "Refund timeline", Published: true},
		domain.Document{ID: "draft", Title: "Refund policy draft", Published: false},
		domain.Document{ID: "tenant", Title: "Refund policy", TenantID: "acme", Published: true},
	)
	docStore := store.DocumentStore()
	ctx := context.Background()

	hits, err := docStore.FullTextSearch(ctx, []string{"refund", "policy"}, domain.GlobalScope(), 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"title", "body"}, docIDs(hits))

	hits, err = docStore.FullTextSearch(ctx, []string{"refund", "policy"}, domain.TenantScope("acme"), 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"title", "body", "tenant"}, docIDs(hits))

	hits, err = docStore.FullTextSearch(ctx, []string{"refund", "policy"}, domain.TenantScope("acme"), 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestDocumentStore_FullTextSearch_Empty(t *testing.T) {
	store := setupTestStore(t)

	hits, err := store.DocumentStore().FullTextSearch(context.Background(), nil, domain.GlobalScope(), 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDocumentStore_FullTextSearch_QuotesOperators(t *testing.T) {
	store := setupTestStore(t)
	saveTestDocuments(t, store, domain.Document{ID: "doc", Title: "NOT a problem", Published: true})

	// Operator words and stray quotes are matched as plain terms.
	hits, err := store.DocumentStore().FullTextSearch(
		context.Background(), []string{"not", `pro"blem`}, domain.GlobalScope(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, docIDs(hits))

	hits, err = store.DocumentStore().FullTextSearch(
		context.Background(), []string{"not", "solution"}, domain.GlobalScope(), 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDocumentStore_ListPublished(t *testing.T) {
	store := setupTestStore(t)
	seedScopedDocuments(t, store)

	docs, err := store.DocumentStore().ListPublished(context.Background(), domain.TenantScope("acme"), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"global", "acme", "plain"}, docIDs(docs))

	docs, err = store.DocumentStore().ListPublished(context.Background(), domain.GlobalScope(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"global", "plain"}, docIDs(docs))
}

func TestDocumentStore_ListMissingEmbeddings(t *testing.T) {
	store := setupTestStore(t)
	seedScopedDocuments(t, store)
	saveTestDocuments(t, store, domain.Document{ID: "tenant-draft", Title: "Draft", TenantID: "other"})

	docs, err := store.DocumentStore().ListMissingEmbeddings(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "tenant-draft"}, docIDs(docs))
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"refund" AND "policy"`, ftsQuery([]string{"refund", "policy"}))
	assert.Equal(t, `"ab"`, ftsQuery([]string{`a"b`, `""`}))
	assert.Empty(t, ftsQuery(nil))
}
