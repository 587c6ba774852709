package services

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/projctx/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
	"github.com/custodia-labs/projctx/internal/logger"
)

// captureLog redirects the logger with verbose mode off.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(false)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &buf
}

// --- Mock implementations for service testing ---

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	mu      sync.Mutex
	model   string
	dims    int
	embedFn func(text string) ([]float32, error)
	texts   []string
	pingErr error
}

func newMockEmbedder(embedFn func(text string) ([]float32, error)) *mockEmbedder {
	return &mockEmbedder{model: "mock", embedFn: embedFn}
}

// fixedEmbedder always returns vec.
func fixedEmbedder(vec ...float32) *mockEmbedder {
	return newMockEmbedder(func(string) ([]float32, error) { return vec, nil })
}

// failingEmbedder always returns err.
func failingEmbedder(err error) *mockEmbedder {
	return newMockEmbedder(func(string) ([]float32, error) { return nil, err })
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	return m.embedFn(text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) ModelName() string { return m.model }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// mockDocStore wraps the in-memory store with a scriptable full-text
// operator and injectable read failures.
type mockDocStore struct {
	*memory.DocumentStore

	ftsResults        []domain.Document
	ftsErr            error
	ftsTerms          []string
	embeddedErr       error
	lastEmbeddedLimit int
	listErr           error
}

var _ driven.DocumentStore = (*mockDocStore)(nil)

func newMockDocStore() *mockDocStore {
	return &mockDocStore{DocumentStore: memory.NewDocumentStore(), ftsErr: domain.ErrFullTextUnsupported}
}

func (m *mockDocStore) FullTextSearch(
	_ context.Context, terms []string, _ domain.Scope, _ int,
) ([]domain.Document, error) {
	m.ftsTerms = terms
	if m.ftsErr != nil {
		return nil, m.ftsErr
	}
	return m.ftsResults, nil
}

func (m *mockDocStore) ListEmbedded(
	ctx context.Context, scope domain.Scope, limit int,
) ([]domain.EmbeddedDocument, error) {
	m.lastEmbeddedLimit = limit
	if m.embeddedErr != nil {
		return nil, m.embeddedErr
	}
	return m.DocumentStore.ListEmbedded(ctx, scope, limit)
}

func (m *mockDocStore) ListPublished(ctx context.Context, scope domain.Scope, limit int) ([]domain.Document, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.DocumentStore.ListPublished(ctx, scope, limit)
}

// mockWorkspaceStore wraps the in-memory store with a failing task query,
// a spec query that ignores cancellation and a panicking decision query.
type mockWorkspaceStore struct {
	*memory.WorkspaceStore

	tasksErr        error
	specsDelay      time.Duration
	decisionsPanics bool
}

var _ driven.WorkspaceStore = (*mockWorkspaceStore)(nil)

func (m *mockWorkspaceStore) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	if m.tasksErr != nil {
		return nil, m.tasksErr
	}
	return m.WorkspaceStore.ListTasks(ctx, projectID)
}

func (m *mockWorkspaceStore) ListDecisions(ctx context.Context, projectID string) ([]domain.Decision, error) {
	if m.decisionsPanics {
		panic("nil row scanner")
	}
	return m.WorkspaceStore.ListDecisions(ctx, projectID)
}

func (m *mockWorkspaceStore) ListSpecs(ctx context.Context, projectID string) ([]domain.Spec, error) {
	if m.specsDelay > 0 {
		time.Sleep(m.specsDelay)
	}
	return m.WorkspaceStore.ListSpecs(ctx, projectID)
}
