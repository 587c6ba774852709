package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"embedding.primary.provider": "ollama",
		"retrieval.top_k":            int64(7),
	}, map[string]any{
		"retrieval.top_k": 9,
	})

	assert.Equal(t, "ollama", store.GetString("embedding.primary.provider"))
	assert.Equal(t, 9, store.GetInt("retrieval.top_k"), "later seeds win")
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i64", int64(42)))
	require.NoError(t, store.Set("f", 3.9))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("tags", []any{"a", 1, "b"}))

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, 42, store.GetInt("i64"))
	assert.Equal(t, 3, store.GetInt("f"))
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("tags"))

	// Wrong types and missing keys fall back to zero values
	assert.Equal(t, "", store.GetString("i64"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.False(t, store.GetBool("s"))
	assert.Nil(t, store.GetStringSlice("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_WatchNotifiesOnSet(t *testing.T) {
	store := NewConfigStore()
	ctx, cancel := context.WithCancel(context.Background())

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func() { changed <- struct{}{} })
	}()

	require.Eventually(t, func() bool {
		store.mu.RLock()
		defer store.mu.RUnlock()
		return len(store.watchers) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Set("retrieval.top_k", 3))
	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}

	cancel()
	require.NoError(t, <-done)

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Empty(t, store.watchers)
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("retrieval.top_k", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("retrieval.top_k")
		}()
	}
	wg.Wait()

	_, ok := store.Get("retrieval.top_k")
	assert.True(t, ok)
}
