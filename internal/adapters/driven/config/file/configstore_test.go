package file

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeConfig(t *testing.T, store *ConfigStore, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))
}

func TestNewConfigStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[[[ not toml"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_LoadNestedTables(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, `
[embedding]
dimensions = 1536

[embedding.remote]
provider = "openai"
model = "text-embedding-3-small"

[retrieval]
top_k = 8
tags = ["billing", "support"]

[retrieval.weights]
title_match = 0.5

[workspace]
query_timeout = "2s"
enabled = true
`)
	require.NoError(t, store.Load())

	assert.Equal(t, 1536, store.GetInt("embedding.dimensions"))
	assert.Equal(t, "openai", store.GetString("embedding.remote.provider"))
	assert.Equal(t, 8, store.GetInt("retrieval.top_k"))
	assert.Equal(t, []string{"billing", "support"}, store.GetStringSlice("retrieval.tags"))
	assert.True(t, store.GetBool("workspace.enabled"))
	assert.Equal(t, "2s", store.GetString("workspace.query_timeout"))

	weight, ok := store.Get("retrieval.weights.title_match")
	require.True(t, ok)
	assert.Equal(t, 0.5, weight)
}

func TestConfigStore_TypeMismatchReturnsZero(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("retrieval.top_k", "eight"))
	require.NoError(t, store.Set("embedding.model", int64(3)))

	assert.Equal(t, 0, store.GetInt("retrieval.top_k"))
	assert.Equal(t, "", store.GetString("embedding.model"))
	assert.False(t, store.GetBool("embedding.model"))
	assert.Nil(t, store.GetStringSlice("embedding.model"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SetPersistsAsNestedTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("embedding.primary.provider", "ollama"))
	require.NoError(t, store.Set("embedding.dimensions", 768))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[embedding.primary]")

	reopened, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, "ollama", reopened.GetString("embedding.primary.provider"))
	assert.Equal(t, 768, reopened.GetInt("embedding.dimensions"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("embedding.remote.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EnvironmentOverride(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("embedding.remote.api_key", "from-file"))
	require.NoError(t, store.Set("retrieval.top_k", int64(5)))

	t.Setenv("PROJCTX_EMBEDDING_REMOTE_API_KEY", "from-env")
	t.Setenv("PROJCTX_RETRIEVAL_TOP_K", "12")
	t.Setenv("PROJCTX_WORKSPACE_ENABLED", "true")
	t.Setenv("PROJCTX_RETRIEVAL_TAGS", "a, b,,c")

	assert.Equal(t, "from-env", store.GetString("embedding.remote.api_key"))
	assert.Equal(t, 12, store.GetInt("retrieval.top_k"))
	assert.True(t, store.GetBool("workspace.enabled"))
	assert.Equal(t, []string{"a", "b", "c"}, store.GetStringSlice("retrieval.tags"))

	// Empty variables do not override
	t.Setenv("PROJCTX_EMBEDDING_REMOTE_API_KEY", "")
	assert.Equal(t, "from-file", store.GetString("embedding.remote.api_key"))
}

func TestConfigStore_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	key := "PROJCTX_EMBEDDING_PRIMARY_MODEL"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=mxbai-embed-large\n"), 0600))

	// godotenv sets process variables; restore the environment afterwards
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", store.GetString("embedding.primary.model"))
}

func TestConfigStore_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	key := "PROJCTX_EMBEDDING_PRIMARY_MODEL"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=from-dotenv\n"), 0600))
	t.Setenv(key, "from-shell")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-shell", store.GetString("embedding.primary.model"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "PROJCTX_EMBEDDING_REMOTE_API_KEY", EnvKey("embedding.remote.api_key"))
	assert.Equal(t, "PROJCTX_RETRIEVAL_WEIGHTS_TITLE_MATCH", EnvKey("retrieval.weights.title_match"))
	assert.Equal(t, "PROJCTX_WORKSPACE_MAX_CONCURRENCY", EnvKey("workspace.max-concurrency"))
}

func TestNestMap(t *testing.T) {
	got := nestMap(map[string]any{
		"embedding.dimensions":       768,
		"embedding.primary.provider": "ollama",
		"top":                        true,
	})

	assert.Equal(t, map[string]any{
		"embedding": map[string]any{
			"dimensions": 768,
			"primary":    map[string]any{"provider": "ollama"},
		},
		"top": true,
	}, got)
	assert.Equal(t, map[string]any{
		"embedding.dimensions":       768,
		"embedding.primary.provider": "ollama",
		"top":                        true,
	}, flattenMap(got, ""))
}

func TestConfigStore_WatchReloads(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("retrieval.top_k", int64(5)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func() { reloads.Add(1) })
	}()

	// Give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, store, "[retrieval]\ntop_k = 9\n")

	assert.Eventually(t, func() bool {
		return store.GetInt("retrieval.top_k") == 9
	}, 2*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestConfigStore_WatchKeepsValuesOnBadReload(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("retrieval.top_k", int64(5)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	go func() {
		_ = store.Watch(ctx, func() { reloads.Add(1) })
	}()

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, store, "[retrieval\ntop_k = ")

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
	assert.Equal(t, int32(0), reloads.Load())
}
