package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

func TestConfigStore_Seeded(t *testing.T) {
	var store driven.ConfigStore = NewConfigStore(map[string]any{
		"llm.provider":                   "gemini",
		"retrieval.top_k":                int64(5),
		"retrieval.similarity_threshold": 0.7,
		"retrieval.timeout":              "30s",
	}, map[string]any{
		"llm.provider": "openai",
	})

	assert.Equal(t, "openai", store.GetString("llm.provider"), "later seeds win")
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.7, store.GetFloat64("retrieval.similarity_threshold"), 1e-9)
	assert.Equal(t, 30*time.Second, store.GetDuration("retrieval.timeout"))
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Load())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("server.enabled", true))
	require.NoError(t, store.Set("documents.types", []any{"pdf", 3, "eml"}))
	require.NoError(t, store.Set("chunking.chunk_size", 400))

	assert.True(t, store.GetBool("server.enabled"))
	assert.Equal(t, []string{"pdf", "eml"}, store.GetStringSlice("documents.types"))
	assert.Equal(t, 400, store.GetInt("chunking.chunk_size"))
	assert.Empty(t, store.GetString("chunking.chunk_size"))

	_, ok := store.Get("missing")
	assert.False(t, ok)

	require.NoError(t, store.Save())
	assert.Equal(t, 4, store.Saves())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n%5), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", n%5))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Saves())
}
