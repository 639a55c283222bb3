package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

func record(id, doc string, index int, vector ...float32) driven.VectorRecord {
	return driven.VectorRecord{
		Chunk: domain.DocumentChunk{
			ChunkID:      id,
			DocumentName: doc,
			Text:         "text " + id,
			Index:        index,
		},
		Vector: vector,
	}
}

func TestVectorStore_UpsertIsIdempotent(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{record("a", "doc", 0, 1, 0)}))

	updated := record("a", "doc", 0, 1, 0)
	updated.Chunk.Text = "latest"
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{updated}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.Search(ctx, []float32{1, 0}, 5, domain.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "latest", results[0].Chunk.Text)
}

func TestVectorStore_Search(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		record("a", "doc1", 0, 0, 1),
		record("b", "doc1", 1, 1, 0),
		record("c", "doc2", 0, 1, 1),
		record("d", "doc2", 1, -1, 0),
	}))

	t.Run("ordered by similarity", func(t *testing.T) {
		results, err := s.Search(ctx, []float32{1, 0}, 10, domain.VectorFilter{})
		require.NoError(t, err)
		require.Len(t, results, 4)
		assert.Equal(t, "b", results[0].Chunk.ChunkID)
		assert.Equal(t, "c", results[1].Chunk.ChunkID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Score, 0.0)
			assert.LessOrEqual(t, r.Score, 1.0)
		}
	})

	t.Run("truncated to k", func(t *testing.T) {
		results, err := s.Search(ctx, []float32{1, 0}, 2, domain.VectorFilter{})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("document filter", func(t *testing.T) {
		results, err := s.Search(ctx, []float32{1, 0}, 10, domain.VectorFilter{DocumentName: "doc2"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "doc2", r.Chunk.DocumentName)
		}
	})

	t.Run("non-positive k", func(t *testing.T) {
		results, err := s.Search(ctx, []float32{1, 0}, 0, domain.VectorFilter{})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestVectorStore_DeletePage(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()

	var records []driven.VectorRecord
	for i := 0; i < 5; i++ {
		records = append(records, record(fmt.Sprintf("a%d", i), "doc1", i, 1, 0))
	}
	records = append(records, record("b0", "doc2", 0, 1, 0))
	require.NoError(t, s.Upsert(ctx, records))

	n, err := s.DeletePage(ctx, "doc1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	total := n
	for n > 0 {
		n, err = s.DeletePage(ctx, "doc1", 2)
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, 5, total)

	results, err := s.Search(ctx, []float32{1, 0}, 10, domain.VectorFilter{DocumentName: "doc1"})
	require.NoError(t, err)
	assert.Empty(t, results)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVectorStore_ListChunks(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		record("c2", "doc", 2, 1),
		record("c0", "doc", 0, 1),
		record("x", "other", 1, 1),
		record("c1", "doc", 1, 1),
	}))

	chunks, err := s.ListChunks(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestVectorStore_ConcurrentAccess(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			doc := fmt.Sprintf("doc%d", n)
			_ = s.Upsert(ctx, []driven.VectorRecord{record(doc+"_0", doc, 0, 1, 0)})
			_, _ = s.Search(ctx, []float32{1, 0}, 3, domain.VectorFilter{})
		}(i)
	}
	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}
