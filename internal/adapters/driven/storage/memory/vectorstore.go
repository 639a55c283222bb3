package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// Ensure VectorStore implements the interfaces.
var (
	_ driven.VectorStore = (*VectorStore)(nil)
	_ driven.ChunkLister = (*VectorStore)(nil)
)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Search is a linear cosine scan.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]driven.VectorRecord
	order   []string
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]driven.VectorRecord),
	}
}

// Ping always succeeds.
func (s *VectorStore) Ping(context.Context) error {
	return nil
}

// Upsert stores or replaces records by chunk ID.
func (s *VectorStore) Upsert(_ context.Context, records []driven.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		id := r.Chunk.ChunkID
		if _, ok := s.records[id]; !ok {
			s.order = append(s.order, id)
		}
		s.records[id] = r
	}
	return nil
}

// Search returns up to k records matching filter by descending similarity.
// Equal scores keep insertion order.
func (s *VectorStore) Search(
	_ context.Context, vector []float32, k int, filter domain.VectorFilter,
) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(s.records))
	for _, id := range s.order {
		r := s.records[id]
		if !filter.Matches(&r.Chunk) {
			continue
		}
		results = append(results, domain.SearchResult{
			Chunk: r.Chunk,
			Score: embedding.Similarity(vector, r.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeletePage removes up to limit chunks of documentName.
func (s *VectorStore) DeletePage(_ context.Context, documentName string, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		if removed < limit && s.records[id].Chunk.DocumentName == documentName {
			delete(s.records, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept

	return removed, nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// ListChunks returns the chunks of documentName ordered by index.
func (s *VectorStore) ListChunks(_ context.Context, documentName string) ([]domain.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.DocumentChunk
	for _, id := range s.order {
		if c := s.records[id].Chunk; c.DocumentName == documentName {
			chunks = append(chunks, c)
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })

	return chunks, nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}
