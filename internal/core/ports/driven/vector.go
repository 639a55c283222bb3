package driven

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// VectorIndex owns embedding generation and a similarity-search store.
// It isolates the rest of the system from any particular backing store.
//
// A degraded index (not configured or unreachable) never panics or blocks:
// Store and Delete return false, Query returns no results, and Stats
// reports the status so callers can fall back to full-text processing.
type VectorIndex interface {
	// Embed returns a fixed-dimension, unit-normalised vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Store embeds and upserts chunks keyed by ChunkID.
	// Re-storing a chunk with the same ID overwrites it.
	// Writes are split into bounded batches.
	Store(ctx context.Context, chunks []domain.DocumentChunk) bool

	// Query returns up to k results ordered by descending cosine similarity.
	Query(ctx context.Context, text string, k int, filter domain.VectorFilter) []domain.SearchResult

	// Delete removes every chunk stored under documentName.
	Delete(ctx context.Context, documentName string) bool

	// Stats reports the index contents and backend status.
	Stats(ctx context.Context) domain.IndexStats

	// Close releases resources.
	Close() error
}

// ChunkLister is implemented by indexes that can enumerate a document's chunks
// in index order without a similarity query.
type ChunkLister interface {
	// ListChunks returns all chunks stored under documentName ordered by Index.
	ListChunks(ctx context.Context, documentName string) ([]domain.DocumentChunk, error)
}

// VectorRecord is a chunk paired with its embedding.
type VectorRecord struct {
	Chunk  domain.DocumentChunk
	Vector []float32
}

// VectorStore is the backing store behind a VectorIndex.
// Unlike VectorIndex it reports failures as errors; the index turns them
// into flagged results.
type VectorStore interface {
	// Ping checks the store is reachable and prepares it for use
	// (creating collections or tables as needed).
	Ping(ctx context.Context) error

	// Upsert writes records keyed by ChunkID.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Search returns up to k records by descending similarity, clipped to [0, 1].
	Search(ctx context.Context, vector []float32, k int, filter domain.VectorFilter) ([]domain.SearchResult, error)

	// DeletePage removes at most limit chunks of documentName and returns
	// how many were removed. Callers repeat until it returns 0.
	DeletePage(ctx context.Context, documentName string, limit int) (int, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
