package driving

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// SearchService retrieves and ranks chunks for a query.
type SearchService interface {
	// Search fans out expansion queries, merges by chunk ID and returns the top k.
	Search(ctx context.Context, query string, k int, filter domain.VectorFilter) []domain.SearchResult

	// SearchWithReranking searches for 2k results, applies entity boosts and returns the top k.
	SearchWithReranking(ctx context.Context, query string, k int, filter domain.VectorFilter) []domain.SearchResult

	// SearchByDocument reranks within a single document.
	SearchByDocument(ctx context.Context, query, documentName string, k int) []domain.SearchResult

	// ContextChunks returns the chunks surrounding chunk within window positions.
	ContextChunks(ctx context.Context, chunk domain.DocumentChunk, window int) []domain.DocumentChunk
}
