package domain

// DocumentChunk is a bounded span of source text.
// Chunks are created by the chunker and never mutated afterwards.
type DocumentChunk struct {
	// ChunkID is unique and stable within a document.
	ChunkID string

	// DocumentName is the owning document.
	DocumentName string

	// Text is the chunk content.
	Text string

	// Index is the zero-based sequence position within the document.
	Index int

	// PageNumber is the source page, when page-level text was available.
	PageNumber *int

	// Metadata carries source-specific provenance.
	Metadata map[string]any
}

// SearchResult pairs a chunk with a similarity score in [0, 1].
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk DocumentChunk

	// Score is the similarity after any reranking boost, capped at 1.0.
	Score float64
}

// VectorFilter restricts a vector query.
// Zero values mean no restriction.
type VectorFilter struct {
	// DocumentName limits results to a single document.
	DocumentName string

	// PageNumber limits results to a single page.
	PageNumber *int
}

// IsEmpty returns true if the filter restricts nothing.
func (f VectorFilter) IsEmpty() bool {
	return f.DocumentName == "" && f.PageNumber == nil
}

// Matches reports whether a chunk satisfies the filter.
func (f VectorFilter) Matches(c *DocumentChunk) bool {
	if f.DocumentName != "" && c.DocumentName != f.DocumentName {
		return false
	}
	if f.PageNumber != nil {
		if c.PageNumber == nil || *c.PageNumber != *f.PageNumber {
			return false
		}
	}
	return true
}

// IndexStatus describes the state of the vector index backend.
type IndexStatus string

// Index statuses.
const (
	// IndexStatusNotConfigured means no backend was configured.
	IndexStatusNotConfigured IndexStatus = "not_configured"

	// IndexStatusConnected means the backend answered its health check.
	IndexStatusConnected IndexStatus = "connected"

	// IndexStatusError means the backend is configured but unreachable.
	IndexStatusError IndexStatus = "error"
)

// IndexStats summarises the contents of the vector index.
type IndexStats struct {
	// TotalVectorCount is the number of stored chunk vectors.
	TotalVectorCount int

	// Dimension is the embedding vector size.
	Dimension int

	// IndexFullness is the fraction of capacity used (0 when unbounded).
	IndexFullness float64

	// Status is the backend state.
	Status IndexStatus
}
