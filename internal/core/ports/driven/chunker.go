package driven

import "github.com/custodia-labs/docqa-cli/internal/core/domain"

// Chunker splits cleaned document text into bounded, overlapping chunks.
type Chunker interface {
	// Chunk returns chunks in document order. Empty text yields no chunks.
	// Chunking never fails; metadata may carry page texts for page attribution.
	Chunk(text, documentName string, metadata map[string]any) []domain.DocumentChunk
}

// Tokenizer counts tokens in text.
type Tokenizer interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Name identifies the encoding.
	Name() string
}
