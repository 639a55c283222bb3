package driven

import "context"

// EmbeddingService turns text into fixed-dimension vectors for the vector index.
// The hash embedder is always available, so the index never runs without one.
//
// Implementations:
//   - hash (md5-seeded, unit-normalised, no model)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small)
type EmbeddingService interface {
	// Embed returns the embedding for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in order. The result has one vector per input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size. It must match vector.dimension.
	Dimensions() int

	// ModelName identifies the embedder in stats and logs.
	ModelName() string

	// Ping checks the embedder once at startup.
	Ping(ctx context.Context) error

	Close() error
}
