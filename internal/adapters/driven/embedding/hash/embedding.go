// Package hash provides a deterministic embedding service derived from an MD5 digest.
// It needs no model and no network, and carries no semantic meaning: identical
// texts embed identically, different texts embed to unrelated vectors.
package hash

import (
	"context"
	"crypto/md5"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions = 384
	ModelName         = "md5-384"
)

// EmbeddingService maps text to a unit vector by repeating its digest bytes.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hash embedder. A non-positive dimension uses the default.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed returns the unit-normalised digest vector for text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	sum := md5.Sum([]byte(text))

	v := make([]float32, s.dimensions)
	for i := range v {
		v[i] = float32(sum[i%len(sum)]) / 255
	}
	return embedding.Normalise(v), nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "md5-384".
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
