package vectorindex

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure Degraded implements the interface.
var _ driven.VectorIndex = (*Degraded)(nil)

// Degraded is the index used when no backend is configured or reachable.
// It still embeds, so similarity can be computed without storage.
type Degraded struct {
	status    domain.IndexStatus
	dimension int
	embedder  driven.EmbeddingService
}

// NewDegraded creates a degraded index reporting status.
// embedder may be nil.
func NewDegraded(status domain.IndexStatus, dimension int, embedder driven.EmbeddingService) *Degraded {
	return &Degraded{status: status, dimension: dimension, embedder: embedder}
}

// Embed delegates to the embedder when there is one.
func (d *Degraded) Embed(ctx context.Context, text string) ([]float32, error) {
	if d.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	v, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return v, nil
}

// Store reports failure.
func (d *Degraded) Store(_ context.Context, chunks []domain.DocumentChunk) bool {
	logger.Warn("Vector index %s, cannot store %d chunks", d.status, len(chunks))
	return false
}

// Query returns no results.
func (d *Degraded) Query(context.Context, string, int, domain.VectorFilter) []domain.SearchResult {
	logger.Debug("Vector index %s, query skipped", d.status)
	return nil
}

// Delete reports failure.
func (d *Degraded) Delete(_ context.Context, documentName string) bool {
	logger.Warn("Vector index %s, cannot delete %s", d.status, documentName)
	return false
}

// Stats reports an empty index with the degraded status.
func (d *Degraded) Stats(context.Context) domain.IndexStats {
	return domain.IndexStats{Dimension: d.dimension, Status: d.status}
}

// Close releases the embedder.
func (d *Degraded) Close() error {
	if d.embedder == nil {
		return nil
	}
	return d.embedder.Close()
}
