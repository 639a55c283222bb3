// Package vectorindex implements driven.VectorIndex on top of an embedding
// service and a driven.VectorStore backend.
//
// Backend failures never escape as errors: Store and Delete report false,
// Query returns no results, and Stats reports the backend status.
package vectorindex

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
	"github.com/custodia-labs/docqa-cli/internal/metrics"
)

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex = (*Index)(nil)
	_ driven.ChunkLister = (*Index)(nil)
)

// Default configuration values.
const (
	DefaultBatchSize      = 100
	DefaultDeletePageSize = 1000
	DefaultTimeout        = 30 * time.Second
	DefaultRetryAttempts  = 3
)

// Options configures an Index.
type Options struct {
	// BatchSize bounds the number of records per upsert.
	BatchSize int

	// DeletePageSize bounds the number of chunks removed per delete page.
	DeletePageSize int

	// Timeout bounds every backend call.
	Timeout time.Duration

	// RetryAttempts bounds retries of a failed batch.
	RetryAttempts int

	// RetryInterval is the initial backoff between retries.
	RetryInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.DeletePageSize <= 0 {
		o.DeletePageSize = DefaultDeletePageSize
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 200 * time.Millisecond
	}
	return o
}

// Index embeds chunks and stores them in a VectorStore.
// Writes and deletes for the same document name are serialised.
type Index struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	opts     Options
	locks    *docLocks
}

// NewIndex creates an index over a connected store.
func NewIndex(store driven.VectorStore, embedder driven.EmbeddingService, opts Options) *Index {
	return &Index{
		store:    store,
		embedder: embedder,
		opts:     opts.withDefaults(),
		locks:    newDocLocks(),
	}
}

// Embed returns the embedding of text.
func (i *Index) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
	defer cancel()

	v, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return v, nil
}

// Store embeds and upserts chunks in batches.
// A failed batch is retried; if it still fails, earlier batches stay stored
// and Store returns false.
func (i *Index) Store(ctx context.Context, chunks []domain.DocumentChunk) bool {
	if len(chunks) == 0 {
		return true
	}

	names := make([]string, len(chunks))
	for n, c := range chunks {
		names[n] = c.DocumentName
	}
	unlock := i.locks.lock(names...)
	defer unlock()

	for start := 0; start < len(chunks); start += i.opts.BatchSize {
		end := min(start+i.opts.BatchSize, len(chunks))

		err := i.retry(ctx, func(ctx context.Context) error {
			return i.storeBatch(ctx, chunks[start:end])
		})
		metrics.RecordVectorOp("store", err)
		if err != nil {
			logger.Warn("Vector store failed at batch %d-%d of %d: %v", start, end, len(chunks), err)
			return false
		}
		logger.Debug("Stored chunks %d-%d of %d", start, end, len(chunks))
	}

	logger.Info("Stored %d chunks", len(chunks))
	return true
}

func (i *Index) storeBatch(ctx context.Context, batch []domain.DocumentChunk) error {
	texts := make([]string, len(batch))
	for n, c := range batch {
		texts[n] = c.Text
	}

	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding batch: got %d vectors for %d chunks", len(vectors), len(batch))
	}

	records := make([]driven.VectorRecord, len(batch))
	for n, c := range batch {
		records[n] = driven.VectorRecord{Chunk: c, Vector: vectors[n]}
	}
	return i.store.Upsert(ctx, records)
}

// Query returns up to k results for text. Failures yield no results.
func (i *Index) Query(ctx context.Context, text string, k int, filter domain.VectorFilter) []domain.SearchResult {
	if k <= 0 {
		return nil
	}

	vector, err := i.Embed(ctx, text)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
	defer cancel()

	results, err := i.store.Search(ctx, vector, k, filter)
	metrics.RecordVectorOp("query", err)
	if err != nil {
		logger.Warn("Vector query failed: %v", err)
		return nil
	}
	return results
}

// Delete removes every chunk of documentName, one page at a time.
func (i *Index) Delete(ctx context.Context, documentName string) bool {
	unlock := i.locks.lock(documentName)
	defer unlock()

	total := 0
	for {
		var removed int
		err := i.retry(ctx, func(ctx context.Context) error {
			n, err := i.store.DeletePage(ctx, documentName, i.opts.DeletePageSize)
			removed = n
			return err
		})
		metrics.RecordVectorOp("delete", err)
		if err != nil {
			logger.Warn("Vector delete of %s failed after %d chunks: %v", documentName, total, err)
			return false
		}
		if removed == 0 {
			break
		}
		total += removed
	}

	logger.Info("Deleted %d chunks for document %s", total, documentName)
	return true
}

// Stats reports the stored vector count. Fullness is 0 because the
// backends are unbounded.
func (i *Index) Stats(ctx context.Context) domain.IndexStats {
	ctx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
	defer cancel()

	stats := domain.IndexStats{Dimension: i.embedder.Dimensions()}

	count, err := i.store.Count(ctx)
	if err != nil {
		logger.Warn("Vector stats failed: %v", err)
		stats.Status = domain.IndexStatusError
		return stats
	}

	stats.TotalVectorCount = count
	stats.Status = domain.IndexStatusConnected
	return stats
}

// ListChunks returns the chunks of documentName in index order when the
// backend supports enumeration.
func (i *Index) ListChunks(ctx context.Context, documentName string) ([]domain.DocumentChunk, error) {
	lister, ok := i.store.(driven.ChunkLister)
	if !ok {
		return nil, fmt.Errorf("list chunks: %w", domain.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
	defer cancel()
	return lister.ListChunks(ctx, documentName)
}

// Close releases the store and the embedder.
func (i *Index) Close() error {
	storeErr := i.store.Close()
	if err := i.embedder.Close(); err != nil && storeErr == nil {
		return err
	}
	return storeErr
}

// retry runs fn with a per-attempt timeout and exponential backoff.
func (i *Index) retry(ctx context.Context, fn func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = i.opts.RetryInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(i.opts.RetryAttempts)), ctx)

	return backoff.Retry(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
		defer cancel()
		return fn(attemptCtx)
	}, policy)
}
