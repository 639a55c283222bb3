package vectorindex

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// checkTimeout bounds the startup connectivity check.
const checkTimeout = 5 * time.Second

// New selects the backend from settings, checks it once and returns the index.
// An unconfigured backend yields a Degraded index with status not_configured;
// a backend that fails to open or answer yields one with status error.
// The embedder is required.
func New(
	settings domain.VectorIndexSettings, retrieval domain.RetrievalSettings, embedder driven.EmbeddingService,
) driven.VectorIndex {
	dimension := embedder.Dimensions()
	if settings.Dimension > 0 && settings.Dimension != dimension {
		logger.Warn("Vector dimension %d does not match embedder %s (%d); using %d",
			settings.Dimension, embedder.ModelName(), dimension, dimension)
	}

	if !settings.IsConfigured() {
		logger.Info("Vector index not configured (backend %q)", settings.Backend)
		return NewDegraded(domain.IndexStatusNotConfigured, dimension, embedder)
	}

	store, err := openStore(settings, dimension, retrieval.Timeout)
	if err != nil {
		logger.Warn("Vector index %s unavailable: %v", settings.Backend, err)
		return NewDegraded(domain.IndexStatusError, dimension, embedder)
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		logger.Warn("Vector index %s unreachable: %v", settings.Backend, err)
		return NewDegraded(domain.IndexStatusError, dimension, embedder)
	}

	logger.Info("Vector index %s connected (dimension %d)", settings.Backend, dimension)
	return NewIndex(store, embedder, Options{
		BatchSize:      settings.BatchSize,
		DeletePageSize: settings.DeletePageSize,
		Timeout:        retrieval.Timeout,
		RetryAttempts:  retrieval.RetryAttempts,
	})
}

func openStore(settings domain.VectorIndexSettings, dimension int, timeout time.Duration) (driven.VectorStore, error) {
	switch settings.Backend {
	case domain.VectorBackendMemory:
		return memory.NewVectorStore(), nil
	case domain.VectorBackendSQLite:
		dir := settings.DataDir
		if dir != "" {
			dir = filepath.Join(dir, settings.IndexName)
		}
		return sqlite.NewVectorStore(dir)
	case domain.VectorBackendQdrant:
		return qdrant.NewVectorStore(qdrant.Config{
			URL:        settings.URL,
			APIKey:     settings.APIKey,
			Collection: settings.IndexName,
			Dimension:  dimension,
			Timeout:    timeout,
		})
	default:
		return nil, fmt.Errorf("unknown vector backend %q", settings.Backend)
	}
}
