package driving

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// DocumentService manages documents in the vector index.
type DocumentService interface {
	// Ingest decodes, chunks and stores a document. Returns the chunk count.
	// Returns domain.ErrFileTooLarge, domain.ErrUnsupportedType or
	// domain.ErrVectorIndexUnavailable.
	Ingest(ctx context.Context, raw *domain.RawDocument) (int, error)

	// IngestURL downloads and ingests a document. An empty name uses the URL's base name.
	IngestURL(ctx context.Context, url, name string) (int, error)

	// Fetch downloads a document without indexing it.
	Fetch(ctx context.Context, url string) (*domain.RawDocument, error)

	// LoadText decodes and preprocesses a document without indexing it.
	LoadText(ctx context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error)

	// Delete removes all chunks of a document from the index.
	Delete(ctx context.Context, documentName string) error

	// Stats reports the index contents and status.
	Stats(ctx context.Context) domain.IndexStats
}
