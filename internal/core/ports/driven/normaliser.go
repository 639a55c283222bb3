package driven

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// Normaliser decodes one file type into plain text.
type Normaliser interface {
	// Type returns the file type this normaliser handles.
	Type() domain.FileType

	// Normalise extracts text and provenance metadata from raw bytes.
	// Returns domain.ErrInvalidInput when the bytes cannot be decoded.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error)
}

// DocumentLoader selects a normaliser by type and cleans the result.
type DocumentLoader interface {
	// Load decodes data of the given type.
	// Returns domain.ErrUnsupportedType for unknown types.
	Load(ctx context.Context, data []byte, fileType domain.FileType) (*domain.LoadedDocument, error)

	// Preprocess normalises whitespace and strips non-essential characters.
	Preprocess(text string) string

	// SupportedTypes returns the registered file types.
	SupportedTypes() []domain.FileType
}
