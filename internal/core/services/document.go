package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService loads, chunks and indexes documents.
type DocumentService struct {
	index       driven.VectorIndex
	loader      driven.DocumentLoader
	chunker     driven.Chunker
	downloader  driven.Downloader
	maxFileSize int64
}

// NewDocumentService creates a new document service.
// The index and downloader parameters are optional (can be nil).
func NewDocumentService(
	index driven.VectorIndex,
	loader driven.DocumentLoader,
	chunker driven.Chunker,
	downloader driven.Downloader,
	settings domain.DocumentSettings,
) *DocumentService {
	return &DocumentService{
		index:       index,
		loader:      loader,
		chunker:     chunker,
		downloader:  downloader,
		maxFileSize: settings.MaxFileSize,
	}
}

// Ingest decodes, chunks and stores raw. It returns the number of chunks stored.
func (s *DocumentService) Ingest(ctx context.Context, raw *domain.RawDocument) (int, error) {
	if raw == nil || strings.TrimSpace(raw.Name) == "" {
		return 0, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}

	logger.Section("Ingest")
	loaded, err := s.LoadText(ctx, raw)
	if err != nil {
		return 0, err
	}

	chunks := s.chunker.Chunk(loaded.Text, raw.Name, loaded.Metadata)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no text could be extracted from %s", domain.ErrInvalidInput, raw.Name)
	}
	logger.Debug("Chunked %s into %d chunks", raw.Name, len(chunks))

	if s.index == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}
	if !s.index.Store(ctx, chunks) {
		return 0, fmt.Errorf("%w: failed to store %s", domain.ErrVectorIndexUnavailable, raw.Name)
	}

	logger.Info("Indexed %s: %d chunks", raw.Name, len(chunks))
	return len(chunks), nil
}

// IngestURL downloads and ingests a document. An empty name uses the URL's base name.
func (s *DocumentService) IngestURL(ctx context.Context, url, name string) (int, error) {
	raw, err := s.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	if name != "" {
		raw.Name = name
	}
	return s.Ingest(ctx, raw)
}

// Fetch downloads url and types it by its extension.
func (s *DocumentService) Fetch(ctx context.Context, url string) (*domain.RawDocument, error) {
	if s.downloader == nil {
		return nil, fmt.Errorf("%w: no downloader configured", domain.ErrDownloadFailed)
	}

	data, ext, err := s.downloader.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	logger.Debug("Downloaded %s: %d bytes, extension %s", url, len(data), ext)

	return &domain.RawDocument{
		Name:    domain.DocumentNameFromURL(url),
		Type:    domain.ExtensionToType(ext),
		Content: data,
	}, nil
}

// LoadText validates, decodes and preprocesses raw without indexing it.
func (s *DocumentService) LoadText(ctx context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error) {
	if err := raw.Validate(s.maxFileSize); err != nil {
		return nil, err
	}

	loaded, err := s.loader.Load(ctx, raw.Content, raw.Type)
	if err != nil {
		return nil, err
	}
	loaded.Text = s.loader.Preprocess(loaded.Text)
	return loaded, nil
}

// Delete removes all chunks of documentName from the index.
func (s *DocumentService) Delete(ctx context.Context, documentName string) error {
	if strings.TrimSpace(documentName) == "" {
		return fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if !s.index.Delete(ctx, documentName) {
		return fmt.Errorf("%w: failed to delete %s", domain.ErrVectorIndexUnavailable, documentName)
	}
	logger.Info("Deleted %s", documentName)
	return nil
}

// Stats reports the index contents and status.
func (s *DocumentService) Stats(ctx context.Context) domain.IndexStats {
	if s.index == nil {
		return domain.IndexStats{Status: domain.IndexStatusNotConfigured}
	}
	return s.index.Stats(ctx)
}
