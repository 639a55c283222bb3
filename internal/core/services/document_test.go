package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/normalisers"
	"github.com/custodia-labs/docqa-cli/internal/postprocessors/chunker"
)

const notesText = "Grace period is thirty days from the due date.\n\nPre-existing diseases are covered after thirty six months."

func newTestDocuments(index *mockIndex, dl *mockDownloader, maxSize int64) *DocumentService {
	var vi driven.VectorIndex
	if index != nil {
		vi = index
	}
	var downloader driven.Downloader
	if dl != nil {
		downloader = dl
	}
	return NewDocumentService(vi, normalisers.Default(), chunker.New(), downloader, domain.DocumentSettings{MaxFileSize: maxSize})
}

func textDoc(name, text string) *domain.RawDocument {
	return &domain.RawDocument{Name: name, Type: domain.FileTypeText, Content: []byte(text)}
}

func TestDocumentService_Ingest(t *testing.T) {
	index := newMockIndex()
	svc := newTestDocuments(index, nil, 0)

	count, err := svc.Ingest(context.Background(), textDoc("notes.txt", notesText))
	require.NoError(t, err)
	assert.Positive(t, count)

	chunks, err := index.ListChunks(context.Background(), "notes.txt")
	require.NoError(t, err)
	assert.Len(t, chunks, count)
	assert.Contains(t, chunks[0].Text, "Grace period is thirty days")
	assert.Equal(t, "text", chunks[0].Metadata[domain.MetadataFileType])
}

func TestDocumentService_Ingest_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("too large", func(t *testing.T) {
		svc := newTestDocuments(newMockIndex(), nil, 10)
		_, err := svc.Ingest(ctx, textDoc("big.txt", notesText))
		assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	})

	t.Run("unsupported type", func(t *testing.T) {
		svc := newTestDocuments(newMockIndex(), nil, 0)
		_, err := svc.Ingest(ctx, &domain.RawDocument{Name: "a.xls", Type: "xls", Content: []byte("x")})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("missing name", func(t *testing.T) {
		svc := newTestDocuments(newMockIndex(), nil, 0)
		_, err := svc.Ingest(ctx, textDoc(" ", notesText))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no text", func(t *testing.T) {
		svc := newTestDocuments(newMockIndex(), nil, 0)
		_, err := svc.Ingest(ctx, textDoc("empty.txt", "   "))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("store fails", func(t *testing.T) {
		index := newMockIndex()
		index.storeFails = true
		_, err := newTestDocuments(index, nil, 0).Ingest(ctx, textDoc("notes.txt", notesText))
		assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
	})

	t.Run("no index", func(t *testing.T) {
		_, err := newTestDocuments(nil, nil, 0).Ingest(ctx, textDoc("notes.txt", notesText))
		assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
	})
}

func TestDocumentService_IngestURL(t *testing.T) {
	ctx := context.Background()

	t.Run("name from url", func(t *testing.T) {
		index := newMockIndex()
		dl := &mockDownloader{data: []byte(notesText), ext: ".txt"}
		_, err := newTestDocuments(index, dl, 0).IngestURL(ctx, "https://x.test/files/notes.txt?sig=1", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"notes.txt"}, index.documentNames())
		assert.Equal(t, []string{"https://x.test/files/notes.txt?sig=1"}, dl.urls)
	})

	t.Run("explicit name", func(t *testing.T) {
		index := newMockIndex()
		dl := &mockDownloader{data: []byte(notesText), ext: ".txt"}
		_, err := newTestDocuments(index, dl, 0).IngestURL(ctx, "https://x.test/notes.txt", "policy-2024")
		require.NoError(t, err)
		assert.Equal(t, []string{"policy-2024"}, index.documentNames())
	})

	t.Run("download fails", func(t *testing.T) {
		dl := &mockDownloader{err: domain.ErrDownloadFailed}
		_, err := newTestDocuments(newMockIndex(), dl, 0).IngestURL(ctx, "https://x.test/a.pdf", "")
		assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	})

	t.Run("no downloader", func(t *testing.T) {
		_, err := newTestDocuments(newMockIndex(), nil, 0).IngestURL(ctx, "https://x.test/a.pdf", "")
		assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	})
}

func TestDocumentService_Fetch_TypesByExtension(t *testing.T) {
	dl := &mockDownloader{data: []byte("x"), ext: ".eml"}
	raw, err := newTestDocuments(newMockIndex(), dl, 0).Fetch(context.Background(), "https://x.test/mail.eml")
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeEmail, raw.Type)
	assert.Equal(t, "mail.eml", raw.Name)
}

func TestDocumentService_LoadText(t *testing.T) {
	svc := newTestDocuments(nil, nil, 0)
	loaded, err := svc.LoadText(context.Background(), textDoc("a.txt", "Room   rent\n\nis capped @ 1%."))
	require.NoError(t, err)
	assert.Equal(t, "Room rent is capped   1 .", loaded.Text)
}

func TestDocumentService_LoadText_Rejections(t *testing.T) {
	ctx := context.Background()

	_, err := newTestDocuments(nil, nil, 10).LoadText(ctx, textDoc("big.txt", notesText))
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, err = newTestDocuments(nil, nil, 0).LoadText(ctx, &domain.RawDocument{Name: "a.xls", Type: "xls", Content: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	index := newMockIndex(chunk("a.pdf", 0, "x"), chunk("b.pdf", 0, "y"))
	svc := newTestDocuments(index, nil, 0)

	require.NoError(t, svc.Delete(ctx, "a.pdf"))
	assert.Equal(t, []string{"b.pdf"}, index.documentNames())

	assert.ErrorIs(t, svc.Delete(ctx, ""), domain.ErrInvalidInput)

	index.deleteFails = true
	assert.ErrorIs(t, svc.Delete(ctx, "b.pdf"), domain.ErrVectorIndexUnavailable)
}

func TestDocumentService_Stats(t *testing.T) {
	index := newMockIndex(chunk("a.pdf", 0, "x"))
	stats := newTestDocuments(index, nil, 0).Stats(context.Background())
	assert.Equal(t, 1, stats.TotalVectorCount)
	assert.Equal(t, domain.IndexStatusConnected, stats.Status)

	assert.Equal(t, domain.IndexStatusNotConfigured, newTestDocuments(nil, nil, 0).Stats(context.Background()).Status)
}
