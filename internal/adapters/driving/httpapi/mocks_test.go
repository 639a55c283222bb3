package httpapi

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

type mockAnswerService struct {
	raw       *domain.RawDocument
	questions []string
	err       error
}

func (m *mockAnswerService) Answer(_ context.Context, question string, _ domain.Corpus) string {
	return "answer: " + question
}

func (m *mockAnswerService) AnswerBatch(_ context.Context, questions []string, _ domain.Corpus) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = "answer: " + q
	}
	return out
}

func (m *mockAnswerService) RunIngested(_ context.Context, raw *domain.RawDocument, questions []string) ([]string, error) {
	m.raw, m.questions = raw, questions
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = "answer: " + q
	}
	return out, nil
}

type mockSearchService struct {
	results []domain.SearchResult
	k       int
	filter  domain.VectorFilter
}

func (m *mockSearchService) Search(_ context.Context, _ string, k int, f domain.VectorFilter) []domain.SearchResult {
	m.k, m.filter = k, f
	return m.results
}

func (m *mockSearchService) SearchWithReranking(_ context.Context, _ string, k int, f domain.VectorFilter) []domain.SearchResult {
	m.k, m.filter = k, f
	return m.results
}

func (m *mockSearchService) SearchByDocument(_ context.Context, _, _ string, _ int) []domain.SearchResult {
	return m.results
}

func (m *mockSearchService) ContextChunks(context.Context, domain.DocumentChunk, int) []domain.DocumentChunk {
	return nil
}

type mockDocumentService struct {
	ingested  *domain.RawDocument
	fetched   string
	deleted   string
	fetchErr  error
	ingestErr error
	deleteErr error
	stats     domain.IndexStats
}

func (m *mockDocumentService) Ingest(_ context.Context, raw *domain.RawDocument) (int, error) {
	m.ingested = raw
	if m.ingestErr != nil {
		return 0, m.ingestErr
	}
	return 4, nil
}

func (m *mockDocumentService) IngestURL(context.Context, string, string) (int, error) { return 0, nil }

func (m *mockDocumentService) Fetch(_ context.Context, url string) (*domain.RawDocument, error) {
	m.fetched = url
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return &domain.RawDocument{Name: "policy.pdf", Type: domain.FileTypePDF, Content: []byte("%PDF")}, nil
}

func (m *mockDocumentService) LoadText(context.Context, *domain.RawDocument) (*domain.LoadedDocument, error) {
	return &domain.LoadedDocument{}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, name string) error {
	m.deleted = name
	return m.deleteErr
}

func (m *mockDocumentService) Stats(context.Context) domain.IndexStats { return m.stats }

type mockDecisionService struct {
	response domain.DecisionResponse
	query    string
}

func (m *mockDecisionService) Decide(_ context.Context, query string) domain.DecisionResponse {
	m.query = query
	return m.response
}

func (m *mockDecisionService) Explain(d domain.DecisionResponse) string {
	return "\n" + d.Decision.Label()
}
