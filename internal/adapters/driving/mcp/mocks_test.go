package mcp

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// mockAnswerService echoes questions back as answers.
type mockAnswerService struct {
	corpus    domain.Corpus
	questions []string
}

func (m *mockAnswerService) Answer(_ context.Context, question string, corpus domain.Corpus) string {
	m.corpus = corpus
	return "answer: " + question
}

func (m *mockAnswerService) AnswerBatch(_ context.Context, questions []string, corpus domain.Corpus) []string {
	m.corpus = corpus
	m.questions = questions
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = "answer: " + q
	}
	return out
}

func (m *mockAnswerService) RunIngested(context.Context, *domain.RawDocument, []string) ([]string, error) {
	return nil, nil
}

// mockSearchService returns fixed results and records how it was called.
type mockSearchService struct {
	results  []domain.SearchResult
	k        int
	filter   domain.VectorFilter
	reranked bool
}

func (m *mockSearchService) Search(_ context.Context, _ string, k int, filter domain.VectorFilter) []domain.SearchResult {
	m.k, m.filter = k, filter
	return m.results
}

func (m *mockSearchService) SearchWithReranking(
	_ context.Context, _ string, k int, filter domain.VectorFilter,
) []domain.SearchResult {
	m.k, m.filter, m.reranked = k, filter, true
	return m.results
}

func (m *mockSearchService) SearchByDocument(_ context.Context, _, documentName string, k int) []domain.SearchResult {
	m.k, m.filter = k, domain.VectorFilter{DocumentName: documentName}
	return m.results
}

func (m *mockSearchService) ContextChunks(context.Context, domain.DocumentChunk, int) []domain.DocumentChunk {
	return nil
}

// mockExtractorService returns fixed entities.
type mockExtractorService struct {
	entities domain.EntityExtraction
	query    string
}

func (m *mockExtractorService) Extract(_ context.Context, query string) domain.EntityExtraction {
	m.query = query
	return m.entities
}

func (m *mockExtractorService) GenerateSearchQueries(query string, _ domain.EntityExtraction) []string {
	return []string{query}
}

func (m *mockExtractorService) EnhanceQuery(query string, _ domain.EntityExtraction) string {
	return query
}

// mockDocumentService reports fixed stats.
type mockDocumentService struct {
	stats domain.IndexStats
}

func (m *mockDocumentService) Ingest(context.Context, *domain.RawDocument) (int, error) {
	return 0, nil
}

func (m *mockDocumentService) IngestURL(context.Context, string, string) (int, error) {
	return 0, nil
}

func (m *mockDocumentService) Fetch(context.Context, string) (*domain.RawDocument, error) {
	return nil, domain.ErrDownloadFailed
}

func (m *mockDocumentService) LoadText(context.Context, *domain.RawDocument) (*domain.LoadedDocument, error) {
	return &domain.LoadedDocument{}, nil
}

func (m *mockDocumentService) Delete(context.Context, string) error {
	return nil
}

func (m *mockDocumentService) Stats(context.Context) domain.IndexStats {
	return m.stats
}

// mockDecisionService returns a fixed decision.
type mockDecisionService struct {
	response domain.DecisionResponse
}

func (m *mockDecisionService) Decide(context.Context, string) domain.DecisionResponse {
	return m.response
}

func (m *mockDecisionService) Explain(d domain.DecisionResponse) string {
	return d.Decision.Label()
}

func fullPorts() *Ports {
	return &Ports{
		Answer:    &mockAnswerService{},
		Search:    &mockSearchService{},
		Extractor: &mockExtractorService{},
		Document:  &mockDocumentService{},
		Decision:  &mockDecisionService{},
	}
}
