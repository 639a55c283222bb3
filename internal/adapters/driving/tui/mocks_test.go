package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

type mockAnswerService struct {
	mu        sync.Mutex
	questions []string
	corpus    domain.Corpus
}

func (m *mockAnswerService) Answer(_ context.Context, question string, corpus domain.Corpus) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions = append(m.questions, question)
	m.corpus = corpus
	return "answer to " + question
}

func (m *mockAnswerService) AnswerBatch(ctx context.Context, questions []string, corpus domain.Corpus) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = m.Answer(ctx, q, corpus)
	}
	return out
}

func (m *mockAnswerService) RunIngested(ctx context.Context, _ *domain.RawDocument, questions []string) ([]string, error) {
	return m.AnswerBatch(ctx, questions, domain.Corpus{}), nil
}

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
	return nil, domain.ErrNotFound
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
