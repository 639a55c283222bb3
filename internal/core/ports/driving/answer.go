package driving

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// AnswerService produces answers to questions about a corpus.
// It never returns an error: every failure degrades to a lower answer tier.
type AnswerService interface {
	// Answer returns a non-empty answer to a single question.
	Answer(ctx context.Context, question string, corpus domain.Corpus) string

	// AnswerBatch returns exactly one non-empty answer per question, in input order.
	AnswerBatch(ctx context.Context, questions []string, corpus domain.Corpus) []string

	// RunIngested indexes a document under a temporary name, answers the questions
	// against it and removes it again. It falls back to full-text answering when
	// the index cannot store the document.
	RunIngested(ctx context.Context, raw *domain.RawDocument, questions []string) ([]string, error)
}
