package driving

import "github.com/custodia-labs/docqa-cli/internal/core/domain"

// AnalyzerService classifies documents and answers questions about their nature.
type AnalyzerService interface {
	// Analyze describes the type, topics, sections and structure of text.
	Analyze(text string) domain.DocumentAnalysis

	// Answer responds to a question using the document analysis.
	// A nil analysis is computed from text.
	Answer(question, text string, analysis *domain.DocumentAnalysis) string

	// ClassifyQuestion returns the question type.
	ClassifyQuestion(question string) domain.QuestionType
}
