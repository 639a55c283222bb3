package domain

import "strings"

// AnswerTier names the cascade strategy that produced an answer.
type AnswerTier string

// Answer tiers, in cascade order.
const (
	AnswerTierLLM      AnswerTier = "llm"
	AnswerTierKeyword  AnswerTier = "keyword"
	AnswerTierRules    AnswerTier = "rules"
	AnswerTierAnalyzer AnswerTier = "analyzer"
	AnswerTierGeneric  AnswerTier = "generic"
)

// GenericAnswer is returned when no tier produced an answer.
const GenericAnswer = "The information is not available in the provided document."

// AnswerContext is the material a single question is answered from.
type AnswerContext struct {
	// Indexed is true when Results came from the vector index.
	Indexed bool
	// Results are the retrieved chunks, best first.
	Results []SearchResult
	// Text is the full document text in no-index mode.
	Text string
}

// Body returns the plain text of the context: the retrieved chunk texts in
// indexed mode, the full text otherwise.
func (c AnswerContext) Body() string {
	if !c.Indexed {
		return c.Text
	}
	parts := make([]string, 0, len(c.Results))
	for _, r := range c.Results {
		parts = append(parts, r.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}
