package driven

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// AnswerStrategy is one tier of the answer cascade.
// The orchestrator tries strategies in order and keeps the first answer.
type AnswerStrategy interface {
	// Tier identifies the strategy in logs and metrics.
	Tier() domain.AnswerTier
	// Answer returns a non-empty answer, or an error when this tier has nothing.
	// domain.ErrNoAnswer means the tier does not apply; any other error is a failure.
	Answer(ctx context.Context, question string, in domain.AnswerContext) (string, error)
}
