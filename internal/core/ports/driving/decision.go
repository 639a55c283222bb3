package driving

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// DecisionService turns a coverage query into a structured decision.
type DecisionService interface {
	// Decide extracts entities, retrieves clauses and asks the model for a decision.
	// Model absence or failure yields a needs_review response.
	Decide(ctx context.Context, query string) domain.DecisionResponse

	// Explain renders a decision as human-readable text.
	Explain(decision domain.DecisionResponse) string
}
