package driving

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// ExtractorService parses structured entities out of free-text queries.
type ExtractorService interface {
	// Extract returns the entities found in query. It never fails;
	// a failed model pass leaves the rule-based result unchanged.
	Extract(ctx context.Context, query string) domain.EntityExtraction

	// GenerateSearchQueries expands a query into deduplicated entity-focused variants.
	// The original query is always first.
	GenerateSearchQueries(query string, entities domain.EntityExtraction) []string

	// EnhanceQuery appends known entities to the query as search terms.
	EnhanceQuery(query string, entities domain.EntityExtraction) string
}
