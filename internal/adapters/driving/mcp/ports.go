package mcp

import (
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions about documents.
	Answer driving.AnswerService

	// Search retrieves chunks.
	Search driving.SearchService

	// Extractor parses entities out of queries.
	Extractor driving.ExtractorService

	// Document reports index stats.
	Document driving.DocumentService

	// Decision produces coverage decisions.
	Decision driving.DecisionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Extractor, Document and Decision are optional; their tools report unavailability.
	return nil
}
