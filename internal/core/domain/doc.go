// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentChunk: A bounded span of document text, the unit of retrieval
//   - SearchResult: A chunk paired with a similarity score
//   - EntityExtraction: Structured fields parsed from a free-text query
//   - DocumentAnalysis: Type, topics and structure of a whole document
//   - DecisionResponse: A structured coverage decision
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
