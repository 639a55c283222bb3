// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Chunker: Splits document text into bounded chunks
//   - DocumentLoader: Decodes pdf/docx/email/text bytes into plain text
//   - Normaliser: Decodes a single file type
//   - ConfigStore: Application configuration
//   - PromptStore: LLM prompt templates
//
// # Optional Interfaces
//
// These can be nil or degraded - the application falls back gracefully:
//
//   - VectorIndex: Embedding storage and similarity search. When degraded,
//     answering runs against the full document text.
//   - EmbeddingService: Generates vector embeddings. Defaults to a hash embedder.
//   - LLMService: Language model operations. Without it, answers come from the
//     keyword, rule-based, analyzer and generic tiers.
//   - Downloader: Fetches documents by URL.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
