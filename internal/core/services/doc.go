// Package services holds the retrieval-and-answering pipeline: entity
// extraction, search with reranking, the answer cascade, the document
// analyzer, decisions and document ingestion.
//
// Services depend only on ports. Every optional backend (LLM, vector index)
// may be absent, and the services degrade instead of failing.
package services
