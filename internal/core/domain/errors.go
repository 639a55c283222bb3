package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates an upload exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrDownloadFailed indicates a document could not be fetched.
	ErrDownloadFailed = errors.New("download failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answering degrades to keyword, rule-based and generic tiers.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured or unreachable.
	// Callers fall back to full-text processing.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrUnparsableResponse indicates a model returned output that did not fit the expected schema.
	ErrUnparsableResponse = errors.New("unparsable model response")

	// ErrNoAnswer indicates an answer strategy produced nothing usable.
	ErrNoAnswer = errors.New("no answer")

	// Authentication Errors.

	// ErrAuthRequired indicates a request carried no bearer credential.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the bearer credential is invalid or expired.
	ErrAuthInvalid = errors.New("authentication invalid")
)
