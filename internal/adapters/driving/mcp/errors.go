// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants ask questions about indexed documents and search them.
package mcp

import "errors"

var (
	// ErrMissingAnswerService is returned when the answer service is not provided.
	ErrMissingAnswerService = errors.New("mcp: answer service is required")

	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrNoQuestions is returned when the ask tool is called without questions.
	ErrNoQuestions = errors.New("mcp: at least one question is required")

	// ErrToolUnavailable is returned when a tool's backing service is not configured.
	ErrToolUnavailable = errors.New("mcp: tool is not available")
)
