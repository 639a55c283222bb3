package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

const defaultTopK = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Questions    []string `json:"questions" jsonschema:"the questions to answer"`
	DocumentName string   `json:"document_name,omitempty" jsonschema:"name of an indexed document to answer from"`
	Text         string   `json:"text,omitempty" jsonschema:"raw document text to answer from when no document is indexed"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answers []string `json:"answers"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema:"the search query"`
	TopK         int    `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	DocumentName string `json:"document_name,omitempty" jsonschema:"restrict results to this document"`
	Rerank       bool   `json:"rerank,omitempty" jsonschema:"boost results that mention entities from the query"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentName string  `json:"document_name"`
	PageNumber   *int    `json:"page_number,omitempty"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
}

// ExtractInput is the input schema for the extract_entities tool.
type ExtractInput struct {
	Query string `json:"query" jsonschema:"free-text query such as 46M, knee surgery, Pune, 3-month policy"`
}

// EntitiesOutput is the output schema for the extract_entities tool.
type EntitiesOutput struct {
	Age            *int     `json:"age,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	Procedure      *string  `json:"procedure,omitempty"`
	Location       *string  `json:"location,omitempty"`
	PolicyDuration *string  `json:"policy_duration,omitempty"`
	PolicyType     *string  `json:"policy_type,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	Date           *string  `json:"date,omitempty"`
}

// IndexStatsInput is the (empty) input schema for the index_stats tool.
type IndexStatsInput struct{}

// IndexStatsOutput is the output schema for the index_stats tool.
type IndexStatsOutput struct {
	TotalVectorCount int     `json:"total_vector_count"`
	Dimension        int     `json:"dimension"`
	IndexFullness    float64 `json:"index_fullness"`
	Status           string  `json:"status"`
}

// DecideInput is the input schema for the decide tool.
type DecideInput struct {
	Query string `json:"query" jsonschema:"the coverage query to decide"`
}

// DecideOutput is the output schema for the decide tool.
type DecideOutput struct {
	Decision        string         `json:"decision"`
	Amount          *float64       `json:"amount,omitempty"`
	Justification   string         `json:"justification"`
	ConfidenceScore float64        `json:"confidence_score"`
	Documents       []string       `json:"documents"`
	Entities        EntitiesOutput `json:"entities"`
	Explanation     string         `json:"explanation"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer questions about an indexed document or raw document text",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed document chunks",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_entities",
		Description: "Extract age, gender, procedure, location, policy duration and amount from a query",
	}, s.handleExtract)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report vector index size and status",
	}, s.handleIndexStats)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "decide",
		Description: "Decide whether a coverage query is approved, rejected or needs review",
	}, s.handleDecide)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	questions := make([]string, 0, len(input.Questions))
	for _, q := range input.Questions {
		if strings.TrimSpace(q) != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, AskOutput{}, ErrNoQuestions
	}

	corpus := domain.Corpus{DocumentName: input.DocumentName, Text: input.Text}
	return nil, AskOutput{Answers: s.ports.Answer.AnswerBatch(ctx, questions, corpus)}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	k := input.TopK
	if k <= 0 {
		k = defaultTopK
	}

	filter := domain.VectorFilter{DocumentName: input.DocumentName}
	var results []domain.SearchResult
	if input.Rerank {
		results = s.ports.Search.SearchWithReranking(ctx, input.Query, k, filter)
	} else {
		results = s.ports.Search.Search(ctx, input.Query, k, filter)
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID:      r.Chunk.ChunkID,
			DocumentName: r.Chunk.DocumentName,
			PageNumber:   r.Chunk.PageNumber,
			Text:         r.Chunk.Text,
			Score:        r.Score,
		}
	}
	return nil, output, nil
}

func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, EntitiesOutput, error) {
	if s.ports.Extractor == nil {
		return nil, EntitiesOutput{}, ErrToolUnavailable
	}
	return nil, toEntitiesOutput(s.ports.Extractor.Extract(ctx, input.Query)), nil
}

func (s *Server) handleIndexStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatsInput,
) (*mcp.CallToolResult, IndexStatsOutput, error) {
	if s.ports.Document == nil {
		return nil, IndexStatsOutput{Status: string(domain.IndexStatusNotConfigured)}, nil
	}
	stats := s.ports.Document.Stats(ctx)
	return nil, IndexStatsOutput{
		TotalVectorCount: stats.TotalVectorCount,
		Dimension:        stats.Dimension,
		IndexFullness:    stats.IndexFullness,
		Status:           string(stats.Status),
	}, nil
}

func (s *Server) handleDecide(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DecideInput,
) (*mcp.CallToolResult, DecideOutput, error) {
	if s.ports.Decision == nil {
		return nil, DecideOutput{}, ErrToolUnavailable
	}

	resp := s.ports.Decision.Decide(ctx, input.Query)
	seen := make(map[string]struct{})
	docs := []string{}
	for _, c := range resp.ReferencedClauses {
		if _, ok := seen[c.DocumentName]; ok {
			continue
		}
		seen[c.DocumentName] = struct{}{}
		docs = append(docs, c.DocumentName)
	}

	return nil, DecideOutput{
		Decision:        string(resp.Decision),
		Amount:          resp.Amount,
		Justification:   resp.Justification,
		ConfidenceScore: resp.ConfidenceScore,
		Documents:       docs,
		Entities:        toEntitiesOutput(resp.ExtractedEntities),
		Explanation:     s.ports.Decision.Explain(resp),
	}, nil
}

func toEntitiesOutput(e domain.EntityExtraction) EntitiesOutput {
	return EntitiesOutput{
		Age:            e.Age,
		Gender:         string(e.Gender),
		Procedure:      e.Procedure,
		Location:       e.Location,
		PolicyDuration: e.PolicyDuration,
		PolicyType:     e.PolicyType,
		Amount:         e.Amount,
		Date:           e.Date,
	}
}
