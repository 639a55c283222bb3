package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index/stats",
		Name:        "index-stats",
		Description: "Vector index size and status",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "entities/{query}",
		Name:        "query-entities",
		Description: "Entities extracted from a query",
		MIMEType:    "application/json",
	}, s.handleEntitiesResource)
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	_, stats, err := s.handleIndexStats(ctx, nil, IndexStatsInput{})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, stats)
}

func (s *Server) handleEntitiesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Extractor == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	query := extractQuery(req.Params.URI)
	if query == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResource(req.Params.URI, toEntitiesOutput(s.ports.Extractor.Extract(ctx, query)))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractQuery extracts the query from a URI like docqa://entities/{query}.
// Percent-encoded queries are decoded; undecodable ones are used as-is.
func extractQuery(uri string) string {
	const prefix = uriScheme + "entities/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	raw := strings.TrimPrefix(uri, prefix)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
