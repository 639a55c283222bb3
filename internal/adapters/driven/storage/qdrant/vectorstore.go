// Package qdrant provides a vector store backed by a Qdrant collection over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// Ensure VectorStore implements the interfaces.
var (
	_ driven.VectorStore = (*VectorStore)(nil)
	_ driven.ChunkLister = (*VectorStore)(nil)
)

// Default configuration values.
const (
	DefaultTimeout = 15 * time.Second

	// MaxPayloadTextLength bounds the chunk text kept in a point payload.
	MaxPayloadTextLength = 1000
)

// Payload keys.
const (
	keyChunkID      = "chunk_id"
	keyDocumentName = "document_name"
	keyChunkText    = "chunk_text"
	keyChunkIndex   = "chunk_index"
	keyPageNumber   = "page_number"
	keyMetadata     = "metadata"
)

// errNotFound is returned for 404 responses.
var errNotFound = errors.New("qdrant: not found")

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant REST endpoint, e.g. http://localhost:6333.
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection name.
	Collection string

	// Dimension is the vector size used when creating the collection.
	Dimension int

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// VectorStore is a REST client for one Qdrant collection.
// Point IDs are UUIDv5 of the chunk ID, so re-storing a chunk overwrites it.
type VectorStore struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
	dimension  int
}

// NewVectorStore creates a Qdrant store. Ping must be called before use.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: URL is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("qdrant: invalid dimension %d", cfg.Dimension)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &VectorStore{
		client:     &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}, nil
}

// PointID returns the Qdrant point ID for a chunk ID.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// Ping checks the collection exists and creates it with cosine distance if not.
func (s *VectorStore) Ping(ctx context.Context) error {
	err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNotFound) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes points and waits for them to be indexed.
func (s *VectorStore) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{
			ID:      PointID(r.Chunk.ChunkID),
			Vector:  r.Vector,
			Payload: toPayload(r.Chunk),
		}
	}
	return s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Search returns the k nearest points matching filter. Negative scores are clipped to 0.
func (s *VectorStore) Search(
	ctx context.Context, vector []float32, k int, filter domain.VectorFilter,
) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if f := toFilter(filter); f != nil {
		req["filter"] = f
	}

	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, p := range resp.Result {
		score := p.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		results = append(results, domain.SearchResult{Chunk: fromPayload(p.Payload), Score: score})
	}
	return results, nil
}

type scrollResponse struct {
	Result struct {
		Points         []scoredPoint `json:"points"`
		NextPageOffset any           `json:"next_page_offset"`
	} `json:"result"`
}

func (s *VectorStore) scroll(
	ctx context.Context, documentName string, limit int, offset any, withPayload bool,
) (*scrollResponse, error) {
	req := map[string]any{
		"filter":       toFilter(domain.VectorFilter{DocumentName: documentName}),
		"limit":        limit,
		"with_payload": withPayload,
		"with_vector":  false,
	}
	if offset != nil {
		req["offset"] = offset
	}

	var resp scrollResponse
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/scroll"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeletePage enumerates up to limit points of documentName and deletes them by ID.
func (s *VectorStore) DeletePage(ctx context.Context, documentName string, limit int) (int, error) {
	resp, err := s.scroll(ctx, documentName, limit, nil, false)
	if err != nil {
		return 0, fmt.Errorf("enumerating points: %w", err)
	}
	if len(resp.Result.Points) == 0 {
		return 0, nil
	}

	ids := make([]any, len(resp.Result.Points))
	for i, p := range resp.Result.Points {
		ids[i] = p.ID
	}

	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"),
		map[string]any{"points": ids}, nil); err != nil {
		return 0, fmt.Errorf("deleting points: %w", err)
	}
	return len(ids), nil
}

// Count returns the exact number of points in the collection.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// ListChunks scrolls through the points of documentName and orders them by index.
func (s *VectorStore) ListChunks(ctx context.Context, documentName string) ([]domain.DocumentChunk, error) {
	const pageSize = 256

	var chunks []domain.DocumentChunk
	var offset any
	for {
		resp, err := s.scroll(ctx, documentName, pageSize, offset, true)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			chunks = append(chunks, fromPayload(p.Payload))
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}

func (s *VectorStore) collectionPath(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *VectorStore) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s failed (status %d): %s", method, url, resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func toFilter(f domain.VectorFilter) map[string]any {
	if f.IsEmpty() {
		return nil
	}

	var must []map[string]any
	if f.DocumentName != "" {
		must = append(must, map[string]any{
			"key":   keyDocumentName,
			"match": map[string]any{"value": f.DocumentName},
		})
	}
	if f.PageNumber != nil {
		must = append(must, map[string]any{
			"key":   keyPageNumber,
			"match": map[string]any{"value": *f.PageNumber},
		})
	}
	return map[string]any{"must": must}
}

func toPayload(c domain.DocumentChunk) map[string]any {
	text := []rune(c.Text)
	if len(text) > MaxPayloadTextLength {
		text = text[:MaxPayloadTextLength]
	}

	payload := map[string]any{
		keyChunkID:      c.ChunkID,
		keyDocumentName: c.DocumentName,
		keyChunkText:    string(text),
		keyChunkIndex:   c.Index,
		keyMetadata:     c.Metadata,
	}
	if c.PageNumber != nil {
		payload[keyPageNumber] = *c.PageNumber
	}
	return payload
}

func fromPayload(p map[string]any) domain.DocumentChunk {
	var c domain.DocumentChunk
	if v, ok := p[keyChunkID].(string); ok {
		c.ChunkID = v
	}
	if v, ok := p[keyDocumentName].(string); ok {
		c.DocumentName = v
	}
	if v, ok := p[keyChunkText].(string); ok {
		c.Text = v
	}
	if v, ok := p[keyChunkIndex].(float64); ok {
		c.Index = int(v)
	}
	if v, ok := p[keyPageNumber].(float64); ok {
		c.PageNumber = domain.Ptr(int(v))
	}
	if v, ok := p[keyMetadata].(map[string]any); ok {
		c.Metadata = v
	}
	return c
}
