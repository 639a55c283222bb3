package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// mockLLM is a configurable LLMService.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	generate func(prompt string) (string, error)
	prompts  []string
	opts     []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	fn := m.generate
	m.mu.Unlock()
	if fn != nil {
		return fn(prompt)
	}
	return m.response, m.err
}

func (m *mockLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return m.response, m.err
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockPrompts serves short templates with the same placeholders as the real ones.
type mockPrompts struct {
	err error
}

var testTemplates = map[string]string{
	driven.PromptAnswer:           "CONTEXT:\n%s\nQUESTION: %s",
	driven.PromptEntityExtraction: "EXTRACT: %s",
	driven.PromptDecision:         "QUERY: %s\nENTITIES:\n%s\nCONTEXT:\n%s",
}

func (m *mockPrompts) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	t, ok := testTemplates[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t, nil
}

func (m *mockPrompts) Reload() {}

// mockIndex is an in-memory VectorIndex and ChunkLister.
// Query scores chunks by the share of query keywords they contain.
type mockIndex struct {
	mu          sync.Mutex
	chunks      map[string]domain.DocumentChunk
	query       func(text string, k int, filter domain.VectorFilter) []domain.SearchResult
	queries     []string
	storeFails  bool
	storePartly bool // writes the chunks, then reports failure
	deleteFails bool
	listErr     error
	deleted     []string
	status      domain.IndexStatus
}

func newMockIndex(chunks ...domain.DocumentChunk) *mockIndex {
	m := &mockIndex{chunks: map[string]domain.DocumentChunk{}, status: domain.IndexStatusConnected}
	for _, c := range chunks {
		m.chunks[c.ChunkID] = c
	}
	return m
}

func (m *mockIndex) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (m *mockIndex) Store(_ context.Context, chunks []domain.DocumentChunk) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeFails {
		return false
	}
	for _, c := range chunks {
		m.chunks[c.ChunkID] = c
	}
	return !m.storePartly
}

func (m *mockIndex) Query(_ context.Context, text string, k int, filter domain.VectorFilter) []domain.SearchResult {
	m.mu.Lock()
	m.queries = append(m.queries, text)
	fn := m.query
	m.mu.Unlock()
	if fn != nil {
		return fn(text, k, filter)
	}

	words := keywords(text)
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []domain.SearchResult
	for _, c := range m.sortedChunks() {
		if !filter.Matches(&c) || len(words) == 0 {
			continue
		}
		lower := strings.ToLower(c.Text)
		hits := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		if hits > 0 {
			results = append(results, domain.SearchResult{Chunk: c, Score: float64(hits) / float64(len(words))})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (m *mockIndex) Delete(_ context.Context, documentName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, documentName)
	if m.deleteFails {
		return false
	}
	for id, c := range m.chunks {
		if c.DocumentName == documentName {
			delete(m.chunks, id)
		}
	}
	return true
}

func (m *mockIndex) Stats(context.Context) domain.IndexStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.IndexStats{TotalVectorCount: len(m.chunks), Dimension: 384, Status: m.status}
}

func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) ListChunks(_ context.Context, documentName string) ([]domain.DocumentChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.DocumentChunk
	for _, c := range m.sortedChunks() {
		if c.DocumentName == documentName {
			out = append(out, c)
		}
	}
	return out, nil
}

// sortedChunks returns chunks ordered by document then index. Callers hold mu.
func (m *mockIndex) sortedChunks() []domain.DocumentChunk {
	out := make([]domain.DocumentChunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentName != out[j].DocumentName {
			return out[i].DocumentName < out[j].DocumentName
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func (m *mockIndex) documentNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var names []string
	for _, c := range m.sortedChunks() {
		if _, ok := seen[c.DocumentName]; !ok {
			seen[c.DocumentName] = struct{}{}
			names = append(names, c.DocumentName)
		}
	}
	return names
}

// noListIndex hides ListChunks from a mockIndex.
type noListIndex struct {
	driven.VectorIndex
}

func chunk(doc string, index int, text string) domain.DocumentChunk {
	return domain.DocumentChunk{
		ChunkID:      fmt.Sprintf("%s_%d", doc, index),
		DocumentName: doc,
		Text:         text,
		Index:        index,
	}
}

// mockDownloader serves fixed bytes.
type mockDownloader struct {
	data []byte
	ext  string
	err  error
	urls []string
}

func (m *mockDownloader) Download(_ context.Context, url string) ([]byte, string, error) {
	m.urls = append(m.urls, url)
	return m.data, m.ext, m.err
}
