package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
	"github.com/custodia-labs/docqa-cli/internal/metrics"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// maxExpansionQueries bounds the queries issued per search, the original included.
const maxExpansionQueries = 3

// Reranking boosts.
const (
	procedureBoost = 0.10
	locationBoost  = 0.05
	ageBoost       = 0.05
	durationBoost  = 0.05
	maxScore       = 1.0
)

var durationTerms = []string{"month", "year", "waiting", "period"}

// SearchService retrieves chunks with entity-driven query expansion and reranking.
type SearchService struct {
	index     driven.VectorIndex
	extractor driving.ExtractorService
}

// NewSearchService creates a new search service.
func NewSearchService(index driven.VectorIndex, extractor driving.ExtractorService) *SearchService {
	return &SearchService{
		index:     index,
		extractor: extractor,
	}
}

// Search fans out up to three expansion queries, merges by chunk ID
// (first occurrence wins) and returns the top k by score.
func (s *SearchService) Search(
	ctx context.Context, query string, k int, filter domain.VectorFilter,
) []domain.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return []domain.SearchResult{}
	}
	entities := s.extractor.Extract(ctx, query)
	return s.search(ctx, query, entities, k, filter)
}

// SearchWithReranking searches for 2k candidates and reorders them with entity boosts.
func (s *SearchService) SearchWithReranking(
	ctx context.Context, query string, k int, filter domain.VectorFilter,
) []domain.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return []domain.SearchResult{}
	}
	entities := s.extractor.Extract(ctx, query)
	candidates := s.search(ctx, query, entities, k*2, filter)
	return Rerank(candidates, entities, k)
}

// SearchByDocument reranks within a single document.
func (s *SearchService) SearchByDocument(ctx context.Context, query, documentName string, k int) []domain.SearchResult {
	return s.SearchWithReranking(ctx, query, k, domain.VectorFilter{DocumentName: documentName})
}

// ContextChunks returns the chunks of the same document whose index lies
// within window of chunk's, in index order. Indexes that cannot list chunks
// yield just chunk.
func (s *SearchService) ContextChunks(
	ctx context.Context, chunk domain.DocumentChunk, window int,
) []domain.DocumentChunk {
	lister, ok := s.index.(driven.ChunkLister)
	if !ok {
		return []domain.DocumentChunk{chunk}
	}

	all, err := lister.ListChunks(ctx, chunk.DocumentName)
	if err != nil {
		logger.Debug("List chunks of %s: %v", chunk.DocumentName, err)
		return []domain.DocumentChunk{chunk}
	}

	out := make([]domain.DocumentChunk, 0, 2*window+1)
	for _, c := range all {
		if c.Index >= chunk.Index-window && c.Index <= chunk.Index+window {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return []domain.DocumentChunk{chunk}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (s *SearchService) search(
	ctx context.Context, query string, entities domain.EntityExtraction, k int, filter domain.VectorFilter,
) []domain.SearchResult {
	logger.Section("Search Execution")
	start := time.Now()
	defer func() { metrics.ObserveSearch(time.Since(start)) }()

	queries := s.extractor.GenerateSearchQueries(query, entities)
	if len(queries) > maxExpansionQueries {
		queries = queries[:maxExpansionQueries]
	}
	logger.Debug("Query: %q, k: %d, expansions: %q", query, k, queries)

	perQuery := make([][]domain.SearchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			perQuery[i] = s.index.Query(gctx, q, k, filter)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	var merged []domain.SearchResult
	for _, results := range perQuery {
		for _, r := range results {
			if _, dup := seen[r.Chunk.ChunkID]; dup {
				continue
			}
			seen[r.Chunk.ChunkID] = struct{}{}
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > k {
		merged = merged[:k]
	}
	logger.Debug("Merged results: %d", len(merged))
	if merged == nil {
		return []domain.SearchResult{}
	}
	return merged
}

// Rerank adds entity boosts to a copy of results, caps scores at 1.0 and
// returns the top k, stable among equal scores.
func Rerank(results []domain.SearchResult, entities domain.EntityExtraction, k int) []domain.SearchResult {
	out := make([]domain.SearchResult, len(results))
	copy(out, results)

	for i := range out {
		boost := entityBoost(strings.ToLower(out[i].Chunk.Text), entities)
		if boost > 0 {
			out[i].Score = min(maxScore, out[i].Score+boost)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func entityBoost(text string, e domain.EntityExtraction) float64 {
	var boost float64
	if e.Procedure != nil && strings.Contains(text, strings.ToLower(*e.Procedure)) {
		boost += procedureBoost
	}
	if e.Location != nil && strings.Contains(text, strings.ToLower(*e.Location)) {
		boost += locationBoost
	}
	if e.Age != nil && containsAny(text, "age", "years", "old", strconv.Itoa(*e.Age)) {
		boost += ageBoost
	}
	if e.PolicyDuration != nil && containsAny(text, durationTerms...) {
		boost += durationBoost
	}
	return boost
}

func containsAny(text string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
