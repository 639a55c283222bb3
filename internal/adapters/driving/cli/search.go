package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

const snippetLength = 200

var (
	searchLimit    int
	searchDocument string
	searchRerank   bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs semantic search across indexed document chunks.

The query is expanded with the age, procedure, location and policy duration
found in it; results from every variant are merged by chunk. With --rerank,
chunks that mention those entities are boosted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchDocument, "document", "d", "", "restrict results to one indexed document")
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", false, "boost results that mention query entities")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchResultJSON struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentName string  `json:"document_name"`
	ChunkIndex   int     `json:"chunk_index"`
	PageNumber   *int    `json:"page_number,omitempty"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errNotConfigured("search")
	}
	if searchLimit < 1 {
		return fmt.Errorf("%w: --limit must be at least 1", domain.ErrInvalidInput)
	}

	ctx := commandContext(cmd)
	filter := domain.VectorFilter{DocumentName: searchDocument}

	var results []domain.SearchResult
	if searchRerank {
		results = searchService.SearchWithReranking(ctx, query, searchLimit, filter)
	} else {
		results = searchService.Search(ctx, query, searchLimit, filter)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			ChunkID:      r.Chunk.ChunkID,
			DocumentName: r.Chunk.DocumentName,
			ChunkIndex:   r.Chunk.Index,
			PageNumber:   r.Chunk.PageNumber,
			Text:         r.Chunk.Text,
			Score:        r.Score,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		location := r.Chunk.DocumentName
		if r.Chunk.PageNumber != nil {
			location = fmt.Sprintf("%s, page %d", location, *r.Chunk.PageNumber)
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, location, r.Score)
		if snippet := snippet(r.Chunk.Text); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}

// snippet collapses whitespace and truncates text for one-line display.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
