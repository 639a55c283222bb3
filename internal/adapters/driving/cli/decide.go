package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

var (
	decideJSON    bool
	decideExplain bool
)

var decideCmd = &cobra.Command{
	Use:   "decide [query]",
	Short: "Decide whether a claim is covered",
	Long: `Extracts the claimant's details from a free-text query, retrieves the most
relevant policy clauses from the index and decides whether the claim is
approved, rejected or needs review.

Without a configured LLM every decision is "needs review".

Example:
  docqa decide "46-year-old male, knee surgery in Pune, 3-month-old policy"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().BoolVar(&decideJSON, "json", false, "output the decision as JSON")
	decideCmd.Flags().BoolVar(&decideExplain, "explain", false, "print a plain-text explanation")
	rootCmd.AddCommand(decideCmd)
}

type clauseJSON struct {
	ClauseID        string  `json:"clause_id"`
	ClauseText      string  `json:"clause_text"`
	DocumentName    string  `json:"document_name"`
	PageNumber      *int    `json:"page_number"`
	ConfidenceScore float64 `json:"confidence_score"`
}

type decisionJSON struct {
	Decision          string       `json:"decision"`
	Amount            *float64     `json:"amount"`
	Justification     string       `json:"justification"`
	ReferencedClauses []clauseJSON `json:"referenced_clauses"`
	ConfidenceScore   float64      `json:"confidence_score"`
	ProcessingTimeMs  int64        `json:"processing_time_ms"`
	Explanation       string       `json:"explanation,omitempty"`
}

func runDecide(cmd *cobra.Command, args []string) error {
	if decisionService == nil {
		return errNotConfigured("decision")
	}
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	resp := decisionService.Decide(commandContext(cmd), query)

	if decideJSON {
		clauses := make([]clauseJSON, len(resp.ReferencedClauses))
		for i, c := range resp.ReferencedClauses {
			clauses[i] = clauseJSON(c)
		}
		out := decisionJSON{
			Decision:          string(resp.Decision),
			Amount:            resp.Amount,
			Justification:     resp.Justification,
			ReferencedClauses: clauses,
			ConfidenceScore:   resp.ConfidenceScore,
			ProcessingTimeMs:  resp.ProcessingTimeMs,
		}
		if decideExplain {
			out.Explanation = decisionService.Explain(resp)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal decision: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if decideExplain {
		cmd.Println(strings.TrimLeft(decisionService.Explain(resp), "\n"))
		return nil
	}

	cmd.Printf("Decision:   %s\n", resp.Decision.Label())
	if resp.Amount != nil {
		cmd.Printf("Amount:     %.2f\n", *resp.Amount)
	}
	cmd.Printf("Confidence: %.1f%%\n", resp.ConfidenceScore*100)
	cmd.Printf("Reason:     %s\n", resp.Justification)
	if len(resp.ReferencedClauses) > 0 {
		cmd.Println()
		cmd.Println("Referenced clauses:")
		for _, c := range resp.ReferencedClauses {
			page := ""
			if c.PageNumber != nil {
				page = fmt.Sprintf(", page %d", *c.PageNumber)
			}
			cmd.Printf("  [%s] %s%s (%.2f)\n", c.ClauseID, c.DocumentName, page, c.ConfidenceScore)
		}
	}
	return nil
}
