package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

const maxListed = 5

var (
	analyzeQuestion string
	analyzeJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Describe a document's type, topics and structure",
	Long: `Classifies a local document and lists its main topics, key sections and
structure. With --question, the question is classified and answered from the
analysis alone, without the index or an LLM.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuestion, "question", "q", "", "question to answer from the analysis")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the analysis as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

type analysisJSON struct {
	DocumentType string            `json:"document_type"`
	MainTopics   []string          `json:"main_topics"`
	KeySections  map[string]string `json:"key_sections"`
	Summary      string            `json:"summary"`
	KeyEntities  []string          `json:"key_entities"`
	Length       int               `json:"document_length"`
	Structure    map[string]int    `json:"structure"`
	Question     string            `json:"question,omitempty"`
	QuestionType string            `json:"question_type,omitempty"`
	Answer       string            `json:"answer,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzerService == nil {
		return errNotConfigured("analyzer")
	}
	corpus, err := fileCorpus(cmd, args[0])
	if err != nil {
		return err
	}

	analysis := analyzerService.Analyze(corpus.Text)
	var questionType domain.QuestionType
	var answer string
	if q := strings.TrimSpace(analyzeQuestion); q != "" {
		questionType = analyzerService.ClassifyQuestion(q)
		answer = analyzerService.Answer(q, corpus.Text, &analysis)
	}

	if analyzeJSON {
		return outputAnalysisJSON(cmd, analysis, questionType, answer)
	}

	cmd.Printf("Type:      %s\n", analysis.DocumentType)
	cmd.Printf("           %s.\n", analysis.DocumentType.Description())
	cmd.Printf("Length:    %d characters\n", analysis.Length)
	cmd.Printf("Structure: %d sections, %d paragraphs, %d sentences, %d words\n",
		analysis.Structure.Sections, analysis.Structure.Paragraphs,
		analysis.Structure.Sentences, analysis.Structure.Words)

	if len(analysis.MainTopics) > 0 {
		cmd.Println()
		cmd.Println("Main topics:")
		for _, t := range firstN(analysis.MainTopics, maxListed) {
			cmd.Printf("  - %s\n", t)
		}
	}
	if len(analysis.KeySections) > 0 {
		cmd.Println()
		cmd.Println("Key sections:")
		for i, s := range analysis.KeySections {
			if i == maxListed {
				break
			}
			cmd.Printf("  - %s\n", s.Name)
		}
	}
	if analysis.Summary != "" {
		cmd.Println()
		cmd.Println("Summary:")
		cmd.Printf("  %s\n", snippet(analysis.Summary))
	}

	if answer != "" {
		cmd.Println()
		cmd.Printf("Q: %s (%s)\n", strings.TrimSpace(analyzeQuestion), questionType)
		cmd.Printf("A: %s\n", answer)
	}
	return nil
}

func outputAnalysisJSON(
	cmd *cobra.Command, analysis domain.DocumentAnalysis, questionType domain.QuestionType, answer string,
) error {
	sections := make(map[string]string, len(analysis.KeySections))
	for _, s := range analysis.KeySections {
		sections[s.Name] = s.Content
	}
	out := analysisJSON{
		DocumentType: string(analysis.DocumentType),
		MainTopics:   analysis.MainTopics,
		KeySections:  sections,
		Summary:      analysis.Summary,
		KeyEntities:  analysis.KeyEntities,
		Length:       analysis.Length,
		Structure: map[string]int{
			"sections":   analysis.Structure.Sections,
			"paragraphs": analysis.Structure.Paragraphs,
			"sentences":  analysis.Structure.Sentences,
			"words":      analysis.Structure.Words,
		},
		QuestionType: string(questionType),
		Answer:       answer,
	}
	if answer != "" {
		out.Question = strings.TrimSpace(analyzeQuestion)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
