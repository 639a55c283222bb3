package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

var (
	askDocument string
	askFile     string
	askURL      string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]...",
	Short: "Answer questions about a document",
	Long: `Answers one or more questions about a single document.

Exactly one source is required:
  --document  a document already in the vector index
  --file      a local file, answered from its full text without indexing
  --url       a remote file, indexed temporarily and removed afterwards

Examples:
  docqa ask --document policy.pdf "What is the grace period?"
  docqa ask --file policy.pdf "Is cataract surgery covered?" "What is the waiting period?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "name of an indexed document")
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "path of a local document")
	askCmd.Flags().StringVarP(&askURL, "url", "u", "", "URL of a remote document")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answers as JSON")
	rootCmd.AddCommand(askCmd)
}

type askJSONOutput struct {
	Answers []string `json:"answers"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errNotConfigured("answer")
	}

	questions := make([]string, 0, len(args))
	for _, q := range args {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: at least one non-empty question is required", domain.ErrInvalidInput)
	}

	sources := 0
	for _, s := range []string{askDocument, askFile, askURL} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("%w: exactly one of --document, --file or --url is required", domain.ErrInvalidInput)
	}

	ctx := commandContext(cmd)
	var answers []string
	switch {
	case askURL != "":
		if documentService == nil {
			return errNotConfigured("document")
		}
		raw, err := documentService.Fetch(ctx, askURL)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", askURL, err)
		}
		answers, err = answerService.RunIngested(ctx, raw, questions)
		if err != nil {
			return fmt.Errorf("answering: %w", err)
		}
	case askFile != "":
		corpus, err := fileCorpus(cmd, askFile)
		if err != nil {
			return err
		}
		answers = answerService.AnswerBatch(ctx, questions, corpus)
	default:
		answers = answerService.AnswerBatch(ctx, questions, domain.Corpus{DocumentName: askDocument})
	}

	if askJSON {
		data, err := json.MarshalIndent(askJSONOutput{Answers: answers}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answers: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for i, q := range questions {
		cmd.Printf("Q: %s\n", q)
		cmd.Printf("A: %s\n", answers[i])
		if i < len(questions)-1 {
			cmd.Println()
		}
	}
	return nil
}

// fileCorpus loads a local document's text for answering without the index.
func fileCorpus(cmd *cobra.Command, path string) (domain.Corpus, error) {
	if documentService == nil {
		return domain.Corpus{}, errNotConfigured("document")
	}
	raw, err := readDocument(path)
	if err != nil {
		return domain.Corpus{}, err
	}
	loaded, err := documentService.LoadText(commandContext(cmd), raw)
	if err != nil {
		return domain.Corpus{}, fmt.Errorf("loading %s: %w", path, err)
	}
	if strings.TrimSpace(loaded.Text) == "" {
		return domain.Corpus{}, fmt.Errorf("%w: no text could be extracted from %s", domain.ErrInvalidInput, path)
	}
	return domain.Corpus{Text: loaded.Text}, nil
}
