package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

var (
	chatDocument string
	chatFile     string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Open an interactive session for asking questions about one document.

Use --document for an indexed document or --file to answer from a local file
without indexing it.

Keys:
  enter        ask
  pgup/pgdown  scroll the transcript
  ctrl+l       clear the transcript
  esc/ctrl+c   quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatDocument, "document", "d", "", "indexed document name")
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "local document file")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errNotConfigured("answer")
	}

	var corpus domain.Corpus
	switch {
	case chatDocument != "" && chatFile != "":
		return fmt.Errorf("%w: use either --document or --file", domain.ErrInvalidInput)
	case chatDocument != "":
		corpus = domain.Corpus{DocumentName: chatDocument}
	case chatFile != "":
		c, err := fileCorpus(cmd, chatFile)
		if err != nil {
			return err
		}
		corpus = c
	default:
		return errors.New("one of --document or --file is required")
	}

	app, err := tui.NewApp(tui.NewPorts(answerService, documentService), corpus)
	if err != nil {
		return err
	}
	return app.WithContext(commandContext(cmd)).Run()
}
