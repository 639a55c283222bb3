package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/watcher"
)

var (
	watchInitial  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Keep the index in step with a directory",
	Long: `Watch a directory and index supported documents as they appear or change.

Documents are indexed under their file name. Deleting or renaming a file
removes its chunks from the index. Hidden files and editor temporaries are
ignored. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "index existing files before watching")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a changed file is indexed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	w, err := watcher.New(documentService, args[0], watcher.WithDebounce(watchDebounce))
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if watchInitial {
		count, err := w.Sync(ctx)
		if err != nil {
			return fmt.Errorf("initial index: %w", err)
		}
		cmd.Printf("Indexed %d documents from %s\n", count, args[0])
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}
