package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/watcher"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

var indexName string

var indexCmd = &cobra.Command{
	Use:   "index [path|url]",
	Short: "Add a document to the vector index",
	Long: `Chunks a document and stores it in the vector index.

The argument may be a local file, a directory (every supported file in it is
indexed) or an http(s) URL. Supported formats: pdf, docx, doc, eml, msg, txt.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [document-name]",
	Short: "Remove a document from the vector index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	indexCmd.Flags().StringVar(&indexName, "name", "", "document name (default: file or URL base name)")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}
	ctx := commandContext(cmd)
	target := args[0]

	if isURL(target) {
		count, err := documentService.IngestURL(ctx, target, indexName)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", target, err)
		}
		name := indexName
		if name == "" {
			name = domain.DocumentNameFromURL(target)
		}
		cmd.Printf("Indexed %s: %d chunks\n", name, count)
		return nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", target, err)
	}
	if info.IsDir() {
		if indexName != "" {
			return fmt.Errorf("%w: --name cannot be used with a directory", domain.ErrInvalidInput)
		}
		w, err := watcher.New(documentService, target)
		if err != nil {
			return err
		}
		count, err := w.Sync(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Indexed %d documents from %s\n", count, target)
		return nil
	}

	raw, err := readDocument(target)
	if err != nil {
		return err
	}
	if indexName != "" {
		raw.Name = indexName
	}
	count, err := documentService.Ingest(ctx, raw)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", target, err)
	}
	cmd.Printf("Indexed %s: %d chunks\n", raw.Name, count)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}
	if err := documentService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("deleting %s: %w", args[0], err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}
	stats := documentService.Stats(commandContext(cmd))

	cmd.Println("Vector Index")
	cmd.Println("============")
	cmd.Printf("  Status:     %s\n", stats.Status)
	cmd.Printf("  Vectors:    %d\n", stats.TotalVectorCount)
	cmd.Printf("  Dimension:  %d\n", stats.Dimension)
	cmd.Printf("  Fullness:   %.1f%%\n", stats.IndexFullness*100)
	return nil
}

// readDocument reads a local file and types it by extension.
func readDocument(path string) (*domain.RawDocument, error) {
	ext := filepath.Ext(path)
	if !domain.IsSupportedExtension(ext) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, ext)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &domain.RawDocument{
		Name:    filepath.Base(path),
		Type:    domain.ExtensionToType(ext),
		Content: content,
	}, nil
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
