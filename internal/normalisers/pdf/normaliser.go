package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Type returns the file type this normaliser handles.
func (n *Normaliser) Type() domain.FileType {
	return domain.FileTypePDF
}

// Normalise extracts page text from a PDF. Each page is introduced by a
// "--- Page n ---" marker and recorded in the page_texts metadata.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error) {
	if raw == nil || len(raw.Content) == 0 {
		return nil, domain.ErrInvalidInput
	}

	pages, err := extractPages(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: parse pdf: %v", domain.ErrInvalidInput, err)
	}

	text, pageTexts := assemble(pages)
	return &domain.LoadedDocument{
		Text: text,
		Metadata: map[string]any{
			"total_pages":            len(pages),
			domain.MetadataPageTexts: pageTexts,
		},
	}, nil
}

// extractPages returns the text of every page in order. Pages that fail
// to decode contribute an empty string so numbering stays aligned.
func extractPages(data []byte) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	count := reader.NumPage()
	pages = make([]string, 0, count)
	for i := 1; i <= count; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, rowErr := page.GetTextByRow()
		if rowErr != nil {
			logger.Debug("pdf: page %d: %v", i, rowErr)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, joinRows(rows))
	}
	return pages, nil
}

func joinRows(rows pdf.Rows) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line strings.Builder
		for _, word := range row.Content {
			line.WriteString(word.S)
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// assemble joins page texts with page markers. Page numbers are 1-based.
func assemble(pages []string) (string, map[int]string) {
	var text strings.Builder
	pageTexts := make(map[int]string, len(pages))
	for i, page := range pages {
		fmt.Fprintf(&text, "\n--- Page %d ---\n%s", i+1, page)
		pageTexts[i+1] = page
	}
	return strings.TrimSpace(text.String()), pageTexts
}
