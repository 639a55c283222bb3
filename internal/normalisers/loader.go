package normalisers

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/normalisers/docx"
	"github.com/custodia-labs/docqa-cli/internal/normalisers/eml"
	"github.com/custodia-labs/docqa-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa-cli/internal/normalisers/plaintext"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// nonEssential matches characters outside word characters, whitespace and
// basic punctuation.
var nonEssential = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-"]`)

// Loader maps file types to normalisers.
type Loader struct {
	normalisers map[domain.FileType]driven.Normaliser
}

// NewLoader creates a loader with the given normalisers.
// A later normaliser for the same type replaces an earlier one.
func NewLoader(normalisers ...driven.Normaliser) *Loader {
	l := &Loader{normalisers: make(map[domain.FileType]driven.Normaliser)}
	for _, n := range normalisers {
		l.Register(n)
	}
	return l
}

// Default creates a loader with the pdf, docx, email and text normalisers.
func Default() *Loader {
	return NewLoader(pdf.New(), docx.New(), eml.New(), plaintext.New())
}

// Register adds a normaliser for its file type.
func (l *Loader) Register(n driven.Normaliser) {
	l.normalisers[n.Type()] = n
}

// Load decodes data of the given type. The file type is recorded in the
// returned metadata.
func (l *Loader) Load(ctx context.Context, data []byte, fileType domain.FileType) (*domain.LoadedDocument, error) {
	n, ok := l.normalisers[fileType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, fileType)
	}

	doc, err := n.Normalise(ctx, &domain.RawDocument{Type: fileType, Content: data})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", fileType, err)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata[domain.MetadataFileType] = string(fileType)
	return doc, nil
}

// Preprocess collapses runs of whitespace to single spaces and replaces
// non-essential characters with a space.
func (l *Loader) Preprocess(text string) string {
	return Preprocess(text)
}

// SupportedTypes returns the registered file types in sorted order.
func (l *Loader) SupportedTypes() []domain.FileType {
	types := make([]domain.FileType, 0, len(l.normalisers))
	for t := range l.normalisers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Preprocess is the stateless form of Loader.Preprocess.
func Preprocess(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = nonEssential.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
