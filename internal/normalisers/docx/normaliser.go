package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Type returns the file type this normaliser handles.
func (n *Normaliser) Type() domain.FileType {
	return domain.FileTypeDOCX
}

// Normalise extracts the non-empty paragraphs of a DOCX document,
// one per line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// Open as ZIP archive
	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %v", domain.ErrInvalidInput, err)
	}

	content, err := readDocumentXML(reader)
	if err != nil {
		return nil, err
	}

	paragraphs, err := parseParagraphs(content)
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx body: %v", domain.ErrInvalidInput, err)
	}

	var text strings.Builder
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
		text.WriteString(p)
		text.WriteString("\n")
	}

	return &domain.LoadedDocument{
		Text: strings.TrimSpace(text.String()),
		Metadata: map[string]any{
			"total_paragraphs":            len(paragraphs),
			domain.MetadataParagraphTexts: kept,
		},
	}, nil
}

// readDocumentXML returns the bytes of word/document.xml.
func readDocumentXML(reader *zip.Reader) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open document.xml: %v", domain.ErrInvalidInput, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: read document.xml: %v", domain.ErrInvalidInput, err)
		}
		return content, nil
	}
	return nil, fmt.Errorf("%w: word/document.xml not found", domain.ErrInvalidInput)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseParagraphs returns the text of every body paragraph, including empty ones.
func parseParagraphs(content []byte) ([]string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range para.Runs {
			for range r.Tabs {
				b.WriteString("\t")
			}
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
		out = append(out, b.String())
	}
	return out, nil
}
