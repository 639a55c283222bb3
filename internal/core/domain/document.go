package domain

import (
	"net/url"
	"path"
	"strings"
)

// FileType identifies a document format the loader can decode.
type FileType string

// Supported file types.
const (
	FileTypePDF   FileType = "pdf"
	FileTypeDOCX  FileType = "docx"
	FileTypeEmail FileType = "email"
	FileTypeText  FileType = "text"
)

// IsValid returns true if the file type is supported.
func (t FileType) IsValid() bool {
	switch t {
	case FileTypePDF, FileTypeDOCX, FileTypeEmail, FileTypeText:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t FileType) String() string {
	return string(t)
}

// ExtensionToType maps a file extension (with or without the dot) to a file type.
// Unknown extensions map to pdf.
func ExtensionToType(ext string) FileType {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch ext {
	case "docx", "doc":
		return FileTypeDOCX
	case "eml", "msg":
		return FileTypeEmail
	case "txt":
		return FileTypeText
	default:
		return FileTypePDF
	}
}

// IsSupportedExtension reports whether ext (with or without the dot) names a
// format the loader can decode. Unlike ExtensionToType it does not default to pdf.
func IsSupportedExtension(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "pdf", "docx", "doc", "eml", "msg", "txt":
		return true
	default:
		return false
	}
}

// DocumentNameFromURL returns the last path element of rawURL, or "document"
// when there is none.
func DocumentNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "document"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}

// Metadata keys set by normalisers and read by the chunker.
const (
	// MetadataPageTexts maps page number (int) to page text (string).
	MetadataPageTexts = "page_texts"

	// MetadataParagraphTexts lists paragraph texts in order.
	MetadataParagraphTexts = "paragraph_texts"

	// MetadataFileType records the decoded file type.
	MetadataFileType = "file_type"
)

// LoadedDocument is plain text extracted from a document plus provenance metadata.
type LoadedDocument struct {
	// Text is the extracted plain text.
	Text string

	// Metadata carries format-specific provenance (page texts, headers).
	Metadata map[string]any
}

// Corpus is what a batch of questions is answered against.
// When DocumentName is set the indexed chunks of that document are searched;
// otherwise Text is used directly.
type Corpus struct {
	// DocumentName is a pre-indexed document.
	DocumentName string

	// Text is raw document text for no-index mode.
	Text string
}

// IsIndexed returns true if the corpus refers to an indexed document.
func (c Corpus) IsIndexed() bool {
	return c.DocumentName != ""
}
