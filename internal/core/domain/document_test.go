package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExtensionToType tests extension mapping with the pdf default
func TestExtensionToType(t *testing.T) {
	tests := []struct {
		ext      string
		expected FileType
	}{
		{".pdf", FileTypePDF},
		{"pdf", FileTypePDF},
		{".docx", FileTypeDOCX},
		{".DOC", FileTypeDOCX},
		{".eml", FileTypeEmail},
		{".msg", FileTypeEmail},
		{".txt", FileTypeText},
		{"", FileTypePDF},
		{".xyz", FileTypePDF},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtensionToType(tt.ext))
		})
	}
}

// TestFileType_IsValid tests supported file types
func TestFileType_IsValid(t *testing.T) {
	assert.True(t, FileTypePDF.IsValid())
	assert.True(t, FileTypeDOCX.IsValid())
	assert.True(t, FileTypeEmail.IsValid())
	assert.True(t, FileTypeText.IsValid())
	assert.False(t, FileType("xlsx").IsValid())
}

// TestCorpus_IsIndexed tests corpus mode selection
func TestCorpus_IsIndexed(t *testing.T) {
	assert.True(t, Corpus{DocumentName: "policy.pdf"}.IsIndexed())
	assert.False(t, Corpus{Text: "raw text"}.IsIndexed())
}

func TestDocumentNameFromURL(t *testing.T) {
	assert.Equal(t, "policy.pdf", DocumentNameFromURL("https://x.test/docs/policy.pdf?sv=1"))
	assert.Equal(t, "document", DocumentNameFromURL("https://x.test/"))
	assert.Equal(t, "document", DocumentNameFromURL("https://x.test"))
	assert.Equal(t, "document", DocumentNameFromURL("://bad"))
}

func TestIsSupportedExtension(t *testing.T) {
	for _, ext := range []string{".pdf", "PDF", ".docx", ".doc", ".eml", ".msg", ".txt"} {
		assert.True(t, IsSupportedExtension(ext), ext)
	}
	for _, ext := range []string{"", ".exe", ".md", ".pdf.bak"} {
		assert.False(t, IsSupportedExtension(ext), ext)
	}
}
