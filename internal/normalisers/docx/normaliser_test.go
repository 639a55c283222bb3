package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t testing.TB, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func wrapBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, domain.FileTypeDOCX, normaliser.Type())
}

func TestNormalise_Paragraphs(t *testing.T) {
	body := `<w:p><w:r><w:t>Section 1: Coverage</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t xml:space="preserve">The grace period is </w:t></w:r><w:r><w:t>thirty days.</w:t></w:r></w:p>
<w:p><w:r><w:t>   </w:t></w:r></w:p>
<w:p><w:r><w:tab/><w:t>Indented clause</w:t></w:r></w:p>`

	raw := &domain.RawDocument{Name: "policy.docx", Content: createTestDOCX(t, wrapBody(body))}
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Section 1: Coverage\nThe grace period is thirty days.\n\tIndented clause", result.Text)
	assert.Equal(t, 5, result.Metadata["total_paragraphs"])
	assert.Equal(t, []string{
		"Section 1: Coverage",
		"The grace period is thirty days.",
		"\tIndented clause",
	}, result.Metadata[domain.MetadataParagraphTexts])
}

func TestNormalise_EmptyBody(t *testing.T) {
	raw := &domain.RawDocument{Name: "empty.docx", Content: createTestDOCX(t, wrapBody(""))}
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Empty(t, result.Metadata[domain.MetadataParagraphTexts])
}

func TestNormalise_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  *domain.RawDocument
	}{
		{"nil document", nil},
		{"not a zip", &domain.RawDocument{Content: []byte("not a zip archive")}},
		{"missing document.xml", &domain.RawDocument{Content: createTestDOCX(t, "")}},
		{"malformed xml", &domain.RawDocument{Content: createTestDOCX(t, "<w:document><w:body><w:p>")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), tt.raw)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, result)
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = New()
}

func BenchmarkNormalise(b *testing.B) {
	body := ""
	for i := 0; i < 200; i++ {
		body += `<w:p><w:r><w:t>Paragraph with some policy wording.</w:t></w:r></w:p>`
	}
	raw := &domain.RawDocument{Content: createTestDOCX(b, wrapBody(body))}
	normaliser := New()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = normaliser.Normalise(ctx, raw)
	}
}
