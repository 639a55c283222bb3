package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, domain.FileTypeText, normaliser.Type())
}

func TestNormalise_Passthrough(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"simple", "The grace period is thirty days."},
		{"empty", ""},
		{"whitespace kept", "  line one\n\n\tline two  "},
		{"unicode", "Premium: ₹ 5,000 - संख्या"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), &domain.RawDocument{
				Name:    "notes.txt",
				Content: []byte(tt.content),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.content, result.Text)
			assert.NotNil(t, result.Metadata)
		})
	}
}

func TestNormalise_MetadataCopied(t *testing.T) {
	meta := map[string]any{"source": "upload"}
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Content:  []byte("text"),
		Metadata: meta,
	})
	require.NoError(t, err)

	result.Metadata["extra"] = true
	assert.Equal(t, "upload", result.Metadata["source"])
	assert.NotContains(t, meta, "extra")
}

func TestNormalise_InvalidInput(t *testing.T) {
	n := New()

	result, err := n.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)

	result, err = n.Normalise(context.Background(), &domain.RawDocument{Content: []byte{0xff, 0xfe, 0xfd}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = New()
}

func BenchmarkNormalise(b *testing.B) {
	raw := &domain.RawDocument{Content: []byte(strings.Repeat("policy wording ", 10000))}
	normaliser := New()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = normaliser.Normalise(ctx, raw)
	}
}
