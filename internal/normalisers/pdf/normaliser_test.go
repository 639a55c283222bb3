package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, domain.FileTypePDF, normaliser.Type())
}

func TestNormalise_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  *domain.RawDocument
	}{
		{"nil document", nil},
		{"empty content", &domain.RawDocument{Name: "a.pdf"}},
		{"not a pdf", &domain.RawDocument{Name: "a.pdf", Content: []byte("plain text, no xref")}},
		{"truncated header", &domain.RawDocument{Name: "a.pdf", Content: []byte("%PDF-1.4\n")}},
	}

	normaliser := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := normaliser.Normalise(context.Background(), tt.raw)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, result)
		})
	}
}

func TestAssemble(t *testing.T) {
	text, pageTexts := assemble([]string{"Grace period is thirty days.", "", "Waiting period applies."})

	assert.Equal(t,
		"--- Page 1 ---\nGrace period is thirty days.\n--- Page 2 ---\n\n--- Page 3 ---\nWaiting period applies.",
		text)
	assert.Equal(t, map[int]string{
		1: "Grace period is thirty days.",
		2: "",
		3: "Waiting period applies.",
	}, pageTexts)
}

func TestAssemble_NoPages(t *testing.T) {
	text, pageTexts := assemble(nil)
	assert.Empty(t, text)
	assert.Empty(t, pageTexts)
}
