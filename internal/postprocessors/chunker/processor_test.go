package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultChunkSize, p.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, p.overlap)
		assert.Equal(t, "words", p.tokenizer.Name())
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(200), WithOverlap(10))
		assert.Equal(t, 200, p.chunkSize)
		assert.Equal(t, 10, p.overlap)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1), WithTokenizer(nil))
		assert.Equal(t, DefaultChunkSize, p.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, p.overlap)
		assert.NotNil(t, p.tokenizer)
	})

	t.Run("from settings", func(t *testing.T) {
		p := FromSettings(domain.ChunkingSettings{ChunkSize: 300, ChunkOverlap: 20}, WordTokenizer{})
		assert.Equal(t, 300, p.chunkSize)
		assert.Equal(t, 20, p.overlap)
	})
}

func TestChunk_EmptyText(t *testing.T) {
	p := New()
	assert.Empty(t, p.Chunk("", "doc", nil))
	assert.Empty(t, p.Chunk("  \n\n \n", "doc", nil))
}

func TestChunk_SectionsFitWhole(t *testing.T) {
	p := New(WithTokenizer(WordTokenizer{}))
	text := "First paragraph here.\n\nSecond paragraph here.\nCOVERAGE: hospital expenses."

	chunks := p.Chunk(text, "policy.pdf", nil)

	require.Len(t, chunks, 3)
	assert.Equal(t, "First paragraph here.", chunks[0].Text)
	assert.Equal(t, "Second paragraph here.", chunks[1].Text)
	assert.Equal(t, "COVERAGE: hospital expenses.", chunks[2].Text)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "policy.pdf", c.DocumentName)
		assert.Nil(t, c.PageNumber)
	}
}

func TestChunk_SentenceSplitWithOverlap(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(3), WithTokenizer(WordTokenizer{}))
	text := "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu. Nu xi omicron pi."

	chunks := p.Chunk(text, "doc", nil)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Alpha beta gamma delta. Epsilon zeta eta theta.", chunks[0].Text)
	assert.Equal(t, "zeta eta theta. Iota kappa lambda mu.", chunks[1].Text)
	assert.Equal(t, "kappa lambda mu. Nu xi omicron pi.", chunks[2].Text)

	t.Run("size bound", func(t *testing.T) {
		for _, c := range chunks {
			assert.LessOrEqual(t, WordTokenizer{}.Count(c.Text), 10)
		}
	})

	t.Run("overlap", func(t *testing.T) {
		for i := 1; i < len(chunks); i++ {
			prev := strings.Fields(chunks[i-1].Text)
			next := strings.Fields(chunks[i].Text)
			assert.Equal(t, prev[len(prev)-3:], next[:3])
		}
	})

	t.Run("coverage", func(t *testing.T) {
		for _, s := range splitSentences(text) {
			found := false
			for _, c := range chunks {
				if strings.Contains(c.Text, s) {
					found = true
					break
				}
			}
			assert.True(t, found, "sentence %q missing from chunks", s)
		}
	})

	t.Run("sequential indices", func(t *testing.T) {
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
		}
	})
}

func TestChunk_OversizedSentence(t *testing.T) {
	p := New(WithChunkSize(3), WithOverlap(1), WithTokenizer(WordTokenizer{}))

	chunks := p.Chunk("This sentence has many words in it.", "doc", nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, "This sentence has many words in it.", chunks[0].Text)
}

func TestChunk_IndicesContinueAcrossSections(t *testing.T) {
	p := New(WithChunkSize(4), WithOverlap(0), WithTokenizer(WordTokenizer{}))
	text := "Short one.\n\nOne two three. Four five six.\n\nShort two."

	chunks := p.Chunk(text, "doc", nil)

	require.Len(t, chunks, 4)
	assert.Equal(t, "Short one.", chunks[0].Text)
	assert.Equal(t, "One two three.", chunks[1].Text)
	assert.Equal(t, "Four five six.", chunks[2].Text)
	assert.Equal(t, "Short two.", chunks[3].Text)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestChunk_ChunkID(t *testing.T) {
	p := New()
	chunks := p.Chunk("One.\n\nTwo.", "policy", nil)

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0].ChunkID, "policy_0_"))
	assert.True(t, strings.HasPrefix(chunks[1].ChunkID, "policy_1_"))
	assert.Len(t, chunks[0].ChunkID, len("policy_0_")+8)
	assert.NotEqual(t, chunks[0].ChunkID, p.Chunk("One.", "policy", nil)[0].ChunkID)
}

func TestChunk_PageAttribution(t *testing.T) {
	p := New()
	metadata := map[string]any{
		domain.MetadataFileType: "pdf",
		domain.MetadataPageTexts: map[int]string{
			1: "grace period thirty days",
			2: "maternity expenses covered",
		},
	}

	chunks := p.Chunk("Grace period is thirty days.\n\nMaternity expenses are covered.", "doc", metadata)

	require.Len(t, chunks, 2)
	require.NotNil(t, chunks[0].PageNumber)
	assert.Equal(t, 1, *chunks[0].PageNumber)
	require.NotNil(t, chunks[1].PageNumber)
	assert.Equal(t, 2, *chunks[1].PageNumber)

	assert.Equal(t, "pdf", chunks[0].Metadata[domain.MetadataFileType])
	assert.NotContains(t, chunks[0].Metadata, domain.MetadataPageTexts)
}

func TestFindPage(t *testing.T) {
	pages := pageTexts(map[string]any{
		domain.MetadataPageTexts: map[int]string{
			3: "room rent limits",
			2: "room rent limits",
		},
	})

	t.Run("tie goes to first page", func(t *testing.T) {
		got := findPage("room rent", pages)
		require.NotNil(t, got)
		assert.Equal(t, 2, *got)
	})

	t.Run("no overlap", func(t *testing.T) {
		assert.Nil(t, findPage("ayush treatment", pages))
	})

	t.Run("no pages", func(t *testing.T) {
		assert.Nil(t, findPage("room rent", nil))
	})
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single", "No terminator here", []string{"No terminator here"}},
		{"mixed terminators", "Is it covered? Yes! It is.", []string{"Is it covered?", "Yes!", "It is."}},
		{"decimal not split", "Limit is 2.5 lakh. Done.", []string{"Limit is 2.5 lakh.", "Done."}},
		{"newline whitespace", "First.\n  Second.", []string{"First.", "Second."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.text))
		})
	}
}

func TestSplitSections(t *testing.T) {
	text := "Preamble line\nstill preamble\n\n\nEXCLUSIONS: cosmetic surgery\nWAITING PERIOD: 30 days"

	assert.Equal(t, []string{
		"Preamble line\nstill preamble",
		"EXCLUSIONS: cosmetic surgery",
		"WAITING PERIOD: 30 days",
	}, splitSections(text))
}

func TestWordTokenizer(t *testing.T) {
	tok := WordTokenizer{}
	assert.Equal(t, 0, tok.Count(""))
	assert.Equal(t, 4, tok.Count("  one two\tthree\nfour "))
	assert.Equal(t, "words", tok.Name())
}
