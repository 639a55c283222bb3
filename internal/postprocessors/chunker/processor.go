// Package chunker splits document text into token-bounded, overlapping chunks.
package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default maximum number of tokens per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of trailing words carried into the next chunk.
const DefaultChunkOverlap = 50

// Processor splits text on section boundaries, then packs sentences into
// chunks of at most chunkSize tokens.
type Processor struct {
	chunkSize int
	overlap   int
	tokenizer driven.Tokenizer
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in tokens.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithTokenizer sets the token counter. The default counts words.
func WithTokenizer(t driven.Tokenizer) Option {
	return func(p *Processor) {
		if t != nil {
			p.tokenizer = t
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		tokenizer: WordTokenizer{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// FromSettings creates a processor configured from chunking settings.
func FromSettings(s domain.ChunkingSettings, t driven.Tokenizer) *Processor {
	return New(WithChunkSize(s.ChunkSize), WithOverlap(s.ChunkOverlap), WithTokenizer(t))
}

// Chunk splits text into chunks in document order.
// Sections that fit within the chunk size become one chunk each; larger
// sections are split on sentence boundaries with word overlap.
// Indices are sequential across the whole document.
func (p *Processor) Chunk(text, documentName string, metadata map[string]any) []domain.DocumentChunk {
	sections := splitSections(text)
	if len(sections) == 0 {
		return nil
	}

	pages := pageTexts(metadata)
	shared := chunkMetadata(metadata)

	var texts []string
	for _, section := range sections {
		if p.tokenizer.Count(section) <= p.chunkSize {
			texts = append(texts, section)
			continue
		}
		texts = append(texts, p.splitBySentences(section)...)
	}

	chunks := make([]domain.DocumentChunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, domain.DocumentChunk{
			ChunkID:      chunkID(documentName, i),
			DocumentName: documentName,
			Text:         t,
			Index:        i,
			PageNumber:   findPage(t, pages),
			Metadata:     copyMetadata(shared),
		})
	}

	return chunks
}

// splitBySentences greedily packs sentences into chunks of at most chunkSize tokens.
// A flushed chunk seeds the next one with its last overlap words.
// A single sentence longer than chunkSize becomes its own oversized chunk.
func (p *Processor) splitBySentences(text string) []string {
	var out []string
	current := ""
	currentTokens := 0

	for _, sentence := range splitSentences(text) {
		sentenceTokens := p.tokenizer.Count(sentence)

		if current != "" && currentTokens+sentenceTokens > p.chunkSize {
			out = append(out, strings.TrimSpace(current))

			current = p.overlapText(current) + " " + sentence
			currentTokens = p.tokenizer.Count(current)
			continue
		}

		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
		currentTokens += sentenceTokens
	}

	if strings.TrimSpace(current) != "" {
		out = append(out, strings.TrimSpace(current))
	}

	return out
}

// overlapText returns the last overlap words of text.
func (p *Processor) overlapText(text string) string {
	words := strings.Fields(text)
	if len(words) <= p.overlap {
		return strings.Join(words, " ")
	}
	return strings.Join(words[len(words)-p.overlap:], " ")
}

func chunkID(documentName string, index int) string {
	return fmt.Sprintf("%s_%d_%s", documentName, index, uuid.New().String()[:8])
}

type page struct {
	number int
	words  map[string]struct{}
}

// pageTexts reads per-page text from metadata, ordered by page number.
func pageTexts(metadata map[string]any) []page {
	raw, ok := metadata[domain.MetadataPageTexts]
	if !ok {
		return nil
	}

	texts, ok := raw.(map[int]string)
	if !ok {
		return nil
	}

	pages := make([]page, 0, len(texts))
	for n, t := range texts {
		pages = append(pages, page{number: n, words: wordSet(t)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })

	return pages
}

// findPage returns the page whose word set overlaps most with the chunk.
// Ties go to the lowest page number; no overlap yields nil.
func findPage(text string, pages []page) *int {
	if len(pages) == 0 {
		return nil
	}

	chunkWords := wordSet(text)
	best := 0
	var bestPage *int

	for _, pg := range pages {
		overlap := 0
		for w := range chunkWords {
			if _, ok := pg.words[w]; ok {
				overlap++
			}
		}
		if overlap > best {
			best = overlap
			bestPage = domain.Ptr(pg.number)
		}
	}

	return bestPage
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// chunkMetadata drops bulky per-document keys that only the chunker needs.
func chunkMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if k == domain.MetadataPageTexts || k == domain.MetadataParagraphTexts {
			continue
		}
		out[k] = v
	}
	return out
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
