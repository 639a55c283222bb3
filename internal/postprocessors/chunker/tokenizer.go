package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// DefaultEncoding is the GPT-4 tokenizer encoding.
const DefaultEncoding = "cl100k_base"

// Verify interface compliance.
var (
	_ driven.Tokenizer = (*TiktokenTokenizer)(nil)
	_ driven.Tokenizer = WordTokenizer{}
)

// TiktokenTokenizer counts BPE tokens.
type TiktokenTokenizer struct {
	name string
	enc  *tiktoken.Tiktoken
}

// NewTiktoken loads the named BPE encoding.
// Loading may download the encoding file on first use.
func NewTiktoken(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &TiktokenTokenizer{name: encoding, enc: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (t *TiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Name returns the encoding name.
func (t *TiktokenTokenizer) Name() string {
	return t.name
}

// WordTokenizer counts whitespace-separated words.
// It is deterministic and needs no encoding data.
type WordTokenizer struct{}

// Count returns the number of words in text.
func (WordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

// Name returns "words".
func (WordTokenizer) Name() string {
	return "words"
}

// DefaultTokenizer returns the cl100k tokenizer, or the word tokenizer
// when the encoding cannot be loaded.
func DefaultTokenizer() driven.Tokenizer {
	t, err := NewTiktoken(DefaultEncoding)
	if err != nil {
		logger.Warn("Tokenizer unavailable, counting words instead: %v", err)
		return WordTokenizer{}
	}
	return t
}
