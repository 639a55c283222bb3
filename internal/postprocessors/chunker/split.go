package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// blankLine separates paragraphs.
	blankLine = regexp.MustCompile(`\n\s*\n`)

	// headingAhead matches a heading-like line such as "EXCLUSIONS:" at the start of text.
	headingAhead = regexp.MustCompile(`^[A-Z][^a-z]*:`)
)

// headingWindow bounds how far a heading match may look ahead.
const headingWindow = 200

// splitSections splits text on blank lines and before heading-like lines.
// Empty sections are dropped.
func splitSections(text string) []string {
	var sections []string
	for _, para := range blankLine.Split(text, -1) {
		for _, s := range splitBeforeHeadings(para) {
			if s = strings.TrimSpace(s); s != "" {
				sections = append(sections, s)
			}
		}
	}
	return sections
}

// splitBeforeHeadings splits at each newline that is followed by a heading-like line.
func splitBeforeHeadings(text string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		end := i + 1 + headingWindow
		if end > len(text) {
			end = len(text)
		}
		if headingAhead.MatchString(text[i+1 : end]) {
			parts = append(parts, text[start:i])
			start = i + 1
		}
	}
	return append(parts, text[start:])
}

// splitSentences splits after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) || i == 0 || !isTerminator(runes[i-1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:i])); s != "" {
			sentences = append(sentences, s)
		}
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		start = i
		i--
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
