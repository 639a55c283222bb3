package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// Context and excerpt bounds.
const (
	maxContextResults = 5
	maxContextChars   = 1000
	excerptThreshold  = 6000
	excerptHead       = 4000
	excerptTail       = 2000
	excerptMarker     = "\n[...document continues...]\n"
	noContextMessage  = "No relevant information found in the document."
)

var (
	pageMarkerPattern  = regexp.MustCompile(`(?i)---\s*Page\s+\d+\s*---`)
	boilerplatePattern = regexp.MustCompile(`(?i)(www\.[^\s]+|E[- ]?mail:|Call at:|Toll Free|Policy Wordings|UIN-|Issuing Office:|For more details, log on to:|Sales - \d+|Service - \d+)`)
	headingPattern     = regexp.MustCompile(`^[A-Z\s\-:]+$`)
)

// stopwords are dropped from question keywords.
var stopwords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "also": {}, "although": {},
	"among": {}, "been": {}, "before": {}, "being": {}, "below": {}, "between": {},
	"both": {}, "could": {}, "does": {}, "doing": {}, "done": {}, "during": {},
	"each": {}, "either": {}, "every": {}, "from": {}, "further": {}, "have": {},
	"having": {}, "here": {}, "into": {}, "just": {}, "more": {}, "most": {},
	"much": {}, "must": {}, "only": {}, "other": {}, "over": {}, "same": {},
	"should": {}, "some": {}, "such": {}, "than": {}, "that": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"those": {}, "through": {}, "under": {}, "until": {}, "upon": {}, "very": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"will": {}, "with": {}, "within": {}, "without": {}, "would": {}, "your": {},
	"yours": {}, "please": {}, "tell": {}, "policy": {},
}

// tokenize splits lower-cased text into runs of letters and digits.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// wordSet returns the distinct words of text.
func wordSet(text string) map[string]struct{} {
	fields := tokenize(text)
	set := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		set[w] = struct{}{}
	}
	return set
}

// keywords returns the distinct lower-cased words of text longer than three
// characters that are not stopwords, in order of first appearance.
func keywords(text string) []string {
	fields := tokenize(text)
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, w := range fields {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// splitSentences splits text after '.', '!' or '?' when followed by whitespace.
// Sentences are trimmed; empty ones are dropped.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// isHeading reports whether s is an all-caps heading line, ignoring a final terminator.
func isHeading(s string) bool {
	return headingPattern.MatchString(strings.TrimRight(s, ".!?"))
}

// cleanContext strips page markers and contact boilerplate and collapses whitespace.
func cleanContext(text string) string {
	text = pageMarkerPattern.ReplaceAllString(text, " ")
	text = boilerplatePattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// headTailExcerpt bounds a full document for the model prompt.
func headTailExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptThreshold {
		return text
	}
	return string(runes[:excerptHead]) + excerptMarker + string(runes[len(runes)-excerptTail:])
}

// formatContext renders the best results as numbered context blocks.
func formatContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return noContextMessage
	}
	if len(results) > maxContextResults {
		results = results[:maxContextResults]
	}
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[Context %d] (Document: %s, Relevance: %.2f)\n%s",
			i+1, r.Chunk.DocumentName, r.Score, truncate(r.Chunk.Text, maxContextChars)))
	}
	return strings.Join(parts, "\n---\n")
}

type scoredSentence struct {
	text  string
	score int
}

// rankSentences scores the sentences of text by how many of the keywords
// they contain as whole words and returns the scoring ones, best first,
// stable among ties. Sentences shorter than minLen runes and headings are skipped.
func rankSentences(text string, terms []string, minLen, maxLen int) []scoredSentence {
	var ranked []scoredSentence
	for _, s := range splitSentences(text) {
		n := utf8.RuneCountInString(s)
		if n < minLen || (maxLen > 0 && n >= maxLen) || isHeading(s) {
			continue
		}
		present := wordSet(s)
		score := 0
		for _, w := range terms {
			if _, ok := present[strings.ToLower(w)]; ok {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scoredSentence{text: s, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// joinTop joins the text of the first n sentences with spaces.
func joinTop(ranked []scoredSentence, n int) string {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	parts := make([]string, 0, len(ranked))
	for _, s := range ranked {
		parts = append(parts, s.text)
	}
	return strings.Join(parts, " ")
}
