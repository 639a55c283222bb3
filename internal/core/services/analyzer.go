package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
)

// Ensure AnalyzerService implements the interface.
var _ driving.AnalyzerService = (*AnalyzerService)(nil)

// Analyzer limits.
const (
	maxTopics          = 10
	maxListedTopics    = 8
	maxAboutTopics     = 5
	maxEntities        = 10
	topicSentenceScan  = 20
	sectionContentMax  = 500
	summaryParagraph   = 300
	summaryMax         = 800
	aboutSummaryMax    = 200
	maxRuleMatches     = 3
	noSummaryMessage   = "Document content is not sufficiently structured for summary generation."
	noTopicsMessage    = "Unable to identify specific topics from the document content."
	noRulesMessage     = "No specific rules or regulations were found in the document related to your query."
	noKeyTermsMessage  = "Unable to identify key terms in your question to search the document."
	noGeneralMatchText = "No specific information found in the document related to your question."
)

type typeKeywords struct {
	docType  domain.DocumentType
	keywords []string
}

// documentTypes is scored in order; earlier entries win ties.
var documentTypes = []typeKeywords{
	{domain.DocumentTypeInsurancePolicy, []string{"policy", "premium", "coverage", "claim", "insured", "deductible"}},
	{domain.DocumentTypeContract, []string{"agreement", "party", "terms", "conditions", "obligations", "breach"}},
	{domain.DocumentTypeManual, []string{"instructions", "procedure", "step", "guide", "how to", "manual"}},
	{domain.DocumentTypeReport, []string{"findings", "analysis", "results", "conclusion", "summary", "data"}},
	{domain.DocumentTypeLegal, []string{"shall", "whereas", "therefore", "pursuant", "covenant", "liability"}},
	{domain.DocumentTypeMedical, []string{"patient", "treatment", "diagnosis", "symptoms", "medication", "prescription"}},
	{domain.DocumentTypeFinancial, []string{"revenue", "profit", "loss", "investment", "financial", "budget"}},
	{domain.DocumentTypeTechnical, []string{"specification", "technical", "system", "configuration", "requirements"}},
}

type questionPatterns struct {
	questionType domain.QuestionType
	patterns     []string
}

// questionTypes is matched in order; the first type with a matching phrase wins.
var questionTypes = []questionPatterns{
	{domain.QuestionWhatIs, []string{"what is", "what does", "what are"}},
	{domain.QuestionHowTo, []string{"how to", "how do", "how can", "how should"}},
	{domain.QuestionWhen, []string{"when", "what time", "at what point"}},
	{domain.QuestionWhere, []string{"where", "in which", "at which location"}},
	{domain.QuestionWhy, []string{"why", "what reason", "what purpose"}},
	{domain.QuestionWho, []string{"who", "which person", "what entity"}},
	{domain.QuestionList, []string{"list", "what are all", "enumerate", "name all"}},
	{domain.QuestionDefinition, []string{"define", "definition of", "meaning of", "what does mean"}},
	{domain.QuestionProcess, []string{"process", "procedure", "steps", "how does work"}},
	{domain.QuestionRules, []string{"rules", "regulations", "requirements", "policies about"}},
}

var (
	roughSentenceSplit = regexp.MustCompile(`[.!?]+`)
	topicHeadings      = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z][A-Z\s\-:]+$`),
		regexp.MustCompile(`^\d+\.?\s+[A-Z][^.!?]*$`),
		regexp.MustCompile(`^[A-Z][^.!?]*:`),
	}
	keyPhrasePattern = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`)
	sectionPattern   = regexp.MustCompile(`(?:\n|^)(?:\d+\.?\s*|[A-Z]+\.?\s*)?([A-Z][A-Z\s\-:]{3,})\s*(?:\n|$)`)
	sectionCount     = regexp.MustCompile(`(?:\n|^)[A-Z][A-Z\s\-:]{3,}`)
	entityPatterns   = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*(?:\s+(?:Ltd|Inc|Corp|Company|Policy))\b`),
		regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
		regexp.MustCompile(`\b[A-Z]{2,}\b`),
	}
	rulePatterns = []*regexp.Regexp{
		regexp.MustCompile(`[Ss]hall\s+[^.!?]*[.!?]`),
		regexp.MustCompile(`[Mm]ust\s+[^.!?]*[.!?]`),
		regexp.MustCompile(`[Rr]equired\s+[^.!?]*[.!?]`),
		regexp.MustCompile(`[Pp]rohibited\s+[^.!?]*[.!?]`),
		regexp.MustCompile(`[Nn]ot\s+permitted\s+[^.!?]*[.!?]`),
		regexp.MustCompile(`[Rr]ules?\s+[^.!?]*[.!?]`),
		regexp.MustCompile(`[Rr]egulations?\s+[^.!?]*[.!?]`),
	}
	lowerWordPattern = regexp.MustCompile(`\b[a-z]+\b`)
	summaryTerms     = []string{"shall", "must", "required", "important", "key", "main"}
	generalStopwords = map[string]struct{}{
		"what": {}, "where": {}, "when": {}, "who": {}, "why": {}, "how": {}, "does": {},
		"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "have": {}, "been": {},
	}
)

// Response cleanup.
var (
	quotedPhrase   = regexp.MustCompile(`"([A-Za-z][A-Za-z\s]*?)"`)
	quotedWord     = regexp.MustCompile(`"([A-Za-z]{2,})"`)
	quotedTitle    = regexp.MustCompile(`"([A-Z][a-z]+ [A-Z][a-z]+)"`)
	quotedAcronym  = regexp.MustCompile(`"([A-Z]{2,}[A-Z\s]*)"`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	pageArtifact   = regexp.MustCompile(`--- Page \d+ ---`)
	pageOfArtifact = regexp.MustCompile(`Page \d+ of \d+`)
	uinArtifact    = regexp.MustCompile(`UIN[-:]?\s*[A-Z0-9]+`)
)

// AnalyzerService describes documents and answers questions about their nature.
// It is deterministic and needs no external services.
type AnalyzerService struct{}

// NewAnalyzerService creates a new analyzer.
func NewAnalyzerService() *AnalyzerService {
	return &AnalyzerService{}
}

// Analyze describes text.
func (a *AnalyzerService) Analyze(text string) domain.DocumentAnalysis {
	return domain.DocumentAnalysis{
		DocumentType: identifyDocumentType(text),
		MainTopics:   extractMainTopics(text),
		KeySections:  identifyKeySections(text),
		Summary:      summarise(text),
		KeyEntities:  extractKeyEntities(text),
		Length:       len(text),
		Structure:    analyzeStructure(text),
	}
}

// ClassifyQuestion returns the first question type with a phrase contained in question.
func (a *AnalyzerService) ClassifyQuestion(question string) domain.QuestionType {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, qt := range questionTypes {
		for _, p := range qt.patterns {
			if strings.Contains(q, p) {
				return qt.questionType
			}
		}
	}
	return domain.QuestionGeneral
}

type documentQuestion int

const (
	notAboutDocument documentQuestion = iota
	aboutDocument
	aboutTopics
	aboutRules
)

// documentQuestionPatterns recognise questions whose subject is the document
// itself. Facts asked "under this policy" or "in the document" do not match.
var documentQuestionPatterns = []struct {
	kind     documentQuestion
	patterns []*regexp.Regexp
}{
	{aboutDocument, []*regexp.Regexp{
		regexp.MustCompile(`^what\s+is\s+(this|the)\s+(document|file)(\s+about)?\s*\??$`),
		regexp.MustCompile(`^what\s+(is|does)\s+(this|the)\s+(document|file|policy|contract)\s+(about|describe)\s*\??$`),
		regexp.MustCompile(`\bwhat\s+(kind|type|sort)\s+of\s+(document|file)\b`),
		regexp.MustCompile(`\bsummar(y|ise|ize)\s+(of\s+)?(this|the)\s+(document|file|policy|contract)\s*\??$`),
	}},
	{aboutTopics, []*regexp.Regexp{
		regexp.MustCompile(`\b(main|key)\s+topics\b`),
		regexp.MustCompile(`\btopics\s+(are\s+)?(covered|discussed)\b`),
		regexp.MustCompile(`^(list|name|what\s+are)\s+(all\s+)?(the\s+)?topics\b`),
	}},
	{aboutRules, []*regexp.Regexp{
		regexp.MustCompile(`\b(rules|regulations)\s+(in|of|set\s+out\s+in)\s+(this|the)\s+(document|file|policy|contract)\s*\??$`),
		regexp.MustCompile(`^(list|what\s+are)\s+(all\s+)?(the\s+)?(rules|regulations)\s*\??$`),
	}},
}

func classifyDocumentQuestion(question string) documentQuestion {
	q := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	for _, group := range documentQuestionPatterns {
		for _, re := range group.patterns {
			if re.MatchString(q) {
				return group.kind
			}
		}
	}
	return notAboutDocument
}

// IsAboutDocument reports whether question asks about the document itself
// (what it is, its topics or its rules) rather than a fact inside it.
func (a *AnalyzerService) IsAboutDocument(question string) bool {
	return classifyDocumentQuestion(question) != notAboutDocument
}

// Answer responds to question from the analysis of text.
func (a *AnalyzerService) Answer(question, text string, analysis *domain.DocumentAnalysis) string {
	if analysis == nil {
		computed := a.Analyze(text)
		analysis = &computed
	}

	q := strings.ToLower(strings.TrimSpace(question))
	switch classifyDocumentQuestion(q) {
	case aboutDocument:
		return answerAbout(analysis)
	case aboutTopics:
		return answerTopics(analysis)
	case aboutRules:
		return answerRules(q, text)
	}

	qt := a.ClassifyQuestion(q)
	switch {
	case qt == domain.QuestionWhatIs && containsAny(q, "document", "about", "this"):
		return answerAbout(analysis)
	case qt == domain.QuestionList || strings.Contains(q, "topics"):
		return answerTopics(analysis)
	case containsAny(q, "rules", "regulations"):
		return answerRules(q, text)
	default:
		return answerGeneral(q, text, analysis)
	}
}

func identifyDocumentType(text string) domain.DocumentType {
	lower := strings.ToLower(text)
	best, bestScore := domain.DocumentTypeGeneral, 0
	for _, dt := range documentTypes {
		score := 0
		for _, k := range dt.keywords {
			if strings.Contains(lower, k) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = dt.docType, score
		}
	}
	return best
}

func extractMainTopics(text string) []string {
	var topics []string

	sentences := roughSentenceSplit.Split(text, -1)
	if len(sentences) > topicSentenceScan {
		sentences = sentences[:topicSentenceScan]
	}
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if n := utf8.RuneCountInString(s); n <= 10 || n >= 100 {
			continue
		}
		for _, re := range topicHeadings {
			if re.MatchString(s) {
				topics = append(topics, s)
				break
			}
		}
	}

	for _, pc := range mostCommon(keyPhrasePattern.FindAllString(text, -1), maxTopics) {
		if len(pc.value) > 3 && pc.count > 1 {
			topics = append(topics, pc.value)
		}
	}

	topics = dedupe(topics)
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics
}

func identifyKeySections(text string) []domain.KeySection {
	var sections []domain.KeySection
	add := func(name string, content []string) {
		if len(content) == 0 {
			return
		}
		body := truncate(strings.TrimSpace(strings.Join(content, " ")), sectionContentMax)
		for i := range sections {
			if sections[i].Name == name {
				sections[i].Content = body
				return
			}
		}
		sections = append(sections, domain.KeySection{Name: name, Content: body})
	}

	current := "introduction"
	var content []string
	last := 0
	for _, m := range sectionPattern.FindAllStringSubmatchIndex(text, -1) {
		if part := strings.TrimSpace(text[last:m[0]]); part != "" {
			content = append(content, part)
		}
		add(current, content)
		current = strings.ToLower(strings.TrimSpace(text[m[2]:m[3]]))
		content = nil
		last = m[1]
	}
	if part := strings.TrimSpace(text[last:]); part != "" {
		content = append(content, part)
	}
	add(current, content)

	return sections
}

func summarise(text string) string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); utf8.RuneCountInString(p) > 50 {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return noSummaryMessage
	}

	parts := []string{truncate(paragraphs[0], summaryParagraph)}
	found := 0
	for _, s := range roughSentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		n := utf8.RuneCountInString(s)
		if n <= 30 || n >= 200 || !containsAny(strings.ToLower(s), summaryTerms...) {
			continue
		}
		parts = append(parts, s)
		if found++; found >= 3 {
			break
		}
	}
	return truncate(strings.Join(parts, " "), summaryMax)
}

func extractKeyEntities(text string) []string {
	var all []string
	for _, re := range entityPatterns {
		all = append(all, re.FindAllString(text, -1)...)
	}
	counts := mostCommon(all, maxEntities)
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.value
	}
	return out
}

func analyzeStructure(text string) domain.DocumentStructure {
	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if utf8.RuneCountInString(strings.TrimSpace(p)) > 20 {
			paragraphs++
		}
	}
	return domain.DocumentStructure{
		Sections:   len(sectionCount.FindAllString(text, -1)),
		Paragraphs: paragraphs,
		Sentences:  len(roughSentenceSplit.Split(text, -1)),
		Words:      len(strings.Fields(text)),
	}
}

func answerAbout(analysis *domain.DocumentAnalysis) string {
	parts := []string{analysis.DocumentType.Description()}
	if utf8.RuneCountInString(analysis.Summary) > 50 {
		parts = append(parts, "that "+truncate(analysis.Summary, aboutSummaryMax)+"...")
	}
	if len(analysis.MainTopics) > 0 {
		topics := analysis.MainTopics
		if len(topics) > maxAboutTopics {
			topics = topics[:maxAboutTopics]
		}
		parts = append(parts, "It covers topics such as: "+strings.Join(topics, ", ")+".")
	}
	return cleanResponse(strings.Join(parts, " "))
}

func answerTopics(analysis *domain.DocumentAnalysis) string {
	if len(analysis.MainTopics) == 0 && len(analysis.KeySections) == 0 {
		return noTopicsMessage
	}

	lines := []string{"The main topics covered in this document include:"}
	if len(analysis.MainTopics) > 0 {
		for i, t := range analysis.MainTopics {
			if i >= maxListedTopics {
				break
			}
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, t))
		}
	} else {
		for i, s := range analysis.KeySections {
			if i >= maxListedTopics {
				break
			}
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, titleCase(s.Name)))
		}
	}
	return cleanResponse(strings.Join(lines, "\n"))
}

func answerRules(question, text string) string {
	var rules []string
	for _, re := range rulePatterns {
		rules = append(rules, re.FindAllString(text, maxRuleMatches)...)
	}
	if len(rules) == 0 {
		return noRulesMessage
	}

	var words []string
	for _, w := range lowerWordPattern.FindAllString(question, -1) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}

	var relevant []string
	for _, r := range rules {
		if containsAny(strings.ToLower(r), words...) {
			relevant = append(relevant, strings.TrimSpace(r))
		}
	}

	if len(relevant) > 0 {
		return cleanResponse("Based on the document, here are the relevant rules:\n\n" + strings.Join(firstN(relevant, 3), "\n\n"))
	}
	return cleanResponse("Here are some key rules from the document:\n\n" + strings.Join(firstN(rules, 3), "\n\n"))
}

func answerGeneral(question, text string, analysis *domain.DocumentAnalysis) string {
	var words []string
	for _, w := range lowerWordPattern.FindAllString(question, -1) {
		if _, stop := generalStopwords[w]; len(w) > 3 && !stop {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return noKeyTermsMessage
	}

	if ranked := rankSentences(text, words, 21, 500); len(ranked) > 0 {
		return cleanResponse(joinTop(ranked, 3))
	}
	if analysis.Summary != "" {
		return cleanResponse(analysis.Summary)
	}
	return noGeneralMatchText
}

// cleanResponse strips decorative quotes and page artifacts and collapses whitespace.
func cleanResponse(text string) string {
	text = quotedPhrase.ReplaceAllString(text, "$1")
	text = quotedWord.ReplaceAllString(text, "$1")
	text = quotedTitle.ReplaceAllString(text, "$1")
	text = quotedAcronym.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) && strings.Count(text, `"`) == 2 {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	text = pageArtifact.ReplaceAllString(text, "")
	text = pageOfArtifact.ReplaceAllString(text, "")
	text = uinArtifact.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

type valueCount struct {
	value string
	count int
}

// mostCommon returns the n most frequent values; ties keep first-seen order.
func mostCommon(values []string, n int) []valueCount {
	index := map[string]int{}
	var counts []valueCount
	for _, v := range values {
		if i, ok := index[v]; ok {
			counts[i].count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, valueCount{value: v, count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
