package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure ExtractorService implements the interface.
var _ driving.ExtractorService = (*ExtractorService)(nil)

const (
	maxAge           = 120
	extractMaxTokens = 512
)

var (
	agePattern      = regexp.MustCompile(`(\d{1,3})[-\s]?(?:year|yr|y)?s?[-\s]?old|\b(\d{1,3})[mf]\b|\b(\d{1,3})\s*(?:year|yr|y)\b`)
	malePattern     = regexp.MustCompile(`\b(?:male|man)\b|\b\d+m\b`)
	femalePattern   = regexp.MustCompile(`\b(?:female|woman)\b|\b\d+f\b`)
	durationPattern = regexp.MustCompile(`(\d+)[-\s]?(month|mon|year|yr)s?[-\s]?(?:old\s+)?policy`)
	amountPattern   = regexp.MustCompile(
		`(?:\brs\.?|\binr\b|₹)\s*(\d+(?:,\d+)*(?:\.\d+)?)(?:\s*(lakhs?|lacs?|crores?|cr)\b)?` +
			`|(\d+(?:,\d+)*(?:\.\d+)?)(?:\s*(lakhs?|lacs?|crores?|cr)\b)?\s*(?:\brs\b\.?|\binr\b|₹|\brupees?\b)` +
			`|(\d+(?:\.\d+)?)\s*(lakhs?|lacs?|crores?)\b`)
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// cities are matched longest first so "navi mumbai" wins over "mumbai".
var cities = sortedByLength([]string{
	"mumbai", "delhi", "bangalore", "bengaluru", "hyderabad", "chennai", "kolkata",
	"pune", "ahmedabad", "jaipur", "lucknow", "kanpur", "nagpur",
	"indore", "thane", "bhopal", "visakhapatnam", "pimpri", "patna",
	"vadodara", "ghaziabad", "ludhiana", "agra", "nashik", "faridabad",
	"meerut", "rajkot", "kalyan", "vasai", "varanasi", "srinagar",
	"aurangabad", "dhanbad", "amritsar", "navi mumbai", "allahabad",
	"ranchi", "howrah", "coimbatore", "jabalpur", "gwalior", "vijayawada",
})

// procedures are matched in order; specific phrases precede generic words.
var procedures = []string{
	"knee replacement", "hip replacement", "knee surgery", "heart surgery",
	"cardiac surgery", "bypass surgery", "brain surgery", "eye surgery",
	"cataract surgery", "spine surgery", "cardiac procedure",
	"chemotherapy", "angioplasty", "dialysis", "transplant", "radiation",
	"dental", "orthopedic", "cardiac", "neurological", "oncology",
	"surgery", "operation", "procedure", "treatment", "therapy",
}

// fixedQueries are appended to every expansion.
var fixedQueries = []string{
	"coverage exclusions limitations",
	"eligibility criteria requirements",
	"waiting period pre-existing conditions",
	"claim process approval",
}

var cityPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(cities))
	for i, c := range cities {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(c) + `\b`)
	}
	return out
}()

// ExtractorService parses entities from queries with rules and an optional model pass.
type ExtractorService struct {
	llmService driven.LLMService
	prompts    driven.PromptStore
	timeout    time.Duration
}

// NewExtractorService creates a new extractor.
// The llmService parameter is optional (can be nil); without it only the rules run.
func NewExtractorService(llmService driven.LLMService, prompts driven.PromptStore, timeout time.Duration) *ExtractorService {
	return &ExtractorService{
		llmService: llmService,
		prompts:    prompts,
		timeout:    timeout,
	}
}

// Extract returns the entities found in query.
func (s *ExtractorService) Extract(ctx context.Context, query string) domain.EntityExtraction {
	entities := ExtractRules(query)
	logger.Debug("Rule entities for %q: %s", query, describeEntities(entities))

	if s.llmService == nil || s.prompts == nil {
		return entities
	}

	modelEntities, err := s.extractWithModel(ctx, query)
	if err != nil {
		logger.Debug("Model entity extraction failed, keeping rule result: %v", err)
		return entities
	}
	return entities.Merge(modelEntities)
}

func (s *ExtractorService) extractWithModel(ctx context.Context, query string) (domain.EntityExtraction, error) {
	tmpl, err := s.prompts.Load(driven.PromptEntityExtraction)
	if err != nil {
		return domain.EntityExtraction{}, fmt.Errorf("load prompt: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.llmService.Generate(ctx, fmt.Sprintf(tmpl, query), driven.GenerateOptions{
		MaxTokens: extractMaxTokens,
		JSON:      true,
	})
	if err != nil {
		return domain.EntityExtraction{}, fmt.Errorf("generate: %w", err)
	}
	return ParseModelEntities(out)
}

// GenerateSearchQueries expands query into entity-focused variants followed
// by the fixed queries. The original query is first; duplicates are dropped.
func (s *ExtractorService) GenerateSearchQueries(query string, entities domain.EntityExtraction) []string {
	queries := []string{query}

	if entities.Procedure != nil {
		p := *entities.Procedure
		queries = append(queries, p+" coverage eligibility", p+" insurance policy")
		if entities.Age != nil {
			queries = append(queries, fmt.Sprintf("age %d %s coverage", *entities.Age, p))
		}
	}
	if entities.Location != nil {
		l := *entities.Location
		queries = append(queries, l+" medical coverage", "network hospitals "+l)
	}
	if entities.PolicyDuration != nil {
		d := *entities.PolicyDuration
		queries = append(queries, "waiting period "+d, "policy coverage "+d)
	}
	queries = append(queries, fixedQueries...)

	return dedupe(queries)
}

// EnhanceQuery appends the known entities to query as search terms.
func (s *ExtractorService) EnhanceQuery(query string, entities domain.EntityExtraction) string {
	parts := []string{query}
	if entities.Age != nil {
		parts = append(parts, fmt.Sprintf("age %d", *entities.Age))
	}
	if entities.Gender.IsValid() {
		parts = append(parts, string(entities.Gender))
	}
	if entities.Procedure != nil {
		parts = append(parts, *entities.Procedure)
	}
	if entities.Location != nil {
		parts = append(parts, "location "+*entities.Location)
	}
	if entities.PolicyDuration != nil {
		parts = append(parts, "policy "+*entities.PolicyDuration)
	}
	return strings.Join(parts, " ")
}

// ExtractRules runs the deterministic pass over query.
func ExtractRules(query string) domain.EntityExtraction {
	var e domain.EntityExtraction
	q := strings.ToLower(query)

	// A policy duration such as "1 yr policy" would otherwise read as an age.
	if m := durationPattern.FindStringSubmatch(q); m != nil {
		e.PolicyDuration = domain.Ptr(formatDuration(m[1], m[2]))
	}
	withoutDuration := durationPattern.ReplaceAllString(q, " ")

	if m := agePattern.FindStringSubmatch(withoutDuration); m != nil {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			if n, err := strconv.Atoi(g); err == nil && n <= maxAge {
				e.Age = domain.Ptr(n)
			}
			break
		}
	}

	switch {
	case malePattern.MatchString(q):
		e.Gender = domain.GenderMale
	case femalePattern.MatchString(q):
		e.Gender = domain.GenderFemale
	}

	for i, re := range cityPatterns {
		if re.MatchString(q) {
			e.Location = domain.Ptr(titleCase(cities[i]))
			break
		}
	}

	for _, p := range procedures {
		if strings.Contains(q, p) {
			e.Procedure = domain.Ptr(p)
			break
		}
	}

	if m := amountPattern.FindStringSubmatch(q); m != nil {
		for i := 1; i < len(m); i += 2 {
			if m[i] == "" {
				continue
			}
			if v, ok := parseAmount(m[i], m[i+1]); ok {
				e.Amount = domain.Ptr(v)
			}
			break
		}
	}

	return e
}

// formatDuration renders "<n> months" or "<n> years", singular for one.
func formatDuration(number, unit string) string {
	switch unit {
	case "mon":
		unit = "month"
	case "yr":
		unit = "year"
	}
	n, _ := strconv.Atoi(number)
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// parseAmount converts a matched number and optional Indian multiplier to rupees.
func parseAmount(number, multiplier string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	switch {
	case strings.HasPrefix(multiplier, "lakh"), strings.HasPrefix(multiplier, "lac"):
		v *= 1e5
	case strings.HasPrefix(multiplier, "cr"):
		v *= 1e7
	}
	return v, true
}

// modelEntities mirrors the JSON object the extraction prompt asks for.
// Fields are loosely typed because models return numbers as strings and
// "null" as text.
type modelEntities struct {
	Age            any `json:"age"`
	Gender         any `json:"gender"`
	Procedure      any `json:"procedure"`
	Location       any `json:"location"`
	PolicyDuration any `json:"policy_duration"`
	PolicyType     any `json:"policy_type"`
	Amount         any `json:"amount"`
	Date           any `json:"date"`
}

// ParseModelEntities decodes the first JSON object in a model response.
// Null, "null" and empty values are treated as absent.
// Output without a decodable object returns domain.ErrUnparsableResponse.
func ParseModelEntities(text string) (domain.EntityExtraction, error) {
	raw := jsonObjectPattern.FindString(text)
	if raw == "" {
		return domain.EntityExtraction{}, fmt.Errorf("%w: no JSON object", domain.ErrUnparsableResponse)
	}

	var m modelEntities
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return domain.EntityExtraction{}, fmt.Errorf("%w: %v", domain.ErrUnparsableResponse, err)
	}

	var e domain.EntityExtraction
	if v, ok := asNumber(m.Age); ok && v >= 0 && v <= maxAge {
		e.Age = domain.Ptr(int(v))
	}
	if g, ok := asString(m.Gender); ok {
		if gender := domain.Gender(strings.ToLower(g)); gender.IsValid() {
			e.Gender = gender
		}
	}
	if v, ok := asString(m.Procedure); ok {
		e.Procedure = domain.Ptr(v)
	}
	if v, ok := asString(m.Location); ok {
		e.Location = domain.Ptr(v)
	}
	if v, ok := asString(m.PolicyDuration); ok {
		e.PolicyDuration = domain.Ptr(v)
	}
	if v, ok := asString(m.PolicyType); ok {
		e.PolicyType = domain.Ptr(v)
	}
	if v, ok := asNumber(m.Amount); ok && v >= 0 {
		e.Amount = domain.Ptr(v)
	}
	if v, ok := asString(m.Date); ok {
		e.Date = domain.Ptr(v)
	}
	return e, nil
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		if t == "" || strings.EqualFold(t, "null") {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s, ok := asString(t)
		if !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sortedByLength(items []string) []string {
	out := append([]string(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// describeEntities renders the set fields for logs and prompts.
func describeEntities(e domain.EntityExtraction) string {
	var parts []string
	if e.Age != nil {
		parts = append(parts, fmt.Sprintf("age=%d", *e.Age))
	}
	if e.Gender.IsValid() {
		parts = append(parts, "gender="+string(e.Gender))
	}
	if e.Procedure != nil {
		parts = append(parts, "procedure="+*e.Procedure)
	}
	if e.Location != nil {
		parts = append(parts, "location="+*e.Location)
	}
	if e.PolicyDuration != nil {
		parts = append(parts, "policy_duration="+*e.PolicyDuration)
	}
	if e.PolicyType != nil {
		parts = append(parts, "policy_type="+*e.PolicyType)
	}
	if e.Amount != nil {
		parts = append(parts, "amount="+strconv.FormatFloat(*e.Amount, 'f', -1, 64))
	}
	if e.Date != nil {
		parts = append(parts, "date="+*e.Date)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
