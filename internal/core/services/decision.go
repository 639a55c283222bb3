package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure DecisionService implements the interface.
var _ driving.DecisionService = (*DecisionService)(nil)

const (
	decisionCandidates   = 10
	decisionContextLimit = 5
	maxClauses           = 3
	clauseTextLimit      = 500
	highScore            = 0.8
	fallbackConfidence   = 0.1

	fallbackJustification = "Unable to process the request due to technical issues. Please review manually."
	missingJustification  = "Unable to determine based on available information"
)

// DecisionService turns a coverage query into a structured decision.
type DecisionService struct {
	extractor  driving.ExtractorService
	search     driving.SearchService
	llmService driven.LLMService
	prompts    driven.PromptStore
	settings   domain.LLMSettings
	timeout    time.Duration
}

// NewDecisionService creates a new decision service.
// Without an LLM every decision is needs_review.
func NewDecisionService(
	extractor driving.ExtractorService,
	search driving.SearchService,
	llmService driven.LLMService,
	prompts driven.PromptStore,
	settings domain.AppSettings,
) *DecisionService {
	return &DecisionService{
		extractor:  extractor,
		search:     search,
		llmService: llmService,
		prompts:    prompts,
		settings:   settings.LLM,
		timeout:    settings.Retrieval.Timeout,
	}
}

// Decide extracts entities, retrieves supporting clauses and asks the model for a decision.
func (s *DecisionService) Decide(ctx context.Context, query string) domain.DecisionResponse {
	logger.Section("Decision")
	start := time.Now()

	entities := s.extractor.Extract(ctx, query)
	results := s.search.SearchWithReranking(ctx, query, decisionCandidates, domain.VectorFilter{})
	logger.Debug("Decision context: %d results, entities: %s", len(results), describeEntities(entities))

	resp := s.decide(ctx, query, entities, results)
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	return resp
}

func (s *DecisionService) decide(
	ctx context.Context, query string, entities domain.EntityExtraction, results []domain.SearchResult,
) domain.DecisionResponse {
	if s.llmService == nil || s.prompts == nil {
		logger.Debug("No LLM configured, decision needs review")
		return fallbackDecision(entities)
	}

	verdict, err := s.askModel(ctx, query, entities, results)
	if err != nil {
		logger.Warn("Decision generation failed: %v", err)
		return fallbackDecision(entities)
	}

	return domain.DecisionResponse{
		Decision:          verdict.Decision,
		Amount:            verdict.Amount,
		Justification:     verdict.Justification,
		ReferencedClauses: clauseReferences(results),
		ExtractedEntities: entities,
		ConfidenceScore:   confidence(results, verdict.Decision),
	}
}

func (s *DecisionService) askModel(
	ctx context.Context, query string, entities domain.EntityExtraction, results []domain.SearchResult,
) (modelVerdict, error) {
	tmpl, err := s.prompts.Load(driven.PromptDecision)
	if err != nil {
		return modelVerdict{}, fmt.Errorf("load prompt: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(tmpl, query, entityBlock(entities), decisionContext(results))
	out, err := s.llmService.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
		JSON:        true,
	})
	if err != nil {
		return modelVerdict{}, fmt.Errorf("generate: %w", err)
	}
	return parseVerdict(out)
}

// modelVerdict is the decision part of a model response.
type modelVerdict struct {
	Decision      domain.Decision
	Amount        *float64
	Justification string
}

// parseVerdict decodes the first JSON object in text. Unknown decisions
// become needs_review.
func parseVerdict(text string) (modelVerdict, error) {
	obj := jsonObjectPattern.FindString(text)
	if obj == "" {
		return modelVerdict{}, fmt.Errorf("%w: no JSON object", domain.ErrUnparsableResponse)
	}

	var raw struct {
		Decision      string `json:"decision"`
		Amount        any    `json:"amount"`
		Justification string `json:"justification"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return modelVerdict{}, fmt.Errorf("%w: %v", domain.ErrUnparsableResponse, err)
	}

	v := modelVerdict{
		Decision:      domain.Decision(strings.ToLower(strings.TrimSpace(raw.Decision))),
		Justification: strings.TrimSpace(raw.Justification),
	}
	if !v.Decision.IsValid() {
		v.Decision = domain.DecisionNeedsReview
	}
	if v.Justification == "" {
		v.Justification = missingJustification
	}
	if n, ok := asNumber(raw.Amount); ok && n >= 0 {
		v.Amount = domain.Ptr(n)
	}
	return v, nil
}

func fallbackDecision(entities domain.EntityExtraction) domain.DecisionResponse {
	return domain.DecisionResponse{
		Decision:          domain.DecisionNeedsReview,
		Justification:     fallbackJustification,
		ReferencedClauses: []domain.ClauseReference{},
		ExtractedEntities: entities,
		ConfidenceScore:   fallbackConfidence,
	}
}

func entityBlock(e domain.EntityExtraction) string {
	str := func(p *string) string {
		if p == nil {
			return "unknown"
		}
		return *p
	}
	age, gender, amount := "unknown", "unknown", "unknown"
	if e.Age != nil {
		age = strconv.Itoa(*e.Age)
	}
	if e.Gender.IsValid() {
		gender = string(e.Gender)
	}
	if e.Amount != nil {
		amount = strconv.FormatFloat(*e.Amount, 'f', -1, 64)
	}
	return strings.Join([]string{
		"- Age: " + age,
		"- Gender: " + gender,
		"- Procedure: " + str(e.Procedure),
		"- Location: " + str(e.Location),
		"- Policy Duration: " + str(e.PolicyDuration),
		"- Amount: " + amount,
	}, "\n")
}

func decisionContext(results []domain.SearchResult) string {
	if len(results) > decisionContextLimit {
		results = results[:decisionContextLimit]
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		page := "N/A"
		if r.Chunk.PageNumber != nil {
			page = strconv.Itoa(*r.Chunk.PageNumber)
		}
		parts = append(parts, fmt.Sprintf("[Document: %s] [Page: %s] [Similarity: %.3f]\n%s\n",
			r.Chunk.DocumentName, page, r.Score, r.Chunk.Text))
	}
	return strings.Join(parts, "\n")
}

func clauseReferences(results []domain.SearchResult) []domain.ClauseReference {
	if len(results) > maxClauses {
		results = results[:maxClauses]
	}
	refs := make([]domain.ClauseReference, 0, len(results))
	for _, r := range results {
		text := r.Chunk.Text
		if len([]rune(text)) > clauseTextLimit {
			text = truncate(text, clauseTextLimit) + "..."
		}
		refs = append(refs, domain.ClauseReference{
			ClauseID:        fmt.Sprintf("clause_%s_%d", r.Chunk.DocumentName, r.Chunk.Index),
			ClauseText:      text,
			DocumentName:    r.Chunk.DocumentName,
			PageNumber:      r.Chunk.PageNumber,
			ConfidenceScore: r.Score,
		})
	}
	return refs
}

// confidence scales the best similarity by how decisive the verdict is and
// how many results strongly support it.
func confidence(results []domain.SearchResult, decision domain.Decision) float64 {
	base := 0.5
	if len(results) > 0 {
		base = results[0].Score
	}

	var multiplier float64
	switch decision {
	case domain.DecisionApproved:
		multiplier = 0.9
	case domain.DecisionRejected:
		multiplier = 0.85
	default:
		multiplier = 0.6
	}

	high := 0
	for _, r := range results {
		if r.Score > highScore {
			high++
		}
	}
	switch {
	case high >= 2:
		multiplier *= 1.1
	case high == 0:
		multiplier *= 0.8
	}

	return math.Round(min(1.0, base*multiplier)*1000) / 1000
}

// Explain renders d as plain text.
func (s *DecisionService) Explain(d domain.DecisionResponse) string {
	var parts []string

	e := d.ExtractedEntities
	if e.Age != nil || e.Gender.IsValid() || e.Procedure != nil {
		var about []string
		switch {
		case e.Age != nil && e.Gender.IsValid():
			about = append(about, fmt.Sprintf("%d-year-old %s", *e.Age, e.Gender))
		case e.Age != nil:
			about = append(about, fmt.Sprintf("%d-year-old patient", *e.Age))
		case e.Gender.IsValid():
			about = append(about, fmt.Sprintf("%s patient", e.Gender))
		}
		if e.Procedure != nil {
			about = append(about, "seeking "+*e.Procedure)
		}
		if e.Location != nil {
			about = append(about, "in "+*e.Location)
		}
		parts = append(parts, "Based on the query about "+strings.Join(about, ", ")+":")
	}

	parts = append(parts, "\n"+d.Decision.Label())
	if d.Amount != nil && *d.Amount != 0 {
		parts = append(parts, "Amount: ₹"+formatAmount(*d.Amount))
	}
	parts = append(parts,
		"\nReason: "+d.Justification,
		fmt.Sprintf("\nConfidence: %.1f%%", d.ConfidenceScore*100),
	)

	if len(d.ReferencedClauses) > 0 {
		docs := make([]string, 0, len(d.ReferencedClauses))
		for _, c := range d.ReferencedClauses {
			docs = append(docs, c.DocumentName)
		}
		parts = append(parts, "\nReferenced Documents: "+strings.Join(dedupe(docs), ", "))
	}

	return strings.Join(parts, "\n")
}

// formatAmount renders v with two decimals and comma thousands separators.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
