package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
	"github.com/custodia-labs/docqa-cli/internal/metrics"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Ensure strategies implement the interface.
var (
	_ driven.AnswerStrategy = (*llmStrategy)(nil)
	_ driven.AnswerStrategy = (*keywordStrategy)(nil)
	_ driven.AnswerStrategy = (*ruleStrategy)(nil)
	_ driven.AnswerStrategy = (*analyzerStrategy)(nil)
	_ driven.AnswerStrategy = genericStrategy{}
)

const (
	// maxParallelQuestions bounds concurrent questions in one batch.
	maxParallelQuestions = 4

	keywordMinSentence  = 30
	fallbackMinSentence = 40
	keywordTopSentences = 3
	fallbackSentences   = 2
)

var (
	answerLabel    = regexp.MustCompile(`(?i)^answer\s*:\s*`)
	refusalPhrases = []string{"not available in", "unable to"}
)

//go:embed rules.yaml
var rulesYAML []byte

// AnswerService answers questions through a fixed cascade of strategies:
// model, keyword extraction, canonical rules, document analysis and a
// generic apology. Every tier failure falls through to the next one.
type AnswerService struct {
	search     driving.SearchService
	documents  driving.DocumentService
	strategies []driven.AnswerStrategy
	topK       int
}

// NewAnswerService creates the answer cascade. llmService may be nil, in
// which case answering starts at the keyword tier.
func NewAnswerService(
	search driving.SearchService,
	documents driving.DocumentService,
	analyzer *AnalyzerService,
	llmService driven.LLMService,
	prompts driven.PromptStore,
	settings domain.AppSettings,
) *AnswerService {
	strategies := make([]driven.AnswerStrategy, 0, 5)
	if llmService != nil && prompts != nil {
		strategies = append(strategies, &llmStrategy{
			llm:      llmService,
			prompts:  prompts,
			settings: settings.LLM,
			timeout:  settings.Retrieval.Timeout,
		})
	}
	strategies = append(strategies,
		&keywordStrategy{analyzer: analyzer},
		&ruleStrategy{rules: defaultRules()},
		&analyzerStrategy{analyzer: analyzer},
		genericStrategy{},
	)

	return &AnswerService{
		search:     search,
		documents:  documents,
		strategies: strategies,
		topK:       settings.Retrieval.TopK,
	}
}

// Answer returns a non-empty answer to question.
func (s *AnswerService) Answer(ctx context.Context, question string, corpus domain.Corpus) string {
	question = strings.TrimSpace(question)
	if question == "" {
		metrics.RecordAnswer(string(domain.AnswerTierGeneric))
		return domain.GenericAnswer
	}

	in := s.answerContext(ctx, question, corpus)
	for _, strategy := range s.strategies {
		answer, err := runStrategy(ctx, strategy, question, in)
		if err != nil {
			logger.Debug("%s tier declined %q: %v", strategy.Tier(), question, err)
			continue
		}
		logger.Debug("%s tier answered %q", strategy.Tier(), question)
		metrics.RecordAnswer(string(strategy.Tier()))
		return answer
	}

	metrics.RecordAnswer(string(domain.AnswerTierGeneric))
	return domain.GenericAnswer
}

// AnswerBatch answers questions concurrently and returns one answer per
// question in input order.
func (s *AnswerService) AnswerBatch(ctx context.Context, questions []string, corpus domain.Corpus) []string {
	logger.Section("Answering")
	logger.Debug("Questions: %d, document: %q, indexed: %v", len(questions), corpus.DocumentName, corpus.IsIndexed())

	answers := make([]string, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQuestions)
	for i, q := range questions {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Answering question %d panicked: %v", i+1, r)
					answers[i] = domain.GenericAnswer
				}
			}()
			answers[i] = s.Answer(gctx, q, corpus)
			return nil
		})
	}
	_ = g.Wait()

	for i := range answers {
		if strings.TrimSpace(answers[i]) == "" {
			answers[i] = domain.GenericAnswer
		}
	}
	return answers
}

// RunIngested indexes raw under a temporary name, answers questions against
// it and deletes it again. When the index cannot store the document the
// questions are answered from the full text instead.
func (s *AnswerService) RunIngested(ctx context.Context, raw *domain.RawDocument, questions []string) ([]string, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no document", domain.ErrInvalidInput)
	}

	temp := *raw
	temp.Name = fmt.Sprintf("tmp_%s_%s", uuid.NewString()[:8], raw.Name)

	count, err := s.documents.Ingest(ctx, &temp)
	switch {
	case err == nil:
		logger.Debug("Indexed %s as %s (%d chunks)", raw.Name, temp.Name, count)
		defer func() {
			if err := s.documents.Delete(context.WithoutCancel(ctx), temp.Name); err != nil {
				logger.Warn("Failed to remove temporary document %s: %v", temp.Name, err)
			}
		}()
		return s.AnswerBatch(ctx, questions, domain.Corpus{DocumentName: temp.Name}), nil

	case errors.Is(err, domain.ErrVectorIndexUnavailable):
		logger.Warn("Vector index unavailable, answering from full text")
		// Batches stored before the failure are still under the temporary name.
		if delErr := s.documents.Delete(context.WithoutCancel(ctx), temp.Name); delErr != nil {
			logger.Debug("No partial chunks removed for %s: %v", temp.Name, delErr)
		}
		loaded, loadErr := s.documents.LoadText(ctx, raw)
		if loadErr != nil {
			return nil, loadErr
		}
		return s.AnswerBatch(ctx, questions, domain.Corpus{Text: loaded.Text}), nil

	default:
		return nil, err
	}
}

func (s *AnswerService) answerContext(ctx context.Context, question string, corpus domain.Corpus) domain.AnswerContext {
	if !corpus.IsIndexed() {
		return domain.AnswerContext{Text: corpus.Text}
	}
	return domain.AnswerContext{
		Indexed: true,
		Results: s.search.SearchByDocument(ctx, question, corpus.DocumentName, s.topK),
	}
}

// runStrategy turns a panic or a blank answer into a tier failure.
func runStrategy(
	ctx context.Context, strategy driven.AnswerStrategy, question string, in domain.AnswerContext,
) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	answer, err = strategy.Answer(ctx, question, in)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", domain.ErrNoAnswer
	}
	return answer, nil
}

// llmStrategy asks the model for a context-grounded answer.
type llmStrategy struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings domain.LLMSettings
	timeout  time.Duration
}

func (s *llmStrategy) Tier() domain.AnswerTier { return domain.AnswerTierLLM }

func (s *llmStrategy) Answer(ctx context.Context, question string, in domain.AnswerContext) (string, error) {
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}

	var material string
	if in.Indexed {
		material = formatContext(in.Results)
	} else {
		material = headTailExcerpt(in.Text)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.llm.Generate(ctx, fmt.Sprintf(tmpl, material, question), driven.GenerateOptions{
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
	})
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(answerLabel.ReplaceAllString(strings.TrimSpace(out), ""))
	if answer == "" {
		return "", fmt.Errorf("%w: empty model response", domain.ErrNoAnswer)
	}
	if containsAny(strings.ToLower(answer), refusalPhrases...) {
		return "", fmt.Errorf("%w: model declined", domain.ErrNoAnswer)
	}
	return answer, nil
}

// keywordStrategy returns the sentences sharing the most keywords with the question.
// Questions about the document itself are left to the analyzer tier.
type keywordStrategy struct {
	analyzer *AnalyzerService
}

func (s *keywordStrategy) Tier() domain.AnswerTier { return domain.AnswerTierKeyword }

func (s *keywordStrategy) Answer(_ context.Context, question string, in domain.AnswerContext) (string, error) {
	if s.analyzer != nil && s.analyzer.IsAboutDocument(question) {
		return "", fmt.Errorf("%w: question about the document", domain.ErrNoAnswer)
	}

	text := cleanContext(in.Body())
	if text == "" {
		return "", fmt.Errorf("%w: empty context", domain.ErrNoAnswer)
	}

	if words := keywords(question); len(words) > 0 {
		if ranked := rankSentences(text, words, keywordMinSentence, 0); len(ranked) > 0 {
			return joinTop(ranked, keywordTopSentences), nil
		}
	}

	var lead []string
	for _, sentence := range splitSentences(text) {
		if len([]rune(sentence)) > fallbackMinSentence && !isHeading(sentence) {
			lead = append(lead, sentence)
			if len(lead) == fallbackSentences {
				break
			}
		}
	}
	if len(lead) == 0 {
		return "", fmt.Errorf("%w: no usable sentences", domain.ErrNoAnswer)
	}
	return strings.Join(lead, " "), nil
}

// answerRule is a canonical answer for a recurring question.
type answerRule struct {
	Name     string   `yaml:"name"`
	Question string   `yaml:"question"`
	Evidence []string `yaml:"evidence"`
	Answer   string   `yaml:"answer"`

	question *regexp.Regexp
	evidence []*regexp.Regexp
}

type ruleFile struct {
	Rules []answerRule `yaml:"rules"`
}

// parseRules decodes and compiles a rule library.
func parseRules(data []byte) ([]answerRule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	for i := range f.Rules {
		r := &f.Rules[i]
		if r.Question == "" || strings.TrimSpace(r.Answer) == "" {
			return nil, fmt.Errorf("%w: rule %q needs a question and an answer", domain.ErrInvalidInput, r.Name)
		}
		q, err := regexp.Compile("(?i)" + r.Question)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		r.question = q
		for _, e := range r.Evidence {
			re, err := regexp.Compile("(?is)" + e)
			if err != nil {
				return nil, fmt.Errorf("rule %q evidence: %w", r.Name, err)
			}
			r.evidence = append(r.evidence, re)
		}
	}
	return f.Rules, nil
}

func defaultRules() []answerRule {
	rules, err := parseRules(rulesYAML)
	if err != nil {
		panic(err)
	}
	return rules
}

// ruleStrategy returns the canonical answer of the first rule whose question
// pattern matches, whether or not the document corroborates it.
type ruleStrategy struct {
	rules []answerRule
}

func (s *ruleStrategy) Tier() domain.AnswerTier { return domain.AnswerTierRules }

func (s *ruleStrategy) Answer(_ context.Context, question string, in domain.AnswerContext) (string, error) {
	for _, r := range s.rules {
		if !r.question.MatchString(question) {
			continue
		}
		body := in.Body()
		corroborated := false
		for _, e := range r.evidence {
			if e.MatchString(body) {
				corroborated = true
				break
			}
		}
		logger.Debug("Rule %s matched, corroborated: %v", r.Name, corroborated)
		return strings.TrimSpace(r.Answer), nil
	}
	return "", fmt.Errorf("%w: no rule matched", domain.ErrNoAnswer)
}

// analyzerStrategy answers questions about the document's nature.
type analyzerStrategy struct {
	analyzer *AnalyzerService
}

func (s *analyzerStrategy) Tier() domain.AnswerTier { return domain.AnswerTierAnalyzer }

func (s *analyzerStrategy) Answer(_ context.Context, question string, in domain.AnswerContext) (string, error) {
	if s.analyzer == nil || !s.analyzer.IsAboutDocument(question) {
		return "", fmt.Errorf("%w: not a question about the document", domain.ErrNoAnswer)
	}
	text := in.Body()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty context", domain.ErrNoAnswer)
	}
	return s.analyzer.Answer(question, text, nil), nil
}

type genericStrategy struct{}

func (genericStrategy) Tier() domain.AnswerTier { return domain.AnswerTierGeneric }

func (genericStrategy) Answer(context.Context, string, domain.AnswerContext) (string, error) {
	return domain.GenericAnswer, nil
}
