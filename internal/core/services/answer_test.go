package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

const gracePeriodQuestion = "What is the grace period for premium payment?"

func newTestAnswers(index *mockIndex, llm *mockLLM) *AnswerService {
	var model driven.LLMService
	if llm != nil {
		model = llm
	}
	search := NewSearchService(index, NewExtractorService(nil, nil, 0))
	return NewAnswerService(search, newTestDocuments(index, nil, 0), NewAnalyzerService(),
		model, &mockPrompts{}, domain.DefaultAppSettings())
}

func claimsIndex() *mockIndex {
	return newMockIndex(
		chunk("policy.pdf", 0, "Star Health will settle claims within fifteen days."),
		chunk("policy.pdf", 1, "Claims shall be filed within seven days of discharge."),
		chunk("policy.pdf", 2, "Room rent is capped at one percent."),
		chunk("other.pdf", 0, "Claims are never settled."),
	)
}

func TestAnswerService_GracePeriodRule(t *testing.T) {
	svc := newTestAnswers(newMockIndex(), nil)

	answer := svc.Answer(context.Background(), gracePeriodQuestion, domain.Corpus{})
	assert.Contains(t, answer, "thirty days")
	assert.True(t, strings.HasPrefix(answer, "A grace period of thirty days is provided"))
}

func TestAnswerService_KeywordTier(t *testing.T) {
	svc := newTestAnswers(newMockIndex(), nil)

	answer := svc.Answer(context.Background(), "When will claims be settled?", domain.Corpus{Text: policyDoc})
	assert.Equal(t, "Star Health will settle claims within fifteen days. Claims shall be filed within seven days of discharge.", answer)
}

func TestAnswerService_IndexedMode(t *testing.T) {
	index := claimsIndex()
	svc := newTestAnswers(index, nil)

	answer := svc.Answer(context.Background(), "When will claims be settled?", domain.Corpus{DocumentName: "policy.pdf"})
	assert.Equal(t, "Star Health will settle claims within fifteen days. Claims shall be filed within seven days of discharge.", answer)
	assert.NotEmpty(t, index.queries)
}

func TestAnswerService_ModelTier(t *testing.T) {
	t.Run("indexed context", func(t *testing.T) {
		llm := &mockLLM{response: "Answer: Claims are settled within fifteen days."}
		svc := newTestAnswers(claimsIndex(), llm)

		answer := svc.Answer(context.Background(), "When will claims be settled?", domain.Corpus{DocumentName: "policy.pdf"})
		assert.Equal(t, "Claims are settled within fifteen days.", answer)

		require.Len(t, llm.prompts, 1)
		assert.Contains(t, llm.prompts[0], "[Context 1] (Document: policy.pdf, Relevance: 0.50)")
		assert.NotContains(t, llm.prompts[0], "other.pdf")
		assert.True(t, strings.HasSuffix(llm.prompts[0], "QUESTION: When will claims be settled?"))
		assert.Equal(t, 2048, llm.opts[0].MaxTokens)
		assert.InDelta(t, 0.1, llm.opts[0].Temperature, 1e-9)
	})

	t.Run("full text context", func(t *testing.T) {
		llm := &mockLLM{response: "Fifteen days."}
		svc := newTestAnswers(newMockIndex(), llm)

		assert.Equal(t, "Fifteen days.", svc.Answer(context.Background(), "When are claims settled?", domain.Corpus{Text: policyDoc}))
		assert.Contains(t, llm.prompts[0], policyDoc)
	})

	t.Run("failures fall through", func(t *testing.T) {
		for name, llm := range map[string]*mockLLM{
			"error":   {err: errors.New("quota exceeded")},
			"empty":   {response: "  answer:  "},
			"refusal": {response: "The information is not available in the document."},
			"unable":  {response: "I am unable to answer."},
		} {
			t.Run(name, func(t *testing.T) {
				svc := newTestAnswers(newMockIndex(), llm)
				answer := svc.Answer(context.Background(), "When will claims be settled?", domain.Corpus{Text: policyDoc})
				assert.True(t, strings.HasPrefix(answer, "Star Health will settle claims"))
				assert.Equal(t, 1, llm.calls())
			})
		}
	})
}

func TestAnswerService_AnalyzerTier(t *testing.T) {
	svc := newTestAnswers(newMockIndex(), nil)

	answer := svc.Answer(context.Background(), "What is this document about?", domain.Corpus{Text: policyDoc})
	assert.True(t, strings.HasPrefix(answer, "This is an insurance policy document"))
}

func TestAnswerService_ContentQuestionsUseKeywordTier(t *testing.T) {
	svc := newTestAnswers(newMockIndex(), nil)
	doc := "The premium is payable every year by the insured person. " +
		"Room rent limit is capped at one percent of the sum insured per day. " +
		"Intensive care charges are capped at two percent of the sum insured."
	want := "Room rent limit is capped at one percent of the sum insured per day."

	for _, q := range []string{
		"What is the room rent limit under this policy?",
		"What is the room rent limit under the policy?",
		"What is the room rent limit described in this document?",
	} {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, want, svc.Answer(context.Background(), q, domain.Corpus{Text: doc}))
		})
	}
}

func TestAnswerService_GenericTier(t *testing.T) {
	svc := newTestAnswers(newMockIndex(), nil)

	assert.Equal(t, domain.GenericAnswer, svc.Answer(context.Background(), "Is dental covered?", domain.Corpus{}))
	assert.Equal(t, domain.GenericAnswer, svc.Answer(context.Background(), "   ", domain.Corpus{Text: policyDoc}))
}

func TestAnswerService_AnswerBatch(t *testing.T) {
	svc := newTestAnswers(newMockIndex(), nil)
	questions := []string{
		"When will claims be settled?",
		"",
		gracePeriodQuestion,
		"Is dental covered?",
		"What is this document about?",
	}
	corpus := domain.Corpus{Text: policyDoc}

	answers := svc.AnswerBatch(context.Background(), questions, corpus)
	require.Len(t, answers, len(questions))
	for i, a := range answers {
		assert.NotEmpty(t, strings.TrimSpace(a), "answer %d", i)
	}
	assert.True(t, strings.HasPrefix(answers[0], "Star Health will settle claims"))
	assert.Equal(t, domain.GenericAnswer, answers[1])
	assert.Contains(t, answers[2], "thirty days")
	assert.True(t, strings.HasPrefix(answers[4], "This is an insurance policy document"))

	// Without a model the cascade is deterministic.
	assert.Equal(t, answers, svc.AnswerBatch(context.Background(), questions, corpus))
}

func TestAnswerService_AnswerBatch_Empty(t *testing.T) {
	svc := newTestAnswers(newMockIndex(), nil)
	assert.Empty(t, svc.AnswerBatch(context.Background(), nil, domain.Corpus{}))
}

func TestAnswerService_RunIngested(t *testing.T) {
	questions := []string{"When does the grace period end?", "Are pre-existing diseases covered?"}
	expected := []string{
		"Grace period is thirty days from the due date.",
		"Pre-existing diseases are covered after thirty six months.",
	}

	t.Run("indexes and cleans up", func(t *testing.T) {
		index := newMockIndex()
		answers, err := newTestAnswers(index, nil).RunIngested(context.Background(), textDoc("notes.txt", notesText), questions)
		require.NoError(t, err)
		assert.Equal(t, expected, answers)

		require.Len(t, index.deleted, 1)
		assert.True(t, strings.HasPrefix(index.deleted[0], "tmp_"))
		assert.True(t, strings.HasSuffix(index.deleted[0], "_notes.txt"))
		assert.Empty(t, index.documentNames())
	})

	t.Run("falls back to full text", func(t *testing.T) {
		index := newMockIndex()
		index.storeFails = true
		answers, err := newTestAnswers(index, nil).RunIngested(context.Background(), textDoc("notes.txt", notesText), questions)
		require.NoError(t, err)
		assert.Equal(t, expected, answers)
		require.Len(t, index.deleted, 1)
		assert.True(t, strings.HasPrefix(index.deleted[0], "tmp_"))
	})

	t.Run("removes partially stored chunks", func(t *testing.T) {
		index := newMockIndex()
		index.storePartly = true
		answers, err := newTestAnswers(index, nil).RunIngested(context.Background(), textDoc("notes.txt", notesText), questions)
		require.NoError(t, err)
		assert.Equal(t, expected, answers)

		require.Len(t, index.deleted, 1)
		assert.True(t, strings.HasSuffix(index.deleted[0], "_notes.txt"))
		assert.Empty(t, index.documentNames(), "no temporary chunks may outlive the request")
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc := newTestAnswers(newMockIndex(), nil)
		_, err := svc.RunIngested(context.Background(), &domain.RawDocument{Name: "a.xls", Type: "xls"}, questions)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)

		_, err = svc.RunIngested(context.Background(), nil, questions)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestRuleStrategy(t *testing.T) {
	s := &ruleStrategy{rules: defaultRules()}
	ctx := context.Background()

	tests := []struct {
		question string
		contains string
	}{
		{gracePeriodQuestion, "thirty days"},
		{"What is the waiting period for pre-existing diseases?", "thirty-six (36) months"},
		{"Does this policy cover maternity expenses?", "24 months"},
		{"What is the waiting period for cataract surgery?", "two (2) years"},
		{"Are the medical expenses for an organ donor covered?", "Transplantation of Human Organs Act, 1994"},
		{"What is the No Claim Discount (NCD) offered?", "5%"},
		{"Is there a benefit for preventive health check-ups?", "two continuous policy years"},
		{"How is a Hospital defined in the policy?", "10 inpatient beds"},
		{"What is the extent of coverage for AYUSH treatments?", "AYUSH Hospital"},
		{"Are there any sub-limits on room rent and ICU charges for Plan A?", "1% of the Sum Insured"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			answer, err := s.Answer(ctx, tt.question, domain.AnswerContext{})
			require.NoError(t, err)
			assert.Contains(t, answer, tt.contains)
		})
	}

	_, err := s.Answer(ctx, "Is dental covered?", domain.AnswerContext{Text: policyDoc})
	assert.ErrorIs(t, err, domain.ErrNoAnswer)
}

func TestParseRules(t *testing.T) {
	assert.Len(t, defaultRules(), 10)

	_, err := parseRules([]byte("rules: ["))
	assert.Error(t, err)

	_, err = parseRules([]byte("rules:\n  - name: broken\n    question: '(unclosed'\n    answer: x\n"))
	assert.Error(t, err)

	_, err = parseRules([]byte("rules:\n  - name: empty\n    question: 'x'\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKeywordStrategy_Fallback(t *testing.T) {
	s := &keywordStrategy{analyzer: NewAnalyzerService()}
	in := domain.AnswerContext{Text: "EXCLUSIONS. Dental treatment and cosmetic surgery are excluded from cover. " +
		"Spectacles and hearing aids are not reimbursed under any plan."}

	answer, err := s.Answer(context.Background(), "Zzzz qqqq?", in)
	require.NoError(t, err)
	assert.Equal(t, "Dental treatment and cosmetic surgery are excluded from cover. "+
		"Spectacles and hearing aids are not reimbursed under any plan.", answer)

	_, err = s.Answer(context.Background(), "Zzzz qqqq?", domain.AnswerContext{Text: "Too short."})
	assert.ErrorIs(t, err, domain.ErrNoAnswer)
}

type panicStrategy struct{}

func (panicStrategy) Tier() domain.AnswerTier { return domain.AnswerTierKeyword }

func (panicStrategy) Answer(context.Context, string, domain.AnswerContext) (string, error) {
	panic("boom")
}

func TestRunStrategy_RecoversPanics(t *testing.T) {
	_, err := runStrategy(context.Background(), panicStrategy{}, "q", domain.AnswerContext{})
	assert.ErrorContains(t, err, "boom")
}
