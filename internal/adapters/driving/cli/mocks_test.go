package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/watcher"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// Mock AnswerService

type mockAnswerService struct {
	questions []string
	corpus    domain.Corpus
	ingested  *domain.RawDocument
	runErr    error
}

func (m *mockAnswerService) Answer(_ context.Context, question string, corpus domain.Corpus) string {
	m.questions = append(m.questions, question)
	m.corpus = corpus
	return "Answer to " + question
}

func (m *mockAnswerService) AnswerBatch(ctx context.Context, questions []string, corpus domain.Corpus) []string {
	answers := make([]string, len(questions))
	for i, q := range questions {
		answers[i] = m.Answer(ctx, q, corpus)
	}
	return answers
}

func (m *mockAnswerService) RunIngested(
	ctx context.Context, raw *domain.RawDocument, questions []string,
) ([]string, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	m.ingested = raw
	return m.AnswerBatch(ctx, questions, domain.Corpus{DocumentName: raw.Name}), nil
}

// Mock SearchService

type mockSearchService struct {
	lastQuery  string
	lastK      int
	lastFilter domain.VectorFilter
	reranked   bool
	results    []domain.SearchResult
}

func (m *mockSearchService) Search(
	_ context.Context, query string, k int, filter domain.VectorFilter,
) []domain.SearchResult {
	m.lastQuery, m.lastK, m.lastFilter = query, k, filter
	return m.results
}

func (m *mockSearchService) SearchWithReranking(
	ctx context.Context, query string, k int, filter domain.VectorFilter,
) []domain.SearchResult {
	m.reranked = true
	return m.Search(ctx, query, k, filter)
}

func (m *mockSearchService) SearchByDocument(
	ctx context.Context, query, documentName string, k int,
) []domain.SearchResult {
	return m.Search(ctx, query, k, domain.VectorFilter{DocumentName: documentName})
}

func (m *mockSearchService) ContextChunks(
	_ context.Context, chunk domain.DocumentChunk, _ int,
) []domain.DocumentChunk {
	return []domain.DocumentChunk{chunk}
}

// Mock DocumentService

type mockDocumentService struct {
	ingested  []*domain.RawDocument
	urls      []string
	deleted   []string
	text      string
	ingestErr error
	deleteErr error
	fetchErr  error
	onIngest  func()
}

func (m *mockDocumentService) Ingest(_ context.Context, raw *domain.RawDocument) (int, error) {
	if m.ingestErr != nil {
		return 0, m.ingestErr
	}
	m.ingested = append(m.ingested, raw)
	if m.onIngest != nil {
		m.onIngest()
	}
	return 4, nil
}

func (m *mockDocumentService) IngestURL(_ context.Context, url, _ string) (int, error) {
	if m.ingestErr != nil {
		return 0, m.ingestErr
	}
	m.urls = append(m.urls, url)
	return 7, nil
}

func (m *mockDocumentService) Fetch(_ context.Context, url string) (*domain.RawDocument, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	m.urls = append(m.urls, url)
	return &domain.RawDocument{
		Name:    domain.DocumentNameFromURL(url),
		Type:    domain.FileTypePDF,
		Content: []byte("%PDF"),
	}, nil
}

func (m *mockDocumentService) LoadText(_ context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error) {
	text := m.text
	if text == "" {
		text = string(raw.Content)
	}
	return &domain.LoadedDocument{Text: text}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, name string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockDocumentService) Stats(context.Context) domain.IndexStats {
	return domain.IndexStats{
		TotalVectorCount: 42,
		Dimension:        384,
		IndexFullness:    0.25,
		Status:           domain.IndexStatusConnected,
	}
}

// Mock DecisionService

type mockDecisionService struct {
	lastQuery string
}

func (m *mockDecisionService) Decide(_ context.Context, query string) domain.DecisionResponse {
	m.lastQuery = query
	page := 3
	amount := 50000.0
	return domain.DecisionResponse{
		Decision:      domain.DecisionApproved,
		Amount:        &amount,
		Justification: "Knee surgery is covered after the waiting period.",
		ReferencedClauses: []domain.ClauseReference{{
			ClauseID:        "policy.pdf_chunk_2",
			ClauseText:      "Surgical procedures are covered.",
			DocumentName:    "policy.pdf",
			PageNumber:      &page,
			ConfidenceScore: 0.87,
		}},
		ConfidenceScore:  0.87,
		ProcessingTimeMs: 12,
	}
}

func (m *mockDecisionService) Explain(d domain.DecisionResponse) string {
	return "\nDecision: " + d.Decision.Label() + "\n"
}

// Mock AnalyzerService

type mockAnalyzerService struct{}

func (m *mockAnalyzerService) Analyze(text string) domain.DocumentAnalysis {
	return domain.DocumentAnalysis{
		DocumentType: domain.DocumentTypeInsurancePolicy,
		MainTopics:   []string{"coverage", "premium"},
		KeySections:  []domain.KeySection{{Name: "Exclusions", Content: "Cosmetic surgery."}},
		Summary:      "A health insurance policy.",
		KeyEntities:  []string{"ACME Insurance"},
		Length:       len(text),
		Structure:    domain.DocumentStructure{Sections: 1, Paragraphs: 2, Sentences: 3, Words: 4},
	}
}

func (m *mockAnalyzerService) Answer(question, _ string, _ *domain.DocumentAnalysis) string {
	return "Analysis answer to " + question
}

func (m *mockAnalyzerService) ClassifyQuestion(string) domain.QuestionType {
	return domain.QuestionWhatIs
}

// Mock ExtractorService

type mockExtractorService struct{}

func (m *mockExtractorService) Extract(context.Context, string) domain.EntityExtraction {
	return domain.EntityExtraction{}
}

func (m *mockExtractorService) GenerateSearchQueries(query string, _ domain.EntityExtraction) []string {
	return []string{query}
}

func (m *mockExtractorService) EnhanceQuery(query string, _ domain.EntityExtraction) string {
	return query
}

// Mock SettingsService

type mockSettingsService struct {
	settings      domain.AppSettings
	validateErr   error
	llmErr        error
	saved         bool
	chunkSize     int
	chunkOverlap  int
	vectorBackend domain.VectorBackend
	vectorURL     string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	m.saved = true
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetVectorBackend(backend domain.VectorBackend, url, apiKey string) error {
	m.vectorBackend = backend
	m.vectorURL = url
	m.settings.VectorIndex.Backend = backend
	m.settings.VectorIndex.URL = url
	m.settings.VectorIndex.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetChunking(chunkSize, chunkOverlap int) error {
	if chunkOverlap >= chunkSize {
		return errors.New("chunk overlap must be smaller than chunk size")
	}
	m.chunkSize, m.chunkOverlap = chunkSize, chunkOverlap
	m.settings.Chunking.ChunkSize = chunkSize
	m.settings.Chunking.ChunkOverlap = chunkOverlap
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.llmErr }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	answer    *mockAnswerService
	search    *mockSearchService
	document  *mockDocumentService
	decision  *mockDecisionService
	analyzer  *mockAnalyzerService
	extractor *mockExtractorService
	settings  *mockSettingsService
}

var mocks *testServices

// setupTestServices installs mocks for every service and returns a cleanup
// that restores the previous services and resets command flags.
func setupTestServices() func() {
	page := 2
	mocks = &testServices{
		answer: &mockAnswerService{},
		search: &mockSearchService{results: []domain.SearchResult{{
			Chunk: domain.DocumentChunk{
				ChunkID:      "policy.pdf_chunk_0",
				DocumentName: "policy.pdf",
				Text:         "The grace period is thirty days.",
				PageNumber:   &page,
			},
			Score: 0.91,
		}}},
		document:  &mockDocumentService{},
		decision:  &mockDecisionService{},
		analyzer:  &mockAnalyzerService{},
		extractor: &mockExtractorService{},
		settings:  newMockSettingsService(),
	}

	oldServices := Services{
		Answer:    answerService,
		Search:    searchService,
		Document:  documentService,
		Decision:  decisionService,
		Analyzer:  analyzerService,
		Extractor: extractorService,
	}
	oldSettings := settingsService
	oldLoader := serviceLoader

	SetServices(&Services{
		Answer:    mocks.answer,
		Search:    mocks.search,
		Document:  mocks.document,
		Decision:  mocks.decision,
		Analyzer:  mocks.analyzer,
		Extractor: mocks.extractor,
	})
	settingsService = mocks.settings
	serviceLoader = nil

	return func() {
		answerService = oldServices.Answer
		searchService = oldServices.Search
		documentService = oldServices.Document
		decisionService = oldServices.Decision
		analyzerService = oldServices.Analyzer
		extractorService = oldServices.Extractor
		settingsService = oldSettings
		serviceLoader = oldLoader
		resetFlags()
	}
}

// resetFlags restores command flag variables to their defaults.
func resetFlags() {
	searchLimit, searchDocument, searchRerank, searchJSON = 5, "", false, false
	indexName = ""
	askDocument, askFile, askURL, askJSON = "", "", "", false
	analyzeQuestion, analyzeJSON = "", false
	decideJSON, decideExplain = false, false
	chatDocument, chatFile = "", ""
	watchInitial, watchDebounce = false, watcher.DefaultDebounce
	tokenSubject = "demo-user"
	serveAddr = ":8000"
	verbose = false
}

// runCommand executes the root command with args and returns its output.
func runCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// runCommandWithInput executes the root command reading stdin from input.
func runCommandWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
