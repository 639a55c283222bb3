package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyLLMTemperature  = "llm.temperature"
	keyVectorBackend   = "vector.backend"
	keyVectorDimension = "vector.dimension"
	keyVectorBatch     = "vector.batch_size"
	keyVectorDelPage   = "vector.delete_page_size"
	keyVectorIndexName = "vector.index_name"
	keyVectorURL       = "vector.url"
	keyVectorAPIKey    = "vector.api_key"
	keyVectorDataDir   = "vector.data_dir"
	keyChunkSize       = "chunking.chunk_size"
	keyChunkOverlap    = "chunking.chunk_overlap"
	keySimilarity      = "retrieval.similarity_threshold"
	keyMaxChunks       = "retrieval.max_chunks"
	keyTopK            = "retrieval.top_k"
	keyTimeout         = "retrieval.timeout"
	keyRetryAttempts   = "retrieval.retry_attempts"
	keyMaxFileSize     = "documents.max_file_size"
	keyJWTSecret       = "server.jwt_secret"
	keyTokenTTL        = "server.token_ttl"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvLLMAPIKey       = "DOCQA_LLM_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvQdrantURL       = "QDRANT_URL"
	EnvQdrantAPIKey    = "QDRANT_API_KEY"
	EnvJWTSecret       = "DOCQA_JWT_SECRET"
)

// providerKeyEnv maps a provider to the environment variable holding its API key.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderGemini:    EnvGeminiAPIKey,
	domain.AIProviderOpenAI:    EnvOpenAIAPIKey,
	domain.AIProviderAnthropic: EnvAnthropicAPIKey,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithGetenv replaces the environment lookup, for tests.
func WithGetenv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		s.getenv = getenv
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads the persisted settings, falling back to defaults per key.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend:        s.getBackend(defaults.VectorIndex.Backend),
			Dimension:      s.getInt(keyVectorDimension, defaults.VectorIndex.Dimension),
			BatchSize:      s.getInt(keyVectorBatch, defaults.VectorIndex.BatchSize),
			DeletePageSize: s.getInt(keyVectorDelPage, defaults.VectorIndex.DeletePageSize),
			IndexName:      s.getString(keyVectorIndexName, defaults.VectorIndex.IndexName),
			URL:            s.configStore.GetString(keyVectorURL),
			APIKey:         s.configStore.GetString(keyVectorAPIKey),
			DataDir:        s.configStore.GetString(keyVectorDataDir),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize:    s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, defaults.Chunking.ChunkOverlap),
		},
		Retrieval: domain.RetrievalSettings{
			SimilarityThreshold: s.getFloat(keySimilarity, defaults.Retrieval.SimilarityThreshold),
			MaxChunks:           s.getInt(keyMaxChunks, defaults.Retrieval.MaxChunks),
			TopK:                s.getInt(keyTopK, defaults.Retrieval.TopK),
			Timeout:             s.getDuration(keyTimeout, defaults.Retrieval.Timeout),
			RetryAttempts:       s.getInt(keyRetryAttempts, defaults.Retrieval.RetryAttempts),
		},
		Documents: domain.DocumentSettings{
			MaxFileSize: int64(s.getInt(keyMaxFileSize, int(defaults.Documents.MaxFileSize))),
		},
		Server: domain.ServerSettings{
			JWTSecret: s.configStore.GetString(keyJWTSecret),
			TokenTTL:  s.getDuration(keyTokenTTL, defaults.Server.TokenTTL),
		},
	}
}

// applyEnv overlays environment variables. DOCQA_LLM_API_KEY always wins;
// a provider's own key variable only fills an empty key.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if settings.LLM.APIKey == "" {
		if env, ok := providerKeyEnv[settings.LLM.Provider]; ok {
			settings.LLM.APIKey = s.getenv(env)
		}
	}
	if key := s.getenv(EnvLLMAPIKey); key != "" {
		settings.LLM.APIKey = key
	}

	if settings.Embedding.APIKey == "" {
		if env, ok := providerKeyEnv[settings.Embedding.Provider]; ok {
			settings.Embedding.APIKey = s.getenv(env)
		}
	}

	if url := s.getenv(EnvQdrantURL); url != "" {
		settings.VectorIndex.URL = url
	}
	if key := s.getenv(EnvQdrantAPIKey); key != "" {
		settings.VectorIndex.APIKey = key
	}
	if secret := s.getenv(EnvJWTSecret); secret != "" {
		settings.Server.JWTSecret = secret
	}
}

// Save persists application settings. Empty secrets are not written, so a
// key held only in the environment never reaches the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyVectorBackend, settings.VectorIndex.Backend.String()},
		{keyVectorDimension, settings.VectorIndex.Dimension},
		{keyVectorBatch, settings.VectorIndex.BatchSize},
		{keyVectorDelPage, settings.VectorIndex.DeletePageSize},
		{keyVectorIndexName, settings.VectorIndex.IndexName},
		{keyVectorURL, settings.VectorIndex.URL},
		{keyVectorDataDir, settings.VectorIndex.DataDir},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.ChunkOverlap},
		{keySimilarity, settings.Retrieval.SimilarityThreshold},
		{keyMaxChunks, settings.Retrieval.MaxChunks},
		{keyTopK, settings.Retrieval.TopK},
		{keyTimeout, settings.Retrieval.Timeout.String()},
		{keyRetryAttempts, settings.Retrieval.RetryAttempts},
		{keyMaxFileSize, settings.Documents.MaxFileSize},
		{keyTokenTTL, settings.Server.TokenTTL.String()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key   string
		value string
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyVectorAPIKey, settings.VectorIndex.APIKey},
		{keyJWTSecret, settings.Server.JWTSecret},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.getenv(providerKeyEnv[provider]) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, provider, domain.DefaultEmbeddingModels())
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	// Keep the index dimension in step with the model
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.VectorIndex.Dimension = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || !contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" &&
		s.getenv(providerKeyEnv[provider]) == "" && s.getenv(EnvLLMAPIKey) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, provider, domain.DefaultLLMModels())
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetVectorBackend selects the vector index backend.
func (s *SettingsService) SetVectorBackend(backend domain.VectorBackend, url, apiKey string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid vector backend: %s", backend)
	}
	if backend == domain.VectorBackendQdrant && url == "" && s.getenv(EnvQdrantURL) == "" {
		return fmt.Errorf("URL required for %s", backend)
	}

	settings := s.stored()
	settings.VectorIndex.Backend = backend
	settings.VectorIndex.URL = url
	settings.VectorIndex.APIKey = apiKey

	return s.Save(settings)
}

// SetChunking updates chunk size and overlap.
func (s *SettingsService) SetChunking(chunkSize, chunkOverlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive: %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return fmt.Errorf("chunk overlap must be in [0, %d): %d", chunkSize, chunkOverlap)
	}

	settings := s.stored()
	settings.Chunking.ChunkSize = chunkSize
	settings.Chunking.ChunkOverlap = chunkOverlap

	return s.Save(settings)
}

// Validate checks the current settings for consistency.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not fully configured", settings.LLM.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not fully configured", settings.Embedding.Provider)
	}
	if settings.VectorIndex.Backend == domain.VectorBackendQdrant && !settings.VectorIndex.IsConfigured() {
		return fmt.Errorf("vector backend %q requires a URL", settings.VectorIndex.Backend)
	}
	if settings.Chunking.ChunkOverlap >= settings.Chunking.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d",
			settings.Chunking.ChunkOverlap, settings.Chunking.ChunkSize)
	}
	if t := settings.Retrieval.SimilarityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("similarity threshold must be in [0, 1]: %g", t)
	}
	if settings.Retrieval.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", settings.Retrieval.Timeout)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getFloat treats a stored zero as a real value.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat64(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	backend := domain.VectorBackend(s.configStore.GetString(keyVectorBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func modelOrDefault(model string, provider domain.AIProvider, defaults map[domain.AIProvider]string) string {
	if model != "" {
		return model
	}
	return defaults[provider]
}

// baseURLFor keeps a custom endpoint for local providers and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

func contains[T comparable](items []T, want T) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
