package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func newTestSettings(t *testing.T, env map[string]string) (*SettingsService, *memory.ConfigStore) {
	t.Helper()
	store := memory.NewConfigStore()
	return NewSettingsService(store, nil, WithGetenv(envMap(env))), store
}

type stubValidator struct {
	embeddingErr error
	llmErr       error
	gotLLM       *domain.LLMSettings
}

func (v *stubValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return v.embeddingErr }

func (v *stubValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	v.gotLLM = cfg
	return v.llmErr
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettings(t, nil)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider":                   "gemini",
		"llm.model":                      "gemini-1.5-flash",
		"llm.temperature":                0.0,
		"vector.backend":                 "sqlite",
		"vector.data_dir":                "/tmp/docqa",
		"chunking.chunk_size":            int64(300),
		"retrieval.similarity_threshold": 0.5,
		"retrieval.timeout":              "10s",
		"server.token_ttl":               int64(120),
		"documents.max_file_size":        int64(1024),
	})
	service := NewSettingsService(store, nil, WithGetenv(envMap(nil)))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderGemini, settings.LLM.Provider)
	assert.Equal(t, "gemini-1.5-flash", settings.LLM.Model)
	assert.Zero(t, settings.LLM.Temperature, "stored zero is kept")
	assert.Equal(t, domain.VectorBackendSQLite, settings.VectorIndex.Backend)
	assert.Equal(t, "/tmp/docqa", settings.VectorIndex.DataDir)
	assert.Equal(t, 300, settings.Chunking.ChunkSize)
	assert.Equal(t, 50, settings.Chunking.ChunkOverlap)
	assert.InDelta(t, 0.5, settings.Retrieval.SimilarityThreshold, 1e-9)
	assert.Equal(t, 10*time.Second, settings.Retrieval.Timeout)
	assert.Equal(t, 2*time.Minute, settings.Server.TokenTTL)
	assert.Equal(t, int64(1024), settings.Documents.MaxFileSize)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider":      "invalid_provider",
		"vector.backend":    "pinecone",
		"retrieval.timeout": "soon",
	})
	service := NewSettingsService(store, nil, WithGetenv(envMap(nil)))

	settings, err := service.Get()
	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.VectorIndex.Backend, settings.VectorIndex.Backend)
	assert.Equal(t, defaults.Retrieval.Timeout, settings.Retrieval.Timeout)
}

func TestSettingsService_EnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		stored  map[string]any
		env     map[string]string
		wantLLM string
		wantEmb string
	}{
		{
			name:    "provider key fills empty llm key",
			stored:  map[string]any{"llm.provider": "gemini"},
			env:     map[string]string{EnvGeminiAPIKey: "g-key"},
			wantLLM: "g-key",
		},
		{
			name:    "stored key beats provider key",
			stored:  map[string]any{"llm.provider": "openai", "llm.api_key": "stored"},
			env:     map[string]string{EnvOpenAIAPIKey: "env"},
			wantLLM: "stored",
		},
		{
			name:    "docqa key beats everything",
			stored:  map[string]any{"llm.provider": "anthropic", "llm.api_key": "stored"},
			env:     map[string]string{EnvLLMAPIKey: "override", EnvAnthropicAPIKey: "other"},
			wantLLM: "override",
		},
		{
			name:    "openai key fills embedding key",
			stored:  map[string]any{"embedding.provider": "openai"},
			env:     map[string]string{EnvOpenAIAPIKey: "sk-env"},
			wantEmb: "sk-env",
		},
		{
			name:   "local provider ignores env",
			stored: map[string]any{"llm.provider": "ollama"},
			env:    map[string]string{EnvOpenAIAPIKey: "sk-env"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(tt.stored), nil, WithGetenv(envMap(tt.env)))
			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.wantLLM, settings.LLM.APIKey)
			assert.Equal(t, tt.wantEmb, settings.Embedding.APIKey)
		})
	}
}

func TestSettingsService_EnvOverrides_VectorAndServer(t *testing.T) {
	service, _ := newTestSettings(t, map[string]string{
		EnvQdrantURL:    "http://qdrant:6333",
		EnvQdrantAPIKey: "q-key",
		EnvJWTSecret:    "jwt-secret",
	})

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "http://qdrant:6333", settings.VectorIndex.URL)
	assert.Equal(t, "q-key", settings.VectorIndex.APIKey)
	assert.Equal(t, "jwt-secret", settings.Server.JWTSecret)
}

func TestSettingsService_EnvKeysAreNotPersisted(t *testing.T) {
	service, store := newTestSettings(t, map[string]string{
		EnvGeminiAPIKey: "g-key",
		EnvJWTSecret:    "jwt-secret",
	})

	require.NoError(t, service.SetLLMProvider(domain.AIProviderGemini, "", ""))
	require.NoError(t, service.SetChunking(400, 40))

	_, ok := store.Get("llm.api_key")
	assert.False(t, ok)
	_, ok = store.Get("server.jwt_secret")
	assert.False(t, ok)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "g-key", settings.LLM.APIKey)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	service, store := newTestSettings(t, nil)

	want := domain.DefaultAppSettings()
	want.LLM = domain.LLMSettings{
		Provider:    domain.AIProviderAnthropic,
		Model:       "claude-3-5-sonnet-latest",
		APIKey:      "sk-ant-test",
		MaxTokens:   1024,
		Temperature: 0.3,
	}
	want.VectorIndex.Backend = domain.VectorBackendQdrant
	want.VectorIndex.URL = "http://localhost:6333"
	want.Retrieval.Timeout = 45 * time.Second
	want.Server.JWTSecret = "s3cret"

	require.NoError(t, service.Save(&want))
	assert.Equal(t, "45s", store.GetString("retrieval.timeout"))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	tests := []struct {
		name      string
		provider  domain.AIProvider
		model     string
		apiKey    string
		wantModel string
		wantURL   string
		wantErr   bool
	}{
		{"ollama default model", domain.AIProviderOllama, "", "", "llama3.2", "http://localhost:11434", false},
		{"gemini custom model", domain.AIProviderGemini, "gemini-1.5-pro", "key", "gemini-1.5-pro", "", false},
		{"openai default", domain.AIProviderOpenAI, "", "key", "gpt-4o-mini", "", false},
		{"missing key", domain.AIProviderAnthropic, "", "", "", "", true},
		{"hash is not an llm", domain.AIProviderHash, "", "", "", "", true},
		{"unknown", domain.AIProvider("mystery"), "", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestSettings(t, nil)
			err := service.SetLLMProvider(tt.provider, tt.model, tt.apiKey)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.LLM.Provider)
			assert.Equal(t, tt.wantModel, settings.LLM.Model)
			assert.Equal(t, tt.wantURL, settings.LLM.BaseURL)
		})
	}
}

func TestSettingsService_SetLLMProvider_KeyFromEnv(t *testing.T) {
	service, _ := newTestSettings(t, map[string]string{EnvAnthropicAPIKey: "env-key"})
	require.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", ""))
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("updates dimension", func(t *testing.T) {
		service, _ := newTestSettings(t, nil)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
		assert.Equal(t, 3072, settings.VectorIndex.Dimension)
	})

	t.Run("ollama default", func(t *testing.T) {
		service, _ := newTestSettings(t, nil)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "all-minilm", settings.Embedding.Model)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
		assert.Equal(t, 384, settings.VectorIndex.Dimension)
	})

	t.Run("rejected", func(t *testing.T) {
		service, _ := newTestSettings(t, nil)
		assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key"))
		assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
		assert.Error(t, service.SetEmbeddingProvider(domain.AIProvider("bogus"), "", ""))
	})
}

func TestSettingsService_SetVectorBackend(t *testing.T) {
	service, _ := newTestSettings(t, nil)

	assert.Error(t, service.SetVectorBackend(domain.VectorBackend("pinecone"), "", ""))
	assert.Error(t, service.SetVectorBackend(domain.VectorBackendQdrant, "", ""))

	require.NoError(t, service.SetVectorBackend(domain.VectorBackendQdrant, "http://q:6333", "k"))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.VectorBackendQdrant, settings.VectorIndex.Backend)
	assert.Equal(t, "http://q:6333", settings.VectorIndex.URL)
	assert.Equal(t, "k", settings.VectorIndex.APIKey)

	require.NoError(t, service.SetVectorBackend(domain.VectorBackendNone, "", ""))
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.VectorBackendNone, settings.VectorIndex.Backend)
}

func TestSettingsService_SetChunking(t *testing.T) {
	service, _ := newTestSettings(t, nil)

	assert.Error(t, service.SetChunking(0, 0))
	assert.Error(t, service.SetChunking(100, 100))
	assert.Error(t, service.SetChunking(100, -1))

	require.NoError(t, service.SetChunking(200, 20))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.ChunkingSettings{ChunkSize: 200, ChunkOverlap: 20}, settings.Chunking)
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		stored  map[string]any
		wantErr bool
	}{
		{"defaults", nil, false},
		{"llm without key", map[string]any{"llm.provider": "openai"}, true},
		{"llm with key", map[string]any{"llm.provider": "openai", "llm.api_key": "k"}, false},
		{"embedding without key", map[string]any{"embedding.provider": "openai"}, true},
		{"qdrant without url", map[string]any{"vector.backend": "qdrant"}, true},
		{"overlap too large", map[string]any{"chunking.chunk_size": 10, "chunking.chunk_overlap": 10}, true},
		{"threshold out of range", map[string]any{"retrieval.similarity_threshold": 1.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(tt.stored), nil, WithGetenv(envMap(nil)))
			err := service.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsService_ValidateConfigs(t *testing.T) {
	t.Run("no validator", func(t *testing.T) {
		service, _ := newTestSettings(t, nil)
		assert.NoError(t, service.ValidateLLMConfig())
		assert.NoError(t, service.ValidateEmbeddingConfig())
	})

	t.Run("delegates with env applied", func(t *testing.T) {
		validator := &stubValidator{llmErr: domain.ErrLLMUnavailable, embeddingErr: errors.New("down")}
		store := memory.NewConfigStore(map[string]any{"llm.provider": "gemini"})
		service := NewSettingsService(store, validator, WithGetenv(envMap(map[string]string{EnvGeminiAPIKey: "g"})))

		assert.ErrorIs(t, service.ValidateLLMConfig(), domain.ErrLLMUnavailable)
		require.NotNil(t, validator.gotLLM)
		assert.Equal(t, "g", validator.gotLLM.APIKey)
		assert.EqualError(t, service.ValidateEmbeddingConfig(), "down")
	})
}
