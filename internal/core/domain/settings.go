package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderHash is the built-in deterministic hash embedder.
	AIProviderHash AIProvider = "hash"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderHash:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHash
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderHash:
		return "Hash (built-in, no model)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// MaxTokens bounds the generated answer length.
	MaxTokens int

	// Temperature controls randomness.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHash {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendNone disables the vector index.
	VectorBackendNone VectorBackend = "none"

	// VectorBackendMemory keeps vectors in process memory.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists vectors in a local SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendQdrant stores vectors in a Qdrant collection over REST.
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendNone, VectorBackendMemory, VectorBackendSQLite, VectorBackendQdrant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendNone:
		return "None (full-text answering only)"
	case VectorBackendMemory:
		return "Memory (process lifetime)"
	case VectorBackendSQLite:
		return "SQLite (local file)"
	case VectorBackendQdrant:
		return "Qdrant (remote)"
	default:
		return unknownDescription
	}
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the implementation.
	Backend VectorBackend

	// Dimension is the embedding vector size.
	Dimension int

	// BatchSize bounds the number of vectors per write.
	BatchSize int

	// DeletePageSize bounds the number of ids enumerated per delete page.
	DeletePageSize int

	// IndexName is the collection or table name.
	IndexName string

	// URL is the remote endpoint (for Qdrant).
	URL string

	// APIKey authenticates against the remote endpoint.
	APIKey string

	// DataDir holds the local database (for SQLite).
	DataDir string
}

// IsConfigured returns true if a backend is selected and has what it needs.
func (v VectorIndexSettings) IsConfigured() bool {
	switch v.Backend {
	case VectorBackendMemory, VectorBackendSQLite:
		return true
	case VectorBackendQdrant:
		return v.URL != ""
	default:
		return false
	}
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	// ChunkSize is the maximum chunk length in tokens.
	ChunkSize int

	// ChunkOverlap is the number of trailing words carried into the next chunk.
	ChunkOverlap int
}

// RetrievalSettings configures search and answering.
type RetrievalSettings struct {
	// SimilarityThreshold is the minimum score considered relevant.
	SimilarityThreshold float64

	// MaxChunks bounds the merged context across questions.
	MaxChunks int

	// TopK is the number of chunks retrieved per question.
	TopK int

	// Timeout bounds every external call.
	Timeout time.Duration

	// RetryAttempts bounds retries of a transient vector-store batch failure.
	RetryAttempts int
}

// DocumentSettings configures document intake.
type DocumentSettings struct {
	// MaxFileSize is the largest accepted document in bytes.
	MaxFileSize int64
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// JWTSecret signs and verifies bearer tokens. Empty disables issuing demo tokens.
	JWTSecret string

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Chunking    ChunkingSettings
	Retrieval   RetrievalSettings
	Documents   DocumentSettings
	Server      ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured; answering runs on the deterministic tiers until one is set.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderHash,
		},
		LLM: LLMSettings{
			MaxTokens:   2048,
			Temperature: 0.1,
		},
		VectorIndex: VectorIndexSettings{
			Backend:        VectorBackendMemory,
			Dimension:      384,
			BatchSize:      100,
			DeletePageSize: 1000,
			IndexName:      "document-processing",
		},
		Chunking: ChunkingSettings{
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Retrieval: RetrievalSettings{
			SimilarityThreshold: 0.7,
			MaxChunks:           10,
			TopK:                5,
			Timeout:             30 * time.Second,
			RetryAttempts:       3,
		},
		Documents: DocumentSettings{
			MaxFileSize: 50 * 1024 * 1024,
		},
		Server: ServerSettings{
			TokenTTL: 30 * time.Minute,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderOllama,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHash,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllVectorBackends returns all vector backends.
func AllVectorBackends() []VectorBackend {
	return []VectorBackend{
		VectorBackendNone,
		VectorBackendMemory,
		VectorBackendSQLite,
		VectorBackendQdrant,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-pro",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHash:   "md5-384",
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"md5-384":                384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
