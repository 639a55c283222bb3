// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	hashembed "github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding/hash"
	ollamaembed "github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/llm"
	anthropicllm "github.com/custodia-labs/docqa-cli/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/docqa-cli/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docqa-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
// A nil LLMService means answering runs on the deterministic tiers for the
// lifetime of the process.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues that caused fallback.
}

// Close releases all resources held by InitResult.
// The vector index owns the embedding service and closes it.
func (r *InitResult) Close() {
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	} else if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedder, the vector index and the LLM from settings.
// It never fails: every unavailable capability degrades and adds a warning.
func Init(settings domain.AppSettings) *InitResult {
	result := &InitResult{}

	embedder, warnings := NewEmbedding(settings.Embedding, settings.VectorIndex.Dimension)
	result.EmbeddingService = embedder
	result.Warnings = append(result.Warnings, warnings...)

	result.VectorIndex = vectorindex.New(settings.VectorIndex, settings.Retrieval, embedder)

	llmSvc, warnings := NewLLM(settings.LLM, settings.Retrieval.Timeout)
	result.LLMService = llmSvc
	result.Warnings = append(result.Warnings, warnings...)

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}

	return result
}

// NewEmbedding creates the configured embedding service and pings it once.
// Anything other than a reachable provider falls back to the hash embedder.
func NewEmbedding(settings domain.EmbeddingSettings, dimension int) (driven.EmbeddingService, []string) {
	fallback := func(reason error) (driven.EmbeddingService, []string) {
		return hashembed.NewEmbeddingService(dimension), []string{
			fmt.Sprintf("%v: %v; using the built-in hash embedder", domain.ErrEmbeddingUnavailable, reason),
		}
	}

	if settings.Provider == "" || settings.Provider == domain.AIProviderHash {
		return hashembed.NewEmbeddingService(dimension), nil
	}

	svc, err := CreateAndValidateEmbeddingService(&settings)
	if err != nil {
		return fallback(err)
	}
	if svc == nil {
		return fallback(fmt.Errorf("provider %s is not configured", settings.Provider))
	}
	return svc, nil
}

// NewLLM creates the configured LLM, pings it once and wraps it for resilience.
// It returns nil with a warning when the provider is absent or unreachable.
func NewLLM(settings domain.LLMSettings, timeout time.Duration) (driven.LLMService, []string) {
	if settings.Provider == "" {
		return nil, nil
	}

	svc, err := CreateAndValidateLLMService(&settings)
	if err != nil {
		return nil, []string{err.Error()}
	}
	if svc == nil {
		return nil, []string{fmt.Sprintf("%v: provider %s is not configured", domain.ErrLLMUnavailable, settings.Provider)}
	}

	return llm.NewResilient(svc, llm.Options{Timeout: timeout}), nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings llm' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(settings)
	if svc != nil {
		svc.Close()
	}
	return err
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(settings)
	if svc != nil {
		svc.Close()
	}
	return err
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHash:
		return hashembed.NewEmbeddingService(domain.EmbeddingDimensions()[settings.Model]), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderAnthropic, domain.AIProviderGemini:
		return nil, fmt.Errorf("%s embeddings are not supported, use hash, ollama or openai", settings.Provider)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}
