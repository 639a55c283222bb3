package driven

import "github.com/custodia-labs/docqa-cli/internal/core/domain"

// AIConfigValidator checks provider settings before the settings wizard saves them.
type AIConfigValidator interface {
	// ValidateEmbedding pings the configured embedder.
	// The hash provider needs no check and always passes.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the configured model. An unset provider passes,
	// since answering falls back to the non-model tiers.
	ValidateLLM(config *domain.LLMSettings) error
}
