package ai

import (
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings for the settings wizard.
type ConfigValidator struct{}

// NewConfigValidator returns a validator that pings providers once per call.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the embedder. The hash embedder is local and skips the check.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config != nil && config.Provider == domain.AIProviderHash {
		return nil
	}
	return ValidateEmbeddingConfig(config)
}

// ValidateLLM pings the answering model.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}
