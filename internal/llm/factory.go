package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/securo/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "gemini", "google", "":
		return NewGeminiProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", config.Provider)
	}
}

// Pinned per-provider models used when none is configured
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-20241022"
)

// DefaultModel returns the model a provider falls back to.
// Ollama has no default: the local model must be named.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini", "google", "":
		return DefaultGeminiModel
	case "openai":
		return DefaultOpenAIModel
	case "anthropic", "claude":
		return DefaultAnthropicModel
	default:
		return ""
	}
}

// ConfigFromModel converts the loaded configuration to llm.Config.
// No client timeout is set; callers bound each call with a context.
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Provider:   llmConfig.Provider,
		Model:      llmConfig.Model,
		APIKey:     llmConfig.APIKey,
		BaseURL:    llmConfig.BaseURL,
		MaxTokens:  llmConfig.MaxTokens,
		HTTPProxy:  httpConfig.HTTPProxy,
		HTTPSProxy: httpConfig.HTTPSProxy,
	}
}

// APIKeyEnv returns the environment variables holding the key for a provider,
// in lookup order. Ollama needs none.
func APIKeyEnv(provider string) []string {
	switch strings.ToLower(provider) {
	case "gemini", "google", "":
		return []string{"GEMINI_API_KEY", "API_KEY"}
	case "openai":
		return []string{"OPENAI_API_KEY"}
	case "anthropic", "claude":
		return []string{"ANTHROPIC_API_KEY"}
	default:
		return nil
	}
}
