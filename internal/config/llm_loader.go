package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/josephgoksu/ContextWing/internal/llm"
)

// LoadLLMConfig loads the embedding provider configuration.
// Precedence: explicit viper config > environment variables > defaults.
func LoadLLMConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = string(llm.DefaultProvider)
	}
	p, err := llm.ValidateProvider(provider)
	if err != nil {
		return llm.Config{}, fmt.Errorf("invalid provider: %w", err)
	}

	baseURL := viper.GetString("llm.base_url")
	if baseURL == "" {
		switch p {
		case llm.ProviderOllama:
			baseURL = llm.DefaultOllamaURL
		case llm.ProviderTEI:
			baseURL = llm.DefaultTEIURL
		}
	}

	model := viper.GetString("llm.embedding_model")
	if model == "" {
		model = llm.DefaultEmbeddingModel(p)
	}

	return llm.Config{
		Provider:       p,
		EmbeddingModel: model,
		APIKey:         ResolveAPIKey(p),
		BaseURL:        baseURL,
		Timeout:        viper.GetDuration("llm.timeout"),
	}, nil
}

// ResolveAPIKey returns the API key for provider: llm.api_keys.<provider>
// first, then the provider's environment variables.
func ResolveAPIKey(provider llm.Provider) string {
	key := fmt.Sprintf("llm.api_keys.%s", provider)
	if viper.IsSet(key) {
		if v := strings.TrimSpace(viper.GetString(key)); v != "" {
			return v
		}
	}
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderGemini:
		if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
			return v
		}
		return strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	default:
		return ""
	}
}
