// Package llm creates embedding providers using CloudWeGo Eino and
// estimates token costs. Embeddings are treated as a black box by the rest
// of the module: everything downstream sees an embedding.Embedder.
package llm

import (
	"context"
	"fmt"
	"time"

	geminiEmbed "github.com/cloudwego/eino-ext/components/embedding/gemini"
	ollamaEmbed "github.com/cloudwego/eino-ext/components/embedding/ollama"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"

	"github.com/josephgoksu/ContextWing/internal/llm/providers/tei"
)

// Config holds configuration for creating an embedder.
type Config struct {
	Provider       Provider
	EmbeddingModel string
	APIKey         string // OpenAI and Gemini
	BaseURL        string // Ollama and TEI
	Timeout        time.Duration
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(p) {
	case ProviderOpenAI, ProviderOllama, ProviderGemini, ProviderTEI:
		return Provider(p), nil
	default:
		return "", fmt.Errorf("unsupported provider: %s (supported: openai, ollama, gemini, tei)", p)
	}
}

// NewEmbedder creates an embedder for the configured provider.
func NewEmbedder(ctx context.Context, cfg Config) (embedding.Embedder, error) {
	modelName := cfg.EmbeddingModel
	if modelName == "" {
		modelName = DefaultEmbeddingModel(cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			Model:  modelName,
			APIKey: cfg.APIKey,
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollamaEmbed.NewEmbedder(ctx, &ollamaEmbed.EmbeddingConfig{
			BaseURL: baseURL,
			Model:   modelName,
		})

	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return geminiEmbed.NewEmbedder(ctx, &geminiEmbed.EmbeddingConfig{
			Client: client,
			Model:  modelName,
		})

	case ProviderTEI:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultTEIURL
		}
		return tei.NewEmbedder(ctx, &tei.Config{
			BaseURL: baseURL,
			Model:   cfg.EmbeddingModel,
			Timeout: cfg.Timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}

// EmbedTexts embeds texts and converts the result to float32 vectors.
func EmbedTexts(ctx context.Context, e embedding.Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("generate embeddings: got %d vectors for %d texts", len(vectors), len(texts))
	}
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		vec := make([]float32, len(v))
		for j, x := range v {
			vec[j] = float32(x)
		}
		out[i] = vec
	}
	return out, nil
}
