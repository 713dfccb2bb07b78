package llm

// Provider identifies an embedding provider.
type Provider string

const (
	// ProviderOpenAI represents the OpenAI embeddings API
	ProviderOpenAI Provider = "openai"

	// ProviderOllama represents a local Ollama server
	ProviderOllama Provider = "ollama"

	// ProviderGemini represents the Google Gemini API
	ProviderGemini Provider = "gemini"

	// ProviderTEI represents Text Embeddings Inference.
	// See: https://github.com/huggingface/text-embeddings-inference
	ProviderTEI Provider = "tei"
)

// DefaultProvider is used when no provider is configured.
const DefaultProvider = ProviderOpenAI

// DefaultOllamaURL is the default URL for Ollama server
const DefaultOllamaURL = "http://localhost:11434"

// DefaultTEIURL is the default URL for TEI server
const DefaultTEIURL = "http://localhost:8080"
