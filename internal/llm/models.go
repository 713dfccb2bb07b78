package llm

// EmbeddingModel describes a known embedding model.
type EmbeddingModel struct {
	ID         string
	Provider   Provider
	Dimensions int // 0 when it depends on the deployment
	IsDefault  bool
}

// EmbeddingRegistry lists the embedding models the CLI knows about.
var EmbeddingRegistry = []EmbeddingModel{
	{ID: "text-embedding-3-small", Provider: ProviderOpenAI, Dimensions: 1536, IsDefault: true},
	{ID: "text-embedding-3-large", Provider: ProviderOpenAI, Dimensions: 3072},
	{ID: "text-embedding-004", Provider: ProviderGemini, Dimensions: 768, IsDefault: true},
	{ID: "nomic-embed-text", Provider: ProviderOllama, Dimensions: 768, IsDefault: true},
	{ID: "mxbai-embed-large", Provider: ProviderOllama, Dimensions: 1024},
	{ID: "all-minilm", Provider: ProviderOllama, Dimensions: 384},
	{ID: "custom", Provider: ProviderTEI, IsDefault: true},
}

// GetEmbeddingModel returns the registry entry for modelID, or nil.
func GetEmbeddingModel(modelID string) *EmbeddingModel {
	for i := range EmbeddingRegistry {
		if EmbeddingRegistry[i].ID == modelID {
			return &EmbeddingRegistry[i]
		}
	}
	return nil
}

// DefaultEmbeddingModel returns the default model ID for a provider, or ""
// when the provider has no default.
func DefaultEmbeddingModel(p Provider) string {
	for _, m := range EmbeddingRegistry {
		if m.Provider == p && m.IsDefault {
			if m.Dimensions == 0 {
				return ""
			}
			return m.ID
		}
	}
	return ""
}
