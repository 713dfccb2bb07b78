package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/josephgoksu/ContextWing/internal/llm"
)

// GlobalConfigFile is the global config file name under GetGlobalConfigDir.
const GlobalConfigFile = "config.yaml"

// SaveGlobalEmbeddingConfig writes the embedding provider, model and
// optional API key to the global config file, keeping other keys.
func SaveGlobalEmbeddingConfig(provider, model, apiKey string) (string, error) {
	p, err := llm.ValidateProvider(provider)
	if err != nil {
		return "", err
	}
	if model == "" {
		model = llm.DefaultEmbeddingModel(p)
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, GlobalConfigFile)

	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	v.Set("llm.provider", string(p))
	if model != "" {
		v.Set("llm.embedding_model", model)
	}
	if apiKey != "" {
		v.Set(fmt.Sprintf("llm.api_keys.%s", p), apiKey)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if apiKey != "" {
		// The file holds a secret.
		if err := os.Chmod(path, 0600); err != nil {
			return "", fmt.Errorf("restrict %s: %w", path, err)
		}
	}
	return path, nil
}
