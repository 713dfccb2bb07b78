/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/josephgoksu/ContextWing/internal/config"
	"github.com/josephgoksu/ContextWing/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var (
	setProviderModel  string
	setProviderAPIKey string
)

var configSetProviderCmd = &cobra.Command{
	Use:   "set-provider <openai|ollama|gemini|tei>",
	Short: "Save the embedding provider to the global config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.SaveGlobalEmbeddingConfig(args[0], setProviderModel, setProviderAPIKey)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✓ embedding provider saved to "+path))
		return nil
	},
}

// effectiveConfig is the resolved configuration printed by "config show".
type effectiveConfig struct {
	ConfigFile string `yaml:"config_file,omitempty"`
	MemoryPath string `yaml:"memory_path"`
	LLM        struct {
		Provider       string `yaml:"provider"`
		EmbeddingModel string `yaml:"embedding_model,omitempty"`
		BaseURL        string `yaml:"base_url,omitempty"`
		APIKeySet      bool   `yaml:"api_key_set"`
	} `yaml:"llm"`
	Retrieval struct {
		Scoring struct {
			Semantic           float64 `yaml:"semantic"`
			Proximity          float64 `yaml:"proximity"`
			Affinity           float64 `yaml:"affinity"`
			AdversarialPenalty float64 `yaml:"adversarial_penalty"`
		} `yaml:"scoring"`
		Budget struct {
			MaxFiles  int `yaml:"max_files"`
			MaxTokens int `yaml:"max_tokens"`
			MaxDepth  int `yaml:"max_depth"`
		} `yaml:"budget"`
		Timeout string `yaml:"timeout"`
	} `yaml:"retrieval"`
	Eval struct {
		Ks             []int  `yaml:"ks"`
		BaselineMethod string `yaml:"baseline_method"`
	} `yaml:"eval"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var out effectiveConfig
		out.ConfigFile = viper.ConfigFileUsed()
		out.MemoryPath = config.GetMemoryBasePath()

		llmCfg, err := config.LoadLLMConfig()
		if err != nil {
			return err
		}
		out.LLM.Provider = string(llmCfg.Provider)
		out.LLM.EmbeddingModel = llmCfg.EmbeddingModel
		out.LLM.BaseURL = llmCfg.BaseURL
		out.LLM.APIKeySet = llmCfg.APIKey != ""

		rc, err := config.LoadRetrievalConfig()
		if err != nil {
			return err
		}
		out.Retrieval.Scoring.Semantic = rc.Weights.Semantic
		out.Retrieval.Scoring.Proximity = rc.Weights.Proximity
		out.Retrieval.Scoring.Affinity = rc.Weights.Affinity
		out.Retrieval.Scoring.AdversarialPenalty = rc.Weights.AdversarialPenalty
		out.Retrieval.Budget.MaxFiles = rc.Budget.MaxFiles
		out.Retrieval.Budget.MaxTokens = rc.Budget.MaxTokens
		out.Retrieval.Budget.MaxDepth = rc.Budget.Depth()
		out.Retrieval.Timeout = rc.Timeout.String()

		ec, err := config.LoadEvalConfig()
		if err != nil {
			return err
		}
		out.Eval.Ks = ec.Ks
		out.Eval.BaselineMethod = ec.BaselineMethod

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetProviderCmd)
	configCmd.AddCommand(configShowCmd)
	configSetProviderCmd.Flags().StringVar(&setProviderModel, "model", "", "embedding model (default depends on provider)")
	configSetProviderCmd.Flags().StringVar(&setProviderAPIKey, "api-key", "", "API key to store (file mode 0600)")
}
