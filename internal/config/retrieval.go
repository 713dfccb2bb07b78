package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/josephgoksu/ContextWing/internal/knowledge"
	"github.com/josephgoksu/ContextWing/internal/relevance"
	"github.com/josephgoksu/ContextWing/internal/scoring"
)

// RetrievalConfig holds every tunable of the retrieval pipeline.
type RetrievalConfig struct {
	Weights scoring.Weights
	Budget  relevance.Budget
	Tiering relevance.TieringConfig
	Index   knowledge.Config

	// Timeout bounds each retrieval call made by the engine.
	Timeout time.Duration
	// GraphWorkers bounds the parallel graph build; 0 uses GOMAXPROCS.
	GraphWorkers int
	// LearningQueueSize is the learned-missing persistence queue length.
	LearningQueueSize int
}

// DefaultRetrievalConfig returns the default retrieval configuration.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Weights:           scoring.DefaultWeights(),
		Budget:            relevance.DefaultBudget(),
		Tiering:           relevance.DefaultTieringConfig(),
		Index:             knowledge.DefaultConfig(),
		Timeout:           10 * time.Second,
		GraphWorkers:      0,
		LearningQueueSize: 64,
	}
}

// LoadRetrievalConfig loads retrieval configuration from viper with
// defaults. Scoring weights are validated; everything else is normalised
// by its consumer.
func LoadRetrievalConfig() (RetrievalConfig, error) {
	d := DefaultRetrievalConfig()

	cfg := RetrievalConfig{
		Weights: scoring.Weights{
			Semantic:           getFloat64WithDefault("retrieval.scoring.semantic", d.Weights.Semantic),
			Proximity:          getFloat64WithDefault("retrieval.scoring.proximity", d.Weights.Proximity),
			Affinity:           getFloat64WithDefault("retrieval.scoring.affinity", d.Weights.Affinity),
			AdversarialPenalty: getFloat64WithDefault("retrieval.scoring.adversarial_penalty", d.Weights.AdversarialPenalty),
		},
		Budget: relevance.Budget{
			MaxFiles:  getIntWithDefault("retrieval.budget.max_files", d.Budget.MaxFiles),
			MaxTokens: getIntWithDefault("retrieval.budget.max_tokens", d.Budget.MaxTokens),
			MaxDepth:  relevance.DepthLimit(getIntWithDefault("retrieval.budget.max_depth", d.Budget.Depth())),
		},
		Tiering: relevance.TieringConfig{
			TierShare:              getFloat64WithDefault("retrieval.tiering.tier_share", d.Tiering.TierShare),
			EssentialOverride:      getFloat64WithDefault("retrieval.tiering.essential_override", d.Tiering.EssentialOverride),
			ContextualOverride:     getFloat64WithDefault("retrieval.tiering.contextual_override", d.Tiering.ContextualOverride),
			MinEssentialConfidence: getFloat64WithDefault("retrieval.tiering.min_essential_confidence", d.Tiering.MinEssentialConfidence),
			LearnedConfidence:      getFloat64WithDefault("retrieval.tiering.learned_confidence", d.Tiering.LearnedConfidence),
		},
		Index: knowledge.Config{
			MinConfidence:  getFloat64WithDefault("retrieval.index.min_confidence", d.Index.MinConfidence),
			QueryCacheSize: getIntWithDefault("retrieval.index.query_cache_size", d.Index.QueryCacheSize),
			EmbedBatchSize: getIntWithDefault("retrieval.index.embed_batch_size", d.Index.EmbedBatchSize),
			EmbedWorkers:   getIntWithDefault("retrieval.index.embed_workers", d.Index.EmbedWorkers),
		},
		Timeout:           getDurationWithDefault("retrieval.timeout", d.Timeout),
		GraphWorkers:      getIntWithDefault("retrieval.graph_workers", d.GraphWorkers),
		LearningQueueSize: getIntWithDefault("retrieval.learning.queue_size", d.LearningQueueSize),
	}

	if err := cfg.Weights.Validate(); err != nil {
		return cfg, fmt.Errorf("retrieval.scoring: %w", err)
	}
	return cfg, nil
}

// Helper functions for viper with defaults

func getFloat64WithDefault(key string, defaultVal float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return defaultVal
}

func getIntWithDefault(key string, defaultVal int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultVal
}

func getStringWithDefault(key string, defaultVal string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultVal
}

func getDurationWithDefault(key string, defaultVal time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return defaultVal
}
