package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/josephgoksu/ContextWing/internal/eval"
)

// EvalConfig controls retrieval quality reports.
type EvalConfig struct {
	Ks             []int
	BaselineMethod string
	// Targets is nil unless eval.targets.k is set.
	Targets *eval.Targets
}

// LoadEvalConfig loads evaluation settings from viper.
func LoadEvalConfig() (EvalConfig, error) {
	cfg := EvalConfig{
		Ks:             append([]int(nil), eval.DefaultKs...),
		BaselineMethod: getStringWithDefault("eval.baseline_method", "raw-embedding"),
	}
	if viper.IsSet("eval.ks") {
		cfg.Ks = viper.GetIntSlice("eval.ks")
		for _, k := range cfg.Ks {
			if k <= 0 {
				return cfg, fmt.Errorf("eval.ks: cutoff %d must be positive", k)
			}
		}
	}
	if viper.IsSet("eval.targets.k") {
		var t eval.Targets
		if err := viper.UnmarshalKey("eval.targets", &t); err != nil {
			return cfg, fmt.Errorf("eval.targets: %w", err)
		}
		if t.K <= 0 {
			return cfg, fmt.Errorf("eval.targets.k must be positive")
		}
		cfg.Targets = &t
	}
	return cfg, nil
}
