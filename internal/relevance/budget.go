package relevance

import (
	"fmt"
	"math"
)

const defaultMaxDepth = 2

// Budget limits the size of a relevance result. Every field is optional:
// non-positive limits and a nil depth take the defaults. Use DepthLimit to
// request a depth, including L0.
type Budget struct {
	MaxFiles  int  `json:"max_files" mapstructure:"max_files"`
	MaxTokens int  `json:"max_tokens" mapstructure:"max_tokens"`
	MaxDepth  *int `json:"max_depth,omitempty" mapstructure:"max_depth"`
}

// DepthLimit returns a depth for Budget.MaxDepth.
func DepthLimit(depth int) *int {
	return &depth
}

// DefaultBudget returns the budget used when a request leaves fields unset.
func DefaultBudget() Budget {
	return Budget{MaxFiles: 20, MaxTokens: 40000, MaxDepth: DepthLimit(defaultMaxDepth)}
}

// Depth returns the requested depth, or the default depth when unset.
func (b Budget) Depth() int {
	if b.MaxDepth == nil {
		return defaultMaxDepth
	}
	return *b.MaxDepth
}

// Normalize fills unset fields from defaults. A negative depth counts as
// unset.
func (b Budget) Normalize(defaults Budget) Budget {
	if b.MaxFiles <= 0 {
		b.MaxFiles = defaults.MaxFiles
	}
	if b.MaxTokens <= 0 {
		b.MaxTokens = defaults.MaxTokens
	}
	if b.MaxDepth == nil || *b.MaxDepth < 0 {
		b.MaxDepth = DepthLimit(defaults.Depth())
	} else {
		b.MaxDepth = DepthLimit(*b.MaxDepth)
	}
	return b
}

// DepthTier maps a depth to the retrieval depth tier, "L0" through "L3".
func DepthTier(depth int) string {
	switch {
	case depth <= 0:
		return "L0"
	case depth >= 3:
		return "L3"
	default:
		return fmt.Sprintf("L%d", depth)
	}
}

// TieringConfig holds the thresholds of the tier fill.
type TieringConfig struct {
	// Share of MaxFiles reserved for each of essential and contextual.
	TierShare float64 `mapstructure:"tier_share"`
	// Items at or above these confidences bypass the quota.
	EssentialOverride  float64 `mapstructure:"essential_override"`
	ContextualOverride float64 `mapstructure:"contextual_override"`
	// Items below this confidence never fill the essential quota.
	MinEssentialConfidence float64 `mapstructure:"min_essential_confidence"`
	// Confidence given to learned-missing entries appended to reference.
	LearnedConfidence float64 `mapstructure:"learned_confidence"`
}

// DefaultTieringConfig returns the default tier thresholds.
func DefaultTieringConfig() TieringConfig {
	return TieringConfig{
		TierShare:              0.4,
		EssentialOverride:      0.75,
		ContextualOverride:     0.5,
		MinEssentialConfidence: 0.3,
		LearnedConfidence:      0.35,
	}
}

func (c TieringConfig) withDefaults() TieringConfig {
	d := DefaultTieringConfig()
	if c.TierShare <= 0 || c.TierShare > 1 {
		c.TierShare = d.TierShare
	}
	if c.EssentialOverride <= 0 {
		c.EssentialOverride = d.EssentialOverride
	}
	if c.ContextualOverride <= 0 {
		c.ContextualOverride = d.ContextualOverride
	}
	if c.MinEssentialConfidence < 0 {
		c.MinEssentialConfidence = d.MinEssentialConfidence
	}
	if c.LearnedConfidence <= 0 {
		c.LearnedConfidence = d.LearnedConfidence
	}
	return c
}

// quota is the per-tier file quota for essential and contextual.
func (c TieringConfig) quota(maxFiles int) int {
	return int(math.Ceil(c.TierShare*float64(maxFiles) - 1e-9))
}
