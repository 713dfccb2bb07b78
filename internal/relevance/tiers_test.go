package relevance

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(confidences ...float64) []KnowledgeItem {
	items := make([]KnowledgeItem, len(confidences))
	for i, c := range confidences {
		items[i] = KnowledgeItem{
			ID:         fmt.Sprintf("item-%02d", i),
			Summary:    "short summary",
			Confidence: c,
			Kind:       KindContextPack,
		}
	}
	return items
}

func TestFillTiers_Quotas(t *testing.T) {
	// MaxFiles 10 gives a quota of 4 per tier.
	items := makeItems(0.7, 0.7, 0.7, 0.7, 0.7, 0.6, 0.45, 0.45, 0.45, 0.45, 0.4, 0.4, 0.4)
	tiers, _ := fillTiers(items, Budget{MaxFiles: 10, MaxTokens: 40000}, DefaultTieringConfig())

	assert.Len(t, tiers.Essential, 4)
	// 0.7 and 0.6 pass the contextual override, then the quota admits two more.
	assert.Len(t, tiers.Contextual, 4)
	assert.Len(t, tiers.Reference, 2)
	assert.Equal(t, 10, tiers.Len())
}

func TestFillTiers_ContextualOverrideExceedsQuota(t *testing.T) {
	items := makeItems(0.7, 0.7, 0.7, 0.7, 0.7, 0.7, 0.7, 0.7, 0.7, 0.7, 0.2)
	tiers, _ := fillTiers(items, Budget{MaxFiles: 10, MaxTokens: 40000}, DefaultTieringConfig())

	assert.Len(t, tiers.Essential, 4)
	assert.Len(t, tiers.Contextual, 6)
	assert.Empty(t, tiers.Reference)
}

func TestFillTiers_EssentialOverride(t *testing.T) {
	items := makeItems(0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.5)
	tiers, _ := fillTiers(items, Budget{MaxFiles: 5, MaxTokens: 40000}, DefaultTieringConfig())

	// The only allowed overflow of MaxFiles.
	assert.Len(t, tiers.Essential, 6)
	assert.Empty(t, tiers.Contextual)
	assert.Empty(t, tiers.Reference)
}

func TestFillTiers_TokenBudgetStopsLowConfidenceFill(t *testing.T) {
	// With essential closed by the confidence floor, the token budget must
	// still stop the fill once contextual reaches its quota.
	confidences := make([]float64, 20)
	for i := range confidences {
		confidences[i] = 0.2
	}
	items := makeItems(confidences...)
	for i := range items {
		items[i].Summary = strings.Repeat("x", 400) // 100 tokens
	}
	require.Equal(t, 100, items[0].TokenCost())

	tiers, used := fillTiers(items, Budget{MaxFiles: 20, MaxTokens: 150}, DefaultTieringConfig())

	assert.Empty(t, tiers.Essential)
	assert.Len(t, tiers.Contextual, 8)
	assert.Empty(t, tiers.Reference)
	assert.Equal(t, 800, used)
}

func TestFillTiers_LowConfidenceNeverEssential(t *testing.T) {
	tiers, _ := fillTiers(makeItems(0.25, 0.1), DefaultBudget(), DefaultTieringConfig())
	assert.Empty(t, tiers.Essential)
	assert.Len(t, tiers.Contextual, 2)
}

func TestFillTiers_TokenBudgetIsSoftUntilQuotaMet(t *testing.T) {
	long := strings.Repeat("x", 400) // 100 tokens
	items := makeItems(0.6, 0.6, 0.6, 0.6, 0.6, 0.6)
	for i := range items {
		items[i].Summary = long
	}

	// MaxFiles 5 gives quota 2 per tier, so 4 files before the token stop applies.
	tiers, used := fillTiers(items, Budget{MaxFiles: 5, MaxTokens: 150}, DefaultTieringConfig())
	assert.Equal(t, 4, len(tiers.Essential)+len(tiers.Contextual))
	assert.Empty(t, tiers.Reference)
	assert.Equal(t, 400, used)
}

func TestFillTiers_StopsOnTokenBudgetAfterQuota(t *testing.T) {
	items := makeItems(0.6, 0.6, 0.6, 0.6, 0.3, 0.3, 0.3)
	for i := range items {
		items[i].Summary = strings.Repeat("y", 40) // 10 tokens
	}
	tiers, used := fillTiers(items, Budget{MaxFiles: 5, MaxTokens: 45}, DefaultTieringConfig())

	assert.Equal(t, 4, len(tiers.Essential)+len(tiers.Contextual))
	assert.Empty(t, tiers.Reference)
	assert.Equal(t, 40, used)
}

func TestFillTiers_BudgetRespected(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := DefaultTieringConfig()

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(40)
		conf := make([]float64, n)
		for i := range conf {
			conf[i] = rng.Float64()
		}
		items := makeItems(conf...)
		sort.SliceStable(items, func(i, j int) bool { return items[i].Confidence > items[j].Confidence })

		budget := Budget{MaxFiles: 1 + rng.Intn(25), MaxTokens: 1 + rng.Intn(200)}
		tiers, _ := fillTiers(items, budget, cfg)

		overrides := 0
		for _, it := range tiers.Essential {
			if it.Confidence >= cfg.EssentialOverride {
				overrides++
			}
		}
		limit := budget.MaxFiles
		if overrides > limit {
			limit = overrides
		}
		assert.LessOrEqual(t, tiers.Len(), limit, "trial %d budget %+v", trial, budget)

		if overrides == 0 {
			assert.LessOrEqual(t, tiers.Len(), budget.MaxFiles)
		}
	}
}

func TestBudgetNormalize(t *testing.T) {
	d := DefaultBudget()
	assert.Equal(t, d, Budget{}.Normalize(d))
	// Setting one limit leaves the others, depth included, at their defaults.
	assert.Equal(t, Budget{MaxFiles: 5, MaxTokens: 40000, MaxDepth: DepthLimit(2)}, Budget{MaxFiles: 5}.Normalize(d))
	assert.Equal(t, Budget{MaxFiles: 20, MaxTokens: 40000, MaxDepth: DepthLimit(2)}, Budget{MaxFiles: -1, MaxTokens: -5, MaxDepth: DepthLimit(-1)}.Normalize(d))
	assert.Equal(t, Budget{MaxFiles: 3, MaxTokens: 10, MaxDepth: DepthLimit(5)}, Budget{MaxFiles: 3, MaxTokens: 10, MaxDepth: DepthLimit(5)}.Normalize(d))
	// An explicit zero depth selects the shallowest tier.
	assert.Equal(t, 0, Budget{MaxDepth: DepthLimit(0)}.Normalize(d).Depth())
}

func TestBudgetNormalize_CopiesDepth(t *testing.T) {
	depth := 1
	b := Budget{MaxDepth: &depth}.Normalize(DefaultBudget())
	depth = 3
	assert.Equal(t, 1, b.Depth())
}

func TestDepthTier(t *testing.T) {
	assert.Equal(t, "L0", DepthTier(-1))
	assert.Equal(t, "L0", DepthTier(0))
	assert.Equal(t, "L1", DepthTier(1))
	assert.Equal(t, "L2", DepthTier(2))
	assert.Equal(t, "L3", DepthTier(3))
	assert.Equal(t, "L3", DepthTier(9))
}
