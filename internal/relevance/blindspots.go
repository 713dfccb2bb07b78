package relevance

import (
	"fmt"

	"github.com/josephgoksu/ContextWing/internal/graph"
)

// coverage indexes candidate IDs and related files.
type coverage map[string]struct{}

func newCoverage(items []KnowledgeItem) coverage {
	c := make(coverage)
	for _, it := range items {
		c[it.ID] = struct{}{}
		for _, f := range it.RelatedFiles {
			if n := graph.NormalizePath(f); n != "" {
				c[n] = struct{}{}
			}
		}
	}
	return c
}

func (c coverage) has(s string) bool {
	if _, ok := c[s]; ok {
		return true
	}
	_, ok := c[graph.NormalizePath(s)]
	return ok
}

// hintCovered reports whether a related file of any candidate matches hint.
func hintCovered(items []KnowledgeItem, hint string) bool {
	h := graph.NormalizePath(hint)
	for _, it := range items {
		for _, f := range it.RelatedFiles {
			if graph.NormalizePath(f) == h {
				return true
			}
		}
	}
	return false
}

// detectBlindSpots flags an empty result and every uncovered hint.
func detectBlindSpots(intent string, hints []string, items []KnowledgeItem) []BlindSpot {
	var spots []BlindSpot
	if len(items) == 0 {
		spots = append(spots, BlindSpot{
			Area:       intent,
			Reason:     "no indexed knowledge matched the intent",
			Risk:       RiskHigh,
			Suggestion: "index the relevant code or rephrase the intent with concrete file or module names",
		})
	}

	seen := make(map[string]bool, len(hints))
	for _, hint := range hints {
		h := graph.NormalizePath(hint)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		if hintCovered(items, h) {
			continue
		}
		spots = append(spots, BlindSpot{
			Area:       h,
			Reason:     fmt.Sprintf("hinted file %s is not covered by any retrieved knowledge", h),
			Risk:       RiskMedium,
			Suggestion: "read the file directly before relying on the retrieved context",
		})
	}
	return spots
}

func learnedBlindSpot(missing string) BlindSpot {
	return BlindSpot{
		Area:       missing,
		Reason:     "previously reported as missing context and not covered by this retrieval",
		Risk:       RiskMedium,
		Suggestion: fmt.Sprintf("check %s explicitly", missing),
	}
}

func failureBlindSpot(intent string, err error) BlindSpot {
	return BlindSpot{
		Area:       intent,
		Reason:     fmt.Sprintf("retrieval failed: %v", err),
		Risk:       RiskHigh,
		Suggestion: "retry once the retrieval provider is reachable, or widen the timeout",
	}
}
