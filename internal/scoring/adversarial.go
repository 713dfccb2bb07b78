package scoring

import (
	"fmt"

	"github.com/josephgoksu/ContextWing/internal/graph"
)

const (
	// HighSemanticThreshold is the raw similarity above which a pair counts
	// as "looks related" to the embedding model.
	HighSemanticThreshold = 0.5

	// LowProximityThreshold is the proximity below which a pair counts as
	// structurally unrelated. Any pair within graph.MaxProximityHops has
	// proximity >= 0.25, so connected files never fall below it.
	LowProximityThreshold = 0.1
)

// genericBaseNames are file names that carry little meaning on their own
// and recur across unrelated modules.
var genericBaseNames = map[string]bool{
	"index":     true,
	"types":     true,
	"utils":     true,
	"util":      true,
	"helpers":   true,
	"constants": true,
	"config":    true,
	"models":    true,
	"common":    true,
	"main":      true,
	"init":      true,
	"__init__":  true,
	"mod":       true,
}

// IsLikelyAdversarial reports whether a pair looks like an embedding false
// positive: high semantic similarity, no structural connection, and a
// naming pattern that commonly fools embedding models.
func IsLikelyAdversarial(pathA, pathB string, semantic, proximity float64) (bool, string) {
	if semantic <= HighSemanticThreshold || proximity >= LowProximityThreshold {
		return false, ""
	}

	a, b := graph.NormalizePath(pathA), graph.NormalizePath(pathB)
	if a == "" || b == "" || a == b {
		return false, ""
	}

	baseA, baseB := graph.BaseName(a), graph.BaseName(b)
	topA, topB := graph.TopLevelDir(a), graph.TopLevelDir(b)

	if baseA == baseB && topA != topB {
		return true, fmt.Sprintf("same file name %q in unrelated directories %q and %q (semantic %.2f, proximity %.2f)",
			baseA, dirLabel(topA), dirLabel(topB), semantic, proximity)
	}

	modA, modB := graph.DeriveModuleName(a), graph.DeriveModuleName(b)
	if genericBaseNames[baseA] && genericBaseNames[baseB] && modA != modB {
		return true, fmt.Sprintf("generic file names %q and %q in different modules %q and %q (semantic %.2f, proximity %.2f)",
			baseA, baseB, modA, modB, semantic, proximity)
	}

	return false, ""
}

func dirLabel(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
