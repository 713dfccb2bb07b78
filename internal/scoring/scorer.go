/*
Package scoring blends raw embedding similarity with dependency-graph
signals and down-weights pairs that look like embedding false positives.
*/
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// Inputs are the three signals for one pair of files.
type Inputs struct {
	SemanticSimilarity float64 `json:"semantic_similarity"` // [-1,1]
	GraphProximity     float64 `json:"graph_proximity"`     // [0,1]
	ModuleAffinity     float64 `json:"module_affinity"`     // [0,1]
}

// PairContext identifies the pair for the structural heuristics.
type PairContext struct {
	PathA string `json:"path_a"`
	PathB string `json:"path_b"`
}

// Result is the blended similarity for one pair. It is never cached.
type Result struct {
	FinalSimilarity float64 `json:"final_similarity"`
	IsAdversarial   bool    `json:"is_adversarial"`
	Reason          string  `json:"reason,omitempty"`
}

// Weights configures the blend. Semantic, Proximity and Affinity must sum
// to 1 so an unflagged pair with every signal at 1 scores exactly 1.
type Weights struct {
	Semantic           float64 `mapstructure:"semantic"`
	Proximity          float64 `mapstructure:"proximity"`
	Affinity           float64 `mapstructure:"affinity"`
	AdversarialPenalty float64 `mapstructure:"adversarial_penalty"`
}

// DefaultWeights returns the weights validated against the adversarial and
// true-positive fixtures: a file and its direct import score >= 0.4 from a
// semantic similarity of 0.4 upward, while a flagged pair never exceeds 0.3.
func DefaultWeights() Weights {
	return Weights{
		Semantic:           0.60,
		Proximity:          0.25,
		Affinity:           0.15,
		AdversarialPenalty: 0.30,
	}
}

// ErrInvalidWeights is returned by Validate for unusable weight sets.
var ErrInvalidWeights = errors.New("invalid scoring weights")

// Validate checks that weights are non-negative, sum to 1 and that the
// penalty lies in [0,1].
func (w Weights) Validate() error {
	if w.Semantic < 0 || w.Proximity < 0 || w.Affinity < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
	}
	if sum := w.Semantic + w.Proximity + w.Affinity; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: weights sum to %.3f, want 1", ErrInvalidWeights, sum)
	}
	if w.AdversarialPenalty < 0 || w.AdversarialPenalty > 1 {
		return fmt.Errorf("%w: adversarial penalty %.3f outside [0,1]", ErrInvalidWeights, w.AdversarialPenalty)
	}
	return nil
}

// Scorer computes graph-augmented similarity with a fixed weight set.
type Scorer struct {
	weights Weights
}

// NewScorer returns a scorer using w, or an error if w is invalid.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Default is the scorer with DefaultWeights.
var Default = &Scorer{weights: DefaultWeights()}

// Weights returns the scorer's weight set.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// ComputeGraphAugmentedSimilarity scores a pair with the default weights.
func ComputeGraphAugmentedSimilarity(in Inputs, pair PairContext) Result {
	return Default.Compute(in, pair)
}

// Compute scores one pair. Flagged pairs get the semantic score times the
// adversarial penalty; all other pairs get the weighted blend of the three
// signals. Negative semantic similarity counts as zero.
func (s *Scorer) Compute(in Inputs, pair PairContext) Result {
	semantic := math.Max(0, in.SemanticSimilarity)
	proximity := clamp01(in.GraphProximity)
	affinity := clamp01(in.ModuleAffinity)

	if adversarial, reason := IsLikelyAdversarial(pair.PathA, pair.PathB, in.SemanticSimilarity, proximity); adversarial {
		return Result{
			FinalSimilarity: clamp01(semantic * s.weights.AdversarialPenalty),
			IsAdversarial:   true,
			Reason:          reason,
		}
	}

	final := s.weights.Semantic*semantic +
		s.weights.Proximity*proximity +
		s.weights.Affinity*affinity
	return Result{FinalSimilarity: clamp01(final)}
}

// GraphSignals is the part of the dependency graph the scorer reads.
type GraphSignals interface {
	ComputeGraphProximity(a, b string) float64
	ComputeModuleAffinity(a, b string) float64
}

// ScorePair derives proximity and affinity from signals and scores the pair.
func (s *Scorer) ScorePair(signals GraphSignals, pathA, pathB string, semantic float64) Result {
	in := Inputs{SemanticSimilarity: semantic}
	if signals != nil {
		in.GraphProximity = signals.ComputeGraphProximity(pathA, pathB)
		in.ModuleAffinity = signals.ComputeModuleAffinity(pathA, pathB)
	}
	return s.Compute(in, PairContext{PathA: pathA, PathB: pathB})
}

// ScorePair scores a pair with the default weights.
func ScorePair(signals GraphSignals, pathA, pathB string, semantic float64) Result {
	return Default.ScorePair(signals, pathA, pathB, semantic)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
