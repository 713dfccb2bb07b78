package eval

import (
	"sort"

	"github.com/josephgoksu/ContextWing/internal/scoring"
)

// AcceptThreshold is the similarity at or above which a pair is treated as
// related.
const AcceptThreshold = 0.4

// Candidate is a file with its raw semantic similarity to a query anchor.
type Candidate struct {
	Path     string  `yaml:"path" json:"path" validate:"required"`
	Semantic float64 `yaml:"semantic" json:"semantic" validate:"gte=-1,lte=1"`
}

// LabelledPair is a file pair with its raw similarity and ground truth.
type LabelledPair struct {
	PathA    string  `yaml:"a" json:"a" validate:"required"`
	PathB    string  `yaml:"b" json:"b" validate:"required"`
	Semantic float64 `yaml:"semantic" json:"semantic" validate:"gte=-1,lte=1"`
	Related  bool    `yaml:"related" json:"related"`
}

// RankRaw orders candidates by raw semantic similarity.
func RankRaw(query EvaluationQuery) EvaluationResult {
	scored := make([]scoredPath, 0, len(query.Candidates))
	for _, c := range query.Candidates {
		scored = append(scored, scoredPath{path: c.Path, score: c.Semantic})
	}
	return toResult(query.ID, scored)
}

// RankAugmented orders candidates by graph-augmented similarity to the
// query anchor.
func RankAugmented(query EvaluationQuery, signals scoring.GraphSignals, scorer *scoring.Scorer) EvaluationResult {
	if scorer == nil {
		scorer = scoring.Default
	}
	scored := make([]scoredPath, 0, len(query.Candidates))
	for _, c := range query.Candidates {
		res := scorer.ScorePair(signals, query.Anchor, c.Path, c.Semantic)
		scored = append(scored, scoredPath{path: c.Path, score: res.FinalSimilarity})
	}
	return toResult(query.ID, scored)
}

type scoredPath struct {
	path  string
	score float64
}

func toResult(queryID string, scored []scoredPath) EvaluationResult {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].path < scored[j].path
	})
	r := EvaluationResult{
		QueryID:   queryID,
		Retrieved: make([]string, len(scored)),
		Scores:    make([]float64, len(scored)),
	}
	for i, s := range scored {
		r.Retrieved[i] = s.path
		r.Scores[i] = s.score
	}
	return r
}

// RawScore is the pair's raw semantic similarity.
func RawScore(p LabelledPair) float64 {
	return p.Semantic
}

// AugmentedScore scores pairs with scorer against signals.
func AugmentedScore(signals scoring.GraphSignals, scorer *scoring.Scorer) func(LabelledPair) float64 {
	if scorer == nil {
		scorer = scoring.Default
	}
	return func(p LabelledPair) float64 {
		return scorer.ScorePair(signals, p.PathA, p.PathB, p.Semantic).FinalSimilarity
	}
}

// ThresholdAccuracy is the share of pairs where score >= threshold agrees
// with the label. Returns 0 for no pairs.
func ThresholdAccuracy(pairs []LabelledPair, score func(LabelledPair) float64, threshold float64) float64 {
	if len(pairs) == 0 {
		return 0
	}
	correct := 0
	for _, p := range pairs {
		if (score(p) >= threshold) == p.Related {
			correct++
		}
	}
	return float64(correct) / float64(len(pairs))
}

// Run ranks every query with both methods and returns raw and augmented
// results in query order.
func Run(ds *Dataset, signals scoring.GraphSignals, scorer *scoring.Scorer) (raw, augmented []EvaluationResult) {
	for _, q := range ds.Queries {
		raw = append(raw, RankRaw(q))
		augmented = append(augmented, RankAugmented(q, signals, scorer))
	}
	return raw, augmented
}
