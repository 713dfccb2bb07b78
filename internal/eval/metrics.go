/*
Package eval measures retrieval quality: Recall@k, nDCG@k and MRR per query,
their means across a dataset, paired comparison of two methods, and the
versioned report other tooling reads to judge scorer changes.
*/
package eval

import (
	"math"
	"sort"
)

// DefaultKs are the cutoffs reported when none are given.
var DefaultKs = []int{5, 10}

// EvaluationQuery is one labelled query.
type EvaluationQuery struct {
	ID     string `yaml:"id" json:"id" validate:"required"`
	Intent string `yaml:"intent" json:"intent"`
	// Anchor is the file the query is asked from, used by the harness.
	Anchor          string      `yaml:"anchor,omitempty" json:"anchor,omitempty"`
	RelevantTargets []string    `yaml:"relevant" json:"relevantTargets"`
	Candidates      []Candidate `yaml:"candidates,omitempty" json:"candidates,omitempty" validate:"dive"`
}

// EvaluationResult is one method's ranked answer to a query.
type EvaluationResult struct {
	QueryID   string    `json:"queryId" validate:"required"`
	Retrieved []string  `json:"retrieved"`
	Scores    []float64 `json:"scores,omitempty"`
}

// QueryMetrics are the ranking metrics for one query.
type QueryMetrics struct {
	QueryID   string          `json:"queryId"`
	RecallAtK map[int]float64 `json:"recallAtK"`
	NDCGAtK   map[int]float64 `json:"ndcgAtK"`
	MRR       float64         `json:"mrr"`
	Relevant  int             `json:"relevant"`
	Retrieved int             `json:"retrieved"`
}

// AggregateMetrics are per-k means across queries.
type AggregateMetrics struct {
	QueryCount int             `json:"queryCount"`
	RecallAtK  map[int]float64 `json:"recallAtK"`
	NDCGAtK    map[int]float64 `json:"ndcgAtK"`
	MRR        float64         `json:"mrr"`
}

// ComputeQueryMetrics scores result against query at each cutoff in ks
// (DefaultKs when empty). Relevance is binary and repeated retrievals of
// the same item count once.
func ComputeQueryMetrics(query EvaluationQuery, result EvaluationResult, ks ...int) QueryMetrics {
	if len(ks) == 0 {
		ks = DefaultKs
	}
	relevant := make(map[string]bool, len(query.RelevantTargets))
	for _, t := range query.RelevantTargets {
		if t != "" {
			relevant[t] = true
		}
	}
	gains := binaryGains(result.Retrieved, relevant)

	m := QueryMetrics{
		QueryID:   query.ID,
		RecallAtK: make(map[int]float64, len(ks)),
		NDCGAtK:   make(map[int]float64, len(ks)),
		Relevant:  len(relevant),
		Retrieved: len(result.Retrieved),
	}
	for _, k := range ks {
		m.RecallAtK[k] = recallAt(gains, len(relevant), k)
		m.NDCGAtK[k] = ndcgAt(gains, len(relevant), k)
	}
	for i, g := range gains {
		if g > 0 {
			m.MRR = 1.0 / float64(i+1)
			break
		}
	}
	return m
}

// binaryGains marks each position 1 when it holds a relevant item seen for
// the first time.
func binaryGains(retrieved []string, relevant map[string]bool) []float64 {
	gains := make([]float64, len(retrieved))
	seen := make(map[string]bool, len(retrieved))
	for i, id := range retrieved {
		if relevant[id] && !seen[id] {
			gains[i] = 1
		}
		seen[id] = true
	}
	return gains
}

func recallAt(gains []float64, relevant, k int) float64 {
	if relevant == 0 || k <= 0 {
		return 0
	}
	var hits float64
	for i := 0; i < k && i < len(gains); i++ {
		hits += gains[i]
	}
	return hits / float64(relevant)
}

func ndcgAt(gains []float64, relevant, k int) float64 {
	if k <= 0 {
		return 0
	}
	var dcg float64
	for i := 0; i < k && i < len(gains); i++ {
		dcg += gains[i] / math.Log2(float64(i+2))
	}
	var idcg float64
	for i := 0; i < k && i < relevant; i++ {
		idcg += 1 / math.Log2(float64(i+2))
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// Aggregate averages each metric across list. Cutoffs missing from
// a query count as zero for that query.
func Aggregate(list []QueryMetrics) AggregateMetrics {
	agg := AggregateMetrics{
		QueryCount: len(list),
		RecallAtK:  map[int]float64{},
		NDCGAtK:    map[int]float64{},
	}
	if len(list) == 0 {
		return agg
	}

	ks := map[int]bool{}
	for _, m := range list {
		for k := range m.RecallAtK {
			ks[k] = true
		}
		for k := range m.NDCGAtK {
			ks[k] = true
		}
	}

	n := float64(len(list))
	for k := range ks {
		var recall, ndcg float64
		for _, m := range list {
			recall += m.RecallAtK[k]
			ndcg += m.NDCGAtK[k]
		}
		agg.RecallAtK[k] = recall / n
		agg.NDCGAtK[k] = ndcg / n
	}
	for _, m := range list {
		agg.MRR += m.MRR
	}
	agg.MRR /= n
	return agg
}

// Ks returns the cutoffs present in agg in ascending order.
func (a AggregateMetrics) Ks() []int {
	ks := make([]int, 0, len(a.RecallAtK))
	for k := range a.RecallAtK {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	return ks
}
