package eval

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeQueryMetrics(t *testing.T) {
	q := EvaluationQuery{ID: "q1", RelevantTargets: []string{"a", "b"}}

	tests := []struct {
		name      string
		retrieved []string
		recall5   float64
		ndcg5     float64
		mrr       float64
	}{
		{
			name:      "relevant at ranks 2 and 4",
			retrieved: []string{"x", "a", "y", "b"},
			recall5:   1,
			ndcg5:     (1/math.Log2(3) + 1/math.Log2(5)) / (1 + 1/math.Log2(3)),
			mrr:       0.5,
		},
		{
			name:      "ideal ordering",
			retrieved: []string{"a", "b", "x"},
			recall5:   1,
			ndcg5:     1,
			mrr:       1,
		},
		{
			name:      "half found",
			retrieved: []string{"b", "x", "y"},
			recall5:   0.5,
			ndcg5:     1 / (1 + 1/math.Log2(3)),
			mrr:       1,
		},
		{
			name:      "nothing relevant",
			retrieved: []string{"x", "y"},
		},
		{
			name: "empty result",
		},
		{
			name:      "relevant beyond cutoff",
			retrieved: []string{"1", "2", "3", "4", "5", "6", "a"},
			mrr:       1.0 / 7,
		},
		{
			name:      "duplicates count once",
			retrieved: []string{"a", "a", "a"},
			recall5:   0.5,
			ndcg5:     1 / (1 + 1/math.Log2(3)),
			mrr:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeQueryMetrics(q, EvaluationResult{QueryID: "q1", Retrieved: tt.retrieved})
			assert.Equal(t, "q1", m.QueryID)
			assert.InDelta(t, tt.recall5, m.RecallAtK[5], 1e-9)
			assert.InDelta(t, tt.ndcg5, m.NDCGAtK[5], 1e-9)
			assert.InDelta(t, tt.mrr, m.MRR, 1e-9)
			assert.Contains(t, m.RecallAtK, 10)
		})
	}
}

func TestComputeQueryMetrics_NoRelevantTargets(t *testing.T) {
	m := ComputeQueryMetrics(EvaluationQuery{ID: "q"}, EvaluationResult{Retrieved: []string{"a", "b"}})
	assert.Zero(t, m.RecallAtK[5])
	assert.Zero(t, m.NDCGAtK[5])
	assert.Zero(t, m.MRR)
}

func TestComputeQueryMetrics_CustomKs(t *testing.T) {
	q := EvaluationQuery{ID: "q", RelevantTargets: []string{"a", "b", "c"}}
	m := ComputeQueryMetrics(q, EvaluationResult{Retrieved: []string{"a", "x", "b", "c"}}, 1, 3)
	assert.Len(t, m.RecallAtK, 2)
	assert.InDelta(t, 1.0/3, m.RecallAtK[1], 1e-9)
	assert.InDelta(t, 2.0/3, m.RecallAtK[3], 1e-9)
	assert.InDelta(t, 1.0, m.NDCGAtK[1], 1e-9)
}

func TestMetricProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	universe := make([]string, 30)
	for i := range universe {
		universe[i] = fmt.Sprintf("file-%d", i)
	}

	for trial := 0; trial < 500; trial++ {
		var relevant []string
		for _, id := range universe {
			if rng.Float64() < 0.2 {
				relevant = append(relevant, id)
			}
		}
		n := rng.Intn(len(universe))
		retrieved := make([]string, n)
		for i := range retrieved {
			retrieved[i] = universe[rng.Intn(len(universe))]
		}

		m := ComputeQueryMetrics(EvaluationQuery{ID: "q", RelevantTargets: relevant}, EvaluationResult{Retrieved: retrieved})

		assert.GreaterOrEqual(t, m.RecallAtK[10], m.RecallAtK[5], "recall must not drop as k grows")
		for _, k := range DefaultKs {
			assert.GreaterOrEqual(t, m.NDCGAtK[k], 0.0)
			assert.LessOrEqual(t, m.NDCGAtK[k], 1.0+1e-12)
			assert.GreaterOrEqual(t, m.RecallAtK[k], 0.0)
			assert.LessOrEqual(t, m.RecallAtK[k], 1.0+1e-12)
		}
		assert.GreaterOrEqual(t, m.MRR, 0.0)
		assert.LessOrEqual(t, m.MRR, 1.0)

		firstRelevant := false
		if len(retrieved) > 0 {
			for _, r := range relevant {
				if r == retrieved[0] {
					firstRelevant = true
				}
			}
		}
		assert.Equal(t, firstRelevant, m.MRR == 1.0)
	}
}

func TestAggregate(t *testing.T) {
	list := []QueryMetrics{
		{QueryID: "a", RecallAtK: map[int]float64{5: 1, 10: 1}, NDCGAtK: map[int]float64{5: 0.8, 10: 0.9}, MRR: 1},
		{QueryID: "b", RecallAtK: map[int]float64{5: 0, 10: 0.5}, NDCGAtK: map[int]float64{5: 0, 10: 0.3}, MRR: 0.25},
	}
	agg := Aggregate(list)
	assert.Equal(t, 2, agg.QueryCount)
	assert.InDelta(t, 0.5, agg.RecallAtK[5], 1e-9)
	assert.InDelta(t, 0.75, agg.RecallAtK[10], 1e-9)
	assert.InDelta(t, 0.4, agg.NDCGAtK[5], 1e-9)
	assert.InDelta(t, 0.6, agg.NDCGAtK[10], 1e-9)
	assert.InDelta(t, 0.625, agg.MRR, 1e-9)
	assert.Equal(t, []int{5, 10}, agg.Ks())

	empty := Aggregate(nil)
	assert.Zero(t, empty.QueryCount)
	assert.Empty(t, empty.RecallAtK)
}

func TestCompareRetrievalMethods(t *testing.T) {
	mk := func(id string, r, n, mrr float64) QueryMetrics {
		return QueryMetrics{QueryID: id, RecallAtK: map[int]float64{5: r}, NDCGAtK: map[int]float64{5: n}, MRR: mrr}
	}
	a := []QueryMetrics{mk("q1", 1, 1, 1), mk("q2", 0.5, 0.5, 0.5), mk("q3", 0, 0, 0), mk("only-a", 1, 1, 1)}
	b := []QueryMetrics{mk("q1", 0.5, 0.5, 0.5), mk("q2", 0.5, 0.5, 0.5), mk("q3", 0.5, 0, 0)}

	cmp := CompareRetrievalMethods(a, b, "augmented", "raw")
	assert.Equal(t, 1, cmp.WinsA)
	assert.Equal(t, 1, cmp.WinsB)
	assert.Equal(t, 1, cmp.Ties)
	assert.Equal(t, 3, cmp.QueryCount)
	assert.Equal(t, "augmented", cmp.PerQuery[0].Winner)
	assert.Equal(t, "tie", cmp.PerQuery[1].Winner)
	assert.Equal(t, "raw", cmp.PerQuery[2].Winner)
}
