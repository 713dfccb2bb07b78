package relevance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/josephgoksu/ContextWing/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingsCorpus() RetrievalResponse {
	return RetrievalResponse{
		Packs: []ContextPack{
			{PackID: "telemetry/logger.ts", Summary: "Structured logger for telemetry events", Confidence: 0.2, RelatedFiles: []string{"telemetry/logger.ts"}},
			{PackID: "api/embeddings.ts", Summary: "Generates embeddings and stores vectors", Confidence: 0.88, RelatedFiles: []string{"api/embeddings.ts"}},
			{PackID: "api/embedding_providers/real_embeddings.ts", Summary: "Calls the embedding provider API", Confidence: 0.82, RelatedFiles: []string{"api/embedding_providers/real_embeddings.ts"}},
		},
	}
}

func ids(items []KnowledgeItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestQuery_EmbeddingsEndToEnd(t *testing.T) {
	retriever := &fakeRetriever{resp: embeddingsCorpus()}
	e := NewEngine(Options{Retriever: retriever})

	res, err := e.Query(context.Background(), Request{Intent: "How are embeddings generated and stored?"})
	require.NoError(t, err)

	assert.Equal(t, []string{"api/embeddings.ts", "api/embedding_providers/real_embeddings.ts"}, ids(res.Tiers.Essential))
	assert.NotContains(t, ids(res.Tiers.Essential), "telemetry/logger.ts")
	assert.Equal(t, "L2", res.Depth)
	assert.Empty(t, res.BlindSpots)
	assert.InDelta(t, 0.85, res.Confidence, 1e-9)
	assert.False(t, res.Degraded)
	assert.Greater(t, res.TokensUsed, 0)

	require.Len(t, retriever.calls, 1)
	assert.Equal(t, "L2", retriever.calls[0].Depth)
}

func TestQuery_EmptyIntent(t *testing.T) {
	e := NewEngine(Options{Retriever: &fakeRetriever{}})
	_, err := e.Query(context.Background(), Request{Intent: "   "})
	assert.ErrorIs(t, err, ErrEmptyIntent)
}

func TestQuery_NoCandidatesYieldsOneHighBlindSpot(t *testing.T) {
	e := NewEngine(Options{Retriever: &fakeRetriever{}})

	res, err := e.Query(context.Background(), Request{Intent: "where is billing reconciled"})
	require.NoError(t, err)

	assert.Zero(t, res.Tiers.Len())
	require.Len(t, res.BlindSpots, 1)
	assert.Equal(t, RiskHigh, res.BlindSpots[0].Risk)
	assert.Equal(t, "where is billing reconciled", res.BlindSpots[0].Area)
	assert.Zero(t, res.Confidence)
}

func TestQuery_HintBlindSpots(t *testing.T) {
	e := NewEngine(Options{Retriever: &fakeRetriever{resp: embeddingsCorpus()}})

	res, err := e.Query(context.Background(), Request{
		Intent: "embeddings",
		Hints:  []string{"./api/embeddings.ts", "storage/vector_store.ts", "storage/vector_store.ts"},
	})
	require.NoError(t, err)

	require.Len(t, res.BlindSpots, 1)
	assert.Equal(t, RiskMedium, res.BlindSpots[0].Risk)
	assert.Equal(t, "storage/vector_store.ts", res.BlindSpots[0].Area)
}

func TestQuery_AggregateConfidencePreferred(t *testing.T) {
	corpus := embeddingsCorpus()
	corpus.AggregateConfidence = 0.64
	e := NewEngine(Options{Retriever: &fakeRetriever{resp: corpus}})

	res, err := e.Query(context.Background(), Request{Intent: "embeddings"})
	require.NoError(t, err)
	assert.Equal(t, 0.64, res.Confidence)
}

func TestQuery_DegradedPropagates(t *testing.T) {
	e := NewEngine(Options{Retriever: &fakeRetriever{resp: RetrievalResponse{Degraded: true, DegradedReason: "index is empty"}}})

	res, err := e.Query(context.Background(), Request{Intent: "embeddings"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "index is empty", res.DegradedReason)
	require.Len(t, res.BlindSpots, 1)
	assert.Equal(t, RiskHigh, res.BlindSpots[0].Risk)
}

func TestQuery_RetrievalTimeout(t *testing.T) {
	e := NewEngine(Options{Retriever: &fakeRetriever{block: true}, Timeout: 20 * time.Millisecond})

	start := time.Now()
	res, err := e.Query(context.Background(), Request{Intent: "embeddings"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Zero(t, res.Tiers.Len())
	assert.True(t, res.Degraded)
	assert.Contains(t, res.DegradedReason, "timed out")
	require.Len(t, res.BlindSpots, 1)
	assert.Equal(t, RiskHigh, res.BlindSpots[0].Risk)
}

func TestQuery_RetrievalError(t *testing.T) {
	e := NewEngine(Options{Retriever: &fakeRetriever{err: errors.New("connection refused")}})

	res, err := e.Query(context.Background(), Request{Intent: "embeddings"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	require.Len(t, res.BlindSpots, 1)
	assert.Contains(t, res.BlindSpots[0].Reason, "connection refused")
}

func TestQuery_NoRetriever(t *testing.T) {
	e := NewEngine(Options{})
	res, err := e.Query(context.Background(), Request{Intent: "embeddings"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Contains(t, res.DegradedReason, CodeProviderUnavailable)
}

func TestQuery_LearnedMissingMerged(t *testing.T) {
	store := &fakeStore{learned: []string{"storage/vector_store.ts", "api/embeddings.ts"}}
	learned := NewLearnedMissing(store, 0)
	require.Equal(t, 2, learned.Load(context.Background()))

	e := NewEngine(Options{Retriever: &fakeRetriever{resp: embeddingsCorpus()}, Learned: learned})
	defer func() { require.NoError(t, e.Close(context.Background())) }()

	res, err := e.Query(context.Background(), Request{Intent: "embeddings"})
	require.NoError(t, err)

	var learnedItems []KnowledgeItem
	for _, it := range res.Tiers.Reference {
		if it.Kind == KindLearnedMissing {
			learnedItems = append(learnedItems, it)
		}
	}
	require.Len(t, learnedItems, 1)
	assert.Equal(t, "storage/vector_store.ts", learnedItems[0].ID)
	assert.Equal(t, 0.35, learnedItems[0].Confidence)

	require.Len(t, res.BlindSpots, 1)
	assert.Equal(t, "storage/vector_store.ts", res.BlindSpots[0].Area)
}

func TestQuery_LearnedMissingRespectsFileBudget(t *testing.T) {
	e := NewEngine(Options{Retriever: &fakeRetriever{resp: embeddingsCorpus()}})
	e.LearnNegative("task-1", []string{"a/one.ts", "b/two.ts"})

	res, err := e.Query(context.Background(), Request{Intent: "embeddings", Budget: Budget{MaxFiles: 3}})
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Tiers.Len(), 3)
	assert.Len(t, res.BlindSpots, 2)
}

func TestQuery_PartialBudgetKeepsDefaultDepth(t *testing.T) {
	retriever := &fakeRetriever{resp: embeddingsCorpus()}
	e := NewEngine(Options{Retriever: retriever})

	res, err := e.Query(context.Background(), Request{Intent: "embeddings", Budget: Budget{MaxFiles: 10}})
	require.NoError(t, err)
	assert.Equal(t, "L2", res.Depth)

	res, err = e.Query(context.Background(), Request{Intent: "embeddings", Budget: Budget{MaxDepth: DepthLimit(0)}})
	require.NoError(t, err)
	assert.Equal(t, "L0", res.Depth)
	assert.Equal(t, "L0", retriever.calls[1].Depth)
}

func TestQuery_CentralityBreaksTies(t *testing.T) {
	store := &fakeStore{metrics: map[string]graph.FileMetrics{
		"src/models.py":  {FilePath: "src/models.py", Centrality: 1.0},
		"src/reports.py": {FilePath: "src/reports.py", Centrality: 0.2},
	}}
	resp := RetrievalResponse{Packs: []ContextPack{
		{PackID: "a-reports", Summary: "reports", Confidence: 0.6, RelatedFiles: []string{"src/reports.py"}},
		{PackID: "b-models", Summary: "models", Confidence: 0.6, RelatedFiles: []string{"src/models.py"}},
	}}

	withCaps := NewEngine(Options{Retriever: &fakeRetriever{resp: resp}, Capabilities: DetectCapabilities(store)})
	res, err := withCaps.Query(context.Background(), Request{Intent: "models"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b-models", "a-reports"}, ids(res.Tiers.Essential))

	plain := NewEngine(Options{Retriever: &fakeRetriever{resp: resp}})
	res, err = plain.Query(context.Background(), Request{Intent: "models"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-reports", "b-models"}, ids(res.Tiers.Essential))
}

func TestQuery_GraphMetricsFailureIsNeutral(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(Options{Retriever: &fakeRetriever{resp: embeddingsCorpus()}, Capabilities: DetectCapabilities(store)})
	res, err := e.Query(context.Background(), Request{Intent: "embeddings"})
	require.NoError(t, err)
	assert.Len(t, res.Tiers.Essential, 2)
}

func TestRecordOutcome(t *testing.T) {
	store := &fakeStore{}
	learned := NewLearnedMissing(store, 0)
	e := NewEngine(Options{Learned: learned, Capabilities: DetectCapabilities(store)})

	added, err := e.RecordOutcome(context.Background(), "task-1", Outcome{
		Status:         OutcomeFailure,
		MissingContext: []string{"storage/vector_store.ts", "api/embeddings.ts", " "},
	}, []string{"./api/embeddings.ts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"storage/vector_store.ts"}, added)

	added, err = e.RecordOutcome(context.Background(), "task-2", Outcome{
		Status:         OutcomeSuccess,
		MissingContext: []string{"docs/notes.md"},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.False(t, learned.Contains("docs/notes.md"))

	_, err = e.RecordOutcome(context.Background(), "task-3", Outcome{Status: "exploded"}, nil)
	assert.Error(t, err)

	require.NoError(t, e.Close(context.Background()))
	assert.Equal(t, []persistJob{{missing: "storage/vector_store.ts", taskID: "task-1"}}, store.recorded())
	assert.Equal(t, []string{"task-1:failure", "task-2:success"}, store.outcomes)
}

func TestFindExamples(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		e := NewEngine(Options{})
		_, err := e.FindExamples(context.Background(), "vector store", 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProviderUnavailable)

		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "embedding", perr.Provider)
	})

	t.Run("empty text", func(t *testing.T) {
		e := NewEngine(Options{Neighbors: &fakeNeighbors{}})
		_, err := e.FindExamples(context.Background(), "", 3)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("truncates to limit", func(t *testing.T) {
		var neighbors []Neighbor
		for i := 0; i < 8; i++ {
			neighbors = append(neighbors, Neighbor{ID: fmt.Sprintf("n%d", i), Similarity: 1 - float64(i)/10})
		}
		e := NewEngine(Options{Neighbors: &fakeNeighbors{resp: NeighborResponse{Neighbors: neighbors}}})
		ex, err := e.FindExamples(context.Background(), "vector store", 3)
		require.NoError(t, err)
		assert.Len(t, ex.Neighbors, 3)
		assert.False(t, ex.Degraded)
	})

	t.Run("degraded index", func(t *testing.T) {
		e := NewEngine(Options{Neighbors: &fakeNeighbors{resp: NeighborResponse{Degraded: true, DegradedReason: "index is empty"}}})
		ex, err := e.FindExamples(context.Background(), "vector store", 0)
		require.NoError(t, err)
		assert.True(t, ex.Degraded)
		assert.Equal(t, "index is empty", ex.DegradedReason)
		assert.NotNil(t, ex.Neighbors)
	})

	t.Run("provider error degrades", func(t *testing.T) {
		e := NewEngine(Options{Neighbors: &fakeNeighbors{err: errors.New("embedder offline")}})
		ex, err := e.FindExamples(context.Background(), "vector store", 0)
		require.NoError(t, err)
		assert.True(t, ex.Degraded)
		assert.True(t, strings.Contains(ex.DegradedReason, "embedder offline"))
	})
}

func TestLoadGraph(t *testing.T) {
	store := &fakeStore{modules: []graph.ModuleRecord{
		{FilePath: "api/embeddings.ts", Imports: []string{"api/embedding_providers/real_embeddings.ts"}},
		{FilePath: "api/embedding_providers/real_embeddings.ts"},
	}}
	g, err := LoadGraph(context.Background(), store, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Size())
	assert.Equal(t, 0.5, g.ComputeGraphProximity("api/embeddings.ts", "api/embedding_providers/real_embeddings.ts"))
}
