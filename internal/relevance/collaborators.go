package relevance

import (
	"context"
	"fmt"

	"github.com/josephgoksu/ContextWing/internal/graph"
)

// ContextPack is one ranked unit returned by the retrieval collaborator.
type ContextPack struct {
	PackID       string   `json:"pack_id"`
	Summary      string   `json:"summary"`
	Confidence   float64  `json:"confidence"`
	RelatedFiles []string `json:"related_files,omitempty"`
}

// RetrievalQuery is what the engine asks the retrieval collaborator.
type RetrievalQuery struct {
	Intent        string   `json:"intent"`
	AffectedFiles []string `json:"affected_files,omitempty"`
	Depth         string   `json:"depth"`
}

// RetrievalResponse carries packs in ranked order plus the aggregate
// confidence. Degraded is set when the index could only partly answer.
type RetrievalResponse struct {
	Packs               []ContextPack `json:"packs"`
	AggregateConfidence float64       `json:"aggregate_confidence"`
	Degraded            bool          `json:"degraded,omitempty"`
	DegradedReason      string        `json:"degraded_reason,omitempty"`
}

// Retriever answers intent queries with context packs.
type Retriever interface {
	Query(ctx context.Context, q RetrievalQuery) (RetrievalResponse, error)
}

// Neighbor is one similarity-ranked match.
type Neighbor struct {
	ID         string  `json:"id"`
	FilePath   string  `json:"file_path,omitempty"`
	Summary    string  `json:"summary,omitempty"`
	Similarity float64 `json:"similarity"`
}

// NeighborResponse is a similarity-ranked neighbor list.
type NeighborResponse struct {
	Neighbors      []Neighbor `json:"neighbors"`
	Degraded       bool       `json:"degraded,omitempty"`
	DegradedReason string     `json:"degraded_reason,omitempty"`
}

// NeighborFinder returns the nearest neighbors of a text.
type NeighborFinder interface {
	FindSimilar(ctx context.Context, text string, limit int) (NeighborResponse, error)
}

// LearnedStore persists learned-missing context.
type LearnedStore interface {
	RecordLearnedMissing(ctx context.Context, missing, taskID string) error
	GetLearnedMissing(ctx context.Context) ([]string, error)
}

// Storage is the structured store the engine reads from.
type Storage interface {
	LearnedStore
	GetModules(ctx context.Context) ([]graph.ModuleRecord, error)
}

// GraphMetricsSource looks up precomputed graph metrics by file path.
type GraphMetricsSource interface {
	GetGraphMetrics(ctx context.Context, paths []string) (map[string]graph.FileMetrics, error)
}

// OutcomeRecorder keeps an audit trail of task outcomes.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, taskID, status string, missing, contextUsed []string) error
}

// Capabilities lists the optional storage features. Nil fields are
// unsupported and the engine falls back to neutral behaviour.
type Capabilities struct {
	GraphMetrics GraphMetricsSource
	Outcomes     OutcomeRecorder
}

// DetectCapabilities fills Capabilities from whatever s implements.
func DetectCapabilities(s any) Capabilities {
	var caps Capabilities
	if gm, ok := s.(GraphMetricsSource); ok {
		caps.GraphMetrics = gm
	}
	if oc, ok := s.(OutcomeRecorder); ok {
		caps.Outcomes = oc
	}
	return caps
}

// LoadGraph rebuilds the dependency graph from the module store.
func LoadGraph(ctx context.Context, s Storage, workers int) (*graph.DependencyGraph, error) {
	modules, err := s.GetModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("get modules: %w", err)
	}
	g, err := graph.BuildFromModules(ctx, modules, workers)
	if err != nil {
		return nil, fmt.Errorf("build dependency graph: %w", err)
	}
	return g, nil
}
