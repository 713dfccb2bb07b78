package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/josephgoksu/ContextWing/internal/graph"
	"github.com/josephgoksu/ContextWing/internal/relevance"
	"github.com/josephgoksu/ContextWing/internal/scoring"
)

// Handlers serves the MCP tools from one engine and dependency graph.
type Handlers struct {
	engine *relevance.Engine
	graph  *graph.DependencyGraph
	scorer *scoring.Scorer
}

// NewHandlers creates tool handlers. The graph may be nil; a nil scorer
// uses scoring.Default.
func NewHandlers(engine *relevance.Engine, g *graph.DependencyGraph, scorer *scoring.Scorer) *Handlers {
	if scorer == nil {
		scorer = scoring.Default
	}
	return &Handlers{engine: engine, graph: g, scorer: scorer}
}

func failure(tool, message string) *ToolResult {
	return &ToolResult{Tool: tool, Error: message}
}

// HandleRelevance answers a relevance query.
func (h *Handlers) HandleRelevance(ctx context.Context, params RelevanceParams) (*ToolResult, error) {
	if strings.TrimSpace(params.Intent) == "" {
		return failure(ToolRelevance, "intent is required"), nil
	}
	req := relevance.Request{Intent: params.Intent, Hints: params.Hints}
	req.Budget = relevance.Budget{
		MaxFiles:  params.MaxFiles,
		MaxTokens: params.MaxTokens,
		MaxDepth:  params.MaxDepth,
	}

	res, err := h.engine.Query(ctx, req)
	if err != nil {
		if errors.Is(err, relevance.ErrEmptyIntent) {
			return failure(ToolRelevance, err.Error()), nil
		}
		return nil, fmt.Errorf("relevance query: %w", err)
	}
	return &ToolResult{Tool: ToolRelevance, Content: FormatRelevance(res)}, nil
}

// HandleLearnMissing adds entries to the learned-missing set.
func (h *Handlers) HandleLearnMissing(_ context.Context, params LearnMissingParams) (*ToolResult, error) {
	if len(params.Missing) == 0 {
		return failure(ToolLearnMissing, "missing must list at least one entry"), nil
	}
	added := h.engine.LearnNegative(params.TaskID, params.Missing)
	return &ToolResult{Tool: ToolLearnMissing, Content: FormatLearned(added, h.engine.Learned().Len())}, nil
}

// HandleRecordOutcome records a finished task and learns from it.
func (h *Handlers) HandleRecordOutcome(ctx context.Context, params RecordOutcomeParams) (*ToolResult, error) {
	if strings.TrimSpace(params.TaskID) == "" {
		return failure(ToolRecordOutcome, "task_id is required"), nil
	}
	outcome := relevance.Outcome{
		Status:         relevance.OutcomeStatus(strings.ToLower(strings.TrimSpace(params.Status))),
		MissingContext: params.MissingContext,
	}
	added, err := h.engine.RecordOutcome(ctx, params.TaskID, outcome, params.ContextUsed)
	if err != nil {
		return failure(ToolRecordOutcome, err.Error()), nil
	}
	return &ToolResult{Tool: ToolRecordOutcome, Content: FormatLearned(added, h.engine.Learned().Len())}, nil
}

// HandleFindExamples returns code similar to a description.
func (h *Handlers) HandleFindExamples(ctx context.Context, params FindExamplesParams) (*ToolResult, error) {
	if strings.TrimSpace(params.Text) == "" {
		return failure(ToolFindExamples, "text is required"), nil
	}
	ex, err := h.engine.FindExamples(ctx, params.Text, params.Limit)
	if err != nil {
		var pe *relevance.ProviderError
		if errors.As(err, &pe) {
			return failure(ToolFindExamples, pe.Message), nil
		}
		return failure(ToolFindExamples, err.Error()), nil
	}
	return &ToolResult{Tool: ToolFindExamples, Content: FormatExamples(ex)}, nil
}

// HandleScorePair explains the graph-augmented similarity of two files.
func (h *Handlers) HandleScorePair(_ context.Context, params ScorePairParams) (*ToolResult, error) {
	a, b := graph.NormalizePath(params.PathA), graph.NormalizePath(params.PathB)
	if a == "" || b == "" {
		return failure(ToolScorePair, "path_a and path_b are required"), nil
	}
	if params.Semantic < -1 || params.Semantic > 1 {
		return failure(ToolScorePair, "semantic must be between -1 and 1"), nil
	}
	in := scoring.Inputs{SemanticSimilarity: params.Semantic}
	if h.graph != nil {
		in.GraphProximity = h.graph.ComputeGraphProximity(a, b)
		in.ModuleAffinity = h.graph.ComputeModuleAffinity(a, b)
	}
	res := h.scorer.Compute(in, scoring.PairContext{PathA: a, PathB: b})
	return &ToolResult{Tool: ToolScorePair, Content: FormatScore(a, b, in, res)}, nil
}
