package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/josephgoksu/ContextWing/internal/graph"
)

const defaultRetrievalTimeout = 10 * time.Second

// Options configures an Engine.
type Options struct {
	Retriever Retriever
	// Neighbors is required only by FindExamples.
	Neighbors NeighborFinder
	// Learned is the learned-missing set. Nil creates a memory-only one.
	Learned      *LearnedMissing
	Capabilities Capabilities
	Budget       Budget
	Tiering      TieringConfig
	// Timeout bounds each retrieval call.
	Timeout time.Duration
}

// Engine answers relevance queries.
type Engine struct {
	retriever Retriever
	neighbors NeighborFinder
	learned   *LearnedMissing
	caps      Capabilities
	budget    Budget
	tiering   TieringConfig
	timeout   time.Duration
}

// NewEngine builds an engine from opts, filling unset values with defaults.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		retriever: opts.Retriever,
		neighbors: opts.Neighbors,
		learned:   opts.Learned,
		caps:      opts.Capabilities,
		budget:    opts.Budget.Normalize(DefaultBudget()),
		tiering:   opts.Tiering.withDefaults(),
		timeout:   opts.Timeout,
	}
	if e.learned == nil {
		e.learned = NewLearnedMissing(nil, 0)
	}
	if e.timeout <= 0 {
		e.timeout = defaultRetrievalTimeout
	}
	return e
}

// Learned returns the engine's learned-missing set.
func (e *Engine) Learned() *LearnedMissing {
	return e.learned
}

// Query retrieves, ranks and tiers knowledge for req. Retrieval failures
// produce an empty, degraded result rather than an error; only an invalid
// request fails.
func (e *Engine) Query(ctx context.Context, req Request) (*Result, error) {
	req.Intent = strings.TrimSpace(req.Intent)
	if req.Intent == "" {
		return nil, ErrEmptyIntent
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	budget := req.Budget.Normalize(e.budget)
	result := &Result{
		Intent:     req.Intent,
		Depth:      DepthTier(budget.Depth()),
		BlindSpots: []BlindSpot{},
	}

	resp, err := e.retrieve(ctx, RetrievalQuery{
		Intent:        req.Intent,
		AffectedFiles: normalizeHints(req.Hints),
		Depth:         result.Depth,
	})
	if err != nil {
		slog.Warn("relevance retrieval failed", "intent", req.Intent, "error", err)
		result.BlindSpots = append(result.BlindSpots, failureBlindSpot(req.Intent, err))
		result.Degraded = true
		result.DegradedReason = err.Error()
		return result, nil
	}
	result.Degraded = resp.Degraded
	result.DegradedReason = resp.DegradedReason

	items := packsToItems(resp.Packs)
	e.sortCandidates(ctx, items)

	result.Tiers, result.TokensUsed = fillTiers(items, budget, e.tiering)
	result.BlindSpots = append(result.BlindSpots, detectBlindSpots(req.Intent, req.Hints, items)...)
	e.mergeLearned(result, items, budget)
	result.Confidence = aggregateConfidence(resp.AggregateConfidence, result.Tiers.Essential)

	slog.Debug("relevance query complete",
		"intent", req.Intent,
		"candidates", len(items),
		"essential", len(result.Tiers.Essential),
		"contextual", len(result.Tiers.Contextual),
		"reference", len(result.Tiers.Reference),
		"blind_spots", len(result.BlindSpots),
		"tokens", result.TokensUsed)
	return result, nil
}

func (e *Engine) retrieve(ctx context.Context, q RetrievalQuery) (RetrievalResponse, error) {
	if e.retriever == nil {
		return RetrievalResponse{}, newProviderUnavailable("retrieval", "query")
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.retriever.Query(ctx, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return RetrievalResponse{}, fmt.Errorf("retrieval timed out after %s: %w", e.timeout, err)
		}
		return RetrievalResponse{}, fmt.Errorf("retrieval query: %w", err)
	}
	return resp, nil
}

func packsToItems(packs []ContextPack) []KnowledgeItem {
	items := make([]KnowledgeItem, 0, len(packs))
	seen := make(map[string]bool, len(packs))
	for _, p := range packs {
		if p.PackID == "" || seen[p.PackID] {
			continue
		}
		seen[p.PackID] = true
		items = append(items, KnowledgeItem{
			ID:           p.PackID,
			Summary:      p.Summary,
			Confidence:   clampConfidence(p.Confidence),
			RelatedFiles: append([]string(nil), p.RelatedFiles...),
			Kind:         KindContextPack,
		})
	}
	return items
}

// sortCandidates orders by confidence, then by graph centrality of the
// related files when storage provides metrics, then by ID.
func (e *Engine) sortCandidates(ctx context.Context, items []KnowledgeItem) {
	centrality := e.centrality(ctx, items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Confidence != items[j].Confidence {
			return items[i].Confidence > items[j].Confidence
		}
		ci, cj := centrality[items[i].ID], centrality[items[j].ID]
		if ci != cj {
			return ci > cj
		}
		return items[i].ID < items[j].ID
	})
}

func (e *Engine) centrality(ctx context.Context, items []KnowledgeItem) map[string]float64 {
	if e.caps.GraphMetrics == nil || len(items) == 0 {
		return nil
	}
	var paths []string
	for _, it := range items {
		for _, f := range it.RelatedFiles {
			paths = append(paths, graph.NormalizePath(f))
		}
	}
	if len(paths) == 0 {
		return nil
	}
	metrics, err := e.caps.GraphMetrics.GetGraphMetrics(ctx, paths)
	if err != nil {
		slog.Warn("graph metrics lookup failed, ranking without centrality", "error", err)
		return nil
	}
	out := make(map[string]float64, len(items))
	for _, it := range items {
		for _, f := range it.RelatedFiles {
			if m, ok := metrics[graph.NormalizePath(f)]; ok && m.Centrality > out[it.ID] {
				out[it.ID] = m.Centrality
			}
		}
	}
	return out
}

// mergeLearned appends uncovered learned-missing entries to reference while
// the file budget allows and reports each as a blind spot.
func (e *Engine) mergeLearned(result *Result, items []KnowledgeItem, budget Budget) {
	learned := e.learned.Snapshot()
	if len(learned) == 0 {
		return
	}
	covered := newCoverage(items)
	for _, m := range learned {
		if covered.has(m) {
			continue
		}
		if result.Tiers.Len() < budget.MaxFiles {
			result.Tiers.Reference = append(result.Tiers.Reference, KnowledgeItem{
				ID:           m,
				Summary:      fmt.Sprintf("Previously reported missing context: %s", m),
				Confidence:   e.tiering.LearnedConfidence,
				RelatedFiles: learnedFiles(m),
				Kind:         KindLearnedMissing,
			})
		}
		result.BlindSpots = append(result.BlindSpots, learnedBlindSpot(m))
	}
}

// learnedFiles treats entries that look like paths as related files.
func learnedFiles(m string) []string {
	if strings.ContainsAny(m, "/.") && !strings.ContainsAny(m, " \t") {
		return []string{graph.NormalizePath(m)}
	}
	return nil
}

func aggregateConfidence(external float64, essential []KnowledgeItem) float64 {
	if external > 0 {
		return clampConfidence(external)
	}
	if len(essential) == 0 {
		return 0
	}
	var sum float64
	for _, it := range essential {
		sum += it.Confidence
	}
	return sum / float64(len(essential))
}

func normalizeHints(hints []string) []string {
	var out []string
	seen := make(map[string]bool, len(hints))
	for _, h := range hints {
		n := graph.NormalizePath(h)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// OutcomeStatus is how a task using retrieved context ended.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	OutcomePartial OutcomeStatus = "partial"
)

// Outcome is an agent's report on a finished task.
type Outcome struct {
	Status         OutcomeStatus `json:"status" validate:"required,oneof=success failure partial"`
	MissingContext []string      `json:"missing_context,omitempty"`
}

// RecordOutcome learns the missing context of an unsuccessful task that
// was not part of the context it was given, and returns the entries new to
// the learned set. Persistence is best-effort.
func (e *Engine) RecordOutcome(ctx context.Context, taskID string, outcome Outcome, contextUsed []string) ([]string, error) {
	if err := validateStruct(outcome); err != nil {
		return nil, err
	}

	if e.caps.Outcomes != nil {
		if err := e.caps.Outcomes.RecordOutcome(ctx, taskID, string(outcome.Status), outcome.MissingContext, contextUsed); err != nil {
			slog.Warn("record task outcome failed", "task_id", taskID, "error", err)
		}
	}

	if outcome.Status == OutcomeSuccess {
		return nil, nil
	}
	used := make(map[string]bool, len(contextUsed))
	for _, c := range contextUsed {
		used[strings.TrimSpace(c)] = true
		used[graph.NormalizePath(c)] = true
	}
	var missing []string
	for _, m := range outcome.MissingContext {
		m = strings.TrimSpace(m)
		if m == "" || used[m] || used[graph.NormalizePath(m)] {
			continue
		}
		missing = append(missing, m)
	}
	return e.learned.Add(taskID, missing...), nil
}

// LearnNegative records context that a task reported as missing.
func (e *Engine) LearnNegative(taskID string, missing []string) []string {
	return e.learned.Add(taskID, missing...)
}

// Close drains pending learned-missing writes.
func (e *Engine) Close(ctx context.Context) error {
	return e.learned.Close(ctx)
}
