/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/josephgoksu/ContextWing/internal/config"
	"github.com/josephgoksu/ContextWing/internal/graph"
	"github.com/josephgoksu/ContextWing/internal/knowledge"
	"github.com/josephgoksu/ContextWing/internal/llm"
	"github.com/josephgoksu/ContextWing/internal/memory"
	"github.com/josephgoksu/ContextWing/internal/relevance"
	"github.com/josephgoksu/ContextWing/internal/scoring"
)

// closeTimeout bounds the drain of pending learned-missing writes.
const closeTimeout = 5 * time.Second

// pipeline is the retrieval stack a command works with.
type pipeline struct {
	store  *memory.SQLiteStore
	cfg    config.RetrievalConfig
	scorer *scoring.Scorer
	graph  *graph.DependencyGraph
	index  *knowledge.Index
	engine *relevance.Engine
}

// openStore opens the SQLite store under the memory base path.
func openStore() (*memory.SQLiteStore, error) {
	path := config.GetMemoryBasePath()
	store, err := memory.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open memory at %s: %w", path, err)
	}
	slog.Debug("memory opened", "path", path)
	return store, nil
}

// openEmbedder builds the configured embedding provider. A provider that
// cannot be built leaves retrieval degraded instead of failing the command.
func openEmbedder(ctx context.Context) embedding.Embedder {
	cfg, err := config.LoadLLMConfig()
	if err != nil {
		slog.Warn("embedding provider config invalid", "error", err)
		return nil
	}
	e, err := llm.NewEmbedder(ctx, cfg)
	if err != nil {
		slog.Warn("embedding provider unavailable", "provider", cfg.Provider, "error", err)
		return nil
	}
	slog.Debug("embedding provider ready", "provider", cfg.Provider, "model", cfg.EmbeddingModel)
	return e
}

// newPipeline wires the graph, index and engine over store. The
// learned-missing set is loaded before the pipeline is returned.
func newPipeline(ctx context.Context, store *memory.SQLiteStore, withEmbedder bool) (*pipeline, error) {
	cfg, err := config.LoadRetrievalConfig()
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewScorer(cfg.Weights)
	if err != nil {
		return nil, err
	}
	g, err := relevance.LoadGraph(ctx, store, cfg.GraphWorkers)
	if err != nil {
		return nil, err
	}

	var embedder embedding.Embedder
	if withEmbedder {
		embedder = openEmbedder(ctx)
	}
	index, err := knowledge.NewIndex(store, embedder, g, scorer, cfg.Index)
	if err != nil {
		return nil, err
	}

	learned := relevance.NewLearnedMissing(store, cfg.LearningQueueSize)
	n := learned.Load(ctx)
	slog.Debug("learned-missing loaded", "entries", n)

	rt := &pipeline{
		store:  store,
		cfg:    cfg,
		scorer: scorer,
		graph:  g,
		index:  index,
	}
	rt.engine = relevance.NewEngine(relevance.Options{
		Retriever:    index,
		Neighbors:    index,
		Learned:      learned,
		Capabilities: relevance.DetectCapabilities(store),
		Budget:       cfg.Budget,
		Tiering:      cfg.Tiering,
		Timeout:      cfg.Timeout,
	})
	return rt, nil
}

// openPipeline opens the store and wires the pipeline over it.
func openPipeline(ctx context.Context, withEmbedder bool) (*pipeline, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	rt, err := newPipeline(ctx, store, withEmbedder)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return rt, nil
}

// Close drains pending learned-missing writes and closes the store.
func (r *pipeline) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := r.engine.Close(ctx); err != nil {
		slog.Warn("learned-missing writes not drained", "error", err)
	}
	return r.store.Close()
}
