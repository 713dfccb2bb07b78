/*
Package knowledge is the in-process retrieval collaborator: it embeds
context packs, ranks them against an intent with graph-augmented
similarity and answers nearest-neighbor lookups.
*/
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/josephgoksu/ContextWing/internal/graph"
	"github.com/josephgoksu/ContextWing/internal/llm"
	"github.com/josephgoksu/ContextWing/internal/memory"
	"github.com/josephgoksu/ContextWing/internal/relevance"
	"github.com/josephgoksu/ContextWing/internal/scoring"
)

// PackStore is the subset of the memory store the index needs.
type PackStore interface {
	ListContextPacks(ctx context.Context) ([]memory.PackRecord, error)
	UpsertContextPack(ctx context.Context, p memory.PackRecord) error
	UpdatePackEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Index ranks stored context packs. The embedder and graph are optional:
// without an embedder every lookup is degraded, without a graph confidences
// fall back to raw similarity.
type Index struct {
	store    PackStore
	embedder embedding.Embedder
	graph    *graph.DependencyGraph
	scorer   *scoring.Scorer
	cfg      Config
	cache    *lru.Cache[string, []float32]

	mu     sync.RWMutex
	packs  []memory.PackRecord
	loaded bool
}

// NewIndex creates an index over store. A nil scorer uses scoring.Default.
func NewIndex(store PackStore, embedder embedding.Embedder, g *graph.DependencyGraph, scorer *scoring.Scorer, cfg Config) (*Index, error) {
	if store == nil {
		return nil, fmt.Errorf("new index: pack store is required")
	}
	cfg = cfg.withDefaults()
	cache, err := lru.New[string, []float32](cfg.QueryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	if scorer == nil {
		scorer = scoring.Default
	}
	return &Index{
		store:    store,
		embedder: embedder,
		graph:    g,
		scorer:   scorer,
		cfg:      cfg,
		cache:    cache,
	}, nil
}

// Refresh reloads packs from the store.
func (ix *Index) Refresh(ctx context.Context) error {
	_, err := ix.reload(ctx)
	return err
}

// reload replaces the cached packs and returns them.
func (ix *Index) reload(ctx context.Context) ([]memory.PackRecord, error) {
	packs, err := ix.store.ListContextPacks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list context packs: %w", err)
	}
	ix.mu.Lock()
	ix.packs = packs
	ix.loaded = true
	ix.mu.Unlock()
	return packs, nil
}

func (ix *Index) snapshot(ctx context.Context) ([]memory.PackRecord, error) {
	ix.mu.RLock()
	loaded := ix.loaded
	packs := ix.packs
	ix.mu.RUnlock()
	if loaded {
		return packs, nil
	}
	return ix.reload(ctx)
}

// IngestStats summarises an Ingest call.
type IngestStats struct {
	Stored   int `json:"stored"`
	Embedded int `json:"embedded"`
	Pending  int `json:"pending"` // packs still without an embedding
}

// Ingest upserts packs and embeds every stored pack that has no embedding
// yet. Without an embedder packs are stored and left pending.
func (ix *Index) Ingest(ctx context.Context, packs []memory.PackRecord) (IngestStats, error) {
	var stats IngestStats
	for _, p := range packs {
		p.RelatedFiles = normalizeFiles(p.RelatedFiles)
		if err := ix.store.UpsertContextPack(ctx, p); err != nil {
			return stats, fmt.Errorf("store pack %s: %w", p.ID, err)
		}
		stats.Stored++
	}

	all, err := ix.reload(ctx)
	if err != nil {
		return stats, err
	}

	var missing []memory.PackRecord
	for _, p := range all {
		if len(p.Embedding) == 0 {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return stats, nil
	}
	if ix.embedder == nil {
		stats.Pending = len(missing)
		slog.Warn("no embedding provider configured; packs stored without embeddings", "pending", stats.Pending)
		return stats, nil
	}

	embedded, err := ix.embedPacks(ctx, missing)
	stats.Embedded = embedded
	stats.Pending = len(missing) - embedded
	if err != nil {
		return stats, err
	}
	return stats, ix.Refresh(ctx)
}

// embedPacks embeds packs in batches on a bounded worker pool and stores
// the vectors. It returns how many packs were embedded.
func (ix *Index) embedPacks(ctx context.Context, packs []memory.PackRecord) (int, error) {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(ix.cfg.EmbedWorkers)

	var mu sync.Mutex
	embedded := 0
	for start := 0; start < len(packs); start += ix.cfg.EmbedBatchSize {
		end := min(start+ix.cfg.EmbedBatchSize, len(packs))
		batch := packs[start:end]
		eg.Go(func() error {
			texts := make([]string, len(batch))
			for i, p := range batch {
				texts[i] = packText(p)
			}
			vectors, err := llm.EmbedTexts(ctx, ix.embedder, texts)
			if err != nil {
				return err
			}
			for i, p := range batch {
				if err := ix.store.UpdatePackEmbedding(ctx, p.ID, vectors[i]); err != nil {
					return fmt.Errorf("store embedding for %s: %w", p.ID, err)
				}
			}
			mu.Lock()
			embedded += len(batch)
			mu.Unlock()
			return nil
		})
	}
	err := eg.Wait()
	return embedded, err
}

// packText is the text embedded for a pack.
func packText(p memory.PackRecord) string {
	if len(p.RelatedFiles) == 0 {
		return p.Summary
	}
	return p.Summary + "\n" + strings.Join(p.RelatedFiles, "\n")
}

func (ix *Index) embedQuery(ctx context.Context, text string) ([]float32, error) {
	key := strings.TrimSpace(text)
	if v, ok := ix.cache.Get(key); ok {
		return v, nil
	}
	vectors, err := llm.EmbedTexts(ctx, ix.embedder, []string{key})
	if err != nil {
		return nil, err
	}
	ix.cache.Add(key, vectors[0])
	return vectors[0], nil
}

// scored is a pack with its semantic and blended scores.
type scored struct {
	pack       memory.PackRecord
	semantic   float64
	confidence float64
}

// rank embeds text and scores every embedded pack. The second return is
// the number of packs skipped for lack of an embedding.
func (ix *Index) rank(ctx context.Context, text string, anchors []string) ([]scored, int, error) {
	packs, err := ix.snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}
	query, err := ix.embedQuery(ctx, text)
	if err != nil {
		return nil, 0, err
	}

	out := make([]scored, 0, len(packs))
	skipped := 0
	for _, p := range packs {
		if len(p.Embedding) == 0 {
			skipped++
			continue
		}
		sem := scoring.CosineSimilarity(query, p.Embedding)
		out = append(out, scored{
			pack:       p,
			semantic:   sem,
			confidence: ix.confidence(anchors, p, sem),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].confidence != out[j].confidence {
			return out[i].confidence > out[j].confidence
		}
		return out[i].pack.ID < out[j].pack.ID
	})
	return out, skipped, nil
}

// confidence blends the semantic score with graph signals between the
// anchors and the pack's files, keeping the best pair.
func (ix *Index) confidence(anchors []string, p memory.PackRecord, semantic float64) float64 {
	if ix.graph == nil || len(anchors) == 0 {
		return max(semantic, 0)
	}
	files := p.RelatedFiles
	if len(files) == 0 {
		files = []string{p.ID}
	}
	best := 0.0
	for _, a := range anchors {
		for _, f := range files {
			r := ix.scorer.ScorePair(ix.graph, a, f, semantic)
			if r.IsAdversarial {
				slog.Debug("adversarial pair down-weighted", "anchor", a, "file", f, "reason", r.Reason)
			}
			best = max(best, r.FinalSimilarity)
		}
	}
	return best
}

// Query implements relevance.Retriever.
func (ix *Index) Query(ctx context.Context, q relevance.RetrievalQuery) (relevance.RetrievalResponse, error) {
	if ix.embedder == nil {
		return relevance.RetrievalResponse{
			Degraded:       true,
			DegradedReason: "no embedding provider configured",
		}, nil
	}

	ranked, skipped, err := ix.rank(ctx, q.Intent, normalizeFiles(q.AffectedFiles))
	if err != nil {
		return relevance.RetrievalResponse{}, fmt.Errorf("rank packs: %w", err)
	}

	var resp relevance.RetrievalResponse
	limit := PackLimit(q.Depth)
	sum := 0.0
	for _, s := range ranked {
		if len(resp.Packs) >= limit {
			break
		}
		if s.confidence < ix.cfg.MinConfidence {
			continue
		}
		resp.Packs = append(resp.Packs, relevance.ContextPack{
			PackID:       s.pack.ID,
			Summary:      s.pack.Summary,
			Confidence:   s.confidence,
			RelatedFiles: s.pack.RelatedFiles,
		})
		sum += s.confidence
	}
	if n := len(resp.Packs); n > 0 {
		resp.AggregateConfidence = sum / float64(n)
	}

	switch {
	case len(ranked) == 0:
		resp.Degraded = true
		resp.DegradedReason = "index has no embedded context packs"
	case skipped > 0:
		resp.Degraded = true
		resp.DegradedReason = fmt.Sprintf("%d context packs have no embedding", skipped)
	}
	return resp, nil
}

// FindSimilar implements relevance.NeighborFinder.
func (ix *Index) FindSimilar(ctx context.Context, text string, limit int) (relevance.NeighborResponse, error) {
	resp := relevance.NeighborResponse{Neighbors: []relevance.Neighbor{}}
	if ix.embedder == nil {
		resp.Degraded = true
		resp.DegradedReason = "no embedding provider configured"
		return resp, nil
	}

	ranked, skipped, err := ix.rank(ctx, text, nil)
	if err != nil {
		return resp, fmt.Errorf("find similar: %w", err)
	}
	for _, s := range ranked {
		if limit > 0 && len(resp.Neighbors) >= limit {
			break
		}
		n := relevance.Neighbor{
			ID:         s.pack.ID,
			Summary:    s.pack.Summary,
			Similarity: s.semantic,
		}
		if len(s.pack.RelatedFiles) > 0 {
			n.FilePath = s.pack.RelatedFiles[0]
		}
		resp.Neighbors = append(resp.Neighbors, n)
	}
	if len(ranked) == 0 {
		resp.Degraded = true
		resp.DegradedReason = "index has no embedded context packs"
	} else if skipped > 0 {
		resp.Degraded = true
		resp.DegradedReason = fmt.Sprintf("%d context packs have no embedding", skipped)
	}
	return resp, nil
}

func normalizeFiles(files []string) []string {
	if len(files) == 0 {
		return nil
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if n := graph.NormalizePath(f); n != "" {
			out = append(out, n)
		}
	}
	return out
}

var (
	_ relevance.Retriever      = (*Index)(nil)
	_ relevance.NeighborFinder = (*Index)(nil)
)
