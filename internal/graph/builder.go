package graph

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ModuleRecord is the per-file import metadata produced by the indexer and
// kept in the module store.
type ModuleRecord struct {
	FilePath   string   `json:"file_path"`
	ModuleName string   `json:"module_name,omitempty"`
	Imports    []string `json:"imports"`
	Language   string   `json:"language,omitempty"`
}

// BuildFromModules builds a graph from module records. Records are
// normalised on up to workers goroutines (GOMAXPROCS when workers <= 0);
// the graph's own insert is the only shared state.
func BuildFromModules(ctx context.Context, records []ModuleRecord, workers int) (*DependencyGraph, error) {
	g := New()
	if len(records) == 0 {
		return g, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for _, rec := range records {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			node := FileNode{
				FilePath:   NormalizePath(rec.FilePath),
				ModuleName: rec.ModuleName,
				Imports:    normalizeAll(rec.Imports),
			}
			if err := g.AddNode(node); err != nil {
				return fmt.Errorf("add %q: %w", rec.FilePath, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

func normalizeAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if n := NormalizePath(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}
