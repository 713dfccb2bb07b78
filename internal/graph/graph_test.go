package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainGraph builds a -> b -> c -> d -> e.
func chainGraph(t *testing.T) *DependencyGraph {
	t.Helper()
	g := New()
	files := []string{"pkg/a.go", "pkg/b.go", "pkg/c.go", "pkg/d.go", "pkg/e.go"}
	for i, f := range files {
		node := FileNode{FilePath: f}
		if i+1 < len(files) {
			node.Imports = []string{files[i+1]}
		}
		require.NoError(t, g.AddNode(node))
	}
	return g
}

func TestAddNode_EmptyPath(t *testing.T) {
	g := New()
	err := g.AddNode(FileNode{ModuleName: "x"})
	assert.ErrorIs(t, err, ErrEmptyFilePath)
	assert.Equal(t, 0, g.Size())
}

func TestAddNode_ReplaceAndReverseEdges(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(FileNode{FilePath: "api/embeddings.ts", Imports: []string{"api/embedding_providers/real_embeddings.ts"}}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "api/embedding_providers/real_embeddings.ts"}))

	provider, ok := g.Node("api/embedding_providers/real_embeddings.ts")
	require.True(t, ok)
	assert.Equal(t, []string{"api/embeddings.ts"}, provider.ImportedBy)

	// Replacing the importer drops the edge after recomputation.
	require.NoError(t, g.AddNode(FileNode{FilePath: "api/embeddings.ts"}))
	provider, ok = g.Node("api/embedding_providers/real_embeddings.ts")
	require.True(t, ok)
	assert.Empty(t, provider.ImportedBy)
	assert.Equal(t, 2, g.Size())
}

func TestAddNode_IgnoresCallerImportedBy(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(FileNode{FilePath: "a.go", ImportedBy: []string{"bogus.go"}}))
	n, ok := g.Node("a.go")
	require.True(t, ok)
	assert.Empty(t, n.ImportedBy)
}

func TestComputeGraphProximity(t *testing.T) {
	g := chainGraph(t)

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "pkg/a.go", "pkg/a.go", 1.0},
		{"direct import", "pkg/a.go", "pkg/b.go", 0.5},
		{"reverse edge", "pkg/b.go", "pkg/a.go", 0.5},
		{"two hops", "pkg/a.go", "pkg/c.go", 1.0 / 3.0},
		{"three hops", "pkg/a.go", "pkg/d.go", 0.25},
		{"beyond limit", "pkg/a.go", "pkg/e.go", 0},
		{"unknown file", "pkg/a.go", "other/x.go", 0},
		{"empty path", "", "pkg/a.go", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, g.ComputeGraphProximity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestComputeGraphProximity_SharedDependency(t *testing.T) {
	// Two files that import the same helper are two hops apart.
	g := New()
	require.NoError(t, g.AddNode(FileNode{FilePath: "src/service.py", Imports: []string{"src/models.py"}}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "src/triage.py", Imports: []string{"src/models.py"}}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "src/models.py"}))

	assert.InDelta(t, 1.0/3.0, g.ComputeGraphProximity("src/service.py", "src/triage.py"), 1e-9)
}

func TestComputeGraphProximity_Symmetric(t *testing.T) {
	g := New()
	// Small irregular graph with a cycle and a dangling import target.
	edges := map[string][]string{
		"a/1.go": {"a/2.go", "b/1.go"},
		"a/2.go": {"a/3.go"},
		"a/3.go": {"a/1.go"},
		"b/1.go": {"c/1.go", "vendor/x.go"},
		"c/1.go": {"c/2.go"},
		"c/2.go": nil,
		"d/1.go": nil,
	}
	for f, imps := range edges {
		require.NoError(t, g.AddNode(FileNode{FilePath: f, Imports: imps}))
	}

	paths := append(g.Paths(), "vendor/x.go", "missing.go")
	for _, a := range paths {
		for _, b := range paths {
			assert.Equal(t, g.ComputeGraphProximity(a, b), g.ComputeGraphProximity(b, a),
				"proximity(%s,%s) must be symmetric", a, b)
			assert.Equal(t, g.ComputeModuleAffinity(a, b), g.ComputeModuleAffinity(b, a),
				"affinity(%s,%s) must be symmetric", a, b)
		}
	}
}

func TestGraphSignals_NormalizePaths(t *testing.T) {
	g := chainGraph(t)

	assert.Equal(t, 1.0, g.ComputeGraphProximity("./pkg/a.go", "pkg/a.go"))
	assert.Equal(t, 0.5, g.ComputeGraphProximity("./pkg/a.go", "pkg//b.go"))
	assert.Equal(t, g.ComputeGraphProximity("pkg/a.go", "pkg/c.go"), g.ComputeGraphProximity("/pkg/a.go", " pkg/c.go "))
	assert.Equal(t, 0.0, g.ComputeGraphProximity("./", "pkg/a.go"))
	assert.Equal(t, 1.0, g.ComputeModuleAffinity("./pkg/a.go", "pkg/a.go"))

	n, ok := g.Node("./pkg/b.go")
	require.True(t, ok)
	assert.Equal(t, []string{"pkg/a.go"}, n.ImportedBy)

	// Nodes added with unclean paths land on the same keys.
	require.NoError(t, g.AddNode(FileNode{FilePath: "./pkg/f.go", Imports: []string{"pkg/./e.go"}}))
	assert.Equal(t, 0.5, g.ComputeGraphProximity("pkg/f.go", "pkg/e.go"))
}

func TestComputeModuleAffinity(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(FileNode{FilePath: "internal/memory/sqlite.go"}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "internal/memory/models.go"}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "internal/knowledge/index.go"}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "custom/a.go", ModuleName: "shared"}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "other/b.go", ModuleName: "shared"}))

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"same module", "internal/memory/sqlite.go", "internal/memory/models.go", 1.0},
		{"shared top level", "internal/memory/sqlite.go", "internal/knowledge/index.go", SharedTopLevelAffinity},
		{"unrelated", "internal/memory/sqlite.go", "cmd/root.go", 0},
		{"explicit module name", "custom/a.go", "other/b.go", 1.0},
		{"unknown files derive module", "storage/types.ts", "storage/index.ts", 1.0},
		{"unknown unrelated", "storage/types.ts", "engines/types.ts", 0},
		{"empty", "", "cmd/root.go", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.ComputeModuleAffinity(tt.a, tt.b))
		})
	}
}

func TestDeriveModuleName(t *testing.T) {
	assert.Equal(t, "internal/memory", DeriveModuleName("internal/memory/sqlite.go"))
	assert.Equal(t, "internal/llm", DeriveModuleName("internal/llm/providers/tei/embedder.go"))
	assert.Equal(t, "api", DeriveModuleName("api/embeddings.ts"))
	assert.Equal(t, ".", DeriveModuleName("main.go"))
	assert.Equal(t, "src/services", DeriveModuleName("./src/services/notify/sender.go"))
}

func TestTopLevelDirAndBaseName(t *testing.T) {
	assert.Equal(t, "storage", TopLevelDir("storage/types.ts"))
	assert.Equal(t, "", TopLevelDir("types.ts"))
	assert.Equal(t, "types", BaseName("engines/Types.ts"))
	assert.Equal(t, "index", BaseName("web/index"))
	assert.Equal(t, ".env", BaseName("config/.env"))
}

func TestBuildFromModules_Parallel(t *testing.T) {
	var records []ModuleRecord
	for i := 0; i < 200; i++ {
		rec := ModuleRecord{FilePath: fmt.Sprintf("./svc/mod%d/file%d.go", i%7, i)}
		if i > 0 {
			rec.Imports = []string{fmt.Sprintf("svc/mod%d/file%d.go", (i-1)%7, i-1)}
		}
		records = append(records, rec)
	}

	g, err := BuildFromModules(context.Background(), records, 8)
	require.NoError(t, err)
	assert.Equal(t, 200, g.Size())
	assert.InDelta(t, 0.5, g.ComputeGraphProximity("svc/mod1/file1.go", "svc/mod0/file0.go"), 1e-9)
}

func TestBuildFromModules_EmptyPathFails(t *testing.T) {
	_, err := BuildFromModules(context.Background(), []ModuleRecord{{FilePath: "a.go"}, {FilePath: "  "}}, 2)
	assert.ErrorIs(t, err, ErrEmptyFilePath)
}

func TestBuildFromModules_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildFromModules(ctx, []ModuleRecord{{FilePath: "a.go"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetrics(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(FileNode{FilePath: "src/service.py", Imports: []string{"src/models.py", "src/store.py"}}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "src/store.py", Imports: []string{"src/models.py"}}))
	require.NoError(t, g.AddNode(FileNode{FilePath: "src/models.py"}))

	m := g.Metrics()
	require.Len(t, m, 3)
	assert.Equal(t, 2, m["src/models.py"].InDegree)
	assert.Equal(t, 2, m["src/service.py"].OutDegree)
	assert.Equal(t, 1.0, m["src/store.py"].Centrality)
	assert.Equal(t, 1.0, m["src/models.py"].Centrality)
	assert.InDelta(t, 1.0, m["src/service.py"].Centrality, 1e-9)
}
