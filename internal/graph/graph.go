// Package graph provides the in-memory file dependency graph used to derive
// structural relatedness signals (graph proximity and module affinity).
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// MaxProximityHops bounds the proximity search. Files further apart than
// this are treated as unrelated.
const MaxProximityHops = 3

// SharedTopLevelAffinity is the affinity of two files that live under the
// same top-level directory but belong to different modules.
const SharedTopLevelAffinity = 0.4

// ErrEmptyFilePath is returned when a node is added without a file path.
var ErrEmptyFilePath = errors.New("file path is required")

// FileNode is one source file in the graph.
type FileNode struct {
	FilePath   string   `json:"file_path"`
	ModuleName string   `json:"module_name"`
	Imports    []string `json:"imports"`
	// ImportedBy is computed by the graph. Values set by callers are ignored.
	ImportedBy []string `json:"imported_by,omitempty"`
}

// DependencyGraph maps file paths to nodes and maintains the reverse-edge
// index. Inserts are safe from multiple goroutines; queries are expected
// once all inserts are done.
type DependencyGraph struct {
	mu      sync.RWMutex
	nodes   map[string]*FileNode
	reverse map[string][]string
	dirty   bool
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:   make(map[string]*FileNode),
		reverse: make(map[string][]string),
	}
}

// AddNode inserts or replaces a node keyed by its normalised file path.
func (g *DependencyGraph) AddNode(node FileNode) error {
	filePath := NormalizePath(node.FilePath)
	if filePath == "" {
		return ErrEmptyFilePath
	}

	stored := &FileNode{
		FilePath:   filePath,
		ModuleName: node.ModuleName,
		Imports:    dedupeImports(filePath, node.Imports),
	}
	if stored.ModuleName == "" {
		stored.ModuleName = DeriveModuleName(filePath)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[stored.FilePath] = stored
	g.dirty = true
	return nil
}

// Size returns the number of nodes.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Node returns a copy of the node for path with ImportedBy populated.
func (g *DependencyGraph) Node(path string) (FileNode, bool) {
	path = NormalizePath(path)
	g.ensureReverse()

	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[path]
	if !ok {
		return FileNode{}, false
	}
	return FileNode{
		FilePath:   n.FilePath,
		ModuleName: n.ModuleName,
		Imports:    append([]string(nil), n.Imports...),
		ImportedBy: append([]string(nil), g.reverse[path]...),
	}, true
}

// Paths returns all file paths in sorted order.
func (g *DependencyGraph) Paths() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	paths := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ModuleOf returns the module name of path, deriving it from the path
// when the file is not in the graph.
func (g *DependencyGraph) ModuleOf(path string) string {
	path = NormalizePath(path)
	g.mu.RLock()
	n, ok := g.nodes[path]
	g.mu.RUnlock()
	if ok {
		return n.ModuleName
	}
	return DeriveModuleName(path)
}

// ComputeGraphProximity returns 1/(1+hops) for the shortest undirected
// import path between a and b within MaxProximityHops, 1.0 for identical
// paths and 0.0 when the files are not connected within the limit.
// Paths are normalised first.
func (g *DependencyGraph) ComputeGraphProximity(a, b string) float64 {
	a, b = NormalizePath(a), NormalizePath(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	g.ensureReverse()

	g.mu.RLock()
	defer g.mu.RUnlock()

	hops := g.shortestHops(a, b, MaxProximityHops)
	if hops < 0 {
		return 0
	}
	return 1.0 / (1.0 + float64(hops))
}

// shortestHops runs a bidirectional BFS, expanding the smaller frontier
// first. Returns -1 when b is not reachable within limit hops.
func (g *DependencyGraph) shortestHops(a, b string, limit int) int {
	distA := map[string]int{a: 0}
	distB := map[string]int{b: 0}
	frontierA := []string{a}
	frontierB := []string{b}
	depthA, depthB := 0, 0

	for len(frontierA) > 0 && len(frontierB) > 0 && depthA+depthB < limit {
		expandA := len(frontierA) <= len(frontierB)

		var frontier []string
		var own, other map[string]int
		if expandA {
			frontier, own, other = frontierA, distA, distB
			depthA++
		} else {
			frontier, own, other = frontierB, distB, distA
			depthB++
		}
		depth := depthA
		if !expandA {
			depth = depthB
		}

		best := -1
		var next []string
		for _, current := range frontier {
			for _, neighbor := range g.neighbors(current) {
				if _, seen := own[neighbor]; seen {
					continue
				}
				own[neighbor] = depth
				if d, met := other[neighbor]; met {
					if total := depth + d; best < 0 || total < best {
						best = total
					}
				}
				next = append(next, neighbor)
			}
		}
		if best >= 0 {
			return best
		}

		if expandA {
			frontierA = next
		} else {
			frontierB = next
		}
	}
	return -1
}

// neighbors returns forward and reverse edges of path. Callers hold the read lock.
func (g *DependencyGraph) neighbors(path string) []string {
	var out []string
	if n, ok := g.nodes[path]; ok {
		out = append(out, n.Imports...)
	}
	return append(out, g.reverse[path]...)
}

// ComputeModuleAffinity returns 1.0 for files in the same module,
// SharedTopLevelAffinity for files sharing only a top-level directory and
// 0.0 otherwise.
func (g *DependencyGraph) ComputeModuleAffinity(a, b string) float64 {
	a, b = NormalizePath(a), NormalizePath(b)
	if a == "" || b == "" {
		return 0
	}
	modA, modB := g.ModuleOf(a), g.ModuleOf(b)
	if modA == modB {
		return 1.0
	}
	topA, topB := TopLevelDir(a), TopLevelDir(b)
	if topA != "" && topA == topB {
		return SharedTopLevelAffinity
	}
	return 0
}

// ensureReverse rebuilds the reverse-edge index if nodes changed since the
// last rebuild.
func (g *DependencyGraph) ensureReverse() {
	g.mu.RLock()
	dirty := g.dirty
	g.mu.RUnlock()
	if !dirty {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.dirty {
		return
	}

	reverse := make(map[string][]string, len(g.nodes))
	for _, n := range g.nodes {
		for _, target := range n.Imports {
			reverse[target] = append(reverse[target], n.FilePath)
		}
	}
	for target := range reverse {
		sort.Strings(reverse[target])
	}
	g.reverse = reverse
	g.dirty = false
}

func dedupeImports(self string, imports []string) []string {
	if len(imports) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(imports))
	out := make([]string, 0, len(imports))
	for _, imp := range imports {
		imp = NormalizePath(imp)
		if imp == "" || imp == self || seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	return out
}

// String implements fmt.Stringer for debugging.
func (g *DependencyGraph) String() string {
	return fmt.Sprintf("DependencyGraph{nodes: %d}", g.Size())
}
