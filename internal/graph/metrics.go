package graph

// FileMetrics summarises a file's position in the dependency graph.
type FileMetrics struct {
	FilePath  string  `json:"file_path"`
	InDegree  int     `json:"in_degree"`
	OutDegree int     `json:"out_degree"`
	// Centrality is (in+out) degree normalised by the largest degree in
	// the graph, in [0,1].
	Centrality float64 `json:"centrality"`
}

// Metrics computes degree metrics for every node in the graph.
func (g *DependencyGraph) Metrics() map[string]FileMetrics {
	g.ensureReverse()

	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]FileMetrics, len(g.nodes))
	maxDegree := 0
	for p, n := range g.nodes {
		m := FileMetrics{
			FilePath:  p,
			InDegree:  len(g.reverse[p]),
			OutDegree: len(n.Imports),
		}
		if d := m.InDegree + m.OutDegree; d > maxDegree {
			maxDegree = d
		}
		out[p] = m
	}

	if maxDegree == 0 {
		return out
	}
	for p, m := range out {
		m.Centrality = float64(m.InDegree+m.OutDegree) / float64(maxDegree)
		out[p] = m
	}
	return out
}
