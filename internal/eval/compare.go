package eval

// CompositeK is the cutoff used by the comparison composite score.
const CompositeK = 5

// QueryComparison is the head-to-head result on one query.
type QueryComparison struct {
	QueryID    string  `json:"queryId"`
	CompositeA float64 `json:"compositeA"`
	CompositeB float64 `json:"compositeB"`
	Winner     string  `json:"winner"` // method name, or "tie"
}

// MethodComparison tallies wins and ties between two methods.
type MethodComparison struct {
	MethodA    string            `json:"methodA"`
	MethodB    string            `json:"methodB"`
	WinsA      int               `json:"winsA"`
	WinsB      int               `json:"winsB"`
	Ties       int               `json:"ties"`
	QueryCount int               `json:"queryCount"`
	PerQuery   []QueryComparison `json:"perQuery"`
}

// Composite is Recall@5 + nDCG@5 + MRR.
func Composite(m QueryMetrics) float64 {
	return m.RecallAtK[CompositeK] + m.NDCGAtK[CompositeK] + m.MRR
}

// CompareRetrievalMethods compares two methods query by query on the
// composite score. Queries missing from either side are skipped; a tie
// requires exactly equal composites.
func CompareRetrievalMethods(a, b []QueryMetrics, nameA, nameB string) MethodComparison {
	cmp := MethodComparison{MethodA: nameA, MethodB: nameB, PerQuery: []QueryComparison{}}

	byID := make(map[string]QueryMetrics, len(b))
	for _, m := range b {
		byID[m.QueryID] = m
	}

	for _, ma := range a {
		mb, ok := byID[ma.QueryID]
		if !ok {
			continue
		}
		qc := QueryComparison{
			QueryID:    ma.QueryID,
			CompositeA: Composite(ma),
			CompositeB: Composite(mb),
		}
		switch {
		case qc.CompositeA > qc.CompositeB:
			qc.Winner = nameA
			cmp.WinsA++
		case qc.CompositeB > qc.CompositeA:
			qc.Winner = nameB
			cmp.WinsB++
		default:
			qc.Winner = "tie"
			cmp.Ties++
		}
		cmp.PerQuery = append(cmp.PerQuery, qc)
	}
	cmp.QueryCount = len(cmp.PerQuery)
	return cmp
}
