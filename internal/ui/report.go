package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/josephgoksu/ContextWing/internal/eval"
)

const barWidth = 10

// scoreBar draws a ten-cell bar for v in [0,1].
func scoreBar(v float64) string {
	filled := int(v*barWidth + 0.5)
	filled = min(max(filled, 0), barWidth)
	return StyleSuccess.Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(strings.Repeat("░", barWidth-filled))
}

// RenderQualityReport writes a styled summary of a retrieval quality report.
func RenderQualityReport(w io.Writer, r *eval.Report) {
	fmt.Fprintln(w, StyleHeader.Render("RETRIEVAL QUALITY"))
	fmt.Fprintf(w, "%s\n", StyleSubtle.Render(fmt.Sprintf("method %s · %d queries · run %s",
		r.Evidence.Method, r.QueryCount, r.RunID)))

	fmt.Fprintln(w, StyleSectionTitle.Render("Aggregate"))
	for _, k := range r.Evidence.Ks {
		recall := r.Aggregate.RecallAtK[k]
		ndcg := r.Aggregate.NDCGAtK[k]
		fmt.Fprintf(w, "  %-10s %s %.3f\n", fmt.Sprintf("Recall@%d", k), scoreBar(recall), recall)
		fmt.Fprintf(w, "  %-10s %s %.3f\n", fmt.Sprintf("nDCG@%d", k), scoreBar(ndcg), ndcg)
	}
	fmt.Fprintf(w, "  %-10s %s %.3f\n", "MRR", scoreBar(r.Aggregate.MRR), r.Aggregate.MRR)

	if len(r.PerQuery) > 0 {
		fmt.Fprintln(w, StyleSectionTitle.Render("Per query"))
		t := Table{Headers: []string{"Query"}, RightAlign: map[int]bool{}}
		for _, k := range r.Evidence.Ks {
			t.Headers = append(t.Headers, fmt.Sprintf("R@%d", k), fmt.Sprintf("nDCG@%d", k))
		}
		t.Headers = append(t.Headers, "MRR")
		for i := 1; i < len(t.Headers); i++ {
			t.RightAlign[i] = true
		}
		for _, q := range r.PerQuery {
			row := []string{Truncate(q.QueryID, 32)}
			for _, k := range r.Evidence.Ks {
				row = append(row, fmt.Sprintf("%.3f", q.RecallAtK[k]), fmt.Sprintf("%.3f", q.NDCGAtK[k]))
			}
			row = append(row, fmt.Sprintf("%.3f", q.MRR))
			t.Rows = append(t.Rows, row)
		}
		fmt.Fprint(w, t.Render())
	}

	if c := r.Comparison; c != nil {
		fmt.Fprintln(w, StyleSectionTitle.Render("Versus "+c.BaselineMethod))
		fmt.Fprintf(w, "  wins %d · losses %d · ties %d\n", c.Methods.WinsA, c.Methods.WinsB, c.Methods.Ties)
		for _, k := range r.Evidence.Ks {
			fmt.Fprintf(w, "  Recall@%d %s  nDCG@%d %s\n", k, signed(c.Delta.RecallAtK[k]), k, signed(c.Delta.NDCGAtK[k]))
		}
		fmt.Fprintf(w, "  MRR %s\n", signed(c.Delta.MRR))
	}

	if c := r.Compliance; c != nil {
		fmt.Fprintln(w, StyleSectionTitle.Render("Targets"))
		for _, check := range c.Checks {
			mark := StyleSuccess.Render("✓")
			if !check.Pass {
				mark = StyleError.Render("✗")
			}
			fmt.Fprintf(w, "  %s %-10s %.3f (target %.3f)\n", mark, check.Metric, check.Actual, check.Target)
		}
	}

	if missing := r.Evidence.MissingResults; len(missing) > 0 {
		fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("⚠ no results recorded for: %s", strings.Join(missing, ", "))))
	}
}

func signed(v float64) string {
	s := fmt.Sprintf("%+.3f", v)
	switch {
	case v > 0:
		return StyleSuccess.Render(s)
	case v < 0:
		return StyleError.Render(s)
	default:
		return StyleSubtle.Render(s)
	}
}
