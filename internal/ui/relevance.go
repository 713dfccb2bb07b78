package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/josephgoksu/ContextWing/internal/relevance"
	"github.com/josephgoksu/ContextWing/internal/scoring"
)

var titleCase = cases.Title(language.English)

func riskStyle(r relevance.Risk) lipgloss.Style {
	switch r {
	case relevance.RiskHigh:
		return StyleError
	case relevance.RiskMedium:
		return StyleWarning
	default:
		return StyleSubtle
	}
}

// RenderRelevance writes the tiers and blind spots of a relevance result.
func RenderRelevance(w io.Writer, res *relevance.Result) {
	fmt.Fprintln(w, StyleHeader.Render(Truncate(res.Intent, 60)))
	fmt.Fprintln(w, StyleSubtle.Render(fmt.Sprintf("depth %s · confidence %.2f · ~%d tokens",
		res.Depth, res.Confidence, res.TokensUsed)))
	if res.Degraded {
		fmt.Fprintln(w, StyleWarning.Render("⚠ degraded: "+res.DegradedReason))
	}

	tiers := []struct {
		name  string
		items []relevance.KnowledgeItem
	}{
		{"essential", res.Tiers.Essential},
		{"contextual", res.Tiers.Contextual},
		{"reference", res.Tiers.Reference},
	}
	for _, tier := range tiers {
		if len(tier.items) == 0 {
			continue
		}
		fmt.Fprintln(w, StyleSectionTitle.Render(fmt.Sprintf("%s (%d)", titleCase.String(tier.name), len(tier.items))))
		for _, it := range tier.items {
			fmt.Fprintf(w, "  %s %s\n", StyleSubtle.Render(fmt.Sprintf("%.2f", it.Confidence)), StyleTitle.Render(it.ID))
			if it.Summary != "" {
				fmt.Fprintf(w, "       %s\n", Truncate(it.Summary, 100))
			}
			if len(it.RelatedFiles) > 0 && !(len(it.RelatedFiles) == 1 && it.RelatedFiles[0] == it.ID) {
				fmt.Fprintf(w, "       %s\n", StyleSubtle.Render(strings.Join(it.RelatedFiles, ", ")))
			}
		}
	}

	if len(res.BlindSpots) > 0 {
		fmt.Fprintln(w, StyleSectionTitle.Render("Blind spots"))
		for _, b := range res.BlindSpots {
			label := riskStyle(b.Risk).Render(fmt.Sprintf("[%s]", titleCase.String(string(b.Risk))))
			fmt.Fprintf(w, "  %s %s: %s\n", label, b.Area, b.Reason)
			if b.Suggestion != "" {
				fmt.Fprintf(w, "       %s\n", StyleSubtle.Render(b.Suggestion))
			}
		}
	}
	if res.Tiers.Len() == 0 && len(res.BlindSpots) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render("No knowledge found."))
	}
}

// RenderScore writes one graph-augmented similarity result.
func RenderScore(w io.Writer, pathA, pathB string, in scoring.Inputs, res scoring.Result) {
	fmt.Fprintf(w, "%s ↔ %s\n", StyleTitle.Render(pathA), StyleTitle.Render(pathB))
	fmt.Fprintf(w, "  semantic  %.3f\n  proximity %.3f\n  affinity  %.3f\n",
		in.SemanticSimilarity, in.GraphProximity, in.ModuleAffinity)
	final := fmt.Sprintf("  final     %.3f", res.FinalSimilarity)
	if res.IsAdversarial {
		fmt.Fprintln(w, StyleWarning.Render(final+" (adversarial: "+res.Reason+")"))
		return
	}
	fmt.Fprintln(w, StyleSuccess.Render(final))
}

// RenderExamples writes a similarity-ranked example list.
func RenderExamples(w io.Writer, ex *relevance.Examples) {
	fmt.Fprintln(w, StyleHeader.Render(Truncate(ex.Text, 60)))
	if ex.Degraded {
		fmt.Fprintln(w, StyleWarning.Render("⚠ degraded: "+ex.DegradedReason))
	}
	if len(ex.Neighbors) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render("No examples found."))
		return
	}
	tbl := Table{
		Headers:    []string{"#", "File", "Similarity", "Summary"},
		RightAlign: map[int]bool{0: true, 2: true},
	}
	for i, n := range ex.Neighbors {
		loc := n.FilePath
		if loc == "" {
			loc = n.ID
		}
		tbl.Rows = append(tbl.Rows, []string{
			fmt.Sprintf("%d", i+1),
			loc,
			fmt.Sprintf("%.3f", n.Similarity),
			Truncate(n.Summary, 60),
		})
	}
	fmt.Fprint(w, tbl.Render())
}
