package mcp

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/ContextWing/internal/relevance"
	"github.com/josephgoksu/ContextWing/internal/scoring"
)

// FormatRelevance converts a relevance result into token-efficient Markdown.
// Structure: header -> tiers -> blind spots.
func FormatRelevance(res *relevance.Result) string {
	if res == nil {
		return "No knowledge found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Relevance (%s, confidence %.2f, ~%d tokens)\n", res.Depth, res.Confidence, res.TokensUsed)
	if res.Degraded {
		fmt.Fprintf(&sb, "\n> Degraded: %s\n", res.DegradedReason)
	}

	writeTier(&sb, "Essential", res.Tiers.Essential)
	writeTier(&sb, "Contextual", res.Tiers.Contextual)
	writeTier(&sb, "Reference", res.Tiers.Reference)

	if len(res.BlindSpots) > 0 {
		sb.WriteString("\n### Blind spots\n")
		for _, b := range res.BlindSpots {
			fmt.Fprintf(&sb, "- **%s** `%s`: %s", b.Risk, b.Area, b.Reason)
			if b.Suggestion != "" {
				fmt.Fprintf(&sb, " (%s)", b.Suggestion)
			}
			sb.WriteString("\n")
		}
	}
	if res.Tiers.Len() == 0 && len(res.BlindSpots) == 0 {
		sb.WriteString("\nNo knowledge found.\n")
	}
	return strings.TrimSpace(sb.String())
}

func writeTier(sb *strings.Builder, name string, items []relevance.KnowledgeItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n### %s\n", name)
	for i, it := range items {
		fmt.Fprintf(sb, "%d. **%s** (%.2f) %s\n", i+1, it.ID, it.Confidence, truncate(it.Summary, 200))
		if len(it.RelatedFiles) > 0 {
			fmt.Fprintf(sb, "   files: %s\n", strings.Join(it.RelatedFiles, ", "))
		}
	}
}

// FormatExamples lists similar code as Markdown.
func FormatExamples(ex *relevance.Examples) string {
	if ex == nil {
		return "No examples found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Examples for %q\n", ex.Text)
	if ex.Degraded {
		fmt.Fprintf(&sb, "\n> Degraded: %s\n", ex.DegradedReason)
	}
	if len(ex.Neighbors) == 0 {
		sb.WriteString("\nNo examples found.\n")
		return strings.TrimSpace(sb.String())
	}
	sb.WriteString("\n")
	for i, n := range ex.Neighbors {
		loc := n.FilePath
		if loc == "" {
			loc = n.ID
		}
		fmt.Fprintf(&sb, "%d. `%s` %s %.2f", i+1, loc, scoreToBar(n.Similarity), n.Similarity)
		if n.Summary != "" {
			fmt.Fprintf(&sb, " %s", truncate(n.Summary, 150))
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// FormatLearned reports the entries added to the learned-missing set.
func FormatLearned(added []string, total int) string {
	if len(added) == 0 {
		return fmt.Sprintf("Nothing new learned (%d entries known).", total)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Learned %d new missing-context entries (%d known):\n", len(added), total)
	for _, a := range added {
		fmt.Fprintf(&sb, "- %s\n", a)
	}
	return strings.TrimSpace(sb.String())
}

// FormatScore explains one pair score.
func FormatScore(a, b string, in scoring.Inputs, res scoring.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## `%s` ↔ `%s`\n\n", a, b)
	fmt.Fprintf(&sb, "- semantic: %.3f\n", in.SemanticSimilarity)
	fmt.Fprintf(&sb, "- proximity: %.3f\n", in.GraphProximity)
	fmt.Fprintf(&sb, "- affinity: %.3f\n", in.ModuleAffinity)
	fmt.Fprintf(&sb, "- **final: %.3f**", res.FinalSimilarity)
	if res.IsAdversarial {
		fmt.Fprintf(&sb, "\n\nFlagged as a likely false positive: %s", res.Reason)
	}
	return sb.String()
}

// FormatError returns a standardized Markdown error message.
func FormatError(message string) string {
	return fmt.Sprintf("## Error\n\n**Details**: %s", message)
}

func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func scoreToBar(score float64) string {
	filled := int(score*5 + 0.5)
	filled = max(0, min(5, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", 5-filled)
}
