/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/ContextWing/internal/graph"
	"github.com/josephgoksu/ContextWing/internal/scoring"
	"github.com/josephgoksu/ContextWing/internal/ui"
)

var (
	scoreSemantic float64
	scoreJSON     bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <file-a> <file-b>",
	Short: "Explain the graph-augmented similarity of two files",
	Long: `Score blends a raw embedding similarity with the import-graph proximity
and module affinity of two files, and reports whether the pair looks like
an embedding false positive.`,
	Example: `  contextwing score api/embeddings.ts api/embedding_providers/real_embeddings.ts --semantic 0.62`,
	Args:    cobra.ExactArgs(2),
	RunE:    runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().Float64Var(&scoreSemantic, "semantic", 0, "raw embedding similarity of the pair (-1 to 1)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the result as JSON")
	_ = scoreCmd.MarkFlagRequired("semantic")
}

// scoreOutput is the JSON form of a pair score.
type scoreOutput struct {
	PathA  string         `json:"path_a"`
	PathB  string         `json:"path_b"`
	Inputs scoring.Inputs `json:"inputs"`
	Result scoring.Result `json:"result"`
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoreSemantic < -1 || scoreSemantic > 1 {
		return fmt.Errorf("--semantic must be between -1 and 1, got %g", scoreSemantic)
	}
	a, b := graph.NormalizePath(args[0]), graph.NormalizePath(args[1])
	if a == "" || b == "" {
		return graph.ErrEmptyFilePath
	}

	p, err := openPipeline(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	in := scoring.Inputs{
		SemanticSimilarity: scoreSemantic,
		GraphProximity:     p.graph.ComputeGraphProximity(a, b),
		ModuleAffinity:     p.graph.ComputeModuleAffinity(a, b),
	}
	res := p.scorer.Compute(in, scoring.PairContext{PathA: a, PathB: b})

	if scoreJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(scoreOutput{PathA: a, PathB: b, Inputs: in, Result: res})
	}
	ui.RenderScore(cmd.OutOrStdout(), a, b, in, res)
	return nil
}
