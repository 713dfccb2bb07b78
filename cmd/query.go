/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/ContextWing/internal/logger"
	"github.com/josephgoksu/ContextWing/internal/relevance"
	"github.com/josephgoksu/ContextWing/internal/ui"
)

var (
	queryHints     []string
	queryMaxFiles  int
	queryMaxTokens int
	queryDepth     int
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query <intent>",
	Short: "Retrieve tiered context for an intent",
	Example: `  contextwing query "add rate limiting to the embeddings endpoint"
  contextwing query "fix ticket escalation" --hint services/sla.py --depth 3 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringSliceVar(&queryHints, "hint", nil, "file or area the task will touch (repeatable)")
	queryCmd.Flags().IntVar(&queryMaxFiles, "max-files", 0, "maximum items returned")
	queryCmd.Flags().IntVar(&queryMaxTokens, "max-tokens", 0, "token budget")
	queryCmd.Flags().IntVar(&queryDepth, "depth", -1, "retrieval depth 0-3")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
}

// queryBudget builds the request budget from the flags that were set.
func queryBudget(cmd *cobra.Command) relevance.Budget {
	b := relevance.Budget{MaxFiles: queryMaxFiles, MaxTokens: queryMaxTokens}
	if cmd.Flags().Changed("depth") {
		b.MaxDepth = relevance.DepthLimit(queryDepth)
	}
	return b
}

func runQuery(cmd *cobra.Command, args []string) error {
	intent := strings.Join(args, " ")
	logger.SetLastInput(intent)

	rt, err := openPipeline(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	res, err := rt.engine.Query(cmd.Context(), relevance.Request{
		Intent: intent,
		Hints:  queryHints,
		Budget: queryBudget(cmd),
	})
	if err != nil {
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	ui.RenderRelevance(cmd.OutOrStdout(), res)
	return nil
}
