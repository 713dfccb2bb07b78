/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/ContextWing/internal/logger"
	"github.com/josephgoksu/ContextWing/internal/ui"
)

var (
	examplesLimit int
	examplesJSON  bool
)

var examplesCmd = &cobra.Command{
	Use:   "examples <text>",
	Short: "Find indexed code similar to a description",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExamples,
}

func init() {
	rootCmd.AddCommand(examplesCmd)
	examplesCmd.Flags().IntVarP(&examplesLimit, "limit", "n", 5, "maximum examples")
	examplesCmd.Flags().BoolVar(&examplesJSON, "json", false, "print the result as JSON")
}

func runExamples(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	logger.SetLastInput(text)

	p, err := openPipeline(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ex, err := p.engine.FindExamples(cmd.Context(), text, examplesLimit)
	if err != nil {
		return err
	}
	if examplesJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ex)
	}
	ui.RenderExamples(cmd.OutOrStdout(), ex)
	return nil
}
