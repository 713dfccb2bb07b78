/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/ContextWing/internal/config"
	"github.com/josephgoksu/ContextWing/internal/eval"
	"github.com/josephgoksu/ContextWing/internal/llm"
	"github.com/josephgoksu/ContextWing/internal/logger"
	"github.com/josephgoksu/ContextWing/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarise the memory store",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := openPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	modules, err := p.store.CountModules(ctx)
	if err != nil {
		return err
	}
	packs, err := p.store.ListContextPacks(ctx)
	if err != nil {
		return err
	}
	embedded, dims := 0, 0
	for _, pk := range packs {
		if len(pk.Embedding) > 0 {
			embedded++
			dims = len(pk.Embedding)
		}
	}

	tbl := ui.Table{
		Headers:    []string{"Item", "Count"},
		RightAlign: map[int]bool{1: true},
		Rows: [][]string{
			{"modules", fmt.Sprint(modules)},
			{"graph files", fmt.Sprint(p.graph.Size())},
			{"context packs", fmt.Sprint(len(packs))},
			{"embedded packs", fmt.Sprint(embedded)},
			{"learned missing", fmt.Sprint(p.engine.Learned().Len())},
		},
	}
	if logs, err := logger.ListCrashLogs(); err == nil && len(logs) > 0 {
		tbl.Rows = append(tbl.Rows, []string{"crash logs", fmt.Sprint(len(logs))})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.StyleHeader.Render("ContextWing memory"))
	fmt.Fprintln(out, ui.StyleSubtle.Render(p.store.BasePath()))
	fmt.Fprint(out, tbl.Render())

	if llmCfg, err := config.LoadLLMConfig(); err == nil {
		line := fmt.Sprintf("embedding: %s/%s", llmCfg.Provider, llmCfg.EmbeddingModel)
		if m := llm.GetEmbeddingModel(llmCfg.EmbeddingModel); m != nil && m.Dimensions > 0 && dims > 0 && m.Dimensions != dims {
			fmt.Fprintln(out, ui.StyleWarning.Render(fmt.Sprintf("%s · stored vectors have %d dims, model has %d; re-run ingest --reset", line, dims, m.Dimensions)))
		} else {
			fmt.Fprintln(out, ui.StyleSubtle.Render(line))
		}
	}

	if report, err := eval.ReadReport(afero.NewOsFs(), p.store.BasePath()); err == nil {
		line := fmt.Sprintf("last eval: %s · %d queries · MRR %.3f", report.Evidence.Method, report.QueryCount, report.Aggregate.MRR)
		if report.Compliance != nil && !report.Compliance.Pass {
			fmt.Fprintln(out, ui.StyleWarning.Render(line+" · targets not met"))
		} else {
			fmt.Fprintln(out, ui.StyleSubtle.Render(line))
		}
	}
	return nil
}
