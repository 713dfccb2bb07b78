/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/ContextWing/internal/knowledge"
	"github.com/josephgoksu/ContextWing/internal/ui"
)

var ingestReset bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <manifest>",
	Short: "Load module imports and context packs from a manifest",
	Long: `Ingest reads a YAML manifest of per-file imports and context packs,
stores the modules, recomputes graph metrics and embeds every pack that has
no embedding yet.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "delete stored context packs before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	manifest, err := knowledge.LoadManifest(afero.NewOsFs(), args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if ingestReset {
		n, err := store.DeleteContextPacks(ctx)
		if err != nil {
			_ = store.Close()
			return err
		}
		slog.Info("context packs deleted", "count", n)
	}
	if err := store.SaveModules(ctx, manifest.ModuleRecords()); err != nil {
		_ = store.Close()
		return fmt.Errorf("save modules: %w", err)
	}

	rt, err := newPipeline(ctx, store, true)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() { _ = rt.Close() }()

	if err := store.SaveGraphMetrics(ctx, rt.graph.Metrics()); err != nil {
		return fmt.Errorf("save graph metrics: %w", err)
	}
	stats, err := rt.index.Ingest(ctx, manifest.PackRecords())
	if err != nil {
		return fmt.Errorf("ingest packs: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.StyleSuccess.Render(fmt.Sprintf("✓ %d modules, %d context packs stored", len(manifest.Modules), stats.Stored)))
	fmt.Fprintf(out, "  graph: %d files\n", rt.graph.Size())
	fmt.Fprintf(out, "  embedded: %d\n", stats.Embedded)
	if stats.Pending > 0 {
		fmt.Fprintln(out, ui.StyleWarning.Render(fmt.Sprintf("  %d packs have no embedding; configure an embedding provider and re-run ingest", stats.Pending)))
	}
	return nil
}
