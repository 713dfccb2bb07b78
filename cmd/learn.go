/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/ContextWing/internal/relevance"
	"github.com/josephgoksu/ContextWing/internal/ui"
)

var learnCmd = &cobra.Command{
	Use:   "learn <task-id> <missing>...",
	Short: "Record context a task needed but did not get",
	Long: `Learn adds entries to the learned-missing set. Later queries surface
them as reference items and medium-risk blind spots until retrieval covers
them.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLearn,
}

var (
	outcomeStatus  string
	outcomeMissing []string
	outcomeUsed    []string
)

var outcomesCmd = &cobra.Command{
	Use:   "outcomes [task-id]",
	Short: "List recorded task outcomes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOutcomes,
}

var outcomeCmd = &cobra.Command{
	Use:   "outcome <task-id>",
	Short: "Report how a task that used retrieved context ended",
	Long: `Outcome records the task result. For failed or partial tasks, missing
context that was not part of the context used is learned.`,
	Example: `  contextwing outcome T-42 --status failure --missing services/sla.py --used models/ticket.py`,
	Args:    cobra.ExactArgs(1),
	RunE:    runOutcome,
}

func init() {
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(outcomeCmd)
	rootCmd.AddCommand(outcomesCmd)
	outcomeCmd.Flags().StringVar(&outcomeStatus, "status", "", "success, failure or partial")
	outcomeCmd.Flags().StringSliceVar(&outcomeMissing, "missing", nil, "context the task lacked (repeatable)")
	outcomeCmd.Flags().StringSliceVar(&outcomeUsed, "used", nil, "context the task was given (repeatable)")
	_ = outcomeCmd.MarkFlagRequired("status")
}

func printLearned(cmd *cobra.Command, added []string, total int) {
	out := cmd.OutOrStdout()
	if len(added) == 0 {
		fmt.Fprintln(out, ui.StyleSubtle.Render(fmt.Sprintf("Nothing new learned (%d entries known).", total)))
		return
	}
	fmt.Fprintln(out, ui.StyleSuccess.Render(fmt.Sprintf("✓ learned %d new entries (%d known)", len(added), total)))
	for _, a := range added {
		fmt.Fprintf(out, "  - %s\n", a)
	}
}

func runLearn(cmd *cobra.Command, args []string) error {
	rt, err := openPipeline(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	added := rt.engine.LearnNegative(args[0], args[1:])
	printLearned(cmd, added, rt.engine.Learned().Len())
	return nil
}

func runOutcome(cmd *cobra.Command, args []string) error {
	rt, err := openPipeline(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	outcome := relevance.Outcome{
		Status:         relevance.OutcomeStatus(strings.ToLower(strings.TrimSpace(outcomeStatus))),
		MissingContext: outcomeMissing,
	}
	added, err := rt.engine.RecordOutcome(cmd.Context(), args[0], outcome, outcomeUsed)
	if err != nil {
		return err
	}
	printLearned(cmd, added, rt.engine.Learned().Len())
	return nil
}

func runOutcomes(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	taskID := ""
	if len(args) == 1 {
		taskID = args[0]
	}
	outcomes, err := store.ListOutcomes(cmd.Context(), taskID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(outcomes) == 0 {
		fmt.Fprintln(out, ui.StyleSubtle.Render("No outcomes recorded."))
		return nil
	}
	tbl := ui.Table{Headers: []string{"When", "Task", "Status", "Missing"}}
	for _, o := range outcomes {
		tbl.Rows = append(tbl.Rows, []string{
			o.CreatedAt.Local().Format("2006-01-02 15:04"),
			o.TaskID,
			o.Status,
			strings.Join(o.MissingContext, ", "),
		})
	}
	fmt.Fprint(out, tbl.Render())
	return nil
}
