package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/graphdesk/newsgraph/internal/model"
	"github.com/graphdesk/newsgraph/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect extraction run history",
	Long:  "Commands for listing, viewing, and summarizing quality runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quality runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		stage, _ := cmd.Flags().GetString("stage")
		decision, _ := cmd.Flags().GetString("decision")
		docID, _ := cmd.Flags().GetString("doc")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.RunFilter{
			DocID:         docID,
			PipelineStage: stage,
			Status:        model.RunStatus(status),
			Decision:      model.Decision(decision),
			Limit:         limit,
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run, including its metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		metrics, err := st.GetRunMetrics(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show metrics")
		}

		out := struct {
			Run     *model.QualityRun     `json:"run"`
			Metrics []model.QualityMetric `json:"metrics"`
		}{run, metrics}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// -- runs summary --

var runsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show per-stage run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		summaries, err := st.SummarizeRuns(ctx)
		if err != nil {
			return eris.Wrap(err, "runs summary")
		}

		if len(summaries) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STAGE\tRUNS\tACCEPTED\tESCALATED\tFAILED\tMEAN SCORE")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.3f\n",
				s.PipelineStage, s.Runs, s.Accepted, s.Escalated, s.Failed, s.MeanQualityScore)
		}
		w.Flush()
		return nil
	},
}

func formatRunsList(out io.Writer, runs []model.QualityRun) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tDOC\tSTAGE\tMODEL\tSTATUS\tDECISION\tSCORE\tSTARTED")
	for _, r := range runs {
		score := "-"
		if r.QualityScore != nil {
			score = fmt.Sprintf("%.3f", *r.QualityScore)
		}
		decision := string(r.Decision)
		if decision == "" {
			decision = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID, r.DocID, r.PipelineStage, r.Model, r.Status, decision, score,
			r.StartedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (completed|api_failed|parse_failed|schema_failed)")
	runsListCmd.Flags().String("stage", "", "filter by pipeline stage (daily|escalation|shadow)")
	runsListCmd.Flags().String("decision", "", "filter by decision (accept|escalate)")
	runsListCmd.Flags().String("doc", "", "filter by document ID")
	runsListCmd.Flags().Int("limit", 50, "maximum rows")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsSummaryCmd)
	rootCmd.AddCommand(runsCmd)
}
