package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/graphdesk/newsgraph/internal/shadow"
)

var (
	promoteModel string
	promoteJSON  bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Report whether an understudy model meets the promotion criteria",
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

		records, err := st.ListComparisons(ctx, promoteModel)
		if err != nil {
			return eris.Wrap(err, "promote")
		}

		stats := shadow.Aggregate(promoteModel, records)
		report := shadow.EvaluatePromotion(stats, cfg.Shadow)

		if promoteJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Println(report.String())
		if !report.Promotable {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteModel, "model", "", "understudy model name")
	promoteCmd.Flags().BoolVar(&promoteJSON, "json", false, "emit the full report as JSON")
	promoteCmd.MarkFlagRequired("model") //nolint:errcheck
	rootCmd.AddCommand(promoteCmd)
}
