package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/graphdesk/newsgraph/internal/extract"
	"github.com/graphdesk/newsgraph/internal/feed"
	"github.com/graphdesk/newsgraph/internal/model"
	"github.com/graphdesk/newsgraph/internal/pipeline"
	"github.com/graphdesk/newsgraph/internal/store"
	"github.com/graphdesk/newsgraph/pkg/anthropic"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Score and select today's candidates without extracting",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// No model calls happen here, so no API key is needed.
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := selectOnlyPipeline(st)
		selected := p.SelectCandidates(ctx)

		if len(selected) == 0 {
			fmt.Fprintln(os.Stderr, "No candidates selected.")
			return nil
		}

		formatSelection(selected)
		return nil
	},
}

// selectOnlyPipeline builds a pipeline whose extractor is never invoked.
func selectOnlyPipeline(st store.Store) *pipeline.Pipeline {
	extractor := extract.NewExtractor(anthropic.NewClient(""), cfg.Anthropic.MaxTokens)
	return pipeline.New(cfg, st, feed.NewRSSFetcher(), extractor)
}

func formatSelection(selected []model.ScoredDoc) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tWORDS\tSOURCE\tDOC ID\tTITLE")
	for _, sd := range selected {
		title := sd.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%.3f\t%d\t%s\t%s\t%s\n",
			sd.QualityScore, sd.WordCount, sd.Source, sd.DocID, title)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
