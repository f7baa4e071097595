package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/graphdesk/newsgraph/internal/extract"
	"github.com/graphdesk/newsgraph/internal/feed"
	"github.com/graphdesk/newsgraph/internal/pipeline"
	"github.com/graphdesk/newsgraph/internal/store"
	"github.com/graphdesk/newsgraph/pkg/anthropic"
)

var (
	runDate   string
	runShadow bool
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the daily pipeline",
	Long:  "Fetches feeds, selects documents under the extraction budget, extracts, gates, scores, and persists every run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		p, st, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		opts := pipeline.Options{
			Shadow: runShadow,
			DryRun: runDryRun,
		}
		if runDate != "" {
			d, err := time.Parse("2006-01-02", runDate)
			if err != nil {
				return eris.Wrapf(err, "parse --date %q", runDate)
			}
			opts.RunDate = d
		}

		return p.Run(ctx, opts)
	},
}

// initPipeline builds the pipeline and its collaborators from config. The
// store comes back migrated.
func initPipeline(ctx context.Context) (*pipeline.Pipeline, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}

	if cfg.Anthropic.Key == "" {
		st.Close() //nolint:errcheck
		return nil, nil, eris.New("anthropic API key is required (NEWSGRAPH_ANTHROPIC_KEY)")
	}

	client := anthropic.NewClient(cfg.Anthropic.Key)
	extractor := extract.NewExtractor(client, cfg.Anthropic.MaxTokens)
	p := pipeline.New(cfg, st, feed.NewRSSFetcher(), extractor)
	return p, st, nil
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "run date (YYYY-MM-DD, default today)")
	runCmd.Flags().BoolVar(&runShadow, "shadow", false, "also run the understudy model and record comparisons")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "select only, no model calls")
	rootCmd.AddCommand(runCmd)
}
