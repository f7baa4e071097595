package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/graphdesk/newsgraph/internal/escalation"
	"github.com/graphdesk/newsgraph/internal/extract"
	"github.com/graphdesk/newsgraph/internal/model"
)

var (
	evaluateExtraction string
	evaluateText       string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run gates and quality scoring on a stored extraction",
	Long:  "Offline evaluation: reads an extraction JSON file and its source text, runs schema validation, the four gates, the quality scorer, and prints the decision.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := os.ReadFile(evaluateExtraction)
		if err != nil {
			return eris.Wrapf(err, "read extraction %s", evaluateExtraction)
		}
		text, err := os.ReadFile(evaluateText)
		if err != nil {
			return eris.Wrapf(err, "read source text %s", evaluateText)
		}

		if errs := extract.ValidateSchema(raw); len(errs) > 0 {
			for _, e := range errs {
				os.Stderr.WriteString("schema: " + e + "\n")
			}
			return eris.Errorf("extraction failed schema validation (%d violations)", len(errs))
		}

		var ex model.Extraction
		if err := json.Unmarshal(raw, &ex); err != nil {
			return eris.Wrap(err, "decode extraction")
		}

		engine := escalation.NewEngine(cfg.Gates, cfg.Quality, cfg.Escalation)
		eval := engine.Evaluate(&ex, string(text))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateExtraction, "extraction", "", "path to extraction JSON file")
	evaluateCmd.Flags().StringVar(&evaluateText, "text", "", "path to source text file")
	evaluateCmd.MarkFlagRequired("extraction") //nolint:errcheck
	evaluateCmd.MarkFlagRequired("text")       //nolint:errcheck
	rootCmd.AddCommand(evaluateCmd)
}
