package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/graphdesk/newsgraph/internal/pipeline"
)

var shadowModel string

var shadowCmd = &cobra.Command{
	Use:   "shadow",
	Short: "Run the daily pipeline with an understudy model in shadow",
	Long:  "Runs the normal pipeline and additionally calls the understudy model on every selected document, recording overlap comparisons as promotion evidence. Shadow results never affect decisions.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if shadowModel != "" {
			cfg.Anthropic.UnderstudyModel = shadowModel
		}
		if cfg.Anthropic.UnderstudyModel == "" {
			return eris.New("understudy model is required (--model or NEWSGRAPH_ANTHROPIC_UNDERSTUDY_MODEL)")
		}

		p, st, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return p.Run(ctx, pipeline.Options{Shadow: true})
	},
}

func init() {
	shadowCmd.Flags().StringVar(&shadowModel, "model", "", "understudy model name (default from config)")
	rootCmd.AddCommand(shadowCmd)
}
