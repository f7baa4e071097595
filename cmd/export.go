package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphdesk/newsgraph/internal/graph"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the accumulated knowledge graph as Cytoscape JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		g, err := graph.Load(cfg.Pipeline.GraphPath)
		if err != nil {
			return err
		}

		if err := g.WriteCytoscape(exportOut); err != nil {
			return err
		}

		fmt.Printf("wrote %s (%d nodes, %d edges)\n", exportOut, len(g.Nodes()), len(g.Edges()))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "cytoscape.json", "output path")
	rootCmd.AddCommand(exportCmd)
}
