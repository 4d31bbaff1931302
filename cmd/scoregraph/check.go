package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

func newCheckCmd(a *app) *cobra.Command {
	var failOnFindings bool

	cmd := &cobra.Command{
		Use:   "check <document.json>",
		Short: "Report suspicious symbols and edges in a notation document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			g, err := graph.New(doc.Records, graph.WithLogger(a.log))
			if err != nil {
				return err
			}
			report, err := graph.Check(g)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal JSON: %w", err)
			}
			if _, err := cmd.OutOrStdout().Write(append(out, '\n')); err != nil {
				return err
			}
			if failOnFindings && !report.Clean() {
				return fmt.Errorf("%s: %d findings", doc.Name, len(report.Findings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnFindings, "fail", false, "exit non-zero if anything is found")
	return cmd
}
