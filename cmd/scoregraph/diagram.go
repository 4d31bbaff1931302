package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scoregraph/internal/export"
)

func newDiagramCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diagram <document.json>",
		Short: "Print the precedence graph of a document as a Mermaid diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			res, err := a.runner().Analyze(cmd.Context(), doc.Records)
			if err != nil {
				return fmt.Errorf("%s: %w", doc.Name, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), export.PrecedenceMermaid(res.Precedence, res.Onsets))
			return nil
		},
	}
}
