package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scoregraph/internal/export"
)

func newMIDICmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "midi <document.json>",
		Short: "Render the inferred notes of a document as a Standard MIDI File",
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

			if out == "" {
				out = doc.Name + ".mid"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.WriteMIDI(f, doc.Name, res); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d notes)\n", out, len(res.Notes()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: <name>.mid)")
	return cmd
}
