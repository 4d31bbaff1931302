package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

func newPersistCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Save, load and list notation documents in a Kuzu database",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", ".scoregraph/db", "Kuzu database directory")

	withStore := func(cmd *cobra.Command, fn func(graph.Store) error) error {
		store, err := openKuzu(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.InitSchema(cmd.Context()); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
		return fn(store)
	}

	save := &cobra.Command{
		Use:   "save <document.json> [name]",
		Short: "Validate a document and save it, replacing any document of the same name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				doc.Name = args[1]
			}
			g, err := graph.New(doc.Records, graph.WithLogger(a.log))
			if err != nil {
				return err
			}
			return withStore(cmd, func(s graph.Store) error {
				if err := graph.SaveGraph(cmd.Context(), s, doc.Name, g); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d symbols)\n", doc.Name, g.Len())
				return nil
			})
		},
	}

	var out string
	load := &cobra.Command{
		Use:   "load <name>",
		Short: "Write a saved document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s graph.Store) error {
				g, err := graph.LoadGraph(cmd.Context(), s, args[0], graph.WithLogger(a.log))
				if err != nil {
					return err
				}
				if out == "" {
					return graph.WriteDocument(cmd.OutOrStdout(), g.Records())
				}
				return graph.SaveDocument(out, g.Records())
			})
		},
	}
	load.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved documents and store totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(s graph.Store) error {
				names, err := s.ListDocuments(cmd.Context())
				if err != nil {
					return err
				}
				stats, err := s.Stats(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				enc := json.NewEncoder(cmd.ErrOrStderr())
				return enc.Encode(stats)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s graph.Store) error {
				return s.DeleteDocument(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(save, load, list, del)
	return cmd
}
