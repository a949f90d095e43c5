package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"namd/internal/registry"
	"namd/pkg/types"
)

func newModelsCmd(opts *options) *cobra.Command {
	var asJSON bool
	var prefix string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models found in the models directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := registry.OpenDir(opts.cfg.ModelsDir)
			if err != nil {
				return err
			}
			models := catalog.List()
			if prefix != "" {
				models = catalog.Prefix(prefix)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(types.ModelsResponse{Models: models})
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSIZE\tCOMPRESSION")
			for _, m := range models {
				comp := m.Compression
				if comp == "" {
					comp = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Size, comp)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list IDs starting with this prefix")
	return cmd
}
