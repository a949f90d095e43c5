package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"namd/internal/urid"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "namd %s (%s, plugin %s)\n", version, runtime.Version(), urid.PluginURI)
		},
	}
}
