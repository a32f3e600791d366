package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tinygpt/internal/config"
	"tinygpt/internal/logging"
	"tinygpt/internal/tools/builtin"
	"tinygpt/internal/toolregistry"
)

func newToolsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			registry := toolregistry.New()
			if err := builtin.RegisterAll(registry, builtin.Config{Logger: logging.Nop()}); err != nil {
				return err
			}
			for _, name := range cfg.Tools.Disabled {
				_, _ = registry.SetEnabled(name, false)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tENABLED\tDESCRIPTION")
			for _, snap := range registry.List() {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n",
					snap.Name, snap.Category, snap.Enabled, snap.Definition.Description)
			}
			return w.Flush()
		},
	}
}
