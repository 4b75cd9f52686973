// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/holomush/hookhost/internal/command"
	plugins "github.com/holomush/hookhost/internal/plugin"
)

// NewPluginsCmd creates the plugins subcommand.
func NewPluginsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "plugins",
		Short:   "List plugins with their subcommands and post-commands",
		GroupID: groupHost,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			fmt.Fprintln(w, "PLUGIN\tVERSION\tTYPE\tLOCATION")
			for _, name := range a.builtins {
				fmt.Fprintf(w, "%s\t%s\t%s\t-\n", name, hostVersion(), command.SourceBuiltin)
			}
			for _, name := range a.manager.ListPlugins() {
				lp, ok := a.manager.Get(name)
				if !ok {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, lp.Manifest.Version, lp.Manifest.Type, lp.Dir)
			}

			fmt.Fprintln(w, "\nSUBCOMMAND\tSOURCE\tUSAGE\t")
			for _, e := range a.registry.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t\n", e.Name, e.Source, usageLine(e.Usage))
			}

			fmt.Fprintln(w, "\nPOST-COMMAND\tSOURCE\tRUN FOR\t")
			for _, p := range a.registry.Posts() {
				fmt.Fprintf(w, "%s\t%s\t%v\t\n", p.Name, p.Source, p.RunFor)
			}
			return w.Flush()
		},
	}
}

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "schema",
		Short:   "Print the plugin manifest JSON Schema",
		GroupID: groupHost,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := plugins.GenerateSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return err
		},
	}
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the hookhost version",
		GroupID: groupHost,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hookhost %s\n", versionString())
			return err
		},
	}
}
