// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/holomush/hookhost/internal/command"
	"github.com/holomush/hookhost/internal/config"
	"github.com/holomush/hookhost/pkg/argspec"
)

// Help groups.
const (
	groupPlugins = "plugins"
	groupHost    = "host"
)

// NewRootCmd creates the root command with one subcommand per collected
// plugin subcommand.
func NewRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hookhost [global flags] <subcommand> [args...]",
		Short: "hookhost - run subcommands contributed by plugins",
		Long: `hookhost discovers plugins, collects the subcommands and post-commands
they register, and runs exactly one subcommand per invocation.

Global flags must come before the subcommand name; everything after it is
passed to the subcommand unchanged.`,
		Version:       versionString(),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			// Names cobra did not match are unknown to the registry too.
			return a.dispatcher.Dispatch(cmd.Context(), args[0], args[1:])
		},
	}
	cmd.Flags().SetInterspersed(false)
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(
		&cobra.Group{ID: groupPlugins, Title: "Plugin subcommands:"},
		&cobra.Group{ID: groupHost, Title: "Host commands:"},
	)
	cmd.SetHelpCommandGroupID(groupHost)
	cmd.SetCompletionCommandGroupID(groupHost)

	for _, entry := range a.registry.All() {
		cmd.AddCommand(newPluginCmd(a, entry))
	}

	cmd.AddCommand(NewPluginsCmd(a))
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// newPluginCmd wraps a registered subcommand. Flag parsing is disabled so
// every token reaches the action; a lone -h or --help prints help instead.
func newPluginCmd(a *app, entry command.Entry) *cobra.Command {
	use := entry.Name
	if entry.Usage != "" {
		use += " " + usageLine(entry.Usage)
	}
	return &cobra.Command{
		Use:                use,
		Short:              entry.Summary,
		GroupID:            groupPlugins,
		DisableFlagParsing: true,
		Annotations:        map[string]string{"source": entry.Source},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			return a.dispatcher.Dispatch(cmd.Context(), entry.Name, args)
		},
	}
}

// usageLine renders a signature the way help shows it, falling back to the
// raw signature if it does not compile.
func usageLine(sig string) string {
	spec, err := argspec.Compile(sig)
	if err != nil {
		return strings.TrimSpace(sig)
	}
	return spec.Usage()
}
