// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/holomush/hookhost/internal/command"
	"github.com/holomush/hookhost/internal/config"
	"github.com/holomush/hookhost/internal/logging"
	plugins "github.com/holomush/hookhost/internal/plugin"
	"github.com/holomush/hookhost/internal/plugin/goplugin"
	"github.com/holomush/hookhost/internal/plugin/lua"
	"github.com/holomush/hookhost/pkg/errutil"
	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
	"github.com/holomush/hookhost/plugins/asciigraph"
	"github.com/holomush/hookhost/plugins/packagecounter"
	"github.com/holomush/hookhost/plugins/stringart"
	"github.com/holomush/hookhost/plugins/tempconv"
)

// streams are the process console.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// builtinPlugins are compiled into the host and collected before anything
// found on disk.
func builtinPlugins() []pluginpkg.Plugin {
	return []pluginpkg.Plugin{
		asciigraph.New(),
		stringart.New(nil),
		tempconv.New(),
		packagecounter.New(),
	}
}

// app is one process worth of host state.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	registry   *command.Registry
	dispatcher *command.Dispatcher
	manager    *plugins.Manager
	metrics    *prometheus.Registry
	builtins   []string
	streams
}

// newGlobalFlags returns the flags accepted before the subcommand name.
func newGlobalFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("hookhost", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(io.Discard)
	config.BindFlags(flags)
	flags.BoolP("help", "h", false, "help for hookhost")
	flags.Bool("version", false, "version for hookhost")
	return flags
}

// cobraArgs returns what cobra gets to see once global flags are consumed.
func cobraArgs(flags *pflag.FlagSet) []string {
	if help, _ := flags.GetBool("help"); help {
		return []string{"--help"}
	}
	if v, _ := flags.GetBool("version"); v {
		return []string{"--version"}
	}
	// A nil slice would make cobra fall back to os.Args.
	return append([]string{}, flags.Args()...)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, s streams) int {
	flags := newGlobalFlags()
	if err := flags.Parse(args); err != nil {
		_, _ = fmt.Fprintf(s.errOut, "%v\nRun 'hookhost --help' for usage.\n", err)
		return command.ExitUsage
	}

	cfg, err := config.Load(flags)
	if err != nil {
		_, _ = fmt.Fprintln(s.errOut, command.UserMessage(err))
		return command.ExitError
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		_, _ = fmt.Fprintln(s.errOut, command.UserMessage(err))
		return command.ExitError
	}
	logger := logging.SetDefault("hookhost", version, cfg.Log.Format, level, s.errOut)

	a, err := newApp(ctx, cfg, logger, s)
	if err != nil {
		errutil.LogError(ctx, logger, "host setup failed", err)
		_, _ = fmt.Fprintln(s.errOut, command.UserMessage(err))
		return command.ExitError
	}
	defer a.close(ctx)

	root := NewRootCmd(a)
	root.SetArgs(cobraArgs(flags))
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.errOut)

	err = root.ExecuteContext(ctx)
	a.writeMetrics(ctx)
	if err != nil {
		if logger.Enabled(ctx, slog.LevelDebug) {
			errutil.LogError(ctx, logger, "command failed", err)
		}
		_, _ = fmt.Fprintln(s.errOut, command.UserMessage(err))
		return command.ExitCode(err)
	}
	return command.ExitOK
}

// newApp collects the built-in plugins, then loads and collects every
// plugin under the configured plugins directory.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, s streams) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: command.NewRegistry(),
		metrics:  prometheus.NewRegistry(),
		streams:  s,
	}
	command.RegisterMetrics(a.metrics)

	for _, p := range builtinPlugins() {
		if cfg.IsDisabled(p.Name()) {
			logger.InfoContext(ctx, "plugin disabled, skipping", "plugin", p.Name())
			continue
		}
		a.collect(ctx, p)
		a.builtins = append(a.builtins, p.Name())
	}

	binaryHost := goplugin.NewHost(
		goplugin.WithLogger(logging.NewHCLogAdapter(logger, "plugin")),
		goplugin.WithStartRetries(cfg.Binary.StartRetries, cfg.Binary.RetryInterval),
	)
	a.manager = plugins.NewManager(cfg.PluginsDir,
		plugins.WithLuaHost(lua.NewHost()),
		plugins.WithBinaryHost(binaryHost),
		plugins.WithHostVersion(hostVersion()),
		plugins.WithDisabled(cfg.Disabled...),
	)

	loaded, err := a.manager.LoadAll(ctx)
	if err != nil {
		_ = a.manager.Close(ctx)
		return nil, err
	}
	for _, lp := range loaded {
		a.collect(ctx, lp.Plugin)
	}

	a.dispatcher, err = command.NewDispatcher(a.registry,
		command.WithEnv(&pluginpkg.Env{
			Stdin:  s.in,
			Stdout: s.out,
			Stderr: s.errOut,
			Prefix: cfg.TargetPrefix,
		}),
		command.WithLogger(logger),
	)
	if err != nil {
		_ = a.manager.Close(ctx)
		return nil, err
	}
	return a, nil
}

// collect registers p's descriptors. Rejected descriptors are logged; the
// rest of the plugin stays usable.
func (a *app) collect(ctx context.Context, p pluginpkg.Plugin) {
	if err := command.Collect(a.registry, p); err != nil {
		a.logger.WarnContext(ctx, "plugin registration rejected",
			"plugin", p.Name(),
			"error", err)
	}
}

func (a *app) writeMetrics(ctx context.Context) {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := command.WriteTextfile(a.cfg.Metrics.Textfile, a.metrics); err != nil {
		a.logger.WarnContext(ctx, "failed to write metrics textfile",
			"path", a.cfg.Metrics.Textfile,
			"error", err)
	}
}

func (a *app) close(ctx context.Context) {
	if err := a.manager.Close(ctx); err != nil {
		a.logger.WarnContext(ctx, "failed to close plugin hosts", "error", err)
	}
}
