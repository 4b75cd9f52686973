// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package goplugin

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/hookhost/pkg/argspec"
	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// Compile-time interface checks.
var (
	_ pluginpkg.SubcommandProvider  = (*remotePlugin)(nil)
	_ pluginpkg.PostCommandProvider = (*remotePlugin)(nil)
)

// remotePlugin presents a binary plugin's description as local
// descriptors whose actions call back over RPC.
type remotePlugin struct {
	name     string
	desc     pluginpkg.Description
	provider pluginpkg.Provider
}

func newRemotePlugin(name string, desc pluginpkg.Description, provider pluginpkg.Provider) *remotePlugin {
	return &remotePlugin{name: name, desc: desc, provider: provider}
}

func (p *remotePlugin) Name() string { return p.name }

// Subcommands yields one descriptor per described subcommand. Infos with an
// invalid usage signature are logged and skipped.
func (p *remotePlugin) Subcommands() iter.Seq[pluginpkg.Subcommand] {
	return func(yield func(pluginpkg.Subcommand) bool) {
		for _, info := range p.desc.Subcommands {
			var spec *argspec.Spec
			if info.Usage != "" {
				var err error
				spec, err = argspec.Compile(info.Usage)
				if err != nil {
					slog.Warn("binary subcommand has invalid usage", "plugin", p.name, "subcommand", info.Name, "error", err)
					continue
				}
			}
			sub := pluginpkg.Subcommand{
				Name:    info.Name,
				Summary: info.Summary,
				Usage:   info.Usage,
				Action:  p.subcommandAction(info.Name, spec),
			}
			if !yield(sub) {
				return
			}
		}
	}
}

// PostCommands yields one descriptor per described post-command.
func (p *remotePlugin) PostCommands() iter.Seq[pluginpkg.PostCommand] {
	return func(yield func(pluginpkg.PostCommand) bool) {
		for _, info := range p.desc.PostCommands {
			post := pluginpkg.PostCommand{
				Name:   info.Name,
				RunFor: append([]string(nil), info.RunFor...),
				Action: p.postAction(info.Name),
			}
			if !yield(post) {
				return
			}
		}
	}
}

// subcommandAction validates tokens locally when a signature is known so
// malformed input never reaches the plugin process.
func (p *remotePlugin) subcommandAction(name string, spec *argspec.Spec) pluginpkg.Action {
	return func(_ context.Context, env *pluginpkg.Env, args []string) error {
		if spec != nil {
			if _, err := spec.Bind(args); err != nil {
				return argspec.ForCommand(err, name)
			}
		}
		resp, err := p.provider.Run(pluginpkg.RunRequest{
			Name:   name,
			Args:   args,
			Prefix: env.Prefix,
		})
		if err != nil {
			return oops.In("goplugin").With("plugin", p.name).With("subcommand", name).Wrap(err)
		}
		return p.deliver(env, name, resp)
	}
}

func (p *remotePlugin) postAction(name string) pluginpkg.PostAction {
	return func(_ context.Context, env *pluginpkg.Env, command string) error {
		resp, err := p.provider.RunPost(pluginpkg.PostRequest{
			Name:    name,
			Command: command,
			Prefix:  env.Prefix,
		})
		if err != nil {
			return oops.In("goplugin").With("plugin", p.name).With("post_command", name).Wrap(err)
		}
		return p.deliver(env, name, resp)
	}
}

// deliver copies the plugin's console output into env and turns the
// response's failure fields back into errors.
func (p *remotePlugin) deliver(env *pluginpkg.Env, name string, resp pluginpkg.RunResponse) error {
	if err := write(env.Stdout, resp.Stdout); err != nil {
		return err
	}
	if err := write(env.Stderr, resp.Stderr); err != nil {
		return err
	}
	if resp.Usage != nil {
		return argspec.ForCommand(resp.Usage, name)
	}
	if resp.Error != "" {
		return oops.In("goplugin").With("plugin", p.name).With("name", name).New(resp.Error)
	}
	return nil
}

func write(w io.Writer, s string) error {
	if s == "" || w == nil {
		return nil
	}
	_, err := io.WriteString(w, s)
	return err
}
