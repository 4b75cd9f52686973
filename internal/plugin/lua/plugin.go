// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/hookhost/pkg/argspec"
	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// Registration entry points a Lua plugin script may define.
const (
	subcommandsEntry  = "subcommands"
	postCommandsEntry = "post_commands"
)

// Compile-time interface checks.
var (
	_ pluginpkg.SubcommandProvider  = (*luaPlugin)(nil)
	_ pluginpkg.PostCommandProvider = (*luaPlugin)(nil)
)

// luaPlugin is a loaded script. Its state persists so that action
// functions returned by the entry points stay callable.
type luaPlugin struct {
	name  string
	state *lua.LState
	mu    sync.Mutex
}

func (p *luaPlugin) Name() string { return p.name }

// Subcommands calls the script's subcommands() entry point. Malformed
// descriptors are logged and skipped.
func (p *luaPlugin) Subcommands() iter.Seq[pluginpkg.Subcommand] {
	return func(yield func(pluginpkg.Subcommand) bool) {
		for _, sub := range p.collectSubcommands() {
			if !yield(sub) {
				return
			}
		}
	}
}

// PostCommands calls the script's post_commands() entry point. Malformed
// descriptors are logged and skipped.
func (p *luaPlugin) PostCommands() iter.Seq[pluginpkg.PostCommand] {
	return func(yield func(pluginpkg.PostCommand) bool) {
		for _, post := range p.collectPostCommands() {
			if !yield(post) {
				return
			}
		}
	}
}

func (p *luaPlugin) collectSubcommands() []pluginpkg.Subcommand {
	p.mu.Lock()
	defer p.mu.Unlock()

	tbl, err := p.callEntry(subcommandsEntry)
	if err != nil {
		slog.Warn("lua plugin entry point failed", "plugin", p.name, "entry", subcommandsEntry, "error", err)
		return nil
	}
	if tbl == nil {
		return nil
	}

	var subs []pluginpkg.Subcommand
	for i := 1; i <= tbl.Len(); i++ {
		desc, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			slog.Warn("lua subcommand descriptor is not a table", "plugin", p.name, "index", i)
			continue
		}
		name := stringField(desc, "name")
		fn, ok := desc.RawGetString("action").(*lua.LFunction)
		if !ok {
			slog.Warn("lua subcommand has no action function", "plugin", p.name, "subcommand", name)
			continue
		}
		usage := stringField(desc, "usage")
		var spec *argspec.Spec
		if usage != "" {
			spec, err = argspec.Compile(usage)
			if err != nil {
				slog.Warn("lua subcommand has invalid usage", "plugin", p.name, "subcommand", name, "error", err)
				continue
			}
		}
		subs = append(subs, pluginpkg.Subcommand{
			Name:    name,
			Summary: stringField(desc, "summary"),
			Usage:   usage,
			Action:  p.subcommandAction(name, fn, spec),
		})
	}
	return subs
}

func (p *luaPlugin) collectPostCommands() []pluginpkg.PostCommand {
	p.mu.Lock()
	defer p.mu.Unlock()

	tbl, err := p.callEntry(postCommandsEntry)
	if err != nil {
		slog.Warn("lua plugin entry point failed", "plugin", p.name, "entry", postCommandsEntry, "error", err)
		return nil
	}
	if tbl == nil {
		return nil
	}

	var posts []pluginpkg.PostCommand
	for i := 1; i <= tbl.Len(); i++ {
		desc, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			slog.Warn("lua post-command descriptor is not a table", "plugin", p.name, "index", i)
			continue
		}
		name := stringField(desc, "name")
		fn, ok := desc.RawGetString("action").(*lua.LFunction)
		if !ok {
			slog.Warn("lua post-command has no action function", "plugin", p.name, "post_command", name)
			continue
		}
		posts = append(posts, pluginpkg.PostCommand{
			Name:   name,
			RunFor: stringList(desc, "run_for"),
			Action: p.postAction(name, fn),
		})
	}
	return posts
}

// callEntry calls the global function entry and returns its table result.
// A script that does not define entry yields nil, nil.
// Callers hold p.mu.
func (p *luaPlugin) callEntry(entry string) (*lua.LTable, error) {
	L := p.state
	if L == nil {
		return nil, oops.In("lua").With("plugin", p.name).New("plugin is unloaded")
	}

	fn := L.GetGlobal(entry)
	if fn.Type() == lua.LTNil {
		return nil, nil
	}
	if fn.Type() != lua.LTFunction {
		return nil, oops.In("lua").With("plugin", p.name).With("entry", entry).
			Errorf("%s is a %s, not a function", entry, fn.Type())
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return nil, oops.In("lua").With("plugin", p.name).With("entry", entry).Wrap(luaError(err))
	}
	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case *lua.LTable:
		return v, nil
	case *lua.LNilType:
		return nil, nil
	default:
		return nil, oops.In("lua").With("plugin", p.name).With("entry", entry).
			Errorf("%s returned %s, want a table", entry, ret.Type())
	}
}

func (p *luaPlugin) subcommandAction(name string, fn *lua.LFunction, spec *argspec.Spec) pluginpkg.Action {
	return func(ctx context.Context, env *pluginpkg.Env, args []string) error {
		var values argspec.Values
		if spec != nil {
			var err error
			values, err = spec.Bind(args)
			if err != nil {
				return argspec.ForCommand(err, name)
			}
		}

		return p.call(ctx, env, fn, "subcommand", name, func(L *lua.LState) lua.LValue {
			return argsTable(L, args, spec, values)
		})
	}
}

func (p *luaPlugin) postAction(name string, fn *lua.LFunction) pluginpkg.PostAction {
	return func(ctx context.Context, env *pluginpkg.Env, command string) error {
		return p.call(ctx, env, fn, "post_command", name, func(_ *lua.LState) lua.LValue {
			return lua.LString(command)
		})
	}
}

// call runs fn with one argument built by arg, with print bound to env's
// stdout and hookhost.prefix set to env's prefix.
func (p *luaPlugin) call(ctx context.Context, env *pluginpkg.Env, fn *lua.LFunction, kind, name string, arg func(*lua.LState) lua.LValue) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	L := p.state
	if L == nil {
		return oops.In("lua").With("plugin", p.name).With(kind, name).New("plugin is unloaded")
	}

	L.SetContext(ctx)
	defer L.RemoveContext()
	SetOutput(L, env.Stdout)
	defer SetOutput(L, nil)

	api := L.NewTable()
	api.RawSetString("prefix", lua.LString(env.Prefix))
	L.SetGlobal("hookhost", api)

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, arg(L)); err != nil {
		return oops.In("lua").With("plugin", p.name).With(kind, name).Wrap(luaError(err))
	}
	return nil
}

// luaError strips the Lua stack trace from errors raised by scripts.
func luaError(err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return errors.New(apiErr.Object.String())
	}
	return err
}

func (p *luaPlugin) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != nil {
		p.state.Close()
		p.state = nil
	}
}
