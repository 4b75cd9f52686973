// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	plugins "github.com/holomush/hookhost/internal/plugin"
	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// Compile-time interface check.
var _ plugins.Host = (*Host)(nil)

// Host manages Lua plugins.
type Host struct {
	factory *StateFactory
	plugins map[string]*luaPlugin
	mu      sync.RWMutex
	closed  bool
}

// NewHost creates a new Lua plugin host.
func NewHost() *Host {
	return &Host{
		factory: NewStateFactory(),
		plugins: make(map[string]*luaPlugin),
	}
}

// Load runs the plugin's entry script in a fresh sandboxed state. The
// script must define subcommands(), post_commands() or both; they are not
// called until the returned plugin's entry points are.
func (h *Host) Load(ctx context.Context, manifest *plugins.Manifest, dir string) (pluginpkg.Plugin, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, oops.In("lua").With("plugin", manifest.Name).With("operation", "load").New("host is closed")
	}
	if manifest.LuaPlugin == nil {
		return nil, oops.In("lua").With("plugin", manifest.Name).With("operation", "load").New("manifest has no lua-plugin section")
	}
	if _, ok := h.plugins[manifest.Name]; ok {
		return nil, oops.In("lua").With("plugin", manifest.Name).With("operation", "load").New("plugin already loaded")
	}

	entryPath := filepath.Join(dir, manifest.LuaPlugin.Entry)
	code, err := os.ReadFile(filepath.Clean(entryPath))
	if err != nil {
		return nil, oops.In("lua").With("plugin", manifest.Name).With("operation", "load").With("path", entryPath).Hint("failed to read entry file").Wrap(err)
	}

	L, err := h.factory.NewState(ctx)
	if err != nil {
		return nil, oops.In("lua").With("plugin", manifest.Name).With("operation", "load").Hint("failed to create state").Wrap(err)
	}

	if err := L.DoString(string(code)); err != nil {
		L.Close()
		return nil, oops.In("lua").With("plugin", manifest.Name).With("operation", "load").With("entry", manifest.LuaPlugin.Entry).Hint("syntax error").Wrap(err)
	}

	if L.GetGlobal(subcommandsEntry).Type() != lua.LTFunction && L.GetGlobal(postCommandsEntry).Type() != lua.LTFunction {
		L.Close()
		return nil, oops.In("lua").With("plugin", manifest.Name).With("operation", "load").
			Hint("define subcommands() or post_commands()").
			New("script has no registration entry point")
	}

	p := &luaPlugin{name: manifest.Name, state: L}
	h.plugins[manifest.Name] = p
	return p, nil
}

// Unload closes a plugin's state.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.plugins[name]
	if !ok {
		return oops.In("lua").With("plugin", name).With("operation", "unload").New("plugin not loaded")
	}
	p.close()
	delete(h.plugins, name)
	return nil
}

// Plugins returns names of loaded plugins.
func (h *Host) Plugins() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.plugins))
	for name := range h.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close shuts down the host and every plugin state.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.plugins {
		p.close()
	}
	h.closed = true
	h.plugins = nil
	return nil
}
