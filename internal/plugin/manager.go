// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/samber/oops"

	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// Manager discovers plugin manifests and loads them through runtime hosts.
type Manager struct {
	pluginsDir  string
	hostVersion string
	disabled    []string
	hosts       map[Type]Host
	loaded      map[string]*LoadedPlugin
	mu          sync.RWMutex
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithHost sets the runtime host for plugins of type t.
func WithHost(t Type, h Host) ManagerOption {
	return func(m *Manager) {
		m.hosts[t] = h
	}
}

// WithLuaHost sets the Lua host for the manager.
func WithLuaHost(h Host) ManagerOption {
	return WithHost(TypeLua, h)
}

// WithBinaryHost sets the binary plugin host for the manager.
func WithBinaryHost(h Host) ManagerOption {
	return WithHost(TypeBinary, h)
}

// WithHostVersion sets the version checked against manifest host-version
// constraints.
func WithHostVersion(v string) ManagerOption {
	return func(m *Manager) {
		m.hostVersion = v
	}
}

// WithDisabled names plugins that are discovered but never loaded.
func WithDisabled(names ...string) ManagerOption {
	return func(m *Manager) {
		m.disabled = append(m.disabled, names...)
	}
}

// NewManager creates a plugin manager.
func NewManager(pluginsDir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		pluginsDir: pluginsDir,
		hosts:      make(map[Type]Host),
		loaded:     make(map[string]*LoadedPlugin),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DiscoveredPlugin contains a manifest and its directory.
type DiscoveredPlugin struct {
	Manifest *Manifest
	Dir      string
}

// LoadedPlugin is a discovered plugin whose runtime host has loaded it.
type LoadedPlugin struct {
	Manifest *Manifest
	Dir      string
	Plugin   pluginpkg.Plugin
}

// Discover finds all valid plugins in the plugins directory, ordered by
// directory name. Invalid plugins are logged and skipped.
func (m *Manager) Discover(ctx context.Context) ([]*DiscoveredPlugin, error) {
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.DebugContext(ctx, "plugins directory does not exist", "dir", m.pluginsDir)
			return nil, nil
		}
		return nil, oops.In("plugin").With("dir", m.pluginsDir).Wrapf(err, "failed to read plugins directory")
	}

	var plugins []*DiscoveredPlugin
	seen := make(map[string]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginDir := filepath.Join(m.pluginsDir, entry.Name())
		manifestPath := filepath.Join(pluginDir, ManifestFile)

		data, err := os.ReadFile(manifestPath) //nolint:gosec // manifestPath is constructed from ReadDir entries
		if err != nil {
			slog.WarnContext(ctx, "skipping plugin without manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			slog.WarnContext(ctx, "skipping plugin with invalid manifest",
				"dir", entry.Name(),
				"error", FormatSchemaError(err))
			continue
		}

		if other, dup := seen[manifest.Name]; dup {
			slog.WarnContext(ctx, "skipping plugin with duplicate name",
				"plugin", manifest.Name,
				"dir", entry.Name(),
				"first_dir", other)
			continue
		}
		seen[manifest.Name] = entry.Name()

		plugins = append(plugins, &DiscoveredPlugin{
			Manifest: manifest,
			Dir:      pluginDir,
		})
	}

	return plugins, nil
}

// LoadAll discovers and loads all plugins in the plugins directory and
// returns the loaded ones in discovery order.
//
// Individual plugin failures are logged and skipped, so one broken plugin
// does not take down every other subcommand.
func (m *Manager) LoadAll(ctx context.Context) ([]*LoadedPlugin, error) {
	discovered, err := m.Discover(ctx)
	if err != nil {
		return nil, err
	}

	var loaded []*LoadedPlugin
	for _, dp := range discovered {
		lp, err := m.loadPlugin(ctx, dp)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load plugin",
				"plugin", dp.Manifest.Name,
				"error", err)
			continue
		}
		if lp != nil {
			loaded = append(loaded, lp)
		}
	}

	return loaded, nil
}

// loadPlugin loads a single discovered plugin. It returns nil, nil for
// plugins that are skipped on purpose.
func (m *Manager) loadPlugin(ctx context.Context, dp *DiscoveredPlugin) (*LoadedPlugin, error) {
	name := dp.Manifest.Name

	if slices.Contains(m.disabled, name) {
		slog.InfoContext(ctx, "plugin disabled, skipping", "plugin", name)
		return nil, nil
	}
	if !dp.Manifest.SupportsHost(m.hostVersion) {
		slog.WarnContext(ctx, "plugin does not support this host version, skipping",
			"plugin", name,
			"host_version", m.hostVersion,
			"requires", dp.Manifest.HostVersion)
		return nil, nil
	}

	host, ok := m.hosts[dp.Manifest.Type]
	if !ok || host == nil {
		slog.WarnContext(ctx, "no host configured for plugin type, skipping",
			"plugin", name,
			"type", dp.Manifest.Type)
		return nil, nil
	}

	p, err := host.Load(ctx, dp.Manifest, dp.Dir)
	if err != nil {
		return nil, oops.In("plugin").With("plugin", name).With("type", dp.Manifest.Type).
			Wrapf(err, "load plugin %s", name)
	}

	lp := &LoadedPlugin{Manifest: dp.Manifest, Dir: dp.Dir, Plugin: p}

	m.mu.Lock()
	m.loaded[name] = lp
	m.mu.Unlock()

	slog.DebugContext(ctx, "loaded plugin",
		"plugin", name,
		"type", dp.Manifest.Type,
		"version", dp.Manifest.Version)

	return lp, nil
}

// ListPlugins returns names of all loaded plugins.
func (m *Manager) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Get returns a loaded plugin by name.
func (m *Manager) Get(name string) (*LoadedPlugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lp, ok := m.loaded[name]
	return lp, ok
}

// Close shuts down every host and forgets all loaded plugins.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = make(map[string]*LoadedPlugin)

	var errs []error
	for t, h := range m.hosts {
		if h == nil {
			continue
		}
		if err := h.Close(ctx); err != nil {
			errs = append(errs, oops.In("plugin").With("type", t).Wrapf(err, "close %s host", t))
		}
	}
	return errors.Join(errs...)
}
