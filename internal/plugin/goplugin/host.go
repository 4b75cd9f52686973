// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package goplugin provides a Host implementation for binary plugins
// using HashiCorp's go-plugin system over net/rpc.
package goplugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/hookhost/internal/logging"
	"github.com/holomush/hookhost/internal/plugin"
	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// Defaults for restarting a plugin process that failed to come up.
const (
	DefaultStartRetries  = 2
	DefaultRetryInterval = 100 * time.Millisecond
)

// Sentinel errors for programmatic error checking.
var (
	// ErrHostClosed is returned when operations are attempted on a closed host.
	ErrHostClosed = errors.New("host is closed")
	// ErrPluginNotLoaded is returned when operating on a plugin that isn't loaded.
	ErrPluginNotLoaded = errors.New("plugin not loaded")
	// ErrPluginAlreadyLoaded is returned when loading a plugin that's already loaded.
	ErrPluginAlreadyLoaded = errors.New("plugin already loaded")
)

// Compile-time interface check.
var _ plugin.Host = (*Host)(nil)

// PluginClient wraps go-plugin client for testability.
type PluginClient interface {
	// Client returns the RPC client protocol, starting the process if needed.
	Client() (hashiplug.ClientProtocol, error)
	// Kill terminates the plugin process.
	Kill()
}

// ClientFactory creates plugin clients.
type ClientFactory interface {
	// NewClient creates a client for the given executable path.
	NewClient(execPath string, logger hclog.Logger) PluginClient
}

// DefaultClientFactory creates real go-plugin clients.
type DefaultClientFactory struct{}

// NewClient creates a real go-plugin client.
func (f *DefaultClientFactory) NewClient(execPath string, logger hclog.Logger) PluginClient {
	return hashiplug.NewClient(&hashiplug.ClientConfig{
		HandshakeConfig:  HandshakeConfig,
		Plugins:          PluginMap,
		Cmd:              exec.Command(execPath), // #nosec G204 -- execPath resolved from plugin manifest; manifests validated during discovery
		AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolNetRPC},
		Logger:           logger,
	})
}

// Host manages binary plugins via HashiCorp go-plugin.
type Host struct {
	clientFactory ClientFactory
	logger        hclog.Logger
	startRetries  uint64
	retryInterval time.Duration
	plugins       map[string]*loadedPlugin
	mu            sync.RWMutex
	closed        bool
}

// loadedPlugin holds state for a single loaded binary plugin.
type loadedPlugin struct {
	manifest *plugin.Manifest
	client   PluginClient
	remote   *remotePlugin
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithClientFactory replaces the go-plugin client factory (for testing).
func WithClientFactory(factory ClientFactory) HostOption {
	return func(h *Host) {
		if factory != nil {
			h.clientFactory = factory
		}
	}
}

// WithLogger sets the logger handed to go-plugin clients.
func WithLogger(logger hclog.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithStartRetries sets how often a failed plugin start is retried and the
// constant delay between attempts.
func WithStartRetries(retries uint64, interval time.Duration) HostOption {
	return func(h *Host) {
		h.startRetries = retries
		h.retryInterval = interval
	}
}

// NewHost creates a new binary plugin host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		clientFactory: &DefaultClientFactory{},
		logger:        logging.NewHCLogAdapter(nil, "plugin"),
		startRetries:  DefaultStartRetries,
		retryInterval: DefaultRetryInterval,
		plugins:       make(map[string]*loadedPlugin),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load starts the plugin process, dispenses its Provider and fetches its
// description. The returned plugin's actions run in the plugin process.
func (h *Host) Load(ctx context.Context, manifest *plugin.Manifest, dir string) (pluginpkg.Plugin, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHostClosed
	}

	if _, ok := h.plugins[manifest.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginAlreadyLoaded, manifest.Name)
	}

	if manifest.BinaryPlugin == nil {
		return nil, fmt.Errorf("plugin %s is not a binary plugin", manifest.Name)
	}

	execPath := filepath.Join(dir, manifest.BinaryPlugin.Executable)
	if _, err := os.Stat(execPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plugin executable not found: %s: %w", execPath, err)
		}
		return nil, fmt.Errorf("cannot access plugin executable %s: %w", execPath, err)
	}

	client, provider, err := h.start(ctx, manifest.Name, execPath)
	if err != nil {
		return nil, err
	}

	desc, err := provider.Describe()
	if err != nil {
		client.Kill()
		return nil, oops.In("goplugin").With("plugin", manifest.Name).With("operation", "describe").Wrap(err)
	}
	if desc.Name != "" && desc.Name != manifest.Name {
		h.logger.Warn("plugin reports a different name than its manifest",
			"manifest", manifest.Name, "reported", desc.Name)
	}

	remote := newRemotePlugin(manifest.Name, desc, provider)
	h.plugins[manifest.Name] = &loadedPlugin{
		manifest: manifest,
		client:   client,
		remote:   remote,
	}
	return remote, nil
}

// start launches execPath and dispenses its Provider, retrying failed
// attempts with a constant backoff.
func (h *Host) start(ctx context.Context, name, execPath string) (PluginClient, pluginpkg.Provider, error) {
	var (
		client   PluginClient
		provider pluginpkg.Provider
		attempt  int
	)

	backoff := retry.WithMaxRetries(h.startRetries, retry.NewConstant(max(h.retryInterval, time.Millisecond)))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		attempt++
		c := h.clientFactory.NewClient(execPath, h.logger.Named(name))

		rpcClient, err := c.Client()
		if err != nil {
			c.Kill()
			h.logger.Debug("plugin start failed", "plugin", name, "attempt", attempt, "error", err)
			return retry.RetryableError(fmt.Errorf("failed to connect to plugin %s: %w", name, err))
		}

		raw, err := rpcClient.Dispense(pluginpkg.ProviderName)
		if err != nil {
			c.Kill()
			h.logger.Debug("plugin dispense failed", "plugin", name, "attempt", attempt, "error", err)
			return retry.RetryableError(fmt.Errorf("failed to dispense plugin %s: %w", name, err))
		}

		p, ok := raw.(pluginpkg.Provider)
		if !ok {
			c.Kill()
			return fmt.Errorf("plugin %s does not implement Provider", name)
		}
		client, provider = c, p
		return nil
	})
	if err != nil {
		return nil, nil, oops.In("goplugin").
			With("plugin", name).
			With("operation", "start").
			With("attempts", attempt).
			Wrap(err)
	}
	return client, provider, nil
}

// Unload kills a plugin's process.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHostClosed
	}

	p, ok := h.plugins[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotLoaded, name)
	}

	p.client.Kill()
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

// Close kills every plugin process and marks the host closed.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for name, p := range h.plugins {
		p.client.Kill()
		delete(h.plugins, name)
	}
	return nil
}
