// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"

	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// Host manages a specific plugin runtime type.
type Host interface {
	// Load initializes a plugin from its manifest and returns it ready for
	// collection.
	Load(ctx context.Context, manifest *Manifest, dir string) (pluginpkg.Plugin, error)

	// Unload tears down a plugin.
	Unload(ctx context.Context, name string) error

	// Plugins returns names of all loaded plugins.
	Plugins() []string

	// Close shuts down the host and all plugins.
	Close(ctx context.Context) error
}
