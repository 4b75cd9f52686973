// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package goplugin

import (
	hashiplug "github.com/hashicorp/go-plugin"

	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// HandshakeConfig is imported from pkg/plugin to ensure host and plugins
// use identical configuration. Do not define locally to prevent drift.
var HandshakeConfig = pluginpkg.HandshakeConfig

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]hashiplug.Plugin{
	pluginpkg.ProviderName: &pluginpkg.ProviderPlugin{},
}
