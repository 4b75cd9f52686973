// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	hashiplug "github.com/hashicorp/go-plugin"
)

// ServeConfig configures a binary plugin server.
type ServeConfig struct {
	// Plugin is the in-process plugin to expose. Required; Serve panics if nil.
	Plugin Plugin
}

// Serve starts the plugin server. Call it from main() of a separately
// compiled plugin executable. It blocks and never returns under normal
// operation.
//
//	func main() {
//		plugin.Serve(&plugin.ServeConfig{Plugin: multiply.New()})
//	}
func Serve(config *ServeConfig) {
	if config == nil {
		panic("plugin: config cannot be nil")
	}
	if config.Plugin == nil {
		panic("plugin: config.Plugin cannot be nil")
	}
	hashiplug.Serve(&hashiplug.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]hashiplug.Plugin{
			ProviderName: &ProviderPlugin{Impl: NewLocalProvider(config.Plugin)},
		},
	})
}
