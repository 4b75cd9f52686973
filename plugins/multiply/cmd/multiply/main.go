// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command multiply is the multiply binary plugin. The host starts it; it
// is not meant to be run by hand.
package main

import (
	"github.com/holomush/hookhost/pkg/plugin"
	"github.com/holomush/hookhost/plugins/multiply"
)

func main() {
	plugin.Serve(&plugin.ServeConfig{Plugin: multiply.New()})
}
