// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package multiply provides the multiply subcommand. It is served from its
// own executable (see cmd/multiply) and reached by the host over RPC.
package multiply

import (
	"context"
	"fmt"
	"iter"
	"math"

	"github.com/samber/oops"

	"github.com/holomush/hookhost/pkg/argspec"
	"github.com/holomush/hookhost/pkg/plugin"
)

// SubcommandName is the command line name of the subcommand.
const SubcommandName = "multiply"

var signature = argspec.MustCompile("x:int y:int")

// Plugin is the multiply plugin.
type Plugin struct{}

// New returns the plugin.
func New() *Plugin { return &Plugin{} }

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return "multiply" }

// Subcommands implements plugin.SubcommandProvider.
func (p *Plugin) Subcommands() iter.Seq[plugin.Subcommand] {
	return plugin.Subcommands(plugin.Subcommand{
		Name:    SubcommandName,
		Summary: "A subcommand that multiplies two integers in a separate process",
		Usage:   signature.String(),
		Action:  p.run,
	})
}

func (p *Plugin) run(_ context.Context, env *plugin.Env, args []string) error {
	vals, err := signature.Bind(args)
	if err != nil {
		return err
	}
	x, y := vals.Int("x"), vals.Int("y")
	product, err := Multiply(x, y)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.Stdout, "The product of %d * %d is: %d\n", x, y, product)
	return err
}

// Multiply returns x*y, or an error when the product does not fit in an
// int64.
func Multiply(x, y int64) (int64, error) {
	if x == 0 || y == 0 {
		return 0, nil
	}
	p := x * y
	if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, oops.In("multiply").
			With("x", x).
			With("y", y).
			Errorf("%d * %d overflows a 64-bit integer", x, y)
	}
	return p, nil
}
