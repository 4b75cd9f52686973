// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package asciigraph provides the ascii-graph subcommand, which plots the
// curve s^x over an interval as a text graph.
package asciigraph

import (
	"context"
	"fmt"
	"io"
	"iter"
	"math"

	graph "github.com/guptarohit/asciigraph"
	"github.com/samber/oops"

	"github.com/holomush/hookhost/pkg/argspec"
	"github.com/holomush/hookhost/pkg/plugin"
)

// SubcommandName is the command line name of the subcommand.
const SubcommandName = "ascii-graph"

var signature = argspec.MustCompile("x:float y:float z:float")

// Plotter renders the curve s^exponent sampled over [lo, hi].
type Plotter interface {
	Plot(exponent, lo, hi float64) (string, error)
}

// PlotterFunc adapts a function to Plotter.
type PlotterFunc func(exponent, lo, hi float64) (string, error)

// Plot calls f.
func (f PlotterFunc) Plot(exponent, lo, hi float64) (string, error) {
	return f(exponent, lo, hi)
}

// Graph samples the curve at evenly spaced points and renders it with
// asciigraph.
type Graph struct {
	Samples int
	Height  int
}

// DefaultGraph matches the size of a classic 80 column text plot.
var DefaultGraph = Graph{Samples: 55, Height: 15}

// Plot implements Plotter. Points where s^exponent is undefined are left
// out of the graph.
func (g Graph) Plot(exponent, lo, hi float64) (string, error) {
	if lo > hi {
		return "", oops.In("ascii-graph").
			With("lo", lo).
			With("hi", hi).
			Errorf("interval start %g is greater than its end %g", lo, hi)
	}
	samples := max(g.Samples, 2)

	step := (hi - lo) / float64(samples-1)
	if math.IsInf(step, 0) || math.IsNaN(step) {
		return "", oops.In("ascii-graph").
			With("lo", lo).
			With("hi", hi).
			Errorf("interval [%g, %g] is too wide to sample", lo, hi)
	}

	data := make([]float64, samples)
	finite := 0
	for i := range data {
		v := math.Pow(lo+step*float64(i), exponent)
		if math.IsInf(v, 0) {
			v = math.NaN()
		}
		if !math.IsNaN(v) {
			finite++
		}
		data[i] = v
	}
	if finite == 0 {
		return "", oops.In("ascii-graph").
			With("exponent", exponent).
			Errorf("s^%g has no real values on [%g, %g]", exponent, lo, hi)
	}

	return graph.Plot(data,
		graph.Height(max(g.Height, 1)),
		graph.Caption(fmt.Sprintf("s^%g over [%g, %g]", exponent, lo, hi)),
	), nil
}

// Plugin is the ascii-graph plugin.
type Plugin struct {
	plotter Plotter
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithPlotter replaces the plotting delegate.
func WithPlotter(p Plotter) Option {
	return func(pl *Plugin) {
		if p != nil {
			pl.plotter = p
		}
	}
}

// New returns the plugin with the default plotter.
func New(opts ...Option) *Plugin {
	p := &Plugin{plotter: DefaultGraph}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return "ascii-graph" }

// Subcommands implements plugin.SubcommandProvider.
func (p *Plugin) Subcommands() iter.Seq[plugin.Subcommand] {
	return plugin.Subcommands(plugin.Subcommand{
		Name:    SubcommandName,
		Summary: "A subcommand that takes three coordinates and prints out an ascii graph",
		Usage:   signature.String(),
		Action:  p.run,
	})
}

func (p *Plugin) run(_ context.Context, env *plugin.Env, args []string) error {
	vals, err := signature.Bind(args)
	if err != nil {
		return err
	}
	out, err := p.plotter.Plot(vals.Float("x"), vals.Float("y"), vals.Float("z"))
	if err != nil {
		return err
	}
	_, err = io.WriteString(env.Stdout, out+"\n")
	return err
}
