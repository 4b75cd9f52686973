// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package tempconv provides the temp-converter subcommand. The conversion
// itself runs in C when the module is built with cgo.
package tempconv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"

	"github.com/holomush/hookhost/pkg/argspec"
	"github.com/holomush/hookhost/pkg/plugin"
)

// SubcommandName is the command line name of the subcommand.
const SubcommandName = "temp-converter"

// Prompt is printed when no temperature is given on the command line.
const Prompt = "Enter the temperature in Celsius:"

var signature = argspec.MustCompile("celsius:float?")

// Plugin is the temp-converter plugin.
type Plugin struct{}

// New returns the plugin.
func New() *Plugin { return &Plugin{} }

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return "temp-converter" }

// Subcommands implements plugin.SubcommandProvider.
func (p *Plugin) Subcommands() iter.Seq[plugin.Subcommand] {
	return plugin.Subcommands(plugin.Subcommand{
		Name:    SubcommandName,
		Summary: "A subcommand that converts Celsius to Fahrenheit",
		Usage:   signature.String(),
		Action:  p.run,
	})
}

func (p *Plugin) run(_ context.Context, env *plugin.Env, args []string) error {
	vals, err := signature.Bind(args)
	if err != nil {
		return err
	}

	celsius := vals.Float("celsius")
	if !vals.Has("celsius") {
		celsius, err = prompt(env)
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(env.Stdout, "%.2f Celsius = %.2f Fahrenheit\n", celsius, Fahrenheit(celsius))
	return err
}

// prompt reads a single temperature from env.Stdin.
func prompt(env *plugin.Env) (float64, error) {
	if _, err := fmt.Fprintln(env.Stdout, Prompt); err != nil {
		return 0, err
	}
	if env.Stdin == nil {
		return 0, plugin.Usagef("", signature.Usage(), signature.Example(), "no temperature given")
	}

	var celsius float64
	if _, err := fmt.Fscan(env.Stdin, &celsius); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, plugin.Usagef("", signature.Usage(), signature.Example(), "no temperature given")
		}
		return 0, plugin.Usagef("", signature.Usage(), signature.Example(), "celsius must be a number")
	}
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) {
		return 0, plugin.Usagef("", signature.Usage(), signature.Example(), "celsius must be a finite number")
	}
	return celsius, nil
}
