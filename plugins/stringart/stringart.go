// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package stringart provides the string-art subcommand.
package stringart

import (
	"context"
	"io"
	"iter"
	"strings"

	"github.com/common-nighthawk/go-figure"

	"github.com/holomush/hookhost/pkg/argspec"
	"github.com/holomush/hookhost/pkg/plugin"
)

// SubcommandName is the command line name of the subcommand.
const SubcommandName = "string-art"

var signature = argspec.MustCompile("words:string...")

// Renderer turns text into ASCII art.
type Renderer func(text string) string

// Figlet renders text in go-figure's default font. Characters the font
// lacks are rendered as '?'.
func Figlet(text string) string {
	return figure.NewFigure(text, "", false).String()
}

// Plugin is the string-art plugin.
type Plugin struct {
	render Renderer
}

// New returns the plugin. A nil renderer means Figlet.
func New(render Renderer) *Plugin {
	if render == nil {
		render = Figlet
	}
	return &Plugin{render: render}
}

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return "string-art" }

// Subcommands implements plugin.SubcommandProvider.
func (p *Plugin) Subcommands() iter.Seq[plugin.Subcommand] {
	return plugin.Subcommands(plugin.Subcommand{
		Name:    SubcommandName,
		Summary: "tutorial subcommand that prints a string as ASCII art",
		Usage:   signature.String(),
		Action:  p.run,
	})
}

// run joins the tokens without a separator; multi-word text has to be
// quoted at the shell.
func (p *Plugin) run(_ context.Context, env *plugin.Env, args []string) error {
	vals, err := signature.Bind(args)
	if err != nil {
		return err
	}
	out := p.render(strings.Join(vals.Strings("words"), ""))
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(env.Stdout, out)
	return err
}
