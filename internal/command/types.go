// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package command provides the subcommand registry and dispatch system.
package command

import (
	"github.com/gobwas/glob"

	"github.com/holomush/hookhost/pkg/plugin"
)

// SourceBuiltin is the source of subcommands implemented by the host itself.
const SourceBuiltin = "builtin"

// Entry is a registered subcommand.
type Entry struct {
	Name    string        // canonical name (e.g., "ascii-graph")
	Summary string        // short description (one line)
	Usage   string        // argspec signature, may be empty
	Action  plugin.Action // plugin callable
	Source  string        // plugin that registered it
}

// PostEntry is a registered post-command.
type PostEntry struct {
	Name   string
	RunFor []string // command names or glob patterns
	Action plugin.PostAction
	Source string

	matchers []glob.Glob
}

// Matches reports whether the post-command should run after command.
func (p *PostEntry) Matches(command string) bool {
	for _, m := range p.matchers {
		if m.Match(command) {
			return true
		}
	}
	return false
}
