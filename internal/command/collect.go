// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"errors"

	"github.com/holomush/hookhost/pkg/plugin"
)

// Collect calls each registration entry point of p exactly once, drains the
// sequence, and registers every descriptor under p's name. All descriptors
// are attempted; the joined registration errors are returned, each carrying
// its own code.
func Collect(reg *Registry, p plugin.Plugin) error {
	source := p.Name()
	var errs []error

	if sp, ok := p.(plugin.SubcommandProvider); ok {
		for sub := range sp.Subcommands() {
			errs = append(errs, reg.Register(Entry{
				Name:    sub.Name,
				Summary: sub.Summary,
				Usage:   sub.Usage,
				Action:  sub.Action,
				Source:  source,
			}))
		}
	}
	if pp, ok := p.(plugin.PostCommandProvider); ok {
		for post := range pp.PostCommands() {
			errs = append(errs, reg.RegisterPost(PostEntry{
				Name:   post.Name,
				RunFor: post.RunFor,
				Action: post.Action,
				Source: source,
			}))
		}
	}

	return errors.Join(errs...)
}
