// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plugin is the SDK for hookhost plugins.
//
// A plugin exposes registration entry points that yield descriptors. The
// host calls each entry point once at discovery time, collects every
// descriptor, and later runs at most one action per process:
//
//	type Hello struct{}
//
//	func (Hello) Name() string { return "hello" }
//
//	func (Hello) Subcommands() iter.Seq[plugin.Subcommand] {
//		return plugin.Subcommands(plugin.Subcommand{
//			Name:    "hello",
//			Summary: `Command that prints "Hello conda!"`,
//			Action: func(_ context.Context, env *plugin.Env, _ []string) error {
//				_, err := fmt.Fprintln(env.Stdout, "Hello conda!")
//				return err
//			},
//		})
//	}
//
// Entry points must not do any work themselves; everything happens inside
// Action, and only if the host dispatches to that subcommand.
package plugin

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"
	"slices"

	"github.com/holomush/hookhost/pkg/argspec"
)

// Action runs a subcommand. args holds every token after the subcommand name.
type Action func(ctx context.Context, env *Env, args []string) error

// PostAction runs after the host command named by command completed.
type PostAction func(ctx context.Context, env *Env, command string) error

// Subcommand binds a unique name to an action.
type Subcommand struct {
	Name    string
	Summary string
	// Usage is an optional argspec signature. It is shown in help and lets
	// runtime adapters reject bad tokens before crossing into the plugin.
	Usage  string
	Action Action
}

// PostCommand runs an action after any command matching RunFor.
// RunFor entries are command names or glob patterns.
type PostCommand struct {
	Name   string
	RunFor []string
	Action PostAction
}

// Env is the console and environment an action runs against.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Prefix is the target environment prefix, empty if none is active.
	Prefix string
}

// DefaultEnv returns an Env bound to the process streams.
func DefaultEnv(prefix string) *Env {
	return &Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Prefix: prefix,
	}
}

// Plugin is implemented by every plugin. A plugin should also implement
// SubcommandProvider, PostCommandProvider, or both.
type Plugin interface {
	Name() string
}

// SubcommandProvider is the subcommand registration entry point.
type SubcommandProvider interface {
	Subcommands() iter.Seq[Subcommand]
}

// PostCommandProvider is the post-command registration entry point.
type PostCommandProvider interface {
	PostCommands() iter.Seq[PostCommand]
}

// Subcommands returns a lazy sequence over subs.
func Subcommands(subs ...Subcommand) iter.Seq[Subcommand] {
	return slices.Values(subs)
}

// PostCommands returns a lazy sequence over posts.
func PostCommands(posts ...PostCommand) iter.Seq[PostCommand] {
	return slices.Values(posts)
}

// UsageError is returned by actions for input with the wrong shape.
type UsageError = argspec.UsageError

// Usagef builds a UsageError for command.
func Usagef(command, usage, example, format string, args ...any) *UsageError {
	return &UsageError{
		Command: command,
		Reason:  fmt.Sprintf(format, args...),
		Usage:   usage,
		Example: example,
	}
}

// maxNameLength is the maximum allowed length for descriptor names.
const maxNameLength = 64

// namePattern: lowercase letter first, then lowercase letters, digits,
// hyphens or underscores, not ending with a separator.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9_-]*[a-z0-9])?$`)

// ValidateName checks a plugin, subcommand or post-command name.
func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("name must be %d characters or less, got %d", maxNameLength, len(name))
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name %q must start with a-z, contain only a-z, 0-9, '-' or '_', and not end with a separator", name)
	}
	return nil
}
