// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package argspec

import (
	"errors"
	"strings"
)

// UsageError reports tokens that do not match a signature. It carries
// enough to tell the user what a valid invocation looks like.
type UsageError struct {
	// Command is the subcommand name, filled in by whoever knows it.
	Command string
	Reason  string
	Usage   string
	Example string
}

// Error implements error.
func (e *UsageError) Error() string {
	if e.Command != "" {
		return e.Command + ": invalid arguments: " + e.Reason
	}
	return "invalid arguments: " + e.Reason
}

// Message renders the user-facing explanation, e.g.
//
//	x must be a number, got "three"
//	Usage: ascii-graph <x:float> <y:float> <z:float>
//	Example: ascii-graph 2 3 4
func (e *UsageError) Message() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if e.Usage != "" || e.Command != "" {
		b.WriteString("\nUsage: ")
		b.WriteString(strings.TrimSpace(e.Command + " " + e.Usage))
	}
	if e.Example != "" {
		b.WriteString("\nExample: ")
		b.WriteString(strings.TrimSpace(e.Command + " " + e.Example))
	}
	return b.String()
}

// ForCommand returns a copy of err with Command set when err is a
// *UsageError without one; other errors are returned unchanged.
func ForCommand(err error, command string) error {
	var ue *UsageError
	if !errors.As(err, &ue) || ue.Command != "" {
		return err
	}
	cp := *ue
	cp.Command = command
	return &cp
}

// AsUsage extracts a *UsageError from err's chain.
func AsUsage(err error) (*UsageError, bool) {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
