// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"errors"
	"fmt"

	"github.com/samber/oops"

	"github.com/holomush/hookhost/pkg/argspec"
)

// Error codes for registration and dispatch failures.
const (
	CodeUnknownCommand     = "UNKNOWN_COMMAND"
	CodeInvalidArgs        = "INVALID_ARGS"
	CodeSubcommandConflict = "SUBCOMMAND_CONFLICT"
	CodeReservedName       = "RESERVED_NAME"
	CodeInvalidName        = "INVALID_NAME"
	CodeActionFailed       = "ACTION_FAILED"
	CodePostCommandFailed  = "POST_COMMAND_FAILED"
)

// Exit codes returned by ExitCode.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ErrNilRegistry is returned when a dispatcher is built without a registry.
var ErrNilRegistry = errors.New("command: registry is nil")

// ErrUnknownCommand creates an error for an unknown subcommand.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Hint("run with --help to list subcommands").
		Errorf("unknown subcommand: %s", cmd)
}

// ErrInvalidArgs wraps a usage error reported by cmd's action.
func ErrInvalidArgs(cmd string, err error) error {
	ue, _ := argspec.AsUsage(err)
	b := oops.Code(CodeInvalidArgs).With("command", cmd)
	if ue != nil {
		b = b.With("usage", ue.Usage)
	}
	return b.Wrap(argspec.ForCommand(err, cmd))
}

// ErrSubcommandConflict reports a name registered by two plugins.
func ErrSubcommandConflict(name, existing, incoming string) error {
	return oops.Code(CodeSubcommandConflict).
		With("command", name).
		With("existing_source", existing).
		With("new_source", incoming).
		Errorf("subcommand %q registered by both %s and %s", name, existing, incoming)
}

// ErrReservedName reports a plugin trying to claim a host subcommand.
func ErrReservedName(name, source string) error {
	return oops.Code(CodeReservedName).
		With("command", name).
		With("source", source).
		Errorf("subcommand name %q is reserved by the host", name)
}

// ErrActionFailed wraps a failing action.
func ErrActionFailed(cmd, source string, cause error) error {
	return oops.Code(CodeActionFailed).
		With("command", cmd).
		With("source", source).
		Wrapf(cause, "%s failed", cmd)
}

// ErrPostCommandFailed wraps a failing post-command.
func ErrPostCommandFailed(post, cmd, source string, cause error) error {
	return oops.Code(CodePostCommandFailed).
		With("post_command", post).
		With("command", cmd).
		With("source", source).
		Wrapf(cause, "post-command %s failed after %s", post, cmd)
}

// UserMessage renders err for the console.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ue, ok := argspec.AsUsage(err); ok {
		return ue.Message()
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if hint := oopsErr.Hint(); hint != "" {
			return fmt.Sprintf("%s (%s)", err.Error(), hint)
		}
	}
	return err.Error()
}

// ExitCode maps err to a process exit status: ExitUsage for bad input or an
// unknown subcommand, ExitError for everything else.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if _, ok := argspec.AsUsage(err); ok {
		return ExitUsage
	}
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == CodeUnknownCommand {
		return ExitUsage
	}
	return ExitError
}
