// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/hookhost/internal/logging"
	"github.com/holomush/hookhost/pkg/argspec"
	"github.com/holomush/hookhost/pkg/plugin"
)

var tracer = otel.Tracer("hookhost/command")

// Dispatcher runs one subcommand and the post-commands that follow it.
type Dispatcher struct {
	registry *Registry
	env      *plugin.Env
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithEnv sets the console and prefix actions run against.
// If not provided, the process streams are used with an empty prefix.
func WithEnv(env *plugin.Env) DispatcherOption {
	return func(d *Dispatcher) {
		d.env = env
	}
}

// WithLogger sets the dispatcher's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new dispatcher over registry.
// Returns an error if registry is nil.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		opt(d)
	}
	if d.env == nil {
		d.env = plugin.DefaultEnv("")
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d, nil
}

// Dispatch runs the subcommand name with args. When it succeeds, every
// post-command whose run-for matches name runs in registration order and
// the first post-command failure is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []string) (err error) {
	invocationID := ulid.Make().String()
	ctx = logging.WithInvocation(ctx, invocationID)

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", name),
			attribute.String("command.invocation_id", invocationID),
			attribute.Int("command.arg_count", len(args)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	metrics := NewMetricsRecorder()
	metrics.SetCommandName(name)
	defer metrics.Record()

	entry, ok := d.registry.Get(name)
	if !ok {
		metrics.SetStatus(StatusNotFound)
		err = ErrUnknownCommand(name)
		return err
	}
	metrics.SetCommandSource(entry.Source)
	span.SetAttributes(attribute.String("command.source", entry.Source))

	d.logger.DebugContext(ctx, "dispatching subcommand",
		"command", name,
		"source", entry.Source,
		"args", args)

	if actionErr := entry.Action(ctx, d.env, args); actionErr != nil {
		if _, isUsage := argspec.AsUsage(actionErr); isUsage {
			metrics.SetStatus(StatusInvalidArgs)
			err = ErrInvalidArgs(name, actionErr)
			return err
		}
		metrics.SetStatus(StatusError)
		d.logger.WarnContext(ctx, "subcommand failed",
			"command", name,
			"source", entry.Source,
			"error", actionErr)
		err = ErrActionFailed(name, entry.Source, actionErr)
		return err
	}

	err = d.runPostCommands(ctx, name)
	return err
}

func (d *Dispatcher) runPostCommands(ctx context.Context, command string) error {
	for _, post := range d.registry.PostCommandsFor(command) {
		postCtx, span := tracer.Start(ctx, "command.post",
			trace.WithAttributes(
				attribute.String("post_command.name", post.Name),
				attribute.String("post_command.source", post.Source),
			),
		)
		d.logger.DebugContext(ctx, "running post-command",
			"post_command", post.Name,
			"command", command,
			"source", post.Source)

		if err := post.Action(postCtx, d.env, command); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			RecordPostCommandExecution(post.Name, command, post.Source, StatusPostFailed)
			d.logger.WarnContext(ctx, "post-command failed",
				"post_command", post.Name,
				"command", command,
				"source", post.Source,
				"error", err)
			return ErrPostCommandFailed(post.Name, command, post.Source, err)
		}
		span.End()
		RecordPostCommandExecution(post.Name, command, post.Source, StatusPostComplete)
	}
	return nil
}
