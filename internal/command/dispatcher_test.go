// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/hookhost/internal/logging"
	"github.com/holomush/hookhost/pkg/errutil"
	"github.com/holomush/hookhost/pkg/plugin"
)

func testEnv() (*plugin.Env, *bytes.Buffer) {
	var out bytes.Buffer
	return &plugin.Env{
		Stdin:  strings.NewReader(""),
		Stdout: &out,
		Stderr: &bytes.Buffer{},
		Prefix: "/opt/env",
	}, &out
}

func newTestDispatcher(t *testing.T, reg *Registry) (*Dispatcher, *bytes.Buffer) {
	t.Helper()
	env, out := testEnv()
	d, err := NewDispatcher(reg, WithEnv(env))
	require.NoError(t, err)
	return d, out
}

func TestNewDispatcher_NilRegistry(t *testing.T) {
	_, err := NewDispatcher(nil)
	assert.Equal(t, ErrNilRegistry, err)
}

func TestDispatcher_Dispatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry()
	var capturedArgs []string
	var capturedPrefix, invocation string
	require.NoError(t, reg.Register(Entry{
		Name: "echo",
		Action: func(ctx context.Context, env *plugin.Env, args []string) error {
			capturedArgs = args
			capturedPrefix = env.Prefix
			invocation = logging.InvocationID(ctx)
			_, err := env.Stdout.Write([]byte("echoed: " + strings.Join(args, " ")))
			return err
		},
		Source: "test",
	}))

	d, out := newTestDispatcher(t, reg)
	err := d.Dispatch(context.Background(), "echo", []string{"hello", "world"})
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "world"}, capturedArgs)
	assert.Equal(t, "/opt/env", capturedPrefix)
	assert.Len(t, invocation, 26, "invocation id is a ULID")
	assert.Equal(t, "echoed: hello world", out.String())
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t, NewRegistry())

	err := d.Dispatch(context.Background(), "nonexistent", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeUnknownCommand)
	assert.Equal(t, ExitUsage, ExitCode(err))
	assert.Contains(t, UserMessage(err), "unknown subcommand: nonexistent")
	assert.Contains(t, UserMessage(err), "--help")
}

func TestDispatcher_UsageError(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{
		Name: "multiply",
		Action: func(_ context.Context, _ *plugin.Env, _ []string) error {
			return plugin.Usagef("", "<x:int> <y:int>", "6 7", "expected 2 arguments, got 1")
		},
		Source: "multiply",
	}))
	var postRan bool
	require.NoError(t, reg.RegisterPost(PostEntry{
		Name:   "after",
		RunFor: []string{"*"},
		Action: func(_ context.Context, _ *plugin.Env, _ string) error {
			postRan = true
			return nil
		},
	}))

	d, out := newTestDispatcher(t, reg)
	err := d.Dispatch(context.Background(), "multiply", []string{"6"})
	require.Error(t, err)

	ue := errutil.AssertUsageError(t, err, "expected 2 arguments")
	assert.Equal(t, "multiply", ue.Command)
	errutil.AssertErrorCode(t, err, CodeInvalidArgs)
	assert.Equal(t, ExitUsage, ExitCode(err))
	assert.Equal(t,
		"expected 2 arguments, got 1\nUsage: multiply <x:int> <y:int>\nExample: multiply 6 7",
		UserMessage(err))
	assert.Empty(t, out.String())
	assert.False(t, postRan)
}

func TestDispatcher_ActionFailure(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{
		Name: "install",
		Action: func(_ context.Context, _ *plugin.Env, _ []string) error {
			return errors.New("disk full")
		},
		Source: "test",
	}))
	var postRan bool
	require.NoError(t, reg.RegisterPost(PostEntry{
		Name:   "counter",
		RunFor: []string{"install"},
		Action: func(_ context.Context, _ *plugin.Env, _ string) error {
			postRan = true
			return nil
		},
	}))

	d, _ := newTestDispatcher(t, reg)
	err := d.Dispatch(context.Background(), "install", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeActionFailed)
	errutil.AssertErrorContext(t, err, "source", "test")
	assert.Equal(t, ExitError, ExitCode(err))
	assert.Contains(t, UserMessage(err), "disk full")
	assert.False(t, postRan, "post-commands only run after success")
}

func TestDispatcher_PostCommands(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry()
	var order []string
	require.NoError(t, reg.Register(Entry{
		Name: "install",
		Action: func(_ context.Context, _ *plugin.Env, _ []string) error {
			order = append(order, "install")
			return nil
		},
		Source: "test",
	}))
	require.NoError(t, reg.Register(Entry{
		Name:   "hello",
		Action: noopAction,
		Source: "test",
	}))
	for _, name := range []string{"first", "second"} {
		require.NoError(t, reg.RegisterPost(PostEntry{
			Name:   name,
			RunFor: []string{"install", "remove"},
			Action: func(_ context.Context, env *plugin.Env, command string) error {
				order = append(order, name+":"+command+":"+env.Prefix)
				return nil
			},
			Source: "test",
		}))
	}

	d, _ := newTestDispatcher(t, reg)
	require.NoError(t, d.Dispatch(context.Background(), "install", nil))
	assert.Equal(t, []string{"install", "first:install:/opt/env", "second:install:/opt/env"}, order)

	order = nil
	require.NoError(t, d.Dispatch(context.Background(), "hello", nil))
	assert.Empty(t, order, "no post-command matches hello")
}

func TestDispatcher_PostCommandFailureStopsChain(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{Name: "update", Action: noopAction, Source: "test"}))

	var secondRan bool
	require.NoError(t, reg.RegisterPost(PostEntry{
		Name:   "broken",
		RunFor: []string{"update"},
		Action: func(_ context.Context, _ *plugin.Env, _ string) error {
			return errors.New("no conda-meta")
		},
		Source: "counter",
	}))
	require.NoError(t, reg.RegisterPost(PostEntry{
		Name:   "later",
		RunFor: []string{"update"},
		Action: func(_ context.Context, _ *plugin.Env, _ string) error {
			secondRan = true
			return nil
		},
		Source: "counter",
	}))

	d, _ := newTestDispatcher(t, reg)
	err := d.Dispatch(context.Background(), "update", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodePostCommandFailed)
	errutil.AssertErrorContext(t, err, "post_command", "broken")
	assert.Equal(t, ExitError, ExitCode(err))
	assert.False(t, secondRan)
}

func TestDispatcher_Metrics(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{Name: "metrics-success", Action: noopAction, Source: "core"}))
	require.NoError(t, reg.Register(Entry{
		Name: "metrics-failing",
		Action: func(_ context.Context, _ *plugin.Env, _ []string) error {
			return errors.New("boom")
		},
		Source: "lua",
	}))
	require.NoError(t, reg.Register(Entry{
		Name: "metrics-usage",
		Action: func(_ context.Context, _ *plugin.Env, _ []string) error {
			return plugin.Usagef("", "", "", "bad")
		},
		Source: "core",
	}))
	require.NoError(t, reg.RegisterPost(PostEntry{
		Name: "metrics-post", RunFor: []string{"metrics-success"}, Action: noopPost, Source: "core",
	}))

	counter := func(command, source, status string) float64 {
		return testutil.ToFloat64(CommandExecutions.With(prometheus.Labels{
			"command": command, "source": source, "status": status,
		}))
	}
	postCounter := func() float64 {
		return testutil.ToFloat64(PostCommandExecutions.With(prometheus.Labels{
			"post_command": "metrics-post", "command": "metrics-success", "source": "core", "status": StatusPostComplete,
		}))
	}

	successBefore := counter("metrics-success", "core", StatusSuccess)
	errorBefore := counter("metrics-failing", "lua", StatusError)
	usageBefore := counter("metrics-usage", "core", StatusInvalidArgs)
	notFoundBefore := counter("metrics-nonexistent", "", StatusNotFound)
	postBefore := postCounter()

	d, _ := newTestDispatcher(t, reg)
	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, "metrics-success", nil))
	require.Error(t, d.Dispatch(ctx, "metrics-failing", nil))
	require.Error(t, d.Dispatch(ctx, "metrics-usage", nil))
	require.Error(t, d.Dispatch(ctx, "metrics-nonexistent", nil))

	assert.InDelta(t, successBefore+1, counter("metrics-success", "core", StatusSuccess), 0)
	assert.InDelta(t, errorBefore+1, counter("metrics-failing", "lua", StatusError), 0)
	assert.InDelta(t, usageBefore+1, counter("metrics-usage", "core", StatusInvalidArgs), 0)
	assert.InDelta(t, notFoundBefore+1, counter("metrics-nonexistent", "", StatusNotFound), 0)
	assert.InDelta(t, postBefore+1, postCounter(), 0)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	RecordCommandExecution("textfile-check", "core", StatusSuccess)

	path := filepath.Join(t.TempDir(), "hookhost.prom")
	require.NoError(t, WriteTextfile(path, reg))

	count, err := testutil.GatherAndCount(reg, "hookhost_command_executions_total")
	require.NoError(t, err)
	assert.Positive(t, count)
	assert.FileExists(t, path)
}

func TestUserMessage_Plain(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitError, ExitCode(errors.New("plain")))
}
