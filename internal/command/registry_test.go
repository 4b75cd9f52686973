// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/hookhost/pkg/errutil"
	"github.com/holomush/hookhost/pkg/plugin"
)

func noopAction(_ context.Context, _ *plugin.Env, _ []string) error { return nil }

func noopPost(_ context.Context, _ *plugin.Env, _ string) error { return nil }

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(Entry{Name: "ascii-graph", Summary: "graph", Action: noopAction, Source: "asciigraph"})
	require.NoError(t, err)

	entry, ok := reg.Get("ascii-graph")
	require.True(t, ok)
	assert.Equal(t, "asciigraph", entry.Source)
	assert.Equal(t, "graph", entry.Summary)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RegisterConflict(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{Name: "hello", Action: noopAction, Source: "first"}))

	err := reg.Register(Entry{Name: "hello", Action: noopAction, Source: "second"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeSubcommandConflict)
	errutil.AssertErrorContext(t, err, "existing_source", "first")
	errutil.AssertErrorContext(t, err, "new_source", "second")
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")

	entry, _ := reg.Get("hello")
	assert.Equal(t, "first", entry.Source, "original registration is kept")
}

func TestRegistry_RegisterReserved(t *testing.T) {
	for _, name := range ReservedNames {
		t.Run(name, func(t *testing.T) {
			reg := NewRegistry()
			err := reg.Register(Entry{Name: name, Action: noopAction, Source: "rogue"})
			errutil.AssertErrorCode(t, err, CodeReservedName)
		})
	}

	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{Name: "plugins", Action: noopAction, Source: SourceBuiltin}))
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
	}{
		{"empty name", Entry{Name: "", Action: noopAction}},
		{"uppercase", Entry{Name: "Hello", Action: noopAction}},
		{"space", Entry{Name: "hello world", Action: noopAction}},
		{"trailing hyphen", Entry{Name: "hello-", Action: noopAction}},
		{"nil action", Entry{Name: "hello"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.entry)
			errutil.AssertErrorCode(t, err, CodeInvalidName)
		})
	}
}

func TestRegistry_AllSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"string-art", "ascii-graph", "multiply"} {
		require.NoError(t, reg.Register(Entry{Name: name, Action: noopAction, Source: "test"}))
	}

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "ascii-graph", all[0].Name)
	assert.Equal(t, "multiply", all[1].Name)
	assert.Equal(t, "string-art", all[2].Name)

	all[0].Name = "mutated"
	_, ok := reg.Get("mutated")
	assert.False(t, ok)
}

func TestRegistry_RegisterPost(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterPost(PostEntry{
		Name:   "package-counter",
		RunFor: []string{"install", "remove", "update"},
		Action: noopPost,
		Source: "packagecounter",
	}))
	require.NoError(t, reg.RegisterPost(PostEntry{
		Name:   "audit",
		RunFor: []string{"inst*"},
		Action: noopPost,
		Source: "audit",
	}))

	names := func(posts []PostEntry) []string {
		out := make([]string, 0, len(posts))
		for _, p := range posts {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"package-counter", "audit"}, names(reg.PostCommandsFor("install")))
	assert.Equal(t, []string{"package-counter"}, names(reg.PostCommandsFor("remove")))
	assert.Empty(t, reg.PostCommandsFor("ascii-graph"))
	assert.Len(t, reg.Posts(), 2)
}

func TestRegistry_RegisterPostInvalid(t *testing.T) {
	tests := []struct {
		name  string
		entry PostEntry
		code  string
	}{
		{"empty run-for", PostEntry{Name: "p", Action: noopPost}, CodeInvalidName},
		{"bad pattern", PostEntry{Name: "p", RunFor: []string{"[install"}, Action: noopPost}, CodeInvalidName},
		{"bad name", PostEntry{Name: "P!", RunFor: []string{"install"}, Action: noopPost}, CodeInvalidName},
		{"nil action", PostEntry{Name: "p", RunFor: []string{"install"}}, CodeInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().RegisterPost(tt.entry)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestRegistry_RegisterPostDuplicate(t *testing.T) {
	reg := NewRegistry()
	post := PostEntry{Name: "counter", RunFor: []string{"install"}, Action: noopPost, Source: "a"}
	require.NoError(t, reg.RegisterPost(post))

	post.Source = "b"
	err := reg.RegisterPost(post)
	errutil.AssertErrorCode(t, err, CodeSubcommandConflict)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{Name: "hello", Action: noopAction, Source: "test"}))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := reg.Get("hello")
			assert.True(t, ok)
			assert.Len(t, reg.All(), 1)
		}()
	}
	wg.Wait()
}
