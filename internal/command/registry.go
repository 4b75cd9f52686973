// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"cmp"
	"slices"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Registry manages subcommand and post-command registration and lookup.
// It is thread-safe for concurrent access.
type Registry struct {
	commands map[string]Entry
	posts    []*PostEntry
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Entry),
	}
}

// Register adds a subcommand. Names must be valid, not reserved by the host
// and not already registered.
func (r *Registry) Register(entry Entry) error {
	if err := ValidateName(entry.Name, "subcommand"); err != nil {
		return oops.With("source", entry.Source).Wrap(err)
	}
	if IsReserved(entry.Name) && entry.Source != SourceBuiltin {
		return ErrReservedName(entry.Name, entry.Source)
	}
	if entry.Action == nil {
		return oops.Code(CodeInvalidName).
			With("command", entry.Name).
			With("source", entry.Source).
			Errorf("subcommand %q has no action", entry.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.commands[entry.Name]; ok {
		return ErrSubcommandConflict(entry.Name, existing.Source, entry.Source)
	}
	r.commands[entry.Name] = entry
	return nil
}

// RegisterPost adds a post-command. Every RunFor pattern must compile.
func (r *Registry) RegisterPost(entry PostEntry) error {
	if err := ValidateName(entry.Name, "post-command"); err != nil {
		return oops.With("source", entry.Source).Wrap(err)
	}
	if len(entry.RunFor) == 0 {
		return oops.Code(CodeInvalidName).
			With("post_command", entry.Name).
			With("source", entry.Source).
			Errorf("post-command %q has an empty run-for set", entry.Name)
	}
	if entry.Action == nil {
		return oops.Code(CodeInvalidName).
			With("post_command", entry.Name).
			With("source", entry.Source).
			Errorf("post-command %q has no action", entry.Name)
	}

	matchers := make([]glob.Glob, 0, len(entry.RunFor))
	for _, pattern := range entry.RunFor {
		g, err := glob.Compile(pattern)
		if err != nil {
			return oops.Code(CodeInvalidName).
				With("post_command", entry.Name).
				With("pattern", pattern).
				Wrapf(err, "invalid run-for pattern")
		}
		matchers = append(matchers, g)
	}
	entry.RunFor = slices.Clone(entry.RunFor)
	entry.matchers = matchers

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.posts {
		if existing.Name == entry.Name {
			return oops.Code(CodeSubcommandConflict).
				With("post_command", entry.Name).
				With("existing_source", existing.Source).
				With("new_source", entry.Source).
				Errorf("post-command %q registered by both %s and %s", entry.Name, existing.Source, entry.Source)
		}
	}
	r.posts = append(r.posts, &entry)
	return nil
}

// Get retrieves a subcommand by name.
// Returns the entry and true if found, or zero value and false if not found.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.commands[name]
	return entry, ok
}

// All returns all registered subcommands sorted by name.
// The returned slice is a copy and safe to modify.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.commands))
	for _, e := range r.commands {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return cmp.Compare(a.Name, b.Name) })
	return entries
}

// Posts returns all post-commands in registration order.
func (r *Registry) Posts() []PostEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PostEntry, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, *p)
	}
	return out
}

// PostCommandsFor returns the post-commands that run after command, in
// registration order.
func (r *Registry) PostCommandsFor(command string) []PostEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []PostEntry
	for _, p := range r.posts {
		if p.Matches(command) {
			out = append(out, *p)
		}
	}
	return out
}
