// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package packagecounter provides a post-command that reports how many
// packages are installed in the target environment after it changes.
package packagecounter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/hookhost/pkg/plugin"
)

// PostCommandName is the registered post-command name.
const PostCommandName = "package_counter_post_command"

// MetadataDir holds one JSON record per installed package.
const MetadataDir = "conda-meta"

// RunFor lists the commands that change an environment's packages.
var RunFor = []string{"install", "remove", "update"}

// Plugin is the package-counter plugin.
type Plugin struct{}

// New returns the plugin.
func New() *Plugin { return &Plugin{} }

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return "package-counter" }

// PostCommands implements plugin.PostCommandProvider.
func (p *Plugin) PostCommands() iter.Seq[plugin.PostCommand] {
	return plugin.PostCommands(plugin.PostCommand{
		Name:   PostCommandName,
		RunFor: append([]string(nil), RunFor...),
		Action: p.run,
	})
}

func (p *Plugin) run(_ context.Context, env *plugin.Env, _ string) error {
	n, err := Count(env.Prefix)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.Stdout, "There are %d packages in this environment.\n", n)
	return err
}

// Count returns the number of packages installed under prefix: one per
// conda-meta record, plus every Python distribution in site-packages that
// no record owns (pip installs). An environment without a metadata
// directory has no packages.
func Count(prefix string) (int, error) {
	if prefix == "" {
		return 0, oops.In("package-counter").
			Hint("activate an environment or pass --prefix").
			New("no target environment")
	}

	metaDir := filepath.Join(prefix, MetadataDir)
	entries, err := os.ReadDir(metaDir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.In("package-counter").With("prefix", prefix).Wrap(err)
	}

	owned := make(map[string]bool)
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		n++
		files, err := recordFiles(filepath.Join(metaDir, e.Name()))
		if err != nil {
			return 0, oops.In("package-counter").
				With("prefix", prefix).
				With("record", e.Name()).
				Wrap(err)
		}
		for _, f := range files {
			if dist, ok := distributionDir(f); ok {
				owned[dist] = true
			}
		}
	}

	pip, err := countPipOnly(prefix, owned)
	if err != nil {
		return 0, oops.In("package-counter").With("prefix", prefix).Wrap(err)
	}
	return n + pip, nil
}

// condaRecord is the part of a conda-meta record that lists the files the
// package installed.
type condaRecord struct {
	Files []string `json:"files"`
}

func recordFiles(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec condaRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec.Files, nil
}

// sitePackagesPatterns locate site-packages on POSIX and Windows prefixes.
var sitePackagesPatterns = []string{
	filepath.Join("lib", "python*", "site-packages"),
	filepath.Join("Lib", "site-packages"),
}

func isDistribution(name string) bool {
	return strings.HasSuffix(name, ".dist-info") || strings.HasSuffix(name, ".egg-info")
}

// distributionDir returns the prefix-relative distribution metadata
// directory a record file belongs to, in slash form.
func distributionDir(file string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(file), "/")
	for i, part := range parts {
		if i > 0 && parts[i-1] == "site-packages" && isDistribution(part) {
			return strings.Join(parts[:i+1], "/"), true
		}
	}
	return "", false
}

func countPipOnly(prefix string, owned map[string]bool) (int, error) {
	n := 0
	for _, pattern := range sitePackagesPatterns {
		dirs, err := filepath.Glob(filepath.Join(prefix, pattern))
		if err != nil {
			return 0, err
		}
		for _, dir := range dirs {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return 0, err
			}
			for _, e := range entries {
				if !isDistribution(e.Name()) {
					continue
				}
				rel, err := filepath.Rel(prefix, filepath.Join(dir, e.Name()))
				if err != nil {
					return 0, err
				}
				if !owned[filepath.ToSlash(rel)] {
					n++
				}
			}
		}
	}
	return n, nil
}
