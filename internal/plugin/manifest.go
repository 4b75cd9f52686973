// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plugin discovers plugin manifests and loads plugins through
// their runtime hosts.
package plugin

import (
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// ManifestFile is the manifest file name inside each plugin directory.
const ManifestFile = "plugin.yaml"

// CodeInvalidManifest marks manifest parse and validation failures.
const CodeInvalidManifest = "INVALID_MANIFEST"

// Type identifies the plugin runtime.
type Type string

// Plugin types supported by the system.
const (
	TypeLua    Type = "lua"
	TypeBinary Type = "binary"
)

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name         string        `yaml:"name" jsonschema:"pattern=^[a-z]([a-z0-9_-]*[a-z0-9])?$,maxLength=64"`
	Version      string        `yaml:"version" jsonschema:"minLength=1"`
	Type         Type          `yaml:"type" jsonschema:"enum=lua,enum=binary"`
	Description  string        `yaml:"description,omitempty"`
	HostVersion  string        `yaml:"host-version,omitempty"`
	LuaPlugin    *LuaConfig    `yaml:"lua-plugin,omitempty"`
	BinaryPlugin *BinaryConfig `yaml:"binary-plugin,omitempty"`
}

// LuaConfig holds Lua-specific configuration.
type LuaConfig struct {
	Entry string `yaml:"entry"`
}

// BinaryConfig holds binary plugin configuration.
type BinaryConfig struct {
	Executable string `yaml:"executable"`
}

func manifestError() oops.OopsErrorBuilder {
	return oops.In("plugin").Code(CodeInvalidManifest)
}

// ParseManifest validates data against the manifest schema, decodes it and
// checks the remaining constraints.
func ParseManifest(data []byte) (*Manifest, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, manifestError().Wrap(err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, manifestError().Wrapf(err, "invalid YAML")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if err := pluginpkg.ValidateName(m.Name); err != nil {
		return manifestError().With("field", "name").Wrap(err)
	}

	if m.Version == "" {
		return manifestError().With("field", "version").Errorf("version is required")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return manifestError().With("field", "version").Wrapf(err, "version %q is not semver", m.Version)
	}

	if m.HostVersion != "" {
		if _, err := semver.NewConstraint(m.HostVersion); err != nil {
			return manifestError().With("field", "host-version").
				Wrapf(err, "host-version %q is not a valid constraint", m.HostVersion)
		}
	}

	switch m.Type {
	case TypeLua:
		if m.LuaPlugin == nil {
			return manifestError().Errorf("lua-plugin is required when type is lua")
		}
		if m.LuaPlugin.Entry == "" {
			return manifestError().Errorf("lua-plugin.entry is required")
		}
		if !filepath.IsLocal(m.LuaPlugin.Entry) {
			return manifestError().Errorf("lua-plugin.entry %q must stay inside the plugin directory", m.LuaPlugin.Entry)
		}
	case TypeBinary:
		if m.BinaryPlugin == nil {
			return manifestError().Errorf("binary-plugin is required when type is binary")
		}
		if m.BinaryPlugin.Executable == "" {
			return manifestError().Errorf("binary-plugin.executable is required")
		}
		if !filepath.IsLocal(m.BinaryPlugin.Executable) {
			return manifestError().Errorf("binary-plugin.executable %q must stay inside the plugin directory", m.BinaryPlugin.Executable)
		}
	default:
		return manifestError().Errorf("type must be 'lua' or 'binary', got %q", m.Type)
	}

	return nil
}

// SupportsHost reports whether the manifest's host-version constraint
// accepts hostVersion. Manifests without a constraint, and hosts whose
// version is not semver (development builds), are always accepted.
func (m *Manifest) SupportsHost(hostVersion string) bool {
	if m.HostVersion == "" {
		return true
	}
	v, err := semver.NewVersion(hostVersion)
	if err != nil {
		return true
	}
	c, err := semver.NewConstraint(m.HostVersion)
	if err != nil {
		return false
	}
	return c.Check(v)
}
