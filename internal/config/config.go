// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads hookhost configuration.
//
// Sources, lowest precedence first: built-in defaults, a YAML file, HOOKHOST_*
// environment variables ("__" separates nested keys, so HOOKHOST_LOG__LEVEL
// sets log.level), and command-line flags.
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/hookhost/internal/logging"
	"github.com/holomush/hookhost/internal/xdg"
)

// EnvPrefix is the prefix for configuration environment variables.
const EnvPrefix = "HOOKHOST_"

// Config is the resolved host configuration.
type Config struct {
	// ConfigFile is the file that was loaded, empty if none.
	ConfigFile string `koanf:"-"`

	PluginsDir   string        `koanf:"plugins_dir"`
	TargetPrefix string        `koanf:"target_prefix"`
	Disabled     []string      `koanf:"disabled"`
	Log          LogConfig     `koanf:"log"`
	Metrics      MetricsConfig `koanf:"metrics"`
	Binary       BinaryConfig  `koanf:"binary"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives Prometheus metrics after each dispatch.
	Textfile string `koanf:"textfile"`
}

// BinaryConfig controls binary plugin startup.
type BinaryConfig struct {
	StartRetries  uint64        `koanf:"start_retries"`
	RetryInterval time.Duration `koanf:"retry_interval"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"plugins-dir":      "plugins_dir",
	"prefix":           "target_prefix",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"metrics-textfile": "metrics.textfile",
}

// BindFlags registers the global configuration flags.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file path")
	flags.String("plugins-dir", "", "directory scanned for plugin manifests")
	flags.String("prefix", "", "target environment prefix (defaults to $CONDA_PREFIX)")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this file after each command")
}

func defaults() (map[string]any, error) {
	pluginsDir, err := xdg.PluginsDir()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"plugins_dir":           pluginsDir,
		"target_prefix":         os.Getenv("CONDA_PREFIX"),
		"disabled":              []string{},
		"log.format":            "text",
		"log.level":             "warn",
		"metrics.textfile":      "",
		"binary.start_retries":  2,
		"binary.retry_interval": "100ms",
	}, nil
}

// Load resolves configuration from defaults, file, environment and flags.
// flags may be nil; when set it should have been populated by BindFlags and parsed.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defs, err := defaults()
	if err != nil {
		return nil, oops.In("config").Wrapf(err, "resolving defaults")
	}
	for key, val := range defs {
		if err := k.Set(key, val); err != nil {
			return nil, oops.In("config").With("key", key).Wrapf(err, "setting default")
		}
	}

	path, explicit, err := configPath(flags)
	if err != nil {
		return nil, err
	}
	if path != "" && !explicit {
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			path = ""
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.In("config").With("path", path).Wrapf(err, "loading config file")
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, oops.In("config").Wrapf(err, "loading environment")
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.In("config").Wrapf(err, "loading flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.In("config").Wrapf(err, "decoding config")
	}
	cfg.ConfigFile = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configPath returns the config file to load and whether the user asked
// for it explicitly.
func configPath(flags *pflag.FlagSet) (string, bool, error) {
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			return f.Value.String(), true, nil
		}
	}
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p, true, nil
	}
	p, err := xdg.ConfigFile()
	if err != nil {
		// No home directory means no default file; not an error.
		return "", false, nil //nolint:nilerr // default config file is optional
	}
	return p, false, nil
}

// envValue maps HOOKHOST_LOG__LEVEL to log.level and splits list values
// on commas.
func envValue(name, value string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if key == "config" {
		return "", nil
	}
	key = strings.ReplaceAll(key, "__", ".")
	if key == "disabled" {
		var names []string
		for _, n := range strings.Split(value, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		return key, names
	}
	return key, value
}

// Validate checks value constraints.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"text", "json"}, c.Log.Format) {
		return oops.In("config").With("log.format", c.Log.Format).
			Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.In("config").With("log.level", c.Log.Level).Wrap(err)
	}
	if c.PluginsDir == "" {
		return oops.In("config").Errorf("plugins_dir must not be empty")
	}
	if c.Binary.RetryInterval < 0 {
		return oops.In("config").Errorf("binary.retry_interval must not be negative")
	}
	return nil
}

// IsDisabled reports whether the named plugin is disabled.
func (c *Config) IsDisabled(name string) bool {
	return slices.Contains(c.Disabled, name)
}
