// Package config loads user settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/thiagokokada/gitk-graph/internal/git"
	"github.com/thiagokokada/gitk-graph/internal/git/backend"
	"github.com/thiagokokada/gitk-graph/internal/render"
)

const relPath = "gitk-graph/config.toml"

// Config mirrors the command-line flags. Flags given explicitly win over the
// file.
type Config struct {
	// BatchSize is the number of rows laid out per layout batch.
	BatchSize int `toml:"batch_size"`
	// Workers bounds the layout fan-out; 0 uses every CPU.
	Workers int `toml:"workers"`
	// Limit is the number of commits loaded from the repository at a time.
	Limit    int    `toml:"limit"`
	Backend  string `toml:"backend"`
	Theme    string `toml:"theme"`
	Watch    bool   `toml:"watch"`
	Syntax   bool   `toml:"syntax"`
	Branches bool   `toml:"branches"`
	Remotes  bool   `toml:"remotes"`
}

func Default() Config {
	return Config{
		BatchSize: 500,
		Limit:     git.DefaultBatch,
		Backend:   backend.KindNative.String(),
		Theme:     render.ThemeAuto.String(),
		Watch:     true,
		Syntax:    true,
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, relPath)
}

// Load reads the file at path over the defaults. With an empty path the XDG
// config directories are searched and a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		found, err := xdg.SearchConfigFile(relPath)
		if err != nil {
			return cfg, nil
		}
		path = found
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Limit < 1 {
		errs = append(errs, fmt.Errorf("limit must be positive, got %d", c.Limit))
	}
	if _, err := backend.ParseKind(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if _, err := render.ParseTheme(c.Theme); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
