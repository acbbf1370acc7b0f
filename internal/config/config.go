// Package config loads fuzzdesc.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"fuzzdesc/internal/message"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "fuzzdesc.toml"

type Config struct {
	Log   LogConfig   `toml:"log"`
	Write WriteConfig `toml:"write"`
	State StateConfig `toml:"state"`
	Check CheckConfig `toml:"check"`

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type WriteConfig struct {
	Delimiter       string `toml:"delimiter"`
	DefaultComments bool   `toml:"default_comments"`
	Template        string `toml:"template"`
}

type StateConfig struct {
	File string `toml:"file"`
}

type CheckConfig struct {
	Jobs int `toml:"jobs"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Log:   LogConfig{Level: "info"},
		Write: WriteConfig{Delimiter: `\n`},
		State: StateConfig{File: ".fuzzdesc_state"},
		Dir:   ".",
	}
}

// Load reads path over the defaults. When explicit is false a missing file
// is not an error.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to stat config %q: %w", path, err)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Dir = filepath.Dir(path)
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Check.Jobs < 0 {
		return fmt.Errorf("[check].jobs must not be negative, got %d", c.Check.Jobs)
	}
	if _, err := message.Unescape(c.Write.Delimiter); err != nil {
		return fmt.Errorf("[write].delimiter: %w", err)
	}
	if strings.TrimSpace(c.State.File) == "" {
		return fmt.Errorf("missing [state].file")
	}
	return nil
}

// Path resolves p against the configuration directory. Empty and absolute
// paths are returned unchanged.
func (c Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
