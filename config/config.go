// Package config loads flowsync.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"flowsync/history"
	"flowsync/logging"
)

// FileName is the configuration file searched for by Find.
const FileName = "flowsync.toml"

// Config is the full configuration.
type Config struct {
	History HistoryConfig `toml:"history"`
	Stream  StreamConfig  `toml:"stream"`
	Chat    ChatConfig    `toml:"chat"`
	Log     LogConfig     `toml:"log"`

	// Path of the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

type HistoryConfig struct {
	Debounce   string `toml:"debounce"`
	MaxEntries int    `toml:"max_entries"`
	File       string `toml:"file"`
}

type StreamConfig struct {
	StripFences bool `toml:"strip_fences"`
}

type ChatConfig struct {
	MaxChars int `toml:"max_chars"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{
			Debounce:   history.DefaultDebounce.String(),
			MaxEntries: history.DefaultMaxEntries,
		},
		Stream: StreamConfig{StripFences: true},
		Chat:   ChatConfig{MaxChars: 100000},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	cfg.Path = path
	if cfg.History.File != "" && !filepath.IsAbs(cfg.History.File) {
		cfg.History.File = filepath.Join(filepath.Dir(path), cfg.History.File)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks from startDir to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Resolve loads an explicit path, or the nearest flowsync.toml, or the
// defaults when neither exists.
func Resolve(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	d, err := c.DebounceDuration()
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("history.debounce must be positive, got %s", d)
	}
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history.max_entries must be at least 1, got %d", c.History.MaxEntries)
	}
	if c.Chat.MaxChars < 1 {
		return fmt.Errorf("chat.max_chars must be at least 1, got %d", c.Chat.MaxChars)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// DebounceDuration parses history.debounce.
func (c Config) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.History.Debounce)
	if err != nil {
		return 0, fmt.Errorf("history.debounce: %w", err)
	}
	return d, nil
}
