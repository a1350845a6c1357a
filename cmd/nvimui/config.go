package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration. Fields map to keys of the
// TOML config file; command line flags override them.
type Config struct {
	// Nvim is the editor executable.
	Nvim string `toml:"nvim"`
	// Args are extra arguments passed after --embed.
	Args []string `toml:"args,omitempty"`

	Debug   bool   `toml:"debug"`
	LogFile string `toml:"log_file,omitempty"`

	// Cols and Rows fix the grid size; zero follows the terminal.
	Cols int `toml:"cols,omitempty"`
	Rows int `toml:"rows,omitempty"`

	Input InputConfig `toml:"input"`

	// Screenshot renders the first settled frame to this PNG and exits.
	Screenshot string        `toml:"-"`
	Settle     time.Duration `toml:"settle"`
	Timeout    time.Duration `toml:"timeout"`
}

// InputConfig tunes the input translator.
type InputConfig struct {
	DragInterval   time.Duration `toml:"drag_interval"`
	ResizeDelay    time.Duration `toml:"resize_delay"`
	PasteChunkSize int           `toml:"paste_chunk_size"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Nvim:    "nvim",
		Settle:  300 * time.Millisecond,
		Timeout: 10 * time.Second,
		Input: InputConfig{
			DragInterval:   16 * time.Millisecond,
			ResizeDelay:    200 * time.Millisecond,
			PasteChunkSize: -1,
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/nvimui/config.toml (or the
// platform equivalent).
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nvimui", "config.toml")
}

// LoadConfig reads a TOML file over the defaults. A missing file is not an
// error unless required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("parsing %s: unknown keys %v", path, undecoded)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Nvim == "" {
		return errors.New("nvim executable must not be empty")
	}
	if c.Cols < 0 || c.Rows < 0 {
		return fmt.Errorf("invalid size %dx%d", c.Cols, c.Rows)
	}
	if c.Screenshot != "" && (c.Cols == 0 || c.Rows == 0) {
		return errors.New("screenshot mode needs --cols and --rows")
	}
	if c.Input.DragInterval < 0 || c.Input.ResizeDelay < 0 {
		return errors.New("input delays must not be negative")
	}
	return nil
}
