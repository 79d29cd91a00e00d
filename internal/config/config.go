// Package config loads the injector configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// DefaultPath is where Load looks when given no path.
const DefaultPath = "/etc/keyinject/keyinject.toml"

const (
	BackendAuto   = "auto"
	BackendX11    = "x11"
	BackendUinput = "uinput"
)

type Config struct {
	Backend     string `toml:"backend"`
	Display     string `toml:"display"`
	KeymapFile  string `toml:"keymap_file"`
	WatchKeymap bool   `toml:"watch_keymap"`
	DeviceName  string `toml:"device_name"`

	AvoidShiftNumLock bool     `toml:"avoid_shift_numlock"`
	RawKeyboard       bool     `toml:"raw_keyboard"`
	RemapKeys         []string `toml:"remap_keys"`

	LogLevel string `toml:"log_level"`
}

func Default() *Config {
	return &Config{
		Backend:           BackendAuto,
		WatchKeymap:       true,
		AvoidShiftNumLock: true,
		RawKeyboard:       true,
		LogLevel:          "info",
	}
}

// Load reads the file at path over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies KEYINJECT_BACKEND, DISPLAY, KEYINJECT_KEYMAP and
// KEYINJECT_LOG_LEVEL.
func (c *Config) ApplyEnv() {
	if backend := strings.TrimSpace(os.Getenv("KEYINJECT_BACKEND")); backend != "" {
		c.Backend = strings.ToLower(backend)
	}
	if display := strings.TrimSpace(os.Getenv("DISPLAY")); display != "" && c.Display == "" {
		c.Display = display
	}
	if keymap := strings.TrimSpace(os.Getenv("KEYINJECT_KEYMAP")); keymap != "" {
		c.KeymapFile = keymap
	}
	if level := strings.TrimSpace(os.Getenv("KEYINJECT_LOG_LEVEL")); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendX11, BackendUinput:
	default:
		return fmt.Errorf("unknown backend %q, expected auto, x11 or uinput", c.Backend)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if _, err := keyboard.ParseRemap(c.RemapKeys); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Options returns the engine options for c.
func (c *Config) Options() (keyboard.Options, error) {
	remap, err := keyboard.ParseRemap(c.RemapKeys)
	if err != nil {
		return keyboard.Options{}, err
	}
	return keyboard.Options{
		AvoidShiftNumLock: c.AvoidShiftNumLock,
		RawKeyboard:       c.RawKeyboard,
		Remapper:          remap,
	}, nil
}
