// Package config resolves the data directory and loads the optional TOML
// configuration file that lives in it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/warpdl/stickers/common"
)

// FileName is the configuration file inside the data directory.
const FileName = "config.toml"

// Config is the user configuration. Every field has a default, so a
// missing file or a missing key is never an error.
type Config struct {
	Screen    ScreenConfig    `toml:"screen"`
	Placement PlacementConfig `toml:"placement"`
	Executor  ExecutorConfig  `toml:"executor"`
	Timer     TimerConfig     `toml:"timer"`
	Hotkey    HotkeyConfig    `toml:"hotkey"`
	Log       LogConfig       `toml:"log"`
}

// ScreenConfig bounds the cascade of new stickers.
type ScreenConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type PlacementConfig struct {
	Offset int `toml:"offset"`
	Margin int `toml:"margin"`
}

type ExecutorConfig struct {
	Timeout        Duration `toml:"timeout"`
	MaxOutputBytes int      `toml:"max_output_bytes"`
	MaxConcurrent  int      `toml:"max_concurrent"`
}

type TimerConfig struct {
	DefaultDuration Duration `toml:"default_duration"`
}

type HotkeyConfig struct {
	Enabled bool `toml:"enabled"`
}

type LogConfig struct {
	// File enables the log file under <data dir>/logs.
	File  bool `toml:"file"`
	// Debug logs the effective settings and endpoints at startup.
	Debug bool `toml:"debug"`
}

// Duration is a time.Duration written as a string ("30s", "5m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Screen:    ScreenConfig{Width: 1920, Height: 1080},
		Placement: PlacementConfig{Offset: 32, Margin: 100},
		Executor: ExecutorConfig{
			Timeout:        Duration{30 * time.Second},
			MaxOutputBytes: 64 << 10,
			MaxConcurrent:  4,
		},
		Timer:  TimerConfig{DefaultDuration: Duration{5 * time.Minute}},
		Hotkey: HotkeyConfig{Enabled: true},
		Log:    LogConfig{File: true},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing file
// yields the defaults; unknown keys are an error so typos do not go
// unnoticed.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("parsing config: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.Screen.Width < 0 || c.Screen.Height < 0:
		return errors.New("screen dimensions must not be negative")
	case c.Placement.Offset < 0 || c.Placement.Margin < 0:
		return errors.New("placement offset and margin must not be negative")
	case c.Executor.Timeout.Duration <= 0:
		return errors.New("executor.timeout must be positive")
	case c.Executor.MaxOutputBytes <= 0:
		return errors.New("executor.max_output_bytes must be positive")
	case c.Executor.MaxConcurrent <= 0:
		return errors.New("executor.max_concurrent must be positive")
	case c.Timer.DefaultDuration.Duration < time.Second:
		return errors.New("timer.default_duration must be at least 1s")
	}
	return nil
}

// Save writes c to path, creating the parent directory.
func Save(fs afero.Fs, path string, c *Config) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Debug reports whether STICKERS_DEBUG=1 is set.
func Debug() bool {
	return os.Getenv(common.DebugEnv) == "1"
}

// Debug reports whether debug logging is on, either through log.debug or
// STICKERS_DEBUG=1.
func (c *Config) Debug() bool {
	return c.Log.Debug || Debug()
}
