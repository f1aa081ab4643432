package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpdl/stickers/common"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "/data/config.toml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/config.toml", []byte(`
[screen]
width = 2560

[executor]
timeout = "2m"
max_concurrent = 2

[timer]
default_duration = "25m"

[hotkey]
enabled = false
`), 0600))

	cfg, err := Load(fs, "/data/config.toml")
	require.NoError(t, err)
	assert.Equal(t, 2560, cfg.Screen.Width)
	assert.Equal(t, 1080, cfg.Screen.Height)
	assert.Equal(t, 2*time.Minute, cfg.Executor.Timeout.Duration)
	assert.Equal(t, 2, cfg.Executor.MaxConcurrent)
	assert.Equal(t, 64<<10, cfg.Executor.MaxOutputBytes)
	assert.Equal(t, 25*time.Minute, cfg.Timer.DefaultDuration.Duration)
	assert.False(t, cfg.Hotkey.Enabled)
	assert.True(t, cfg.Log.File)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"syntax", "[screen\nwidth = 1", "parsing config"},
		{"unknown key", "[screen]\ndepth = 3", "unknown keys screen.depth"},
		{"bad duration", "[executor]\ntimeout = \"soon\"", "parsing config"},
		{"invalid value", "[executor]\nmax_concurrent = 0", "max_concurrent"},
		{"short timer", "[timer]\ndefault_duration = \"10ms\"", "default_duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "c.toml", []byte(tt.body), 0600))
			_, err := Load(fs, "c.toml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSave_RoundTrips(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.Placement.Offset = 48
	cfg.Log.Debug = true
	require.NoError(t, Save(fs, "/x/y/config.toml", cfg))

	got, err := Load(fs, "/x/y/config.toml")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDataDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(common.DataDirEnv, dir)
	got, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestResolve_CreatesTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	p, err := Resolve(fs, "/srv/stickers")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(p.DataDir, "stickers.db"), p.Database())
	assert.Equal(t, filepath.Join(p.DataDir, "stickers.lock"), p.Lock())
	assert.Equal(t, filepath.Join(p.DataDir, FileName), p.ConfigFile())
	ok, err := afero.DirExists(fs, p.LogDir())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDebug(t *testing.T) {
	t.Setenv(common.DebugEnv, "1")
	assert.True(t, Debug())
	t.Setenv(common.DebugEnv, "")
	assert.False(t, Debug())
}

func TestConfigDebug(t *testing.T) {
	t.Setenv(common.DebugEnv, "")
	c := Default()
	assert.False(t, c.Debug())
	c.Log.Debug = true
	assert.True(t, c.Debug())

	c.Log.Debug = false
	t.Setenv(common.DebugEnv, "1")
	assert.True(t, c.Debug())
}
