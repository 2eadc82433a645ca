package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/grove/internal/core/observability/log"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, log.LevelInfo, Default().LogLevel())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grove.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
simulation:
  world: worlds/forest.yaml
  seed: 99
  tick_interval: 250ms
  time_scale: 2
  tuning:
    sapling:
      period: 0.5
      health_limit: 3
    tree_action_period: {min: 1, max: 2}
    tree_animation_period: {min: 0.1, max: 0.2}
    tree_health: {min: 2, max: 4}
server:
  listen_addr: ":9090"
journal:
  path: var/journal.db
  every: 10
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "worlds/forest.yaml", cfg.Simulation.World)
	assert.Equal(t, uint64(99), cfg.Simulation.Seed)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, 2.0, cfg.Simulation.TimeScale)
	assert.Equal(t, 3, cfg.Simulation.Tuning.Sapling.HealthLimit)
	assert.Equal(t, 4, cfg.Simulation.Tuning.TreeHealth.Max)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout, "untouched default")
	assert.Equal(t, uint64(10), cfg.Journal.Every)
	assert.Equal(t, log.LevelDebug, cfg.LogLevel())
}

func TestDecodeEmptyGivesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "simulation:\n  wrld: x\n",
		"zero interval":  "simulation:\n  tick_interval: 0s\n",
		"negative scale": "simulation:\n  time_scale: -1\n",
		"no world":       "simulation:\n  world: \"\"\n",
		"bad level":      "log:\n  level: loud\n",
		"bad encoding":   "log:\n  encoding: xml\n",
		"journal every":  "journal:\n  path: j.db\n  every: 0\n",
		"sapling period": "simulation:\n  tuning:\n    sapling:\n      period: 0\n",
		"tree range":     "simulation:\n  tuning:\n    tree_action_period: {min: 2, max: 1}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.OutputPaths = []string{filepath.Join(t.TempDir(), "grove.log")}
	l := cfg.Logger()
	assert.Equal(t, log.LevelWarn, l.GetLevel())
	_ = l.Sync()
}
