package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setFlag(t *testing.T, name, value string) {
	t.Helper()
	prev := flag.Lookup(name).Value.String()
	require.NoError(t, flag.Set(name, value))
	t.Cleanup(func() { _ = flag.Set(name, prev) })
}

func TestApplyFlagsWithoutFlags(t *testing.T) {
	cfg := Default()
	ApplyFlags(cfg)
	assert.Equal(t, Default(), cfg, "Без флагов конфигурация не меняется")
}

func TestApplyFlags(t *testing.T) {
	setFlag(t, "debug", "true")
	setFlag(t, "seed", "7")
	setFlag(t, "ticks", "100")
	setFlag(t, "metrics", ":9000")
	setFlag(t, "config", "world.yaml")

	cfg := Default()
	ApplyFlags(cfg)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, int64(7), cfg.Terrain.Seed)
	assert.Equal(t, 100, cfg.Engine.MaxTicks)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9000", cfg.Metrics.GetAddr())
	assert.Equal(t, "world.yaml", ConfigPath())
	require.NoError(t, cfg.Validate())
}
