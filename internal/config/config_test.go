package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DEFAULT_SOURCE_URL, cfg.SourceURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TREND_WINDOW", "336h")
	t.Setenv("TREND_MIN_SAMPLES", "5")
	t.Setenv("SAFETY_MARGIN_PCT", "15")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("SOURCE_URL", "http://localhost:9000/precos.csv")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 14*24*time.Hour, cfg.TrendWindow)
	assert.Equal(t, 5, cfg.Thresholds().MinSamples)
	assert.Equal(t, "0.15", cfg.SafetyMargin().String())
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 50.0, cfg.Policy().MaxDetourKm)
	assert.Equal(t, "http://localhost:9000/precos.csv", cfg.SourceURL)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("SAFETY_MARGIN_PCT", "100")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "SAFETY_MARGIN_PCT")
}
