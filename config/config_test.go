package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "var-engine", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 10*time.Second, cfg.API.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.API.CORS.AllowedOrigins)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "risk.var.requests", cfg.Kafka.Topics.VaRRequests)
	assert.Equal(t, "risk.var.results", cfg.Kafka.Topics.VaRResults)

	assert.Equal(t, 0.01, cfg.Risk.ConfidenceLevel)
	assert.Equal(t, 10000, cfg.Risk.SimulationRuns)
	assert.Equal(t, 252, cfg.Risk.WindowDays)
	assert.Equal(t, int64(42), cfg.Risk.RandomSeed)
	assert.Equal(t, 20, cfg.Risk.TailScenarios)
	assert.Equal(t, 10, cfg.Risk.NearVaRScenarios)
	assert.Equal(t, 8, cfg.Risk.Workers)

	assert.Equal(t, "Date", cfg.Data.DateColumn)
	assert.True(t, cfg.Metrics.Prometheus.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VAR_RISK_WINDOW_DAYS", "100")
	t.Setenv("VAR_API_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Risk.WindowDays)
	assert.Equal(t, 9999, cfg.API.Port)
}
