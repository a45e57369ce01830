package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithEnv(t *testing.T, env map[string]string) *Config {
	t.Helper()
	t.Setenv("STUDIODASH_ENV", Test)
	for k, v := range env {
		t.Setenv(k, v)
	}
	Reset()
	t.Cleanup(Reset)
	return GetConfig()
}

func TestGetConfigDefaults(t *testing.T) {
	cfg := loadWithEnv(t, nil)

	assert.True(t, cfg.IsTest())
	assert.Equal(t, 12, cfg.ChartSeriesLimit)
	assert.Equal(t, 25, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.True(t, cfg.CollapseSessions)
	assert.False(t, cfg.RequiresAPIKey())
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
	assert.Contains(t, cfg.GetDatabasePath(), "studiodash-test.db")
}

func TestGetConfigFromEnvironment(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{
		"STUDIODASH_API_KEY":               "secret",
		"STUDIODASH_CHART_SERIES_LIMIT":    "15",
		"STUDIODASH_COLLAPSE_SESSIONS":     "false",
		"STUDIODASH_IMPORT_RETENTION_DAYS": "0",
		"STUDIODASH_DB_MAX_OPEN_CONNS":     "4",
	})

	assert.True(t, cfg.RequiresAPIKey())
	assert.Equal(t, 15, cfg.ChartSeriesLimit)
	assert.False(t, cfg.CollapseSessions)
	assert.Zero(t, cfg.ImportRetentionDays)
	assert.Equal(t, 4, cfg.GetMaxOpenConns())
}

func TestClampPageSize(t *testing.T) {
	cfg := &Config{DefaultPageSize: 25, MaxPageSize: 100}

	assert.Equal(t, 25, cfg.ClampPageSize(0))
	assert.Equal(t, 25, cfg.ClampPageSize(-3))
	assert.Equal(t, 10, cfg.ClampPageSize(10))
	assert.Equal(t, 100, cfg.ClampPageSize(500))
}

func TestValidate(t *testing.T) {
	valid := Config{
		Environment:      Test,
		DatabaseType:     SQLiteDatabase,
		ChartSeriesLimit: 12,
		DefaultPageSize:  25,
		MaxPageSize:      100,
	}
	require.NoError(t, valid.validate())

	cases := map[string]func(*Config){
		"environment": func(c *Config) { c.Environment = "staging" },
		"db type":     func(c *Config) { c.DatabaseType = "postgres" },
		"chart limit": func(c *Config) { c.ChartSeriesLimit = 0 },
		"page sizes":  func(c *Config) { c.MaxPageSize = 10 },
		"retention":   func(c *Config) { c.ImportRetentionDays = -1 },
	}
	for name, mutate := range cases {
		c := valid
		mutate(&c)
		assert.Error(t, c.validate(), name)
	}
}
