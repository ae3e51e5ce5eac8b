package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TELEGRAM_TOKEN", "DATABASE_URL", "REPORT_INTERVAL_HOURS", "TIMEZONE", "REPORT_AT", "METRICS_ADDR", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "todo_calendar.db", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.ReportAt)
	assert.Error(t, cfg.RequireToken())
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("DATABASE_URL", "data/planner.db")
	t.Setenv("REPORT_INTERVAL_HOURS", "12")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("REPORT_AT", "09:30")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.NoError(t, cfg.RequireToken())
	assert.Equal(t, "data/planner.db", cfg.DatabaseURL)
	assert.Equal(t, 12*time.Hour, cfg.ReportInterval)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "09:30", cfg.ReportAt)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown timezone", key: "TIMEZONE", value: "Mars/Olympus"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseInterval(""))
	assert.Equal(t, time.Duration(0), parseInterval("-1"))
	assert.Equal(t, time.Duration(0), parseInterval("abc"))
	assert.Equal(t, 3*time.Hour, parseInterval("3"))
}
