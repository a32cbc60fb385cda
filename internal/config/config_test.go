package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sentitrack")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "weekly", cfg.ReportSchedule)
	assert.Equal(t, "lastweek", cfg.DigestPeriod)
	assert.Equal(t, 30*time.Minute, cfg.BrandContextTTL)
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
	assert.Equal(t, 50, cfg.AnalysisBatchSize)
	assert.True(t, cfg.EnableAnalysis)
	assert.False(t, cfg.EnableDigest)
	assert.False(t, cfg.EnableCollection)
	assert.Equal(t, 24*time.Hour, cfg.CollectionLookback)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("BRAND_CONTEXT_TTL", "5m")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 5*time.Minute, cfg.BrandContextTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.Debug)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "Unknown database driver",
			env:  map[string]string{"DATABASE_DRIVER": "mysql"},
		},
		{
			name: "Missing JWT secret",
			env:  map[string]string{"JWT_SECRET": ""},
		},
		{
			name: "Invalid report schedule",
			env:  map[string]string{"REPORT_SCHEDULE": "hourly"},
		},
		{
			name: "Unknown digest period",
			env:  map[string]string{"DIGEST_PERIOD": "yesterday"},
		},
		{
			name: "Digest without notification channel",
			env:  map[string]string{"ENABLE_DIGEST": "true"},
		},
		{
			name: "Negative collection lookback",
			env:  map[string]string{"COLLECTION_LOOKBACK": "-1h"},
		},
		{
			name: "Email without SMTP",
			env:  map[string]string{"NOTIFICATION_EMAIL": "ops@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DigestWithTeams(t *testing.T) {
	setRequired(t)
	t.Setenv("ENABLE_DIGEST", "true")
	t.Setenv("TEAMS_WEBHOOK_URL", "https://example.webhook.office.com/hook")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.HasNotificationChannel())
}

func TestLoadForTools(t *testing.T) {
	t.Setenv("DATABASE_URL", "sentitrack.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DIGEST_DIR", "out/digests")

	cfg, err := LoadForTools()
	require.NoError(t, err)
	assert.Equal(t, "out/digests", cfg.DigestDir)

	_, err = Load()
	assert.Error(t, err, "the server still requires a token secret")

	t.Setenv("DATABASE_URL", "")
	_, err = LoadForTools()
	assert.Error(t, err)
}
