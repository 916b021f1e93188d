package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scorehub/ingest-hub/internal/sources"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.HTTPHost)
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, sources.ModeAuto, cfg.ScoreboardMode)
	assert.Equal(t, 5001, cfg.ScoreboardTCPPort)
	assert.Equal(t, 5002, cfg.ScoreboardUDPPort)
	assert.Equal(t, []string{"/mnt/stats"}, cfg.BrowseRoots)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogDateTime)
}

func TestLoadReadsOverridesFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("SCOREBOARD_MODE", "tcp")
	t.Setenv("LOG_DATE_TIME", "true")
	t.Setenv("BROWSE_ROOTS", "/data/a:/data/b")

	cfg := Load()

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, sources.ListenMode("tcp"), cfg.ScoreboardMode)
	assert.True(t, cfg.LogDateTime)
	assert.Equal(t, []string{"/data/a", "/data/b"}, cfg.BrowseRoots)
}

func TestLoadIgnoresInvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")
	cfg := Load()
	assert.Equal(t, 5000, cfg.HTTPPort)
}

func TestGetBoolAcceptsCommonSpellings(t *testing.T) {
	for in, want := range map[string]bool{
		"1": true, "true": true, "yes": true, "on": true,
		"0": false, "false": false, "no": false, "off": false,
	} {
		t.Run(in, func(t *testing.T) {
			t.Setenv("LOG_DATE_TIME", in)
			assert.Equal(t, want, getBool("LOG_DATE_TIME", false))
		})
	}
}
