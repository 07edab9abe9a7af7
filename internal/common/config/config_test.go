package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "BODY_LIMIT_MB", "GEMINI_API_KEY", "GEMINI_MODEL", "LIBRARY_MAX_BYTES", "SESSION_IDLE_MINUTES", "PLANNER_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 20*1024*1024, cfg.BodyLimit())
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, int64(5*1024*1024), cfg.LibraryMaxBytes)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdle)
	assert.Equal(t, "http://localhost:3001", cfg.PlannerURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("LIBRARY_MAX_BYTES", "1024")
	t.Setenv("READ_TIMEOUT", "not-a-number")
	t.Setenv("GEMINI_API_KEY", "k")

	cfg := Load()
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, int64(1024), cfg.LibraryMaxBytes)
	assert.Equal(t, 10, cfg.ReadTimeout)
	assert.Equal(t, "k", cfg.GeminiAPIKey)
}
