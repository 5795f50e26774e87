package app

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("API_BASE_URL", "http://backend.local")
	t.Setenv("API_PAGE_SIZE", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://backend.local", cfg.APIBaseURL)
	assert.Equal(t, 25, cfg.APIPageSize)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.AutosaveQuiet)
	assert.False(t, cfg.IsProduction())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel(&Config{LogLevel: "DEBUG"}))
	assert.Equal(t, slog.LevelWarn, parseLevel(&Config{LogLevel: "warning"}))
	assert.Equal(t, slog.LevelInfo, parseLevel(&Config{LogLevel: "bogus"}))
	assert.Equal(t, slog.LevelInfo, parseLevel(nil))
}
