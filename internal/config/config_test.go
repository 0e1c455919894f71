package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesMediaDefaults(t *testing.T) {
	unsetenv(t, "TELEGRAM_RUN_MODE", "WEBHOOK_PATH", "WEBHOOK_PORT", "MEDIA_SCRATCH_DIR", "MEDIA_MAX_UPLOAD_MB", "MEDIA_TIMEOUT", "MEDIA_YTDLP_PATH")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_URL", "bot.example.org")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "webhook", cfg.Telegram.RunMode)
	assert.Equal(t, "https://bot.example.org/webhook", cfg.Webhook.URL)
	assert.Equal(t, 8000, cfg.Webhook.Port)
	assert.Equal(t, DefaultScratchDir, cfg.Media.ScratchDir)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
	assert.Equal(t, DefaultMediaTimeout, cfg.Media.Timeout)
	assert.Equal(t, "yt-dlp", cfg.Media.YtDlpPath)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadReadsYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grabbot.yaml")
	yaml := `
telegram:
  token: file-token
  run_mode: longpoll
media:
  scratch_dir: /tmp/grab
  max_upload_mb: 20
  timeout: 90s
session_ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	unsetenv(t, "BOT_TOKEN", "WEBHOOK_URL", "TELEGRAM_RUN_MODE")
	t.Setenv("MEDIA_MAX_UPLOAD_MB", "10")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Telegram.Token)
	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Equal(t, "/tmp/grab", cfg.Media.ScratchDir)
	assert.Equal(t, int64(10), cfg.Media.MaxUploadMB)
	assert.Equal(t, 90*time.Second, cfg.Media.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestNormalizeRejectsNegativeLimit(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Media.MaxUploadMB = -1
	assert.Error(t, Normalize(cfg))
}

func TestNormalizeRejectsTimeoutPastJanitorAge(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Media.Timeout = time.Hour
	cfg.Media.JanitorMaxAge = time.Hour
	err := Normalize(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "janitor_max_age")

	cfg.Media.Timeout = 2 * time.Hour
	cfg.Media.JanitorMaxAge = 0
	assert.Error(t, Normalize(cfg), "default janitor age is shorter than the timeout")

	cfg.Media.Timeout = 30 * time.Minute
	cfg.Media.JanitorMaxAge = time.Hour
	assert.NoError(t, Normalize(cfg))
}

// unsetenv removes keys for the duration of the test; an empty value would
// still override the YAML file.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
