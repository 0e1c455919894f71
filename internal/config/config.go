// Package config loads the grabbot configuration: the reusable core settings
// plus media and session options.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/grabbot/core/config"
)

// MediaConfig controls where and how media jobs run.
type MediaConfig struct {
	ScratchDir  string        `yaml:"scratch_dir" envconfig:"MEDIA_SCRATCH_DIR"`
	MaxUploadMB int64         `yaml:"max_upload_mb" envconfig:"MEDIA_MAX_UPLOAD_MB"`
	YtDlpPath   string        `yaml:"ytdlp_path" envconfig:"MEDIA_YTDLP_PATH"`
	FFmpegPath  string        `yaml:"ffmpeg_path" envconfig:"MEDIA_FFMPEG_PATH"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"MEDIA_TIMEOUT"`
	// JanitorMaxAge is how old a scratch file must be before the janitor removes it.
	JanitorMaxAge time.Duration `yaml:"janitor_max_age" envconfig:"MEDIA_JANITOR_MAX_AGE"`
}

const (
	DefaultScratchDir    = "downloads"
	DefaultMaxUploadMB   = 50
	DefaultYtDlpPath     = "yt-dlp"
	DefaultMediaTimeout  = 10 * time.Minute
	DefaultJanitorMaxAge = time.Hour
	DefaultSessionTTL    = 24 * time.Hour
)

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Media      MediaConfig   `yaml:"media"`
	SessionTTL time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// MaxUploadBytes returns the upload limit in bytes (1 MB = 1 MiB).
func (c *Config) MaxUploadBytes() int64 {
	return c.Media.MaxUploadMB << 20
}

// Load reads configuration from an optional YAML file and the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core section and fills media defaults.
func Normalize(cfg *Config) error {
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	m := &cfg.Media
	if strings.TrimSpace(m.ScratchDir) == "" {
		m.ScratchDir = DefaultScratchDir
	}
	if m.MaxUploadMB == 0 {
		m.MaxUploadMB = DefaultMaxUploadMB
	}
	if m.MaxUploadMB < 0 {
		return fmt.Errorf("media.max_upload_mb must be > 0")
	}
	if strings.TrimSpace(m.YtDlpPath) == "" {
		m.YtDlpPath = DefaultYtDlpPath
	}
	if m.Timeout <= 0 {
		m.Timeout = DefaultMediaTimeout
	}
	if m.JanitorMaxAge == 0 {
		m.JanitorMaxAge = DefaultJanitorMaxAge
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if m.JanitorMaxAge < 0 || cfg.SessionTTL < 0 {
		return fmt.Errorf("media.janitor_max_age and session_ttl must be >= 0")
	}
	// The janitor must never reap files of a download still running.
	if m.Timeout >= m.JanitorMaxAge {
		return fmt.Errorf("media.timeout (%s) must be shorter than media.janitor_max_age (%s)", m.Timeout, m.JanitorMaxAge)
	}
	return nil
}
