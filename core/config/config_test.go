package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeInfersWebhookFromHost(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Webhook:  WebhookConfig{URL: "bot.example.org"},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeWebhook {
		t.Fatalf("run mode = %q, want webhook", cfg.Telegram.RunMode)
	}
	if cfg.Webhook.URL != "https://bot.example.org/webhook" {
		t.Fatalf("public url = %q", cfg.Webhook.URL)
	}
	if cfg.Webhook.Port != DefaultWebhookPort {
		t.Fatalf("port = %d, want %d", cfg.Webhook.Port, DefaultWebhookPort)
	}
}

func TestNormalizeKeepsFullWebhookURL(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "webhook"},
		Webhook:  WebhookConfig{URL: "https://hooks.example.org/tg", Path: "tg", Port: 9000, RPS: 5},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Webhook.URL != "https://hooks.example.org/tg" {
		t.Fatalf("public url = %q", cfg.Webhook.URL)
	}
	if cfg.Webhook.Path != "/tg" {
		t.Fatalf("path = %q", cfg.Webhook.Path)
	}
	if cfg.Webhook.Burst != 1 {
		t.Fatalf("burst = %d, want 1", cfg.Webhook.Burst)
	}
}

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc", RunMode: "polling"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]*Config{
		"missing token": {},
		"bad run mode": {
			Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"},
		},
		"webhook without url": {
			Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
		},
		"bad exclusion": {
			Telegram:  TelegramConfig{Token: "t"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline_query"}},
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Normalize(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMergesYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "telegram:\n  token: from-file\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("WEBHOOK_URL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, env should win", cfg.Telegram.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}
