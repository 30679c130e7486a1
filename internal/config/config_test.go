package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:8000/api" {
		t.Fatalf("expected default base url, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 30 || cfg.Symbol != "BTCUSDT" || cfg.LogLevel != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridmon.toml")
	content := `
symbol = "ETHUSDT"

[backend]
base_url = "http://bot.internal:8000/api"
ws_url = "ws://bot.internal:8000/ws"

[notify]
kinds = ["error", "warning"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "ETHUSDT" {
		t.Fatalf("symbol not read from file: %q", cfg.Symbol)
	}
	if cfg.Backend.BaseURL != "http://bot.internal:8000/api" {
		t.Fatalf("base url not read from file: %q", cfg.Backend.BaseURL)
	}
	// Untouched fields keep their defaults.
	if cfg.Backend.TimeoutSeconds != 30 {
		t.Fatalf("default timeout lost: %d", cfg.Backend.TimeoutSeconds)
	}
	if len(cfg.Notify.Kinds) != 2 || cfg.Notify.Kinds[0] != "error" {
		t.Fatalf("notify kinds not read: %v", cfg.Notify.Kinds)
	}
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridmon.toml")
	if err := os.WriteFile(path, []byte(`symbol = "ETHUSDT"`), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GRIDMON_SYMBOL", "SOLUSDT")
	t.Setenv("GRIDMON_BACKEND_TIMEOUT_SECONDS", "5")
	t.Setenv("GRIDMON_REDIS_TLS_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "SOLUSDT" {
		t.Fatalf("env override lost: %q", cfg.Symbol)
	}
	if cfg.Backend.TimeoutSeconds != 5 {
		t.Fatalf("int override lost: %d", cfg.Backend.TimeoutSeconds)
	}
	if !cfg.Redis.TLSEnabled {
		t.Fatal("bool override lost")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"missing base url", func(c *Config) { c.Backend.BaseURL = "" }, true},
		{"missing ws url", func(c *Config) { c.Backend.WSURL = "" }, true},
		{"http scheme for ws url", func(c *Config) { c.Backend.WSURL = "http://x/ws" }, true},
		{"bad signals ws url", func(c *Config) { c.Backend.SignalsWSURL = "http://x/ws" }, true},
		{"wss signals url ok", func(c *Config) { c.Backend.SignalsWSURL = "wss://x/ws/signals" }, false},
		{"zero timeout", func(c *Config) { c.Backend.TimeoutSeconds = 0 }, true},
		{"missing symbol", func(c *Config) { c.Symbol = "" }, true},
		{"telegram token without chat id", func(c *Config) { c.Notify.TelegramToken = "tok" }, true},
		{"telegram pair ok", func(c *Config) {
			c.Notify.TelegramToken = "tok"
			c.Notify.TelegramChatID = "42"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
