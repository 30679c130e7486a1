// Package config defines the gridmon console configuration and provides
// validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by GRIDMON_* environment
// variables.
type Config struct {
	Backend  BackendConfig `toml:"backend"`
	Redis    RedisConfig   `toml:"redis"`
	Notify   NotifyConfig  `toml:"notify"`
	Symbol   string        `toml:"symbol"`
	LogLevel string        `toml:"log_level"`
}

// BackendConfig holds the trading-bot backend endpoints.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	WSURL          string `toml:"ws_url"`
	SignalsWSURL   string `toml:"signals_ws_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RedisConfig holds connection parameters for the optional live-price mirror.
// Leaving Addr empty disables the mirror entirely.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// NotifyConfig holds external notification channel credentials. Kinds filters
// which toast kinds are forwarded (e.g. ["error", "warning"]); empty forwards
// everything.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Kinds             []string `toml:"kinds"`
}

// Defaults returns a Config populated with sensible defaults for a local
// backend.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:8000/api",
			WSURL:          "ws://127.0.0.1:8000/ws",
			SignalsWSURL:   "",
			TimeoutSeconds: 30,
		},
		Symbol:   "BTCUSDT",
		LogLevel: "info",
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("config: backend.base_url is required")
	}
	if c.Backend.WSURL == "" {
		return fmt.Errorf("config: backend.ws_url is required")
	}
	if !strings.HasPrefix(c.Backend.WSURL, "ws://") && !strings.HasPrefix(c.Backend.WSURL, "wss://") {
		return fmt.Errorf("config: backend.ws_url must be a ws:// or wss:// URL")
	}
	if c.Backend.SignalsWSURL != "" &&
		!strings.HasPrefix(c.Backend.SignalsWSURL, "ws://") && !strings.HasPrefix(c.Backend.SignalsWSURL, "wss://") {
		return fmt.Errorf("config: backend.signals_ws_url must be a ws:// or wss:// URL")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: backend.timeout_seconds must be positive")
	}
	if c.Symbol == "" {
		return fmt.Errorf("config: symbol is required")
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		return fmt.Errorf("config: notify.telegram_token and notify.telegram_chat_id must be set together")
	}
	return nil
}
