package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies GRIDMON_* environment variable overrides, and
// returns the final Config. A missing file is not an error; the defaults plus
// environment overrides are used instead. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known GRIDMON_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject endpoints and secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Backend.BaseURL, "GRIDMON_BACKEND_BASE_URL")
	setStr(&cfg.Backend.WSURL, "GRIDMON_BACKEND_WS_URL")
	setStr(&cfg.Backend.SignalsWSURL, "GRIDMON_BACKEND_SIGNALS_WS_URL")
	setInt(&cfg.Backend.TimeoutSeconds, "GRIDMON_BACKEND_TIMEOUT_SECONDS")

	setStr(&cfg.Redis.Addr, "GRIDMON_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "GRIDMON_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "GRIDMON_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "GRIDMON_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "GRIDMON_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "GRIDMON_REDIS_TLS_ENABLED")

	setStr(&cfg.Notify.TelegramToken, "GRIDMON_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "GRIDMON_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "GRIDMON_NOTIFY_DISCORD_WEBHOOK_URL")

	setStr(&cfg.Symbol, "GRIDMON_SYMBOL")
	setStr(&cfg.LogLevel, "GRIDMON_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
