package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redisx "github.com/quantflow/gridmon/internal/cache/redis"
	"github.com/quantflow/gridmon/internal/config"
	"github.com/quantflow/gridmon/internal/notify"
	"github.com/quantflow/gridmon/internal/platform/gridbot"
)

// Dependencies bundles everything the console needs to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Client   *gridbot.Client
	Toasts   *notify.Toasts
	Notifier *notify.Notifier

	// Mirror is nil when no Redis address is configured.
	Mirror *redisx.PriceMirror
}

// Wire constructs the concrete dependency implementations from the given
// configuration and returns them together with a cleanup function.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	deps.Client = gridbot.NewClient(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
	)

	deps.Toasts = notify.NewToasts(0, logger)
	closers = append(closers, deps.Toasts.Close)

	// --- Redis price mirror (optional) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redisx.New(ctx, redisx.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Mirror = redisx.NewPriceMirror(redisClient)
	}

	// --- External notification channels ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Kinds, logger)

	return deps, cleanup, nil
}
