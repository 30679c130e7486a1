// Package app provides the top-level lifecycle management for the gridmon
// console. It wires together the backend client, the state loop, the status
// poller, the push-channel feeds, and the notification layer, and supervises
// them until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/quantflow/gridmon/internal/config"
	"github.com/quantflow/gridmon/internal/feed"
	"github.com/quantflow/gridmon/internal/notify"
	"github.com/quantflow/gridmon/internal/platform/gridbot"
	"github.com/quantflow/gridmon/internal/state"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the synchronization goroutines, and
// blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting console",
		slog.String("backend", a.cfg.Backend.BaseURL),
		slog.String("symbol", a.cfg.Symbol),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// Bridge toasts into the external notification channels.
	deps.Toasts.OnShow(func(t notify.Toast) {
		_ = deps.Notifier.Forward(context.Background(), t)
	})

	var mirror state.PriceMirror
	if deps.Mirror != nil {
		mirror = deps.Mirror
	}

	loop := state.NewLoop(deps.Client, deps.Toasts, mirror, a.cfg.Symbol, a.logger)
	poller := state.NewPoller(deps.Client, loop, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(ctx)
	})
	g.Go(func() error {
		return poller.Run(ctx)
	})

	eventsFeed := feed.New("events", a.streamDialer(a.cfg.Backend.WSURL), loop, a.logger)
	g.Go(func() error {
		defer eventsFeed.Close()
		return eventsFeed.Run(ctx)
	})

	if a.cfg.Backend.SignalsWSURL != "" {
		signalsFeed := feed.New("signals", a.streamDialer(a.cfg.Backend.SignalsWSURL), loop, a.logger)
		g.Go(func() error {
			defer signalsFeed.Close()
			return signalsFeed.Run(ctx)
		})
	}

	return g.Wait()
}

// streamDialer adapts gridbot.DialStream to the feed.Dialer shape for one
// endpoint.
func (a *App) streamDialer(wsURL string) feed.Dialer {
	return func(ctx context.Context) (feed.Conn, error) {
		return gridbot.DialStream(ctx, wsURL)
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down console")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
