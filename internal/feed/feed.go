// Package feed owns the live push-channel connections. Each Feed maintains
// exactly one connection to its endpoint, decodes incoming frames into typed
// events, and forwards them to the state loop. On disconnect it schedules
// exactly one reconnect attempt after a fixed backoff, forever, until torn
// down.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/quantflow/gridmon/internal/domain"
)

// reconnectBackoff is the fixed delay between a connection dropping and the
// next dial attempt.
const reconnectBackoff = 3 * time.Second

// Conn is one established push-channel connection.
type Conn interface {
	Read() ([]byte, error)
	Close() error
}

// Dialer establishes a new connection to the feed's endpoint.
type Dialer func(ctx context.Context) (Conn, error)

// EventSink receives decoded events; satisfied by *state.Loop.
type EventSink interface {
	ApplyEvent(ctx context.Context, ev domain.Event) error
}

// Feed manages one logical push-channel connection.
type Feed struct {
	name    string
	dial    Dialer
	sink    EventSink
	backoff time.Duration
	logger  *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a feed. name labels log entries ("events", "signals").
func New(name string, dial Dialer, sink EventSink, logger *slog.Logger) *Feed {
	return &Feed{
		name:    name,
		dial:    dial,
		sink:    sink,
		backoff: reconnectBackoff,
		logger:  logger.With(slog.String("component", "feed"), slog.String("feed", name)),
		done:    make(chan struct{}),
	}
}

// Run dials, consumes frames until the connection drops, then waits the fixed
// backoff and dials again. It returns when ctx is cancelled or Close is
// called; the teardown check happens before every dial so a reconnect timer
// that fires after teardown never dispatches.
func (f *Feed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		conn, err := f.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn("connect failed, will retry",
				slog.String("error", err.Error()),
			)
		} else {
			f.logger.Info("connected")
			f.consume(ctx, conn)
			_ = conn.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		timer := time.NewTimer(f.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-f.done:
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// consume reads frames until the connection fails or the feed is torn down.
// A frame that fails to decode (malformed JSON or an unrecognized type) is
// logged and dropped; it never takes the connection down.
func (f *Feed) consume(ctx context.Context, conn Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		case <-stop:
			return
		}
		_ = conn.Close()
	}()

	for {
		frame, err := conn.Read()
		if err != nil {
			if !errors.Is(err, domain.ErrWSDisconnect) && ctx.Err() == nil {
				f.logger.Warn("connection dropped",
					slog.String("error", err.Error()),
				)
			}
			return
		}

		ev, err := domain.DecodeEvent(frame)
		if err != nil {
			f.logger.Warn("dropping frame",
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := f.sink.ApplyEvent(ctx, ev); err != nil {
			return
		}
	}
}

// Close tears the feed down. Closing twice is a no-op.
func (f *Feed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
