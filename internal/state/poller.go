package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantflow/gridmon/internal/domain"
)

// StatusSource fetches one full status snapshot from the backend.
type StatusSource interface {
	Status(ctx context.Context) (domain.StatusSnapshot, error)
}

// SnapshotSink receives poll results; satisfied by *Loop.
type SnapshotSink interface {
	ApplySnapshot(ctx context.Context, snap domain.StatusSnapshot) error
}

// Poller fetches the full status snapshot on a timer. The interval adapts to
// the authentication state reported by the most recent successful fetch:
// polling stays aggressive until login completes, then backs off. An interval
// change takes effect on the next scheduled fetch.
type Poller struct {
	src    StatusSource
	sink   SnapshotSink
	logger *slog.Logger
}

// NewPoller creates a poller feeding snapshots into sink.
func NewPoller(src StatusSource, sink SnapshotSink, logger *slog.Logger) *Poller {
	return &Poller{
		src:    src,
		sink:   sink,
		logger: logger.With(slog.String("component", "status_poller")),
	}
}

// Run polls until ctx is cancelled. The first fetch happens immediately. A
// fetch failure is logged and skipped; the last-known-good status is left
// untouched and the timer keeps running.
func (p *Poller) Run(ctx context.Context) error {
	interval := pollIntervalLoggedOut

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		snap, err := p.src.Status(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("status poll failed",
				slog.String("error", err.Error()),
			)
		} else {
			if err := p.sink.ApplySnapshot(ctx, snap); err != nil {
				return err
			}
			interval = nextInterval(snap.LoggedIn)
		}

		timer.Reset(interval)
	}
}

// nextInterval returns the polling interval for the given authentication
// state.
func nextInterval(loggedIn bool) time.Duration {
	if loggedIn {
		return pollIntervalLoggedIn
	}
	return pollIntervalLoggedOut
}
