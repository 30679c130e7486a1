package state

import (
	"time"

	"github.com/quantflow/gridmon/internal/domain"
)

// TrendTracker maintains a sliding window of accepted price samples and
// classifies the direction of the latest price against the oldest sample
// still inside the window.
//
// The tracker is owned by the state loop and is not safe for concurrent use.
type TrendTracker struct {
	window  time.Duration
	samples []domain.PriceSample
	trend   domain.Trend
}

// NewTrendTracker creates a tracker with the given sliding window.
func NewTrendTracker(window time.Duration) *TrendTracker {
	return &TrendTracker{
		window: window,
		trend:  domain.TrendUnknown,
	}
}

// Observe records an accepted price sample, prunes samples that have fallen
// outside the window, and returns the recomputed trend. When pruning leaves
// only the new sample there is no baseline to compare against, so the
// previous trend is kept rather than flickering back to unknown.
func (t *TrendTracker) Observe(price float64, ts time.Time) domain.Trend {
	// The buffer is monotonic in time order; a sample carrying an earlier
	// clock reading is recorded at the tail timestamp.
	if n := len(t.samples); n > 0 && ts.Before(t.samples[n-1].ObservedAt) {
		ts = t.samples[n-1].ObservedAt
	}

	t.samples = append(t.samples, domain.PriceSample{Price: price, ObservedAt: ts})
	t.prune(ts)

	if len(t.samples) > 1 {
		baseline := t.samples[0].Price
		switch {
		case price > baseline:
			t.trend = domain.TrendUp
		case price < baseline:
			t.trend = domain.TrendDown
		default:
			t.trend = domain.TrendFlat
		}
	}
	return t.trend
}

// Prune discards samples older than the window relative to now. Pruning is
// idempotent.
func (t *TrendTracker) Prune(now time.Time) {
	t.prune(now)
}

func (t *TrendTracker) prune(now time.Time) {
	cutoff := now.Add(-t.window)

	i := 0
	for i < len(t.samples) && t.samples[i].ObservedAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.samples = t.samples[i:]
	}
}

// Trend returns the current classification.
func (t *TrendTracker) Trend() domain.Trend {
	return t.trend
}

// Samples returns a copy of the samples currently inside the window.
func (t *TrendTracker) Samples() []domain.PriceSample {
	out := make([]domain.PriceSample, len(t.samples))
	copy(out, t.samples)
	return out
}
