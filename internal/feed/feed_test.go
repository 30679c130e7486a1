package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/quantflow/gridmon/internal/domain"
)

// fakeConn hands out queued frames and then fails.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrWSDisconnect
	}
	if len(c.frames) == 0 {
		return nil, errors.New("connection reset")
	}
	frame := c.frames[0]
	c.frames = c.frames[1:]
	return frame, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// fakeDialer records dial times and hands out one conn per attempt.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	times []time.Time
}

func (d *fakeDialer) dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.times = append(d.times, time.Now())
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.times)
}

func (d *fakeDialer) dialTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]time.Time, len(d.times))
	copy(out, d.times)
	return out
}

type collectingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *collectingSink) ApplyEvent(ctx context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *collectingSink) collected() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFeedDeliversDecodedEvents(t *testing.T) {
	dialer := &fakeDialer{conns: []*fakeConn{{
		frames: [][]byte{
			[]byte(`{"type":"price_update","data":{"price":"65000"}}`),
			[]byte(`{"type":"order_created","data":{"strategy_id":7}}`),
		},
	}}}
	sink := &collectingSink{}

	f := New("events", dialer.dial, sink, testLogger())
	f.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	waitFor(t, func() bool { return len(sink.collected()) == 2 })

	events := sink.collected()
	if events[0].Type != domain.EventPriceUpdate || events[1].Type != domain.EventOrderCreated {
		t.Fatalf("unexpected events: %+v", events)
	}

	cancel()
	<-done
}

func TestFeedDropsUndecodableFrames(t *testing.T) {
	dialer := &fakeDialer{conns: []*fakeConn{{
		frames: [][]byte{
			[]byte(`not json at all`),
			[]byte(`{"type":"heartbeat","data":{}}`),
			[]byte(`{"type":"price_update","data":{"price":"65000"}}`),
		},
	}}}
	sink := &collectingSink{}

	f := New("events", dialer.dial, sink, testLogger())
	f.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Run(ctx) }()

	waitFor(t, func() bool { return len(sink.collected()) == 1 })

	if got := sink.collected()[0].Type; got != domain.EventPriceUpdate {
		t.Fatalf("expected the valid frame to survive, got %s", got)
	}
}

func TestFeedReconnectsAfterEachClosure(t *testing.T) {
	// Every conn dies immediately; the feed must keep dialing, spaced by the
	// backoff, until torn down.
	dialer := &fakeDialer{conns: []*fakeConn{{}, {}, {}, {}, {}, {}, {}, {}}}
	sink := &collectingSink{}

	f := New("events", dialer.dial, sink, testLogger())
	f.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	waitFor(t, func() bool { return dialer.dialCount() >= 4 })

	f.Close()
	if err := <-done; err != nil {
		t.Fatalf("expected nil after Close, got %v", err)
	}

	times := dialer.dialTimes()
	for i := 1; i < 4; i++ {
		if gap := times[i].Sub(times[i-1]); gap < f.backoff {
			t.Fatalf("reconnect %d arrived after %v, before the %v backoff", i, gap, f.backoff)
		}
	}
}

func TestFeedCloseIsIdempotent(t *testing.T) {
	dialer := &fakeDialer{}
	f := New("events", dialer.dial, &collectingSink{}, testLogger())
	f.backoff = 5 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background()) }()

	f.Close()
	f.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil after Close, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestFeedStopsWhenContextCancelled(t *testing.T) {
	dialer := &fakeDialer{}
	f := New("events", dialer.dial, &collectingSink{}, testLogger())
	f.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	waitFor(t, func() bool { return dialer.dialCount() >= 1 })
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
