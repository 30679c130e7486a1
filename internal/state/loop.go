// Package state implements the real-time synchronization core of the gridmon
// console. A single event loop reconciles three independent sources of truth
// (periodic status polls, push-channel events, and locally issued lifecycle
// actions) into one consistent view of bot status, live price, and strategy
// lifecycle.
//
// All shared state is owned by the Loop goroutine. Producers post typed
// messages onto a single-consumer channel; the loop processes one message at
// a time, so every merge step completes atomically before the next message is
// observed and no field is ever partially written.
package state

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/quantflow/gridmon/internal/domain"
	"github.com/quantflow/gridmon/internal/notify"
)

const (
	// trendWindow is how long a price sample stays relevant, both for trend
	// classification and for deciding whether a polled price is fresher than
	// the last push-derived one.
	trendWindow = 5 * time.Second

	// pollIntervalLoggedOut polls aggressively so login completion is
	// detected promptly.
	pollIntervalLoggedOut = 3 * time.Second

	// pollIntervalLoggedIn backs off once the session is established.
	pollIntervalLoggedIn = 15 * time.Second
)

// Backend is the slice of the REST client that the loop drives: canonical
// reloads and lifecycle commands.
type Backend interface {
	ListStrategies(ctx context.Context, status string) ([]domain.Strategy, error)
	StartStrategy(ctx context.Context, id int64) error
	PauseStrategy(ctx context.Context, id int64) error
	StopStrategy(ctx context.Context, id int64) error
	DeleteStrategy(ctx context.Context, id int64) error
}

// Toaster receives operator-facing notifications emitted by the loop.
type Toaster interface {
	Show(kind notify.Kind, message string) notify.Toast
}

// PriceMirror receives every accepted price sample. Implementations must
// tolerate being called concurrently.
type PriceMirror interface {
	Publish(ctx context.Context, symbol string, price float64, ts time.Time) error
}

// message is the typed union consumed by the loop.
type message interface {
	isMessage()
}

type snapshotMsg struct {
	snap domain.StatusSnapshot
}

type eventMsg struct {
	ev domain.Event
}

type strategiesMsg struct {
	items []domain.Strategy
}

type commandResultMsg struct {
	kind actionKind
	id   int64
	err  error
}

type actionRequestMsg struct {
	kind  actionKind
	id    int64
	reply chan error
}

type queryMsg struct {
	fn   func(*Loop)
	done chan struct{}
}

func (snapshotMsg) isMessage()      {}
func (eventMsg) isMessage()         {}
func (strategiesMsg) isMessage()    {}
func (commandResultMsg) isMessage() {}
func (actionRequestMsg) isMessage() {}
func (queryMsg) isMessage()         {}

// Loop owns the reconciled console state. Construct with NewLoop, start Run
// in its own goroutine, and interact through the exported methods; every
// method is safe for concurrent use because it only posts messages.
type Loop struct {
	backend Backend
	toasts  Toaster
	mirror  PriceMirror
	symbol  string
	logger  *slog.Logger

	msgs chan message
	done chan struct{}

	now func() time.Time

	// Everything below is touched only by the Run goroutine.
	status        domain.BotStatus
	trend         *TrendTracker
	lastPushPrice time.Time
	strategies    map[int64]domain.Strategy
	pending       map[int64]actionKind
	progress      map[int64]*domain.StartupProgress
	signals       map[int64]domain.Signal
}

// NewLoop creates a loop. mirror may be nil when no price mirror is
// configured.
func NewLoop(backend Backend, toasts Toaster, mirror PriceMirror, symbol string, logger *slog.Logger) *Loop {
	return &Loop{
		backend:    backend,
		toasts:     toasts,
		mirror:     mirror,
		symbol:     symbol,
		logger:     logger.With(slog.String("component", "state_loop")),
		msgs:       make(chan message, 64),
		done:       make(chan struct{}),
		now:        time.Now,
		trend:      NewTrendTracker(trendWindow),
		strategies: make(map[int64]domain.Strategy),
		pending:    make(map[int64]actionKind),
		progress:   make(map[int64]*domain.StartupProgress),
		signals:    make(map[int64]domain.Signal),
	}
}

// Run processes messages until ctx is cancelled. It performs one canonical
// strategy reload on startup so the console is populated before the first
// push event arrives.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	l.reloadStrategies(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-l.msgs:
			l.handle(ctx, m)
		}
	}
}

func (l *Loop) handle(ctx context.Context, m message) {
	switch msg := m.(type) {
	case snapshotMsg:
		l.mergeSnapshot(ctx, msg.snap)
	case eventMsg:
		l.mergeEvent(ctx, msg.ev)
	case strategiesMsg:
		l.mergeStrategies(msg.items)
	case actionRequestMsg:
		msg.reply <- l.beginAction(ctx, msg.kind, msg.id)
	case commandResultMsg:
		l.finishAction(ctx, msg)
	case queryMsg:
		msg.fn(l)
		close(msg.done)
	}
}

// post delivers a message to the loop, giving up when the caller's context is
// cancelled or the loop has been torn down.
func (l *Loop) post(ctx context.Context, m message) error {
	select {
	case l.msgs <- m:
		return nil
	case <-l.done:
		return domain.ErrTornDown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ApplySnapshot folds one poll result into the status. Called by the poller.
func (l *Loop) ApplySnapshot(ctx context.Context, snap domain.StatusSnapshot) error {
	return l.post(ctx, snapshotMsg{snap: snap})
}

// ApplyEvent folds one decoded push-channel event into the status. Called by
// the feeds.
func (l *Loop) ApplyEvent(ctx context.Context, ev domain.Event) error {
	return l.post(ctx, eventMsg{ev: ev})
}

// ---------------------------------------------------------------------------
// Merging
// ---------------------------------------------------------------------------

// mergeSnapshot applies last-writer-wins per field, except the price: a
// polled price is accepted only when no push-derived price has arrived within
// the sampling window, so a slow poll response can never roll the price back.
func (l *Loop) mergeSnapshot(ctx context.Context, snap domain.StatusSnapshot) {
	now := l.now()

	l.status.Running = snap.Running
	l.status.LoggedIn = snap.LoggedIn

	if snap.HasPrice {
		if l.lastPushPrice.IsZero() || now.Sub(l.lastPushPrice) > trendWindow {
			l.updatePrice(ctx, snap.Price, now)
		}
	}
}

func (l *Loop) mergeEvent(ctx context.Context, ev domain.Event) {
	now := l.now()
	l.status.LastEvent = &ev

	switch ev.Type {
	case domain.EventPriceUpdate:
		if l.updatePrice(ctx, ev.Price, now) {
			l.lastPushPrice = now
		}

	case domain.EventOrderCreated:
		if p, ok := l.progress[ev.StrategyID]; ok {
			p.Current++
		}

	case domain.EventStrategyStarted:
		if _, ok := l.progress[ev.StrategyID]; !ok {
			// Stale or duplicate; must not resurrect a cleared pending state.
			return
		}
		delete(l.progress, ev.StrategyID)
		delete(l.pending, ev.StrategyID)
		l.reloadStrategies(ctx)
		l.toasts.Show(notify.KindSuccess,
			formatStarted(ev.StrategyID, ev.OrdersCount))

	case domain.EventOrderFilled:
		l.toasts.Show(notify.KindSuccess, formatFilled(ev))
		l.reloadStrategies(ctx)

	case domain.EventSignalCreated, domain.EventSignalUpdated:
		if ev.Signal != nil {
			l.signals[ev.Signal.ID] = *ev.Signal
		}
	}
}

// updatePrice normalizes and applies one price observation. A value that does
// not parse to a finite number is rejected silently: the previous price and
// trend stay untouched. Returns whether the sample was accepted.
func (l *Loop) updatePrice(ctx context.Context, raw string, now time.Time) bool {
	v, ok := domain.ParsePrice(raw)
	if !ok {
		return false
	}

	l.status.CurrentPrice = v
	l.status.HasPrice = true
	l.status.Trend = l.trend.Observe(v, now)

	if l.mirror != nil {
		go func() {
			mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := l.mirror.Publish(mctx, l.symbol, v, now); err != nil {
				l.logger.Debug("price mirror publish failed",
					slog.String("error", err.Error()),
				)
			}
		}()
	}
	return true
}

func (l *Loop) mergeStrategies(items []domain.Strategy) {
	cache := make(map[int64]domain.Strategy, len(items))
	for _, s := range items {
		cache[s.ID] = s
	}
	l.strategies = cache
}

// reloadStrategies refetches the canonical strategy list in the background
// and posts the result back as a message. A failed reload keeps the previous
// cache.
func (l *Loop) reloadStrategies(ctx context.Context) {
	go func() {
		items, err := l.backend.ListStrategies(ctx, "")
		if err != nil {
			l.logger.Warn("canonical strategy reload failed",
				slog.String("error", err.Error()),
			)
			return
		}
		_ = l.post(ctx, strategiesMsg{items: items})
	}()
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// query runs fn on the loop goroutine and waits for it to complete.
func (l *Loop) query(fn func(*Loop)) error {
	q := queryMsg{fn: fn, done: make(chan struct{})}
	select {
	case l.msgs <- q:
	case <-l.done:
		return domain.ErrTornDown
	}
	select {
	case <-q.done:
		return nil
	case <-l.done:
		return domain.ErrTornDown
	}
}

// Status returns a copy of the reconciled bot status.
func (l *Loop) Status() (domain.BotStatus, error) {
	var out domain.BotStatus
	err := l.query(func(l *Loop) {
		out = l.status
		if l.status.LastEvent != nil {
			ev := *l.status.LastEvent
			out.LastEvent = &ev
		}
	})
	return out, err
}

// Strategies returns the cached strategy list, newest first.
func (l *Loop) Strategies() ([]domain.Strategy, error) {
	var out []domain.Strategy
	err := l.query(func(l *Loop) {
		out = make([]domain.Strategy, 0, len(l.strategies))
		for _, s := range l.strategies {
			out = append(out, s)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Progress returns the startup progress for a strategy, if a start action is
// in flight for it.
func (l *Loop) Progress(id int64) (domain.StartupProgress, bool, error) {
	var (
		out domain.StartupProgress
		ok  bool
	)
	err := l.query(func(l *Loop) {
		if p, found := l.progress[id]; found {
			out = *p
			ok = true
		}
	})
	return out, ok, err
}

// ActionPending reports whether a lifecycle action is in flight for the
// strategy.
func (l *Loop) ActionPending(id int64) (bool, error) {
	var ok bool
	err := l.query(func(l *Loop) {
		_, ok = l.pending[id]
	})
	return ok, err
}

// Signals returns a copy of the live signal cache, newest first.
func (l *Loop) Signals() ([]domain.Signal, error) {
	var out []domain.Signal
	err := l.query(func(l *Loop) {
		out = make([]domain.Signal, 0, len(l.signals))
		for _, s := range l.signals {
			out = append(out, s)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
