// Package notify provides the operator notification layer: an ephemeral
// in-process toast queue fed by every other component, and an optional
// fan-out of selected toasts to external channels (Telegram, Discord).
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a toast.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// Toast is one ephemeral operator message.
type Toast struct {
	ID        string
	Kind      Kind
	Message   string
	CreatedAt time.Time
}

// defaultTTL is how long a toast stays visible unless dismissed earlier.
const defaultTTL = 5 * time.Second

type toastEntry struct {
	toast Toast
	timer *time.Timer
}

// Toasts is the process-wide toast queue. Every toast gets a freshly
// allocated id, lives at most ttl, and can be dismissed early; dismissal and
// expiry are the same removal operation and are idempotent.
type Toasts struct {
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*toastEntry
	order   []string
	onShow  []func(Toast)
}

// NewToasts creates a toast queue. ttl <= 0 selects the default expiry.
func NewToasts(ttl time.Duration, logger *slog.Logger) *Toasts {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Toasts{
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "toasts")),
		entries: make(map[string]*toastEntry),
	}
}

// OnShow registers a hook invoked for every new toast. Hooks run in their own
// goroutine so a slow hook never blocks Show. Used to bridge toasts into
// external notification channels.
func (t *Toasts) OnShow(fn func(Toast)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onShow = append(t.onShow, fn)
}

// Show enqueues a toast and schedules its expiry.
func (t *Toasts) Show(kind Kind, message string) Toast {
	toast := Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}

	t.mu.Lock()
	entry := &toastEntry{toast: toast}
	entry.timer = time.AfterFunc(t.ttl, func() { t.Dismiss(toast.ID) })
	t.entries[toast.ID] = entry
	t.order = append(t.order, toast.ID)
	hooks := t.onShow
	t.mu.Unlock()

	t.logger.Info("toast",
		slog.String("kind", string(kind)),
		slog.String("message", message),
	)

	for _, fn := range hooks {
		go fn(toast)
	}

	return toast
}

// Dismiss removes a toast. Dismissing an id that no longer exists is a no-op.
func (t *Toasts) Dismiss(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok {
		return
	}
	entry.timer.Stop()
	delete(t.entries, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Active returns the currently visible toasts in the order they were shown.
func (t *Toasts) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Toast, 0, len(t.order))
	for _, id := range t.order {
		if entry, ok := t.entries[id]; ok {
			out = append(out, entry.toast)
		}
	}
	return out
}

// Close dismisses everything and stops the expiry timers.
func (t *Toasts) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, entry := range t.entries {
		entry.timer.Stop()
		delete(t.entries, id)
	}
	t.order = nil
}
