package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is the interface that each external notification channel implements.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier forwards toasts to one or more Senders, filtered by toast kind so
// operators receive only the alerts they care about (typically errors and
// warnings, not every success).
type Notifier struct {
	senders []Sender
	kinds   map[Kind]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only toasts
// whose kind appears in kinds are forwarded; an empty list forwards all.
func NewNotifier(senders []Sender, kinds []string, logger *slog.Logger) *Notifier {
	allowed := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		allowed[Kind(strings.ToLower(strings.TrimSpace(k)))] = true
	}
	return &Notifier{
		senders: senders,
		kinds:   allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Forward delivers a toast to all senders if its kind passes the filter. A
// single sender failure does not prevent delivery to the rest; failures are
// collected into one combined error.
func (n *Notifier) Forward(ctx context.Context, toast Toast) error {
	if len(n.senders) == 0 {
		return nil
	}
	if len(n.kinds) > 0 && !n.kinds[toast.Kind] {
		return nil
	}

	title := titleFor(toast.Kind)

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, toast.Message); err != nil {
			n.logger.Error("sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(errs, "; "))
	}
	return nil
}

func titleFor(kind Kind) string {
	switch kind {
	case KindError:
		return "Gridmon error"
	case KindWarning:
		return "Gridmon warning"
	default:
		return "Gridmon"
	}
}
