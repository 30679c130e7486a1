package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quantflow/gridmon/internal/domain"
	"github.com/quantflow/gridmon/internal/notify"
)

// actionKind identifies a lifecycle command.
type actionKind int

const (
	actionStart actionKind = iota
	actionPause
	actionStop
	actionDelete
)

func (k actionKind) String() string {
	switch k {
	case actionStart:
		return "start"
	case actionPause:
		return "pause"
	case actionStop:
		return "stop"
	case actionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Start issues a start command for the strategy. The command enters a pending
// phase immediately: startup progress is created with the strategy's grid
// count as the total, and further actions on the strategy are refused until
// the matching strategy_started event (or a command failure) clears it.
func (l *Loop) Start(ctx context.Context, id int64) error {
	return l.requestAction(ctx, actionStart, id)
}

// Pause issues a pause command. No optimistic state beyond the pending flag;
// the displayed status changes only after the canonical reload.
func (l *Loop) Pause(ctx context.Context, id int64) error {
	return l.requestAction(ctx, actionPause, id)
}

// Stop issues a stop command, same contract as Pause.
func (l *Loop) Stop(ctx context.Context, id int64) error {
	return l.requestAction(ctx, actionStop, id)
}

// Delete issues a delete command. The operator must confirm explicitly:
// without confirmed the command is never sent and ErrConfirmationRequired is
// returned.
func (l *Loop) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return domain.ErrConfirmationRequired
	}
	return l.requestAction(ctx, actionDelete, id)
}

func (l *Loop) requestAction(ctx context.Context, kind actionKind, id int64) error {
	req := actionRequestMsg{kind: kind, id: id, reply: make(chan error, 1)}
	if err := l.post(ctx, req); err != nil {
		return err
	}
	select {
	case err := <-req.reply:
		return err
	case <-l.done:
		return domain.ErrTornDown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginAction validates a lifecycle request against the cached strategy
// state, records the pending phase, and launches the command. Runs on the
// loop goroutine.
func (l *Loop) beginAction(ctx context.Context, kind actionKind, id int64) error {
	if _, busy := l.pending[id]; busy {
		return fmt.Errorf("state: strategy %d: %w", id, domain.ErrActionPending)
	}

	s, ok := l.strategies[id]
	if !ok {
		return fmt.Errorf("state: strategy %d: %w", id, domain.ErrNotFound)
	}

	var allowed bool
	switch kind {
	case actionStart:
		allowed = s.Status.CanStart()
	case actionPause:
		allowed = s.Status.CanPause()
	case actionStop:
		allowed = s.Status.CanStop()
	case actionDelete:
		allowed = s.Status.CanDelete()
	}
	if !allowed {
		return fmt.Errorf("state: strategy %d is %s, cannot %s", id, s.Status, kind)
	}

	l.pending[id] = kind
	if kind == actionStart {
		l.progress[id] = &domain.StartupProgress{
			StrategyID: id,
			Current:    0,
			Total:      s.GridCount,
		}
	}

	l.logger.Info("lifecycle command issued",
		slog.String("action", kind.String()),
		slog.Int64("strategy_id", id),
	)

	go l.runCommand(ctx, kind, id)
	return nil
}

// runCommand performs the HTTP call off the loop goroutine and posts the
// outcome back as a message.
func (l *Loop) runCommand(ctx context.Context, kind actionKind, id int64) {
	var err error
	switch kind {
	case actionStart:
		err = l.backend.StartStrategy(ctx, id)
	case actionPause:
		err = l.backend.PauseStrategy(ctx, id)
	case actionStop:
		err = l.backend.StopStrategy(ctx, id)
	case actionDelete:
		err = l.backend.DeleteStrategy(ctx, id)
	}
	_ = l.post(ctx, commandResultMsg{kind: kind, id: id, err: err})
}

// finishAction resolves a completed command. Runs on the loop goroutine.
//
// A successful start stays pending: the backend places the grid
// asynchronously and confirmation arrives as a strategy_started event. Every
// other outcome clears the pending phase and reloads canonical state, so the
// operator always sees the server's view rather than a local guess.
func (l *Loop) finishAction(ctx context.Context, res commandResultMsg) {
	if res.err != nil {
		delete(l.pending, res.id)
		delete(l.progress, res.id)
		l.reloadStrategies(ctx)
		l.notifyFailure(res)
		return
	}

	if res.kind == actionStart {
		return
	}

	delete(l.pending, res.id)
	l.reloadStrategies(ctx)
	l.toasts.Show(notify.KindSuccess,
		fmt.Sprintf("Strategy %d %s succeeded", res.id, res.kind))
}

// notifyFailure classifies a command failure. Busy-class rejections are
// retryable and surface as warnings; anything else is an error carrying the
// server detail when one was supplied.
func (l *Loop) notifyFailure(res commandResultMsg) {
	l.logger.Warn("lifecycle command failed",
		slog.String("action", res.kind.String()),
		slog.Int64("strategy_id", res.id),
		slog.String("error", res.err.Error()),
	)

	if errors.Is(res.err, domain.ErrBusy) {
		l.toasts.Show(notify.KindWarning,
			fmt.Sprintf("Server busy, %s of strategy %d was not applied. Try again shortly.", res.kind, res.id))
		return
	}

	msg := domain.ErrorDetail(res.err)
	if msg == "" {
		msg = fmt.Sprintf("Failed to %s strategy %d", res.kind, res.id)
	}
	l.toasts.Show(notify.KindError, msg)
}

func formatStarted(id int64, orders int) string {
	if orders > 0 {
		return fmt.Sprintf("Strategy %d started with %d grid orders", id, orders)
	}
	return fmt.Sprintf("Strategy %d started", id)
}

func formatFilled(ev domain.Event) string {
	if ev.Profit != 0 {
		return fmt.Sprintf("Strategy %d: %s order filled, profit %.2f", ev.StrategyID, ev.Side, ev.Profit)
	}
	return fmt.Sprintf("Strategy %d: %s order filled", ev.StrategyID, ev.Side)
}
