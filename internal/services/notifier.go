package services

import (
	"context"
	"errors"
	"log/slog"
)

// PanelPublisher announces that a year's panel must be rebuilt downstream.
type PanelPublisher interface {
	PublishPanelSync(ctx context.Context, year int) error
}

// NotifierFunc adapts a function to ChangeNotifier.
type NotifierFunc func(ctx context.Context, year int) error

func (f NotifierFunc) LedgerChanged(ctx context.Context, year int) error {
	return f(ctx, year)
}

// Notifiers fans a change out to every notifier and joins their errors.
type Notifiers []ChangeNotifier

func (n Notifiers) LedgerChanged(ctx context.Context, year int) error {
	var errs []error
	for _, notifier := range n {
		if notifier == nil {
			continue
		}
		if err := notifier.LedgerChanged(ctx, year); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishNotifier forwards changes to a PanelPublisher. A nil publisher makes
// it a no-op, as when AMQP is not configured.
func PublishNotifier(p PanelPublisher) ChangeNotifier {
	return NotifierFunc(func(ctx context.Context, year int) error {
		if p == nil {
			slog.DebugContext(ctx, "AMQP client not available, skipping panel sync message", "year", year)
			return nil
		}
		return p.PublishPanelSync(ctx, year)
	})
}

// notify reports a change without failing the caller; the write it follows
// has already been committed.
func notify(ctx context.Context, n ChangeNotifier, years ...int) {
	if n == nil {
		return
	}
	for _, year := range years {
		if err := n.LedgerChanged(ctx, year); err != nil {
			slog.ErrorContext(ctx, "Failed to notify ledger change", "year", year, "error", err)
		}
	}
}
