package worker

import (
	"context"
	"log/slog"

	audit "biblio/pkg/platform/audit"
)

// Worker drains events from a channel into a store. A failing append is logged and
// the event dropped; delivery is best-effort.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run blocks until the inbox is closed (returns nil) or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "failed to deliver event",
					"action", event.Action,
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}
