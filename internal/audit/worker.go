package audit

import (
	"context"
	"log/slog"
)

// Worker consumes events from the inbox and persists them. A store failure is
// logged and the worker keeps draining; losing one audit row is better than
// backing up the channel into the request path.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"class_id", event.ClassID,
					"error", err,
				)
			}
		}
	}
}
