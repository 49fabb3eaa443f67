package worker

import (
	"context"
	"log/slog"

	audit "clinic/pkg/platform/audit"
)

// Worker drains audit events from a channel into a store. A failed append is
// logged and the worker moves on; audit delivery never blocks callers.
type Worker struct {
	store     audit.Store
	inbox     <-chan audit.Event
	logger    *slog.Logger
	onFailure func()
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger, onFailure func()) *Worker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Worker{store: store, inbox: inbox, logger: logger, onFailure: onFailure}
}

// Run processes events until the inbox is closed. Cancelling ctx stops it
// early; events still queued are then lost.
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
				if w.onFailure != nil {
					w.onFailure()
				}
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"entity_id", event.EntityID,
					"request_id", event.RequestID,
					"error", err,
				)
			}
		}
	}
}
