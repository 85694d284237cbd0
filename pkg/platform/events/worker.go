package events

import (
	"context"
	"log/slog"
)

// Worker drains an event stream and forwards each event to a downstream
// publisher. It decouples ledger writes from slow external sinks: the ledger
// publishes to a channel, the worker relays to Kafka in the background.
type Worker struct {
	inbox  <-chan Event
	sink   Publisher
	logger *slog.Logger
}

// NewWorker creates a worker reading from inbox and writing to sink.
func NewWorker(inbox <-chan Event, sink Publisher, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, sink: sink, logger: logger}
}

// Run forwards events until the context is cancelled. Forward failures are
// logged and skipped; the channel stream, not the sink, is the delivery
// contract for in-process consumers.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.sink.Publish(ctx, event); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "event forward failed",
						"event_id", event.ID,
						"event_type", event.Type,
						"error", err,
					)
				}
			}
		}
	}
}
