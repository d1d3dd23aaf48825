package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands events to the background worker. Emission never blocks the
// request path: when the inbox is full the event is dropped with a warning,
// since attendance commits must not stall on the audit sink.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, event dropped",
			"action", event.Action,
			"class_id", event.ClassID,
		)
	}
}
