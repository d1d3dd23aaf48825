// Package audit records who changed which ledger and why. Events are
// append-only; nothing in the service updates or deletes them.
package audit

import (
	"context"
	"time"
)

const (
	ActionCommitted        = "attendance_committed"
	ActionRejected         = "attendance_rejected"
	ActionDefaulterRemoved = "defaulter_removed"
	ActionAnchorPublished  = "anchor_published"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	RequestID   string
	Actor       string
	ClassID     string
	StudentRoll string
	Action      string
	Reason      string
	SourceIP    string
}

// Store persists events. Append-only by contract.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByClass(ctx context.Context, classID string) ([]Event, error)
}
