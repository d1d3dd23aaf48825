package ledger

import (
	"context"

	"rollcall/internal/attendance/models"
)

// Store is the versioned ledger contract. The version token identifies the
// exact persisted content; it is the sole synchronization primitive between
// concurrent writers — optimistic concurrency, not locking.
type Store interface {
	// Read returns the decoded rows and the current version token. An empty
	// token with no error means the ledger does not exist yet.
	Read(ctx context.Context, classID string) ([]models.Record, string, error)

	// Write replaces the ledger with rows, guarded by expectedToken. An empty
	// expectedToken asserts the ledger does not exist (create). Returns the
	// new token, or an error wrapping sentinel.ErrConflict when another
	// writer committed first; the caller must then re-read and redo its
	// merge before retrying.
	Write(ctx context.Context, classID string, rows []models.Record, expectedToken string) (string, error)
}
