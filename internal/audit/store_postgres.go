package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists events in the audit_events table.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id           UUID PRIMARY KEY,
//	    timestamp    TIMESTAMPTZ NOT NULL,
//	    request_id   TEXT,
//	    actor        TEXT,
//	    class_id     TEXT NOT NULL,
//	    student_roll TEXT,
//	    action       TEXT NOT NULL,
//	    reason       TEXT,
//	    source_ip    TEXT
//	);
//	CREATE INDEX audit_events_class_idx ON audit_events (class_id, timestamp);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (
			id, timestamp, request_id, actor, class_id,
			student_roll, action, reason, source_ip
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		event.RequestID,
		event.Actor,
		event.ClassID,
		event.StudentRoll,
		event.Action,
		event.Reason,
		event.SourceIP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByClass(ctx context.Context, classID string) ([]Event, error) {
	query := `
		SELECT timestamp, request_id, actor, class_id,
		       student_roll, action, reason, source_ip
		FROM audit_events
		WHERE class_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.Timestamp,
			&e.RequestID,
			&e.Actor,
			&e.ClassID,
			&e.StudentRoll,
			&e.Action,
			&e.Reason,
			&e.SourceIP,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
