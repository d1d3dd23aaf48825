// Package geo resolves class anchors and validates submission coordinates
// against the geofence.
package geo

import "context"

// Anchor is the reference location a teacher publishes for a class. It is
// owned by the teacher-side publish flow; the submission path only reads it.
type Anchor struct {
	ClassID string  `json:"class_id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	// ProofHash, when set, is the bcrypt hash of the session's proof code.
	ProofHash string `json:"proof_hash,omitempty"`
}

// Resolver fetches the current anchor for a class. A sentinel.ErrNotFound
// means the teacher has not published a location; callers must treat that as
// "cannot validate", never as "valid everywhere".
type Resolver interface {
	Resolve(ctx context.Context, classID string) (Anchor, error)
}

// Publisher refreshes a class anchor. Separate from Resolver so the
// submission path cannot accidentally write.
type Publisher interface {
	Publish(ctx context.Context, anchor Anchor) error
}
