// Package dedup detects duplicate attendance submissions against the rows
// already committed to a class ledger.
package dedup

import (
	"fmt"
	"strings"

	"rollcall/internal/attendance/models"
	dErrors "rollcall/pkg/domain-errors"
	stringsutil "rollcall/pkg/platform/strings"
)

// Policy names one duplicate-detection rule.
type Policy string

const (
	// PolicyRoll matches on roll number within the class.
	PolicyRoll Policy = "roll"
	// PolicyIP matches on submitting IP. Advisory on campus networks, where
	// NAT puts a whole lab behind one address.
	PolicyIP Policy = "ip"
	// PolicyDevice matches on device identifier.
	PolicyDevice Policy = "device"
	// PolicyNameRollDay matches name plus roll on the same calendar day (UTC).
	PolicyNameRollDay Policy = "name-roll-day"
)

// evaluation order is fixed so the reported reason is deterministic no matter
// how the configuration lists the policies.
var policyOrder = []Policy{PolicyRoll, PolicyIP, PolicyDevice, PolicyNameRollDay}

// ParsePolicies validates a configured policy list and returns it de-duplicated
// in canonical evaluation order. An empty list is allowed and disables
// detection entirely.
func ParsePolicies(names []string) ([]Policy, error) {
	cleaned := stringsutil.DedupeAndTrimLower(names)
	enabled := make(map[Policy]bool, len(cleaned))
	for _, n := range cleaned {
		p := Policy(n)
		switch p {
		case PolicyRoll, PolicyIP, PolicyDevice, PolicyNameRollDay:
			enabled[p] = true
		default:
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown duplicate policy %q", n)
		}
	}
	var out []Policy
	for _, p := range policyOrder {
		if enabled[p] {
			out = append(out, p)
		}
	}
	return out, nil
}

// HasPolicy reports whether p is in the enabled set.
func HasPolicy(policies []Policy, p Policy) bool {
	for _, enabled := range policies {
		if enabled == p {
			return true
		}
	}
	return false
}

// Match describes the first existing row a candidate collided with.
type Match struct {
	Row    models.Record
	Policy Policy
}

// Reason is the human-readable collision description used in error messages
// and audit events.
func (m Match) Reason() string {
	switch m.Policy {
	case PolicyRoll:
		return fmt.Sprintf("roll %s already present", m.Row.StudentRoll)
	case PolicyIP:
		return fmt.Sprintf("ip %s already submitted", m.Row.IP)
	case PolicyDevice:
		return fmt.Sprintf("device %s already submitted", m.Row.DeviceID)
	case PolicyNameRollDay:
		return fmt.Sprintf("%s (%s) already submitted today", m.Row.StudentName, m.Row.StudentRoll)
	}
	return string(m.Policy)
}

// Detector evaluates the enabled policies against a ledger snapshot.
type Detector struct {
	policies []Policy
}

// NewDetector builds a detector for the given policy set.
func NewDetector(policies []Policy) *Detector {
	return &Detector{policies: policies}
}

// Check evaluates the policies in canonical order, each against the full
// snapshot oldest row first, and returns the first match. Policy order takes
// precedence over row order so the reported reason is stable.
func (d *Detector) Check(existing []models.Record, candidate models.Record) (Match, bool) {
	for _, p := range d.policies {
		for _, row := range existing {
			if matches(p, row, candidate) {
				return Match{Row: row, Policy: p}, true
			}
		}
	}
	return Match{}, false
}

func matches(p Policy, row, candidate models.Record) bool {
	switch p {
	case PolicyRoll:
		return row.StudentRoll == candidate.StudentRoll
	case PolicyIP:
		return row.IP != "" && row.IP == candidate.IP
	case PolicyDevice:
		return row.DeviceID != "" && row.DeviceID == candidate.DeviceID
	case PolicyNameRollDay:
		return strings.EqualFold(row.StudentName, candidate.StudentName) &&
			row.StudentRoll == candidate.StudentRoll &&
			sameDayUTC(row, candidate)
	}
	return false
}

func sameDayUTC(a, b models.Record) bool {
	ay, am, ad := a.SubmittedAt.UTC().Date()
	by, bm, bd := b.SubmittedAt.UTC().Date()
	return ay == by && am == bm && ad == bd
}
