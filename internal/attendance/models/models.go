// Package models defines the attendance domain types shared by the geo,
// ledger, dedup, and service packages.
package models

import (
	"strconv"
	"strings"
	"time"

	dErrors "rollcall/pkg/domain-errors"
)

// NetworkFlag is the advisory VPN/proxy classification stored with a record.
type NetworkFlag string

const (
	NetworkFlagYes     NetworkFlag = "Yes"
	NetworkFlagNo      NetworkFlag = "No"
	NetworkFlagUnknown NetworkFlag = "Unknown"
)

// Submission is an inbound attendance request as received from the HTTP
// boundary. Coordinates arrive as strings; the domain does its own numeric
// parsing so a bad value fails with a specific error rather than a JSON one.
type Submission struct {
	StudentName string
	StudentRoll string
	ClassID     string
	ProofCode   string
	Lat         string
	Lng         string
	GPSStatus   string
	DeviceID    string
	// SourceIP is taken from the connection, never from the payload.
	SourceIP string
}

// Validate checks required fields and parses coordinates. Latitude must be in
// [-90,90] and longitude in [-180,180]; out-of-bounds values are rejected
// here, before any distance math sees them.
func (s Submission) Validate() (lat, lng float64, err error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"student_name", s.StudentName},
		{"student_roll", s.StudentRoll},
		{"class_id", s.ClassID},
		{"lat", s.Lat},
		{"lng", s.Lng},
		{"gps_status", s.GPSStatus},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return 0, 0, dErrors.Newf(dErrors.CodeBadRequest, "missing required fields: %s", strings.Join(missing, ", "))
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(s.Lat), 64)
	if err != nil {
		return 0, 0, dErrors.New(dErrors.CodeBadRequest, "lat is not numeric")
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(s.Lng), 64)
	if err != nil {
		return 0, 0, dErrors.New(dErrors.CodeBadRequest, "lng is not numeric")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, dErrors.New(dErrors.CodeBadRequest, "coordinates out of bounds")
	}
	return lat, lng, nil
}

// Record is one committed ledger row. Immutable once written; defaulter
// removal rewrites the ledger without the row rather than mutating it.
type Record struct {
	StudentName   string
	StudentRoll   string
	ClassID       string
	ProofCode     string
	Lat           float64
	Lng           float64
	SubmittedAt   time.Time
	NetworkFlag   NetworkFlag
	GPSStatus     string
	DeviceID      string
	DuplicateFlag bool

	// IP is carried in memory for duplicate detection within a transaction.
	// The v1 ledger schema does not persist it.
	IP string
}
