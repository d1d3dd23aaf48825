// Package ledger reads and writes the per-class attendance ledger held in an
// external versioned object store.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rollcall/internal/attendance/models"
)

// The v1 column layout is a versioned contract with every consumer of the
// stored ledgers. Changing it mid-stream would corrupt existing files, so any
// new layout must go to a new class of ledger instead.
var headerV1 = []string{
	"name", "roll", "class", "proof_code", "lat", "lng",
	"time", "network_flag", "gps_status", "device_id", "duplicate_flag",
}

const timeLayout = time.RFC3339

// EncodeRows serializes records to ledger text: one header line, then one CSV
// line per record in insertion order.
func EncodeRows(rows []models.Record) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(headerV1); err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	for i, r := range rows {
		if err := w.Write(encodeRecord(r)); err != nil {
			return "", fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode ledger: %w", err)
	}
	return sb.String(), nil
}

// DecodeRows parses ledger text. Lines with the wrong column count are
// skipped with a warning rather than failing the read; a single corrupt line
// must never take a whole class's ledger offline.
func DecodeRows(classID, content string, logger *slog.Logger) []models.Record {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1 // column-count validation is ours

	var rows []models.Record
	line := 0
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			// A CSV-level error (bare quote, stray byte) poisons only its own
			// line; the reader resumes at the next one.
			logger.Warn("skipping corrupt ledger line",
				"class_id", classID,
				"line", line,
				"error", err,
			)
			continue
		}
		if line == 1 && len(fields) > 0 && fields[0] == headerV1[0] {
			continue
		}
		if len(fields) != len(headerV1) {
			logger.Warn("skipping malformed ledger line",
				"class_id", classID,
				"line", line,
				"columns", len(fields),
			)
			continue
		}
		rec, err := decodeRecord(classID, fields)
		if err != nil {
			logger.Warn("skipping unparseable ledger line",
				"class_id", classID,
				"line", line,
				"error", err,
			)
			continue
		}
		rows = append(rows, rec)
	}
	return rows
}

func encodeRecord(r models.Record) []string {
	return []string{
		r.StudentName,
		r.StudentRoll,
		r.ClassID,
		r.ProofCode,
		strconv.FormatFloat(r.Lat, 'f', -1, 64),
		strconv.FormatFloat(r.Lng, 'f', -1, 64),
		r.SubmittedAt.Format(timeLayout),
		string(r.NetworkFlag),
		r.GPSStatus,
		r.DeviceID,
		boolFlag(r.DuplicateFlag),
	}
}

func decodeRecord(classID string, f []string) (models.Record, error) {
	lat, err := strconv.ParseFloat(f[4], 64)
	if err != nil {
		return models.Record{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := strconv.ParseFloat(f[5], 64)
	if err != nil {
		return models.Record{}, fmt.Errorf("lng: %w", err)
	}
	at, err := time.Parse(timeLayout, f[6])
	if err != nil {
		return models.Record{}, fmt.Errorf("time: %w", err)
	}
	rec := models.Record{
		StudentName:   f[0],
		StudentRoll:   f[1],
		ClassID:       f[2],
		ProofCode:     f[3],
		Lat:           lat,
		Lng:           lng,
		SubmittedAt:   at,
		NetworkFlag:   models.NetworkFlag(f[7]),
		GPSStatus:     f[8],
		DeviceID:      f[9],
		DuplicateFlag: f[10] == "Yes",
	}
	if rec.ClassID == "" {
		rec.ClassID = classID
	}
	return rec, nil
}

func boolFlag(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
