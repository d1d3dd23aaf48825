package handler

import (
	"context"
	"encoding/json"
	"time"

	"rollcall/internal/attendance/models"
	"rollcall/pkg/requestcontext"
)

// SubmitRequest is the student submission payload. Coordinates accept both
// JSON numbers and strings; phone clients disagree on which one they send.
type SubmitRequest struct {
	StudentName string      `json:"student_name"`
	StudentRoll string      `json:"student_roll"`
	ClassID     string      `json:"class_id"`
	ProofCode   string      `json:"proof_code,omitempty"`
	Lat         json.Number `json:"lat"`
	Lng         json.Number `json:"lng"`
	GPSStatus   string      `json:"gps_status"`
	DeviceID    string      `json:"device_id,omitempty"`
}

func (r SubmitRequest) toSubmission(ctx context.Context) models.Submission {
	deviceID := r.DeviceID
	if deviceID == "" {
		deviceID = requestcontext.DeviceID(ctx)
	}
	return models.Submission{
		StudentName: r.StudentName,
		StudentRoll: r.StudentRoll,
		ClassID:     r.ClassID,
		ProofCode:   r.ProofCode,
		Lat:         r.Lat.String(),
		Lng:         r.Lng.String(),
		GPSStatus:   r.GPSStatus,
		DeviceID:    deviceID,
		SourceIP:    requestcontext.ClientIP(ctx),
	}
}

// PublishAnchorRequest sets the class location and, optionally, the proof
// code for the session.
type PublishAnchorRequest struct {
	ClassID   string  `json:"class_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	ProofCode string  `json:"proof_code,omitempty"`
}

type SubmitResponse struct {
	Status        string `json:"status"`
	StudentRoll   string `json:"student_roll"`
	ClassID       string `json:"class_id"`
	SubmittedAt   string `json:"submitted_at"`
	NetworkFlag   string `json:"network_flag"`
	DuplicateFlag bool   `json:"duplicate_flag"`
}

func newSubmitResponse(rec models.Record) SubmitResponse {
	return SubmitResponse{
		Status:        "recorded",
		StudentRoll:   rec.StudentRoll,
		ClassID:       rec.ClassID,
		SubmittedAt:   rec.SubmittedAt.Format(time.RFC3339),
		NetworkFlag:   string(rec.NetworkFlag),
		DuplicateFlag: rec.DuplicateFlag,
	}
}

type RecordResponse struct {
	StudentName   string `json:"student_name"`
	StudentRoll   string `json:"student_roll"`
	SubmittedAt   string `json:"submitted_at"`
	NetworkFlag   string `json:"network_flag"`
	GPSStatus     string `json:"gps_status"`
	DuplicateFlag bool   `json:"duplicate_flag"`
}

type ListResponse struct {
	ClassID string           `json:"class_id"`
	Count   int              `json:"count"`
	Records []RecordResponse `json:"records"`
}

func newListResponse(classID string, rows []models.Record) ListResponse {
	records := make([]RecordResponse, 0, len(rows))
	for _, r := range rows {
		records = append(records, RecordResponse{
			StudentName:   r.StudentName,
			StudentRoll:   r.StudentRoll,
			SubmittedAt:   r.SubmittedAt.Format(time.RFC3339),
			NetworkFlag:   string(r.NetworkFlag),
			GPSStatus:     r.GPSStatus,
			DuplicateFlag: r.DuplicateFlag,
		})
	}
	return ListResponse{ClassID: classID, Count: len(records), Records: records}
}

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
