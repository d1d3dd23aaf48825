// Package handler exposes the attendance HTTP endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/attendance/models"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/middleware"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

// Service defines the attendance operations the transport depends on.
type Service interface {
	Submit(ctx context.Context, sub models.Submission) (models.Record, error)
	List(ctx context.Context, classID string) ([]models.Record, error)
	RemoveDefaulter(ctx context.Context, classID, roll string) error
	PublishAnchor(ctx context.Context, classID string, lat, lng float64, proofCode string) error
}

// Handler handles the attendance endpoints.
type Handler struct {
	logger     *slog.Logger
	attendance Service
	metrics    *metrics.Metrics
	validator  middleware.TokenValidator
}

// New creates an attendance Handler.
func New(attendance Service, validator middleware.TokenValidator, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		attendance: attendance,
		metrics:    m,
		validator:  validator,
	}
}

// Register mounts the attendance routes. Submission is open to students; the
// listing, defaulter, and location routes require a teacher or admin token.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.Latency(h.metrics))
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Device)

	router.Group(func(pub chi.Router) {
		pub.Use(middleware.ContentTypeJSON)
		pub.Post("/api/attendance", h.handleSubmit)
	})

	router.Group(func(priv chi.Router) {
		priv.Use(middleware.RequireAuth(h.validator, h.logger))
		priv.Get("/api/attendance/{classID}", h.handleList)
		priv.Delete("/api/attendance/{classID}/{roll}", h.handleRemoveDefaulter)
		priv.With(middleware.ContentTypeJSON).Post("/api/location", h.handlePublishAnchor)
	})

	r.Mount("/", router)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submission body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.attendance.Submit(ctx, req.toSubmission(ctx))
	if err != nil {
		h.logError(ctx, "submission rejected", err)
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newSubmitResponse(record))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	classID := chi.URLParam(r, "classID")

	rows, err := h.attendance.List(ctx, classID)
	if err != nil {
		h.logError(ctx, "ledger listing failed", err)
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(classID, rows))
}

func (h *Handler) handleRemoveDefaulter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	classID := chi.URLParam(r, "classID")
	roll := chi.URLParam(r, "roll")

	if err := h.attendance.RemoveDefaulter(ctx, classID, roll); err != nil {
		h.logError(ctx, "defaulter removal failed", err)
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePublishAnchor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PublishAnchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.attendance.PublishAnchor(ctx, req.ClassID, req.Lat, req.Lng, req.ProofCode); err != nil {
		h.logError(ctx, "anchor publish failed", err)
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// logError keeps the noise proportional: client mistakes log at warn,
// everything else at error.
func (h *Handler) logError(ctx context.Context, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeForbidden, dErrors.CodeConflict, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Code:  string(code),
		Error: dErrors.MessageOf(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
