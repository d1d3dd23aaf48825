// Package service orchestrates the attendance commit pipeline: validation,
// geofence check, network classification, duplicate detection, and the
// optimistic-concurrency ledger write.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rollcall/internal/attendance/dedup"
	"rollcall/internal/attendance/geo"
	"rollcall/internal/attendance/ledger"
	"rollcall/internal/attendance/metrics"
	"rollcall/internal/attendance/models"
	"rollcall/internal/audit"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/secrets"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

const (
	maxCommitAttempts = 3
	baseBackoff       = 100 * time.Millisecond
)

// NetworkClassifier decides the advisory VPN/proxy flag for a source address.
type NetworkClassifier interface {
	Classify(ctx context.Context, ip string) models.NetworkFlag
}

// Config carries the policy knobs the orchestrator needs.
type Config struct {
	// GeofenceRadiusM is the accept radius around the class anchor.
	GeofenceRadiusM float64
	// FlagDuplicates accepts duplicate submissions with the flag set instead
	// of rejecting them.
	FlagDuplicates bool
	// RejectVPN turns a "Yes" network flag from advisory into a rejection.
	RejectVPN bool
}

// Service is the attendance orchestrator.
type Service struct {
	anchors    geo.Resolver
	publisher  geo.Publisher
	store      ledger.Store
	classifier NetworkClassifier
	detector   *dedup.Detector
	auditor    *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	cfg        Config
	tracer     trace.Tracer

	// sleep is swapped in tests so backoff does not slow the suite.
	sleep func(ctx context.Context, d time.Duration)
}

// New wires the orchestrator. metrics may be nil in tests.
func New(
	anchors geo.Resolver,
	publisher geo.Publisher,
	store ledger.Store,
	classifier NetworkClassifier,
	detector *dedup.Detector,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	return &Service{
		anchors:    anchors,
		publisher:  publisher,
		store:      store,
		classifier: classifier,
		detector:   detector,
		auditor:    auditor,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
		tracer:     otel.Tracer("rollcall/attendance"),
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Submit validates and commits one attendance submission. On success the
// returned record is exactly the row appended to the ledger.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.Submit",
		trace.WithAttributes(attribute.String("class_id", sub.ClassID)))
	defer span.End()

	lat, lng, err := sub.Validate()
	if err != nil {
		s.metrics.SubmissionRejected("validation")
		return models.Record{}, err
	}

	anchor, err := s.resolveAnchor(ctx, sub.ClassID)
	if err != nil {
		s.metrics.SubmissionRejected("geo_anchor")
		return models.Record{}, err
	}

	if anchor.ProofHash != "" {
		if err := secrets.Verify(sub.ProofCode, anchor.ProofHash); err != nil {
			s.reject(ctx, sub, "proof_code", "proof code rejected")
			return models.Record{}, dErrors.New(dErrors.CodeForbidden, "proof code rejected")
		}
	}

	if !geo.WithinRange(lat, lng, anchor, s.cfg.GeofenceRadiusM) {
		dist := geo.DistanceM(lat, lng, anchor.Lat, anchor.Lng)
		s.reject(ctx, sub, "geofence", fmt.Sprintf("%.0fm from class location", dist))
		return models.Record{}, dErrors.Newf(dErrors.CodeForbidden,
			"location is %.0fm from the class, outside the %.0fm range", dist, s.cfg.GeofenceRadiusM)
	}

	flag := s.classifier.Classify(ctx, sub.SourceIP)
	s.metrics.NetworkFlag(string(flag))
	if s.cfg.RejectVPN && flag == models.NetworkFlagYes {
		s.reject(ctx, sub, "network", "vpn or proxy detected")
		return models.Record{}, dErrors.New(dErrors.CodeForbidden, "submissions over vpn or proxy are not accepted")
	}

	record := models.Record{
		StudentName: strings.TrimSpace(sub.StudentName),
		StudentRoll: strings.TrimSpace(sub.StudentRoll),
		ClassID:     sub.ClassID,
		ProofCode:   sub.ProofCode,
		Lat:         lat,
		Lng:         lng,
		SubmittedAt: requestcontext.Now(ctx).UTC(),
		NetworkFlag: flag,
		GPSStatus:   sub.GPSStatus,
		DeviceID:    s.deviceIdentity(ctx, sub),
		IP:          sub.SourceIP,
	}

	committed, err := s.commit(ctx, record)
	if err != nil {
		return models.Record{}, err
	}

	s.metrics.SubmissionAccepted()
	if committed.DuplicateFlag {
		s.metrics.DuplicateFlagged()
	}
	s.auditor.Emit(ctx, audit.Event{
		RequestID:   requestcontext.RequestID(ctx),
		ClassID:     committed.ClassID,
		StudentRoll: committed.StudentRoll,
		Action:      audit.ActionCommitted,
		SourceIP:    committed.IP,
	})
	return committed, nil
}

// commit runs the read-merge-write loop under optimistic concurrency. The
// duplicate check reruns on every attempt because a competing writer may have
// added the colliding row after our previous read.
func (s *Service) commit(ctx context.Context, record models.Record) (models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.commit")
	defer span.End()

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		if attempt > 0 {
			s.sleep(ctx, baseBackoff<<(attempt-1))
			if ctx.Err() != nil {
				return models.Record{}, fmt.Errorf("commit cancelled: %w", ctx.Err())
			}
		}

		rows, token, err := s.store.Read(ctx, record.ClassID)
		if err != nil {
			return models.Record{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendance ledger unavailable")
		}

		record.DuplicateFlag = false
		if match, found := s.detector.Check(rows, record); found {
			if !s.cfg.FlagDuplicates {
				s.reject(ctx, models.Submission{
					StudentRoll: record.StudentRoll,
					ClassID:     record.ClassID,
					SourceIP:    record.IP,
				}, "duplicate", match.Reason())
				return models.Record{}, dErrors.Newf(dErrors.CodeConflict, "duplicate submission: %s", match.Reason())
			}
			record.DuplicateFlag = true
		}

		_, err = s.store.Write(ctx, record.ClassID, append(rows, record), token)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return models.Record{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendance ledger unavailable")
		}

		s.metrics.WriteConflict()
		span.AddEvent("write conflict")
		s.logger.InfoContext(ctx, "ledger write conflict, retrying",
			"class_id", record.ClassID,
			"attempt", attempt+1,
		)
	}
	return models.Record{}, dErrors.New(dErrors.CodeUnavailable,
		"ledger is under heavy concurrent updates, try again")
}

// List returns the committed rows for a class. A class with no ledger yet
// lists as empty rather than failing.
func (s *Service) List(ctx context.Context, classID string) ([]models.Record, error) {
	if strings.TrimSpace(classID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "class_id is required")
	}
	rows, _, err := s.store.Read(ctx, classID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendance ledger unavailable")
	}
	return rows, nil
}

// RemoveDefaulter rewrites the class ledger without the given roll's rows.
// Runs under the same conflict-retry discipline as Submit.
func (s *Service) RemoveDefaulter(ctx context.Context, classID, roll string) error {
	if strings.TrimSpace(classID) == "" || strings.TrimSpace(roll) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "class_id and roll are required")
	}

	ctx, span := s.tracer.Start(ctx, "attendance.RemoveDefaulter",
		trace.WithAttributes(attribute.String("class_id", classID)))
	defer span.End()

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		if attempt > 0 {
			s.sleep(ctx, baseBackoff<<(attempt-1))
			if ctx.Err() != nil {
				return fmt.Errorf("removal cancelled: %w", ctx.Err())
			}
		}

		rows, token, err := s.store.Read(ctx, classID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "attendance ledger unavailable")
		}
		if token == "" {
			return dErrors.Newf(dErrors.CodeNotFound, "no ledger for class %s", classID)
		}

		kept := rows[:0:0]
		for _, r := range rows {
			if r.StudentRoll != roll {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(rows) {
			return dErrors.Newf(dErrors.CodeNotFound, "roll %s not present in class %s", roll, classID)
		}

		_, err = s.store.Write(ctx, classID, kept, token)
		if err == nil {
			s.metrics.DefaulterRemoved()
			s.auditor.Emit(ctx, audit.Event{
				RequestID:   requestcontext.RequestID(ctx),
				Actor:       requestcontext.Actor(ctx),
				ClassID:     classID,
				StudentRoll: roll,
				Action:      audit.ActionDefaulterRemoved,
			})
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "attendance ledger unavailable")
		}
		s.metrics.WriteConflict()
	}
	return dErrors.New(dErrors.CodeUnavailable, "ledger is under heavy concurrent updates, try again")
}

// PublishAnchor stores the class location, with the bcrypt hash of the proof
// code when one is set for the session.
func (s *Service) PublishAnchor(ctx context.Context, classID string, lat, lng float64, proofCode string) error {
	if strings.TrimSpace(classID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "class_id is required")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return dErrors.New(dErrors.CodeBadRequest, "coordinates out of bounds")
	}

	anchor := geo.Anchor{ClassID: classID, Lat: lat, Lng: lng}
	if proofCode != "" {
		hash, err := secrets.Hash(proofCode)
		if err != nil {
			return err
		}
		anchor.ProofHash = hash
	}

	if err := s.publisher.Publish(ctx, anchor); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "anchor store unavailable")
	}

	s.auditor.Emit(ctx, audit.Event{
		RequestID: requestcontext.RequestID(ctx),
		Actor:     requestcontext.Actor(ctx),
		ClassID:   classID,
		Action:    audit.ActionAnchorPublished,
	})
	return nil
}

// resolveAnchor translates store errors at the boundary. A missing anchor is a
// refusal, never an open gate.
func (s *Service) resolveAnchor(ctx context.Context, classID string) (geo.Anchor, error) {
	anchor, err := s.anchors.Resolve(ctx, classID)
	switch {
	case err == nil:
		return anchor, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return geo.Anchor{}, dErrors.Newf(dErrors.CodeForbidden, "no class location published for %s", classID)
	default:
		return geo.Anchor{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "class location store unavailable")
	}
}

// deviceIdentity prefers the submitted device id, then the middleware
// fingerprint, so the device dedup policy still has something to match when a
// client omits the field.
func (s *Service) deviceIdentity(ctx context.Context, sub models.Submission) string {
	if d := strings.TrimSpace(sub.DeviceID); d != "" {
		return d
	}
	return requestcontext.DeviceFingerprint(ctx)
}

func (s *Service) reject(ctx context.Context, sub models.Submission, reason, detail string) {
	s.metrics.SubmissionRejected(reason)
	s.auditor.Emit(ctx, audit.Event{
		RequestID:   requestcontext.RequestID(ctx),
		ClassID:     sub.ClassID,
		StudentRoll: sub.StudentRoll,
		Action:      audit.ActionRejected,
		Reason:      detail,
		SourceIP:    sub.SourceIP,
	})
}
