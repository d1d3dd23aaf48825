package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"rollcall/internal/attendance/handler/mocks"
	"rollcall/internal/attendance/models"
	"rollcall/internal/platform/middleware"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/testutil"
)

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (*middleware.Claims, error) {
	if token == "teacher-token" {
		return &middleware.Claims{Actor: "teacher-1", Role: "teacher"}, nil
	}
	return nil, errors.New("invalid token")
}

type HandlerSuite struct {
	suite.Suite
	router  chi.Router
	service *mocks.MockService
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, staticValidator{}, logger, nil)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) postJSON(path string, body any, token string) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *HandlerSuite) TestSubmitRecorded() {
	var got models.Submission
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, sub models.Submission) (models.Record, error) {
			got = sub
			return models.Record{
				StudentName: sub.StudentName,
				StudentRoll: sub.StudentRoll,
				ClassID:     sub.ClassID,
				SubmittedAt: time.Date(2026, 3, 9, 9, 15, 0, 0, time.UTC),
				NetworkFlag: models.NetworkFlagNo,
			}, nil
		})

	w := s.postJSON("/api/attendance", map[string]any{
		"student_name": "Asha Verma",
		"student_roll": "21CS041",
		"class_id":     "CSE-3A",
		"lat":          28.6,
		"lng":          77.202,
		"gps_status":   "ok",
		"device_id":    "android-f3a1",
	}, "")

	s.Require().Equal(http.StatusCreated, w.Code)

	var resp SubmitResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("recorded", resp.Status)
	s.Equal("21CS041", resp.StudentRoll)
	s.Equal("No", resp.NetworkFlag)

	s.Equal("28.6", got.Lat)
	s.Equal("77.202", got.Lng)
	s.Equal("android-f3a1", got.DeviceID)
	s.NotEmpty(got.SourceIP, "connection address must reach the service")
}

func (s *HandlerSuite) TestSubmitStringCoordinatesAccepted() {
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, sub models.Submission) (models.Record, error) {
			s.Equal("28.6000", sub.Lat)
			return models.Record{StudentRoll: sub.StudentRoll, SubmittedAt: time.Now()}, nil
		})

	w := s.postJSON("/api/attendance", map[string]any{
		"student_name": "Asha Verma",
		"student_roll": "21CS041",
		"class_id":     "CSE-3A",
		"lat":          "28.6000",
		"lng":          "77.2020",
		"gps_status":   "ok",
	}, "")
	s.Equal(http.StatusCreated, w.Code)
}

func (s *HandlerSuite) TestSubmitMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/attendance", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestSubmitErrorsMapToStatus() {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", dErrors.New(dErrors.CodeBadRequest, "missing required fields: lat"), http.StatusBadRequest},
		{"geofence", dErrors.New(dErrors.CodeForbidden, "outside the allowed range"), http.StatusForbidden},
		{"duplicate", dErrors.New(dErrors.CodeConflict, "duplicate submission"), http.StatusConflict},
		{"upstream", dErrors.New(dErrors.CodeUnavailable, "attendance ledger unavailable"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(models.Record{}, tc.err)

			w := s.postJSON("/api/attendance", map[string]any{
				"student_name": "Asha Verma",
				"student_roll": "21CS041",
				"class_id":     "CSE-3A",
				"lat":          "28.6",
				"lng":          "77.2",
				"gps_status":   "ok",
			}, "")
			s.Equal(tc.status, w.Code)

			var resp ErrorResponse
			s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
			s.NotEmpty(resp.Error)
		})
	}
}

func (s *HandlerSuite) TestSubmitFallsBackToContextDevice() {
	// Calling the handler directly with pre-seeded context covers the path
	// where the payload omits device_id and the middleware-provided one is
	// used instead.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, staticValidator{}, logger, nil)

	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, sub models.Submission) (models.Record, error) {
			s.Equal("cookie-device", sub.DeviceID)
			s.Equal("203.0.113.7", sub.SourceIP)
			return models.Record{StudentRoll: sub.StudentRoll, SubmittedAt: time.Now()}, nil
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/attendance", map[string]any{
		"student_name": "Asha Verma",
		"student_roll": "21CS041",
		"class_id":     "CSE-3A",
		"lat":          "28.6",
		"lng":          "77.2",
		"gps_status":   "ok",
	})
	req = testutil.WithClientMetadata(req, "203.0.113.7", "test-agent")
	req = testutil.WithDeviceID(req, "cookie-device")

	w := httptest.NewRecorder()
	h.handleSubmit(w, req)
	s.Equal(http.StatusCreated, w.Code)
}

func (s *HandlerSuite) TestListRequiresAuth() {
	req := httptest.NewRequest(http.MethodGet, "/api/attendance/CSE-3A", nil)
	w := s.do(req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerSuite) TestListReturnsLedger() {
	s.service.EXPECT().List(gomock.Any(), "CSE-3A").Return([]models.Record{
		{
			StudentName: "Asha Verma",
			StudentRoll: "21CS041",
			SubmittedAt: time.Date(2026, 3, 9, 9, 15, 0, 0, time.UTC),
			NetworkFlag: models.NetworkFlagNo,
			GPSStatus:   "ok",
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/attendance/CSE-3A", nil)
	req.Header.Set("Authorization", "Bearer teacher-token")
	w := s.do(req)

	s.Require().Equal(http.StatusOK, w.Code)
	var resp ListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("CSE-3A", resp.ClassID)
	s.Equal(1, resp.Count)
	s.Require().Len(resp.Records, 1)
	s.Equal("21CS041", resp.Records[0].StudentRoll)
}

func (s *HandlerSuite) TestRemoveDefaulter() {
	s.service.EXPECT().RemoveDefaulter(gomock.Any(), "CSE-3A", "21CS041").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/attendance/CSE-3A/21CS041", nil)
	req.Header.Set("Authorization", "Bearer teacher-token")
	w := s.do(req)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlerSuite) TestRemoveDefaulterNotFound() {
	s.service.EXPECT().RemoveDefaulter(gomock.Any(), "CSE-3A", "21CS999").
		Return(dErrors.New(dErrors.CodeNotFound, "roll 21CS999 not present in class CSE-3A"))

	req := httptest.NewRequest(http.MethodDelete, "/api/attendance/CSE-3A/21CS999", nil)
	req.Header.Set("Authorization", "Bearer teacher-token")
	w := s.do(req)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestPublishAnchor() {
	s.service.EXPECT().PublishAnchor(gomock.Any(), "CSE-3A", 28.6, 77.2, "QX7-221").Return(nil)

	w := s.postJSON("/api/location", PublishAnchorRequest{
		ClassID:   "CSE-3A",
		Lat:       28.6,
		Lng:       77.2,
		ProofCode: "QX7-221",
	}, "teacher-token")
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlerSuite) TestPublishAnchorRequiresAuth() {
	w := s.postJSON("/api/location", PublishAnchorRequest{ClassID: "CSE-3A"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}
