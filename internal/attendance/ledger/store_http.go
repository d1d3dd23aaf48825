package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rollcall/internal/attendance/models"
	"rollcall/pkg/platform/sentinel"
)

var storeDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "rollcall_ledger_store_duration_ms",
	Help:    "Latency of ledger store calls in milliseconds",
	Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
}, []string{"op"})

// HTTPStore talks to the external versioned object store.
//
// Contract, per ledger path {base}/v1/ledgers/{class_id}:
//
//	GET  -> 200 {"content": "...", "version": "..."} | 404
//	PUT  <- {"content": "...", "version": "<expected, omitted on create>"}
//	     -> 200 {"version": "..."} | 409 when the stored version differs
//
// The store replaces the whole file atomically under the version guard, so a
// concurrent reader never observes a partial write.
type HTTPStore struct {
	baseURL string
	token   string
	readc   *http.Client
	writec  *http.Client
	logger  *slog.Logger
}

// NewHTTPStore builds a store client. Reads get a short timeout; writes get a
// longer one since the remote store re-hashes the full content.
func NewHTTPStore(baseURL, token string, readTimeout, writeTimeout time.Duration, logger *slog.Logger) *HTTPStore {
	if readTimeout <= 0 {
		readTimeout = 3 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &HTTPStore{
		baseURL: baseURL,
		token:   token,
		readc:   &http.Client{Timeout: readTimeout},
		writec:  &http.Client{Timeout: writeTimeout},
		logger:  logger,
	}
}

type ledgerPayload struct {
	Content string `json:"content"`
	Version string `json:"version,omitempty"`
}

func (s *HTTPStore) ledgerURL(classID string) string {
	return fmt.Sprintf("%s/v1/ledgers/%s", s.baseURL, url.PathEscape(classID))
}

// Read implements Store.
func (s *HTTPStore) Read(ctx context.Context, classID string) ([]models.Record, string, error) {
	start := time.Now()
	defer func() {
		storeDurationMs.WithLabelValues("read").Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ledgerURL(classID), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build ledger read: %w", err)
	}
	s.authorize(req)

	resp, err := s.readc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("ledger read: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("ledger read status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var payload ledgerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("decode ledger read: %w: %w", sentinel.ErrUnavailable, err)
	}
	if payload.Version == "" {
		return nil, "", fmt.Errorf("ledger read returned no version token: %w", sentinel.ErrInvalidState)
	}
	return DecodeRows(classID, payload.Content, s.logger), payload.Version, nil
}

// Write implements Store.
func (s *HTTPStore) Write(ctx context.Context, classID string, rows []models.Record, expectedToken string) (string, error) {
	start := time.Now()
	defer func() {
		storeDurationMs.WithLabelValues("write").Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	content, err := EncodeRows(rows)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(ledgerPayload{Content: content, Version: expectedToken})
	if err != nil {
		return "", fmt.Errorf("encode ledger write: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.ledgerURL(classID), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ledger write: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.writec.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger write: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusPreconditionFailed:
		return "", fmt.Errorf("ledger write for class %q: %w", classID, sentinel.ErrConflict)
	default:
		return "", fmt.Errorf("ledger write status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var payload ledgerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode ledger write: %w: %w", sentinel.ErrUnavailable, err)
	}
	if payload.Version == "" {
		return "", fmt.Errorf("ledger write returned no version token: %w", sentinel.ErrInvalidState)
	}
	return payload.Version, nil
}

func (s *HTTPStore) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}
