package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"rollcall/internal/attendance/models"
	"rollcall/pkg/platform/sentinel"
)

// MemoryStore keeps ledgers in process memory with the same content-hash
// version-token semantics as the remote store. Used in tests and as the
// local-development fallback when no ledger endpoint is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	ledgers map[string]memoryLedger
	logger  *slog.Logger
}

type memoryLedger struct {
	content string
	version string
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		ledgers: make(map[string]memoryLedger),
		logger:  logger,
	}
}

// Read implements Store.
func (s *MemoryStore) Read(ctx context.Context, classID string) ([]models.Record, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.ledgers[classID]
	if !ok {
		return nil, "", nil
	}
	return DecodeRows(classID, l.content, s.logger), l.version, nil
}

// Write implements Store. The version check and the replace happen under one
// lock, mirroring the remote store's atomic full-file swap.
func (s *MemoryStore) Write(ctx context.Context, classID string, rows []models.Record, expectedToken string) (string, error) {
	content, err := EncodeRows(rows)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.ledgers[classID]
	if exists && current.version != expectedToken {
		return "", fmt.Errorf("ledger write for class %q: %w", classID, sentinel.ErrConflict)
	}
	if !exists && expectedToken != "" {
		return "", fmt.Errorf("ledger for class %q vanished under writer: %w", classID, sentinel.ErrConflict)
	}

	version := versionToken(content)
	s.ledgers[classID] = memoryLedger{content: content, version: version}
	return version, nil
}

// versionToken derives the opaque token from the exact persisted bytes, the
// same way the remote store does.
func versionToken(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
