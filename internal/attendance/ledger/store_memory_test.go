package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"rollcall/internal/attendance/models"
	"rollcall/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore(discardLogger())
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestReadMissingLedger() {
	rows, token, err := s.store.Read(s.ctx, "CSE-3A")
	s.NoError(err)
	s.Empty(rows)
	s.Empty(token)
}

func (s *MemoryStoreSuite) TestCreateThenRead() {
	rec := sampleRecord()

	token, err := s.store.Write(s.ctx, "CSE-3A", []models.Record{rec}, "")
	s.Require().NoError(err)
	s.NotEmpty(token)

	rows, readToken, err := s.store.Read(s.ctx, "CSE-3A")
	s.Require().NoError(err)
	s.Equal(token, readToken)
	s.Require().Len(rows, 1)
	s.Equal(rec, rows[0])
}

func (s *MemoryStoreSuite) TestCreateConflictsWhenLedgerExists() {
	_, err := s.store.Write(s.ctx, "CSE-3A", []models.Record{sampleRecord()}, "")
	s.Require().NoError(err)

	_, err = s.store.Write(s.ctx, "CSE-3A", nil, "")
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestStaleTokenConflicts() {
	first := sampleRecord()
	token, err := s.store.Write(s.ctx, "CSE-3A", []models.Record{first}, "")
	s.Require().NoError(err)

	// A second writer commits first; our token is now stale.
	second := sampleRecord()
	second.StudentRoll = "21CS042"
	_, err = s.store.Write(s.ctx, "CSE-3A", []models.Record{first, second}, token)
	s.Require().NoError(err)

	third := sampleRecord()
	third.StudentRoll = "21CS043"
	_, err = s.store.Write(s.ctx, "CSE-3A", []models.Record{first, third}, token)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestReReadAndRetryAfterConflict() {
	first := sampleRecord()
	staleToken, err := s.store.Write(s.ctx, "CSE-3A", []models.Record{first}, "")
	s.Require().NoError(err)

	second := sampleRecord()
	second.StudentRoll = "21CS042"
	_, err = s.store.Write(s.ctx, "CSE-3A", []models.Record{first, second}, staleToken)
	s.Require().NoError(err)

	third := sampleRecord()
	third.StudentRoll = "21CS043"
	_, err = s.store.Write(s.ctx, "CSE-3A", []models.Record{first, third}, staleToken)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	// Losing writer re-reads, re-appends onto the fresh snapshot, and wins.
	rows, freshToken, err := s.store.Read(s.ctx, "CSE-3A")
	s.Require().NoError(err)
	_, err = s.store.Write(s.ctx, "CSE-3A", append(rows, third), freshToken)
	s.Require().NoError(err)

	final, _, err := s.store.Read(s.ctx, "CSE-3A")
	s.Require().NoError(err)
	s.Require().Len(final, 3)
	s.Equal("21CS041", final[0].StudentRoll)
	s.Equal("21CS042", final[1].StudentRoll)
	s.Equal("21CS043", final[2].StudentRoll)
}

func (s *MemoryStoreSuite) TestTokenTracksContent() {
	rec := sampleRecord()
	t1, err := s.store.Write(s.ctx, "CSE-3A", []models.Record{rec}, "")
	s.Require().NoError(err)

	other := sampleRecord()
	other.StudentRoll = "21CS042"
	t2, err := s.store.Write(s.ctx, "CSE-3A", []models.Record{rec, other}, t1)
	s.Require().NoError(err)
	s.NotEqual(t1, t2)
}
