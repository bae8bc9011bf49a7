package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/domain/repository"
)

// SessionRepositoryStub keeps one session record and counts calls.
type SessionRepositoryStub struct {
	mu sync.Mutex

	Record  *model.SessionRecord
	SaveErr error
	LoadErr error
	ClrErr  error

	Saves  int
	Clears int
}

// Save stores rec unless SaveErr is set.
func (s *SessionRepositoryStub) Save(_ context.Context, rec model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Record = &rec
	return nil
}

// Load returns the stored record or ErrNotFound.
func (s *SessionRepositoryStub) Load(context.Context) (model.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return model.SessionRecord{}, s.LoadErr
	}
	if s.Record == nil {
		return model.SessionRecord{}, domainErrors.ErrNotFound
	}
	return *s.Record, nil
}

// Clear forgets the record. ClrErr is returned after clearing.
func (s *SessionRepositoryStub) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Clears++
	s.Record = nil
	return s.ClrErr
}

// Stored returns a copy of the persisted record.
func (s *SessionRepositoryStub) Stored() (model.SessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Record == nil {
		return model.SessionRecord{}, false
	}
	return *s.Record, true
}

var _ repository.SessionRepository = (*SessionRepositoryStub)(nil)
