package memory

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// SessionStore keeps the session in process memory only.
type SessionStore struct {
	mu  sync.Mutex
	rec *model.SessionRecord
}

// NewSessionStore constructs an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Save(_ context.Context, rec model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

func (s *SessionStore) Load(context.Context) (model.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return model.SessionRecord{}, domainErrors.ErrNotFound
	}
	return *s.rec, nil
}

func (s *SessionStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
