package test

import (
	"sync"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// SessionStub reports a fixed principal that tests may swap.
type SessionStub struct {
	mu        sync.RWMutex
	principal *model.Principal
}

// NewSessionStub starts a session for p.
func NewSessionStub(p model.Principal) *SessionStub {
	return &SessionStub{principal: &p}
}

// Current returns the principal, if any.
func (s *SessionStub) Current() (model.Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return model.Principal{}, false
	}
	return *s.principal, true
}

// Switch replaces the principal; nil ends the session.
func (s *SessionStub) Switch(p *model.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principal = p
}
