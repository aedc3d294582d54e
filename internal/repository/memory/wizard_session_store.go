// Package memory keeps wizard sessions in process memory. It backs
// single-instance deployments and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"assistance-gateway/internal/domain/wizard"
	xerrors "assistance-gateway/internal/pkg/errors"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

type WizardSessionStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	locked   map[string]bool
	ttl      time.Duration
	now      func() time.Time

	nextSweep time.Time
}

func NewWizardSessionStore(ttl time.Duration) *WizardSessionStore {
	return &WizardSessionStore{
		sessions: make(map[string]entry),
		locked:   make(map[string]bool),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Sessions are stored serialised so callers never share a *wizard.Session.
func (s *WizardSessionStore) Get(_ context.Context, id string) (*wizard.Session, error) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok && s.ttl > 0 && s.now().After(e.expiresAt) {
		delete(s.sessions, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, xerrors.ErrNotFound
	}

	var sess wizard.Session
	if err := json.Unmarshal(e.data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wizard session: %w", err)
	}
	return &sess, nil
}

func (s *WizardSessionStore) Save(_ context.Context, sess *wizard.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard session: %w", err)
	}
	now := s.now()
	s.mu.Lock()
	s.sweep(now)
	s.sessions[sess.ID] = entry{data: data, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// sweep drops expired sessions at most once per TTL. Callers hold s.mu.
func (s *WizardSessionStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Before(s.nextSweep) {
		return
	}
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
		}
	}
	s.nextSweep = now.Add(s.ttl)
}

func (s *WizardSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *WizardSessionStore) Lock(_ context.Context, id string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked[id] {
		return nil, xerrors.ErrOperationInFlight
	}
	s.locked[id] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.locked, id)
			s.mu.Unlock()
		})
	}, nil
}
