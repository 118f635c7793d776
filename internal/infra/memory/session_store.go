package memory

import (
	"context"
	"encoding/json"
	"sync"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. Records
// are keyed by upper-cased code with an id index, and deep-copied on every
// read and write so callers can never mutate stored state in place.
type SessionStore struct {
	mu       sync.RWMutex
	byCode   map[string]*domain.Session
	idToCode map[string]string
}

var _ app.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byCode:   make(map[string]*domain.Session),
		idToCode: make(map[string]string),
	}
}

func (s *SessionStore) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := app.NormalizeCode(session.Code)
	s.byCode[code] = clone(session)
	s.idToCode[session.ID] = code
	return nil
}

func (s *SessionStore) GetByCode(_ context.Context, code string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byCode[app.NormalizeCode(code)]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return clone(session), nil
}

func (s *SessionStore) GetByID(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.idToCode[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session, ok := s.byCode[code]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return clone(session), nil
}

func (s *SessionStore) Update(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := app.NormalizeCode(session.Code)
	if _, ok := s.byCode[code]; !ok {
		return domain.ErrSessionNotFound
	}
	s.byCode[code] = clone(session)
	return nil
}

func (s *SessionStore) ListAll(_ context.Context) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Session, 0, len(s.byCode))
	for _, session := range s.byCode {
		out = append(out, clone(session))
	}
	return out, nil
}

func (s *SessionStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := app.NormalizeCode(code)
	session, ok := s.byCode[key]
	if !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.idToCode, session.ID)
	delete(s.byCode, key)
	return nil
}

// clone round-trips through JSON: slower than hand-copying but guaranteed to
// stay in sync with the model as fields are added.
func clone(session *domain.Session) *domain.Session {
	raw, err := json.Marshal(session)
	if err != nil {
		// Session is a plain data struct; marshal cannot fail on it.
		panic(err)
	}
	out := &domain.Session{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}
