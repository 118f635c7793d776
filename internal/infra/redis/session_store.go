package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

const (
	sessionKeyPrefix = "quiz:session:"
	idIndexKeyPrefix = "quiz:session-id:"
)

// SessionStore persists sessions as JSON in Redis, keyed by upper-cased
// code, with an id index so control commands can look sessions up by id.
// Records expire after ttl, which is also what recycles join codes.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ app.SessionStore = (*SessionStore)(nil)

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	return s.write(ctx, session)
}

func (s *SessionStore) Update(ctx context.Context, session *domain.Session) error {
	code := app.NormalizeCode(session.Code)
	exists, err := s.client.Exists(ctx, sessionKey(code)).Result()
	if err != nil {
		return domain.StoreFailure(err)
	}
	if exists == 0 {
		return domain.ErrSessionNotFound
	}
	return s.write(ctx, session)
}

func (s *SessionStore) write(ctx context.Context, session *domain.Session) error {
	code := app.NormalizeCode(session.Code)
	raw, err := json.Marshal(session)
	if err != nil {
		return domain.StoreFailure(err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(code), raw, s.ttl)
	pipe.Set(ctx, idIndexKey(session.ID), code, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.StoreFailure(err)
	}
	return nil
}

func (s *SessionStore) GetByCode(ctx context.Context, code string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(app.NormalizeCode(code))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, domain.StoreFailure(err)
	}
	return decode(raw)
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	code, err := s.client.Get(ctx, idIndexKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, domain.StoreFailure(err)
	}
	return s.GetByCode(ctx, code)
}

func (s *SessionStore) ListAll(ctx context.Context) ([]*domain.Session, error) {
	var out []*domain.Session
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, domain.StoreFailure(err)
		}
		session, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	if err := iter.Err(); err != nil {
		return nil, domain.StoreFailure(err)
	}
	return out, nil
}

func (s *SessionStore) Delete(ctx context.Context, code string) error {
	session, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(app.NormalizeCode(code)))
	pipe.Del(ctx, idIndexKey(session.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.StoreFailure(err)
	}
	return nil
}

func decode(raw []byte) (*domain.Session, error) {
	session := &domain.Session{}
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, domain.StoreFailure(err)
	}
	return session, nil
}

func sessionKey(code string) string { return sessionKeyPrefix + code }

func idIndexKey(id string) string { return idIndexKeyPrefix + id }
