package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, time.Hour), mr
}

func storedSession() *domain.Session {
	return &domain.Session{
		ID:   "sess-1",
		Code: "AB12CD",
		Quiz: domain.Quiz{
			ID: "quiz-1",
			Questions: []domain.Question{
				{ID: "q1", Options: []domain.Option{
					{ID: "o1", IsCorrect: true},
					{ID: "o2"},
				}},
			},
		},
		HostWallet:           "0xhost",
		Status:               domain.StatusWaiting,
		CurrentQuestionIndex: -1,
		QuestionTimeLimit:    30,
		Participants: []domain.Participant{
			{ID: "p1", Wallet: "0xalice", Connected: true, Score: 380,
				Answers: []domain.Answer{{QuestionID: "q1", OptionID: "o1", IsCorrect: true, ElapsedMillis: 2000}}},
		},
		CreatedAt: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC),
	}
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, storedSession()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("quiz:session:AB12CD") {
		t.Fatalf("session key missing, keys: %v", mr.Keys())
	}
	if !mr.Exists("quiz:session-id:sess-1") {
		t.Fatalf("id index key missing, keys: %v", mr.Keys())
	}

	got, err := store.GetByCode(ctx, "ab12cd")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.ID != "sess-1" || got.CurrentQuestionIndex != -1 {
		t.Fatalf("round trip changed the record: %+v", got)
	}
	if len(got.Participants) != 1 || got.Participants[0].Score != 380 {
		t.Fatalf("participants lost: %+v", got.Participants)
	}
	if !got.Quiz.Questions[0].Options[0].IsCorrect {
		t.Fatalf("correct flags must survive storage")
	}

	byID, err := store.GetByID(ctx, "sess-1")
	if err != nil || byID.Code != "AB12CD" {
		t.Fatalf("get by id: %+v, %v", byID, err)
	}
}

func TestRedisSessionStoreMissing(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetByCode(ctx, "ZZZZZ9"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.GetByID(ctx, "ghost"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found by id, got %v", err)
	}

	session := storedSession()
	if err := store.Update(ctx, session); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("update unknown: expected not found, got %v", err)
	}
}

func TestRedisSessionStoreUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	session := storedSession()

	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	session.Status = domain.StatusActive
	session.CurrentQuestionIndex = 0
	if err := store.Update(ctx, session); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.GetByID(ctx, session.ID)
	if got.Status != domain.StatusActive || got.CurrentQuestionIndex != 0 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestRedisSessionStoreTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, storedSession()); err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := store.GetByCode(ctx, "AB12CD"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expiry after TTL, got %v", err)
	}
}

func TestRedisSessionStoreDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, storedSession()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, "AB12CD"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiz:session:AB12CD") || mr.Exists("quiz:session-id:sess-1") {
		t.Fatalf("delete left keys behind: %v", mr.Keys())
	}
	if err := store.Delete(ctx, "AB12CD"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("double delete: expected not found, got %v", err)
	}
}

func TestRedisSessionStoreListAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a := storedSession()
	b := storedSession()
	b.ID, b.Code = "sess-2", "EF34GH"
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create b: %v", err)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}
}
