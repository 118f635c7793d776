package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

type countingLoader struct {
	calls int64
	quiz  domain.Quiz
	err   error
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	atomic.AddInt64(&l.calls, 1)
	if l.err != nil {
		return domain.Quiz{}, l.err
	}
	quiz := l.quiz
	quiz.ID = quizID
	return quiz, nil
}

func TestQuizRepositoryCachesWithinTTL(t *testing.T) {
	loader := &countingLoader{quiz: domain.Quiz{Title: "Cached"}}
	repo := NewQuizRepository(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		quiz, err := repo.GetQuiz(ctx, "quiz-1")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if quiz.Title != "Cached" {
			t.Fatalf("unexpected quiz %+v", quiz)
		}
	}
	if n := atomic.LoadInt64(&loader.calls); n != 1 {
		t.Fatalf("loader called %d times, want 1", n)
	}
}

func TestQuizRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{quiz: domain.Quiz{Title: "Cached"}}
	repo := NewQuizRepository(loader, time.Millisecond)
	// jitter is a fraction of the TTL, so advancing the clock well past it is safe
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }
	ctx := context.Background()

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	now = now.Add(time.Second)
	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if n := atomic.LoadInt64(&loader.calls); n != 2 {
		t.Fatalf("loader called %d times after expiry, want 2", n)
	}
}

func TestQuizRepositoryCollapsesConcurrentLoads(t *testing.T) {
	loader := &countingLoader{quiz: domain.Quiz{Title: "Cached"}}
	repo := NewQuizRepository(loader, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
				t.Errorf("concurrent get: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt64(&loader.calls); n != 1 {
		t.Fatalf("loader called %d times under concurrency, want 1", n)
	}
}

func TestQuizRepositoryPropagatesErrors(t *testing.T) {
	loader := &countingLoader{err: domain.ErrQuizNotFound}
	repo := NewQuizRepository(loader, time.Minute)

	_, err := repo.GetQuiz(context.Background(), "missing")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	// errors are not cached
	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found again, got %v", err)
	}
	if n := atomic.LoadInt64(&loader.calls); n != 2 {
		t.Fatalf("loader called %d times, want 2 (errors bypass the cache)", n)
	}
}

func TestStaticQuizLoader(t *testing.T) {
	loader := NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Title: "Known"},
	})
	quiz, err := loader.LoadQuiz(context.Background(), "quiz-1")
	if err != nil || quiz.Title != "Known" {
		t.Fatalf("got %+v, %v", quiz, err)
	}
	if _, err := loader.LoadQuiz(context.Background(), "nope"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}
