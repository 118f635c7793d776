package app

import (
	"context"
	"testing"

	"live-quiz-service/internal/domain"
)

func TestValidCode(t *testing.T) {
	valid := []string{"ABC123", "ZZZZZZ", "000000"}
	for _, code := range valid {
		if !ValidCode(code) {
			t.Fatalf("expected %q valid", code)
		}
	}
	invalid := []string{"", "abc123", "ABC12", "ABC1234", "ABC 12", "ABC-12", "ÄBC123"}
	for _, code := range invalid {
		if ValidCode(code) {
			t.Fatalf("expected %q invalid", code)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  ab12cd "); got != "AB12CD" {
		t.Fatalf("expected AB12CD, got %q", got)
	}
}

func TestGenerateFormat(t *testing.T) {
	gen := NewCodeGeneratorWithSeed(1)
	store := &stubCodeStore{}
	for i := 0; i < 200; i++ {
		code, err := gen.Generate(context.Background(), store)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !ValidCode(code) {
			t.Fatalf("generated code %q does not match format", code)
		}
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	gen := NewCodeGeneratorWithSeed(42)
	store := &stubCodeStore{}

	first, err := gen.Generate(context.Background(), store)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Replay the same seed with the first code taken: the generator must
	// skip it and settle on a different one.
	gen = NewCodeGeneratorWithSeed(42)
	store.taken = map[string]bool{first: true}
	second, err := gen.Generate(context.Background(), store)
	if err != nil {
		t.Fatalf("generate after collision: %v", err)
	}
	if second == first {
		t.Fatalf("expected a fresh code after collision, got %q twice", first)
	}
	if store.lookups < 2 {
		t.Fatalf("expected at least 2 lookups, got %d", store.lookups)
	}
}

// stubCodeStore implements only the lookup the generator uses.
type stubCodeStore struct {
	taken   map[string]bool
	lookups int
}

func (s *stubCodeStore) GetByCode(_ context.Context, code string) (*domain.Session, error) {
	s.lookups++
	if s.taken[code] {
		return &domain.Session{Code: code}, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *stubCodeStore) Create(context.Context, *domain.Session) error { return nil }
func (s *stubCodeStore) GetByID(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (s *stubCodeStore) Update(context.Context, *domain.Session) error { return nil }
func (s *stubCodeStore) ListAll(context.Context) ([]*domain.Session, error) {
	return nil, nil
}
func (s *stubCodeStore) Delete(context.Context, string) error { return nil }
