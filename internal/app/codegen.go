package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// codeAlphabet is deliberately uppercase alphanumerics only: codes are meant
// to be read aloud and typed, not to be unguessable.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	maxCodeAttempts = 50
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// NormalizeCode upper-cases and trims a client-supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code matches the exact 6-char A-Z0-9 format.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// CodeGenerator produces unique, human-shareable join codes.
type CodeGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewCodeGeneratorWithSeed is test-only for deterministic codes.
func NewCodeGeneratorWithSeed(seed int64) *CodeGenerator {
	return &CodeGenerator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns a code that does not collide with any session currently
// in the store. Store lookups double as the collision check; a code is only
// free once the owning record expired or was deleted.
func (g *CodeGenerator) Generate(ctx context.Context, store SessionStore) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := g.random()
		_, err := store.GetByCode(ctx, code)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		// collision, try again
	}
	return "", fmt.Errorf("could not generate a unique session code after %d attempts", maxCodeAttempts)
}

func (g *CodeGenerator) random() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[g.rnd.Intn(len(codeAlphabet))]
	}
	return string(b)
}
