// Package perturb modifies question prompts before inference: a
// randomized greeting header on the first turn, and letter-level noise
// that simulates typos across every turn.
package perturb

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
	"unicode"

	"github.com/ahrav/go-livebench/internal/domain"
)

const (
	// prefixLetters and prefixDigits are the draw alphabets for the
	// randomized greeting token, which has the shape
	// letter-digit-letter-digit.
	prefixLetters = "abcdefgh"
	prefixDigits  = "12345678"

	// noiseRate is the per-letter probability of replacing an
	// alphabetic character with a random letter of the same case.
	noiseRate = 0.01

	// timestampLayout formats the wall clock inside the greeting.
	timestampLayout = "2006-01-02 15:04:05"
)

// Config selects which perturbation types to apply.
type Config struct {
	// RandomizePrompt prepends "Hello {token}, {timestamp}\n\n" to the
	// first turn only. The token is generated once per invocation and
	// reused unchanged across all turns and choices.
	RandomizePrompt bool

	// AddNoise replaces each alphabetic character, independently and
	// with probability 1%, by a uniformly random letter of the same
	// case. Applied after randomization, to all turns.
	AddNoise bool
}

// Enabled reports whether any perturbation type is selected.
func (c Config) Enabled() bool { return c.RandomizePrompt || c.AddNoise }

// Outcome is the result of perturbing one question for one invocation.
type Outcome struct {
	// Turns is the possibly modified turn sequence, same length as the
	// question's turns.
	Turns []string

	// Applied is true iff at least one turn differs from the original.
	// It gates whether a modification record is emitted.
	Applied bool

	// RandomPrefix is the generated greeting header, "" when prompt
	// randomization is off.
	RandomPrefix string
}

// Perturber produces perturbed turn sequences. It is a pure function
// of its inputs plus the random source, and is safe for concurrent use.
type Perturber struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a Perturber seeded from the given value. The same seed
// and clock yield identical perturbations.
func New(seed int64) *Perturber {
	return &Perturber{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

// NewWithClock creates a Perturber with an explicit random source and
// clock, for deterministic tests.
func NewWithClock(rng *rand.Rand, now func() time.Time) *Perturber {
	return &Perturber{rng: rng, now: now}
}

// Perturb applies the configured perturbations to the question's turns.
// The original question is never mutated.
func (p *Perturber) Perturb(q domain.Question, cfg Config) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := Outcome{Turns: make([]string, len(q.Turns))}
	copy(out.Turns, q.Turns)

	if cfg.RandomizePrompt {
		out.RandomPrefix = p.randomPrefix()
		if len(out.Turns) > 0 {
			out.Turns[0] = out.RandomPrefix + out.Turns[0]
		}
	}

	if cfg.AddNoise {
		for i, turn := range out.Turns {
			out.Turns[i] = p.addNoise(turn)
		}
	}

	for i := range out.Turns {
		if out.Turns[i] != q.Turns[i] {
			out.Applied = true
			break
		}
	}

	return out
}

// randomPrefix builds the greeting header with a fresh
// letter-digit-letter-digit token and the current timestamp.
func (p *Perturber) randomPrefix() string {
	name := string([]byte{
		prefixLetters[p.rng.Intn(len(prefixLetters))],
		prefixDigits[p.rng.Intn(len(prefixDigits))],
		prefixLetters[p.rng.Intn(len(prefixLetters))],
		prefixDigits[p.rng.Intn(len(prefixDigits))],
	})
	return fmt.Sprintf("Hello %s, %s\n\n", name, p.now().Format(timestampLayout))
}

// addNoise replaces letters at noiseRate, preserving case and leaving
// non-alphabetic characters untouched.
func (p *Perturber) addNoise(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		if !unicode.IsLetter(r) || p.rng.Float64() >= noiseRate {
			continue
		}
		if unicode.IsUpper(r) {
			runes[i] = rune('A' + p.rng.Intn(26))
		} else {
			runes[i] = rune('a' + p.rng.Intn(26))
		}
	}
	return string(runes)
}
