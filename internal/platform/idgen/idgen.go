// Package idgen mints the short human-readable public ids used as the join
// key between identities and role profiles, e.g. "APO1903" or "JOHN19034821".
package idgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
)

// Kind selects the id format.
type Kind int

const (
	// Plain ids are 3 name characters + DDMM. Used for hospitals, doctors
	// and self-registered identities.
	Plain Kind = iota
	// Patient ids are 4 name characters + DDMM + a 4-digit random suffix.
	Patient
)

const (
	plainPrefixLen   = 3
	patientPrefixLen = 4
	suffixMin        = 1000
	suffixMax        = 9999

	DefaultMaxAttempts = 5
)

var (
	ErrEmptySeed = errors.New("idgen: seed name is empty")
	ErrExhausted = errors.New("idgen: no free id after max attempts")
)

// Taken reports whether a candidate id is already in use.
type Taken func(ctx context.Context, id string) (bool, error)

type Generator struct {
	maxAttempts int
	suffix      func() int
}

// New returns a Generator. maxAttempts <= 0 selects DefaultMaxAttempts.
func New(maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{
		maxAttempts: maxAttempts,
		suffix:      func() int { return suffixMin + rand.IntN(suffixMax-suffixMin+1) },
	}
}

// WithSuffixSource replaces the random suffix source. Intended for tests.
func (g *Generator) WithSuffixSource(fn func() int) *Generator {
	g.suffix = fn
	return g
}

// Generate returns the bare Plain id for seed at now. The result is
// deterministic and performs no uniqueness check.
func (g *Generator) Generate(seed string, now time.Time) (string, error) {
	prefix, err := prefix(seed, plainPrefixLen)
	if err != nil {
		return "", err
	}
	return prefix + datePart(now), nil
}

// GeneratePatient returns a Patient id with a fresh random suffix.
func (g *Generator) GeneratePatient(seed string, now time.Time) (string, error) {
	prefix, err := prefix(seed, patientPrefixLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%04d", prefix, datePart(now), g.suffix()), nil
}

// Allocate returns an id of the given kind that taken reports as free.
// The first Plain candidate is the bare id; later candidates carry a fresh
// random suffix. Returns ErrExhausted after maxAttempts collisions.
func (g *Generator) Allocate(ctx context.Context, kind Kind, seed string, now time.Time, taken Taken) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		id, err := g.candidate(kind, seed, now, attempt)
		if err != nil {
			return "", err
		}
		used, err := taken(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check id %s: %w", id, err)
		}
		if !used {
			return id, nil
		}
	}
	return "", ErrExhausted
}

func (g *Generator) candidate(kind Kind, seed string, now time.Time, attempt int) (string, error) {
	if kind == Patient {
		return g.GeneratePatient(seed, now)
	}
	base, err := g.Generate(seed, now)
	if err != nil {
		return "", err
	}
	if attempt == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s%04d", base, g.suffix()), nil
}

// prefix uppercases the first n non-space runes of seed.
func prefix(seed string, n int) (string, error) {
	var b strings.Builder
	count := 0
	for _, r := range seed {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		count++
		if count == n {
			break
		}
	}
	if count == 0 {
		return "", ErrEmptySeed
	}
	return b.String(), nil
}

// datePart renders DDMM in UTC.
func datePart(now time.Time) string {
	return now.UTC().Format("0201")
}
