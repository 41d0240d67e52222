package service

import (
	"errors"
	"strings"
	"testing"
)

// zeroReader is an entropy source that always yields zero bytes, which
// makes generation draw the first alphabet character every time.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func neverExists(string) (bool, error) { return false, nil }

func TestGenerateSlugShape(t *testing.T) {
	slug, err := generateSlug(zeroReader{}, neverExists, defaultMaxSlugAttempts)
	if err != nil {
		t.Fatalf("generateSlug returned error: %v", err)
	}
	if len(slug) != generatedSlugLength {
		t.Fatalf("expected %d characters, got %q", generatedSlugLength, slug)
	}
	for _, r := range slug {
		if !strings.ContainsRune(slugAlphabet, r) {
			t.Fatalf("slug %q contains %q, which is outside the alphabet", slug, r)
		}
	}
}

func TestGenerateSlugDeterministicWithInjectedEntropy(t *testing.T) {
	slug, err := generateSlug(zeroReader{}, neverExists, defaultMaxSlugAttempts)
	if err != nil {
		t.Fatalf("generateSlug returned error: %v", err)
	}
	if slug != "AAAAAA" {
		t.Fatalf("expected zero entropy to yield %q, got %q", "AAAAAA", slug)
	}
}

func TestGenerateSlugRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(string) (bool, error) {
		calls++
		return calls < 3, nil
	}

	slug, err := generateSlug(zeroReader{}, exists, defaultMaxSlugAttempts)
	if err != nil {
		t.Fatalf("generateSlug returned error: %v", err)
	}
	if slug == "" {
		t.Fatal("expected a slug after collisions cleared")
	}
	if calls != 3 {
		t.Fatalf("expected 3 existence probes, got %d", calls)
	}
}

func TestGenerateSlugExhaustsAfterBound(t *testing.T) {
	calls := 0
	alwaysExists := func(string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := generateSlug(zeroReader{}, alwaysExists, 10)
	if !errors.Is(err, ErrSlugSpaceExhausted) {
		t.Fatalf("expected ErrSlugSpaceExhausted, got %v", err)
	}
	if calls != 10 {
		t.Fatalf("expected exactly 10 attempts, got %d", calls)
	}
}

func TestGenerateSlugPropagatesProbeError(t *testing.T) {
	probeErr := errors.New("storage down")
	exists := func(string) (bool, error) { return false, probeErr }

	_, err := generateSlug(zeroReader{}, exists, defaultMaxSlugAttempts)
	if !errors.Is(err, probeErr) {
		t.Fatalf("expected probe error to propagate, got %v", err)
	}
}

func TestValidateCustomSlug(t *testing.T) {
	valid := []string{"promo24", "abc123", "ABCdef12", "000000"}
	for _, slug := range valid {
		if err := validateCustomSlug(slug); err != nil {
			t.Fatalf("validateCustomSlug(%q) = %v, want nil", slug, err)
		}
	}

	invalid := []string{"", "short", "waytoolong9", "has-dash", "has_underscore", "sp ace8", "émoji66"}
	for _, slug := range invalid {
		if err := validateCustomSlug(slug); !errors.Is(err, ErrInvalidSlugFormat) {
			t.Fatalf("validateCustomSlug(%q) = %v, want ErrInvalidSlugFormat", slug, err)
		}
	}
}

func TestSlugFilter(t *testing.T) {
	f := NewSlugFilter([]string{"seeded"})

	if !f.MayExist("seeded") {
		t.Fatal("seeded slug must test positive")
	}
	if f.MayExist("Jx7Qp2") {
		t.Fatal("unknown slug should be a definite miss")
	}

	f.Add("Jx7Qp2")
	if !f.MayExist("Jx7Qp2") {
		t.Fatal("added slug must test positive")
	}
}
