package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
)

// slugAlphabet is the character set for generated slugs. It drops the
// visually confusable characters (0, O, 1, l, I), leaving 56 symbols;
// 56^6 candidate slugs dwarf any realistic link count.
const slugAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

const (
	// generatedSlugLength is the length of system-generated slugs.
	generatedSlugLength = 6
	// defaultMaxSlugAttempts bounds collision retries during generation.
	defaultMaxSlugAttempts = 10
)

// customSlugPattern constrains caller-supplied slugs: full alphanumerics,
// 6 to 8 characters.
var customSlugPattern = regexp.MustCompile(`^[a-zA-Z0-9]{6,8}$`)

var (
	// ErrInvalidSlugFormat signals a custom slug that does not match the
	// accepted shape.
	ErrInvalidSlugFormat = errors.New("invalid custom slug format")
	// ErrSlugSpaceExhausted signals that generation gave up after the retry
	// bound. Hitting it means the alphabet or length needs widening.
	ErrSlugSpaceExhausted = errors.New("could not generate a unique slug")
)

// generateSlug draws a random slug from the alphabet, retrying on collision
// up to maxAttempts times. Entropy and the existence probe are injected so
// the retry behaviour is testable with fakes; exists only pre-filters, the
// storage constraint remains the final arbiter of uniqueness.
func generateSlug(entropy io.Reader, exists func(string) (bool, error), maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxSlugAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := randomSlug(entropy, generatedSlugLength)
		if err != nil {
			return "", fmt.Errorf("draw slug candidate: %w", err)
		}

		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", ErrSlugSpaceExhausted
}

func randomSlug(entropy io.Reader, length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(slugAlphabet)))
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(entropy, alphabetSize)
		if err != nil {
			return "", err
		}
		result[i] = slugAlphabet[num.Int64()]
	}
	return string(result), nil
}

// validateCustomSlug checks a caller-supplied slug against the accepted
// shape.
func validateCustomSlug(slug string) error {
	if !customSlugPattern.MatchString(slug) {
		return ErrInvalidSlugFormat
	}
	return nil
}
