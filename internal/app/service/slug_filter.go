package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// filterCapacity sizes the bloom filter; well above any expected link
	// count so the false-positive rate stays near the target.
	filterCapacity      = 1_000_000
	filterFalsePositive = 0.01
)

// SlugFilter is an in-process bloom filter over known slugs. A definite
// miss lets slug generation skip the storage existence probe; a hit only
// means "maybe", so the probe (and ultimately the unique constraint) still
// decides. Purely an optimization, never authoritative.
type SlugFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewSlugFilter returns an empty filter, optionally pre-seeded.
func NewSlugFilter(seed []string) *SlugFilter {
	f := &SlugFilter{
		filter: bloom.NewWithEstimates(filterCapacity, filterFalsePositive),
	}
	for _, slug := range seed {
		f.filter.AddString(slug)
	}
	return f
}

// Add records a slug as existing.
func (f *SlugFilter) Add(slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(slug)
}

// MayExist reports whether the slug might already be taken. False means
// definitely free.
func (f *SlugFilter) MayExist(slug string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(slug)
}
