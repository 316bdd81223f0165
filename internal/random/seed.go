// Package random provides seed helpers for reproducible dice sampling.
//
// Sampling is deterministic for a given seed. When the caller does not pick
// one, a high-entropy seed is drawn from crypto/rand and reported back so the
// draw can be replayed.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// SeedOrNew returns seed when it is set, otherwise a fresh one.
func SeedOrNew(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	return NewSeed()
}

// New returns a generator seeded with seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
