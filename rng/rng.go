// Package rng provides replay-safe randomness. Outcomes that change the
// simulation are rolled from a seed derived from the tick and the entities
// involved, never from a free-running generator.
package rng

import (
	"math/rand"

	"github.com/google/uuid"
)

// Seed combines a tick and any number of entity ids into a single seed.
// The same inputs always give the same seed.
func Seed(tick uint64, ids ...uint32) int64 {
	h := mix(tick ^ 0x9e3779b97f4a7c15)
	for _, id := range ids {
		h = mix(h ^ (uint64(id) + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)))
	}
	return int64(h)
}

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Prob rolls true with probability p using a generator seeded with seed.
func Prob(seed int64, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rand.New(rand.NewSource(seed)).Float64() < p
}

// Roller is the random collaborator consumed by the physiology systems.
type Roller interface {
	Prob(seed int64, p float64) bool
}

// Deterministic is the default Roller.
type Deterministic struct{}

// Prob implements Roller.
func (Deterministic) Prob(seed int64, p float64) bool { return Prob(seed, p) }

// NewDNA returns a body DNA string drawn from r. Bodies spawned from the same
// simulation seed get the same DNA.
func NewDNA(r *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		// rand.Rand.Read never fails
		return uuid.Nil.String()
	}
	return id.String()
}
