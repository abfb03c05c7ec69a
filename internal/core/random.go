package core

import (
	crand "crypto/rand"
	"encoding/binary"
	"log"
	"math/rand"
)

// Rand draws bounded random integers. Injected so dwell times and the
// failure branch are deterministically testable with a scripted source.
type Rand interface {
	// IntN returns a uniformly distributed integer in [lo, hi).
	IntN(lo, hi int) int
}

type seededRand struct {
	r *rand.Rand
}

// NewSeededRand returns a Rand seeded once from the OS entropy source.
func NewSeededRand() Rand {
	var buf [8]byte
	seed := int64(0x5deece66d)
	if _, err := crand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	} else {
		log.Printf("[Core] Entropy read failed, using fixed seed: %v", err)
	}
	return &seededRand{r: rand.New(rand.NewSource(seed))}
}

func (s *seededRand) IntN(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.Intn(hi-lo)
}
