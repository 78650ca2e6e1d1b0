package interpolation

import (
	"math/rand/v2"

	"github.com/moznion/go-optional"
)

// Source hands out one generator per chunk of a resampling walk.
// A returned generator is owned by a single goroutine and never shared.
type Source interface {
	// ForChunk returns the generator for the chunk whose first target index is start.
	ForChunk(start int) *rand.Rand
	// Seeded reports whether the generators are reproducible.
	Seeded() bool
}

// NewSource returns a SeededSource when seed is present and an EntropySource otherwise.
func NewSource(seed optional.Option[uint64]) Source {
	if seed.IsSome() {
		return SeededSource(seed.Unwrap())
	}

	return EntropySource()
}

type seededSource struct {
	seed uint64
}

// SeededSource derives the generator of a chunk from seed + start, so results do not
// depend on which goroutine runs which chunk.
func SeededSource(seed uint64) Source {
	return seededSource{seed: seed}
}

func (s seededSource) ForChunk(start int) *rand.Rand {
	derived := s.seed + uint64(start)

	return rand.New(rand.NewPCG(derived, 0))
}

func (s seededSource) Seeded() bool {
	return true
}

type entropySource struct{}

// EntropySource draws a fresh random seed for every chunk. Output is not reproducible.
func EntropySource() Source {
	return entropySource{}
}

func (entropySource) ForChunk(int) *rand.Rand {
	// the package level generator is safe for concurrent use
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (entropySource) Seeded() bool {
	return false
}
