package timeline

import (
	"hash/fnv"

	"github.com/jmylchreest/tapedeck/internal/models"
)

// randomStyles are the styles the randomized mode draws from, in a fixed
// order. The order is part of the sequence contract: reordering it would
// change every previously rendered tape.
var randomStyles = [4]models.TransitionStyle{
	models.TransitionNone,
	models.TransitionCrossfade,
	models.TransitionSlideLeft,
	models.TransitionSlideRight,
}

// Sequence returns the per-boundary transition style list for a tape, one
// entry per adjacent clip pair. Fixed styles repeat for every boundary. The
// randomized style derives a deterministic sequence from the tape id, so the
// same tape always replays and exports with identical boundaries.
func Sequence(tape *models.Tape) []models.TransitionStyle {
	n := tape.BoundaryCount()
	if n == 0 {
		return nil
	}

	styles := make([]models.TransitionStyle, n)
	if tape.TransitionStyle != models.TransitionRandom {
		for i := range styles {
			styles[i] = tape.TransitionStyle
		}
		return styles
	}

	rng := newSplitMix64(seedFor(tape.ID))
	for i := range styles {
		// 2^64 is divisible by 4, so masking introduces no bias.
		styles[i] = randomStyles[rng.next()&3]
	}
	return styles
}

// seedFor maps a tape id to a stable 64-bit seed. FNV-1a over the canonical
// string form keeps the mapping independent of any in-memory representation.
func seedFor(id models.ULID) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id.String()))
	return h.Sum64()
}

// splitMix64 is a tiny deterministic PRNG with well-distributed output even
// from closely related seeds. Not cryptographic, and must never be replaced
// with a platform random source: reproducibility across runs is the point.
type splitMix64 struct {
	state uint64
}

func newSplitMix64(seed uint64) *splitMix64 {
	return &splitMix64{state: seed}
}

func (s *splitMix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
