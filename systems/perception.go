package systems

import (
	"github.com/pthm-cable/savanna/components"
)

// Candidate is a start-of-pass snapshot of one agent, used as scan input so
// that every scan within a pass observes pre-movement state.
type Candidate struct {
	Ordinal uint64
	Box     components.Box
	Life    int32
}

// Percept is the result of a nearest-neighbor scan.
type Percept struct {
	Found    bool
	Ordinal  uint64
	Box      components.Box
	Distance float32
}

// NearestInRange scans candidates for the single closest one within radius
// of self, using running-minimum selection: a later candidate replaces the
// current best only if strictly closer. Ties therefore resolve to whichever
// candidate is seen first in iteration order. Candidates sharing self's
// ordinal are skipped, so an agent never perceives itself.
func NearestInRange(self components.Box, selfOrdinal uint64, candidates []Candidate, radius float32) Percept {
	var best Percept
	for i := range candidates {
		c := &candidates[i]
		if c.Ordinal == selfOrdinal {
			continue
		}
		detected, dist := WithinRange(self, c.Box, radius)
		if detected && (!best.Found || dist < best.Distance) {
			best = Percept{Found: true, Ordinal: c.Ordinal, Box: c.Box, Distance: dist}
		}
	}
	return best
}

// NearestEligibleMate is NearestInRange restricted to candidates whose life
// meets the reproduction threshold.
func NearestEligibleMate(self components.Box, selfOrdinal uint64, candidates []Candidate, radius float32, threshold int32) Percept {
	var best Percept
	for i := range candidates {
		c := &candidates[i]
		if c.Ordinal == selfOrdinal || c.Life < threshold {
			continue
		}
		detected, dist := WithinRange(self, c.Box, radius)
		if detected && (!best.Found || dist < best.Distance) {
			best = Percept{Found: true, Ordinal: c.Ordinal, Box: c.Box, Distance: dist}
		}
	}
	return best
}
