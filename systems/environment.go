package systems

import "math"

// Environment is the shared regenerating energy pool consumed by prey.
// Created once at simulation start and passed by handle into each tick's
// passes; 0 <= pool <= max holds at all times.
type Environment struct {
	pool int32
	max  int32
}

// NewEnvironment creates the pool with an initial level clamped into
// [0, maxPool].
func NewEnvironment(initial, maxPool int32) *Environment {
	if maxPool < 0 {
		maxPool = 0
	}
	e := &Environment{max: maxPool}
	e.pool = clampPool(initial, maxPool)
	return e
}

// Consume removes one unit from the pool. It reports whether a unit was
// available.
func (e *Environment) Consume() bool {
	if e.pool <= 0 {
		return false
	}
	e.pool--
	return true
}

// Grow applies multiplicative growth, pool = round(pool * rate), capped at
// the maximum.
func (e *Environment) Grow(rate float64) {
	grown := int32(math.Round(float64(e.pool) * rate))
	e.pool = clampPool(grown, e.max)
}

// Level returns the current pool value.
func (e *Environment) Level() int32 {
	return e.pool
}

// Max returns the pool cap.
func (e *Environment) Max() int32 {
	return e.max
}

func clampPool(v, max int32) int32 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
