// Package systems provides the leaf systems of the simulation: geometry,
// perception, and the shared environment resource.
package systems

import (
	"math"

	"github.com/pthm-cable/savanna/components"
)

// Steering signs for Steer.
const (
	SignSeek float32 = 1  // move toward the target
	SignFlee float32 = -1 // move away from the target
)

// Overlaps reports whether two axis-aligned boxes strictly intersect.
// Touching edges do not count as overlapping.
func Overlaps(a, b components.Box) bool {
	return a.X < b.X+b.Width &&
		a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height &&
		a.Y+a.Height > b.Y
}

// WithinRange returns whether b is within radius of a, plus the Euclidean
// distance between the box origins. The distance is returned so callers can
// rank multiple candidates without recomputation.
func WithinRange(a, b components.Box, radius float32) (bool, float32) {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dist := float32(math.Sqrt(dx*dx + dy*dy))
	return dist <= radius, dist
}

// Steer displaces entity one fixed-magnitude step of the given speed along
// the angle to target. sign is SignSeek to move toward the target and
// SignFlee to move away. There is no acceleration or inertia model.
func Steer(entity *components.Box, target components.Box, speed, sign float32) {
	angle := math.Atan2(float64(target.Y-entity.Y), float64(target.X-entity.X))
	entity.X += float32(math.Cos(angle)) * speed * sign
	entity.Y += float32(math.Sin(angle)) * speed * sign
}

// ClampBox clamps a box origin component-wise into the centered arena
// rectangle [-width/2, +width/2] x [-height/2, +height/2]. A hard stop, not
// a bounce; re-applying to an already-clamped position is a no-op.
func ClampBox(box *components.Box, width, height float32) {
	box.X = min(box.X, width/2)
	box.X = max(box.X, width/-2)
	box.Y = min(box.Y, height/2)
	box.Y = max(box.Y, height/-2)
}
