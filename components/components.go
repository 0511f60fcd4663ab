// Package components defines ECS components for the simulation.
package components

// Species tags an agent as predator or prey. Behavior, vital rates, and
// collision outcomes dispatch on it.
type Species uint8

const (
	SpeciesPredator Species = iota
	SpeciesPrey
)

// String returns the display name for a Species.
func (s Species) String() string {
	switch s {
	case SpeciesPredator:
		return "predator"
	case SpeciesPrey:
		return "prey"
	}
	return "unknown"
}

// Status is an agent's behavioral classification, recomputed fresh every
// tick from perception. The vocabulary differs by species: predators hunt,
// prey avoid.
type Status uint8

const (
	StatusIdle Status = iota
	StatusHunting
	StatusAvoiding
	StatusMating
)

// String returns the display name for a Status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusHunting:
		return "hunting"
	case StatusAvoiding:
		return "avoiding"
	case StatusMating:
		return "mating"
	}
	return "unknown"
}

// Box is an axis-aligned bounding box: position plus size.
// X, Y is the box origin, not its center.
type Box struct {
	X, Y          float32
	Width, Height float32
}

// Life tracks an agent's energy.
// Once Mortal is set the agent is inert until removed at end of tick.
type Life struct {
	Value  int32
	Mortal bool
}

// Agent bundles identity and behavioral state.
type Agent struct {
	// Ordinal is the monotone creation-order identifier. It is never
	// reused and serves only as the reproduction tie-breaker.
	Ordinal uint64
	Species Species
	Status  Status
	// Hunted marks a prey currently chosen as some predator's hunt
	// target. Set during the behavior pass, read by the vital-rate pass.
	Hunted bool
}

// MateTarget is a weak reference to a prospective reproduction partner:
// a position snapshot plus the partner's ordinal, never a live entity
// handle. The partner may die or move before consummation; staleness is
// resolved by re-querying the store each tick.
type MateTarget struct {
	X, Y    float32
	Partner uint64
	Active  bool
}

// Clear deactivates the target.
func (m *MateTarget) Clear() {
	*m = MateTarget{}
}

// Set records a partner's position snapshot and ordinal.
func (m *MateTarget) Set(x, y float32, partner uint64) {
	m.X = x
	m.Y = y
	m.Partner = partner
	m.Active = true
}
