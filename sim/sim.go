// Package sim runs the predator/prey arena simulation: a fixed single-threaded
// tick pipeline over an ECS world.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/systems"
	"github.com/pthm-cable/savanna/telemetry"
)

// params is the simulation's startup snapshot of the configuration,
// pre-converted to the types the tick pipeline works in. Config changes
// after New have no effect on a running simulation.
type params struct {
	arenaW, arenaH float32

	predSpeed     float32
	predRange     float32
	predLife      int32
	predDrain     int32
	bounty        int32
	predThreshold int32
	predCost      int32

	preySpeed     float32
	preyRange     float32
	preyLife      int32
	huntedDrain   int32
	feedGain      int32
	preyThreshold int32
	preyCost      int32

	dimension  float32
	jitter     float32
	growthRate float64
}

func newParams(cfg *config.Config) params {
	return params{
		arenaW: float32(cfg.Arena.Width),
		arenaH: float32(cfg.Arena.Height),

		predSpeed:     float32(cfg.Predator.Speed),
		predRange:     float32(cfg.Predator.DetectionRange),
		predLife:      int32(cfg.Predator.InitialLife),
		predDrain:     int32(cfg.Predator.Drain),
		bounty:        int32(cfg.Predator.Bounty),
		predThreshold: int32(cfg.Predator.ReproThreshold),
		predCost:      int32(cfg.Predator.ReproCost),

		preySpeed:     float32(cfg.Prey.Speed),
		preyRange:     float32(cfg.Prey.DetectionRange),
		preyLife:      int32(cfg.Prey.InitialLife),
		huntedDrain:   int32(cfg.Prey.HuntedDrain),
		feedGain:      int32(cfg.Prey.FeedGain),
		preyThreshold: int32(cfg.Prey.ReproThreshold),
		preyCost:      int32(cfg.Prey.ReproCost),

		dimension:  float32(cfg.Entity.Dimension),
		jitter:     float32(cfg.Jitter.Amplitude),
		growthRate: cfg.Environment.GrowthRate,
	}
}

// Options holds run options that are not part of the simulation config.
type Options struct {
	Seed     int64
	LogStats bool
	// OutputDir enables CSV output when non-empty.
	OutputDir string
}

// Sim holds the complete simulation state.
type Sim struct {
	world *ecs.World
	rng   *rand.Rand
	p     params
	seed  int64

	mapper *ecs.Map4[
		components.Box,
		components.Life,
		components.Agent,
		components.MateTarget,
	]
	filter *ecs.Filter4[
		components.Box,
		components.Life,
		components.Agent,
		components.MateTarget,
	]

	// Individual component mappers for lookups
	boxMap   *ecs.Map1[components.Box]
	lifeMap  *ecs.Map1[components.Life]
	agentMap *ecs.Map1[components.Agent]
	mateMap  *ecs.Map1[components.MateTarget]

	// Ordinal index for weak-reference resolution
	byOrdinal   map[uint64]ecs.Entity
	nextOrdinal uint64

	env *systems.Environment

	tick    int32
	numPred int
	numPrey int

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	history   *telemetry.History
	output    *telemetry.OutputManager
	logStats  bool

	// Scratch candidate slices, rebuilt each tick
	predSnap []systems.Candidate
	preySnap []systems.Candidate
}

// New creates a simulation from the given configuration and spawns the
// initial populations.
func New(cfg *config.Config, opts Options) (*Sim, error) {
	s, err := newSim(cfg, opts)
	if err != nil {
		return nil, err
	}
	s.spawnInitialPopulation(cfg.Predator.Population, cfg.Prey.Population)
	return s, nil
}

// newSim builds an empty simulation: world, mappers, environment, telemetry.
func newSim(cfg *config.Config, opts Options) (*Sim, error) {
	world := ecs.NewWorld()

	s := &Sim{
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		p:     newParams(cfg),
		seed:  opts.Seed,
		mapper: ecs.NewMap4[
			components.Box,
			components.Life,
			components.Agent,
			components.MateTarget,
		](world),
		filter: ecs.NewFilter4[
			components.Box,
			components.Life,
			components.Agent,
			components.MateTarget,
		](world),
		boxMap:    ecs.NewMap1[components.Box](world),
		lifeMap:   ecs.NewMap1[components.Life](world),
		agentMap:  ecs.NewMap1[components.Agent](world),
		mateMap:   ecs.NewMap1[components.MateTarget](world),
		byOrdinal: make(map[uint64]ecs.Entity),
		env: systems.NewEnvironment(
			int32(cfg.Environment.InitialPool),
			int32(cfg.Environment.MaxPool),
		),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		history:   telemetry.NewHistory(4096),
		logStats:  opts.LogStats,
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	s.output = output
	if err := s.output.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("writing run config: %w", err)
	}

	return s, nil
}

// spawnInitialPopulation scatters the starting agents uniformly over
// the arena.
func (s *Sim) spawnInitialPopulation(predators, prey int) {
	for i := 0; i < predators; i++ {
		x := (s.rng.Float32() - 0.5) * s.p.arenaW
		y := (s.rng.Float32() - 0.5) * s.p.arenaH
		s.spawnAgent(x, y, components.SpeciesPredator)
	}
	for i := 0; i < prey; i++ {
		x := (s.rng.Float32() - 0.5) * s.p.arenaW
		y := (s.rng.Float32() - 0.5) * s.p.arenaH
		s.spawnAgent(x, y, components.SpeciesPrey)
	}
}

// spawnAgent creates an agent at the given position with its species'
// initial life and the next ordinal.
func (s *Sim) spawnAgent(x, y float32, sp components.Species) ecs.Entity {
	ordinal := s.nextOrdinal
	s.nextOrdinal++

	box := components.Box{X: x, Y: y, Width: s.p.dimension, Height: s.p.dimension}
	life := components.Life{Value: s.p.preyLife}
	if sp == components.SpeciesPredator {
		life.Value = s.p.predLife
	}
	agent := components.Agent{Ordinal: ordinal, Species: sp, Status: components.StatusIdle}
	mate := components.MateTarget{}

	entity := s.mapper.NewEntity(&box, &life, &agent, &mate)
	s.byOrdinal[ordinal] = entity

	if sp == components.SpeciesPredator {
		s.numPred++
	} else {
		s.numPrey++
	}

	return entity
}

// Tick returns the current simulation tick.
func (s *Sim) Tick() int32 {
	return s.tick
}

// Counts returns the current predator and prey population counts.
func (s *Sim) Counts() (predators, prey int) {
	return s.numPred, s.numPrey
}

// Env returns the shared environment pool.
func (s *Sim) Env() *systems.Environment {
	return s.env
}

// History returns the population history ring.
func (s *Sim) History() *telemetry.History {
	return s.history
}

// Close flushes and closes the output files, if any.
func (s *Sim) Close() error {
	return s.output.Close()
}

// AgentView is a read-only copy of one agent's state.
type AgentView struct {
	Ordinal uint64
	Species components.Species
	Status  components.Status
	Box     components.Box
	Life    int32
	Hunted  bool
}

// Frame returns a copy of every live agent's state, for observers that
// must not touch the world.
func (s *Sim) Frame() []AgentView {
	views := make([]AgentView, 0, s.numPred+s.numPrey)

	query := s.filter.Query()
	for query.Next() {
		box, life, agent, _ := query.Get()
		views = append(views, AgentView{
			Ordinal: agent.Ordinal,
			Species: agent.Species,
			Status:  agent.Status,
			Box:     *box,
			Life:    life.Value,
			Hunted:  agent.Hunted,
		})
	}

	return views
}

// Snapshot exports the complete simulation state.
func (s *Sim) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     s.seed,
		ArenaWidth:  s.p.arenaW,
		ArenaHeight: s.p.arenaH,
		Pool:        s.env.Level(),
		MaxPool:     s.env.Max(),
		Tick:        s.tick,
	}

	query := s.filter.Query()
	for query.Next() {
		box, life, agent, mate := query.Get()
		snap.Agents = append(snap.Agents, telemetry.AgentState{
			Ordinal:     agent.Ordinal,
			Species:     agent.Species,
			Status:      agent.Status,
			X:           box.X,
			Y:           box.Y,
			Width:       box.Width,
			Height:      box.Height,
			Life:        life.Value,
			Mortal:      life.Mortal,
			Hunted:      agent.Hunted,
			MateActive:  mate.Active,
			MatePartner: mate.Partner,
			MateX:       mate.X,
			MateY:       mate.Y,
		})
	}

	return snap
}

// NewFromSnapshot restores a simulation from an exported snapshot. The
// configuration supplies rates and thresholds; populations, positions, and
// the environment pool come from the snapshot.
func NewFromSnapshot(cfg *config.Config, snap *telemetry.Snapshot, opts Options) (*Sim, error) {
	if snap.Version != telemetry.SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d not supported", snap.Version)
	}

	s, err := newSim(cfg, opts)
	if err != nil {
		return nil, err
	}

	s.env = systems.NewEnvironment(snap.Pool, snap.MaxPool)
	s.tick = snap.Tick

	for _, st := range snap.Agents {
		box := components.Box{X: st.X, Y: st.Y, Width: st.Width, Height: st.Height}
		life := components.Life{Value: st.Life, Mortal: st.Mortal}
		agent := components.Agent{
			Ordinal: st.Ordinal,
			Species: st.Species,
			Status:  st.Status,
			Hunted:  st.Hunted,
		}
		mate := components.MateTarget{
			X:       st.MateX,
			Y:       st.MateY,
			Partner: st.MatePartner,
			Active:  st.MateActive,
		}

		entity := s.mapper.NewEntity(&box, &life, &agent, &mate)
		s.byOrdinal[st.Ordinal] = entity

		if st.Species == components.SpeciesPredator {
			s.numPred++
		} else {
			s.numPrey++
		}
		if st.Ordinal >= s.nextOrdinal {
			s.nextOrdinal = st.Ordinal + 1
		}
	}

	return s, nil
}
