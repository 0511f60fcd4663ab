package sim

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
)

// testConfig returns deterministic settings: empty populations, no jitter,
// and a static pool, so tests place agents and drive ticks by hand.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	cfg.Predator.Population = 0
	cfg.Prey.Population = 0
	cfg.Jitter.Amplitude = 0
	cfg.Environment.GrowthRate = 1.0

	return cfg
}

func newTestSim(t *testing.T, cfg *config.Config) *Sim {
	t.Helper()

	s, err := New(cfg, Options{Seed: 1})
	if err != nil {
		t.Fatalf("creating simulation: %v", err)
	}
	return s
}

func TestHuntSteering(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSim(t, cfg)

	pred := s.spawnAgent(0, 0, components.SpeciesPredator)
	prey := s.spawnAgent(10, 0, components.SpeciesPrey)

	s.Step()

	// Predator at (0,0), prey at (10,0), speed 2: one step straight along +x
	predBox := s.boxMap.Get(pred)
	if math.Abs(float64(predBox.X-2.0)) > 0.001 {
		t.Errorf("predator X = %v, want 2.0", predBox.X)
	}
	if math.Abs(float64(predBox.Y)) > 0.001 {
		t.Errorf("predator Y = %v, want 0.0", predBox.Y)
	}
	if got := s.agentMap.Get(pred).Status; got != components.StatusHunting {
		t.Errorf("predator status = %v, want hunting", got)
	}

	// Prey flees along +x at its own speed
	preyBox := s.boxMap.Get(prey)
	if math.Abs(float64(preyBox.X-11.0)) > 0.001 {
		t.Errorf("prey X = %v, want 11.0", preyBox.X)
	}
	if got := s.agentMap.Get(prey).Status; got != components.StatusAvoiding {
		t.Errorf("prey status = %v, want avoiding", got)
	}

	// Hunted prey pays the hunted drain instead of grazing
	if got := s.lifeMap.Get(prey).Value; got != 99 {
		t.Errorf("prey life = %d, want 99", got)
	}
	// Predator pays its unconditional drain
	if got := s.lifeMap.Get(pred).Value; got != 99 {
		t.Errorf("predator life = %d, want 99", got)
	}
}

func TestGrazingFeedsFromPool(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSim(t, cfg)

	prey := s.spawnAgent(0, 0, components.SpeciesPrey)
	s.lifeMap.Get(prey).Value = 10

	poolBefore := s.env.Level()

	s.Step()

	if got := s.lifeMap.Get(prey).Value; got != 11 {
		t.Errorf("prey life = %d, want 11", got)
	}
	if got := s.env.Level(); got != poolBefore-1 {
		t.Errorf("pool = %d, want %d", got, poolBefore-1)
	}
	if got := s.agentMap.Get(prey).Status; got != components.StatusIdle {
		t.Errorf("prey status = %v, want idle", got)
	}
}

func TestGrazingOnEmptyPool(t *testing.T) {
	cfg := testConfig(t)
	cfg.Environment.InitialPool = 0
	s := newTestSim(t, cfg)

	prey := s.spawnAgent(0, 0, components.SpeciesPrey)
	s.lifeMap.Get(prey).Value = 10

	s.Step()

	// Nothing to eat: life unchanged, pool still empty
	if got := s.lifeMap.Get(prey).Value; got != 10 {
		t.Errorf("prey life = %d, want 10", got)
	}
	if got := s.env.Level(); got != 0 {
		t.Errorf("pool = %d, want 0", got)
	}
}

func TestPredationSharedKill(t *testing.T) {
	cfg := testConfig(t)
	// Slow everyone to a crawl so start positions decide the overlaps
	cfg.Predator.Speed = 0.001
	cfg.Prey.Speed = 0.001
	s := newTestSim(t, cfg)

	pack := []ecs.Entity{
		s.spawnAgent(0, 0, components.SpeciesPredator),
		s.spawnAgent(1, 0, components.SpeciesPredator),
		s.spawnAgent(0, 1, components.SpeciesPredator),
	}
	s.spawnAgent(1, 1, components.SpeciesPrey)

	s.Step()

	// The prey dies exactly once
	predators, preyCount := s.Counts()
	if predators != 3 {
		t.Errorf("predators = %d, want 3", predators)
	}
	if preyCount != 0 {
		t.Errorf("prey = %d, want 0", preyCount)
	}

	// Every overlapping predator collects the bounty exactly once:
	// 100 initial - 1 drain + 25 bounty
	for i, e := range pack {
		if got := s.lifeMap.Get(e).Value; got != 124 {
			t.Errorf("predator %d life = %d, want 124", i, got)
		}
	}
}

func TestStarvedPreyYieldsNoBounty(t *testing.T) {
	cfg := testConfig(t)
	cfg.Predator.Speed = 0.001
	cfg.Prey.Speed = 0.001
	cfg.Prey.HuntedDrain = 10
	s := newTestSim(t, cfg)

	pred := s.spawnAgent(0, 0, components.SpeciesPredator)
	prey := s.spawnAgent(1, 0, components.SpeciesPrey)
	s.lifeMap.Get(prey).Value = 5 // hunted drain kills it before the collision pass

	s.Step()

	if got := s.lifeMap.Get(pred).Value; got != 99 {
		t.Errorf("predator life = %d, want 99 (no bounty from a starved prey)", got)
	}
	if _, preyCount := s.Counts(); preyCount != 0 {
		t.Errorf("prey = %d, want 0", preyCount)
	}
}

func TestReproductionOrdinalTieBreak(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSim(t, cfg)

	low := s.spawnAgent(0, 0, components.SpeciesPrey)  // ordinal 0
	high := s.spawnAgent(1, 0, components.SpeciesPrey) // ordinal 1
	s.lifeMap.Get(low).Value = 150
	s.lifeMap.Get(high).Value = 150

	s.Step()

	// Exactly one offspring: the higher ordinal of the pair spawns
	if _, preyCount := s.Counts(); preyCount != 3 {
		t.Errorf("prey = %d, want 3", preyCount)
	}

	// Spawner paid the cost and dropped its target.
	// Both grazed before consummation: 150 + 1 feed gain.
	if got := s.lifeMap.Get(high).Value; got != 121 {
		t.Errorf("spawner life = %d, want 121 (151 - 30 cost)", got)
	}
	if s.mateMap.Get(high).Active {
		t.Error("spawner target still active after consummation")
	}

	// The skipped side keeps its life and its target
	if got := s.lifeMap.Get(low).Value; got != 151 {
		t.Errorf("partner life = %d, want 151", got)
	}
	lowMate := s.mateMap.Get(low)
	if !lowMate.Active || lowMate.Partner != 1 {
		t.Errorf("partner target = %+v, want active targeting ordinal 1", *lowMate)
	}
}

func TestVanishedPartnerIsNoOp(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSim(t, cfg)

	prey := s.spawnAgent(0, 0, components.SpeciesPrey)
	s.lifeMap.Get(prey).Value = 150
	s.mateMap.Get(prey).Set(0, 0, 999) // ordinal that no longer resolves

	// Resolution against a removed ordinal is a silent no-op
	s.updateConsummation()

	if _, preyCount := s.Counts(); preyCount != 1 {
		t.Errorf("prey = %d, want 1", preyCount)
	}
	mate := s.mateMap.Get(prey)
	if !mate.Active || mate.Partner != 999 {
		t.Errorf("target = %+v, want untouched active target", *mate)
	}
}

func TestTargetClearsOutOfRangeOrBelowThreshold(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSim(t, cfg)

	prey := s.spawnAgent(0, 0, components.SpeciesPrey)
	s.lifeMap.Get(prey).Value = 50 // under the reproduction threshold
	s.mateMap.Get(prey).Set(5, 5, 999)

	s.Step()

	if s.mateMap.Get(prey).Active {
		t.Error("ineligible agent kept its mate target")
	}

	// Eligible again, but with no partner left in range the scan clears too
	s.lifeMap.Get(prey).Value = 150
	s.mateMap.Get(prey).Set(5, 5, 999)
	s.Step()

	if s.mateMap.Get(prey).Active {
		t.Error("target survived with no partner in range")
	}
}

func TestPredatorPrefersLockedMateOverPrey(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSim(t, cfg)

	a := s.spawnAgent(0, 0, components.SpeciesPredator)
	b := s.spawnAgent(40, 0, components.SpeciesPredator)
	s.lifeMap.Get(a).Value = 150 // above the predator threshold
	s.lifeMap.Get(b).Value = 150
	s.spawnAgent(-10, 0, components.SpeciesPrey)

	s.Step()

	// a locks b as mate and courts it instead of hunting the closer prey
	if got := s.agentMap.Get(a).Status; got != components.StatusMating {
		t.Errorf("predator status = %v, want mating", got)
	}
	if s.boxMap.Get(a).X <= 0 {
		t.Errorf("predator X = %v, want movement toward the mate at +x", s.boxMap.Get(a).X)
	}
}

func TestStarvationRemoval(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSim(t, cfg)

	pred := s.spawnAgent(0, 0, components.SpeciesPredator)
	s.lifeMap.Get(pred).Value = 1

	s.Step()

	// Drain takes it to zero; it must not survive the tick boundary
	if predators, _ := s.Counts(); predators != 0 {
		t.Errorf("predators = %d, want 0", predators)
	}
}

func TestBoundaryClamp(t *testing.T) {
	cfg := testConfig(t)
	s := newTestSim(t, cfg)

	// The prey flees toward the right wall and gets pinned there
	s.spawnAgent(499.5, 0, components.SpeciesPrey)
	s.spawnAgent(440, 0, components.SpeciesPredator)

	for i := 0; i < 20; i++ {
		s.Step()
		for _, v := range s.Frame() {
			if v.Box.X > 500 || v.Box.X < -500 || v.Box.Y > 300 || v.Box.Y < -300 {
				t.Fatalf("tick %d: agent %d escaped arena at (%v, %v)", i, v.Ordinal, v.Box.X, v.Box.Y)
			}
		}
	}
}

func TestDefaultRunStaysConsistent(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	s, err := New(cfg, Options{Seed: 42})
	if err != nil {
		t.Fatalf("creating simulation: %v", err)
	}

	for i := 0; i < 50; i++ {
		s.Step()

		pool := s.env.Level()
		if pool < 0 || pool > s.env.Max() {
			t.Fatalf("tick %d: pool %d outside [0, %d]", i, pool, s.env.Max())
		}

		for _, v := range s.Frame() {
			if v.Life <= 0 {
				t.Fatalf("tick %d: agent %d alive with life %d", i, v.Ordinal, v.Life)
			}
		}
	}

	predators, prey := s.Counts()
	if predators < 0 || prey < 0 {
		t.Fatalf("negative population: %d predators, %d prey", predators, prey)
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Predator.Population = 5
	cfg.Prey.Population = 20

	s, err := New(cfg, Options{Seed: 7})
	if err != nil {
		t.Fatalf("creating simulation: %v", err)
	}
	for i := 0; i < 10; i++ {
		s.Step()
	}

	snap := s.Snapshot()

	restored, err := NewFromSnapshot(cfg, snap, Options{Seed: 7})
	if err != nil {
		t.Fatalf("restoring: %v", err)
	}

	if restored.Tick() != s.Tick() {
		t.Errorf("tick = %d, want %d", restored.Tick(), s.Tick())
	}
	if restored.env.Level() != s.env.Level() {
		t.Errorf("pool = %d, want %d", restored.env.Level(), s.env.Level())
	}

	wantPred, wantPrey := s.Counts()
	gotPred, gotPrey := restored.Counts()
	if gotPred != wantPred || gotPrey != wantPrey {
		t.Errorf("counts = (%d, %d), want (%d, %d)", gotPred, gotPrey, wantPred, wantPrey)
	}

	// New spawns continue after the highest restored ordinal
	if restored.nextOrdinal != s.nextOrdinal {
		t.Errorf("nextOrdinal = %d, want %d", restored.nextOrdinal, s.nextOrdinal)
	}
}
