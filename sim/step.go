package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/systems"
	"github.com/pthm-cable/savanna/telemetry"
)

// Step runs a single tick of the simulation. Passes run in a fixed order;
// every perception scan within a pass observes the positions the tick
// started with.
func (s *Sim) Step() {
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseSnapshot)
	s.buildSnapshots()

	s.perf.StartPhase(telemetry.PhaseMating)
	s.updateMateTargets()

	s.perf.StartPhase(telemetry.PhaseBehavior)
	s.updateBehavior()

	s.perf.StartPhase(telemetry.PhaseVitals)
	s.updateVitals()

	s.perf.StartPhase(telemetry.PhaseCollisions)
	s.updatePredation()
	s.updateConsummation()

	s.perf.StartPhase(telemetry.PhaseCleanup)
	s.cleanupMortal()

	s.perf.StartPhase(telemetry.PhaseBoundary)
	s.clampBounds()

	s.perf.StartPhase(telemetry.PhaseJitter)
	s.applyJitter()

	s.perf.StartPhase(telemetry.PhaseEnvironment)
	s.env.Grow(s.p.growthRate)

	s.tick++

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.updateTelemetry()

	s.perf.EndTick()
}

// buildSnapshots clears last tick's hunt marks and captures per-species
// candidate lists, so scans later in the tick see pre-movement state.
func (s *Sim) buildSnapshots() {
	s.predSnap = s.predSnap[:0]
	s.preySnap = s.preySnap[:0]

	query := s.filter.Query()
	for query.Next() {
		box, life, agent, _ := query.Get()

		agent.Hunted = false

		c := systems.Candidate{Ordinal: agent.Ordinal, Box: *box, Life: life.Value}
		if agent.Species == components.SpeciesPredator {
			s.predSnap = append(s.predSnap, c)
		} else {
			s.preySnap = append(s.preySnap, c)
		}
	}
}

// updateMateTargets re-records each agent's prospective partner from this
// tick's scan. Eligibility is life at or above the species threshold; a prey
// with a predator in range is busy fleeing and does not court. The target is
// always the current nearest eligible conspecific in detection range, so its
// position snapshot stays fresh; with no partner in range the target clears.
func (s *Sim) updateMateTargets() {
	query := s.filter.Query()
	for query.Next() {
		box, life, agent, mate := query.Get()

		var threshold int32
		var detection float32
		var fleeing bool
		var conspecifics []systems.Candidate

		if agent.Species == components.SpeciesPredator {
			threshold = s.p.predThreshold
			detection = s.p.predRange
			conspecifics = s.predSnap
		} else {
			threshold = s.p.preyThreshold
			detection = s.p.preyRange
			pred := systems.NearestInRange(*box, agent.Ordinal, s.predSnap, detection)
			fleeing = pred.Found
			conspecifics = s.preySnap
		}

		if life.Value < threshold || fleeing {
			mate.Clear()
			continue
		}

		partner := systems.NearestEligibleMate(*box, agent.Ordinal, conspecifics, detection, threshold)
		if partner.Found {
			mate.Set(partner.Box.X, partner.Box.Y, partner.Ordinal)
		} else {
			mate.Clear()
		}
	}
}

// updateBehavior classifies every agent fresh from perception and moves it
// one step. A predator with a locked mate target courts it even when prey is
// in sight; otherwise it hunts the nearest prey in range. For prey a
// predator in range overrides everything, then courting, then idle.
func (s *Sim) updateBehavior() {
	query := s.filter.Query()
	for query.Next() {
		box, _, agent, mate := query.Get()

		if agent.Species == components.SpeciesPredator {
			prey := systems.NearestInRange(*box, agent.Ordinal, s.preySnap, s.p.predRange)
			switch {
			case mate.Active:
				agent.Status = components.StatusMating
				systems.Steer(box, components.Box{X: mate.X, Y: mate.Y}, s.p.predSpeed, systems.SignSeek)
			case prey.Found:
				agent.Status = components.StatusHunting
				systems.Steer(box, prey.Box, s.p.predSpeed, systems.SignSeek)
				s.markHunted(prey.Ordinal)
			default:
				agent.Status = components.StatusIdle
			}
			continue
		}

		pred := systems.NearestInRange(*box, agent.Ordinal, s.predSnap, s.p.preyRange)
		switch {
		case pred.Found:
			agent.Status = components.StatusAvoiding
			systems.Steer(box, pred.Box, s.p.preySpeed, systems.SignFlee)
		case mate.Active:
			agent.Status = components.StatusMating
			systems.Steer(box, components.Box{X: mate.X, Y: mate.Y}, s.p.preySpeed, systems.SignSeek)
		default:
			agent.Status = components.StatusIdle
		}
	}
}

// markHunted flags the prey with the given ordinal as a hunt target.
func (s *Sim) markHunted(ordinal uint64) {
	entity, ok := s.byOrdinal[ordinal]
	if !ok {
		return
	}
	s.agentMap.Get(entity).Hunted = true
}

// updateVitals applies per-tick life changes. Predators pay an unconditional
// drain. Prey pay the hunted drain while a predator has them marked;
// otherwise they graze, converting one environment unit into feed gain when
// the pool has any. Life at or below zero flags the agent mortal.
func (s *Sim) updateVitals() {
	query := s.filter.Query()
	for query.Next() {
		_, life, agent, _ := query.Get()

		if agent.Species == components.SpeciesPredator {
			life.Value -= s.p.predDrain
		} else if agent.Hunted {
			life.Value -= s.p.huntedDrain
		} else if s.env.Consume() {
			life.Value += s.p.feedGain
			s.collector.RecordFeed()
		}

		if life.Value <= 0 {
			life.Mortal = true
		}
	}
}

// predatorRef is a collision-pass handle to one living predator.
type predatorRef struct {
	entity ecs.Entity
	box    components.Box
}

// updatePredation resolves predator/prey box overlaps. Every predator
// overlapping a prey collects the bounty; the prey dies exactly once no
// matter how many predators share the kill. Prey already mortal this tick
// yield nothing.
func (s *Sim) updatePredation() {
	var predators []predatorRef

	query := s.filter.Query()
	for query.Next() {
		box, life, agent, _ := query.Get()
		if agent.Species == components.SpeciesPredator && !life.Mortal {
			predators = append(predators, predatorRef{entity: query.Entity(), box: *box})
		}
	}

	if len(predators) == 0 {
		return
	}

	query = s.filter.Query()
	for query.Next() {
		box, life, agent, _ := query.Get()
		if agent.Species != components.SpeciesPrey || life.Mortal {
			continue
		}

		killed := false
		for i := range predators {
			if systems.Overlaps(predators[i].box, *box) {
				s.lifeMap.Get(predators[i].entity).Value += s.p.bounty
				killed = true
			}
		}
		if killed {
			life.Mortal = true
			s.collector.RecordKill()
		}
	}
}

// birth is a spawn queued during consummation, applied after iteration.
type birth struct {
	x, y    float32
	species components.Species
}

// updateConsummation resolves active mate targets. The partner is looked up
// by ordinal; a vanished or mortal partner means nothing happens this tick.
// When the pair's boxes overlap, only the agent with the higher ordinal
// spawns the offspring, pays the reproduction cost, and drops its target;
// the other agent's target stands until its own turn.
func (s *Sim) updateConsummation() {
	var births []birth

	query := s.filter.Query()
	for query.Next() {
		box, life, agent, mate := query.Get()

		if !mate.Active || life.Mortal {
			continue
		}

		partnerEntity, ok := s.byOrdinal[mate.Partner]
		if !ok {
			continue
		}
		if s.lifeMap.Get(partnerEntity).Mortal {
			continue
		}

		partnerBox := s.boxMap.Get(partnerEntity)
		if !systems.Overlaps(*box, *partnerBox) {
			continue
		}
		if agent.Ordinal < mate.Partner {
			continue
		}

		births = append(births, birth{
			x:       (box.X + partnerBox.X) / 2,
			y:       (box.Y + partnerBox.Y) / 2,
			species: agent.Species,
		})

		var cost int32
		if agent.Species == components.SpeciesPredator {
			cost = s.p.predCost
		} else {
			cost = s.p.preyCost
		}
		life.Value -= cost
		mate.Clear()
		if life.Value <= 0 {
			life.Mortal = true
		}
	}

	for _, b := range births {
		s.spawnAgent(b.x, b.y, b.species)
		s.collector.RecordBirth(b.species)
	}
}

// cleanupMortal removes every mortal agent from the world. Collection and
// removal are separate passes; the query must finish before the world
// changes shape.
func (s *Sim) cleanupMortal() {
	type deadInfo struct {
		entity  ecs.Entity
		ordinal uint64
		species components.Species
	}
	var toRemove []deadInfo

	query := s.filter.Query()
	for query.Next() {
		_, life, agent, _ := query.Get()
		if life.Mortal {
			toRemove = append(toRemove, deadInfo{
				entity:  query.Entity(),
				ordinal: agent.Ordinal,
				species: agent.Species,
			})
		}
	}

	for _, dead := range toRemove {
		s.mapper.Remove(dead.entity)
		delete(s.byOrdinal, dead.ordinal)
		s.collector.RecordDeath(dead.species)

		if dead.species == components.SpeciesPredator {
			s.numPred--
		} else {
			s.numPrey--
		}
	}
}

// clampBounds stops every agent at the arena edges.
func (s *Sim) clampBounds() {
	query := s.filter.Query()
	for query.Next() {
		box, _, _, _ := query.Get()
		systems.ClampBox(box, s.p.arenaW, s.p.arenaH)
	}
}

// applyJitter displaces every agent by a uniform random amount per axis.
func (s *Sim) applyJitter() {
	if s.p.jitter == 0 {
		return
	}

	query := s.filter.Query()
	for query.Next() {
		box, _, _, _ := query.Get()
		box.X += (s.rng.Float32()*2 - 1) * s.p.jitter
		box.Y += (s.rng.Float32()*2 - 1) * s.p.jitter
	}
}

// updateTelemetry appends the population sample and flushes the stats
// window when due.
func (s *Sim) updateTelemetry() {
	s.history.Append(telemetry.PopulationSample{
		Tick:      s.tick,
		Predators: s.numPred,
		Prey:      s.numPrey,
	})

	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	predLives, preyLives := s.collectLives()
	stats := s.collector.Flush(
		s.tick,
		s.numPred, s.numPrey,
		predLives, preyLives,
		s.env.Level(), s.env.Max(),
	)

	if s.logStats {
		stats.LogStats()
	}
	// Output failure must not stop the run
	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("telemetry write failed", "error", err)
	}

	perfStats := s.perf.Stats()
	if s.logStats {
		perfStats.LogStats()
	}
	if err := s.output.WritePerf(perfStats, s.tick); err != nil {
		slog.Error("perf write failed", "error", err)
	}
}

// collectLives samples every agent's life value by species.
func (s *Sim) collectLives() (predLives, preyLives []float64) {
	query := s.filter.Query()
	for query.Next() {
		_, life, agent, _ := query.Get()
		if agent.Species == components.SpeciesPredator {
			predLives = append(predLives, float64(life.Value))
		} else {
			preyLives = append(preyLives, float64(life.Value))
		}
	}
	return predLives, preyLives
}
