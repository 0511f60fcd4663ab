// Package telemetry collects per-window simulation statistics and writes
// them to structured logs and CSV files.
package telemetry

import "github.com/pthm-cable/savanna/components"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks int32
	windowStart int32

	// Event counters for current window
	predBirths int
	preyBirths int
	predDeaths int
	preyDeaths int
	kills      int
	feeds      int
}

// NewCollector creates a stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int32(windowTicks)}
}

// RecordBirth records an offspring spawn.
func (c *Collector) RecordBirth(sp components.Species) {
	if sp == components.SpeciesPredator {
		c.predBirths++
	} else {
		c.preyBirths++
	}
}

// RecordDeath records an agent removal.
func (c *Collector) RecordDeath(sp components.Species) {
	if sp == components.SpeciesPredator {
		c.predDeaths++
	} else {
		c.preyDeaths++
	}
}

// RecordKill records a predation kill.
func (c *Collector) RecordKill() {
	c.kills++
}

// RecordFeed records one environment unit consumed by a prey.
func (c *Collector) RecordFeed() {
	c.feeds++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStart >= c.windowTicks
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int32 {
	return c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides current population counts, per-species life samples,
// and the environment pool state.
func (c *Collector) Flush(
	currentTick int32,
	predCount, preyCount int,
	predLives, preyLives []float64,
	pool, maxPool int32,
) WindowStats {
	predMean, predStd, predP10, predP50, predP90 := ComputeLifeStats(predLives)
	preyMean, preyStd, preyP10, preyP50, preyP90 := ComputeLifeStats(preyLives)

	var fill float64
	if maxPool > 0 {
		fill = float64(pool) / float64(maxPool)
	}

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   currentTick,

		PredCount: predCount,
		PreyCount: preyCount,

		PredBirths: c.predBirths,
		PreyBirths: c.preyBirths,
		PredDeaths: c.predDeaths,
		PreyDeaths: c.preyDeaths,
		Kills:      c.kills,
		Feeds:      c.feeds,

		PredLifeMean: predMean,
		PredLifeStd:  predStd,
		PredLifeP10:  predP10,
		PredLifeP50:  predP50,
		PredLifeP90:  predP90,

		PreyLifeMean: preyMean,
		PreyLifeStd:  preyStd,
		PreyLifeP10:  preyP10,
		PreyLifeP50:  preyP50,
		PreyLifeP90:  preyP90,

		PoolLevel: pool,
		PoolFill:  fill,
	}

	// Reset for next window
	c.windowStart = currentTick
	c.predBirths = 0
	c.preyBirths = 0
	c.predDeaths = 0
	c.preyDeaths = 0
	c.kills = 0
	c.feeds = 0

	return stats
}
