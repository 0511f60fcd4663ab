package telemetry

import (
	"testing"

	"github.com/pthm-cable/savanna/components"
)

func TestCollectorFlushCycle(t *testing.T) {
	c := NewCollector(100)

	if c.ShouldFlush(50) {
		t.Error("flush requested before window elapsed")
	}
	if !c.ShouldFlush(100) {
		t.Error("no flush at window boundary")
	}

	c.RecordBirth(components.SpeciesPrey)
	c.RecordBirth(components.SpeciesPrey)
	c.RecordBirth(components.SpeciesPredator)
	c.RecordDeath(components.SpeciesPrey)
	c.RecordKill()
	c.RecordFeed()
	c.RecordFeed()

	stats := c.Flush(100, 30, 1500, nil, nil, 4000, 10000)

	if stats.WindowStart != 0 || stats.WindowEnd != 100 {
		t.Errorf("window = [%d, %d], want [0, 100]", stats.WindowStart, stats.WindowEnd)
	}
	if stats.PreyBirths != 2 || stats.PredBirths != 1 {
		t.Errorf("births = (%d, %d), want (1, 2)", stats.PredBirths, stats.PreyBirths)
	}
	if stats.PreyDeaths != 1 || stats.Kills != 1 || stats.Feeds != 2 {
		t.Errorf("deaths/kills/feeds = %d/%d/%d, want 1/1/2", stats.PreyDeaths, stats.Kills, stats.Feeds)
	}
	if stats.PredCount != 30 || stats.PreyCount != 1500 {
		t.Errorf("counts = (%d, %d), want (30, 1500)", stats.PredCount, stats.PreyCount)
	}
	if stats.PoolFill != 0.4 {
		t.Errorf("pool fill = %v, want 0.4", stats.PoolFill)
	}

	// Flush resets the counters and advances the window
	if c.ShouldFlush(150) {
		t.Error("flush requested right after reset")
	}
	next := c.Flush(200, 0, 0, nil, nil, 0, 10000)
	if next.PreyBirths != 0 || next.Kills != 0 || next.Feeds != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStart != 100 {
		t.Errorf("window start = %d, want 100", next.WindowStart)
	}
}

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3)

	for tick := int32(1); tick <= 5; tick++ {
		h.Append(PopulationSample{Tick: tick, Predators: int(tick), Prey: int(tick) * 10})
	}

	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}

	samples := h.Samples()
	wantTicks := []int32{3, 4, 5}
	for i, want := range wantTicks {
		if samples[i].Tick != want {
			t.Errorf("samples[%d].Tick = %d, want %d", i, samples[i].Tick, want)
		}
	}
}
