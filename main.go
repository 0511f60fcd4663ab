package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/sim"
	"github.com/pthm-cable/savanna/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for state snapshot files")
	snapshotEvery := flag.Int("snapshot-every", 0, "Write a state snapshot every N ticks (0 = never)")
	restorePath := flag.String("restore", "", "Resume from a state snapshot file")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI override for the stats window
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := sim.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	}

	var s *sim.Sim
	var err error
	if *restorePath != "" {
		var snap *telemetry.Snapshot
		snap, err = telemetry.LoadSnapshot(*restorePath)
		if err == nil {
			s, err = sim.NewFromSnapshot(cfg, snap, opts)
		}
	} else {
		s, err = sim.New(cfg, opts)
	}
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	predators, prey := s.Counts()
	slog.Info("starting simulation",
		"seed", rngSeed,
		"predators", predators,
		"prey", prey,
		"max_ticks", *maxTicks,
	)

	for {
		s.Step()

		tick := s.Tick()

		if *snapshotEvery > 0 && *snapshotDir != "" && int(tick)%*snapshotEvery == 0 {
			if path, err := telemetry.SaveSnapshot(s.Snapshot(), *snapshotDir); err != nil {
				slog.Error("snapshot failed", "error", err)
			} else {
				slog.Info("snapshot written", "tick", tick, "path", path)
			}
		}

		predators, prey = s.Counts()
		if predators == 0 || prey == 0 {
			slog.Info("extinction", "tick", tick, "predators", predators, "prey", prey)
			return
		}

		if *maxTicks > 0 && int(tick) >= *maxTicks {
			slog.Info("max ticks reached", "tick", tick)
			return
		}
	}
}
