package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStart int32 `csv:"-"`
	WindowEnd   int32 `csv:"window_end"`

	// Population counts at window end
	PredCount int `csv:"pred"`
	PreyCount int `csv:"prey"`

	// Events during window
	PredBirths int `csv:"pred_births"`
	PreyBirths int `csv:"prey_births"`
	PredDeaths int `csv:"pred_deaths"`
	PreyDeaths int `csv:"prey_deaths"`
	Kills      int `csv:"kills"`
	Feeds      int `csv:"feeds"`

	// Life distribution (sampled at window end)
	PredLifeMean float64 `csv:"pred_life_mean"`
	PredLifeStd  float64 `csv:"pred_life_std"`
	PredLifeP10  float64 `csv:"pred_life_p10"`
	PredLifeP50  float64 `csv:"pred_life_p50"`
	PredLifeP90  float64 `csv:"pred_life_p90"`

	PreyLifeMean float64 `csv:"prey_life_mean"`
	PreyLifeStd  float64 `csv:"prey_life_std"`
	PreyLifeP10  float64 `csv:"prey_life_p10"`
	PreyLifeP50  float64 `csv:"prey_life_p50"`
	PreyLifeP90  float64 `csv:"prey_life_p90"`

	// Environment pool
	PoolLevel int32   `csv:"pool"`
	PoolFill  float64 `csv:"pool_fill"`
}

// ComputeLifeStats calculates mean, standard deviation, and percentiles
// from life samples. Returns zeros for an empty slice.
func ComputeLifeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if n > 1 {
		std = stat.StdDev(values, nil)
	}

	// Quantile requires sorted input
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStart)),
		slog.Int("window_end", int(s.WindowEnd)),
		slog.Int("pred", s.PredCount),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred_births", s.PredBirths),
		slog.Int("prey_births", s.PreyBirths),
		slog.Int("pred_deaths", s.PredDeaths),
		slog.Int("prey_deaths", s.PreyDeaths),
		slog.Int("kills", s.Kills),
		slog.Int("feeds", s.Feeds),
		slog.Float64("pred_life_mean", s.PredLifeMean),
		slog.Float64("pred_life_std", s.PredLifeStd),
		slog.Float64("pred_life_p10", s.PredLifeP10),
		slog.Float64("pred_life_p50", s.PredLifeP50),
		slog.Float64("pred_life_p90", s.PredLifeP90),
		slog.Float64("prey_life_mean", s.PreyLifeMean),
		slog.Float64("prey_life_std", s.PreyLifeStd),
		slog.Float64("prey_life_p10", s.PreyLifeP10),
		slog.Float64("prey_life_p50", s.PreyLifeP50),
		slog.Float64("prey_life_p90", s.PreyLifeP90),
		slog.Int("pool", int(s.PoolLevel)),
		slog.Float64("pool_fill", s.PoolFill),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEnd,
		"pred", s.PredCount,
		"prey", s.PreyCount,
		"pred_births", s.PredBirths,
		"prey_births", s.PreyBirths,
		"pred_deaths", s.PredDeaths,
		"prey_deaths", s.PreyDeaths,
		"kills", s.Kills,
		"feeds", s.Feeds,
		"pred_life_mean", s.PredLifeMean,
		"prey_life_mean", s.PreyLifeMean,
		"pool", s.PoolLevel,
		"pool_fill", s.PoolFill,
	)
}
