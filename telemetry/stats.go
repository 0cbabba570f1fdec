package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated physiology statistics for a time window.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Alive    int `csv:"alive"`
	Critical int `csv:"critical"`
	Dead     int `csv:"dead"`

	// Events during window
	Deaths       int     `csv:"deaths"`
	CritBleeds   int     `csv:"crit_bleeds"`
	Cauterized   int     `csv:"cauterized"`
	PartsLost    int     `csv:"parts_lost"`
	Gibs         int     `csv:"gibs"`
	Spills       int     `csv:"spills"`
	SpillVolume  float64 `csv:"spill_volume"`
	Suffocations int     `csv:"suffocating"` // Bodies suffocating at window end

	// Blood level distribution (sampled at window end)
	BloodMean float64 `csv:"blood_mean"`
	BloodStd  float64 `csv:"blood_std"`
	BloodP10  float64 `csv:"blood_p10"`
	BloodP50  float64 `csv:"blood_p50"`
	BloodP90  float64 `csv:"blood_p90"`

	// Bleed distribution
	BleedMean float64 `csv:"bleed_mean"`
	BleedP90  float64 `csv:"bleed_p90"`

	// Body temperature distribution
	TempMean float64 `csv:"temp_mean"`
	TempP10  float64 `csv:"temp_p10"`
	TempP90  float64 `csv:"temp_p90"`

	// World totals
	PuddleCount      int     `csv:"puddles"`
	PuddleVolume     float64 `csv:"puddle_volume"`
	AbsorbedTotal    float64 `csv:"absorbed_total"` // Cumulative units digested into blood
	ReactionsRun     int     `csv:"reactions"`
	ReactionsBlocked int     `csv:"reactions_blocked"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistStats calculates mean, sample standard deviation and
// percentiles. values is not modified.
func ComputeDistStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("alive", s.Alive),
		slog.Int("critical", s.Critical),
		slog.Int("dead", s.Dead),
		slog.Int("deaths", s.Deaths),
		slog.Int("crit_bleeds", s.CritBleeds),
		slog.Int("cauterized", s.Cauterized),
		slog.Int("parts_lost", s.PartsLost),
		slog.Int("gibs", s.Gibs),
		slog.Int("spills", s.Spills),
		slog.Float64("spill_volume", s.SpillVolume),
		slog.Int("suffocating", s.Suffocations),
		slog.Float64("blood_mean", s.BloodMean),
		slog.Float64("blood_std", s.BloodStd),
		slog.Float64("blood_p10", s.BloodP10),
		slog.Float64("blood_p50", s.BloodP50),
		slog.Float64("blood_p90", s.BloodP90),
		slog.Float64("bleed_mean", s.BleedMean),
		slog.Float64("bleed_p90", s.BleedP90),
		slog.Float64("temp_mean", s.TempMean),
		slog.Float64("temp_p10", s.TempP10),
		slog.Float64("temp_p90", s.TempP90),
		slog.Int("puddles", s.PuddleCount),
		slog.Float64("puddle_volume", s.PuddleVolume),
		slog.Float64("absorbed_total", s.AbsorbedTotal),
		slog.Int("reactions", s.ReactionsRun),
		slog.Int("reactions_blocked", s.ReactionsBlocked),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
