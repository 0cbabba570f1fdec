package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pthm-cable/anatomy/systems"
)

// phaseOrder lists step phases in the order they run.
var phaseOrder = systems.NewSystemRegistry().IDs()

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	now func() time.Time
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of ticks to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Phase breakdown (average durations and share of tick time)
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// SlowestPhase is the phase with the largest average duration, "" when empty.
	SlowestPhase string

	// Throughput
	TicksPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return stats
	}

	ticks := make([]float64, p.sampleCount)
	phaseSum := make(map[string]time.Duration)
	var total time.Duration
	for i, s := range p.samples[:p.sampleCount] {
		ticks[i] = float64(s.TickDuration)
		total += s.TickDuration
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}
	sort.Float64s(ticks)

	n := time.Duration(p.sampleCount)
	stats.AvgTickDuration = total / n
	stats.MinTickDuration = time.Duration(ticks[0])
	stats.MaxTickDuration = time.Duration(ticks[len(ticks)-1])
	stats.P95TickDuration = time.Duration(Percentile(ticks, 0.95))
	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}

	var slowest time.Duration
	for phase, sum := range phaseSum {
		avg := sum / n
		stats.PhaseAvg[phase] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
		if avg > slowest || (avg == slowest && phase < stats.SlowestPhase) {
			slowest, stats.SlowestPhase = avg, phase
		}
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"slowest", s.SlowestPhase,
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.String("slowest", s.SlowestPhase),
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd      uint64  `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	P95TickUS      int64   `csv:"p95_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	SlowestPhase   string  `csv:"slowest_phase"`
	RespirationPct float64 `csv:"respiration_pct"`
	DigestionPct   float64 `csv:"digestion_pct"`
	BloodstreamPct float64 `csv:"bloodstream_pct"`
	ReactionsPct   float64 `csv:"reactions_pct"`
	ThermalPct     float64 `csv:"thermal_pct"`
	StatusPct      float64 `csv:"status_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd uint64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		MinTickUS:      s.MinTickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		P95TickUS:      s.P95TickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		SlowestPhase:   s.SlowestPhase,
		RespirationPct: s.PhasePct[systems.IDRespiration],
		DigestionPct:   s.PhasePct[systems.IDDigestion],
		BloodstreamPct: s.PhasePct[systems.IDBloodstream],
		ReactionsPct:   s.PhasePct[systems.IDReactions],
		ThermalPct:     s.PhasePct[systems.IDThermal],
		StatusPct:      s.PhasePct[systems.IDStatus],
		TelemetryPct:   s.PhasePct[systems.IDTelemetry],
	}
}
