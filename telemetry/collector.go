package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks uint64
	dt                  float64

	// Current window tracking
	windowStartTick uint64

	// Event counters for current window
	deaths      int
	critBleeds  int
	cauterized  int
	partsLost   int
	gibs        int
	spills      int
	spillVolume float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := uint64(windowDurationSec/dt + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordDeath records a body reaching the dead state.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// RecordCritBleed records a successful crit-bleed roll.
func (c *Collector) RecordCritBleed() {
	c.critBleeds++
}

// RecordCauterize records wounds being cauterized.
func (c *Collector) RecordCauterize() {
	c.cauterized++
}

// RecordPartLost records one part leaving a body.
func (c *Collector) RecordPartLost() {
	c.partsLost++
}

// RecordGib records a body being gibbed.
func (c *Collector) RecordGib() {
	c.gibs++
}

// RecordSpill records a solution emptied into a puddle.
func (c *Collector) RecordSpill(volume float64) {
	c.spills++
	c.spillVolume += volume
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Sample is the world state measured at the end of a window.
type Sample struct {
	Alive, Critical, Dead int
	Suffocating           int

	BloodLevels  []float64
	BleedAmounts []float64
	Temperatures []float64

	PuddleCount      int
	PuddleVolume     float64
	AbsorbedTotal    float64
	ReactionsRun     int
	ReactionsBlocked int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick uint64, sample Sample) WindowStats {
	bloodMean, bloodStd, bloodP10, bloodP50, bloodP90 := ComputeDistStats(sample.BloodLevels)
	bleedMean, _, _, _, bleedP90 := ComputeDistStats(sample.BleedAmounts)
	tempMean, _, tempP10, _, tempP90 := ComputeDistStats(sample.Temperatures)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Alive:    sample.Alive,
		Critical: sample.Critical,
		Dead:     sample.Dead,

		Deaths:       c.deaths,
		CritBleeds:   c.critBleeds,
		Cauterized:   c.cauterized,
		PartsLost:    c.partsLost,
		Gibs:         c.gibs,
		Spills:       c.spills,
		SpillVolume:  c.spillVolume,
		Suffocations: sample.Suffocating,

		BloodMean: bloodMean,
		BloodStd:  bloodStd,
		BloodP10:  bloodP10,
		BloodP50:  bloodP50,
		BloodP90:  bloodP90,

		BleedMean: bleedMean,
		BleedP90:  bleedP90,

		TempMean: tempMean,
		TempP10:  tempP10,
		TempP90:  tempP90,

		PuddleCount:      sample.PuddleCount,
		PuddleVolume:     sample.PuddleVolume,
		AbsorbedTotal:    sample.AbsorbedTotal,
		ReactionsRun:     sample.ReactionsRun,
		ReactionsBlocked: sample.ReactionsBlocked,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.deaths = 0
	c.critBleeds = 0
	c.cauterized = 0
	c.partsLost = 0
	c.gibs = 0
	c.spills = 0
	c.spillVolume = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}
