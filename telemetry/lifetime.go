package telemetry

import "github.com/mlange-42/ark/ecs"

// LifetimeStats tracks one creature's physiology over its life.
type LifetimeStats struct {
	CreatureID uint32  `csv:"creature"`
	Template   string  `csv:"template"`
	DNA        string  `csv:"dna"`
	BirthTick  uint64  `csv:"birth_tick"`
	DeathTick  uint64  `csv:"death_tick"`
	Survival   float64 `csv:"survival_sec"`
	Cause      Cause   `csv:"cause"`

	MinBloodLevel  float64 `csv:"min_blood_level"`
	PeakBleed      float64 `csv:"peak_bleed"`
	CritBleeds     int     `csv:"crit_bleeds"`
	PartsLost      int     `csv:"parts_lost"`
	Suffocating    int     `csv:"suffocating_windows"` // Windows that ended while suffocating
	PeakTempOffset float64 `csv:"peak_temp_offset"` // Largest |temperature - normal| seen
	Gibbed         bool    `csv:"gibbed"`
}

// LifetimeTracker manages per-creature lifetime statistics.
type LifetimeTracker struct {
	stats map[ecs.Entity]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[ecs.Entity]*LifetimeStats),
	}
}

// Register creates lifetime stats for a newly spawned creature.
func (lt *LifetimeTracker) Register(e ecs.Entity, id uint32, template, dna string, birthTick uint64) {
	lt.stats[e] = &LifetimeStats{
		CreatureID:    id,
		Template:      template,
		DNA:           dna,
		BirthTick:     birthTick,
		MinBloodLevel: 1,
	}
}

// Get returns the lifetime stats for a creature, or nil if not found.
func (lt *LifetimeTracker) Get(e ecs.Entity) *LifetimeStats {
	return lt.stats[e]
}

// Finish closes a creature's record and removes it from the tracker.
func (lt *LifetimeTracker) Finish(e ecs.Entity, tick uint64, dt float64, cause Cause) *LifetimeStats {
	s := lt.stats[e]
	if s == nil {
		return nil
	}
	delete(lt.stats, e)
	s.DeathTick = tick
	s.Survival = float64(tick-s.BirthTick) * dt
	s.Cause = cause
	return s
}

// RecordCritBleed increments the crit-bleed count.
func (lt *LifetimeTracker) RecordCritBleed(e ecs.Entity) {
	if s := lt.stats[e]; s != nil {
		s.CritBleeds++
	}
}

// RecordPartLost increments the lost part count.
func (lt *LifetimeTracker) RecordPartLost(e ecs.Entity) {
	if s := lt.stats[e]; s != nil {
		s.PartsLost++
	}
}

// RecordGib marks the creature as gibbed.
func (lt *LifetimeTracker) RecordGib(e ecs.Entity) {
	if s := lt.stats[e]; s != nil {
		s.Gibbed = true
	}
}

// UpdateVitals folds a periodic sample into the extremes.
func (lt *LifetimeTracker) UpdateVitals(e ecs.Entity, bloodLevel, bleed, tempOffset float64, suffocating bool) {
	s := lt.stats[e]
	if s == nil {
		return
	}
	if bloodLevel < s.MinBloodLevel {
		s.MinBloodLevel = bloodLevel
	}
	if bleed > s.PeakBleed {
		s.PeakBleed = bleed
	}
	if tempOffset < 0 {
		tempOffset = -tempOffset
	}
	if tempOffset > s.PeakTempOffset {
		s.PeakTempOffset = tempOffset
	}
	if suffocating {
		s.Suffocating++
	}
}

// Count returns the number of tracked creatures.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
