package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/telemetry"
)

// EventTypes implements events.Handler.
func (s *Simulation) EventTypes() []events.Type {
	return []events.Type{
		events.CritBleed,
		events.WoundsCauterized,
		events.PartDetached,
		events.VitalPartLost,
		events.Gibbed,
		events.PuddleSpilled,
		events.MobStateChanged,
	}
}

// HandleEvent implements events.Handler, feeding the window collector and
// lifetime records.
func (s *Simulation) HandleEvent(ev events.Event) {
	switch p := ev.Payload.(type) {
	case *events.CritBleedPayload:
		s.collector.RecordCritBleed()
		s.lifetime.RecordCritBleed(p.Body)
	case *events.BodyPayload:
		if ev.Type == events.WoundsCauterized {
			s.collector.RecordCauterize()
		}
	case *events.PartPayload:
		s.collector.RecordPartLost()
		s.lifetime.RecordPartLost(p.Body)
	case *events.VitalPayload:
		s.vitalLost[p.Body] = true
	case *events.GibPayload:
		s.collector.RecordGib()
		s.lifetime.RecordGib(p.Body)
		s.finishLifetime(p.Body, telemetry.CauseGibbed)
	case *events.PuddlePayload:
		s.collector.RecordSpill(p.Volume)
	case *events.MobStatePayload:
		if components.MobState(p.New) == components.MobDead {
			s.collector.RecordDeath()
			s.finishLifetime(p.Entity, s.causeOfDeath(p.Entity))
		}
	}
}

// causeOfDeath classifies a death from the damage the body carried.
func (s *Simulation) causeOfDeath(e ecs.Entity) telemetry.Cause {
	if s.bodyMap.Has(e) && s.bodyMap.Get(e).Gibbed {
		return telemetry.CauseGibbed
	}
	var damage map[string]float64
	if s.damageMap.Has(e) {
		damage = s.damageMap.Get(e).Damage
	}
	return telemetry.ClassifyCause(damage, s.vitalLost[e], telemetry.CauseTypes{
		Bloodloss:    s.bloodlossType(),
		Asphyxiation: s.cfg.Respiration.SuffocationDamageType,
	})
}

// bloodlossType is the heaviest damage type applied by low blood level.
func (s *Simulation) bloodlossType() string {
	var typ string
	var amount float64
	for t, v := range s.cfg.Bloodstream.BloodlossDamage {
		if v > amount || (v == amount && t < typ) {
			typ, amount = t, v
		}
	}
	if typ == "" {
		return s.cfg.Body.VitalLossDamageType
	}
	return typ
}

// finishLifetime closes a creature's record and writes it out.
func (s *Simulation) finishLifetime(e ecs.Entity, cause telemetry.Cause) {
	st := s.lifetime.Finish(e, s.tick, s.cfg.Simulation.DT, cause)
	if st == nil {
		return
	}
	delete(s.vitalLost, e)
	if s.logStats {
		slog.Info("creature ended",
			"creature", st.CreatureID,
			"cause", st.Cause.String(),
			"survival_sec", st.Survival,
		)
	}
	if err := s.output.WriteLifetime(st); err != nil {
		slog.Error("failed to write lifetime", "error", err)
	}
}

// flushTelemetry checks if the stats window should be flushed.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.sample())
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if s.output != nil {
		if err := s.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// sample measures the world at the end of a window and folds per-creature
// vitals into the lifetime records.
func (s *Simulation) sample() telemetry.Sample {
	var out telemetry.Sample
	normal := s.cfg.Thermal.NormalTemperature

	query := s.creatureFilter.Query()
	for query.Next() {
		e := query.Entity()
		_, mob := query.Get()

		switch mob.State {
		case components.MobDead:
			out.Dead++
			continue
		case components.MobCritical:
			out.Critical++
		default:
			out.Alive++
		}

		level, _ := s.sys.Bloodstream.BloodLevel(e)
		bleed, _ := s.sys.Bloodstream.BleedAmount(e)
		out.BloodLevels = append(out.BloodLevels, level)
		out.BleedAmounts = append(out.BleedAmounts, bleed)

		temp := normal
		if s.tempMap.Has(e) {
			temp = s.tempMap.Get(e).Current
		}
		out.Temperatures = append(out.Temperatures, temp)

		suffocating := s.sys.Respiration.Suffocating(e)
		if suffocating {
			out.Suffocating++
		}
		s.lifetime.UpdateVitals(e, level, bleed, temp-normal, suffocating)
	}

	out.PuddleCount, out.PuddleVolume = s.sys.Puddles.Stats()
	out.AbsorbedTotal = s.sys.Digestion.Absorbed()

	reacted, blocked := s.sys.Reactions.Stats()
	out.ReactionsRun = reacted - s.lastReacted
	out.ReactionsBlocked = blocked - s.lastBlocked
	s.lastReacted, s.lastBlocked = reacted, blocked

	return out
}
