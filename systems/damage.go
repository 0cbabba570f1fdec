package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
)

// DamageSystem keeps per-type damage and derives mob state from the total.
// Damage types are opaque ids.
type DamageSystem struct {
	cfg    config.DamageConfig
	router *events.Router

	damageMap *ecs.Map[components.Damageable]
	mobMap    *ecs.Map[components.Mob]
	bodyMap   *ecs.Map[components.Body]
}

// NewDamageSystem creates a damage system.
func NewDamageSystem(w *ecs.World, cfg config.DamageConfig, router *events.Router) *DamageSystem {
	return &DamageSystem{
		cfg:       cfg,
		router:    router,
		damageMap: ecs.NewMap[components.Damageable](w),
		mobMap:    ecs.NewMap[components.Mob](w),
		bodyMap:   ecs.NewMap[components.Body](w),
	}
}

// ChangeDamage applies a signed per-type change. No type goes below zero.
// DamageChanged carries the change actually applied. Returns false when the
// target cannot take damage or nothing changed.
func (s *DamageSystem) ChangeDamage(target, origin ecs.Entity, delta map[string]float64) bool {
	if !s.damageMap.Has(target) {
		return false
	}
	d := s.damageMap.Get(target)
	if d.Damage == nil {
		d.Damage = make(map[string]float64)
	}

	applied := make(map[string]float64, len(delta))
	for _, typ := range sortedKeys(delta) {
		cur := d.Damage[typ]
		next := maxFloat(0, cur+delta[typ])
		if next == cur {
			continue
		}
		applied[typ] = next - cur
		if next == 0 {
			delete(d.Damage, typ)
		} else {
			d.Damage[typ] = next
		}
	}
	if len(applied) == 0 {
		return false
	}

	d.Total = 0
	for _, v := range d.Damage {
		d.Total += v
	}
	total := d.Total

	s.updateMobState(target, total)
	s.router.Emit(events.DamageChanged, &events.DamagePayload{
		Target: target,
		Origin: origin,
		Delta:  applied,
		Total:  total,
	})
	return true
}

// Rejuvenate clears all damage and revives the entity.
func (s *DamageSystem) Rejuvenate(target ecs.Entity) {
	if s.damageMap.Has(target) {
		d := s.damageMap.Get(target)
		d.Damage = make(map[string]float64)
		d.Total = 0
	}
	s.updateMobState(target, 0)
}

// Kill forces the entity dead. A gibbed body stays dead whatever its damage.
func (s *DamageSystem) Kill(target ecs.Entity) {
	s.setMobState(target, components.MobDead, s.Total(target))
}

// Total returns an entity's total damage.
func (s *DamageSystem) Total(target ecs.Entity) float64 {
	if !s.damageMap.Has(target) {
		return 0
	}
	return s.damageMap.Get(target).Total
}

// State returns an entity's mob state. Entities without one are alive.
func (s *DamageSystem) State(e ecs.Entity) components.MobState {
	if !s.mobMap.Has(e) {
		return components.MobAlive
	}
	return s.mobMap.Get(e).State
}

// IsAlive implements MobStates.
func (s *DamageSystem) IsAlive(e ecs.Entity) bool { return s.State(e) == components.MobAlive }

// IsDead implements MobStates.
func (s *DamageSystem) IsDead(e ecs.Entity) bool { return s.State(e) == components.MobDead }

func (s *DamageSystem) updateMobState(e ecs.Entity, total float64) {
	if !s.mobMap.Has(e) {
		return
	}
	next := components.MobAlive
	switch {
	case s.bodyMap.Has(e) && s.bodyMap.Get(e).Gibbed:
		next = components.MobDead
	case s.cfg.DeadThreshold > 0 && total >= s.cfg.DeadThreshold:
		next = components.MobDead
	case s.cfg.CritThreshold > 0 && total >= s.cfg.CritThreshold:
		next = components.MobCritical
	}
	s.setMobState(e, next, total)
}

func (s *DamageSystem) setMobState(e ecs.Entity, next components.MobState, total float64) {
	if !s.mobMap.Has(e) {
		return
	}
	m := s.mobMap.Get(e)
	if m.State == next {
		return
	}
	old := m.State
	m.State = next
	slog.Debug("mob state changed", "entity", e.ID(), "from", old.String(), "to", next.String(), "damage", total)
	s.router.Emit(events.MobStateChanged, &events.MobStatePayload{Entity: e, Old: uint8(old), New: uint8(next)})
}
