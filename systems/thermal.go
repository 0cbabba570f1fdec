package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
)

// ThermalSystem keeps body temperature near its set point. Every tick applies
// passive metabolism and an implicit correction; outside the tolerance band
// the body sweats or shivers if it can.
type ThermalSystem struct {
	dt   float64
	caps ThermalCapabilities

	filter  ecs.Filter2[components.Temperature, components.Thermoregulator]
	bodyMap *ecs.Map[components.Body]
}

// NewThermalSystem creates a thermal system. caps may be nil, in which case
// active regulation is always allowed.
func NewThermalSystem(w *ecs.World, dt float64, caps ThermalCapabilities) *ThermalSystem {
	return &ThermalSystem{
		dt:      dt,
		caps:    caps,
		filter:  *ecs.NewFilter2[components.Temperature, components.Thermoregulator](w),
		bodyMap: ecs.NewMap[components.Body](w),
	}
}

// NewThermoregulator returns a thermoregulator built from config.
func NewThermoregulator(cfg config.ThermalConfig) components.Thermoregulator {
	return components.Thermoregulator{
		Normal:         cfg.NormalTemperature,
		Tolerance:      cfg.Tolerance,
		ImplicitRate:   cfg.ImplicitRate,
		SweatRate:      cfg.SweatRate,
		ShiverRate:     cfg.ShiverRate,
		MetabolismHeat: cfg.MetabolismHeat,
		RadiatedHeat:   cfg.RadiatedHeat,
		HeatCapacity:   cfg.HeatCapacity,
	}
}

// Update regulates every body once.
func (s *ThermalSystem) Update() {
	query := s.filter.Query()
	for query.Next() {
		temp, reg := query.Get()
		if e := query.Entity(); !s.bodyMap.Has(e) || !s.bodyMap.Get(e).Gibbed {
			s.Regulate(e, temp, reg)
		}
	}
}

// Regulate runs one tick of thermoregulation for a body.
func (s *ThermalSystem) Regulate(e ecs.Entity, temp *components.Temperature, reg *components.Thermoregulator) {
	capacity := reg.HeatCapacity
	if capacity <= 0 {
		return
	}
	reg.Sweating, reg.Shivering = false, false

	heat := (reg.MetabolismHeat - reg.RadiatedHeat) * s.dt

	// Implicit correction, capped at the heat needed to reach normal
	target := math.Abs(temp.Current-reg.Normal) * capacity
	implicit := math.Min(target, reg.ImplicitRate*s.dt)
	if temp.Current > reg.Normal {
		heat -= implicit
	} else {
		heat += implicit
	}
	temp.Current += heat / capacity

	diff := math.Abs(temp.Current - reg.Normal)
	if diff <= reg.Tolerance {
		return
	}
	target = diff * capacity
	if temp.Current > reg.Normal {
		if s.caps != nil && !s.caps.CanSweat(e) {
			return
		}
		temp.Current -= math.Min(target, reg.SweatRate*s.dt) / capacity
		reg.Sweating = true
		return
	}
	if s.caps != nil && !s.caps.CanShiver(e) {
		return
	}
	temp.Current += math.Min(target, reg.ShiverRate*s.dt) / capacity
	reg.Shivering = true
}

// BodyCapabilities answers thermal capability checks from worn equipment and
// mob state. Insulating gear blocks sweating; the dead neither sweat nor
// shiver.
type BodyCapabilities struct {
	Equipment *EquipmentSystem
	Mobs      MobStates
}

// CanSweat implements ThermalCapabilities.
func (c BodyCapabilities) CanSweat(e ecs.Entity) bool {
	if c.Mobs != nil && c.Mobs.IsDead(e) {
		return false
	}
	return c.Equipment == nil || !c.Equipment.Insulated(e)
}

// CanShiver implements ThermalCapabilities.
func (c BodyCapabilities) CanShiver(e ecs.Entity) bool {
	return c.Mobs == nil || !c.Mobs.IsDead(e)
}
