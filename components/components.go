// Package components defines ECS components for the simulation.
package components

import (
	"github.com/pthm-cable/anatomy/atmos"
	"github.com/pthm-cable/anatomy/solution"
)

// Bloodstream holds a body's circulating and spilled solutions.
type Bloodstream struct {
	Blood   *solution.Solution `inspect:"skip"` // Blood reagent plus anything absorbed into it
	Spilled *solution.Solution `inspect:"skip"` // Bled-out blood waiting to become a puddle

	BloodReagent    string  `inspect:"label"`
	ReferenceVolume float64 `inspect:"label,fmt:%.0f"`
	BleedAmount     float64 `inspect:"bar,max:10"`
	ModifierSet     string  `inspect:"label"` // Damage-to-bleed modifier set id

	// Scheduling
	NextUpdate         float64 `inspect:"skip"` // Sim time of next update
	IntervalMultiplier float64 `inspect:"label,fmt:%.2f"`
}

// Level returns blood quantity relative to the reference volume.
func (b *Bloodstream) Level() float64 {
	if b.Blood == nil || b.ReferenceVolume <= 0 {
		return 0
	}
	return b.Blood.Quantity(b.BloodReagent) / b.ReferenceVolume
}

// Lung buffers inhaled air and the reagents absorbed from it.
type Lung struct {
	Air      *atmos.GasMixture  `inspect:"skip"`
	Solution *solution.Solution `inspect:"skip"`
}

// Respirator drives the breath cycle of a body.
type Respirator struct {
	Exhaling      bool    `inspect:"bool"`
	Accumulated   float64 `inspect:"label,fmt:%.2fs"` // Time into the current phase
	CycleDelay    float64 `inspect:"skip"`
	Suffocating   int     `inspect:"label"` // Consecutive breaths without enough breathable gas
	LastBreathMol float64 `inspect:"label,fmt:%.4f"`
}

// ReagentDelta is a pending stomach absorption.
type ReagentDelta struct {
	Reagent  string
	Quantity float64
	Due      float64 // Sim time at which the quantity moves to blood
}

// Stomach holds ingested reagents until they are absorbed.
type Stomach struct {
	Solution        *solution.Solution `inspect:"skip"`
	Pending         []ReagentDelta     `inspect:"skip"`
	Delay           float64            `inspect:"label,fmt:%.1fs"`
	DelayMultiplier float64            `inspect:"label,fmt:%.2f"`
	NextUpdate      float64            `inspect:"skip"`
}

// Tracked returns the pending quantity of a reagent.
func (s *Stomach) Tracked(reagent string) float64 {
	total := 0.0
	for _, d := range s.Pending {
		if d.Reagent == reagent {
			total += d.Quantity
		}
	}
	return total
}

// Temperature is an entity's current temperature in Kelvin.
type Temperature struct {
	Current float64 `inspect:"label,fmt:%.2fK"`
}

// Thermoregulator holds a body's homeostasis parameters.
type Thermoregulator struct {
	Normal         float64 `inspect:"label,fmt:%.2fK"`
	Tolerance      float64 `inspect:"skip"`
	ImplicitRate   float64 `inspect:"skip"`
	SweatRate      float64 `inspect:"skip"`
	ShiverRate     float64 `inspect:"skip"`
	MetabolismHeat float64 `inspect:"skip"`
	RadiatedHeat   float64 `inspect:"skip"`
	HeatCapacity   float64 `inspect:"skip"`

	// Last tick's active response, for inspection
	Sweating  bool `inspect:"bool"`
	Shivering bool `inspect:"bool"`
}
