package events

import "github.com/mlange-42/ark/ecs"

// PartPayload carries PartAttached and PartDetached.
type PartPayload struct {
	Body ecs.Entity
	Part ecs.Entity
	Slot string
	// Cascade is true when the part left because it lost its path to the center slot.
	Cascade bool
}

// StructurePayload carries BodyStructureChanged.
type StructurePayload struct {
	Body     ecs.Entity
	Detached []ecs.Entity
}

// BodyPayload carries events that only name a body.
type BodyPayload struct {
	Body ecs.Entity
}

// VitalPayload carries VitalPartLost.
type VitalPayload struct {
	Body     ecs.Entity
	PartType string
}

// OrganPayload carries OrganAttached and OrganDetached.
type OrganPayload struct {
	Body  ecs.Entity // Zero when the part is free-standing
	Part  ecs.Entity
	Organ ecs.Entity
	Slot  string
}

// GibPayload carries Gibbed.
type GibPayload struct {
	Body     ecs.Entity
	Detached []ecs.Entity
}

// DamagePayload carries DamageChanged.
type DamagePayload struct {
	Target ecs.Entity
	Origin ecs.Entity // Zero when unknown
	// Delta is the signed per-type change.
	Delta map[string]float64
	Total float64 // Total damage after the change
}

// PositiveTotal sums only the increases in Delta.
func (p *DamagePayload) PositiveTotal() float64 {
	total := 0.0
	for _, v := range p.Delta {
		if v > 0 {
			total += v
		}
	}
	return total
}

// DeltaTotal sums the signed delta.
func (p *DamagePayload) DeltaTotal() float64 {
	total := 0.0
	for _, v := range p.Delta {
		total += v
	}
	return total
}

// MobStatePayload carries MobStateChanged.
type MobStatePayload struct {
	Entity ecs.Entity
	Old    uint8
	New    uint8
}

// BleedModifyPayload is mutable: handlers change how much drains this update
// and how much the bleed closes afterwards.
type BleedModifyPayload struct {
	Body      ecs.Entity
	Amount    float64
	Reduction float64
}

// CritBleedPayload carries CritBleed.
type CritBleedPayload struct {
	Body   ecs.Entity
	Origin ecs.Entity
	Amount float64
}

// PuddlePayload carries PuddleSpilled.
type PuddlePayload struct {
	Source ecs.Entity
	Puddle ecs.Entity
	Volume float64
}

// EquipPayload carries Equipped and Unequipped.
type EquipPayload struct {
	Wearer ecs.Entity
	Item   ecs.Entity
	Slot   string
}

// InternalsPayload carries InternalsToggled.
type InternalsPayload struct {
	Body      ecs.Entity
	Apparatus ecs.Entity
	Connected bool
}

// MetabolicPayload carries MetabolicMultiplier.
type MetabolicPayload struct {
	Body       ecs.Entity
	Multiplier float64
	// Apply is false when a previously applied multiplier is being removed.
	Apply bool
}
