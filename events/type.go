// Package events defines the closed set of notifications raised by the body
// engine and physiology systems, and the synchronous router that delivers them.
package events

// Type identifies a notification kind.
type Type int

const (
	// PartAttached is raised after a part enters a slot
	// Trigger: BodySystem.AttachPart, template instantiation
	// Payload: *PartPayload
	PartAttached Type = iota

	// PartDetached is raised once per part leaving a body, including cascaded parts
	// Trigger: BodySystem.DetachPart, Gib
	// Payload: *PartPayload
	PartDetached

	// BodyStructureChanged is raised once per detachment cascade
	// Trigger: BodySystem.DetachPart
	// Payload: *StructurePayload
	BodyStructureChanged

	// BodyDowned is raised when the last leg-type part leaves a body
	// Consumer: MobStateSystem | Payload: *BodyPayload
	BodyDowned

	// VitalPartLost is raised when the last part of a vital type leaves a body
	// Payload: *VitalPayload
	VitalPartLost

	// OrganAttached is raised after an organ is inserted into a part
	// Payload: *OrganPayload
	OrganAttached

	// OrganDetached is raised after an organ leaves a part
	// Payload: *OrganPayload
	OrganDetached

	// Gibbed is raised once when a body is flattened
	// Payload: *GibPayload
	Gibbed

	// DamageChanged is raised whenever damage on an entity changes
	// Trigger: DamageSystem.ChangeDamage
	// Consumer: BloodstreamSystem | Payload: *DamagePayload
	DamageChanged

	// MobStateChanged is raised when an entity crosses a crit/dead threshold
	// Payload: *MobStatePayload
	MobStateChanged

	// BleedModify lets collaborators change the bleed drained this update and
	// the reduction applied after it
	// Trigger: BloodstreamSystem before draining | Payload: *BleedModifyPayload (mutable)
	BleedModify

	// WoundsCauterized is raised when low damage lands on a bleeding body
	// Payload: *BodyPayload
	WoundsCauterized

	// CritBleed is raised when a crit-bleed roll succeeds
	// Payload: *CritBleedPayload
	CritBleed

	// PuddleSpilled is raised when a solution is emptied into the world
	// Payload: *PuddlePayload
	PuddleSpilled

	// Equipped is raised after an item enters an equipment slot
	// Consumer: InternalsSystem | Payload: *EquipPayload
	Equipped

	// Unequipped is raised after an item leaves an equipment slot
	// Consumer: InternalsSystem | Payload: *EquipPayload
	Unequipped

	// InternalsToggled is raised when a breathing apparatus connects or disconnects
	// Payload: *InternalsPayload
	InternalsToggled

	// MetabolicMultiplier scales metabolism-driven update rates on a body
	// Consumer: BloodstreamSystem, DigestionSystem | Payload: *MetabolicPayload
	MetabolicMultiplier

	// typeCount closes the set; keep last
	typeCount
)

var typeNames = [...]string{
	PartAttached:         "part_attached",
	PartDetached:         "part_detached",
	BodyStructureChanged: "body_structure_changed",
	BodyDowned:           "body_downed",
	VitalPartLost:        "vital_part_lost",
	OrganAttached:        "organ_attached",
	OrganDetached:        "organ_detached",
	Gibbed:               "gibbed",
	DamageChanged:        "damage_changed",
	MobStateChanged:      "mob_state_changed",
	BleedModify:          "bleed_modify",
	WoundsCauterized:     "wounds_cauterized",
	CritBleed:            "crit_bleed",
	PuddleSpilled:        "puddle_spilled",
	Equipped:             "equipped",
	Unequipped:           "unequipped",
	InternalsToggled:     "internals_toggled",
	MetabolicMultiplier:  "metabolic_multiplier",
}

// String returns the snake_case name of the type.
func (t Type) String() string {
	if t < 0 || t >= typeCount {
		return "unknown"
	}
	return typeNames[t]
}

// Valid reports whether t is a member of the closed set.
func (t Type) Valid() bool { return t >= 0 && t < typeCount }

// AllTypes returns every type in declaration order.
func AllTypes() []Type {
	out := make([]Type, typeCount)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}
