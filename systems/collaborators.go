package systems

import (
	"errors"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/solution"
)

// Missing-resource and invalid-structural-change errors. Callers compare with
// errors.Is; wrapped errors carry the offending ids.
var (
	ErrNoBody              = errors.New("no body")
	ErrNoPart              = errors.New("no part")
	ErrNoOrgan             = errors.New("no organ")
	ErrNoSolution          = errors.New("no solution")
	ErrGibbed              = errors.New("body is gibbed")
	ErrUnknownTemplate     = errors.New("unknown body template")
	ErrUnknownPrototype    = errors.New("unknown prototype")
	ErrAlreadyInstantiated = errors.New("body already instantiated")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrPartTypeMismatch    = errors.New("part type does not match slot")
	ErrSlotUnreachable     = errors.New("slot is not connected to the body")
	ErrOrganSlotOccupied   = errors.New("organ slot occupied")
	ErrNotAttached         = errors.New("not attached")
	ErrSlotOccupied        = errors.New("equipment slot occupied")
	ErrNotEquippable       = errors.New("item is not equippable")
	ErrNoApparatus         = errors.New("no breathing apparatus")
)

// Clock exposes the simulation's tick counter and time in seconds.
type Clock interface {
	Tick() uint64
	Now() float64
}

// DamageApplier changes per-type damage on an entity. Positive values hurt,
// negative values heal.
type DamageApplier interface {
	ChangeDamage(target, origin ecs.Entity, delta map[string]float64) bool
}

// Killer forces an entity dead.
type Killer interface {
	Kill(e ecs.Entity)
}

// MobStates reports an entity's coarse health state.
type MobStates interface {
	IsAlive(e ecs.Entity) bool
	IsDead(e ecs.Entity) bool
}

// StatusEffector sets, clears and queries status effects.
type StatusEffector interface {
	SetStatus(e ecs.Entity, id string) bool
	ClearStatus(e ecs.Entity, id string) bool
	HasStatus(e ecs.Entity, id string) bool
}

// Spiller empties a solution into the world near an entity.
type Spiller interface {
	SpillAt(source ecs.Entity, sol *solution.Solution) (ecs.Entity, bool)
}

// Unequipper strips every worn item from an entity.
type Unequipper interface {
	UnequipAll(wearer ecs.Entity) []ecs.Entity
}

// ThermalCapabilities gates active thermoregulation.
type ThermalCapabilities interface {
	CanSweat(e ecs.Entity) bool
	CanShiver(e ecs.Entity) bool
}
