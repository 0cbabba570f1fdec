package components

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/atmos"
	"github.com/pthm-cable/anatomy/solution"
)

// Equipment maps slot ids to worn items.
type Equipment struct {
	Slots map[string]ecs.Entity `inspect:"skip"`
}

// Equippable marks an item that can be worn.
type Equippable struct {
	Wearer ecs.Entity `inspect:"skip"`
	Slot   string     `inspect:"label"`
	// InsulatesSweat blocks evaporative cooling (environment suits).
	InsulatesSweat bool `inspect:"bool"`
}

// GasTank is a pressurised gas container usable as a breathing apparatus.
type GasTank struct {
	Air            *atmos.GasMixture `inspect:"skip"`
	OutputPressure float64           `inspect:"label,fmt:%.1fkPa"`
}

// Internals connects zero or one breathing apparatus to a body.
type Internals struct {
	Apparatus ecs.Entity `inspect:"skip"` // Zero when disconnected
}

// Connected reports whether an apparatus is connected.
func (i *Internals) Connected() bool { return !i.Apparatus.IsZero() }

// Puddle is spilled solution lying in the world.
type Puddle struct {
	Solution *solution.Solution `inspect:"skip"`
	Source   ecs.Entity         `inspect:"skip"`
	DNA      string             `inspect:"label"` // DNA of the body it came from
}
