package components

// Creature identifies a simulated creature.
type Creature struct {
	ID  uint32  `inspect:"label"`
	Age float64 `inspect:"label,fmt:%.1fs"` // seconds alive
}

// Damageable tracks per-type damage on an entity.
type Damageable struct {
	Damage map[string]float64 `inspect:"skip"`
	Total  float64            `inspect:"bar,max:200"`
}

// MobState is the coarse health state derived from total damage.
type MobState uint8

const (
	MobAlive MobState = iota
	MobCritical
	MobDead
)

// Mob holds an entity's current MobState.
type Mob struct {
	State MobState `inspect:"label"`
}

// Alive reports whether the mob is neither critical nor dead.
func (m *Mob) Alive() bool { return m.State == MobAlive }

// Dead reports whether the mob is dead.
func (m *Mob) Dead() bool { return m.State == MobDead }

// StatusEffects holds active status ids. A zero expiry means the status
// lasts until cleared.
type StatusEffects struct {
	Active map[string]float64 `inspect:"skip"`
}
