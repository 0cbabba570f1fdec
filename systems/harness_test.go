package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/anatomy/atmos"
	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/prototype"
)

// testClock is a manually advanced Clock.
type testClock struct {
	tick uint64
	now  float64
}

func (c *testClock) Tick() uint64 { return c.tick }
func (c *testClock) Now() float64 { return c.now }

func (c *testClock) advance(dt float64) {
	c.tick++
	c.now += dt
}

// fixedRoller always returns the same roll outcome.
type fixedRoller bool

func (r fixedRoller) Prob(int64, float64) bool { return bool(r) }

// testRig wires every system against one world the way the simulation does.
type testRig struct {
	t      *testing.T
	cfg    *config.Config
	world  *ecs.World
	router *events.Router
	reg    *prototype.Registry
	clock  *testClock
	env    *atmos.TileEnvironment

	damage      *DamageSystem
	status      *StatusSystem
	puddles     *PuddleSystem
	equipment   *EquipmentSystem
	body        *BodySystem
	blood       *BloodstreamSystem
	internals   *InternalsSystem
	respiration *RespirationSystem
	digestion   *DigestionSystem
	thermal     *ThermalSystem
	reactions   *ReactionSystem
}

func newRig(t *testing.T, roller fixedRoller, tweak ...func(*config.Config)) *testRig {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	for _, fn := range tweak {
		fn(cfg)
	}

	w := ecs.NewWorld()
	r := &testRig{
		t:      t,
		cfg:    cfg,
		world:  w,
		router: events.NewRouter(),
		reg:    prototype.MustLoadDefault(),
		clock:  &testClock{},
		env:    atmos.NewTileEnvironmentFromConfig(cfg.Atmosphere),
	}
	r.damage = NewDamageSystem(w, cfg.Damage, r.router)
	r.status = NewStatusSystem(w, r.clock)
	r.puddles = NewPuddleSystem(w, r.router)
	r.equipment = NewEquipmentSystem(w, r.router)
	r.body = NewBodySystem(w, r.reg, cfg.Body, r.router, r.damage)
	r.body.SetEquipment(r.equipment)
	r.blood = NewBloodstreamSystem(w, cfg.Bloodstream, r.reg, BloodstreamDeps{
		Clock:  r.clock,
		Router: r.router,
		Mobs:   r.damage,
		Damage: r.damage,
		Status: r.status,
		Spill:  r.puddles,
		Roller: roller,
	})
	r.internals = NewInternalsSystem(w, cfg.Respiration, r.router, r.equipment)
	r.respiration = NewRespirationSystem(w, cfg.Respiration, r.reg, cfg.Simulation.DT, RespirationDeps{
		Body:        r.body,
		Bloodstream: r.blood,
		Internals:   r.internals,
		Environment: r.env,
		Damage:      r.damage,
		Mobs:        r.damage,
	})
	r.digestion = NewDigestionSystem(w, cfg.Digestion, r.clock, r.router, r.body, r.blood)
	r.thermal = NewThermalSystem(w, cfg.Simulation.DT, BodyCapabilities{Equipment: r.equipment, Mobs: r.damage})
	r.reactions = NewReactionSystem(w, r.reg)
	r.reactions.AddGuard(r.blood.GuardReaction)
	return r
}

// spawn creates a creature with every physiological component and
// instantiates its body from a template.
func (r *testRig) spawn(template string) ecs.Entity {
	r.t.Helper()
	w := r.world
	e := ecs.NewMap2[components.Position, components.Creature](w).NewEntity(
		&components.Position{X: 0.5, Y: 0.5},
		&components.Creature{ID: 1},
	)
	bs := NewBloodstream(r.cfg.Bloodstream, r.clock.Now())
	ecs.NewMap[components.Bloodstream](w).Add(e, &bs)
	ecs.NewMap[components.Damageable](w).Add(e, &components.Damageable{Damage: map[string]float64{}})
	ecs.NewMap[components.Mob](w).Add(e, &components.Mob{})
	ecs.NewMap[components.StatusEffects](w).Add(e, &components.StatusEffects{Active: map[string]float64{}})
	ecs.NewMap[components.Movement](w).Add(e, &components.Movement{})
	ecs.NewMap[components.Equipment](w).Add(e, &components.Equipment{Slots: map[string]ecs.Entity{}})
	ecs.NewMap[components.Internals](w).Add(e, &components.Internals{})
	resp := NewRespirator(r.cfg.Respiration)
	ecs.NewMap[components.Respirator](w).Add(e, &resp)
	ecs.NewMap[components.Temperature](w).Add(e, &components.Temperature{Current: r.cfg.Thermal.NormalTemperature})
	reg := NewThermoregulator(r.cfg.Thermal)
	ecs.NewMap[components.Thermoregulator](w).Add(e, &reg)

	require.NoError(r.t, r.body.Instantiate(e, template))
	return e
}

func (r *testRig) bloodstream(e ecs.Entity) *components.Bloodstream {
	return ecs.NewMap[components.Bloodstream](r.world).Get(e)
}

// record counts events of the given types.
func (r *testRig) record(types ...events.Type) map[events.Type][]any {
	got := make(map[events.Type][]any)
	for _, typ := range types {
		r.router.Subscribe(typ, func(ev events.Event) {
			got[ev.Type] = append(got[ev.Type], ev.Payload)
		})
	}
	return got
}
