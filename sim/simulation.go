// Package sim wires the physiology systems into a headless, fixed-step
// simulation of creatures with part-graph bodies.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/atmos"
	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/prototype"
	"github.com/pthm-cable/anatomy/rng"
	"github.com/pthm-cable/anatomy/systems"
	"github.com/pthm-cable/anatomy/telemetry"
)

// Options configures a simulation run.
type Options struct {
	Seed           int64   // 0 = use config seed
	LogStats       bool    // Log window stats through slog
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // Empty disables CSV output
	Creatures      int     // -1 = use config, 0 = spawn none

	// Optional overrides. Nil uses the seeded roller and the configured atmosphere.
	Roller      rng.Roller
	Environment atmos.Environment
	Registry    *prototype.Registry

	// StatsCallback receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Systems exposes the wired systems for callers that drive bodies directly.
type Systems struct {
	Damage      *systems.DamageSystem
	Status      *systems.StatusSystem
	Puddles     *systems.PuddleSystem
	Equipment   *systems.EquipmentSystem
	Body        *systems.BodySystem
	Bloodstream *systems.BloodstreamSystem
	Internals   *systems.InternalsSystem
	Respiration *systems.RespirationSystem
	Digestion   *systems.DigestionSystem
	Thermal     *systems.ThermalSystem
	Reactions   *systems.ReactionSystem
}

// Simulation holds the complete simulation state.
type Simulation struct {
	cfg      *config.Config
	world    *ecs.World
	rand     *rand.Rand
	router   *events.Router
	registry *prototype.Registry
	env      atmos.Environment
	seed     int64

	systemInfo *systems.SystemRegistry
	sys        Systems

	// State
	tick   uint64
	now    float64
	nextID uint32

	creatures map[uint32]ecs.Entity
	vitalLost map[ecs.Entity]bool

	// Component mappers for lookups
	creatureMap    *ecs.Map[components.Creature]
	bodyMap        *ecs.Map[components.Body]
	damageMap      *ecs.Map[components.Damageable]
	tempMap        *ecs.Map[components.Temperature]
	creatureFilter *ecs.Filter2[components.Creature, components.Mob]

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	lifetime      *telemetry.LifetimeTracker
	output        *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// Cumulative reaction counts at the last flush
	lastReacted, lastBlocked int
}

// seededRoller salts every roll with the run seed so that different seeds
// give different outcomes while the same seed replays exactly.
type seededRoller int64

func (r seededRoller) Prob(seed int64, p float64) bool {
	return rng.Prob(seed^int64(r), p)
}

// New creates a simulation from cfg and spawns the initial population.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}

	reg := opts.Registry
	if reg == nil {
		var err error
		if reg, err = prototype.LoadDefault(); err != nil {
			return nil, fmt.Errorf("loading prototypes: %w", err)
		}
	}

	env := opts.Environment
	if env == nil {
		env = atmos.NewTileEnvironmentFromConfig(cfg.Atmosphere)
	}

	roller := opts.Roller
	if roller == nil {
		roller = seededRoller(seed)
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	world := ecs.NewWorld()
	s := &Simulation{
		cfg:            cfg,
		world:          world,
		rand:           rand.New(rand.NewSource(seed)),
		router:         events.NewRouter(),
		registry:       reg,
		env:            env,
		seed:           seed,
		systemInfo:     systems.NewSystemRegistry(),
		nextID:         1,
		creatures:      make(map[uint32]ecs.Entity),
		vitalLost:      make(map[ecs.Entity]bool),
		creatureMap:    ecs.NewMap[components.Creature](world),
		bodyMap:        ecs.NewMap[components.Body](world),
		damageMap:      ecs.NewMap[components.Damageable](world),
		tempMap:        ecs.NewMap[components.Temperature](world),
		creatureFilter: ecs.NewFilter2[components.Creature, components.Mob](world),
		collector:      telemetry.NewCollector(statsWindow, cfg.Simulation.DT),
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		lifetime:       telemetry.NewLifetimeTracker(),
		output:         output,
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
	}
	s.wireSystems(roller)
	s.router.Register(s)

	n := opts.Creatures
	if n < 0 {
		n = cfg.Population.Initial
	}
	if err := s.spawnInitialPopulation(n); err != nil {
		s.Close()
		return nil, err
	}

	slog.Debug("simulation created",
		"seed", seed,
		"creatures", len(s.creatures),
		"template", cfg.Population.Template,
	)
	return s, nil
}

// wireSystems constructs every system against the shared world and router.
func (s *Simulation) wireSystems(roller rng.Roller) {
	cfg, w := s.cfg, s.world
	sys := &s.sys

	sys.Damage = systems.NewDamageSystem(w, cfg.Damage, s.router)
	sys.Status = systems.NewStatusSystem(w, s)
	sys.Puddles = systems.NewPuddleSystem(w, s.router)
	sys.Equipment = systems.NewEquipmentSystem(w, s.router)
	sys.Body = systems.NewBodySystem(w, s.registry, cfg.Body, s.router, sys.Damage)
	sys.Body.SetEquipment(sys.Equipment)
	sys.Bloodstream = systems.NewBloodstreamSystem(w, cfg.Bloodstream, s.registry, systems.BloodstreamDeps{
		Clock:  s,
		Router: s.router,
		Mobs:   sys.Damage,
		Damage: sys.Damage,
		Status: sys.Status,
		Spill:  sys.Puddles,
		Roller: roller,
	})
	sys.Internals = systems.NewInternalsSystem(w, cfg.Respiration, s.router, sys.Equipment)
	sys.Respiration = systems.NewRespirationSystem(w, cfg.Respiration, s.registry, cfg.Simulation.DT, systems.RespirationDeps{
		Body:        sys.Body,
		Bloodstream: sys.Bloodstream,
		Internals:   sys.Internals,
		Environment: s.env,
		Damage:      sys.Damage,
		Mobs:        sys.Damage,
	})
	sys.Digestion = systems.NewDigestionSystem(w, cfg.Digestion, s, s.router, sys.Body, sys.Bloodstream)
	sys.Thermal = systems.NewThermalSystem(w, cfg.Simulation.DT, systems.BodyCapabilities{Equipment: sys.Equipment, Mobs: sys.Damage})
	sys.Reactions = systems.NewReactionSystem(w, s.registry)
	sys.Reactions.AddGuard(sys.Bloodstream.GuardReaction)
}

// Step runs a single tick of the simulation.
func (s *Simulation) Step() {
	s.perf.StartTick()

	s.perf.StartPhase(systems.IDRespiration)
	s.sys.Respiration.Update()

	s.perf.StartPhase(systems.IDDigestion)
	s.sys.Digestion.Update()

	s.perf.StartPhase(systems.IDBloodstream)
	s.sys.Bloodstream.Update()

	s.perf.StartPhase(systems.IDReactions)
	s.sys.Reactions.Update()

	s.perf.StartPhase(systems.IDThermal)
	s.sys.Thermal.Update()

	s.perf.StartPhase(systems.IDStatus)
	s.sys.Status.Update()
	s.ageCreatures()

	s.tick++
	s.now += s.cfg.Simulation.DT

	s.perf.StartPhase(systems.IDTelemetry)
	s.flushTelemetry()

	s.perf.EndTick()
}

// Run steps the simulation n times.
func (s *Simulation) Run(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// ageCreatures advances the age of every living creature.
func (s *Simulation) ageCreatures() {
	dt := s.cfg.Simulation.DT
	query := s.creatureFilter.Query()
	for query.Next() {
		c, mob := query.Get()
		if !mob.Dead() {
			c.Age += dt
		}
	}
}

// Tick implements systems.Clock.
func (s *Simulation) Tick() uint64 { return s.tick }

// Now implements systems.Clock.
func (s *Simulation) Now() float64 { return s.now }

// Seed returns the seed the run was created with.
func (s *Simulation) Seed() int64 { return s.seed }

// Config returns the simulation configuration.
func (s *Simulation) Config() *config.Config { return s.cfg }

// World returns the ECS world.
func (s *Simulation) World() *ecs.World { return s.world }

// Router returns the event router shared by every system.
func (s *Simulation) Router() *events.Router { return s.router }

// Registry returns the prototype registry.
func (s *Simulation) Registry() *prototype.Registry { return s.registry }

// Systems returns the wired systems.
func (s *Simulation) Systems() *Systems { return &s.sys }

// SystemInfo returns display metadata for the step phases.
func (s *Simulation) SystemInfo() *systems.SystemRegistry { return s.systemInfo }

// Perf returns timing stats over the recent perf window.
func (s *Simulation) Perf() telemetry.PerfStats { return s.perf.Stats() }

// Creature resolves a creature id to its entity.
func (s *Simulation) Creature(id uint32) (ecs.Entity, bool) {
	e, ok := s.creatures[id]
	if !ok || !s.world.Alive(e) {
		return ecs.Entity{}, false
	}
	return e, true
}

// CreatureID returns the id of a creature entity.
func (s *Simulation) CreatureID(e ecs.Entity) (uint32, bool) {
	if !s.world.Alive(e) || !s.creatureMap.Has(e) {
		return 0, false
	}
	return s.creatureMap.Get(e).ID, true
}

// CreatureIDs returns every spawned creature id in ascending order.
func (s *Simulation) CreatureIDs() []uint32 {
	ids := make([]uint32, 0, len(s.creatures))
	for id := uint32(1); id < s.nextID; id++ {
		if _, ok := s.creatures[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Lifetime returns the open lifetime record of a creature, or nil.
func (s *Simulation) Lifetime(e ecs.Entity) *telemetry.LifetimeStats {
	return s.lifetime.Get(e)
}

// OutputDir returns the CSV output directory, or "" when disabled.
func (s *Simulation) OutputDir() string { return s.output.Dir() }

// Close flushes open lifetime records and closes output files.
func (s *Simulation) Close() error {
	for _, id := range s.CreatureIDs() {
		e := s.creatures[id]
		if st := s.lifetime.Finish(e, s.tick, s.cfg.Simulation.DT, telemetry.CauseAlive); st != nil {
			if err := s.output.WriteLifetime(st); err != nil {
				slog.Error("failed to write lifetime", "error", err)
			}
		}
	}
	return s.output.Close()
}
