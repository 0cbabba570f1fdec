package sim

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/atmos"
	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/rng"
	"github.com/pthm-cable/anatomy/systems"
)

// tankVolume is the gas volume of a spawned tank in litres.
const tankVolume = 70.0

// spawnInitialPopulation lays n creatures out on a square grid, one per tile
// so they never share an atmosphere tile or puddle.
func (s *Simulation) spawnInitialPopulation(n int) error {
	if n <= 0 {
		return nil
	}
	spacing := s.cfg.Population.Spacing
	if spacing < 1 {
		spacing = 1
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))

	for i := 0; i < n; i++ {
		x := float64(i%cols)*spacing + 0.5
		y := float64(i/cols)*spacing + 0.5
		if _, err := s.SpawnCreature(s.cfg.Population.Template, x, y); err != nil {
			return err
		}
	}
	return nil
}

// SpawnCreature creates a creature with every physiological component and
// instantiates its body from the named template.
func (s *Simulation) SpawnCreature(template string, x, y float64) (ecs.Entity, error) {
	cfg, w := s.cfg, s.world

	id := s.nextID
	dna := rng.NewDNA(s.rand)

	e := ecs.NewMap2[components.Position, components.Creature](w).NewEntity(
		&components.Position{X: x, Y: y},
		&components.Creature{ID: id},
	)

	bs := systems.NewBloodstream(cfg.Bloodstream, s.now)
	ecs.NewMap[components.Bloodstream](w).Add(e, &bs)
	ecs.NewMap[components.Damageable](w).Add(e, &components.Damageable{Damage: map[string]float64{}})
	ecs.NewMap[components.Mob](w).Add(e, &components.Mob{})
	ecs.NewMap[components.StatusEffects](w).Add(e, &components.StatusEffects{Active: map[string]float64{}})
	ecs.NewMap[components.Movement](w).Add(e, &components.Movement{})
	ecs.NewMap[components.Equipment](w).Add(e, &components.Equipment{Slots: map[string]ecs.Entity{}})
	ecs.NewMap[components.Internals](w).Add(e, &components.Internals{})
	resp := systems.NewRespirator(cfg.Respiration)
	ecs.NewMap[components.Respirator](w).Add(e, &resp)
	ecs.NewMap[components.Temperature](w).Add(e, &components.Temperature{Current: cfg.Thermal.NormalTemperature})
	reg := systems.NewThermoregulator(cfg.Thermal)
	ecs.NewMap[components.Thermoregulator](w).Add(e, &reg)

	// Instantiate keeps a pre-set DNA
	s.bodyMap.Add(e, &components.Body{DNA: dna})
	if err := s.sys.Body.Instantiate(e, template); err != nil {
		s.world.RemoveEntity(e)
		return ecs.Entity{}, fmt.Errorf("spawning creature %d: %w", id, err)
	}

	s.nextID++
	s.creatures[id] = e
	s.lifetime.Register(e, id, template, dna, s.tick)
	return e, nil
}

// SpawnGasTank creates an equippable tank holding moles of one gas.
func (s *Simulation) SpawnGasTank(gas string, moles float64) ecs.Entity {
	air := atmos.NewMixture(tankVolume, atmos.T20C)
	air.SetMoles(gas, moles)
	return ecs.NewMap2[components.Equippable, components.GasTank](s.world).NewEntity(
		&components.Equippable{},
		&components.GasTank{Air: air, OutputPressure: s.cfg.Respiration.TankOutputPressure},
	)
}
