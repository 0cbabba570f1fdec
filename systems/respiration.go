package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/atmos"
	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/prototype"
	"github.com/pthm-cable/anatomy/solution"
)

// RespirationDeps are the collaborators a breath cycle touches.
type RespirationDeps struct {
	Body        *BodySystem
	Bloodstream *BloodstreamSystem
	Internals   *InternalsSystem // nil: always breathe the environment
	Environment atmos.Environment
	Damage      DamageApplier
	Mobs        MobStates
}

// RespirationSystem runs the inhale/exhale cycle of every body with a
// Respirator and moves absorbed gas into the blood through the lungs.
type RespirationSystem struct {
	cfg      config.RespirationConfig
	registry *prototype.Registry
	dt       float64
	deps     RespirationDeps

	respMap *ecs.Map[components.Respirator]
	lungMap *ecs.Map[components.Lung]
	posMap  *ecs.Map[components.Position]
	filter  ecs.Filter1[components.Respirator]

	// Reusable buffer of bodies due a breath this tick
	due []ecs.Entity
}

// NewRespirationSystem creates a respiration system and registers the lung
// organ initializer with the body system.
func NewRespirationSystem(w *ecs.World, cfg config.RespirationConfig, reg *prototype.Registry, dt float64, deps RespirationDeps) *RespirationSystem {
	s := &RespirationSystem{
		cfg:      cfg,
		registry: reg,
		dt:       dt,
		deps:     deps,
		respMap:  ecs.NewMap[components.Respirator](w),
		lungMap:  ecs.NewMap[components.Lung](w),
		posMap:   ecs.NewMap[components.Position](w),
		filter:   *ecs.NewFilter1[components.Respirator](w),
		due:      make([]ecs.Entity, 0, 64),
	}
	if deps.Body != nil {
		deps.Body.RegisterOrganInit(components.OrganLungs, s.initLung)
	}
	return s
}

// NewRespirator returns a respirator component starting on an inhale.
func NewRespirator(cfg config.RespirationConfig) components.Respirator {
	return components.Respirator{CycleDelay: cfg.CycleDelay}
}

func (s *RespirationSystem) initLung(organ ecs.Entity, proto *prototype.OrganPrototype) {
	volume := s.cfg.LungSolutionVolume
	if proto.Lung != nil && proto.Lung.SolutionVolume > 0 {
		volume = proto.Lung.SolutionVolume
	}
	s.lungMap.Add(organ, &components.Lung{
		Air:      atmos.NewMixture(s.cfg.BreathVolume, atmos.T20C),
		Solution: solution.New(volume),
	})
}

// Update advances every breath cycle by one tick.
func (s *RespirationSystem) Update() {
	// Collect first: damage from a breath can spill blood into new puddles.
	s.due = s.due[:0]
	query := s.filter.Query()
	for query.Next() {
		r := query.Get()
		r.Accumulated += s.dt
		if r.Accumulated >= r.CycleDelay {
			r.Accumulated -= r.CycleDelay
			s.due = append(s.due, query.Entity())
		}
	}

	for _, e := range s.due {
		if s.deps.Mobs != nil && s.deps.Mobs.IsDead(e) {
			continue
		}
		if s.deps.Body != nil && s.deps.Body.IsGibbed(e) {
			continue
		}
		if s.respMap.Get(e).Exhaling {
			s.Exhale(e)
		} else {
			s.Inhale(e)
		}
		r := s.respMap.Get(e)
		r.Exhaling = !r.Exhaling
	}
}

// Inhale draws one breath into the body's lungs, absorbs it into the blood
// and checks for suffocation.
func (s *RespirationSystem) Inhale(body ecs.Entity) {
	if !s.respMap.Has(body) {
		return
	}
	air := s.breath(body)
	breathable := air.Moles(s.cfg.BreathableGas)
	s.respMap.Get(body).LastBreathMol = breathable

	lungs := s.lungs(body)
	if len(lungs) == 0 {
		s.returnToEnvironment(body, air)
		s.suffocate(body)
		return
	}

	for i, lung := range lungs {
		portion := air.RemoveRatio(1 / float64(len(lungs)-i))
		s.lungMap.Get(lung).Air.Merge(portion)
	}
	for _, lung := range lungs {
		s.absorb(body, s.lungMap.Get(lung))
	}
	s.metabolise(body)

	if breathable < s.cfg.SuffocationThreshold {
		s.suffocate(body)
	} else {
		s.recover(body)
	}
}

// Exhale returns what is left in the lungs to the surrounding air.
func (s *RespirationSystem) Exhale(body ecs.Entity) {
	for _, lung := range s.lungs(body) {
		s.returnToEnvironment(body, s.lungMap.Get(lung).Air)
	}
}

// GasToReagent converts a gas mixture into the reagents it dissolves as.
// Gases without a reagent, or with no moles, are skipped. mix is not
// modified.
func (s *RespirationSystem) GasToReagent(mix *atmos.GasMixture) *solution.Solution {
	mult := s.registry.MolesToReagentMultiplier()
	var reagents []solution.Reagent
	total := 0.0
	for _, gas := range s.registry.Gases() {
		moles := mix.Moles(gas)
		reagent, ok := s.registry.GasReagent(gas)
		if !ok || moles <= 0 {
			continue
		}
		qty := moles * mult
		reagents = append(reagents, solution.Reagent{ID: reagent, Quantity: qty})
		total += qty
	}
	return solution.NewWith(total, reagents...)
}

// absorb dissolves the lung's air into its solution and moves as much of
// that solution into the blood as fits.
func (s *RespirationSystem) absorb(body ecs.Entity, lung *components.Lung) {
	dissolved := s.GasToReagent(lung.Air)
	for _, gas := range lung.Air.Gases() {
		if _, ok := s.registry.GasReagent(gas); ok {
			lung.Air.SetMoles(gas, 0)
		}
	}
	lung.Solution.AddSolution(dissolved)

	if s.deps.Bloodstream == nil {
		return
	}
	blood, _, ok := s.deps.Bloodstream.Solutions(body)
	if !ok {
		return
	}
	overflow := blood.AddSolution(lung.Solution)
	lung.Solution.RemoveAll()
	lung.Solution.AddSolution(overflow)
}

// metabolise burns breathable reagent out of the blood.
func (s *RespirationSystem) metabolise(body ecs.Entity) {
	if s.deps.Bloodstream == nil || s.cfg.Consumption <= 0 {
		return
	}
	reagent, ok := s.registry.GasReagent(s.cfg.BreathableGas)
	if !ok {
		return
	}
	if blood, _, ok := s.deps.Bloodstream.Solutions(body); ok {
		blood.RemoveReagent(reagent, s.cfg.Consumption)
	}
}

func (s *RespirationSystem) breath(body ecs.Entity) *atmos.GasMixture {
	if s.deps.Internals != nil {
		if air, ok := s.deps.Internals.Breath(body, s.cfg.BreathVolume); ok {
			return air
		}
	}
	if env := s.environment(body); env != nil {
		return env.RemoveVolume(s.cfg.BreathVolume)
	}
	return atmos.NewMixture(s.cfg.BreathVolume, atmos.TCMB)
}

func (s *RespirationSystem) environment(body ecs.Entity) *atmos.GasMixture {
	if s.deps.Environment == nil {
		return nil
	}
	var pos components.Position
	if s.posMap.Has(body) {
		pos = *s.posMap.Get(body)
	}
	return s.deps.Environment.MixtureAt(pos.X, pos.Y)
}

func (s *RespirationSystem) returnToEnvironment(body ecs.Entity, air *atmos.GasMixture) {
	if env := s.environment(body); env != nil {
		env.Merge(air)
		return
	}
	for _, gas := range air.Gases() {
		air.SetMoles(gas, 0)
	}
}

func (s *RespirationSystem) suffocate(body ecs.Entity) {
	s.respMap.Get(body).Suffocating++
	if s.deps.Damage != nil && s.cfg.SuffocationDamage > 0 {
		s.deps.Damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{s.cfg.SuffocationDamageType: s.cfg.SuffocationDamage})
	}
}

func (s *RespirationSystem) recover(body ecs.Entity) {
	s.respMap.Get(body).Suffocating = 0
	if s.deps.Damage != nil && s.cfg.SuffocationDamage > 0 {
		s.deps.Damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{s.cfg.SuffocationDamageType: -s.cfg.SuffocationDamage})
	}
}

func (s *RespirationSystem) lungs(body ecs.Entity) []ecs.Entity {
	if s.deps.Body == nil {
		return nil
	}
	organs := s.deps.Body.OrgansOfKind(body, components.OrganLungs)
	lungs := organs[:0]
	for _, o := range organs {
		if s.lungMap.Has(o) {
			lungs = append(lungs, o)
		}
	}
	return lungs
}

// Suffocating reports whether the body's last breath lacked breathable gas.
func (s *RespirationSystem) Suffocating(body ecs.Entity) bool {
	return s.respMap.Has(body) && s.respMap.Get(body).Suffocating > 0
}
