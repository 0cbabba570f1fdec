package systems

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/prototype"
	"github.com/pthm-cable/anatomy/solution"
)

// ReactionGuard vetoes a reaction in a solution owned by an entity. Returning
// false blocks the reaction.
type ReactionGuard func(owner ecs.Entity, sol *solution.Solution, r *prototype.ReactionPrototype) bool

// ReactionSystem runs reagent reactions in every reactive solution it owns a
// query for: blood, stomachs and puddles.
type ReactionSystem struct {
	registry *prototype.Registry
	guards   []ReactionGuard

	bloodFilter   ecs.Filter1[components.Bloodstream]
	stomachFilter ecs.Filter1[components.Stomach]
	puddleFilter  ecs.Filter1[components.Puddle]

	blocked int
	reacted int
}

// NewReactionSystem creates a reaction system.
func NewReactionSystem(w *ecs.World, reg *prototype.Registry) *ReactionSystem {
	return &ReactionSystem{
		registry:      reg,
		bloodFilter:   *ecs.NewFilter1[components.Bloodstream](w),
		stomachFilter: *ecs.NewFilter1[components.Stomach](w),
		puddleFilter:  *ecs.NewFilter1[components.Puddle](w),
	}
}

// AddGuard registers a guard consulted before every reaction.
func (s *ReactionSystem) AddGuard(g ReactionGuard) {
	s.guards = append(s.guards, g)
}

// Update reacts every solution once.
func (s *ReactionSystem) Update() {
	bq := s.bloodFilter.Query()
	for bq.Next() {
		bs := bq.Get()
		s.React(bq.Entity(), bs.Blood)
	}
	sq := s.stomachFilter.Query()
	for sq.Next() {
		s.React(sq.Entity(), sq.Get().Solution)
	}
	pq := s.puddleFilter.Query()
	for pq.Next() {
		s.React(pq.Entity(), pq.Get().Solution)
	}
}

// React runs every applicable reaction in sol once, in registry order.
// Returns the number of reactions that took place.
func (s *ReactionSystem) React(owner ecs.Entity, sol *solution.Solution) int {
	if sol == nil || !sol.CanReact || sol.Empty() {
		return 0
	}
	n := 0
	for _, r := range s.registry.Reactions() {
		units := reactionUnits(sol, r)
		if units < solution.Epsilon {
			continue
		}
		if !s.allowed(owner, sol, r) {
			s.blocked++
			slog.Debug("reaction blocked", "reaction", r.ID, "owner", owner.ID())
			continue
		}
		for _, reagent := range sortedKeys(r.Reactants) {
			sol.RemoveReagent(reagent, r.Reactants[reagent]*units)
		}
		for _, reagent := range sortedKeys(r.Products) {
			sol.AddReagent(reagent, r.Products[reagent]*units)
		}
		n++
	}
	s.reacted += n
	return n
}

func (s *ReactionSystem) allowed(owner ecs.Entity, sol *solution.Solution, r *prototype.ReactionPrototype) bool {
	for _, g := range s.guards {
		if !g(owner, sol, r) {
			return false
		}
	}
	return true
}

// Stats returns how many reactions ran and how many were blocked by a guard.
func (s *ReactionSystem) Stats() (reacted, blocked int) {
	return s.reacted, s.blocked
}

// reactionUnits is how many times the reaction's reactant ratio fits in sol.
func reactionUnits(sol *solution.Solution, r *prototype.ReactionPrototype) float64 {
	if len(r.Reactants) == 0 {
		return 0
	}
	units := math.Inf(1)
	for reagent, ratio := range r.Reactants {
		if ratio <= 0 {
			continue
		}
		units = math.Min(units, sol.Quantity(reagent)/ratio)
	}
	if math.IsInf(units, 1) {
		return 0
	}
	return units
}
