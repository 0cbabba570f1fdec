package systems

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/prototype"
	"github.com/pthm-cable/anatomy/solution"
)

// ErrStomachFull is returned when no stomach has room for a meal.
var ErrStomachFull = errors.New("no stomach has room")

// DigestionSystem tracks what arrives in each stomach and moves it into the
// blood once its digestion delay has passed.
type DigestionSystem struct {
	cfg         config.DigestionConfig
	clock       Clock
	body        *BodySystem
	bloodstream *BloodstreamSystem

	stomachMap *ecs.Map[components.Stomach]
	organMap   *ecs.Map[components.Organ]
	filter     ecs.Filter1[components.Stomach]

	absorbed float64 // Lifetime total moved into blood
}

// NewDigestionSystem creates a digestion system, registers the stomach organ
// initializer and subscribes to metabolic multiplier changes.
func NewDigestionSystem(w *ecs.World, cfg config.DigestionConfig, clock Clock, router *events.Router, body *BodySystem, bloodstream *BloodstreamSystem) *DigestionSystem {
	s := &DigestionSystem{
		cfg:         cfg,
		clock:       clock,
		body:        body,
		bloodstream: bloodstream,
		stomachMap:  ecs.NewMap[components.Stomach](w),
		organMap:    ecs.NewMap[components.Organ](w),
		filter:      *ecs.NewFilter1[components.Stomach](w),
	}
	if body != nil {
		body.RegisterOrganInit(components.OrganStomach, s.initStomach)
	}
	if router != nil {
		router.Subscribe(events.MetabolicMultiplier, s.onMetabolicMultiplier)
	}
	return s
}

func (s *DigestionSystem) initStomach(organ ecs.Entity, proto *prototype.OrganPrototype) {
	volume := s.cfg.StomachMaxVolume
	if proto.Stomach != nil && proto.Stomach.MaxVolume > 0 {
		volume = proto.Stomach.MaxVolume
	}
	mult := s.cfg.DefaultMultiplier
	if mult <= 0 {
		mult = 1
	}
	s.stomachMap.Add(organ, &components.Stomach{
		Solution:        solution.New(volume),
		Delay:           s.cfg.DigestionDelay,
		DelayMultiplier: mult,
		NextUpdate:      s.clock.Now() + s.cfg.UpdateInterval,
	})
}

// Update tracks and absorbs every stomach whose update interval has elapsed.
func (s *DigestionSystem) Update() {
	now := s.clock.Now()
	query := s.filter.Query()
	for query.Next() {
		st := query.Get()
		if st.NextUpdate > now {
			continue
		}
		st.NextUpdate = now + s.cfg.UpdateInterval

		body := s.bodyOf(query.Entity())
		if body.IsZero() {
			continue
		}
		s.Track(st, now)
		s.Absorb(body, st, now)
	}
}

func (s *DigestionSystem) bodyOf(organ ecs.Entity) ecs.Entity {
	if !s.organMap.Has(organ) {
		return ecs.Entity{}
	}
	return s.organMap.Get(organ).Body
}

// Track reconciles pending deltas with the stomach contents. New quantity is
// scheduled at now + delay * multiplier. Quantity removed from outside is
// dropped from the newest deltas first.
func (s *DigestionSystem) Track(st *components.Stomach, now float64) {
	seen := make(map[string]bool)
	for _, r := range st.Solution.Contents() {
		seen[r.ID] = true
		tracked := st.Tracked(r.ID)
		switch {
		case r.Quantity > tracked+solution.Epsilon:
			st.Pending = append(st.Pending, components.ReagentDelta{
				Reagent:  r.ID,
				Quantity: r.Quantity - tracked,
				Due:      now + st.Delay*st.DelayMultiplier,
			})
		case r.Quantity < tracked-solution.Epsilon:
			trimNewest(st, r.ID, tracked-r.Quantity)
		}
	}
	for _, d := range st.Pending {
		if !seen[d.Reagent] {
			trimNewest(st, d.Reagent, st.Tracked(d.Reagent))
		}
	}
}

func trimNewest(st *components.Stomach, reagent string, excess float64) {
	for i := len(st.Pending) - 1; i >= 0 && excess > 0; i-- {
		d := &st.Pending[i]
		if d.Reagent != reagent {
			continue
		}
		cut := minFloat(d.Quantity, excess)
		d.Quantity -= cut
		excess -= cut
	}
	compact(st)
}

func compact(st *components.Stomach) {
	kept := st.Pending[:0]
	for _, d := range st.Pending {
		if d.Quantity >= solution.Epsilon {
			kept = append(kept, d)
		}
	}
	st.Pending = kept
}

// Absorb moves every due delta into the body's blood, capped by what is still
// in the stomach. Whatever the blood cannot take stays pending.
func (s *DigestionSystem) Absorb(body ecs.Entity, st *components.Stomach, now float64) float64 {
	if s.bloodstream == nil {
		return 0
	}
	total := 0.0
	for i := range st.Pending {
		d := &st.Pending[i]
		if d.Due > now {
			continue
		}
		want := minFloat(d.Quantity, st.Solution.Quantity(d.Reagent))
		removed := st.Solution.RemoveReagent(d.Reagent, want)
		added := s.bloodstream.AbsorbReagent(body, d.Reagent, removed)
		if added < removed {
			st.Solution.AddReagent(d.Reagent, removed-added)
		}
		if want < d.Quantity {
			// removed from outside since it was tracked
			d.Quantity = want
		}
		d.Quantity -= added
		total += added
	}
	compact(st)
	s.absorbed += total
	return total
}

// SetDelayMultiplier changes a stomach's digestion speed. The remaining wait
// of every pending delta is scaled by new/old around now.
func (s *DigestionSystem) SetDelayMultiplier(stomach ecs.Entity, mult float64) bool {
	if mult <= 0 || !s.stomachMap.Has(stomach) {
		return false
	}
	st := s.stomachMap.Get(stomach)
	old := st.DelayMultiplier
	if old <= 0 {
		old = 1
	}
	now := s.clock.Now()
	ratio := mult / old
	for i := range st.Pending {
		d := &st.Pending[i]
		if remaining := d.Due - now; remaining > 0 {
			d.Due = now + remaining*ratio
		}
	}
	st.DelayMultiplier = mult
	return true
}

func (s *DigestionSystem) onMetabolicMultiplier(ev events.Event) {
	p, ok := ev.Payload.(*events.MetabolicPayload)
	if !ok || p.Multiplier <= 0 || s.body == nil {
		return
	}
	for _, stomach := range s.body.OrgansOfKind(p.Body, components.OrganStomach) {
		if !s.stomachMap.Has(stomach) {
			continue
		}
		cur := s.stomachMap.Get(stomach).DelayMultiplier
		if p.Apply {
			s.SetDelayMultiplier(stomach, cur*p.Multiplier)
		} else {
			s.SetDelayMultiplier(stomach, cur/p.Multiplier)
		}
	}
}

// TryEat puts a meal into the first stomach of the body with room for all of
// it. food is emptied on success.
func (s *DigestionSystem) TryEat(body ecs.Entity, food *solution.Solution) error {
	if s.body == nil {
		return fmt.Errorf("entity %d: %w", body.ID(), ErrNoBody)
	}
	stomachs := s.body.OrgansOfKind(body, components.OrganStomach)
	if len(stomachs) == 0 {
		return fmt.Errorf("entity %d has no stomach: %w", body.ID(), ErrNoOrgan)
	}
	for _, stomach := range stomachs {
		if !s.stomachMap.Has(stomach) {
			continue
		}
		if s.stomachMap.Get(stomach).Solution.TryAddSolution(food) {
			food.RemoveAll()
			return nil
		}
	}
	return fmt.Errorf("entity %d, %.2fu: %w", body.ID(), food.Volume(), ErrStomachFull)
}

// Stomach returns the stomach component of an organ.
func (s *DigestionSystem) Stomach(organ ecs.Entity) (*components.Stomach, bool) {
	if !s.stomachMap.Has(organ) {
		return nil, false
	}
	return s.stomachMap.Get(organ), true
}

// Absorbed returns the total quantity moved into blood since start.
func (s *DigestionSystem) Absorbed() float64 { return s.absorbed }
