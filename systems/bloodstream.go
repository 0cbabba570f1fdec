package systems

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/prototype"
	"github.com/pthm-cable/anatomy/rng"
	"github.com/pthm-cable/anatomy/solution"
)

// ErrIncompatibleBlood is returned when a transfusion mixes blood reagents.
var ErrIncompatibleBlood = errors.New("incompatible blood reagent")

// BloodstreamDeps are the collaborators the bloodstream consumes.
type BloodstreamDeps struct {
	Clock  Clock
	Router *events.Router
	Mobs   MobStates
	Damage DamageApplier
	Status StatusEffector
	Spill  Spiller
	Roller rng.Roller
}

// BloodstreamSystem regulates blood level, drains bleeding into a spilled
// solution, applies bloodloss consequences and turns incoming damage into
// bleeding.
type BloodstreamSystem struct {
	cfg      config.BloodstreamConfig
	registry *prototype.Registry
	deps     BloodstreamDeps

	bloodMap *ecs.Map[components.Bloodstream]
	bodyMap  *ecs.Map[components.Body]
	filter   ecs.Filter1[components.Bloodstream]

	// Reusable buffer of bodies due this tick
	due []ecs.Entity
}

// NewBloodstreamSystem creates a bloodstream system and registers it for the
// events it consumes.
func NewBloodstreamSystem(w *ecs.World, cfg config.BloodstreamConfig, reg *prototype.Registry, deps BloodstreamDeps) *BloodstreamSystem {
	if deps.Roller == nil {
		deps.Roller = rng.Deterministic{}
	}
	s := &BloodstreamSystem{
		cfg:      cfg,
		registry: reg,
		deps:     deps,
		bloodMap: ecs.NewMap[components.Bloodstream](w),
		bodyMap:  ecs.NewMap[components.Body](w),
		filter:   *ecs.NewFilter1[components.Bloodstream](w),
		due:      make([]ecs.Entity, 0, 64),
	}
	deps.Router.Register(s)
	return s
}

// NewBloodstream returns a full bloodstream component built from config.
func NewBloodstream(cfg config.BloodstreamConfig, now float64) components.Bloodstream {
	blood := solution.New(cfg.BloodMaxVolume)
	blood.AddReagent(cfg.BloodReagent, cfg.BloodReferenceVolume)
	return components.Bloodstream{
		Blood:              blood,
		Spilled:            solution.New(cfg.SpilledMaxVolume),
		BloodReagent:       cfg.BloodReagent,
		ReferenceVolume:    cfg.BloodReferenceVolume,
		ModifierSet:        cfg.DamageBleedModifiers,
		NextUpdate:         now + cfg.UpdateInterval,
		IntervalMultiplier: 1,
	}
}

// EventTypes implements events.Handler.
func (s *BloodstreamSystem) EventTypes() []events.Type {
	return []events.Type{events.DamageChanged, events.Gibbed, events.MetabolicMultiplier}
}

// HandleEvent implements events.Handler.
func (s *BloodstreamSystem) HandleEvent(ev events.Event) {
	switch p := ev.Payload.(type) {
	case *events.DamagePayload:
		s.onDamageChanged(p)
	case *events.GibPayload:
		s.SpillAll(p.Body)
	case *events.MetabolicPayload:
		s.applyMetabolicMultiplier(p)
	}
}

// Update runs every bloodstream whose update interval has elapsed.
func (s *BloodstreamSystem) Update() {
	now := s.deps.Clock.Now()

	// Collect first: bleeding can spawn puddles, which is a structural change.
	s.due = s.due[:0]
	query := s.filter.Query()
	for query.Next() {
		if query.Get().NextUpdate <= now {
			s.due = append(s.due, query.Entity())
		}
	}

	for _, e := range s.due {
		if !s.bloodMap.Has(e) {
			continue
		}
		s.UpdateBody(e)
		bs := s.bloodMap.Get(e)
		bs.NextUpdate = now + s.cfg.UpdateInterval*bs.IntervalMultiplier
	}
}

// UpdateBody runs one bloodstream update for a body: level regulation, bleed
// drain, then bloodloss consequences. Returns false when the body has no
// resolvable blood solution or has been gibbed.
func (s *BloodstreamSystem) UpdateBody(e ecs.Entity) bool {
	if !s.bloodMap.Has(e) || s.bloodMap.Get(e).Blood == nil {
		return false
	}
	if s.bodyMap.Has(e) && s.bodyMap.Get(e).Gibbed {
		return false
	}
	dead := s.deps.Mobs != nil && s.deps.Mobs.IsDead(e)

	if !dead {
		s.regulate(e)
	}

	if bleed := s.bloodMap.Get(e).BleedAmount; bleed > 0 {
		mod := &events.BleedModifyPayload{Body: e, Amount: bleed, Reduction: s.cfg.BleedReductionAmount}
		s.deps.Router.Emit(events.BleedModify, mod)
		s.TryBleedOut(e, clampFloat(mod.Amount, 0, bleed))
		s.TryModifyBleedAmount(e, -mod.Reduction)
	}

	level := s.bloodMap.Get(e).Level()
	switch {
	case level < s.cfg.BloodlossThreshold && !dead:
		scale := 1 / (0.1 + level)
		s.applyDamage(e, s.cfg.BloodlossDamage, scale)
		if s.deps.Status != nil {
			s.deps.Status.SetStatus(e, s.cfg.BloodlossStatus)
		}
	case !dead:
		s.applyDamage(e, s.cfg.BloodlossHealDamage, -level)
		if s.deps.Status != nil {
			s.deps.Status.ClearStatus(e, s.cfg.BloodlossStatus)
		}
	}
	return true
}

// regulate moves the blood reagent toward the reference volume by at most
// the refresh amount, never past it and never above the solution's capacity.
func (s *BloodstreamSystem) regulate(e ecs.Entity) {
	bs := s.bloodMap.Get(e)
	have := bs.Blood.Quantity(bs.BloodReagent)
	target := bs.ReferenceVolume
	if floatsNear(have, target) {
		return
	}
	next := moveToward(have, target, s.cfg.BloodRefreshAmount)
	if next > have {
		bs.Blood.AddReagent(bs.BloodReagent, next-have)
	} else {
		bs.Blood.RemoveReagent(bs.BloodReagent, have-next)
	}
}

func (s *BloodstreamSystem) applyDamage(e ecs.Entity, base map[string]float64, scale float64) {
	if s.deps.Damage == nil || len(base) == 0 || scale == 0 {
		return
	}
	delta := make(map[string]float64, len(base))
	for typ, v := range base {
		delta[typ] = v * scale
	}
	s.deps.Damage.ChangeDamage(e, ecs.Entity{}, delta)
}

// onDamageChanged turns the increase in damage into bleeding and rolls for a
// crit-bleed. The roll is seeded from the tick and both entity ids so replays
// agree.
func (s *BloodstreamSystem) onDamageChanged(p *events.DamagePayload) {
	if !s.bloodMap.Has(p.Target) {
		return
	}
	bs := s.bloodMap.Get(p.Target)

	increase := make(map[string]float64, len(p.Delta))
	for typ, v := range p.Delta {
		if v > 0 {
			increase[typ] = v
		}
	}
	if len(increase) == 0 {
		return
	}
	mods, _ := s.registry.ModifierSet(bs.ModifierSet)
	mapped := mods.Apply(increase)
	if len(mapped) == 0 {
		return
	}
	total := 0.0
	for _, typ := range sortedKeys(mapped) {
		total += mapped[typ]
	}

	oldBleed := bs.BleedAmount
	s.TryModifyBleedAmount(p.Target, total)

	prob := clamp01(total / s.cfg.CritBleedDivisor)
	seed := rng.Seed(s.deps.Clock.Tick(), p.Target.ID(), p.Origin.ID())
	switch {
	case total > 0 && s.deps.Roller.Prob(seed, prob):
		amount := total / s.cfg.CritBleedSpillDivisor
		s.TryBleedOut(p.Target, amount)
		s.deps.Router.Emit(events.CritBleed, &events.CritBleedPayload{Body: p.Target, Origin: p.Origin, Amount: amount})
	case total <= s.cfg.BloodHealedThreshold && oldBleed > 0:
		s.deps.Router.Emit(events.WoundsCauterized, &events.BodyPayload{Body: p.Target})
	}
}

// TryModifyBleedAmount adds delta to the bleed amount, clamped to
// [0, MaxBleedAmount].
func (s *BloodstreamSystem) TryModifyBleedAmount(e ecs.Entity, delta float64) bool {
	if !s.bloodMap.Has(e) {
		return false
	}
	bs := s.bloodMap.Get(e)
	bs.BleedAmount = clampFloat(bs.BleedAmount+delta, 0, s.cfg.MaxBleedAmount)
	return true
}

// TryBleedOut moves up to amount from the blood into the spilled solution.
// Once the spilled volume passes the puddle threshold it is emptied into the
// world.
func (s *BloodstreamSystem) TryBleedOut(e ecs.Entity, amount float64) bool {
	if amount <= 0 || !s.bloodMap.Has(e) {
		return false
	}
	bs := s.bloodMap.Get(e)
	if bs.Blood == nil || bs.Spilled == nil {
		return false
	}
	s.spill(e, bs.Spilled, bs.Blood.SplitSolution(amount))
	return true
}

// spill adds leaked blood to the spilled solution. Overflow goes straight to
// the floor; once the spilled volume passes the puddle threshold it is
// emptied into a puddle.
func (s *BloodstreamSystem) spill(e ecs.Entity, spilled, leaked *solution.Solution) {
	overflow := spilled.AddSolution(leaked)
	if !overflow.Empty() && s.deps.Spill != nil {
		s.deps.Spill.SpillAt(e, overflow)
	}
	if spilled.Volume() > s.cfg.BleedPuddleThreshold {
		if s.deps.Spill != nil {
			s.deps.Spill.SpillAt(e, spilled)
		}
		spilled.RemoveAll()
	}
}

// TryModifyBloodLevel adds or removes blood reagent. Removed blood is spilled.
func (s *BloodstreamSystem) TryModifyBloodLevel(e ecs.Entity, amount float64) bool {
	if !s.bloodMap.Has(e) {
		return false
	}
	bs := s.bloodMap.Get(e)
	if amount >= 0 {
		return bs.Blood.AddReagent(bs.BloodReagent, amount) > 0 || amount == 0
	}
	removed := bs.Blood.RemoveReagent(bs.BloodReagent, -amount)
	if removed > 0 {
		s.spill(e, bs.Spilled, solution.NewWith(removed, solution.Reagent{ID: bs.BloodReagent, Quantity: removed}))
	}
	return removed > 0
}

// SetBloodQuantity forces the blood reagent to an exact quantity, capped at
// the solution's capacity.
func (s *BloodstreamSystem) SetBloodQuantity(e ecs.Entity, qty float64) bool {
	if !s.bloodMap.Has(e) {
		return false
	}
	bs := s.bloodMap.Get(e)
	have := bs.Blood.Quantity(bs.BloodReagent)
	if qty > have {
		bs.Blood.AddReagent(bs.BloodReagent, qty-have)
	} else {
		bs.Blood.RemoveReagent(bs.BloodReagent, have-qty)
	}
	return true
}

// TryAddToBloodstream merges a solution into the blood. Returns false, and
// adds nothing, if it does not fit.
func (s *BloodstreamSystem) TryAddToBloodstream(e ecs.Entity, sol *solution.Solution) bool {
	if !s.bloodMap.Has(e) {
		return false
	}
	return s.bloodMap.Get(e).Blood.TryAddSolution(sol)
}

// AbsorbReagent adds up to qty of a reagent to the blood and returns the
// quantity absorbed.
func (s *BloodstreamSystem) AbsorbReagent(e ecs.Entity, reagent string, qty float64) float64 {
	if !s.bloodMap.Has(e) {
		return 0
	}
	return s.bloodMap.Get(e).Blood.AddReagent(reagent, qty)
}

// Transfuse moves up to amount of blood from donor to recipient. Both must
// circulate the same blood reagent.
func (s *BloodstreamSystem) Transfuse(donor, recipient ecs.Entity, amount float64) (float64, error) {
	if !s.bloodMap.Has(donor) {
		return 0, fmt.Errorf("donor %d: %w", donor.ID(), ErrNoSolution)
	}
	if !s.bloodMap.Has(recipient) {
		return 0, fmt.Errorf("recipient %d: %w", recipient.ID(), ErrNoSolution)
	}
	from, to := s.bloodMap.Get(donor), s.bloodMap.Get(recipient)
	if from.BloodReagent != to.BloodReagent {
		return 0, fmt.Errorf("%s into %s: %w", from.BloodReagent, to.BloodReagent, ErrIncompatibleBlood)
	}
	amount = minFloat(amount, to.Blood.AvailableVolume())
	taken := from.Blood.RemoveReagent(from.BloodReagent, amount)
	to.Blood.AddReagent(to.BloodReagent, taken)
	return taken, nil
}

// FlushChemicals removes up to amount of every reagent other than the blood
// reagent and except.
func (s *BloodstreamSystem) FlushChemicals(e ecs.Entity, except string, amount float64) bool {
	if !s.bloodMap.Has(e) {
		return false
	}
	bs := s.bloodMap.Get(e)
	for _, r := range bs.Blood.Contents() {
		if r.ID == bs.BloodReagent || r.ID == except {
			continue
		}
		bs.Blood.RemoveReagent(r.ID, amount)
	}
	return true
}

// ChangeBloodReagent switches the reagent the body circulates, converting the
// current blood to the new reagent.
func (s *BloodstreamSystem) ChangeBloodReagent(e ecs.Entity, reagent string) bool {
	if !s.bloodMap.Has(e) || reagent == "" {
		return false
	}
	bs := s.bloodMap.Get(e)
	if bs.BloodReagent == reagent {
		return true
	}
	qty := bs.Blood.RemoveReagent(bs.BloodReagent, bs.Blood.Quantity(bs.BloodReagent))
	bs.BloodReagent = reagent
	bs.Blood.AddReagent(reagent, qty)
	return true
}

// SpillAll empties every solution of the bloodstream into the world.
func (s *BloodstreamSystem) SpillAll(e ecs.Entity) {
	if !s.bloodMap.Has(e) {
		return
	}
	bs := s.bloodMap.Get(e)
	all := bs.Blood.Clone()
	all.SetMaxVolume(all.Volume() + bs.Spilled.Volume())
	all.AddSolution(bs.Spilled)
	bs.Blood.RemoveAll()
	bs.Spilled.RemoveAll()
	bs.BleedAmount = 0
	if s.deps.Spill != nil {
		s.deps.Spill.SpillAt(e, all)
	}
	slog.Debug("bloodstream spilled", "body", e.ID(), "volume", all.Volume())
}

// Rejuvenate restores a full, non-bleeding bloodstream.
func (s *BloodstreamSystem) Rejuvenate(e ecs.Entity) {
	if !s.bloodMap.Has(e) {
		return
	}
	bs := s.bloodMap.Get(e)
	bs.Blood.RemoveAll()
	bs.Blood.AddReagent(bs.BloodReagent, bs.ReferenceVolume)
	bs.Spilled.RemoveAll()
	bs.BleedAmount = 0
	if s.deps.Status != nil {
		s.deps.Status.ClearStatus(e, s.cfg.BloodlossStatus)
	}
}

// BloodLevel returns blood quantity relative to the reference volume.
func (s *BloodstreamSystem) BloodLevel(e ecs.Entity) (float64, bool) {
	if !s.bloodMap.Has(e) {
		return 0, false
	}
	return s.bloodMap.Get(e).Level(), true
}

// BleedAmount returns the current bleed amount.
func (s *BloodstreamSystem) BleedAmount(e ecs.Entity) (float64, bool) {
	if !s.bloodMap.Has(e) {
		return 0, false
	}
	return s.bloodMap.Get(e).BleedAmount, true
}

// Solutions returns the blood and spilled solutions of a body.
func (s *BloodstreamSystem) Solutions(e ecs.Entity) (blood, spilled *solution.Solution, ok bool) {
	if !s.bloodMap.Has(e) {
		return nil, nil, false
	}
	bs := s.bloodMap.Get(e)
	return bs.Blood, bs.Spilled, true
}

// Examine returns observer-facing text about the body's bleeding and pallor.
func (s *BloodstreamSystem) Examine(e ecs.Entity) []string {
	if !s.bloodMap.Has(e) {
		return nil
	}
	bs := s.bloodMap.Get(e)
	var lines []string
	if txt := components.BleedSeverity(bs.BleedAmount, s.cfg.MaxBleedAmount); txt != "" {
		lines = append(lines, txt)
	}
	if txt := components.BloodLevelDescription(bs.Level(), s.cfg.BloodlossThreshold); txt != "" {
		lines = append(lines, txt)
	}
	return lines
}

// applyMetabolicMultiplier scales the update interval. The wait until the
// next update is rescaled around now rather than restarted.
func (s *BloodstreamSystem) applyMetabolicMultiplier(p *events.MetabolicPayload) {
	if !s.bloodMap.Has(p.Body) || p.Multiplier <= 0 {
		return
	}
	bs := s.bloodMap.Get(p.Body)
	old := bs.IntervalMultiplier
	if p.Apply {
		bs.IntervalMultiplier *= p.Multiplier
	} else {
		bs.IntervalMultiplier /= p.Multiplier
	}
	now := s.deps.Clock.Now()
	if remaining := bs.NextUpdate - now; remaining > 0 && old > 0 {
		bs.NextUpdate = now + remaining*bs.IntervalMultiplier/old
	}
}

// IsBloodSolution reports whether sol is one of the body's bloodstream
// solutions.
func (s *BloodstreamSystem) IsBloodSolution(owner ecs.Entity, sol *solution.Solution) bool {
	if !s.bloodMap.Has(owner) {
		return false
	}
	bs := s.bloodMap.Get(owner)
	return sol == bs.Blood || sol == bs.Spilled
}

// GuardReaction rejects reactions with entity-spawning or area effects inside
// blood.
func (s *BloodstreamSystem) GuardReaction(owner ecs.Entity, sol *solution.Solution, r *prototype.ReactionPrototype) bool {
	if !s.IsBloodSolution(owner, sol) {
		return true
	}
	return !r.HasEffect(prototype.EffectSpawnEntity) && !r.HasEffect(prototype.EffectArea)
}

func floatsNear(a, b float64) bool {
	d := a - b
	return d < solution.Epsilon && d > -solution.Epsilon
}
