package systems

import (
	"fmt"
	"log/slog"

	"github.com/bits-and-blooms/bitset"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/prototype"
)

// OrganInit gives a freshly spawned organ its kind-specific state.
type OrganInit func(organ ecs.Entity, proto *prototype.OrganPrototype)

// BodySystem owns the part graph of every body. It is the only writer of the
// part/body and organ/part back-references.
type BodySystem struct {
	world     *ecs.World
	registry  *prototype.Registry
	cfg       config.BodyConfig
	router    *events.Router
	damage    DamageApplier
	equipment Unequipper

	bodyMap  *ecs.Map[components.Body]
	partMap  *ecs.Map[components.Part]
	organMap *ecs.Map[components.Organ]
	posMap   *ecs.Map[components.Position]
	moveMap  *ecs.Map[components.Movement]

	organInits map[string][]OrganInit
}

// NewBodySystem creates a body system. damage may be nil, in which case
// losing a vital part only raises VitalPartLost.
func NewBodySystem(w *ecs.World, reg *prototype.Registry, cfg config.BodyConfig, router *events.Router, damage DamageApplier) *BodySystem {
	return &BodySystem{
		world:      w,
		registry:   reg,
		cfg:        cfg,
		router:     router,
		damage:     damage,
		bodyMap:    ecs.NewMap[components.Body](w),
		partMap:    ecs.NewMap[components.Part](w),
		organMap:   ecs.NewMap[components.Organ](w),
		posMap:     ecs.NewMap[components.Position](w),
		moveMap:    ecs.NewMap[components.Movement](w),
		organInits: make(map[string][]OrganInit),
	}
}

// SetEquipment sets the collaborator that strips worn items on gib.
func (s *BodySystem) SetEquipment(u Unequipper) {
	s.equipment = u
}

// RegisterOrganInit adds kind-specific setup run for every organ of that kind.
func (s *BodySystem) RegisterOrganInit(kind string, fn OrganInit) {
	s.organInits[kind] = append(s.organInits[kind], fn)
}

// SpawnPart creates a free-standing part from a prototype.
func (s *BodySystem) SpawnPart(protoID string) (ecs.Entity, error) {
	proto, ok := s.registry.Part(protoID)
	if !ok {
		return ecs.Entity{}, fmt.Errorf("part %q: %w", protoID, ErrUnknownPrototype)
	}
	return s.partMap.NewEntity(&components.Part{
		Prototype: proto.ID,
		Type:      proto.Type,
		Vital:     proto.Vital,
		Symmetry:  proto.Symmetry,
		Slot:      components.NoSlot,
	}), nil
}

// SpawnOrgan creates a free-standing organ from a prototype.
func (s *BodySystem) SpawnOrgan(protoID string) (ecs.Entity, error) {
	proto, ok := s.registry.Organ(protoID)
	if !ok {
		return ecs.Entity{}, fmt.Errorf("organ %q: %w", protoID, ErrUnknownPrototype)
	}
	e := s.organMap.NewEntity(&components.Organ{Prototype: proto.ID, Kind: proto.Kind})
	for _, fn := range s.organInits[proto.Kind] {
		fn(e, proto)
	}
	return e, nil
}

// Instantiate builds a body's part graph from a template. The root part is
// spawned first, then every slot is visited breadth-first over the template's
// connections. A slot whose part fails to spawn is logged and left empty;
// slots reachable only through it stay empty too.
func (s *BodySystem) Instantiate(body ecs.Entity, templateID string) error {
	tmpl, ok := s.registry.Template(templateID)
	if !ok {
		return fmt.Errorf("template %q: %w", templateID, ErrUnknownTemplate)
	}
	if s.bodyMap.Has(body) && !s.bodyMap.Get(body).Root.IsZero() {
		return fmt.Errorf("entity %d: %w", body.ID(), ErrAlreadyInstantiated)
	}

	adj := tmpl.Adjacency()
	slots := make([]components.Slot, len(tmpl.Slots))
	for i, def := range tmpl.Slots {
		slots[i] = components.Slot{ID: def.ID, Type: def.Type, Adjacent: adj[i], Parent: components.NoSlot}
	}
	root, _ := tmpl.SlotIndex(tmpl.Root)
	center, _ := tmpl.SlotIndex(tmpl.Center)
	b := components.NewBody(tmpl.ID, slots, root, center)
	if s.bodyMap.Has(body) {
		// keep DNA assigned by the factory
		b.DNA = s.bodyMap.Get(body).DNA
		*s.bodyMap.Get(body) = b
	} else {
		s.bodyMap.Add(body, &b)
	}

	if _, err := s.spawnFromSlot(body, tmpl, root); err != nil {
		return fmt.Errorf("template %q root slot %q: %w", tmpl.ID, tmpl.Root, err)
	}

	visited := bitset.New(uint(len(slots)))
	visited.Set(uint(root))
	queue := []int{root}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range adj[cur] {
			if visited.Test(uint(next)) {
				continue
			}
			visited.Set(uint(next))

			bd := s.bodyMap.Get(body)
			bd.Slots[next].Parent = cur
			parent := s.partMap.Get(bd.Slots[cur].Part)
			parent.ChildSlots = append(parent.ChildSlots, bd.Slots[next].ID)

			if tmpl.Slots[next].Part == "" {
				continue
			}
			if _, err := s.spawnFromSlot(body, tmpl, next); err != nil {
				slog.Error("failed to spawn body part",
					"body", body.ID(),
					"template", tmpl.ID,
					"slot", tmpl.Slots[next].ID,
					"error", err,
				)
				continue
			}
			queue = append(queue, next)
		}
	}

	s.updateMovement(body)
	return nil
}

// spawnFromSlot spawns the slot's part, places it, and inserts its organs.
func (s *BodySystem) spawnFromSlot(body ecs.Entity, tmpl *prototype.BodyTemplate, idx int) (ecs.Entity, error) {
	def := tmpl.Slots[idx]
	part, err := s.SpawnPart(def.Part)
	if err != nil {
		return ecs.Entity{}, err
	}
	p := s.partMap.Get(part)
	if p.Type != def.Type {
		s.world.RemoveEntity(part)
		return ecs.Entity{}, fmt.Errorf("slot %q part %q: %w", def.ID, def.Part, ErrPartTypeMismatch)
	}
	s.place(body, idx, part)

	for _, organSlot := range def.OrganSlotIDs() {
		organ, err := s.SpawnOrgan(def.Organs[organSlot])
		if err != nil {
			slog.Error("failed to spawn organ",
				"body", body.ID(),
				"template", tmpl.ID,
				"slot", def.ID,
				"organ_slot", organSlot,
				"error", err,
			)
			continue
		}
		if err := s.AttachOrgan(part, organSlot, organ); err != nil {
			slog.Error("failed to insert organ", "body", body.ID(), "slot", def.ID, "organ_slot", organSlot, "error", err)
			s.world.RemoveEntity(organ)
		}
	}
	return part, nil
}

// place writes both sides of the slot/part reference.
func (s *BodySystem) place(body ecs.Entity, idx int, part ecs.Entity) {
	b := s.bodyMap.Get(body)
	b.Slots[idx].Part = part
	if idx == b.RootSlot {
		b.Root = part
	}

	p := s.partMap.Get(part)
	p.Body = body
	p.Slot = idx
	p.ChildSlots = p.ChildSlots[:0]
	for i := range b.Slots {
		if b.Slots[i].Parent == idx {
			p.ChildSlots = append(p.ChildSlots, b.Slots[i].ID)
		}
	}
	for _, slot := range p.Organs {
		if !slot.Organ.IsZero() && s.organMap.Has(slot.Organ) {
			s.organMap.Get(slot.Organ).Body = body
		}
	}
	if s.posMap.Has(part) {
		s.posMap.Remove(part)
	}

	s.router.Emit(events.PartAttached, &events.PartPayload{Body: body, Part: part, Slot: b.Slots[idx].ID})
}

// AttachPart inserts a part into a body slot. The part must match the slot's
// type and the slot must touch the part of the graph connected to the center
// slot. A part already in the slot is detached first, along with everything
// that hangs off it; a part attached elsewhere is detached from there first.
// Nothing is changed when the attach is rejected.
func (s *BodySystem) AttachPart(body ecs.Entity, slotID string, part ecs.Entity) error {
	if !s.bodyMap.Has(body) {
		return fmt.Errorf("entity %d: %w", body.ID(), ErrNoBody)
	}
	if !s.partMap.Has(part) {
		return fmt.Errorf("entity %d: %w", part.ID(), ErrNoPart)
	}
	b := s.bodyMap.Get(body)
	if b.Gibbed {
		return fmt.Errorf("entity %d: %w", body.ID(), ErrGibbed)
	}
	idx, ok := b.SlotIndex(slotID)
	if !ok {
		return fmt.Errorf("slot %q: %w", slotID, ErrSlotNotFound)
	}
	p := s.partMap.Get(part)
	if p.Type != b.Slots[idx].Type {
		return fmt.Errorf("slot %q accepts %q, part is %q: %w", slotID, b.Slots[idx].Type, p.Type, ErrPartTypeMismatch)
	}
	if p.Body == body && p.Slot == idx {
		return nil
	}

	skip := []int{idx}
	if p.Body == body && p.Slot != components.NoSlot {
		skip = append(skip, p.Slot)
	}
	if idx != b.Center {
		reach := s.reachable(b, skip...)
		connected := false
		for _, n := range b.Slots[idx].Adjacent {
			if reach.Test(uint(n)) {
				connected = true
				break
			}
		}
		if !connected {
			return fmt.Errorf("slot %q: %w", slotID, ErrSlotUnreachable)
		}
	}

	if p.Attached() {
		if _, err := s.DetachPart(part); err != nil {
			return err
		}
	}
	if occupant := s.bodyMap.Get(body).Slots[idx].Part; !occupant.IsZero() {
		if _, err := s.DetachPart(occupant); err != nil {
			return err
		}
	}

	s.place(body, idx, part)
	s.updateMovement(body)
	return nil
}

// DetachPart removes a part from its body. Every other part that can no
// longer reach the center slot through the remaining connections is detached
// in the same cascade. Returns all detached parts, the requested part first.
func (s *BodySystem) DetachPart(part ecs.Entity) ([]ecs.Entity, error) {
	if !s.partMap.Has(part) {
		return nil, fmt.Errorf("entity %d: %w", part.ID(), ErrNoPart)
	}
	p := s.partMap.Get(part)
	if !p.Attached() {
		return nil, fmt.Errorf("part %d: %w", part.ID(), ErrNotAttached)
	}
	body := p.Body
	if !s.bodyMap.Has(body) {
		// dangling back-reference; repair the part side only
		s.clearPart(part)
		return nil, fmt.Errorf("entity %d: %w", body.ID(), ErrNoBody)
	}

	detached := []ecs.Entity{part}
	slotIDs := []string{s.bodyMap.Get(body).Slots[p.Slot].ID}
	s.unplace(body, part)

	b := s.bodyMap.Get(body)
	reach := s.reachable(b)
	for i := range b.Slots {
		if b.Slots[i].Occupied() && !reach.Test(uint(i)) {
			child := b.Slots[i].Part
			slotIDs = append(slotIDs, b.Slots[i].ID)
			detached = append(detached, child)
			s.unplace(body, child)
		}
	}

	for i, e := range detached {
		s.router.Emit(events.PartDetached, &events.PartPayload{Body: body, Part: e, Slot: slotIDs[i], Cascade: i > 0})
	}
	s.router.Emit(events.BodyStructureChanged, &events.StructurePayload{Body: body, Detached: detached})

	s.applyLossConsequences(body, detached)
	return detached, nil
}

// DropPart detaches a part and leaves it, and anything cascaded with it, at pos.
func (s *BodySystem) DropPart(part ecs.Entity, pos components.Position) ([]ecs.Entity, error) {
	detached, err := s.DetachPart(part)
	if err != nil {
		return nil, err
	}
	for _, e := range detached {
		s.setPosition(e, pos)
	}
	return detached, nil
}

// unplace clears both sides of the slot/part reference without raising events.
func (s *BodySystem) unplace(body ecs.Entity, part ecs.Entity) {
	b := s.bodyMap.Get(body)
	p := s.partMap.Get(part)
	if p.Slot >= 0 && p.Slot < len(b.Slots) && b.Slots[p.Slot].Part == part {
		b.Slots[p.Slot].Part = ecs.Entity{}
		if p.Slot == b.RootSlot {
			b.Root = ecs.Entity{}
		}
	}
	s.clearPart(part)
}

func (s *BodySystem) clearPart(part ecs.Entity) {
	p := s.partMap.Get(part)
	p.Body = ecs.Entity{}
	p.Slot = components.NoSlot
	for _, slot := range p.Organs {
		if !slot.Organ.IsZero() && s.organMap.Has(slot.Organ) {
			s.organMap.Get(slot.Organ).Body = ecs.Entity{}
		}
	}
}

// applyLossConsequences evaluates a whole cascade at once so that losing
// several legs in one detachment downs the body a single time.
func (s *BodySystem) applyLossConsequences(body ecs.Entity, detached []ecs.Entity) {
	lostTypes := make(map[string]bool)
	vitalTypes := make(map[string]bool)
	for _, e := range detached {
		p := s.partMap.Get(e)
		lostTypes[p.Type] = true
		if p.Vital {
			vitalTypes[p.Type] = true
		}
	}

	remaining := s.countByType(body)

	if lostTypes[s.cfg.LegType] && remaining[s.cfg.LegType] == 0 && s.moveMap.Has(body) {
		mv := s.moveMap.Get(body)
		if !mv.Downed {
			mv.Downed = true
			s.router.Emit(events.BodyDowned, &events.BodyPayload{Body: body})
		}
	}
	s.updateMovement(body)

	for _, typ := range sortedKeys(vitalTypes) {
		if remaining[typ] > 0 {
			continue
		}
		slog.Info("vital part lost", "body", body.ID(), "type", typ)
		s.router.Emit(events.VitalPartLost, &events.VitalPayload{Body: body, PartType: typ})
		if s.damage != nil && s.cfg.VitalLossDamage > 0 {
			s.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{s.cfg.VitalLossDamageType: s.cfg.VitalLossDamage})
		}
	}
}

func (s *BodySystem) countByType(body ecs.Entity) map[string]int {
	counts := make(map[string]int)
	for _, e := range s.BodyParts(body) {
		counts[s.partMap.Get(e).Type]++
	}
	return counts
}

// updateMovement scales speeds by the fraction of the template's legs left.
func (s *BodySystem) updateMovement(body ecs.Entity) {
	if !s.moveMap.Has(body) || !s.bodyMap.Has(body) {
		return
	}
	b := s.bodyMap.Get(body)
	total, present := 0, 0
	for i := range b.Slots {
		if b.Slots[i].Type != s.cfg.LegType {
			continue
		}
		total++
		if b.Slots[i].Occupied() {
			present++
		}
	}
	mv := s.moveMap.Get(body)
	frac := 1.0
	if total > 0 {
		frac = float64(present) / float64(total)
	}
	mv.WalkSpeed = s.cfg.BaseWalkSpeed * frac
	mv.SprintSpeed = s.cfg.BaseSprintSpeed * frac
	if present > 0 {
		mv.Downed = false
	}
}

// AttachOrgan inserts an organ into a part's organ slot, creating the slot if
// the part does not expose it yet. An organ attached elsewhere is detached
// from there first.
func (s *BodySystem) AttachOrgan(part ecs.Entity, slotID string, organ ecs.Entity) error {
	if !s.partMap.Has(part) {
		return fmt.Errorf("entity %d: %w", part.ID(), ErrNoPart)
	}
	if !s.organMap.Has(organ) {
		return fmt.Errorf("entity %d: %w", organ.ID(), ErrNoOrgan)
	}
	p := s.partMap.Get(part)
	idx := p.OrganSlot(slotID)
	if idx >= 0 && !p.Organs[idx].Organ.IsZero() {
		if p.Organs[idx].Organ == organ {
			return nil
		}
		return fmt.Errorf("part %d slot %q: %w", part.ID(), slotID, ErrOrganSlotOccupied)
	}

	if o := s.organMap.Get(organ); !o.Part.IsZero() {
		if err := s.DetachOrgan(organ, nil); err != nil {
			return err
		}
	}

	p = s.partMap.Get(part)
	if idx < 0 {
		p.Organs = append(p.Organs, components.OrganSlot{ID: slotID})
		idx = len(p.Organs) - 1
	}
	p.Organs[idx].Organ = organ

	o := s.organMap.Get(organ)
	o.Part = part
	o.Body = p.Body
	o.Slot = slotID
	if s.posMap.Has(organ) {
		s.posMap.Remove(organ)
	}

	s.router.Emit(events.OrganAttached, &events.OrganPayload{Body: p.Body, Part: part, Organ: organ, Slot: slotID})
	return nil
}

// DetachOrgan removes an organ from its part. When dropAt is set the organ is
// placed in the world there.
func (s *BodySystem) DetachOrgan(organ ecs.Entity, dropAt *components.Position) error {
	if !s.organMap.Has(organ) {
		return fmt.Errorf("entity %d: %w", organ.ID(), ErrNoOrgan)
	}
	o := s.organMap.Get(organ)
	if o.Part.IsZero() {
		return fmt.Errorf("organ %d: %w", organ.ID(), ErrNotAttached)
	}
	part, body, slot := o.Part, o.Body, o.Slot
	o.Part = ecs.Entity{}
	o.Body = ecs.Entity{}

	if s.partMap.Has(part) {
		p := s.partMap.Get(part)
		if i := p.OrganSlot(slot); i >= 0 && p.Organs[i].Organ == organ {
			p.Organs[i].Organ = ecs.Entity{}
		}
	}
	if dropAt != nil {
		s.setPosition(organ, *dropAt)
	}

	s.router.Emit(events.OrganDetached, &events.OrganPayload{Body: body, Part: part, Organ: organ, Slot: slot})
	return nil
}

// Gib flattens the whole graph: every part, every organ and every worn item
// leaves the body and is placed at the body's position. Returns all detached
// entities. Gibbing an already gibbed body returns nil.
func (s *BodySystem) Gib(body ecs.Entity) []ecs.Entity {
	if !s.bodyMap.Has(body) {
		return nil
	}
	b := s.bodyMap.Get(body)
	if b.Gibbed {
		return nil
	}
	b.Gibbed = true

	var pos components.Position
	if s.posMap.Has(body) {
		pos = *s.posMap.Get(body)
	}

	parts := s.BodyParts(body)
	var detached []ecs.Entity
	for _, part := range parts {
		slotID := ""
		if p := s.partMap.Get(part); p.Slot >= 0 {
			slotID = s.bodyMap.Get(body).Slots[p.Slot].ID
		}
		s.unplace(body, part)
		s.router.Emit(events.PartDetached, &events.PartPayload{Body: body, Part: part, Slot: slotID})
		detached = append(detached, part)
	}
	for _, part := range parts {
		for _, organ := range s.PartOrgans(part) {
			drop := pos
			if err := s.DetachOrgan(organ, &drop); err == nil {
				detached = append(detached, organ)
			}
		}
		s.setPosition(part, pos)
	}
	if s.equipment != nil {
		detached = append(detached, s.equipment.UnequipAll(body)...)
	}
	if s.moveMap.Has(body) {
		mv := s.moveMap.Get(body)
		mv.Downed = true
		mv.WalkSpeed, mv.SprintSpeed = 0, 0
	}

	slog.Info("body gibbed", "body", body.ID(), "detached", len(detached))
	s.router.Emit(events.Gibbed, &events.GibPayload{Body: body, Detached: detached})
	if k, ok := s.damage.(Killer); ok {
		k.Kill(body)
	}
	return detached
}

// IsGibbed reports whether a body has been gibbed.
func (s *BodySystem) IsGibbed(body ecs.Entity) bool {
	return s.bodyMap.Has(body) && s.bodyMap.Get(body).Gibbed
}

func (s *BodySystem) setPosition(e ecs.Entity, pos components.Position) {
	if s.posMap.Has(e) {
		*s.posMap.Get(e) = pos
		return
	}
	s.posMap.Add(e, &pos)
}

// reachable returns the occupied slots connected to the center slot. Slots
// listed in skip are treated as empty.
func (s *BodySystem) reachable(b *components.Body, skip ...int) *bitset.BitSet {
	visited := bitset.New(uint(len(b.Slots)))
	empty := func(i int) bool {
		if !b.Slots[i].Occupied() {
			return true
		}
		for _, k := range skip {
			if k == i {
				return true
			}
		}
		return false
	}
	if b.Center < 0 || b.Center >= len(b.Slots) || empty(b.Center) {
		return visited
	}

	visited.Set(uint(b.Center))
	queue := []int{b.Center}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range b.Slots[cur].Adjacent {
			if visited.Test(uint(n)) || empty(n) {
				continue
			}
			visited.Set(uint(n))
			queue = append(queue, n)
		}
	}
	return visited
}

// IsReachable reports whether an attached part is connected to its body's
// center slot.
func (s *BodySystem) IsReachable(part ecs.Entity) bool {
	if !s.partMap.Has(part) {
		return false
	}
	p := s.partMap.Get(part)
	if !p.Attached() || !s.bodyMap.Has(p.Body) {
		return false
	}
	return s.reachable(s.bodyMap.Get(p.Body)).Test(uint(p.Slot))
}

// BodyParts returns the attached parts of a body in slot order.
func (s *BodySystem) BodyParts(body ecs.Entity) []ecs.Entity {
	if !s.bodyMap.Has(body) {
		return nil
	}
	b := s.bodyMap.Get(body)
	var out []ecs.Entity
	for i := range b.Slots {
		if b.Slots[i].Occupied() {
			out = append(out, b.Slots[i].Part)
		}
	}
	return out
}

// PartsOfType returns the attached parts of one type.
func (s *BodySystem) PartsOfType(body ecs.Entity, typ string) []ecs.Entity {
	var out []ecs.Entity
	for _, e := range s.BodyParts(body) {
		if s.partMap.Get(e).Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// PartOrgans returns the organs held by a part.
func (s *BodySystem) PartOrgans(part ecs.Entity) []ecs.Entity {
	if !s.partMap.Has(part) {
		return nil
	}
	var out []ecs.Entity
	for _, slot := range s.partMap.Get(part).Organs {
		if !slot.Organ.IsZero() {
			out = append(out, slot.Organ)
		}
	}
	return out
}

// BodyOrgans returns every organ inside a body.
func (s *BodySystem) BodyOrgans(body ecs.Entity) []ecs.Entity {
	var out []ecs.Entity
	for _, part := range s.BodyParts(body) {
		out = append(out, s.PartOrgans(part)...)
	}
	return out
}

// OrgansOfKind returns the organs of one kind inside a body.
func (s *BodySystem) OrgansOfKind(body ecs.Entity, kind string) []ecs.Entity {
	var out []ecs.Entity
	for _, organ := range s.BodyOrgans(body) {
		if s.organMap.Get(organ).Kind == kind {
			out = append(out, organ)
		}
	}
	return out
}

// RootPart returns the part in the root slot.
func (s *BodySystem) RootPart(body ecs.Entity) (ecs.Entity, bool) {
	if !s.bodyMap.Has(body) {
		return ecs.Entity{}, false
	}
	root := s.bodyMap.Get(body).Root
	return root, !root.IsZero()
}

// CenterPart returns the part in the center slot.
func (s *BodySystem) CenterPart(body ecs.Entity) (ecs.Entity, bool) {
	if !s.bodyMap.Has(body) {
		return ecs.Entity{}, false
	}
	b := s.bodyMap.Get(body)
	part := b.Slots[b.Center].Part
	return part, !part.IsZero()
}

// AdjacentParts returns the parts in slots connected to the part's slot.
func (s *BodySystem) AdjacentParts(part ecs.Entity) []ecs.Entity {
	if !s.partMap.Has(part) {
		return nil
	}
	p := s.partMap.Get(part)
	if !p.Attached() || !s.bodyMap.Has(p.Body) {
		return nil
	}
	b := s.bodyMap.Get(p.Body)
	var out []ecs.Entity
	for _, n := range b.Slots[p.Slot].Adjacent {
		if b.Slots[n].Occupied() {
			out = append(out, b.Slots[n].Part)
		}
	}
	return out
}

// SlotOf returns the slot id a part occupies.
func (s *BodySystem) SlotOf(part ecs.Entity) (string, bool) {
	if !s.partMap.Has(part) {
		return "", false
	}
	p := s.partMap.Get(part)
	if !p.Attached() || !s.bodyMap.Has(p.Body) {
		return "", false
	}
	return s.bodyMap.Get(p.Body).Slots[p.Slot].ID, true
}

// BodyOf returns the body a part or organ belongs to.
func (s *BodySystem) BodyOf(e ecs.Entity) (ecs.Entity, bool) {
	switch {
	case s.partMap.Has(e):
		b := s.partMap.Get(e).Body
		return b, !b.IsZero()
	case s.organMap.Has(e):
		b := s.organMap.Get(e).Body
		return b, !b.IsZero()
	}
	return ecs.Entity{}, false
}

// FindPart returns the part occupying a slot.
func (s *BodySystem) FindPart(body ecs.Entity, slotID string) (ecs.Entity, bool) {
	if !s.bodyMap.Has(body) {
		return ecs.Entity{}, false
	}
	b := s.bodyMap.Get(body)
	idx, ok := b.SlotIndex(slotID)
	if !ok || !b.Slots[idx].Occupied() {
		return ecs.Entity{}, false
	}
	return b.Slots[idx].Part, true
}
