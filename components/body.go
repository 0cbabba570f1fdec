package components

import "github.com/mlange-42/ark/ecs"

// NoSlot marks a part or slot reference that points nowhere.
const NoSlot = -1

// Slot is one attachment point in a body's slot arena. Adjacency is stored as
// indices into Body.Slots so the graph holds no entity cycles.
type Slot struct {
	ID       string
	Type     string     // Accepted part type
	Part     ecs.Entity // Zero when empty
	Adjacent []int      // Undirected connections
	Parent   int        // Slot whose part exposes this one; NoSlot for the root
}

// Occupied reports whether a part sits in the slot.
func (s *Slot) Occupied() bool { return !s.Part.IsZero() }

// Body is the root aggregate of one creature's part graph.
type Body struct {
	Template string     `inspect:"label"`
	Slots    []Slot     `inspect:"skip"`
	Center   int        `inspect:"skip"` // Anchor for reachability
	RootSlot int        `inspect:"skip"`
	Root     ecs.Entity `inspect:"skip"` // Part in the root slot
	Gibbed   bool       `inspect:"bool"`
	DNA      string     `inspect:"label"`

	index map[string]int
}

// NewBody builds an empty slot arena. adjacency is indexed like slots.
func NewBody(template string, slots []Slot, root, center int) Body {
	b := Body{
		Template: template,
		Slots:    slots,
		Center:   center,
		RootSlot: root,
		index:    make(map[string]int, len(slots)),
	}
	for i := range slots {
		b.index[slots[i].ID] = i
	}
	return b
}

// SlotIndex resolves a slot id.
func (b *Body) SlotIndex(id string) (int, bool) {
	if b.index == nil {
		for i := range b.Slots {
			if b.Slots[i].ID == id {
				return i, true
			}
		}
		return NoSlot, false
	}
	i, ok := b.index[id]
	if !ok {
		return NoSlot, false
	}
	return i, true
}

// Part is a physical body part.
type Part struct {
	Prototype  string      `inspect:"label"`
	Type       string      `inspect:"label"`
	Vital      bool        `inspect:"bool"`
	Symmetry   string      `inspect:"label"`
	Body       ecs.Entity  `inspect:"skip"` // Zero when free-standing
	Slot       int         `inspect:"skip"` // Index into Body.Slots; NoSlot when free-standing
	ChildSlots []string    `inspect:"skip"` // Slot ids this part exposes
	Organs     []OrganSlot `inspect:"skip"`
}

// Attached reports whether the part belongs to a body.
func (p *Part) Attached() bool { return !p.Body.IsZero() }

// OrganSlot returns the index of an organ slot on the part.
func (p *Part) OrganSlot(id string) int {
	for i := range p.Organs {
		if p.Organs[i].ID == id {
			return i
		}
	}
	return NoSlot
}

// OrganSlot is an organ attachment point on a part.
type OrganSlot struct {
	ID    string
	Organ ecs.Entity // Zero when empty
}

// Organ is a specialised payload held by exactly one part.
type Organ struct {
	Prototype string     `inspect:"label"`
	Kind      string     `inspect:"label"`
	Slot      string     `inspect:"label"`
	Part      ecs.Entity `inspect:"skip"` // Zero when free-standing
	Body      ecs.Entity `inspect:"skip"` // Mirrors Part's body
}

// Organ kinds the physiology systems look for.
const (
	OrganBrain   = "brain"
	OrganLungs   = "lungs"
	OrganStomach = "stomach"
	OrganHeart   = "heart"
)
