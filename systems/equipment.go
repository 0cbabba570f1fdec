package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/events"
)

// EquipmentSystem puts items into and takes them out of equipment slots and
// announces each change.
type EquipmentSystem struct {
	router *events.Router

	equipMap *ecs.Map[components.Equipment]
	itemMap  *ecs.Map[components.Equippable]
	posMap   *ecs.Map[components.Position]
}

// NewEquipmentSystem creates an equipment system.
func NewEquipmentSystem(w *ecs.World, router *events.Router) *EquipmentSystem {
	return &EquipmentSystem{
		router:   router,
		equipMap: ecs.NewMap[components.Equipment](w),
		itemMap:  ecs.NewMap[components.Equippable](w),
		posMap:   ecs.NewMap[components.Position](w),
	}
}

// Equip puts item into the wearer's slot.
func (s *EquipmentSystem) Equip(wearer, item ecs.Entity, slot string) error {
	if !s.equipMap.Has(wearer) {
		return fmt.Errorf("entity %d has no equipment: %w", wearer.ID(), ErrNoBody)
	}
	if !s.itemMap.Has(item) {
		return fmt.Errorf("entity %d: %w", item.ID(), ErrNotEquippable)
	}
	eq := s.equipMap.Get(wearer)
	if eq.Slots == nil {
		eq.Slots = make(map[string]ecs.Entity)
	}
	if cur, ok := eq.Slots[slot]; ok && !cur.IsZero() {
		return fmt.Errorf("slot %q: %w", slot, ErrSlotOccupied)
	}
	it := s.itemMap.Get(item)
	if !it.Wearer.IsZero() {
		if _, err := s.Unequip(it.Wearer, it.Slot); err != nil {
			return err
		}
		eq = s.equipMap.Get(wearer)
		it = s.itemMap.Get(item)
	}
	eq.Slots[slot] = item
	it.Wearer = wearer
	it.Slot = slot
	if s.posMap.Has(item) {
		s.posMap.Remove(item)
	}

	s.router.Emit(events.Equipped, &events.EquipPayload{Wearer: wearer, Item: item, Slot: slot})
	return nil
}

// Unequip takes the item out of a slot and leaves it at the wearer's position.
func (s *EquipmentSystem) Unequip(wearer ecs.Entity, slot string) (ecs.Entity, error) {
	if !s.equipMap.Has(wearer) {
		return ecs.Entity{}, fmt.Errorf("entity %d has no equipment: %w", wearer.ID(), ErrNoBody)
	}
	eq := s.equipMap.Get(wearer)
	item, ok := eq.Slots[slot]
	if !ok || item.IsZero() {
		return ecs.Entity{}, fmt.Errorf("slot %q: %w", slot, ErrNotAttached)
	}
	delete(eq.Slots, slot)
	if s.itemMap.Has(item) {
		it := s.itemMap.Get(item)
		it.Wearer = ecs.Entity{}
		it.Slot = ""
	}
	if s.posMap.Has(wearer) {
		pos := *s.posMap.Get(wearer)
		if s.posMap.Has(item) {
			*s.posMap.Get(item) = pos
		} else {
			s.posMap.Add(item, &pos)
		}
	}

	s.router.Emit(events.Unequipped, &events.EquipPayload{Wearer: wearer, Item: item, Slot: slot})
	return item, nil
}

// UnequipAll strips every worn item, in slot order.
func (s *EquipmentSystem) UnequipAll(wearer ecs.Entity) []ecs.Entity {
	if !s.equipMap.Has(wearer) {
		return nil
	}
	var out []ecs.Entity
	for _, slot := range sortedKeys(s.equipMap.Get(wearer).Slots) {
		if item, err := s.Unequip(wearer, slot); err == nil {
			out = append(out, item)
		}
	}
	return out
}

// ItemIn returns the item worn in a slot.
func (s *EquipmentSystem) ItemIn(wearer ecs.Entity, slot string) (ecs.Entity, bool) {
	if !s.equipMap.Has(wearer) {
		return ecs.Entity{}, false
	}
	item, ok := s.equipMap.Get(wearer).Slots[slot]
	return item, ok && !item.IsZero()
}

// Items returns every worn item in slot order.
func (s *EquipmentSystem) Items(wearer ecs.Entity) []ecs.Entity {
	if !s.equipMap.Has(wearer) {
		return nil
	}
	eq := s.equipMap.Get(wearer)
	var out []ecs.Entity
	for _, slot := range sortedKeys(eq.Slots) {
		out = append(out, eq.Slots[slot])
	}
	return out
}

// Insulated reports whether any worn item blocks sweating.
func (s *EquipmentSystem) Insulated(wearer ecs.Entity) bool {
	for _, item := range s.Items(wearer) {
		if s.itemMap.Has(item) && s.itemMap.Get(item).InsulatesSweat {
			return true
		}
	}
	return false
}
