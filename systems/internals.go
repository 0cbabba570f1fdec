package systems

import (
	"fmt"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/atmos"
	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
)

// InternalsSystem connects breathing apparatus to bodies. Wearing a gas tank
// in one of the allowed slots connects it; taking it off disconnects it.
type InternalsSystem struct {
	cfg       config.RespirationConfig
	router    *events.Router
	equipment *EquipmentSystem

	internalsMap *ecs.Map[components.Internals]
	tankMap      *ecs.Map[components.GasTank]
}

// NewInternalsSystem creates an internals system and registers it for
// equipment events. equipment may be nil; Toggle then only disconnects.
func NewInternalsSystem(w *ecs.World, cfg config.RespirationConfig, router *events.Router, equipment *EquipmentSystem) *InternalsSystem {
	s := &InternalsSystem{
		cfg:          cfg,
		router:       router,
		equipment:    equipment,
		internalsMap: ecs.NewMap[components.Internals](w),
		tankMap:      ecs.NewMap[components.GasTank](w),
	}
	router.Register(s)
	return s
}

// EventTypes implements events.Handler.
func (s *InternalsSystem) EventTypes() []events.Type {
	return []events.Type{events.Equipped, events.Unequipped}
}

// HandleEvent implements events.Handler.
func (s *InternalsSystem) HandleEvent(ev events.Event) {
	p, ok := ev.Payload.(*events.EquipPayload)
	if !ok || !s.allowedSlot(p.Slot) {
		return
	}
	switch ev.Type {
	case events.Equipped:
		if !s.internalsMap.Has(p.Wearer) || s.internalsMap.Get(p.Wearer).Connected() {
			return
		}
		_ = s.Connect(p.Wearer, p.Item)
	case events.Unequipped:
		if s.internalsMap.Has(p.Wearer) && s.internalsMap.Get(p.Wearer).Apparatus == p.Item {
			s.Disconnect(p.Wearer)
		}
	}
}

func (s *InternalsSystem) allowedSlot(slot string) bool {
	return slices.Contains(s.cfg.InternalsSlots, slot)
}

// Connect links a gas tank to a body, replacing any connected apparatus.
func (s *InternalsSystem) Connect(body, tank ecs.Entity) error {
	if !s.internalsMap.Has(body) {
		return fmt.Errorf("entity %d has no internals: %w", body.ID(), ErrNoBody)
	}
	if !s.tankMap.Has(tank) {
		return fmt.Errorf("entity %d: %w", tank.ID(), ErrNoApparatus)
	}
	in := s.internalsMap.Get(body)
	if in.Apparatus == tank {
		return nil
	}
	in.Apparatus = tank
	s.router.Emit(events.InternalsToggled, &events.InternalsPayload{Body: body, Apparatus: tank, Connected: true})
	return nil
}

// Disconnect unlinks the connected apparatus, if any.
func (s *InternalsSystem) Disconnect(body ecs.Entity) bool {
	if !s.internalsMap.Has(body) {
		return false
	}
	in := s.internalsMap.Get(body)
	if !in.Connected() {
		return false
	}
	tank := in.Apparatus
	in.Apparatus = ecs.Entity{}
	s.router.Emit(events.InternalsToggled, &events.InternalsPayload{Body: body, Apparatus: tank, Connected: false})
	return true
}

// Toggle disconnects a connected apparatus, or connects the first gas tank
// worn in an allowed slot.
func (s *InternalsSystem) Toggle(body ecs.Entity) error {
	if !s.internalsMap.Has(body) {
		return fmt.Errorf("entity %d has no internals: %w", body.ID(), ErrNoBody)
	}
	if s.Disconnect(body) {
		return nil
	}
	if s.equipment != nil {
		for _, slot := range s.cfg.InternalsSlots {
			if item, ok := s.equipment.ItemIn(body, slot); ok && s.tankMap.Has(item) {
				return s.Connect(body, item)
			}
		}
	}
	return fmt.Errorf("entity %d: %w", body.ID(), ErrNoApparatus)
}

// Apparatus returns the connected apparatus.
func (s *InternalsSystem) Apparatus(body ecs.Entity) (ecs.Entity, bool) {
	if !s.internalsMap.Has(body) {
		return ecs.Entity{}, false
	}
	in := s.internalsMap.Get(body)
	return in.Apparatus, in.Connected()
}

// Breath draws litres of gas from the connected tank at its output
// pressure. Returns false when nothing is connected, so the caller breathes
// the environment instead.
func (s *InternalsSystem) Breath(body ecs.Entity, litres float64) (*atmos.GasMixture, bool) {
	tank, ok := s.Apparatus(body)
	if !ok || !s.tankMap.Has(tank) {
		return nil, false
	}
	t := s.tankMap.Get(tank)
	if t.Air == nil {
		return atmos.NewMixture(litres, atmos.T20C), true
	}
	pressure := t.OutputPressure
	if pressure <= 0 {
		pressure = s.cfg.TankOutputPressure
	}
	pressure = minFloat(pressure, t.Air.Pressure())
	moles := pressure * litres / (atmos.R * t.Air.Temperature)
	out := t.Air.Remove(moles)
	out.Volume = litres
	return out, true
}
