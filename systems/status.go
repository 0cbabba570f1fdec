package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
)

// StatusSystem manages status effects keyed by opaque ids.
type StatusSystem struct {
	clock     Clock
	statusMap *ecs.Map[components.StatusEffects]
	filter    ecs.Filter1[components.StatusEffects]
}

// NewStatusSystem creates a status system.
func NewStatusSystem(w *ecs.World, clock Clock) *StatusSystem {
	return &StatusSystem{
		clock:     clock,
		statusMap: ecs.NewMap[components.StatusEffects](w),
		filter:    *ecs.NewFilter1[components.StatusEffects](w),
	}
}

// SetStatus sets a status that lasts until cleared.
func (s *StatusSystem) SetStatus(e ecs.Entity, id string) bool {
	return s.set(e, id, 0)
}

// SetStatusFor sets a status that expires after duration seconds.
func (s *StatusSystem) SetStatusFor(e ecs.Entity, id string, duration float64) bool {
	return s.set(e, id, s.clock.Now()+duration)
}

func (s *StatusSystem) set(e ecs.Entity, id string, until float64) bool {
	if !s.statusMap.Has(e) {
		return false
	}
	st := s.statusMap.Get(e)
	if st.Active == nil {
		st.Active = make(map[string]float64)
	}
	st.Active[id] = until
	return true
}

// ClearStatus removes a status. Returns false if it was not set.
func (s *StatusSystem) ClearStatus(e ecs.Entity, id string) bool {
	if !s.statusMap.Has(e) {
		return false
	}
	st := s.statusMap.Get(e)
	if _, ok := st.Active[id]; !ok {
		return false
	}
	delete(st.Active, id)
	return true
}

// HasStatus reports whether a status is active.
func (s *StatusSystem) HasStatus(e ecs.Entity, id string) bool {
	if !s.statusMap.Has(e) {
		return false
	}
	_, ok := s.statusMap.Get(e).Active[id]
	return ok
}

// Statuses returns the active status ids, sorted.
func (s *StatusSystem) Statuses(e ecs.Entity) []string {
	if !s.statusMap.Has(e) {
		return nil
	}
	return sortedKeys(s.statusMap.Get(e).Active)
}

// Update expires timed statuses.
func (s *StatusSystem) Update() {
	now := s.clock.Now()
	query := s.filter.Query()
	for query.Next() {
		st := query.Get()
		for id, until := range st.Active {
			if until > 0 && until <= now {
				delete(st.Active, id)
			}
		}
	}
}
