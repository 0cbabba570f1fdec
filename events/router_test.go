package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	types []Type
	got   []Type
}

func (r *recorder) HandleEvent(ev Event) { r.got = append(r.got, ev.Type) }
func (r *recorder) EventTypes() []Type   { return r.types }

func TestRouter_RegistrationOrder(t *testing.T) {
	r := NewRouter()
	var order []string
	r.Subscribe(BodyDowned, func(Event) { order = append(order, "first") })
	r.Subscribe(BodyDowned, func(Event) { order = append(order, "second") })

	r.Emit(BodyDowned, &BodyPayload{})
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, uint64(1), r.Count(BodyDowned))
}

func TestRouter_OnlyDeclaredTypes(t *testing.T) {
	r := NewRouter()
	rec := &recorder{types: []Type{Equipped, Unequipped}}
	r.Register(rec)

	r.Emit(Equipped, &EquipPayload{})
	r.Emit(Gibbed, &GibPayload{})
	r.Emit(Unequipped, &EquipPayload{})
	assert.Equal(t, []Type{Equipped, Unequipped}, rec.got)
	assert.Equal(t, 2, r.HandlerCount(Equipped)+r.HandlerCount(Unequipped))
}

func TestRouter_NestedEmitIsSynchronous(t *testing.T) {
	r := NewRouter()
	var seen []Type
	r.Subscribe(PartDetached, func(Event) {
		seen = append(seen, PartDetached)
		r.Emit(BodyDowned, &BodyPayload{})
		seen = append(seen, PartDetached)
	})
	r.Subscribe(BodyDowned, func(Event) { seen = append(seen, BodyDowned) })

	r.Emit(PartDetached, &PartPayload{})
	assert.Equal(t, []Type{PartDetached, BodyDowned, PartDetached}, seen)
}

func TestRouter_MutablePayload(t *testing.T) {
	r := NewRouter()
	r.Subscribe(BleedModify, func(ev Event) {
		ev.Payload.(*BleedModifyPayload).Amount *= 0.5
	})
	p := &BleedModifyPayload{Amount: 4}
	r.Emit(BleedModify, p)
	assert.Equal(t, 2.0, p.Amount)
}

func TestType_ClosedSet(t *testing.T) {
	assert.False(t, Type(-1).Valid())
	assert.False(t, typeCount.Valid())
	assert.Equal(t, "unknown", typeCount.String())
	for _, ty := range AllTypes() {
		assert.NotEmpty(t, ty.String(), "type %d has no name", ty)
	}

	var nilRouter *Router
	assert.NotPanics(t, func() { nilRouter.Emit(Gibbed, nil) })
}

func TestDamagePayload_Totals(t *testing.T) {
	p := &DamagePayload{Delta: map[string]float64{"Slash": 5, "Heat": -3}}
	assert.Equal(t, 5.0, p.PositiveTotal())
	assert.Equal(t, 2.0, p.DeltaTotal())
}
