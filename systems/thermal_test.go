package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/anatomy/components"
)

func (r *testRig) setTemperature(e ecs.Entity, k float64) {
	ecs.NewMap[components.Temperature](r.world).Get(e).Current = k
}

func (r *testRig) temperature(e ecs.Entity) float64 {
	return ecs.NewMap[components.Temperature](r.world).Get(e).Current
}

func TestThermal_StableAtNormal(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	for i := 0; i < 100; i++ {
		r.thermal.Update()
	}
	assert.InDelta(t, r.cfg.Thermal.NormalTemperature, r.temperature(body), 1e-9)
}

func TestThermal_ImplicitDoesNotOvershoot(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	normal := r.cfg.Thermal.NormalTemperature
	r.setTemperature(body, normal+0.001)

	r.thermal.Update()
	assert.InDelta(t, normal, r.temperature(body), 1e-9)
}

func TestThermal_SweatsWhenHot(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	normal := r.cfg.Thermal.NormalTemperature
	r.setTemperature(body, normal+10)

	r.thermal.Update()
	dt, c := r.cfg.Simulation.DT, r.cfg.Thermal.HeatCapacity
	want := normal + 10 - (r.cfg.Thermal.ImplicitRate*dt+r.cfg.Thermal.SweatRate*dt)/c
	assert.InDelta(t, want, r.temperature(body), 1e-9)
	assert.True(t, ecs.NewMap[components.Thermoregulator](r.world).Get(body).Sweating)
}

func TestThermal_InsulatedCannotSweat(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	suit := ecs.NewMap[components.Equippable](r.world).NewEntity(&components.Equippable{InsulatesSweat: true})
	require.NoError(t, r.equipment.Equip(body, suit, "outerclothing"))
	normal := r.cfg.Thermal.NormalTemperature
	r.setTemperature(body, normal+10)

	r.thermal.Update()
	want := normal + 10 - r.cfg.Thermal.ImplicitRate*r.cfg.Simulation.DT/r.cfg.Thermal.HeatCapacity
	assert.InDelta(t, want, r.temperature(body), 1e-9, "only the implicit correction applies")
	assert.False(t, ecs.NewMap[components.Thermoregulator](r.world).Get(body).Sweating)
}

func TestThermal_ShiversWhenCold(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	normal := r.cfg.Thermal.NormalTemperature
	r.setTemperature(body, normal-10)

	r.thermal.Update()
	dt, c := r.cfg.Simulation.DT, r.cfg.Thermal.HeatCapacity
	want := normal - 10 + (r.cfg.Thermal.ImplicitRate*dt+r.cfg.Thermal.ShiverRate*dt)/c
	assert.InDelta(t, want, r.temperature(body), 1e-9)
	assert.True(t, ecs.NewMap[components.Thermoregulator](r.world).Get(body).Shivering)
}

func TestThermal_DeadDoNotShiver(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	r.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{"Cellular": 250})
	normal := r.cfg.Thermal.NormalTemperature
	r.setTemperature(body, normal-10)

	r.thermal.Update()
	want := normal - 10 + r.cfg.Thermal.ImplicitRate*r.cfg.Simulation.DT/r.cfg.Thermal.HeatCapacity
	assert.InDelta(t, want, r.temperature(body), 1e-9)
}

func TestThermal_NoBacklogAfterCapabilityReturns(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	suit := ecs.NewMap[components.Equippable](r.world).NewEntity(&components.Equippable{InsulatesSweat: true})
	require.NoError(t, r.equipment.Equip(body, suit, "outerclothing"))
	normal := r.cfg.Thermal.NormalTemperature
	r.setTemperature(body, normal+10)
	for i := 0; i < 10; i++ {
		r.thermal.Update()
	}
	_, err := r.equipment.Unequip(body, "outerclothing")
	require.NoError(t, err)
	before := r.temperature(body)

	r.thermal.Update()
	dt, c := r.cfg.Simulation.DT, r.cfg.Thermal.HeatCapacity
	assert.InDelta(t, before-(r.cfg.Thermal.ImplicitRate*dt+r.cfg.Thermal.SweatRate*dt)/c, r.temperature(body), 1e-9)
}
