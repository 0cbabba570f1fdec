package systems

import (
	"errors"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/solution"
)

// ---------- Level regulation ----------

func TestUpdateBody_RegulatesTowardReference(t *testing.T) {
	r := newRig(t, false, func(c *config.Config) {
		c.Bloodstream.BloodReferenceVolume = 500
		c.Bloodstream.BloodMaxVolume = 600
		c.Bloodstream.BloodRefreshAmount = 50
	})
	body := r.spawn("human")
	require.True(t, r.blood.SetBloodQuantity(body, 400))

	require.True(t, r.blood.UpdateBody(body))
	assert.InDelta(t, 450, r.bloodstream(body).Blood.Quantity("Blood"), 1e-9)

	require.True(t, r.blood.UpdateBody(body))
	require.True(t, r.blood.UpdateBody(body))
	assert.InDelta(t, 500, r.bloodstream(body).Blood.Quantity("Blood"), 1e-9, "never overshoots")
}

func TestUpdateBody_RegulatesDownFromExcess(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	require.True(t, r.blood.SetBloodQuantity(body, 350))

	r.blood.UpdateBody(body)
	assert.InDelta(t, 349, r.bloodstream(body).Blood.Quantity("Blood"), 1e-9)
}

func TestUpdateBody_DeadBodyNotRegulated(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	r.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{"Cellular": 250})
	require.True(t, r.damage.IsDead(body))
	r.blood.SetBloodQuantity(body, 150)

	r.blood.UpdateBody(body)
	assert.InDelta(t, 150, r.bloodstream(body).Blood.Quantity("Blood"), 1e-9)
	assert.False(t, r.status.HasStatus(body, "bloodloss"))
}

func TestUpdateBody_NoBloodstream(t *testing.T) {
	r := newRig(t, false)
	assert.False(t, r.blood.UpdateBody(r.world.NewEntity()))
}

// ---------- Bleeding ----------

func TestUpdateBody_BleedDrainsIntoPuddle(t *testing.T) {
	r := newRig(t, false, func(c *config.Config) {
		c.Bloodstream.BleedReductionAmount = 0
		c.Bloodstream.BleedPuddleThreshold = 31
	})
	body := r.spawn("human")
	got := r.record(events.PuddleSpilled)
	r.blood.TryModifyBleedAmount(body, 3)

	r.blood.UpdateBody(body)
	bs := r.bloodstream(body)
	assert.InDelta(t, 3, bs.Spilled.Volume(), 1e-9)
	assert.InDelta(t, 297, bs.Blood.Quantity("Blood"), 1e-9)

	for i := 0; i < 9; i++ {
		r.blood.UpdateBody(body)
	}
	assert.InDelta(t, 30, r.bloodstream(body).Spilled.Volume(), 1e-6)
	assert.Empty(t, got[events.PuddleSpilled], "threshold must be exceeded, not reached")

	r.blood.UpdateBody(body)
	assert.InDelta(t, 0, r.bloodstream(body).Spilled.Volume(), 1e-9)
	require.Len(t, got[events.PuddleSpilled], 1)
	assert.InDelta(t, 33, got[events.PuddleSpilled][0].(*events.PuddlePayload).Volume, 1e-6)
	count, volume := r.puddles.Stats()
	assert.Equal(t, 1, count)
	assert.InDelta(t, 33, volume, 1e-6)
}

func TestUpdateBody_BleedReducesEachUpdate(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	r.blood.TryModifyBleedAmount(body, 1)

	r.blood.UpdateBody(body)
	bleed, _ := r.blood.BleedAmount(body)
	assert.InDelta(t, 1-r.cfg.Bloodstream.BleedReductionAmount, bleed, 1e-9)

	for i := 0; i < 5; i++ {
		r.blood.UpdateBody(body)
	}
	bleed, _ = r.blood.BleedAmount(body)
	assert.Equal(t, 0.0, bleed, "floors at zero")
}

func TestUpdateBody_BleedModifyLowersDrain(t *testing.T) {
	r := newRig(t, false, func(c *config.Config) {
		c.Bloodstream.BleedPuddleThreshold = 100
	})
	body := r.spawn("human")
	r.router.Subscribe(events.BleedModify, func(ev events.Event) {
		ev.Payload.(*events.BleedModifyPayload).Amount /= 2
	})
	r.blood.TryModifyBleedAmount(body, 4)

	r.blood.UpdateBody(body)
	assert.InDelta(t, 2, r.bloodstream(body).Spilled.Volume(), 1e-9)
}

func TestUpdateBody_BleedModifyChangesReduction(t *testing.T) {
	r := newRig(t, false, func(c *config.Config) {
		c.Bloodstream.BleedPuddleThreshold = 100
	})
	body := r.spawn("human")
	var seen float64
	r.router.Subscribe(events.BleedModify, func(ev events.Event) {
		p := ev.Payload.(*events.BleedModifyPayload)
		seen = p.Reduction
		p.Reduction = 2
	})
	r.blood.TryModifyBleedAmount(body, 5)

	r.blood.UpdateBody(body)
	assert.Equal(t, r.cfg.Bloodstream.BleedReductionAmount, seen)
	bleed, _ := r.blood.BleedAmount(body)
	assert.InDelta(t, 3, bleed, 1e-9)
}

func TestTryModifyBleedAmount_Clamped(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")

	r.blood.TryModifyBleedAmount(body, 100)
	bleed, _ := r.blood.BleedAmount(body)
	assert.Equal(t, r.cfg.Bloodstream.MaxBleedAmount, bleed)

	r.blood.TryModifyBleedAmount(body, -50)
	bleed, _ = r.blood.BleedAmount(body)
	assert.Equal(t, 0.0, bleed)

	assert.False(t, r.blood.TryModifyBleedAmount(r.world.NewEntity(), 1))
}

func TestBloodVolumeStaysInBounds(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	r.blood.TryModifyBleedAmount(body, 10)

	for i := 0; i < 200; i++ {
		r.clock.advance(r.cfg.Simulation.DT)
		r.blood.UpdateBody(body)
		bs := r.bloodstream(body)
		require.GreaterOrEqual(t, bs.Blood.Volume(), 0.0)
		require.LessOrEqual(t, bs.Blood.Volume(), bs.Blood.MaxVolume())
		require.GreaterOrEqual(t, bs.BleedAmount, 0.0)
		require.LessOrEqual(t, bs.BleedAmount, r.cfg.Bloodstream.MaxBleedAmount)
	}
}

// ---------- Bloodloss ----------

func TestUpdateBody_BloodlossDamageAndStatus(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	r.blood.SetBloodQuantity(body, 150)

	r.blood.UpdateBody(body)
	level := 151.0 / 300.0
	assert.InDelta(t, 0.5/(0.1+level), r.damage.Total(body), 1e-9)
	assert.True(t, r.status.HasStatus(body, "bloodloss"))

	r.blood.SetBloodQuantity(body, 300)
	r.blood.UpdateBody(body)
	assert.False(t, r.status.HasStatus(body, "bloodloss"))
	assert.Equal(t, 0.0, r.damage.Total(body), "heal scaled by level clears it")
}

// ---------- Damage to bleed ----------

func TestDamage_AddsBleed(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")

	r.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{"Slash": 20})
	bleed, _ := r.blood.BleedAmount(body)
	assert.InDelta(t, 2.0, bleed, 1e-9)

	// Healing never adds bleed
	r.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{"Slash": -20})
	bleed, _ = r.blood.BleedAmount(body)
	assert.InDelta(t, 2.0, bleed, 1e-9)
}

func TestDamage_CritBleedSpills(t *testing.T) {
	r := newRig(t, true)
	body := r.spawn("human")
	got := r.record(events.CritBleed)

	r.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{"Slash": 20})
	require.Len(t, got[events.CritBleed], 1)
	p := got[events.CritBleed][0].(*events.CritBleedPayload)
	assert.InDelta(t, 0.4, p.Amount, 1e-9)
	assert.InDelta(t, 0.4, r.bloodstream(body).Spilled.Volume(), 1e-9)
}

func TestDamage_CritBleedIsReproducible(t *testing.T) {
	run := func() []float64 {
		r := newRig(t, false)
		// default deterministic roller
		r.blood = NewBloodstreamSystem(r.world, r.cfg.Bloodstream, r.reg, BloodstreamDeps{
			Clock: r.clock, Router: events.NewRouter(), Mobs: r.damage, Damage: r.damage, Status: r.status, Spill: r.puddles,
		})
		body := r.spawn("human")
		var lost []float64
		for i := 0; i < 20; i++ {
			r.clock.advance(0.1)
			r.blood.HandleEvent(events.Event{Type: events.DamageChanged, Payload: &events.DamagePayload{
				Target: body, Delta: map[string]float64{"Slash": 100},
			}})
			lost = append(lost, r.bloodstream(body).Blood.Volume())
		}
		return lost
	}
	assert.Equal(t, run(), run())
}

func TestDamage_HeatCauterizes(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	got := r.record(events.WoundsCauterized)
	r.blood.TryModifyBleedAmount(body, 2)

	r.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{"Heat": 10})
	assert.Len(t, got[events.WoundsCauterized], 1)
	bleed, _ := r.blood.BleedAmount(body)
	assert.Equal(t, 0.0, bleed)

	// Nothing left to cauterize
	r.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{"Heat": 10})
	assert.Len(t, got[events.WoundsCauterized], 1)
}

// ---------- Scheduling ----------

func TestUpdate_RunsOnInterval(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	r.blood.SetBloodQuantity(body, 250)

	r.clock.now = 2.9
	r.blood.Update()
	assert.InDelta(t, 250, r.bloodstream(body).Blood.Quantity("Blood"), 1e-9)

	r.clock.now = 3.0
	r.blood.Update()
	assert.InDelta(t, 251, r.bloodstream(body).Blood.Quantity("Blood"), 1e-9)
	assert.InDelta(t, 6.0, r.bloodstream(body).NextUpdate, 1e-9)
}

func TestMetabolicMultiplier_StretchesInterval(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")

	r.router.Emit(events.MetabolicMultiplier, &events.MetabolicPayload{Body: body, Multiplier: 2, Apply: true})
	bs := r.bloodstream(body)
	assert.Equal(t, 2.0, bs.IntervalMultiplier)
	assert.InDelta(t, 6.0, bs.NextUpdate, 1e-9)

	r.router.Emit(events.MetabolicMultiplier, &events.MetabolicPayload{Body: body, Multiplier: 2, Apply: false})
	assert.Equal(t, 1.0, r.bloodstream(body).IntervalMultiplier)
}

// ---------- Transfer operations ----------

func TestTransfuse(t *testing.T) {
	r := newRig(t, false)
	donor := r.spawn("human")
	recipient := r.spawn("human")
	r.blood.SetBloodQuantity(recipient, 200)

	moved, err := r.blood.Transfuse(donor, recipient, 50)
	require.NoError(t, err)
	assert.InDelta(t, 50, moved, 1e-9)
	assert.InDelta(t, 250, r.bloodstream(donor).Blood.Quantity("Blood"), 1e-9)
	assert.InDelta(t, 250, r.bloodstream(recipient).Blood.Quantity("Blood"), 1e-9)

	require.True(t, r.blood.ChangeBloodReagent(recipient, "Slime"))
	_, err = r.blood.Transfuse(donor, recipient, 50)
	assert.True(t, errors.Is(err, ErrIncompatibleBlood))

	_, err = r.blood.Transfuse(r.world.NewEntity(), recipient, 1)
	assert.True(t, errors.Is(err, ErrNoSolution))
}

func TestFlushChemicals_KeepsBlood(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	r.blood.AbsorbReagent(body, "Toxin", 10)
	r.blood.AbsorbReagent(body, "Medicine", 10)

	r.blood.FlushChemicals(body, "Medicine", 4)
	blood := r.bloodstream(body).Blood
	assert.InDelta(t, 6, blood.Quantity("Toxin"), 1e-9)
	assert.InDelta(t, 10, blood.Quantity("Medicine"), 1e-9)
	assert.InDelta(t, 300, blood.Quantity("Blood"), 1e-9)
}

func TestTryAddToBloodstream_AllOrNothing(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")

	big := solution.NewWith(200, solution.Reagent{ID: "Saline", Quantity: 200})
	assert.False(t, r.blood.TryAddToBloodstream(body, big))
	assert.Equal(t, 0.0, r.bloodstream(body).Blood.Quantity("Saline"))

	small := solution.NewWith(50, solution.Reagent{ID: "Saline", Quantity: 50})
	assert.True(t, r.blood.TryAddToBloodstream(body, small))
}

func TestRejuvenate(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	r.blood.SetBloodQuantity(body, 100)
	r.blood.TryModifyBleedAmount(body, 5)
	r.status.SetStatus(body, "bloodloss")

	r.blood.Rejuvenate(body)
	level, ok := r.blood.BloodLevel(body)
	require.True(t, ok)
	assert.InDelta(t, 1.0, level, 1e-9)
	bleed, _ := r.blood.BleedAmount(body)
	assert.Equal(t, 0.0, bleed)
	assert.False(t, r.status.HasStatus(body, "bloodloss"))
}

func TestExamine(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	assert.Empty(t, r.blood.Examine(body))

	r.blood.TryModifyBleedAmount(body, 10)
	r.blood.SetBloodQuantity(body, 100)
	assert.Equal(t, []string{"bleeding profusely", "looks pale"}, r.blood.Examine(body))
}
