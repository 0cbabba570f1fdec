package systems

import (
	"errors"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/prototype"
)

// ---------- Instantiate ----------

func TestInstantiate_HumanTemplate(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")

	assert.Len(t, r.body.BodyParts(body), 10)
	assert.Len(t, r.body.BodyOrgans(body), 6)

	torso, ok := r.body.RootPart(body)
	require.True(t, ok)
	center, _ := r.body.CenterPart(body)
	assert.Equal(t, torso, center)

	p := ecs.NewMap[components.Part](r.world).Get(torso)
	assert.ElementsMatch(t, []string{"head", "left_arm", "right_arm", "left_leg", "right_leg"}, p.ChildSlots)

	for _, part := range r.body.BodyParts(body) {
		assert.True(t, r.body.IsReachable(part))
	}
	for _, organ := range r.body.BodyOrgans(body) {
		owner, ok := r.body.BodyOf(organ)
		require.True(t, ok)
		assert.Equal(t, body, owner, "organ and part back-references agree")
	}

	mv := ecs.NewMap[components.Movement](r.world).Get(body)
	assert.Equal(t, r.cfg.Body.BaseWalkSpeed, mv.WalkSpeed)
	assert.False(t, mv.Downed)
}

func TestInstantiate_OrganInitsRun(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")

	lungs := r.body.OrgansOfKind(body, components.OrganLungs)
	require.Len(t, lungs, 1)
	assert.True(t, ecs.NewMap[components.Lung](r.world).Has(lungs[0]))

	stomachs := r.body.OrgansOfKind(body, components.OrganStomach)
	require.Len(t, stomachs, 1)
	st, ok := r.digestion.Stomach(stomachs[0])
	require.True(t, ok)
	assert.Equal(t, 100.0, st.Solution.MaxVolume())
}

func TestInstantiate_BadSlotIsSkipped(t *testing.T) {
	reg, err := prototype.Load([]byte(`
parts:
  - {id: Torso, type: torso}
  - {id: Arm, type: arm}
  - {id: Hand, type: hand}
templates:
  - id: broken
    root: torso
    slots:
      - {id: torso, part: Torso, connections: [arm, ghost_arm]}
      - {id: arm, part: Arm, connections: [hand]}
      - {id: hand, part: Hand}
      - {id: ghost_arm, part: NoSuchArm, type: arm, connections: [ghost_hand]}
      - {id: ghost_hand, part: Hand}
`))
	require.NoError(t, err)

	w := ecs.NewWorld()
	cfg, _ := config.Load("")
	bs := NewBodySystem(w, reg, cfg.Body, events.NewRouter(), nil)
	body := w.NewEntity()

	require.NoError(t, bs.Instantiate(body, "broken"))
	assert.Len(t, bs.BodyParts(body), 3)
	_, ok := bs.FindPart(body, "ghost_arm")
	assert.False(t, ok)
	_, ok = bs.FindPart(body, "ghost_hand")
	assert.False(t, ok, "slots behind a failed slot are not reached")

	err = bs.Instantiate(body, "broken")
	assert.True(t, errors.Is(err, ErrAlreadyInstantiated))
}

func TestInstantiate_UnknownTemplate(t *testing.T) {
	r := newRig(t, false)
	err := r.body.Instantiate(r.world.NewEntity(), "nope")
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
}

// ---------- Detach / cascade ----------

func TestDetachPart_CascadesUnreachable(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	got := r.record(events.PartDetached, events.BodyStructureChanged)

	arm, _ := r.body.FindPart(body, "left_arm")
	hand, _ := r.body.FindPart(body, "left_hand")

	detached, err := r.body.DetachPart(arm)
	require.NoError(t, err)
	assert.Equal(t, []ecs.Entity{arm, hand}, detached)

	require.Len(t, got[events.PartDetached], 2)
	assert.False(t, got[events.PartDetached][0].(*events.PartPayload).Cascade)
	assert.True(t, got[events.PartDetached][1].(*events.PartPayload).Cascade)
	assert.Len(t, got[events.BodyStructureChanged], 1)

	_, attached := r.body.BodyOf(hand)
	assert.False(t, attached)
	assert.Len(t, r.body.BodyParts(body), 8)
}

func TestDetachPart_RemainingPartsReachable(t *testing.T) {
	for _, slot := range []string{"head", "left_arm", "right_leg", "left_foot", "right_hand"} {
		t.Run(slot, func(t *testing.T) {
			r := newRig(t, false)
			body := r.spawn("human")
			before := r.body.BodyParts(body)

			part, ok := r.body.FindPart(body, slot)
			require.True(t, ok)
			detached, err := r.body.DetachPart(part)
			require.NoError(t, err)

			remaining := r.body.BodyParts(body)
			assert.Equal(t, len(before), len(remaining)+len(detached))
			for _, p := range remaining {
				assert.True(t, r.body.IsReachable(p))
			}
			for _, p := range detached {
				_, attached := r.body.BodyOf(p)
				assert.False(t, attached)
			}
		})
	}
}

// loopYAML declares a body where the leg hangs off both the torso and the
// pelvis, so it stays reachable when either of them goes.
const loopYAML = `
parts:
  - {id: Torso, type: torso, vital: true}
  - {id: Pelvis, type: pelvis}
  - {id: Leg, type: leg}
  - {id: Foot, type: foot}
templates:
  - id: loop
    root: torso
    slots:
      - {id: torso, part: Torso, connections: [pelvis, leg]}
      - {id: pelvis, part: Pelvis, connections: [leg]}
      - {id: leg, part: Leg, connections: [foot]}
      - {id: foot, part: Foot}
`

func newLoopBody(t *testing.T) (*BodySystem, ecs.Entity) {
	t.Helper()
	reg, err := prototype.Load([]byte(loopYAML))
	require.NoError(t, err)
	cfg, err := config.Load("")
	require.NoError(t, err)

	w := ecs.NewWorld()
	s := NewBodySystem(w, reg, cfg.Body, events.NewRouter(), nil)
	body := ecs.NewMap[components.Position](w).NewEntity(&components.Position{})
	require.NoError(t, s.Instantiate(body, "loop"))
	require.Len(t, s.BodyParts(body), 4)
	return s, body
}

func TestDetachPart_CrossLinkedSlotStays(t *testing.T) {
	s, body := newLoopBody(t)
	pelvis, _ := s.FindPart(body, "pelvis")
	leg, _ := s.FindPart(body, "leg")

	detached, err := s.DetachPart(pelvis)
	require.NoError(t, err)
	assert.Equal(t, []ecs.Entity{pelvis}, detached)
	assert.Len(t, s.BodyParts(body), 3)
	assert.True(t, s.IsReachable(leg))
}

func TestDetachPart_CrossLinkedCascade(t *testing.T) {
	s, body := newLoopBody(t)
	leg, _ := s.FindPart(body, "leg")
	foot, _ := s.FindPart(body, "foot")
	pelvis, _ := s.FindPart(body, "pelvis")

	detached, err := s.DetachPart(leg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ecs.Entity{leg, foot}, detached)
	assert.Len(t, s.BodyParts(body), 2)
	assert.True(t, s.IsReachable(pelvis))
}

func TestDetachPart_NotAttached(t *testing.T) {
	r := newRig(t, false)
	part, err := r.body.SpawnPart("LeftArmHuman")
	require.NoError(t, err)
	_, err = r.body.DetachPart(part)
	assert.True(t, errors.Is(err, ErrNotAttached))
}

func TestDetachLegs_DownedOnce(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	got := r.record(events.BodyDowned)

	left, _ := r.body.FindPart(body, "left_leg")
	right, _ := r.body.FindPart(body, "right_leg")

	_, err := r.body.DetachPart(left)
	require.NoError(t, err)
	assert.Empty(t, got[events.BodyDowned])
	mv := ecs.NewMap[components.Movement](r.world).Get(body)
	assert.InDelta(t, r.cfg.Body.BaseWalkSpeed/2, mv.WalkSpeed, 1e-9)

	_, err = r.body.DetachPart(right)
	require.NoError(t, err)
	assert.Len(t, got[events.BodyDowned], 1)

	// Losing more parts afterwards does not down the body again
	arm, _ := r.body.FindPart(body, "left_arm")
	_, err = r.body.DetachPart(arm)
	require.NoError(t, err)
	assert.Len(t, got[events.BodyDowned], 1)
	assert.True(t, ecs.NewMap[components.Movement](r.world).Get(body).Downed)
}

func TestDetachHead_VitalLossKills(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	got := r.record(events.VitalPartLost)

	head, _ := r.body.FindPart(body, "head")
	_, err := r.body.DetachPart(head)
	require.NoError(t, err)

	require.Len(t, got[events.VitalPartLost], 1)
	assert.Equal(t, "head", got[events.VitalPartLost][0].(*events.VitalPayload).PartType)
	assert.True(t, r.damage.IsDead(body))
}

// ---------- Attach ----------

func TestAttachPart_TypeMismatchRejected(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	arm, _ := r.body.FindPart(body, "left_arm")
	leg, err := r.body.SpawnPart("LeftLegHuman")
	require.NoError(t, err)

	err = r.body.AttachPart(body, "left_arm", leg)
	assert.True(t, errors.Is(err, ErrPartTypeMismatch))
	cur, _ := r.body.FindPart(body, "left_arm")
	assert.Equal(t, arm, cur, "rejected attach leaves the slot untouched")
}

func TestAttachPart_ReplacesOccupant(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	old, _ := r.body.FindPart(body, "left_arm")
	oldHand, _ := r.body.FindPart(body, "left_hand")
	fresh, err := r.body.SpawnPart("LeftArmHuman")
	require.NoError(t, err)

	require.NoError(t, r.body.AttachPart(body, "left_arm", fresh))
	cur, _ := r.body.FindPart(body, "left_arm")
	assert.Equal(t, fresh, cur)
	_, attached := r.body.BodyOf(old)
	assert.False(t, attached)
	_, attached = r.body.BodyOf(oldHand)
	assert.False(t, attached, "hand hung off the replaced arm")

	require.NoError(t, r.body.AttachPart(body, "left_hand", oldHand))
	assert.True(t, r.body.IsReachable(oldHand))
}

func TestAttachPart_UnreachableSlotRejected(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	arm, _ := r.body.FindPart(body, "left_arm")
	hand, _ := r.body.FindPart(body, "left_hand")
	_, err := r.body.DetachPart(arm)
	require.NoError(t, err)

	err = r.body.AttachPart(body, "left_hand", hand)
	assert.True(t, errors.Is(err, ErrSlotUnreachable))
}

func TestAttachPart_Gibbed(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	arm, _ := r.body.FindPart(body, "left_arm")
	r.body.Gib(body)

	err := r.body.AttachPart(body, "left_arm", arm)
	assert.True(t, errors.Is(err, ErrGibbed))
}

// ---------- Organs ----------

func TestAttachOrgan_MovesBetweenParts(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	got := r.record(events.OrganDetached, events.OrganAttached)

	heart := r.body.OrgansOfKind(body, "heart")[0]
	head, _ := r.body.FindPart(body, "head")
	torso, _ := r.body.RootPart(body)

	require.NoError(t, r.body.AttachOrgan(head, "spare", heart))
	assert.Len(t, got[events.OrganDetached], 1)
	assert.Len(t, got[events.OrganAttached], 1)
	assert.Contains(t, r.body.PartOrgans(head), heart)
	assert.NotContains(t, r.body.PartOrgans(torso), heart)

	brain := r.body.OrgansOfKind(body, components.OrganBrain)[0]
	err := r.body.AttachOrgan(head, "brain", heart)
	assert.True(t, errors.Is(err, ErrOrganSlotOccupied))
	assert.Contains(t, r.body.PartOrgans(head), brain)
}

func TestDetachOrgan_DropsAtPosition(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	eyes := r.body.OrgansOfKind(body, "eyes")[0]

	require.NoError(t, r.body.DetachOrgan(eyes, &components.Position{X: 3, Y: 4}))
	pos := ecs.NewMap[components.Position](r.world)
	require.True(t, pos.Has(eyes))
	assert.Equal(t, 3.0, pos.Get(eyes).X)
	_, attached := r.body.BodyOf(eyes)
	assert.False(t, attached)

	err := r.body.DetachOrgan(eyes, nil)
	assert.True(t, errors.Is(err, ErrNotAttached))
}

// ---------- Gib ----------

func TestGib_Idempotent(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")
	tank := ecs.NewMap[components.Equippable](r.world).NewEntity(&components.Equippable{})
	require.NoError(t, r.equipment.Equip(body, tank, "back"))
	got := r.record(events.Gibbed)

	detached := r.body.Gib(body)
	assert.Len(t, detached, 10+6+1)
	assert.Contains(t, detached, tank)
	assert.Empty(t, r.body.BodyParts(body))
	require.Len(t, got[events.Gibbed], 1)

	pos := ecs.NewMap[components.Position](r.world)
	for _, e := range detached {
		assert.True(t, pos.Has(e), "gibbed entities are placed in the world")
	}

	assert.Nil(t, r.body.Gib(body))
	assert.Len(t, got[events.Gibbed], 1)
}

func TestGib_SpillsBlood(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")

	r.body.Gib(body)
	blood, _, ok := r.blood.Solutions(body)
	require.True(t, ok)
	assert.True(t, blood.Empty())
	count, volume := r.puddles.Stats()
	assert.Equal(t, 1, count)
	assert.InDelta(t, r.cfg.Bloodstream.BloodReferenceVolume, volume, 1e-6)
}

func TestGib_BodyStopsUpdating(t *testing.T) {
	r := newRig(t, false)
	body := r.spawn("human")

	r.body.Gib(body)
	assert.True(t, r.body.IsGibbed(body))
	assert.True(t, r.damage.IsDead(body))
	assert.False(t, r.blood.UpdateBody(body))

	blood, _, _ := r.blood.Solutions(body)
	assert.True(t, blood.Empty(), "no regulation after a gib")

	r.damage.ChangeDamage(body, ecs.Entity{}, map[string]float64{"Blunt": -1000})
	assert.True(t, r.damage.IsDead(body))
}
