package prototype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault_HumanTemplate(t *testing.T) {
	r, err := LoadDefault()
	require.NoError(t, err)

	tmpl, ok := r.Template("human")
	require.True(t, ok)
	assert.Equal(t, "torso", tmpl.Root)
	assert.Equal(t, "torso", tmpl.Center)

	head, ok := tmpl.Slot("head")
	require.True(t, ok)
	assert.Equal(t, "head", head.Type, "slot type defaults to the part prototype type")
	assert.Equal(t, []string{"brain", "eyes"}, head.OrganSlotIDs())

	assert.Empty(t, r.Validate())
}

func TestAdjacency_IsUndirected(t *testing.T) {
	r := MustLoadDefault()
	tmpl, _ := r.Template("human")
	adj := tmpl.Adjacency()

	torso, _ := tmpl.SlotIndex("torso")
	head, _ := tmpl.SlotIndex("head")
	assert.Contains(t, adj[torso], head)
	assert.Contains(t, adj[head], torso)
}

func TestLoad_RejectsDuplicateSlot(t *testing.T) {
	_, err := Load([]byte(`
templates:
  - id: broken
    root: a
    slots:
      - {id: a}
      - {id: a}
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
}

func TestLoad_RejectsMissingRoot(t *testing.T) {
	_, err := Load([]byte(`
templates:
  - id: broken
    root: nowhere
    slots:
      - {id: a}
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownID))
}

func TestValidate_ReportsProblems(t *testing.T) {
	r, err := Load([]byte(`
parts:
  - {id: Torso, type: torso}
templates:
  - id: odd
    root: torso
    slots:
      - id: torso
        part: Torso
        connections: [ghost]
        organs: {heart: NoSuchHeart}
      - {id: island, part: NoSuchArm, type: arm}
`))
	require.NoError(t, err)

	problems := r.Validate()
	var msgs []string
	for _, p := range problems {
		msgs = append(msgs, p.String())
	}
	assert.Contains(t, msgs, `odd/torso: connection to unknown slot "ghost"`)
	assert.Contains(t, msgs, `odd/torso: organ slot "heart": unknown organ prototype "NoSuchHeart"`)
	assert.Contains(t, msgs, `odd/island: unknown part prototype "NoSuchArm"`)
	assert.Contains(t, msgs, `odd/island: slot is not reachable from root "torso"`)
}

func TestModifierSet_Apply(t *testing.T) {
	r := MustLoadDefault()
	m, ok := r.ModifierSet("BloodlossHuman")
	require.True(t, ok)

	out := m.Apply(map[string]float64{"Slash": 20, "Blunt": 1, "Heat": 10, "Holy": 3, "Bloodloss": 4, "Piercing": -5})
	assert.InDelta(t, 2.0, out["Slash"], 1e-9)
	_, blunt := out["Blunt"]
	assert.False(t, blunt, "flat reduction clamps to zero")
	assert.InDelta(t, -5.0, out["Heat"], 1e-9, "negative coefficient reduces bleeding")
	assert.InDelta(t, 3.0, out["Holy"], 1e-9, "unlisted types pass through")
	_, bloodloss := out["Bloodloss"]
	assert.False(t, bloodloss, "zero coefficient drops the type")
	_, pierce := out["Piercing"]
	assert.False(t, pierce, "decreases are ignored")
}

func TestGasReagent(t *testing.T) {
	r := MustLoadDefault()
	reagent, ok := r.GasReagent("WaterVapor")
	assert.True(t, ok)
	assert.Equal(t, "Water", reagent)

	_, ok = r.GasReagent("Argon")
	assert.False(t, ok, "gas without a reagent is not absorbed")
	assert.Equal(t, 1144.0, r.MolesToReagentMultiplier())
}

func TestReachable(t *testing.T) {
	adj := [][]int{{1}, {0, 2}, {1}, {}}
	got := Reachable(adj, 0)
	assert.True(t, got.Test(2))
	assert.False(t, got.Test(3))
	assert.Equal(t, uint(3), got.Count())
}
