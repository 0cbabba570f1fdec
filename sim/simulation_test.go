package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/anatomy/atmos"
	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/telemetry"
)

func newSim(t *testing.T, opts Options, tweak ...func(*config.Config)) *Simulation {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	for _, fn := range tweak {
		fn(cfg)
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	s, err := New(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_SpawnsPopulationOnGrid(t *testing.T) {
	s := newSim(t, Options{Creatures: 4})

	ids := s.CreatureIDs()
	require.Equal(t, []uint32{1, 2, 3, 4}, ids)

	pos := ecs.NewMap[components.Position](s.World())
	bodies := ecs.NewMap[components.Body](s.World())
	tiles := map[[2]int]bool{}
	dna := map[string]bool{}
	for _, id := range ids {
		e, ok := s.Creature(id)
		require.True(t, ok)
		got, ok := s.CreatureID(e)
		require.True(t, ok)
		assert.Equal(t, id, got)
		p := pos.Get(e)
		tiles[[2]int{int(p.X), int(p.Y)}] = true

		b := bodies.Get(e)
		assert.Equal(t, "human", b.Template)
		assert.NotEmpty(t, b.DNA)
		dna[b.DNA] = true
		assert.NotNil(t, s.Lifetime(e))
	}
	assert.Len(t, tiles, 4, "creatures share a tile")
	assert.Len(t, dna, 4, "DNA repeated")
}

func TestNew_UnknownTemplate(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Population.Template = "nope"

	_, err = New(cfg, Options{Creatures: 1})
	assert.Error(t, err)
}

func TestRun_HealthyCreaturesSurvive(t *testing.T) {
	var windows []telemetry.WindowStats
	s := newSim(t, Options{
		Creatures:     2,
		StatsCallback: func(w telemetry.WindowStats) { windows = append(windows, w) },
	})

	s.Run(300)

	assert.Equal(t, uint64(300), s.Tick())
	assert.InDelta(t, 30.0, s.Now(), 1e-6)
	require.Len(t, windows, 3)
	last := windows[len(windows)-1]
	assert.Equal(t, 2, last.Alive)
	assert.Zero(t, last.Dead)
	assert.Zero(t, last.Suffocations)

	for _, id := range s.CreatureIDs() {
		e, _ := s.Creature(id)
		assert.True(t, s.Systems().Damage.IsAlive(e))
		level, ok := s.Systems().Bloodstream.BloodLevel(e)
		require.True(t, ok)
		assert.InDelta(t, 1.0, level, 0.05)
	}
}

func TestRun_SameSeedReplays(t *testing.T) {
	run := func() (string, float64) {
		s := newSim(t, Options{Seed: 7, Creatures: 1})
		e, _ := s.Creature(1)
		// Slash damage rolls for crit bleeds
		for i := 0; i < 5; i++ {
			s.Systems().Damage.ChangeDamage(e, ecs.Entity{}, map[string]float64{"Slash": 8})
			s.Run(20)
		}
		blood, _, ok := s.Systems().Bloodstream.Solutions(e)
		require.True(t, ok)
		return ecs.NewMap[components.Body](s.World()).Get(e).DNA, blood.Volume()
	}

	dnaA, volA := run()
	dnaB, volB := run()
	assert.Equal(t, dnaA, dnaB)
	assert.Equal(t, volA, volB)
}

func TestVacuum_Asphyxiates(t *testing.T) {
	dir := t.TempDir()
	s := newSim(t, Options{Creatures: 1, Environment: atmos.Vacuum{}, OutputDir: dir}, func(c *config.Config) {
		c.Respiration.SuffocationDamage = 20
	})
	e, _ := s.Creature(1)

	for i := 0; i < 1000 && !s.Systems().Damage.IsDead(e); i++ {
		s.Step()
	}
	require.True(t, s.Systems().Damage.IsDead(e))
	assert.Nil(t, s.Lifetime(e), "lifetime record should close on death")

	require.NoError(t, s.Close())
	data, err := os.ReadFile(filepath.Join(dir, "lifetimes.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "asphyxiation")
}

func TestDetachHead_ClassifiedAsVitalLoss(t *testing.T) {
	dir := t.TempDir()
	s := newSim(t, Options{Creatures: 1, OutputDir: dir})
	e, _ := s.Creature(1)

	head, ok := s.Systems().Body.FindPart(e, "head")
	require.True(t, ok)
	_, err := s.Systems().Body.DetachPart(head)
	require.NoError(t, err)
	require.True(t, s.Systems().Damage.IsDead(e))

	require.NoError(t, s.Close())
	data, err := os.ReadFile(filepath.Join(dir, "lifetimes.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "vital_loss")
}

func TestGib_ClosesLifetimeOnce(t *testing.T) {
	dir := t.TempDir()
	s := newSim(t, Options{Creatures: 2, OutputDir: dir})
	e, _ := s.Creature(1)

	s.Systems().Body.Gib(e)
	s.Systems().Body.Gib(e)
	assert.Nil(t, s.Lifetime(e))
	s.Run(100)

	require.NoError(t, s.Close())
	data, err := os.ReadFile(filepath.Join(dir, "lifetimes.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "header, gibbed creature, survivor")
	assert.Equal(t, 1, strings.Count(string(data), ",gibbed,"))
	assert.Contains(t, string(data), ",alive,")

	_, err = os.Stat(filepath.Join(dir, "physiology.csv"))
	assert.NoError(t, err)
}

func TestGib_StopsPhysiology(t *testing.T) {
	s := newSim(t, Options{Creatures: 1})
	e, _ := s.Creature(1)
	sys := s.Systems()

	sys.Body.Gib(e)
	require.True(t, sys.Damage.IsDead(e))
	level, _ := sys.Bloodstream.BloodLevel(e)
	damage := sys.Damage.Total(e)
	temp := ecs.NewMap[components.Temperature](s.World()).Get(e).Current

	s.Run(600)

	after, _ := sys.Bloodstream.BloodLevel(e)
	assert.Equal(t, level, after, "blood does not regrow")
	assert.Equal(t, damage, sys.Damage.Total(e))
	assert.Equal(t, temp, ecs.NewMap[components.Temperature](s.World()).Get(e).Current)
	assert.True(t, sys.Damage.IsDead(e))
	assert.False(t, sys.Status.HasStatus(e, s.Config().Bloodstream.BloodlossStatus))
	assert.Zero(t, ecs.NewMap[components.Respirator](s.World()).Get(e).Suffocating)

	sys.Damage.Rejuvenate(e)
	assert.True(t, sys.Damage.IsDead(e), "a gibbed body cannot be revived")
}
