package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/events"
	"github.com/pthm-cable/anatomy/solution"
)

// PuddleSystem turns spilled solutions into puddle entities. Spills landing
// on a tile that already has a puddle are merged into it.
type PuddleSystem struct {
	world  *ecs.World
	router *events.Router

	puddleMapper *ecs.Map2[components.Puddle, components.Position]
	puddleMap    *ecs.Map[components.Puddle]
	posMap       *ecs.Map[components.Position]
	bodyMap      *ecs.Map[components.Body]
	filter       ecs.Filter1[components.Puddle]

	byTile map[[2]int]ecs.Entity
}

// NewPuddleSystem creates a puddle system.
func NewPuddleSystem(w *ecs.World, router *events.Router) *PuddleSystem {
	return &PuddleSystem{
		world:        w,
		router:       router,
		puddleMapper: ecs.NewMap2[components.Puddle, components.Position](w),
		puddleMap:    ecs.NewMap[components.Puddle](w),
		posMap:       ecs.NewMap[components.Position](w),
		bodyMap:      ecs.NewMap[components.Body](w),
		filter:       *ecs.NewFilter1[components.Puddle](w),
		byTile:       make(map[[2]int]ecs.Entity),
	}
}

// SpillAt moves all of sol into a puddle at the source's position. sol is
// emptied. Returns the puddle entity.
func (s *PuddleSystem) SpillAt(source ecs.Entity, sol *solution.Solution) (ecs.Entity, bool) {
	if sol == nil || sol.Empty() {
		return ecs.Entity{}, false
	}
	var pos components.Position
	if s.posMap.Has(source) {
		pos = *s.posMap.Get(source)
	}
	dna := ""
	if s.bodyMap.Has(source) {
		dna = s.bodyMap.Get(source).DNA
	}
	volume := sol.Volume()

	key := [2]int{int(math.Floor(pos.X)), int(math.Floor(pos.Y))}
	puddle, ok := s.byTile[key]
	if ok && s.world.Alive(puddle) && s.puddleMap.Has(puddle) {
		p := s.puddleMap.Get(puddle)
		p.Solution.SetMaxVolume(p.Solution.Volume() + volume)
		p.Solution.AddSolution(sol)
		if p.DNA == "" {
			p.DNA = dna
		}
	} else {
		contents := solution.New(volume)
		contents.CanReact = true
		contents.AddSolution(sol)
		puddle = s.puddleMapper.NewEntity(
			&components.Puddle{Solution: contents, Source: source, DNA: dna},
			&pos,
		)
		s.byTile[key] = puddle
	}
	sol.RemoveAll()

	s.router.Emit(events.PuddleSpilled, &events.PuddlePayload{Source: source, Puddle: puddle, Volume: volume})
	return puddle, true
}

// Stats returns the number of puddles and their combined volume.
func (s *PuddleSystem) Stats() (count int, volume float64) {
	query := s.filter.Query()
	for query.Next() {
		p := query.Get()
		count++
		volume += p.Solution.Volume()
	}
	return count, volume
}
