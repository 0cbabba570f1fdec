package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/sim"
	"github.com/pthm-cable/anatomy/telemetry"
)

// Fitness term weights.
const (
	weightMinLevel = 1.0
	weightBleed    = 0.25
	weightDeath    = 1.0
)

// FitnessEvaluator runs headless wound scenarios and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	seeds      []int64
	creatures  int
	baseConfig *config.Config

	wound          map[string]float64 // Damage dealt to every creature at tick 0
	targetMinLevel float64            // Lowest blood level the wound should cause

	mu           sync.Mutex
	bestFitness  float64
	lastMinLevel float64 // mean minimum blood level from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, creatures int, baseCfg *config.Config, wound map[string]float64, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:         params,
		ticks:          ticks,
		seeds:          seeds,
		creatures:      creatures,
		baseConfig:     baseCfg,
		wound:          wound,
		targetMinLevel: target,
		bestFitness:    math.Inf(1),
	}
}

// LastMinLevel returns the mean minimum blood level from the most recent evaluation.
func (fe *FitnessEvaluator) LastMinLevel() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMinLevel
}

// runResult holds the results from a single wound scenario.
type runResult struct {
	minLevels []float64 // per creature
	endBleeds []float64 // per creature, at the last tick
	deaths    int
	maxBleed  float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup

	// Each run owns its world, so seeds run in parallel
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalMin float64
	var n int
	for _, r := range results {
		if r == nil {
			totalFitness += weightDeath
			continue
		}
		totalFitness += fe.computeFitness(r)
		for _, m := range r.minLevels {
			totalMin += m
			n++
		}
	}
	avgFitness := totalFitness / float64(len(fe.seeds))

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	if n > 0 {
		fe.lastMinLevel = totalMin / float64(n)
	}
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation wounds every creature once and runs for the configured ticks.
// Returns nil if the simulation could not be built.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{maxBleed: cfg.Bloodstream.MaxBleedAmount}
	s, err := sim.New(cfg, sim.Options{
		Seed:           seed,
		Creatures:      fe.creatures,
		StatsWindowSec: float64(fe.ticks) * cfg.Simulation.DT,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.deaths += stats.Deaths
		},
	})
	if err != nil {
		slog.Error("failed to build simulation", "seed", seed, "error", err)
		return nil
	}
	defer s.Close()

	sys := s.Systems()
	ids := s.CreatureIDs()
	bodies := make([]ecs.Entity, 0, len(ids))
	for _, id := range ids {
		e, _ := s.Creature(id)
		bodies = append(bodies, e)
		sys.Damage.ChangeDamage(e, ecs.Entity{}, fe.wound)
	}

	result.minLevels = make([]float64, len(bodies))
	for i := range result.minLevels {
		result.minLevels[i] = 1
	}
	for t := 0; t < fe.ticks; t++ {
		s.Step()
		for i, e := range bodies {
			if level, ok := sys.Bloodstream.BloodLevel(e); ok && level < result.minLevels[i] {
				result.minLevels[i] = level
			}
		}
	}

	for _, e := range bodies {
		bleed, _ := sys.Bloodstream.BleedAmount(e)
		result.endBleeds = append(result.endBleeds, bleed)
	}
	return result
}

// copyConfig creates a copy of the base config. Only scalar bloodstream
// fields are tuned, so map and slice fields may stay shared.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: mean((min_level - target)^2) + 0.25 * mean((end_bleed / max_bleed)^2) + death_fraction
// The wound should drain blood to the target, then close, without killing.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	if len(r.minLevels) == 0 {
		return weightDeath
	}

	var levelErr float64
	for _, m := range r.minLevels {
		d := m - fe.targetMinLevel
		levelErr += d * d
	}
	levelErr /= float64(len(r.minLevels))

	var bleedErr float64
	if r.maxBleed > 0 {
		for _, b := range r.endBleeds {
			f := b / r.maxBleed
			bleedErr += f * f
		}
		bleedErr /= float64(len(r.endBleeds))
	}

	deathFrac := float64(r.deaths) / float64(len(r.minLevels))

	return weightMinLevel*levelErr + weightBleed*bleedErr + weightDeath*clamp01(deathFrac)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
