package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/anatomy/config"
)

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	require.Len(t, def, pv.Dim())

	norm := pv.Normalize(def)
	for i, v := range norm {
		assert.GreaterOrEqual(t, v, 0.0, pv.Specs[i].Name)
		assert.LessOrEqual(t, v, 1.0, pv.Specs[i].Name)
	}
	assert.InDeltaSlice(t, def, pv.Denormalize(norm), 1e-9)
}

func TestParamVector_Clamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i := range v {
		v[i] = 1e6
	}
	for i, c := range pv.Clamp(v) {
		assert.Equal(t, pv.Specs[i].Max, c)
	}
}

func TestParamVector_DefaultsMatchConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	assert.InDeltaSlice(t, pv.DefaultVector(), pv.ExtractFromConfig(cfg), 1e-9)
}

func TestParamVector_ApplyToConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	want := []float64{0.5, 2, 40, 8, 1.5}
	pv.ApplyToConfig(cfg, want)
	assert.Equal(t, want, pv.ExtractFromConfig(cfg))
}

func TestComputeFitness(t *testing.T) {
	fe := &FitnessEvaluator{targetMinLevel: 0.8}

	perfect := &runResult{minLevels: []float64{0.8, 0.8}, endBleeds: []float64{0, 0}, maxBleed: 10}
	assert.InDelta(t, 0, fe.computeFitness(perfect), 1e-12)

	shallow := &runResult{minLevels: []float64{0.95, 0.95}, endBleeds: []float64{0, 0}, maxBleed: 10}
	stillBleeding := &runResult{minLevels: []float64{0.8, 0.8}, endBleeds: []float64{5, 5}, maxBleed: 10}
	dead := &runResult{minLevels: []float64{0.8, 0.8}, endBleeds: []float64{0, 0}, deaths: 1, maxBleed: 10}

	assert.Greater(t, fe.computeFitness(shallow), fe.computeFitness(perfect))
	assert.Greater(t, fe.computeFitness(stillBleeding), fe.computeFitness(perfect))
	assert.Greater(t, fe.computeFitness(dead), fe.computeFitness(stillBleeding))
}
