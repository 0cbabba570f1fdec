package main

import (
	"github.com/pthm-cable/anatomy/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of bleeding parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "bleed_reduction", Path: "bloodstream.bleed_reduction_amount", Min: 0.05, Max: 1.5, Default: 0.33},
			{Name: "blood_refresh", Path: "bloodstream.blood_refresh_amount", Min: 0.1, Max: 5.0, Default: 1.0},
			{Name: "crit_bleed_divisor", Path: "bloodstream.crit_bleed_divisor", Min: 5, Max: 100, Default: 25},
			{Name: "crit_spill_divisor", Path: "bloodstream.crit_bleed_spill_divisor", Min: 1, Max: 20, Default: 5},
			{Name: "update_interval", Path: "bloodstream.update_interval", Min: 0.5, Max: 6.0, Default: 3.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	b := &cfg.Bloodstream
	b.BleedReductionAmount = clamped[0]
	b.BloodRefreshAmount = clamped[1]
	b.CritBleedDivisor = clamped[2]
	b.CritBleedSpillDivisor = clamped[3]
	b.UpdateInterval = clamped[4]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	b := cfg.Bloodstream
	return []float64{
		b.BleedReductionAmount,
		b.BloodRefreshAmount,
		b.CritBleedDivisor,
		b.CritBleedSpillDivisor,
		b.UpdateInterval,
	}
}
