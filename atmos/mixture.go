// Package atmos provides gas mixtures and the ambient environment that bodies
// breathe from.
package atmos

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// R is the ideal gas constant in J/(mol*K). With volumes in litres, n*R*T/V
// yields kPa.
const R = 8.314462618

// Reference temperatures in Kelvin.
const (
	TCMB = 2.7
	T20C = 293.15
)

// minMoles is the amount below which a gas entry is dropped.
const minMoles = 1e-8

// GasMixture is a volume of gas at a temperature.
type GasMixture struct {
	Volume      float64 // Litres
	Temperature float64 // Kelvin
	moles       map[string]float64
}

// NewMixture returns an empty mixture.
func NewMixture(volume, temperature float64) *GasMixture {
	return &GasMixture{Volume: volume, Temperature: temperature, moles: make(map[string]float64)}
}

// Moles returns the amount of one gas.
func (m *GasMixture) Moles(gas string) float64 { return m.moles[gas] }

// SetMoles sets the amount of one gas. Non-positive amounts remove it.
func (m *GasMixture) SetMoles(gas string, n float64) {
	if n <= minMoles {
		delete(m.moles, gas)
		return
	}
	m.moles[gas] = n
}

// AdjustMoles adds (or removes, when negative) an amount of gas.
func (m *GasMixture) AdjustMoles(gas string, delta float64) {
	m.SetMoles(gas, m.moles[gas]+delta)
}

// Gases returns the ids of all gases present, sorted.
func (m *GasMixture) Gases() []string {
	ids := make([]string, 0, len(m.moles))
	for id := range m.moles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalMoles returns the sum over all gases.
func (m *GasMixture) TotalMoles() float64 {
	if len(m.moles) == 0 {
		return 0
	}
	ns := make([]float64, 0, len(m.moles))
	for _, id := range m.Gases() {
		ns = append(ns, m.moles[id])
	}
	return floats.Sum(ns)
}

// Pressure returns the mixture pressure in kPa.
func (m *GasMixture) Pressure() float64 {
	if m.Volume <= 0 {
		return 0
	}
	return m.TotalMoles() * R * m.Temperature / m.Volume
}

// RemoveRatio removes a fraction of every gas and returns it as a new mixture
// of proportional volume.
func (m *GasMixture) RemoveRatio(ratio float64) *GasMixture {
	ratio = math.Max(0, math.Min(1, ratio))
	out := NewMixture(m.Volume*ratio, m.Temperature)
	if ratio == 0 {
		return out
	}
	for _, id := range m.Gases() {
		taken := m.moles[id] * ratio
		out.SetMoles(id, taken)
		m.SetMoles(id, m.moles[id]-taken)
	}
	return out
}

// Remove removes an amount of moles spread proportionally across gases.
func (m *GasMixture) Remove(moles float64) *GasMixture {
	total := m.TotalMoles()
	if total <= 0 {
		return NewMixture(0, m.Temperature)
	}
	return m.RemoveRatio(moles / total)
}

// RemoveVolume removes the gas occupying the given litres at the mixture's
// current pressure.
func (m *GasMixture) RemoveVolume(litres float64) *GasMixture {
	if m.Volume <= 0 {
		return NewMixture(0, m.Temperature)
	}
	out := m.RemoveRatio(litres / m.Volume)
	out.Volume = litres
	return out
}

// Merge moves every gas from other into m, mixing temperatures by moles.
// other is emptied.
func (m *GasMixture) Merge(other *GasMixture) {
	if other == nil {
		return
	}
	mine, theirs := m.TotalMoles(), other.TotalMoles()
	if mine+theirs > 0 {
		m.Temperature = (m.Temperature*mine + other.Temperature*theirs) / (mine + theirs)
	}
	for _, id := range other.Gases() {
		m.AdjustMoles(id, other.moles[id])
		delete(other.moles, id)
	}
}

// Clone returns a deep copy.
func (m *GasMixture) Clone() *GasMixture {
	c := NewMixture(m.Volume, m.Temperature)
	for id, n := range m.moles {
		c.moles[id] = n
	}
	return c
}
