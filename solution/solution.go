// Package solution implements a bounded multi-reagent volume ledger.
//
// A Solution is the medium of exchange between every physiological subsystem:
// blood, spilled blood, stomach contents, lung buffers and puddles are all
// Solutions. Volume never exceeds MaxVolume and no quantity is ever negative.
package solution

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Epsilon is the quantity below which a reagent entry is dropped and two
// volumes are considered equal.
const Epsilon = 1e-4

// Reagent is a single (reagent id, quantity) entry.
type Reagent struct {
	ID       string  `yaml:"id"`
	Quantity float64 `yaml:"quantity"`
}

// Solution is an ordered reagent ledger with a volume cap.
type Solution struct {
	contents  []Reagent
	volume    float64
	maxVolume float64

	// CanReact gates whether reactions are evaluated inside this solution.
	CanReact bool
}

// New returns an empty solution with the given capacity.
func New(maxVolume float64) *Solution {
	if maxVolume < 0 {
		maxVolume = 0
	}
	return &Solution{maxVolume: maxVolume, CanReact: true}
}

// NewWith returns a solution holding the given reagents. Capacity grows to fit
// them if maxVolume is smaller than their total.
func NewWith(maxVolume float64, reagents ...Reagent) *Solution {
	s := New(maxVolume)
	total := 0.0
	for _, r := range reagents {
		if r.Quantity > 0 {
			total += r.Quantity
		}
	}
	if total > s.maxVolume {
		s.maxVolume = total
	}
	for _, r := range reagents {
		s.AddReagent(r.ID, r.Quantity)
	}
	return s
}

// Volume returns the sum of all quantities.
func (s *Solution) Volume() float64 { return s.volume }

// MaxVolume returns the capacity.
func (s *Solution) MaxVolume() float64 { return s.maxVolume }

// SetMaxVolume changes the capacity. Contents above the new capacity are
// scaled down proportionally.
func (s *Solution) SetMaxVolume(v float64) {
	if v < 0 {
		v = 0
	}
	s.maxVolume = v
	if s.volume > v {
		if s.volume > 0 {
			s.Scale(v / s.volume)
		}
	}
}

// AvailableVolume returns the remaining capacity.
func (s *Solution) AvailableVolume() float64 {
	avail := s.maxVolume - s.volume
	if avail < 0 {
		return 0
	}
	return avail
}

// FillFraction returns volume / max volume in [0, 1].
func (s *Solution) FillFraction() float64 {
	if s.maxVolume <= 0 {
		return 0
	}
	return s.volume / s.maxVolume
}

// Empty reports whether the solution holds nothing.
func (s *Solution) Empty() bool { return s.volume < Epsilon }

// Quantity returns the quantity of a reagent, 0 if absent.
func (s *Solution) Quantity(id string) float64 {
	if i := s.index(id); i >= 0 {
		return s.contents[i].Quantity
	}
	return 0
}

// Contents returns a copy of the reagent list in insertion order.
func (s *Solution) Contents() []Reagent {
	out := make([]Reagent, len(s.contents))
	copy(out, s.contents)
	return out
}

// PrimaryReagent returns the reagent with the largest quantity.
func (s *Solution) PrimaryReagent() (string, bool) {
	best := -1
	for i, r := range s.contents {
		if best < 0 || r.Quantity > s.contents[best].Quantity {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return s.contents[best].ID, true
}

// AddReagent adds up to qty of a reagent, capped at the available volume.
// Returns the quantity actually added.
func (s *Solution) AddReagent(id string, qty float64) float64 {
	if qty <= 0 || id == "" {
		return 0
	}
	if avail := s.AvailableVolume(); qty > avail {
		qty = avail
	}
	if qty < Epsilon {
		return 0
	}
	if i := s.index(id); i >= 0 {
		s.contents[i].Quantity += qty
	} else {
		s.contents = append(s.contents, Reagent{ID: id, Quantity: qty})
	}
	s.volume += qty
	return qty
}

// RemoveReagent removes up to qty of a reagent and returns the quantity removed.
func (s *Solution) RemoveReagent(id string, qty float64) float64 {
	if qty <= 0 {
		return 0
	}
	i := s.index(id)
	if i < 0 {
		return 0
	}
	have := s.contents[i].Quantity
	if qty >= have || scalar.EqualWithinAbs(qty, have, Epsilon) {
		s.contents = append(s.contents[:i], s.contents[i+1:]...)
		s.recompute()
		return have
	}
	s.contents[i].Quantity -= qty
	s.recompute()
	return qty
}

// RemoveAll empties the solution. Capacity is unchanged.
func (s *Solution) RemoveAll() {
	s.contents = s.contents[:0]
	s.volume = 0
}

// SplitSolution removes up to qty from the solution proportionally across all
// reagents and returns it as a new solution sized to the removed volume.
func (s *Solution) SplitSolution(qty float64) *Solution {
	out := New(0)
	out.CanReact = s.CanReact
	if qty <= 0 || s.volume <= 0 {
		return out
	}
	if qty >= s.volume {
		out.maxVolume = s.volume
		out.contents = append(out.contents, s.contents...)
		out.volume = s.volume
		s.RemoveAll()
		return out
	}

	ratio := qty / s.volume
	out.maxVolume = qty
	kept := s.contents[:0]
	for _, r := range s.contents {
		take := r.Quantity * ratio
		if take >= Epsilon {
			out.contents = append(out.contents, Reagent{ID: r.ID, Quantity: take})
		}
		r.Quantity -= take
		if r.Quantity >= Epsilon {
			kept = append(kept, r)
		}
	}
	s.contents = kept
	s.recompute()
	out.recompute()
	return out
}

// RemoveSolution removes the reagents of other from s, each capped at what is
// present. Returns the removed reagents.
func (s *Solution) RemoveSolution(other *Solution) *Solution {
	out := New(other.volume)
	for _, r := range other.contents {
		out.AddReagent(r.ID, s.RemoveReagent(r.ID, r.Quantity))
	}
	return out
}

// AddSolution merges as much of other into s as fits. The part that does not
// fit is returned as overflow (empty when everything fit). other is left
// unchanged.
func (s *Solution) AddSolution(other *Solution) *Solution {
	if other == nil || other.volume <= 0 {
		return New(0)
	}
	incoming := other.Clone()
	var overflow *Solution
	if avail := s.AvailableVolume(); incoming.volume > avail {
		overflow = incoming.SplitSolution(incoming.volume - avail)
	} else {
		overflow = New(0)
	}
	for _, r := range incoming.contents {
		if i := s.index(r.ID); i >= 0 {
			s.contents[i].Quantity += r.Quantity
		} else {
			s.contents = append(s.contents, r)
		}
	}
	s.recompute()
	if s.volume > s.maxVolume {
		// float drift from the proportional split
		s.volume = s.maxVolume
	}
	return overflow
}

// TryAddSolution merges other into s only if all of it fits.
func (s *Solution) TryAddSolution(other *Solution) bool {
	if other == nil {
		return false
	}
	if other.volume > s.AvailableVolume()+Epsilon {
		return false
	}
	s.AddSolution(other)
	return true
}

// Scale multiplies every quantity by f (f <= 0 empties the solution).
func (s *Solution) Scale(f float64) {
	if f <= 0 {
		s.RemoveAll()
		return
	}
	kept := s.contents[:0]
	for _, r := range s.contents {
		r.Quantity *= f
		if r.Quantity >= Epsilon {
			kept = append(kept, r)
		}
	}
	s.contents = kept
	s.recompute()
	if s.volume > s.maxVolume {
		s.maxVolume = s.volume
	}
}

// Clone returns a deep copy.
func (s *Solution) Clone() *Solution {
	c := &Solution{
		contents:  make([]Reagent, len(s.contents)),
		volume:    s.volume,
		maxVolume: s.maxVolume,
		CanReact:  s.CanReact,
	}
	copy(c.contents, s.contents)
	return c
}

// String formats the solution for logs and console output.
func (s *Solution) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.2f/%.2f", s.volume, s.maxVolume)
	for _, r := range s.contents {
		fmt.Fprintf(&b, " %s:%.2f", r.ID, r.Quantity)
	}
	return b.String()
}

func (s *Solution) index(id string) int {
	for i := range s.contents {
		if s.contents[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Solution) recompute() {
	if len(s.contents) == 0 {
		s.volume = 0
		return
	}
	qs := make([]float64, len(s.contents))
	for i, r := range s.contents {
		qs[i] = r.Quantity
	}
	s.volume = floats.Sum(qs)
}
