// Package prototype holds the read-only content registry: body templates, part
// and organ prototypes, damage-to-bleed modifier sets, the gas-to-reagent
// table and reactions. It is loaded once at startup and never mutated.
package prototype

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed prototypes.yaml
var defaultYAML []byte

var (
	ErrDuplicateID = errors.New("prototype: duplicate id")
	ErrUnknownID   = errors.New("prototype: unknown id")
)

// PartPrototype describes a spawnable body part.
type PartPrototype struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Vital    bool   `yaml:"vital"`
	Symmetry string `yaml:"symmetry"`
}

// LungSpec is the lung-specific part of an organ prototype.
type LungSpec struct {
	SolutionVolume float64 `yaml:"solution_volume"`
}

// StomachSpec is the stomach-specific part of an organ prototype.
type StomachSpec struct {
	MaxVolume float64 `yaml:"max_volume"`
}

// OrganPrototype describes a spawnable organ. Kind-specific specs are optional.
type OrganPrototype struct {
	ID      string       `yaml:"id"`
	Kind    string       `yaml:"kind"`
	Lung    *LungSpec    `yaml:"lung,omitempty"`
	Stomach *StomachSpec `yaml:"stomach,omitempty"`
}

// SlotDef is one slot of a body template.
type SlotDef struct {
	ID          string            `yaml:"id"`
	Type        string            `yaml:"type"` // Accepted part type; defaults to the part prototype's type
	Part        string            `yaml:"part"` // Initial part prototype, may be empty
	Connections []string          `yaml:"connections"`
	Organs      map[string]string `yaml:"organs"` // organ slot id -> organ prototype
}

// OrganSlotIDs returns the organ slot ids in a stable order.
func (s SlotDef) OrganSlotIDs() []string {
	ids := make([]string, 0, len(s.Organs))
	for id := range s.Organs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BodyTemplate is the declarative shape of a body.
type BodyTemplate struct {
	ID     string    `yaml:"id"`
	Root   string    `yaml:"root"`
	Center string    `yaml:"center"` // Defaults to Root
	Slots  []SlotDef `yaml:"slots"`

	index map[string]int
}

// Slot returns a slot definition by id.
func (t *BodyTemplate) Slot(id string) (SlotDef, bool) {
	i, ok := t.index[id]
	if !ok {
		return SlotDef{}, false
	}
	return t.Slots[i], true
}

// SlotIndex returns the position of a slot in Slots.
func (t *BodyTemplate) SlotIndex(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Adjacency returns the undirected adjacency list of the template, indexed like
// Slots. Connections are declared on one side and apply both ways.
func (t *BodyTemplate) Adjacency() [][]int {
	adj := make([][]int, len(t.Slots))
	seen := make(map[[2]int]bool)
	for i, s := range t.Slots {
		for _, c := range s.Connections {
			j, ok := t.index[c]
			if !ok || i == j {
				continue
			}
			if seen[[2]int{i, j}] {
				continue
			}
			seen[[2]int{i, j}] = true
			seen[[2]int{j, i}] = true
			adj[i] = append(adj[i], j)
			adj[j] = append(adj[j], i)
		}
	}
	return adj
}

// ModifierSet maps damage types to bleed contributions.
type ModifierSet struct {
	ID             string             `yaml:"id"`
	Coefficients   map[string]float64 `yaml:"coefficients"`
	FlatReductions map[string]float64 `yaml:"flat_reductions"`
}

// Apply maps a per-type damage increase through the set. Types without a
// coefficient pass through at 1.0. Flat reductions never push a positive
// contribution below zero; a negative coefficient yields a negative
// contribution (burns close wounds).
func (m *ModifierSet) Apply(damage map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(damage))
	for typ, v := range damage {
		if v <= 0 {
			continue
		}
		coeff := 1.0
		if m != nil {
			if c, ok := m.Coefficients[typ]; ok {
				coeff = c
			}
		}
		v *= coeff
		if m != nil && v > 0 {
			v = max(0, v-m.FlatReductions[typ])
		}
		if v != 0 {
			out[typ] = v
		}
	}
	return out
}

// GasDef maps a gas to the reagent it becomes when inhaled.
type GasDef struct {
	ID      string `yaml:"id"`
	Reagent string `yaml:"reagent"` // Empty = not absorbed
}

// AtmosphereTable is the gas-to-reagent conversion table.
type AtmosphereTable struct {
	MolesToReagentMultiplier float64  `yaml:"moles_to_reagent_multiplier"`
	Gases                    []GasDef `yaml:"gases"`
}

// Effect kinds that matter to the reaction guard.
const (
	EffectSpawnEntity = "spawn_entity"
	EffectArea        = "area"
)

// ReactionEffect is an opaque side effect of a reaction.
type ReactionEffect struct {
	Kind string `yaml:"kind"`
}

// ReactionPrototype is a reagent reaction.
type ReactionPrototype struct {
	ID        string             `yaml:"id"`
	Reactants map[string]float64 `yaml:"reactants"`
	Products  map[string]float64 `yaml:"products"`
	Effects   []ReactionEffect   `yaml:"effects"`
}

// HasEffect reports whether the reaction carries an effect of the given kind.
func (r *ReactionPrototype) HasEffect(kind string) bool {
	for _, e := range r.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

type document struct {
	Parts      []PartPrototype     `yaml:"parts"`
	Organs     []OrganPrototype    `yaml:"organs"`
	Templates  []BodyTemplate      `yaml:"templates"`
	Modifiers  []ModifierSet       `yaml:"damage_bleed_modifiers"`
	Atmosphere AtmosphereTable     `yaml:"atmosphere"`
	Reactions  []ReactionPrototype `yaml:"reactions"`
}

// Registry is the read-only lookup over all loaded prototypes.
type Registry struct {
	parts      map[string]*PartPrototype
	organs     map[string]*OrganPrototype
	templates  map[string]*BodyTemplate
	modifiers  map[string]*ModifierSet
	gasReagent map[string]string
	gasOrder   []string
	multiplier float64
	reactions  []*ReactionPrototype
}

// LoadDefault loads the embedded prototype set.
func LoadDefault() (*Registry, error) {
	return Load(defaultYAML)
}

// MustLoadDefault is like LoadDefault but panics on error.
func MustLoadDefault() *Registry {
	r, err := LoadDefault()
	if err != nil {
		panic(fmt.Sprintf("prototype: failed to load defaults: %v", err))
	}
	return r
}

// Load parses a prototype document.
func Load(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing prototypes: %w", err)
	}

	r := &Registry{
		parts:      make(map[string]*PartPrototype, len(doc.Parts)),
		organs:     make(map[string]*OrganPrototype, len(doc.Organs)),
		templates:  make(map[string]*BodyTemplate, len(doc.Templates)),
		modifiers:  make(map[string]*ModifierSet, len(doc.Modifiers)),
		gasReagent: make(map[string]string, len(doc.Atmosphere.Gases)),
		multiplier: doc.Atmosphere.MolesToReagentMultiplier,
	}

	for i := range doc.Parts {
		p := &doc.Parts[i]
		if _, dup := r.parts[p.ID]; dup {
			return nil, fmt.Errorf("part %q: %w", p.ID, ErrDuplicateID)
		}
		r.parts[p.ID] = p
	}
	for i := range doc.Organs {
		o := &doc.Organs[i]
		if _, dup := r.organs[o.ID]; dup {
			return nil, fmt.Errorf("organ %q: %w", o.ID, ErrDuplicateID)
		}
		r.organs[o.ID] = o
	}
	for i := range doc.Templates {
		t := &doc.Templates[i]
		if _, dup := r.templates[t.ID]; dup {
			return nil, fmt.Errorf("template %q: %w", t.ID, ErrDuplicateID)
		}
		if err := r.indexTemplate(t); err != nil {
			return nil, err
		}
		r.templates[t.ID] = t
	}
	for i := range doc.Modifiers {
		m := &doc.Modifiers[i]
		r.modifiers[m.ID] = m
	}
	for _, g := range doc.Atmosphere.Gases {
		r.gasOrder = append(r.gasOrder, g.ID)
		if g.Reagent != "" {
			r.gasReagent[g.ID] = g.Reagent
		}
	}
	for i := range doc.Reactions {
		r.reactions = append(r.reactions, &doc.Reactions[i])
	}
	return r, nil
}

func (r *Registry) indexTemplate(t *BodyTemplate) error {
	if t.Center == "" {
		t.Center = t.Root
	}
	t.index = make(map[string]int, len(t.Slots))
	for i := range t.Slots {
		s := &t.Slots[i]
		if _, dup := t.index[s.ID]; dup {
			return fmt.Errorf("template %q slot %q: %w", t.ID, s.ID, ErrDuplicateID)
		}
		t.index[s.ID] = i
		if s.Type == "" {
			if p, ok := r.parts[s.Part]; ok {
				s.Type = p.Type
			}
		}
	}
	if _, ok := t.index[t.Root]; !ok {
		return fmt.Errorf("template %q root slot %q: %w", t.ID, t.Root, ErrUnknownID)
	}
	if _, ok := t.index[t.Center]; !ok {
		return fmt.Errorf("template %q center slot %q: %w", t.ID, t.Center, ErrUnknownID)
	}
	return nil
}

// Template returns a body template by id.
func (r *Registry) Template(id string) (*BodyTemplate, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// TemplateIDs returns all template ids, sorted.
func (r *Registry) TemplateIDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Part returns a part prototype by id.
func (r *Registry) Part(id string) (*PartPrototype, bool) {
	p, ok := r.parts[id]
	return p, ok
}

// Organ returns an organ prototype by id.
func (r *Registry) Organ(id string) (*OrganPrototype, bool) {
	o, ok := r.organs[id]
	return o, ok
}

// ModifierSet returns a damage-to-bleed modifier set by id.
func (r *Registry) ModifierSet(id string) (*ModifierSet, bool) {
	m, ok := r.modifiers[id]
	return m, ok
}

// GasReagent returns the reagent a gas is absorbed as.
func (r *Registry) GasReagent(gas string) (string, bool) {
	reagent, ok := r.gasReagent[gas]
	return reagent, ok
}

// Gases returns every known gas id in declaration order.
func (r *Registry) Gases() []string { return r.gasOrder }

// MolesToReagentMultiplier returns units of reagent per mole of gas.
func (r *Registry) MolesToReagentMultiplier() float64 { return r.multiplier }

// Reactions returns every reaction prototype in declaration order.
func (r *Registry) Reactions() []*ReactionPrototype { return r.reactions }
