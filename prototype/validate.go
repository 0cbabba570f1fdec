package prototype

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Problem is a content error found by Validate. Problems never stop loading;
// the body engine skips the offending node at spawn time.
type Problem struct {
	Template string
	Slot     string
	Message  string
}

func (p Problem) String() string {
	if p.Slot == "" {
		return fmt.Sprintf("%s: %s", p.Template, p.Message)
	}
	return fmt.Sprintf("%s/%s: %s", p.Template, p.Slot, p.Message)
}

// Validate checks every template for dangling references and slots that can
// never be reached from the root.
func (r *Registry) Validate() []Problem {
	var problems []Problem
	for _, id := range r.TemplateIDs() {
		problems = append(problems, r.validateTemplate(r.templates[id])...)
	}
	return problems
}

func (r *Registry) validateTemplate(t *BodyTemplate) []Problem {
	var problems []Problem
	add := func(slot, format string, args ...any) {
		problems = append(problems, Problem{Template: t.ID, Slot: slot, Message: fmt.Sprintf(format, args...)})
	}

	for _, s := range t.Slots {
		if s.Part != "" {
			p, ok := r.parts[s.Part]
			switch {
			case !ok:
				add(s.ID, "unknown part prototype %q", s.Part)
			case s.Type != p.Type:
				add(s.ID, "slot type %q does not accept part %q of type %q", s.Type, s.Part, p.Type)
			}
		}
		if s.Type == "" {
			add(s.ID, "slot has no part type")
		}
		for _, c := range s.Connections {
			if _, ok := t.index[c]; !ok {
				add(s.ID, "connection to unknown slot %q", c)
			}
		}
		for _, organSlot := range s.OrganSlotIDs() {
			if _, ok := r.organs[s.Organs[organSlot]]; !ok {
				add(s.ID, "organ slot %q: unknown organ prototype %q", organSlot, s.Organs[organSlot])
			}
			if s.Part == "" {
				add(s.ID, "organ slot %q declared on a slot without a part", organSlot)
			}
		}
	}

	root := t.index[t.Root]
	reached := Reachable(t.Adjacency(), root)
	var unreached []string
	for i, s := range t.Slots {
		if !reached.Test(uint(i)) {
			unreached = append(unreached, s.ID)
		}
	}
	sort.Strings(unreached)
	for _, id := range unreached {
		add(id, "slot is not reachable from root %q", t.Root)
	}
	return problems
}

// Reachable returns the set of slot indices reachable from start over adj.
func Reachable(adj [][]int, start int) *bitset.BitSet {
	visited := bitset.New(uint(len(adj)))
	if start < 0 || start >= len(adj) {
		return visited
	}
	queue := []int{start}
	visited.Set(uint(start))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !visited.Test(uint(next)) {
				visited.Set(uint(next))
				queue = append(queue, next)
			}
		}
	}
	return visited
}
