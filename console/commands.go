package console

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/anatomy/components"
	"github.com/pthm-cable/anatomy/solution"
)

// defaultTankMoles fills a spawned tank for roughly an hour of breathing.
const defaultTankMoles = 10.0

func commandTable() map[string]command {
	return map[string]command{
		"help":       {"", "list commands", cmdHelp},
		"step":       {"[ticks]", "advance the simulation", cmdStep},
		"list":       {"", "list creatures", cmdList},
		"select":     {"<id>", "select a creature for later commands", cmdSelect},
		"status":     {"[id]", "show mob state, damage and statuses", cmdStatus},
		"inspect":    {"[id]", "dump the creature's components", cmdInspect},
		"bloodlevel": {"[id]", "show blood level and bleed", cmdBloodLevel},
		"setblood":   {"[id] <units>", "set blood quantity", cmdSetBlood},
		"bleed":      {"[id] <delta>", "change bleed amount", cmdBleed},
		"addblood":   {"[id] <units>", "add or remove blood, spilling what is removed", cmdAddBlood},
		"transfuse":  {"<from> <to> <units>", "move blood between creatures", cmdTransfuse},
		"flush":      {"[id] <units> [keep]", "purge chemicals from the blood", cmdFlush},
		"rejuvenate": {"[id]", "clear damage and restore blood", cmdRejuvenate},
		"parts":      {"[id]", "list attached parts and organs", cmdParts},
		"detach":     {"[id] <slot>", "detach the part in a slot", cmdDetach},
		"drop":       {"[id] <slot>", "detach a part and leave it where the creature stands", cmdDrop},
		"gib":        {"[id]", "gib the body", cmdGib},
		"temp":       {"[id]", "show temperature", cmdTemp},
		"settemp":    {"[id] <kelvin>", "set temperature", cmdSetTemp},
		"feed":       {"[id] <reagent> <units>", "put a reagent in the stomach", cmdFeed},
		"tank":       {"[id] [gas] [moles]", "equip a gas tank on the back", cmdTank},
		"internals":  {"[id]", "toggle internals", cmdInternals},
		"systems":    {"[category]", "show step systems and their share of tick time", cmdSystems},
		"events":     {"", "show event counts", cmdEvents},
	}
}

func cmdHelp(c *Console, _ []string) error {
	for _, name := range c.names() {
		cmd := c.commands[name]
		c.printf("%-10s %-24s %s\n", name, cmd.usage, cmd.help)
	}
	return nil
}

func cmdStep(c *Console, args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return ErrUsage
		}
		n = v
	}
	c.sim.Run(n)
	c.printf("tick %d (%.1fs)\n", c.sim.Tick(), c.sim.Now())
	return nil
}

func cmdSystems(c *Console, args []string) error {
	reg := c.sim.SystemInfo()
	infos := reg.All()
	if len(args) == 1 {
		infos = reg.ByCategory(args[0])
	} else if len(args) > 1 {
		return ErrUsage
	}
	perf := c.sim.Perf()
	for _, info := range infos {
		c.printf("%-12s %-10s %5.1f%%  %s\n", reg.GetName(info.ID), info.Category, perf.PhasePct[info.ID], info.Description)
	}
	c.printf("%.0f ticks/s, p95 tick %s, slowest %s\n", perf.TicksPerSecond, perf.P95TickDuration, reg.GetName(perf.SlowestPhase))
	return nil
}

func cmdEvents(c *Console, _ []string) error {
	counts := c.sim.Router().Counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c.printf("%-24s %d\n", name, counts[name])
	}
	return nil
}

func cmdList(c *Console, _ []string) error {
	sys := c.sim.Systems()
	bodies := ecs.NewMap[components.Body](c.sim.World())
	for _, id := range c.sim.CreatureIDs() {
		e, ok := c.sim.Creature(id)
		if !ok {
			continue
		}
		tmpl := ""
		if bodies.Has(e) {
			tmpl = bodies.Get(e).Template
		}
		c.printf("%4d  %-8s %-8s %d parts\n", id, tmpl, sys.Damage.State(e), len(sys.Body.BodyParts(e)))
	}
	return nil
}

func cmdSelect(c *Console, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	e, id, _, err := c.target(args, noArgs)
	if err != nil {
		return err
	}
	c.selected, c.selectedID, c.hasSelected = e, id, true
	c.printf("selected %d\n", id)
	return nil
}

func cmdStatus(c *Console, args []string) error {
	e, id, _, err := c.target(args, noArgs)
	if err != nil {
		return err
	}
	sys := c.sim.Systems()
	c.printf("creature %d: %s, damage %.1f\n", id, sys.Damage.State(e), sys.Damage.Total(e))
	if statuses := sys.Status.Statuses(e); len(statuses) > 0 {
		c.printf("statuses: %s\n", strings.Join(statuses, ", "))
	}
	if sys.Respiration.Suffocating(e) {
		c.println("suffocating")
	}
	c.println(sys.Bloodstream.Examine(e)...)
	return nil
}

func cmdInspect(c *Console, args []string) error {
	e, _, _, err := c.target(args, noArgs)
	if err != nil {
		return err
	}
	w := c.sim.World()
	c.println(Describe("Creature", get[components.Creature](w, e))...)
	c.println(Describe("Body", get[components.Body](w, e))...)
	c.println(Describe("Mob", get[components.Mob](w, e))...)
	c.println(Describe("Damageable", get[components.Damageable](w, e))...)
	c.println(Describe("Movement", get[components.Movement](w, e))...)
	c.println(Describe("Bloodstream", get[components.Bloodstream](w, e))...)
	c.println(Describe("Respirator", get[components.Respirator](w, e))...)
	c.println(Describe("Temperature", get[components.Temperature](w, e))...)
	c.println(Describe("Thermoregulator", get[components.Thermoregulator](w, e))...)
	return nil
}

// get returns a component pointer, or nil when the entity lacks it.
func get[T any](w *ecs.World, e ecs.Entity) *T {
	m := ecs.NewMap[T](w)
	if !m.Has(e) {
		return nil
	}
	return m.Get(e)
}

func cmdBloodLevel(c *Console, args []string) error {
	e, id, _, err := c.target(args, noArgs)
	if err != nil {
		return err
	}
	sys := c.sim.Systems()
	level, ok := sys.Bloodstream.BloodLevel(e)
	if !ok {
		return fmt.Errorf("creature %d has no bloodstream", id)
	}
	bleed, _ := sys.Bloodstream.BleedAmount(e)
	blood, _, _ := sys.Bloodstream.Solutions(e)
	c.printf("blood level %.1f%%, bleed %.2f, vessels %.0f%% full\n", level*100, bleed, blood.FillFraction()*100)
	return nil
}

func cmdAddBlood(c *Console, args []string) error {
	e, id, rest, err := c.target(args, oneValue)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return ErrUsage
	}
	amount, err := parseFloat(rest[0])
	if err != nil {
		return err
	}
	if !c.sim.Systems().Bloodstream.TryModifyBloodLevel(e, amount) {
		return fmt.Errorf("creature %d: blood unchanged", id)
	}
	return cmdBloodLevel(c, []string{strconv.FormatUint(uint64(id), 10)})
}

func cmdTransfuse(c *Console, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	donor, donorID, _, err := c.target(args[:1], noArgs)
	if err != nil {
		return err
	}
	recipient, recipientID, _, err := c.target(args[1:2], noArgs)
	if err != nil {
		return err
	}
	amount, err := parseFloat(args[2])
	if err != nil {
		return err
	}
	moved, err := c.sim.Systems().Bloodstream.Transfuse(donor, recipient, amount)
	if err != nil {
		return err
	}
	c.printf("transfused %.1fu from %d to %d\n", moved, donorID, recipientID)
	return nil
}

func cmdFlush(c *Console, args []string) error {
	e, id, rest, err := c.target(args, flushArgs)
	if err != nil {
		return err
	}
	if len(rest) < 1 || len(rest) > 2 {
		return ErrUsage
	}
	amount, err := parseFloat(rest[0])
	if err != nil {
		return err
	}
	keep := ""
	if len(rest) == 2 {
		keep = rest[1]
	}
	if !c.sim.Systems().Bloodstream.FlushChemicals(e, keep, amount) {
		return fmt.Errorf("creature %d has no bloodstream", id)
	}
	c.printf("flushed up to %.1fu of each chemical from creature %d\n", amount, id)
	return nil
}

func cmdRejuvenate(c *Console, args []string) error {
	e, id, _, err := c.target(args, noArgs)
	if err != nil {
		return err
	}
	sys := c.sim.Systems()
	sys.Damage.Rejuvenate(e)
	sys.Bloodstream.Rejuvenate(e)
	c.printf("creature %d rejuvenated: %s\n", id, sys.Damage.State(e))
	return nil
}

func cmdSetBlood(c *Console, args []string) error {
	e, id, rest, err := c.target(args, oneValue)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return ErrUsage
	}
	qty, err := parseFloat(rest[0])
	if err != nil {
		return err
	}
	if !c.sim.Systems().Bloodstream.SetBloodQuantity(e, qty) {
		return fmt.Errorf("creature %d has no bloodstream", id)
	}
	return cmdBloodLevel(c, []string{strconv.FormatUint(uint64(id), 10)})
}

func cmdBleed(c *Console, args []string) error {
	e, id, rest, err := c.target(args, oneValue)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return ErrUsage
	}
	delta, err := parseFloat(rest[0])
	if err != nil {
		return err
	}
	if !c.sim.Systems().Bloodstream.TryModifyBleedAmount(e, delta) {
		return fmt.Errorf("creature %d has no bloodstream", id)
	}
	return cmdBloodLevel(c, []string{strconv.FormatUint(uint64(id), 10)})
}

func cmdParts(c *Console, args []string) error {
	e, _, rest, err := c.target(args, optName)
	if err != nil {
		return err
	}
	if len(rest) > 1 {
		return ErrUsage
	}
	body := c.sim.Systems().Body
	w := c.sim.World()
	parts := body.BodyParts(e)
	if len(rest) == 1 {
		parts = body.PartsOfType(e, rest[0])
	}
	root, _ := body.RootPart(e)
	for _, part := range parts {
		slot, _ := body.SlotOf(part)
		p := get[components.Part](w, part)
		if p == nil {
			continue
		}
		line := fmt.Sprintf("%-12s %-14s %s", slot, p.Prototype, p.Type)
		if part == root {
			line += " (root)"
		}
		if p.Vital {
			line += " (vital)"
		}
		var adj []string
		for _, n := range body.AdjacentParts(part) {
			if id, ok := body.SlotOf(n); ok {
				adj = append(adj, id)
			}
		}
		if len(adj) > 0 {
			line += " -> " + strings.Join(adj, ",")
		}
		c.println(line)
		for _, organ := range body.PartOrgans(part) {
			if o := get[components.Organ](w, organ); o != nil {
				c.printf("  %-10s %s\n", o.Slot, o.Prototype)
			}
		}
	}
	return nil
}

func cmdDetach(c *Console, args []string) error {
	e, id, rest, err := c.target(args, oneName)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return ErrUsage
	}
	body := c.sim.Systems().Body
	part, ok := body.FindPart(e, rest[0])
	if !ok {
		return fmt.Errorf("creature %d has no part in slot %q", id, rest[0])
	}
	detached, err := body.DetachPart(part)
	if err != nil {
		return err
	}
	c.printf("detached %d parts\n", len(detached))
	return nil
}

func cmdDrop(c *Console, args []string) error {
	e, id, rest, err := c.target(args, oneName)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return ErrUsage
	}
	pos := get[components.Position](c.sim.World(), e)
	if pos == nil {
		return fmt.Errorf("creature %d has no position", id)
	}
	body := c.sim.Systems().Body
	part, ok := body.FindPart(e, rest[0])
	if !ok {
		return fmt.Errorf("creature %d has no part in slot %q", id, rest[0])
	}
	dropped, err := body.DropPart(part, *pos)
	if err != nil {
		return err
	}
	c.printf("dropped %d parts at (%.1f, %.1f)\n", len(dropped), pos.X, pos.Y)
	return nil
}

func cmdGib(c *Console, args []string) error {
	e, id, _, err := c.target(args, noArgs)
	if err != nil {
		return err
	}
	detached := c.sim.Systems().Body.Gib(e)
	if detached == nil {
		c.printf("creature %d is already gibbed\n", id)
		return nil
	}
	c.printf("gibbed creature %d: %d entities scattered\n", id, len(detached))
	return nil
}

func cmdTemp(c *Console, args []string) error {
	e, id, _, err := c.target(args, noArgs)
	if err != nil {
		return err
	}
	t := get[components.Temperature](c.sim.World(), e)
	if t == nil {
		return fmt.Errorf("creature %d has no temperature", id)
	}
	normal := c.sim.Config().Thermal.NormalTemperature
	c.printf("%.2fK (%+.2f from normal)\n", t.Current, t.Current-normal)
	return nil
}

func cmdSetTemp(c *Console, args []string) error {
	e, id, rest, err := c.target(args, oneValue)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return ErrUsage
	}
	k, err := parseFloat(rest[0])
	if err != nil {
		return err
	}
	if k < 0 {
		return fmt.Errorf("temperature below absolute zero: %w", ErrUsage)
	}
	t := get[components.Temperature](c.sim.World(), e)
	if t == nil {
		return fmt.Errorf("creature %d has no temperature", id)
	}
	t.Current = k
	return cmdTemp(c, []string{strconv.FormatUint(uint64(id), 10)})
}

func cmdFeed(c *Console, args []string) error {
	e, id, rest, err := c.target(args, feedArgs)
	if err != nil {
		return err
	}
	if len(rest) != 2 {
		return ErrUsage
	}
	qty, err := parseFloat(rest[1])
	if err != nil {
		return err
	}
	if qty <= 0 {
		return ErrUsage
	}
	food := solution.NewWith(qty, solution.Reagent{ID: rest[0], Quantity: qty})
	if err := c.sim.Systems().Digestion.TryEat(e, food); err != nil {
		return fmt.Errorf("feeding creature %d: %w", id, err)
	}
	c.printf("fed %.1fu %s to creature %d\n", qty, rest[0], id)
	return nil
}

func cmdTank(c *Console, args []string) error {
	e, id, rest, err := c.target(args, tankArgs)
	if err != nil {
		return err
	}
	gas := c.sim.Config().Respiration.BreathableGas
	moles := defaultTankMoles
	if len(rest) > 0 {
		gas = rest[0]
	}
	if len(rest) > 1 {
		if moles, err = parseFloat(rest[1]); err != nil {
			return err
		}
	}
	if len(rest) > 2 {
		return ErrUsage
	}

	tank := c.sim.SpawnGasTank(gas, moles)
	if err := c.sim.Systems().Equipment.Equip(e, tank, "back"); err != nil {
		c.sim.World().RemoveEntity(tank)
		return fmt.Errorf("equipping tank on creature %d: %w", id, err)
	}
	c.printf("creature %d wears a tank of %.1f mol %s\n", id, moles, gas)
	return nil
}

func cmdInternals(c *Console, args []string) error {
	e, id, _, err := c.target(args, noArgs)
	if err != nil {
		return err
	}
	internals := c.sim.Systems().Internals
	if err := internals.Toggle(e); err != nil {
		return fmt.Errorf("creature %d: %w", id, err)
	}
	if _, on := internals.Apparatus(e); on {
		c.printf("creature %d internals on\n", id)
	} else {
		c.printf("creature %d internals off\n", id)
	}
	return nil
}
