// Package console provides admin commands for inspecting and manipulating
// bodies in a running simulation.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/mlange-42/ark/ecs"
	"github.com/muesli/cancelreader"

	"github.com/pthm-cable/anatomy/sim"
)

// Command errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrNoCreature     = errors.New("no such creature")
	ErrNoSelection    = errors.New("no creature selected")
)

// command is one console verb.
type command struct {
	usage string
	help  string
	run   func(c *Console, args []string) error
}

// Console executes admin commands against a simulation. It drives the
// simulation itself, so it must not be used while another goroutine steps it.
type Console struct {
	sim *sim.Simulation
	out io.Writer

	selected    ecs.Entity
	selectedID  uint32
	hasSelected bool

	commands map[string]command
}

// New creates a console writing its output to out.
func New(s *sim.Simulation, out io.Writer) *Console {
	return &Console{
		sim:      s,
		out:      out,
		commands: commandTable(),
	}
}

// Exec runs a single command line. Blank lines and # comments are ignored.
func (c *Console) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	fields := strings.Fields(line)
	cmd, ok := c.commands[fields[0]]
	if !ok {
		return fmt.Errorf("%q: %w", fields[0], ErrUnknownCommand)
	}
	if err := cmd.run(c, fields[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			return fmt.Errorf("%w: %s %s", ErrUsage, fields[0], cmd.usage)
		}
		return err
	}
	return nil
}

// Run reads commands from in until EOF, "quit", or ctx is cancelled.
// Command errors are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	r, err := cancelreader.NewReader(in)
	if err != nil {
		return fmt.Errorf("creating reader: %w", err)
	}
	defer r.Close()

	stop := context.AfterFunc(ctx, func() { r.Cancel() })
	defer stop()

	c.printf("> ")
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if f := strings.Fields(line); len(f) > 0 && (f[0] == "quit" || f[0] == "exit") {
			return nil
		}
		if err := c.Exec(line); err != nil {
			c.printf("error: %v\n", err)
			slog.Debug("console command failed", "line", line, "error", err)
		}
		c.printf("> ")
	}

	err = scanner.Err()
	if errors.Is(err, cancelreader.ErrCanceled) {
		return ctx.Err()
	}
	return err
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) println(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(c.out, l)
	}
}

// arity describes the arguments a verb takes after the optional creature id.
// When the first of them is a name, a leading integer can only be an id.
type arity struct {
	min, max int
	named    bool
}

var (
	noArgs    = arity{}
	oneValue  = arity{min: 1, max: 1}
	oneName   = arity{min: 1, max: 1, named: true}
	optName   = arity{max: 1, named: true}
	flushArgs = arity{min: 1, max: 2}
	feedArgs  = arity{min: 2, max: 2, named: true}
	tankArgs  = arity{max: 2, named: true}
)

// leadingID reports whether the first of n arguments is a creature id.
func (a arity) leadingID(n int) bool {
	return n > a.max || (a.named && n > a.min)
}

// target resolves the creature a command acts on. A leading integer names a
// creature id when the argument count leaves room for it; otherwise the
// selection is used. The remaining arguments are returned.
func (c *Console) target(args []string, a arity) (ecs.Entity, uint32, []string, error) {
	if len(args) > 0 && a.leadingID(len(args)) {
		if id, err := strconv.ParseUint(args[0], 10, 32); err == nil {
			e, ok := c.sim.Creature(uint32(id))
			if !ok {
				return ecs.Entity{}, 0, nil, fmt.Errorf("creature %d: %w", id, ErrNoCreature)
			}
			return e, uint32(id), args[1:], nil
		}
	}
	if !c.hasSelected {
		return ecs.Entity{}, 0, nil, ErrNoSelection
	}
	if _, ok := c.sim.Creature(c.selectedID); !ok {
		c.hasSelected = false
		return ecs.Entity{}, 0, nil, fmt.Errorf("creature %d: %w", c.selectedID, ErrNoCreature)
	}
	return c.selected, c.selectedID, args, nil
}

// names returns the command names in sorted order.
func (c *Console) names() []string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", s, ErrUsage)
	}
	return v, nil
}
