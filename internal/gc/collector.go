package gc

import (
	"fmt"
	"log/slog"
	"strings"
	"wisp/internal/object"
)

type Mode int

const (
	// Off never sweeps on its own; only explicit Collect calls reclaim.
	Off Mode = iota
	// Automatic sweeps before each interactive line.
	Automatic
	// Repl is the interactive session mode and sweeps like Automatic.
	Repl
	// Interpret sweeps after every top-level statement of a program.
	Interpret
)

var modeNames = map[Mode]string{
	Off:       "off",
	Automatic: "automatic",
	Repl:      "repl",
	Interpret: "interpret",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a configuration name to a Mode.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if strings.EqualFold(n, name) {
			return m, nil
		}
	}
	return Off, fmt.Errorf("unknown gc mode %q", name)
}

// SweepsBeforeLine reports whether an interactive front end should collect
// before reading each line.
func (m Mode) SweepsBeforeLine() bool {
	return m == Automatic || m == Repl
}

// SweepsPerStatement reports whether a program sweeps after each statement.
func (m Mode) SweepsPerStatement() bool {
	return m == Interpret
}

// compactThreshold is the slot count above which a sweep that leaves more
// placeholders than live values squeezes the arena.
const compactThreshold = 64

type Stats struct {
	Tracked      int
	Live         int
	Placeholders int
	Reclaimed    int
	Sweeps       int
}

// Collector tracks every value allocated during an evaluation and reclaims
// the ones no longer reachable from an environment chain. Reclaiming a value
// only drops the collector's reference to it; the value itself is never
// modified. A Collector is not safe for concurrent use.
type Collector struct {
	mode      Mode
	slots     []object.Object
	live      int
	reclaimed int
	sweeps    int
}

func New(mode Mode) *Collector {
	return &Collector{mode: mode}
}

func (c *Collector) Mode() Mode { return c.mode }

func (c *Collector) SetMode(m Mode) {
	slog.Debug("gc mode changed", slog.String("from", c.mode.String()), slog.String("to", m.String()))
	c.mode = m
}

// Track appends o to the arena. The shared nil value is never tracked.
func (c *Collector) Track(o object.Object) {
	if o == nil || o == object.NIL {
		return
	}
	c.slots = append(c.slots, o)
	c.live++
}

func (c *Collector) IsTracked(o object.Object) bool {
	for _, s := range c.slots {
		if s == o {
			return true
		}
	}
	return false
}

// Release drops every tracked value. Call collectors are released once the
// call result has been copied out.
func (c *Collector) Release() {
	if c.live > 0 {
		slog.Debug("gc release", slog.Int("values", c.live))
	}
	c.reclaimed += c.live
	c.slots = nil
	c.live = 0
}

func (c *Collector) Stats() Stats {
	return Stats{
		Tracked:      len(c.slots),
		Live:         c.live,
		Placeholders: len(c.slots) - c.live,
		Reclaimed:    c.reclaimed,
		Sweeps:       c.sweeps,
	}
}

// Inspect renders one character per slot: '+' for a live value and '.' for a
// reclaimed placeholder.
func (c *Collector) Inspect() string {
	var out strings.Builder
	out.WriteString("[")
	for _, s := range c.slots {
		if s == object.NIL {
			out.WriteByte('.')
		} else {
			out.WriteByte('+')
		}
	}
	out.WriteString("]")
	return out.String()
}

// Collect runs one mark-and-sweep pass rooted at env and its ancestors, plus
// any pinned values, and returns the number of values reclaimed.
func (c *Collector) Collect(env *object.Environment, pinned ...object.Object) int {
	c.trimTrailing()

	s := &sweep{scopes: map[*object.Environment]bool{}}
	s.markScope(env)
	for _, p := range pinned {
		s.mark(p)
	}

	// symbols naming a bound variable survive even when unreferenced
	for _, o := range c.slots {
		if sym, ok := o.(*object.Symbol); ok && !object.IsMarked(sym) && env != nil && env.Has(sym.Name) {
			s.mark(sym)
		}
	}

	reclaimed := 0
	for i, o := range c.slots {
		if o == object.NIL || object.IsMarked(o) {
			continue
		}
		c.slots[i] = object.NIL
		reclaimed++
	}
	for _, o := range s.marked {
		object.SetMarked(o, false)
	}

	c.live -= reclaimed
	c.reclaimed += reclaimed
	c.sweeps++
	c.trimTrailing()
	if len(c.slots) > compactThreshold && c.live*2 < len(c.slots) {
		c.squeeze()
	}

	slog.Debug("gc sweep",
		slog.String("mode", c.mode.String()),
		slog.Int("reclaimed", reclaimed),
		slog.Int("live", c.live),
		slog.Int("slots", len(c.slots)))
	return reclaimed
}

func (c *Collector) trimTrailing() {
	n := len(c.slots)
	for n > 0 && c.slots[n-1] == object.NIL {
		c.slots[n-1] = nil
		n--
	}
	c.slots = c.slots[:n]
}

func (c *Collector) squeeze() {
	kept := c.slots[:0]
	for _, o := range c.slots {
		if o != object.NIL {
			kept = append(kept, o)
		}
	}
	for i := len(kept); i < len(c.slots); i++ {
		c.slots[i] = nil
	}
	c.slots = kept
}

type sweep struct {
	marked []object.Object
	scopes map[*object.Environment]bool
}

func (s *sweep) mark(o object.Object) {
	if o == nil || object.IsMarked(o) {
		return
	}
	object.SetMarked(o, true)
	s.marked = append(s.marked, o)

	switch v := o.(type) {
	case *object.List:
		for _, e := range v.Elements {
			s.mark(e)
		}
	case *object.Closure:
		s.markScope(v.Scope)
		s.markScope(v.Env)
	}
}

func (s *sweep) markScope(env *object.Environment) {
	for e := env; e != nil; e = e.Parent() {
		if s.scopes[e] {
			return
		}
		s.scopes[e] = true
		e.Each(func(_ string, v object.Object) {
			s.mark(v)
		})
	}
}
