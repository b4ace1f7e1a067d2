package object

import (
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
)

// DefaultEnvCapacity is the slot count of an environment created without an
// explicit capacity.
const DefaultEnvCapacity = 512

var ErrEnvironmentFull = errors.New("environment is full")

type binding struct {
	name     string
	value    Object
	occupied bool
}

// Environment is a fixed-capacity, open-addressed table of name bindings
// chained to an optional parent. Bindings are never removed. Environments are
// not safe for concurrent use.
type Environment struct {
	parent   *Environment
	bindings []binding
	count    int
}

// NewEnvironment creates an environment with the default capacity.
func NewEnvironment(parent *Environment) *Environment {
	return NewEnvironmentWithCapacity(parent, DefaultEnvCapacity)
}

// NewEnvironmentWithCapacity creates an environment holding at most capacity
// distinct names. A non-positive capacity falls back to the default.
func NewEnvironmentWithCapacity(parent *Environment, capacity int) *Environment {
	if capacity <= 0 {
		capacity = DefaultEnvCapacity
	}
	slog.Debug("------ new env ------",
		slog.Int("capacity", capacity),
		slog.Bool("root", parent == nil))
	return &Environment{
		parent:   parent,
		bindings: make([]binding, capacity),
	}
}

func (e *Environment) Parent() *Environment { return e.parent }

// Len returns the number of names bound locally.
func (e *Environment) Len() int { return e.count }

func (e *Environment) Capacity() int { return len(e.bindings) }

func (e *Environment) slot(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32() % uint32(len(e.bindings))
}

// find searches the table for name and returns the index of its slot, or of the first
// empty slot on the search path when name is unbound. The index is -1 when the
// table is full and name is not present.
func (e *Environment) find(name string) (int, bool) {
	capacity := len(e.bindings)
	start := int(e.slot(name))
	for i := 0; i < capacity; i++ {
		idx := (start + i) % capacity
		b := &e.bindings[idx]
		if !b.occupied {
			return idx, false
		}
		if b.name == name {
			return idx, true
		}
	}
	return -1, false
}

// Insert binds name to value in this environment, overwriting an existing
// local binding. It fails with ErrEnvironmentFull when every slot holds a
// different name.
func (e *Environment) Insert(name string, value Object) error {
	if value == nil {
		value = NIL
	}
	idx, found := e.find(name)
	if idx < 0 {
		return fmt.Errorf("%w: cannot bind %q, all %d slots in use", ErrEnvironmentFull, name, len(e.bindings))
	}
	b := &e.bindings[idx]
	if !found {
		b.name = name
		b.occupied = true
		e.count++
	}
	b.value = value
	slog.Debug("bind",
		slog.String("name", name),
		slog.String("type", string(value.Type())),
		slog.Bool("overwrite", found))
	return nil
}

// GetLocal looks name up in this environment only.
func (e *Environment) GetLocal(name string) (Object, bool) {
	idx, found := e.find(name)
	if !found {
		return nil, false
	}
	return e.bindings[idx].value, true
}

func (e *Environment) HasLocal(name string) bool {
	_, found := e.find(name)
	return found
}

// Get looks name up in this environment, then in each ancestor. The nearest
// binding wins.
func (e *Environment) Get(name string) (Object, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.GetLocal(name); ok {
			return v, true
		}
	}
	return nil, false
}

func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Each visits the local bindings in slot order.
func (e *Environment) Each(fn func(name string, value Object)) {
	for i := range e.bindings {
		b := &e.bindings[i]
		if b.occupied {
			fn(b.name, b.value)
		}
	}
}
