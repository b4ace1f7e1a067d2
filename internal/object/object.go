package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"wisp/internal/ast"
)

const (
	INTEGER_OBJ = "INTEGER"
	REAL_OBJ    = "REAL"
	STRING_OBJ  = "STRING"
	SYMBOL_OBJ  = "SYMBOL"
	LIST_OBJ    = "LIST"
	NATIVE_OBJ  = "NATIVE"
	CLOSURE_OBJ = "CLOSURE"
	NIL_OBJ     = "NIL"
	ERROR_OBJ   = "ERROR"
)

// NIL is the shared nil value. It is never tracked by a collector and doubles
// as the placeholder left in reclaimed collector slots.
var NIL = &Nil{}

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
	header() *Header
}

// Header is embedded by every value and carries the collector's mark bit.
type Header struct {
	marked bool
}

func (h *Header) header() *Header { return h }

// Allocator receives every value created during evaluation. The collector is
// the only production implementation; a nil Allocator leaves values untracked.
type Allocator interface {
	Track(o Object)
}

// NativeFunc is the calling convention for host functions. A native may read
// or bind names in env and must allocate new values through a.
type NativeFunc func(a Allocator, env *Environment, args []Object) Object

// Alloc registers o with a, when a is non-nil, and returns it.
func Alloc[T Object](a Allocator, o T) T {
	if a != nil {
		a.Track(o)
	}
	return o
}

type Integer struct {
	Header
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Real struct {
	Header
	Value float64
}

func (r *Real) Type() ObjectType { return REAL_OBJ }
func (r *Real) Inspect() string {
	s := strconv.FormatFloat(r.Value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

type String struct {
	Header
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

type Symbol struct {
	Header
	Name string
}

func (s *Symbol) Type() ObjectType { return SYMBOL_OBJ }
func (s *Symbol) Inspect() string  { return s.Name }

type List struct {
	Header
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	var out bytes.Buffer

	elements := make([]string, 0, len(l.Elements))
	for _, e := range l.Elements {
		elements = append(elements, e.Inspect())
	}

	out.WriteString("(")
	out.WriteString(strings.Join(elements, " "))
	out.WriteString(")")

	return out.String()
}

type Native struct {
	Header
	Name string
	Fn   NativeFunc
}

func (n *Native) Type() ObjectType { return NATIVE_OBJ }
func (n *Native) Inspect() string  { return "(native " + n.Name + ")" }

// Closure pairs parameter names with an immutable body. Env is the scope the
// closure was defined in. Scope is a child of Env created at definition time;
// it is only used when calls are configured to share one persistent scope.
type Closure struct {
	Header
	Parameters []string
	Body       *ast.Program
	Env        *Environment
	Scope      *Environment
}

func (c *Closure) Type() ObjectType { return CLOSURE_OBJ }
func (c *Closure) Inspect() string {
	return "(lambda (" + strings.Join(c.Parameters, " ") + "))"
}

type Nil struct {
	Header
}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

type Error struct {
	Header
	Message string
	// Fatal is set by natives that hit a condition evaluation cannot
	// continue past, such as a full environment.
	Fatal error
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return "(Err " + e.Message + ")" }

func NewInteger(a Allocator, v int64) *Integer {
	return Alloc(a, &Integer{Value: v})
}

func NewReal(a Allocator, v float64) *Real {
	return Alloc(a, &Real{Value: v})
}

func NewString(a Allocator, v string) *String {
	return Alloc(a, &String{Value: v})
}

func NewSymbol(a Allocator, name string) *Symbol {
	return Alloc(a, &Symbol{Name: name})
}

func NewList(a Allocator, elements []Object) *List {
	if elements == nil {
		elements = []Object{}
	}
	return Alloc(a, &List{Elements: elements})
}

func NewError(a Allocator, format string, args ...any) *Error {
	return Alloc(a, &Error{Message: fmt.Sprintf(format, args...)})
}

// NewFatalError wraps err in an Error value that aborts evaluation.
func NewFatalError(a Allocator, err error) *Error {
	return Alloc(a, &Error{Message: err.Error(), Fatal: err})
}

func NewNative(a Allocator, name string, fn NativeFunc) *Native {
	return Alloc(a, &Native{Name: name, Fn: fn})
}

// NewNil returns the shared nil value; nil is never tracked.
func NewNil(Allocator) *Nil {
	return NIL
}

// IsNil reports whether o is absent or the nil value.
func IsNil(o Object) bool {
	return o == nil || o.Type() == NIL_OBJ
}

// IsTruthy treats every value except nil as true.
func IsTruthy(o Object) bool {
	return !IsNil(o)
}

// IsCallable reports whether o may appear at the head of a call form.
func IsCallable(o Object) bool {
	switch o.(type) {
	case *Native, *Closure:
		return true
	}
	return false
}
