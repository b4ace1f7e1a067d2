package builtins

import (
	"strings"
	"wisp/internal/gc"
	"wisp/internal/object"
)

// nativeSet binds a name, given as a symbol or a string, in the calling scope.
func nativeSet(a object.Allocator, env *object.Environment, args []object.Object) object.Object {
	if len(args) != 2 {
		return object.NIL
	}

	var name string
	switch n := args[0].(type) {
	case *object.Symbol:
		name = n.Name
	case *object.String:
		name = n.Value
	default:
		return wrongType(a, "set", "SYMBOL or STRING", args[0])
	}

	if err := env.Insert(name, args[1]); err != nil {
		return object.NewFatalError(a, err)
	}
	return object.NIL
}

func nativeError(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.Inspect()
	}
	return object.NewError(a, "%s", strings.Join(parts, " "))
}

func collector(a object.Allocator) (*gc.Collector, bool) {
	c, ok := a.(*gc.Collector)
	return c, ok && c != nil
}

// nativeGcCollect sweeps the collector the native was called with, rooted at
// the calling scope, and returns the number of values reclaimed.
func nativeGcCollect(a object.Allocator, env *object.Environment, args []object.Object) object.Object {
	if len(args) != 0 {
		return object.NIL
	}
	c, ok := collector(a)
	if !ok {
		return object.NewInteger(nil, 0)
	}
	return object.NewInteger(a, int64(c.Collect(env)))
}

// nativeGcMode reports the current collection mode or, given a mode name,
// switches to it.
func nativeGcMode(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) > 1 {
		return object.NIL
	}
	c, ok := collector(a)
	if !ok {
		return object.NIL
	}

	if len(args) == 1 {
		var name string
		switch n := args[0].(type) {
		case *object.Symbol:
			name = n.Name
		case *object.String:
			name = n.Value
		default:
			return wrongType(a, "gc-mode", "SYMBOL or STRING", args[0])
		}
		m, err := gc.ParseMode(name)
		if err != nil {
			return object.NewError(a, "%v", err)
		}
		c.SetMode(m)
	}
	return object.NewSymbol(a, c.Mode().String())
}

// nativeGcStats returns ((tracked n) (live n) (placeholders n) (reclaimed n) (sweeps n)).
func nativeGcStats(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) != 0 {
		return object.NIL
	}
	c, ok := collector(a)
	if !ok {
		return object.NIL
	}
	st := c.Stats()
	pair := func(name string, v int) object.Object {
		return object.NewList(a, []object.Object{object.NewSymbol(a, name), object.NewInteger(a, int64(v))})
	}
	return object.NewList(a, []object.Object{
		pair("tracked", st.Tracked),
		pair("live", st.Live),
		pair("placeholders", st.Placeholders),
		pair("reclaimed", st.Reclaimed),
		pair("sweeps", st.Sweeps),
	})
}
