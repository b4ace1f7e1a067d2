package builtins

import (
	"math"
	"unicode/utf8"
	"wisp/internal/object"
)

// nativeRange yields the integers from bottom up to, but excluding, top. A
// negative step counts down instead.
func nativeRange(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) < 2 || len(args) > 3 {
		return object.NIL
	}

	bounds := make([]int64, 0, 3)
	for _, arg := range args {
		n, ok := arg.(*object.Integer)
		if !ok {
			return wrongType(a, "range", "INTEGER", arg)
		}
		bounds = append(bounds, n.Value)
	}

	bottom, top, step := bounds[0], bounds[1], int64(1)
	if len(bounds) == 3 {
		step = bounds[2]
	}
	if step == 0 {
		return object.NewError(a, "`range` step must not be zero")
	}

	var elements []object.Object
	for i := bottom; (step > 0 && i < top) || (step < 0 && i > top); i += step {
		elements = append(elements, object.NewInteger(a, i))
		// the next step would wrap around past the bound
		if (step > 0 && i > math.MaxInt64-step) || (step < 0 && i < math.MinInt64-step) {
			break
		}
	}
	return object.NewList(a, elements)
}

func nativeCar(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) != 1 {
		return object.NIL
	}
	l, ok := args[0].(*object.List)
	if !ok {
		return wrongType(a, "car", "LIST", args[0])
	}
	if len(l.Elements) == 0 {
		return object.NIL
	}
	return l.Elements[0]
}

// nativeCdr returns a new list sharing every element of its argument but the
// first.
func nativeCdr(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) != 1 {
		return object.NIL
	}
	l, ok := args[0].(*object.List)
	if !ok {
		return wrongType(a, "cdr", "LIST", args[0])
	}
	if len(l.Elements) == 0 {
		return object.NewList(a, nil)
	}
	rest := make([]object.Object, len(l.Elements)-1)
	copy(rest, l.Elements[1:])
	return object.NewList(a, rest)
}

func nativeList(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	elements := make([]object.Object, len(args))
	copy(elements, args)
	return object.NewList(a, elements)
}

func nativeLen(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) != 1 {
		return object.NIL
	}
	switch arg := args[0].(type) {
	case *object.List:
		return object.NewInteger(a, int64(len(arg.Elements)))
	case *object.String:
		return object.NewInteger(a, int64(utf8.RuneCountInString(arg.Value)))
	case *object.Nil:
		return object.NewInteger(a, 0)
	}
	return wrongType(a, "len", "LIST or STRING", args[0])
}
