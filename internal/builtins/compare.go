package builtins

import (
	"cmp"
	"wisp/internal/object"
)

type relation func(a object.Allocator, name string, x, y object.Object) (bool, *object.Error)

// compare builds a chained comparison native: it yields 1 when rel holds for
// every adjacent pair of arguments and nil otherwise.
func compare(name string, rel relation) object.NativeFunc {
	return func(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
		if len(args) < 2 {
			return object.NIL
		}
		for i := 1; i < len(args); i++ {
			ok, errObj := rel(a, name, args[i-1], args[i])
			if errObj != nil {
				return errObj
			}
			if !ok {
				return object.NIL
			}
		}
		return truth(a, true)
	}
}

func same(x, y object.Object) bool {
	xn, xok := toNumber(x)
	yn, yok := toNumber(y)
	if xok && yok {
		if xn.real || yn.real {
			return xn.f == yn.f
		}
		return xn.i == yn.i
	}

	switch xv := x.(type) {
	case *object.String:
		yv, ok := y.(*object.String)
		return ok && xv.Value == yv.Value
	case *object.Symbol:
		yv, ok := y.(*object.Symbol)
		return ok && xv.Name == yv.Name
	case *object.Nil:
		return object.IsNil(y)
	case *object.List:
		yv, ok := y.(*object.List)
		if !ok || len(xv.Elements) != len(yv.Elements) {
			return false
		}
		for i := range xv.Elements {
			if !same(xv.Elements[i], yv.Elements[i]) {
				return false
			}
		}
		return true
	}
	return x == y
}

func equal(_ object.Allocator, _ string, x, y object.Object) (bool, *object.Error) {
	return same(x, y), nil
}

func notEqual(_ object.Allocator, _ string, x, y object.Object) (bool, *object.Error) {
	return !same(x, y), nil
}

func ordered(accept func(c int) bool) relation {
	return func(a object.Allocator, name string, x, y object.Object) (bool, *object.Error) {
		xn, ok := toNumber(x)
		if !ok {
			if xs, isStr := x.(*object.String); isStr {
				ys, ok := y.(*object.String)
				if !ok {
					return false, wrongType(a, name, "STRING", y)
				}
				return accept(cmp.Compare(xs.Value, ys.Value)), nil
			}
			return false, wrongType(a, name, "INTEGER or REAL", x)
		}
		yn, ok := toNumber(y)
		if !ok {
			return false, wrongType(a, name, "INTEGER or REAL", y)
		}
		if xn.real || yn.real {
			return accept(cmp.Compare(xn.f, yn.f)), nil
		}
		return accept(cmp.Compare(xn.i, yn.i)), nil
	}
}
