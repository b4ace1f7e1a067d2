package builtins

import (
	"wisp/internal/object"
)

type number struct {
	i    int64
	f    float64
	real bool
}

func toNumber(o object.Object) (number, bool) {
	switch v := o.(type) {
	case *object.Integer:
		return number{i: v.Value, f: float64(v.Value)}, true
	case *object.Real:
		return number{f: v.Value, real: true}, true
	}
	return number{}, false
}

func (n number) object(a object.Allocator) object.Object {
	if n.real {
		return object.NewReal(a, n.f)
	}
	return object.NewInteger(a, n.i)
}

func numbers(a object.Allocator, name string, args []object.Object) ([]number, *object.Error) {
	nums := make([]number, len(args))
	for i, arg := range args {
		n, ok := toNumber(arg)
		if !ok {
			return nil, wrongType(a, name, "INTEGER or REAL", arg)
		}
		nums[i] = n
	}
	return nums, nil
}

// fold combines numbers left to right, switching to real arithmetic as soon
// as either operand is real.
func fold(nums []number, intOp func(x, y int64) int64, realOp func(x, y float64) float64) number {
	acc := nums[0]
	for _, n := range nums[1:] {
		if acc.real || n.real {
			acc = number{f: realOp(acc.f, n.f), real: true}
			continue
		}
		v := intOp(acc.i, n.i)
		acc = number{i: v, f: float64(v)}
	}
	return acc
}

func nativeAdd(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) == 0 {
		return object.NIL
	}
	nums, errObj := numbers(a, "+", args)
	if errObj != nil {
		return errObj
	}
	return fold(nums,
		func(x, y int64) int64 { return x + y },
		func(x, y float64) float64 { return x + y }).object(a)
}

func nativeSub(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) == 0 {
		return object.NIL
	}
	nums, errObj := numbers(a, "-", args)
	if errObj != nil {
		return errObj
	}
	if len(nums) == 1 {
		n := nums[0]
		return number{i: -n.i, f: -n.f, real: n.real}.object(a)
	}
	return fold(nums,
		func(x, y int64) int64 { return x - y },
		func(x, y float64) float64 { return x - y }).object(a)
}

func nativeMul(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) == 0 {
		return object.NIL
	}
	nums, errObj := numbers(a, "*", args)
	if errObj != nil {
		return errObj
	}
	return fold(nums,
		func(x, y int64) int64 { return x * y },
		func(x, y float64) float64 { return x * y }).object(a)
}

// nativeDiv divides the first argument by the product of the rest and always
// yields a real.
func nativeDiv(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) == 0 {
		return object.NIL
	}
	nums, errObj := numbers(a, "/", args)
	if errObj != nil {
		return errObj
	}
	divisor := 1.0
	for _, n := range nums[1:] {
		divisor *= n.f
	}
	if divisor == 0 {
		return object.NewError(a, "division by zero")
	}
	return object.NewReal(a, nums[0].f/divisor)
}
