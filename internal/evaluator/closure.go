package evaluator

import (
	"fmt"
	"log/slog"
	"wisp/internal/gc"
	"wisp/internal/object"
)

// callClosure binds args in a call scope and evaluates the body with its own
// collector. The result is copied into the caller's collector before the call
// collector is released.
func (e *Evaluator) callClosure(fn *object.Closure, caller *gc.Collector, args []object.Object) (object.Object, error) {
	if len(args) != len(fn.Parameters) {
		slog.Debug("arity mismatch",
			slog.Any("closure", fn.Inspect()),
			slog.Int("expected", len(fn.Parameters)),
			slog.Int("got", len(args)))
		return object.NIL, nil
	}

	if e.depth >= e.Config.MaxDepth {
		return nil, fatal(fn.Inspect(), fmt.Errorf("%w (%d)", ErrMaxDepth, e.Config.MaxDepth))
	}
	e.depth++
	defer func() { e.depth-- }()

	scope := fn.Scope
	if !e.Config.SharedClosureScope || scope == nil {
		scope = object.NewEnvironmentWithCapacity(fn.Env, e.Config.CallEnvCapacity)
	}

	for i, name := range fn.Parameters {
		if err := scope.Insert(name, args[i]); err != nil {
			return nil, fatal(fn.Inspect(), err)
		}
	}

	callGC := gc.New(gc.Interpret)
	defer callGC.Release()

	result, err := e.evalProgram(fn.Body, scope, callGC)
	if err != nil {
		return nil, err
	}

	return object.Clone(result, allocator(caller)), nil
}
