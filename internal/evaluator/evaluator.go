package evaluator

import (
	"fmt"
	"log/slog"
	"wisp/internal/ast"
	"wisp/internal/gc"
	"wisp/internal/object"
)

const (
	DefaultMaxDepth        = 10000
	DefaultCallEnvCapacity = 64
)

type Config struct {
	// SoftErrors turns a non-callable call head into an Error value instead
	// of a fatal error.
	SoftErrors bool
	// SharedClosureScope binds arguments into one scope per closure that
	// persists across calls, instead of a fresh scope per call.
	SharedClosureScope bool
	// MaxDepth bounds nested closure calls; zero means DefaultMaxDepth.
	MaxDepth int
	// CallEnvCapacity is the slot count of each call scope; zero means
	// DefaultCallEnvCapacity.
	CallEnvCapacity int
}

type Evaluator struct {
	Config Config
	depth  int
}

func New(cfg Config) *Evaluator {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.CallEnvCapacity <= 0 {
		cfg.CallEnvCapacity = DefaultCallEnvCapacity
	}
	return &Evaluator{Config: cfg}
}

// Eval evaluates node in env and tracks every allocated value in c. A nil
// collector leaves values untracked. The syntax tree is never modified, so
// the same node may be evaluated repeatedly.
func (e *Evaluator) Eval(node ast.Node, env *object.Environment, c *gc.Collector) (object.Object, error) {
	if node == nil {
		return object.NIL, nil
	}
	return e.eval(node, node.IsQuoted(), env, c)
}

func allocator(c *gc.Collector) object.Allocator {
	if c == nil {
		return nil
	}
	return c
}

func (e *Evaluator) eval(node ast.Node, quoted bool, env *object.Environment, c *gc.Collector) (object.Object, error) {
	quoted = quoted || node.IsQuoted()
	if quoted {
		return e.evalQuoted(node, env, c)
	}

	a := allocator(c)

	switch node := node.(type) {
	case *ast.Program:
		return e.evalProgram(node, env, c)

	case *ast.List:
		return e.evalCall(node, env, c)

	case *ast.FunctionLiteral:
		return e.evalFunctionLiteral(node, env, c), nil

	case *ast.Conditional:
		return e.evalConditional(node, env, c)

	case *ast.NumberLiteral:
		return object.NewInteger(a, int64(node.Value)), nil

	case *ast.RealLiteral:
		return object.NewReal(a, node.Value), nil

	case *ast.StringLiteral:
		return object.NewString(a, node.Value), nil

	case *ast.Symbol:
		return e.evalSymbol(node, env), nil

	case *ast.Nil:
		return object.NIL, nil
	}

	return nil, fatal(node.String(), fmt.Errorf("%w: %T", ErrUnsupportedNode, node))
}

// evalQuoted renders node as data. Lists become list values whose elements
// are rendered quoted in turn; symbols become symbol values.
func (e *Evaluator) evalQuoted(node ast.Node, env *object.Environment, c *gc.Collector) (object.Object, error) {
	a := allocator(c)

	switch node := node.(type) {
	case *ast.List:
		elements := make([]object.Object, 0, len(node.Elements))
		for _, el := range node.Elements {
			v, err := e.evalQuoted(el, env, c)
			if err != nil {
				return nil, err
			}
			elements = append(elements, v)
		}
		return object.NewList(a, elements), nil

	case *ast.Symbol:
		return object.NewSymbol(a, node.Value), nil

	case *ast.NumberLiteral:
		return object.NewInteger(a, int64(node.Value)), nil

	case *ast.RealLiteral:
		return object.NewReal(a, node.Value), nil

	case *ast.StringLiteral:
		return object.NewString(a, node.Value), nil
	}

	return object.NIL, nil
}

func (e *Evaluator) evalProgram(program *ast.Program, env *object.Environment, c *gc.Collector) (object.Object, error) {
	var result object.Object = object.NIL

	for _, form := range program.Forms {
		v, err := e.eval(form, false, env, c)
		if err != nil {
			return nil, err
		}
		result = v

		if c != nil && c.Mode().SweepsPerStatement() {
			c.Collect(env, result)
		}
	}

	return result, nil
}

func (e *Evaluator) evalCall(list *ast.List, env *object.Environment, c *gc.Collector) (object.Object, error) {
	if len(list.Elements) == 0 {
		return object.NewList(allocator(c), nil), nil
	}

	head, err := e.eval(list.Elements[0], false, env, c)
	if err != nil {
		return nil, err
	}
	if !object.IsCallable(head) {
		if e.Config.SoftErrors {
			return object.NewError(allocator(c), "%s: %s", ErrNotCallable, head.Inspect()), nil
		}
		return nil, fatal(list.String(), fmt.Errorf("%w: got %s", ErrNotCallable, head.Type()))
	}

	args, err := e.evalArguments(list.Elements[1:], env, c)
	if err != nil {
		return nil, err
	}

	switch fn := head.(type) {
	case *object.Native:
		result := fn.Fn(allocator(c), env, args)
		if result == nil {
			return object.NIL, nil
		}
		if errObj, ok := result.(*object.Error); ok && errObj.Fatal != nil {
			return nil, fatal(list.String(), fmt.Errorf("%s: %w", fn.Name, errObj.Fatal))
		}
		return result, nil

	case *object.Closure:
		return e.callClosure(fn, c, args)
	}

	return object.NIL, nil
}

func (e *Evaluator) evalArguments(nodes []ast.Node, env *object.Environment, c *gc.Collector) ([]object.Object, error) {
	args := make([]object.Object, 0, len(nodes))
	for _, n := range nodes {
		v, err := e.eval(n, false, env, c)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (e *Evaluator) evalFunctionLiteral(fl *ast.FunctionLiteral, env *object.Environment, c *gc.Collector) object.Object {
	closure := &object.Closure{
		Parameters: fl.ParameterNames(),
		Body:       fl.Body,
		Env:        env,
	}
	if e.Config.SharedClosureScope {
		closure.Scope = object.NewEnvironmentWithCapacity(env, e.Config.CallEnvCapacity)
	}
	return object.Alloc(allocator(c), closure)
}

func (e *Evaluator) evalConditional(cond *ast.Conditional, env *object.Environment, c *gc.Collector) (object.Object, error) {
	test, err := e.eval(cond.Condition, false, env, c)
	if err != nil {
		return nil, err
	}

	if object.IsTruthy(test) {
		return e.eval(cond.Consequence, false, env, c)
	}
	if cond.Alternative != nil {
		return e.eval(cond.Alternative, false, env, c)
	}
	return object.NIL, nil
}

func (e *Evaluator) evalSymbol(sym *ast.Symbol, env *object.Environment) object.Object {
	if v, ok := env.Get(sym.Value); ok {
		return v
	}
	slog.Debug("unbound symbol", slog.String("name", sym.Value))
	return object.NIL
}
