package builtins

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"wisp/internal/evaluator"
	"wisp/internal/gc"
	"wisp/internal/object"
	"wisp/internal/parser"
)

func testEval(t *testing.T, input string) (object.Object, string) {
	t.Helper()
	program, errs := parser.Parse(input)
	if len(errs) != 0 {
		t.Fatalf("parser errors for %q: %v", input, errs)
	}

	env := object.NewEnvironment(nil)
	out := &bytes.Buffer{}
	reg := NewRegistry()
	t.Cleanup(func() { _ = reg.CloseAll() })
	if err := Register(env, Options{Out: out, DB: reg}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := evaluator.New(evaluator.Config{}).Eval(program, env, gc.New(gc.Repl))
	if err != nil {
		t.Fatalf("unexpected error for %q: %v", input, err)
	}
	return result, out.String()
}

type evalCase struct {
	input    string
	expected string
}

func runCases(t *testing.T, tests []evalCase) {
	t.Helper()
	for i, tt := range tests {
		result, _ := testEval(t, tt.input)
		if got := result.Inspect(); got != tt.expected {
			t.Fatalf("tests[%d] - %q wrong. expected=%q, got=%q", i, tt.input, tt.expected, got)
		}
	}
}

func TestArithmetic(t *testing.T) {
	runCases(t, []evalCase{
		{"(+)", "nil"},
		{"(+ 1)", "1"},
		{"(+ 1 2 3)", "6"},
		{"(- 5)", "-5"},
		{"(- 10 3 2)", "5"},
		{"(*)", "nil"},
		{"(* 2 3 4)", "24"},
		{"(/ 10 2)", "5.0"},
		{"(/ 1 4)", "0.25"},
		{"(/ 12 2 3)", "2.0"},
		{"(+ 1 0.5)", "1.5"},
		{"(* 2.0 3)", "6.0"},
		{"(- 1.5)", "-1.5"},
		{"(/ 1 0)", "(Err division by zero)"},
		{"(+ 1 \"a\")", "(Err argument to `+` must be INTEGER or REAL, got STRING)"},
	})
}

func TestComparisonChains(t *testing.T) {
	runCases(t, []evalCase{
		{"(< 1 2 3)", "1"},
		{"(< 1 3 2)", "nil"},
		{"(<= 1 1 2)", "1"},
		{"(> 3 2 1)", "1"},
		{"(>= 3 3 4)", "nil"},
		{"(= 2 2 2)", "1"},
		{"(= 2 2 3)", "nil"},
		{"(/= 1 2 1)", "1"},
		{"(/= 1 1)", "nil"},
		{"(= 1 1.0)", "1"},
		{"(= \"a\" \"a\")", "1"},
		{"(= 'a 'b)", "nil"},
		{"(= '(1 2) (list 1 2))", "1"},
		{"(< \"a\" \"b\")", "1"},
		{"(<)", "nil"},
		{"(< 1)", "nil"},
		{"(< 1 'a)", "(Err argument to `<` must be INTEGER or REAL, got SYMBOL)"},
	})
}

func TestLists(t *testing.T) {
	runCases(t, []evalCase{
		{"(range 0 5)", "(0 1 2 3 4)"},
		{"(range 0 10 3)", "(0 3 6 9)"},
		{"(range 5 0 -2)", "(5 3 1)"},
		{"(range 3 3)", "()"},
		{"(range 1)", "nil"},
		{"(range 0 1 0)", "(Err `range` step must not be zero)"},
		{"(car '(a b c))", "a"},
		{"(car '())", "nil"},
		{"(cdr '(a b c))", "(b c)"},
		{"(cdr '(a))", "()"},
		{"(car (cdr (range 0 3)))", "1"},
		{"(car 1)", "(Err argument to `car` must be LIST, got INTEGER)"},
		{"(list 1 \"s\" 'x)", "(1 s x)"},
		{"(list)", "()"},
		{"(len (range 0 4))", "4"},
		{"(len \"héllo\")", "5"},
		{"(len nil)", "0"},
	})
}

func TestSet(t *testing.T) {
	runCases(t, []evalCase{
		{"(set 'a 5) a", "5"},
		{"(set \"b\" 6) b", "6"},
		{"(set 'a 1) (set 'a 2) a", "2"},
		{"(set 'a)", "nil"},
		{"(set 1 2)", "(Err argument to `set` must be SYMBOL or STRING, got INTEGER)"},
		{"(error \"bad\" 1)", "(Err bad 1)"},
	})
}

func TestOutput(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"(print 1 \"two\" 'three)", "1 two three"},
		{"(println 1 2.5 '(a b))", "1\n2.5\n(a b)\n"},
		{"(hello)", "Hello from wisp!\n"},
		{"(print)", ""},
	}

	for i, tt := range tests {
		result, out := testEval(t, tt.input)
		if result != object.NIL {
			t.Fatalf("tests[%d] - output natives return nil, got=%s", i, result.Inspect())
		}
		if out != tt.output {
			t.Fatalf("tests[%d] - output wrong. expected=%q, got=%q", i, tt.output, out)
		}
	}
}

func TestGcNatives(t *testing.T) {
	runCases(t, []evalCase{
		{"(gc-mode)", "repl"},
		{"(gc-mode 'off) (gc-mode)", "off"},
		{"(gc-mode \"interpret\")", "interpret"},
		{"(gc-mode 'never)", "(Err unknown gc mode \"never\")"},
		{"(+ 1 2) (+ 3 4) (gc-collect)", "6"},
	})

	result, _ := testEval(t, "(gc-collect) (gc-stats)")
	if !strings.HasPrefix(result.Inspect(), "((tracked ") || !strings.Contains(result.Inspect(), "(sweeps 1)") {
		t.Fatalf("unexpected stats: %s", result.Inspect())
	}
}

func TestRegisterBindsConstants(t *testing.T) {
	env := object.NewEnvironment(nil)
	if err := Register(env, Options{Out: &bytes.Buffer{}}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	for _, name := range []string{"+", "/=", "println", "set", "range", "car", "cdr", "db-open", "gc-collect"} {
		v, ok := env.Get(name)
		if !ok || v.Type() != object.NATIVE_OBJ {
			t.Fatalf("%s should be bound to a native, got=%v", name, v)
		}
	}
	v, ok := env.Get("t")
	if !ok || v.Inspect() != "1" {
		t.Fatalf("t should be bound to 1, got=%v", v)
	}
}

func TestRegisterFailsOnFullEnvironment(t *testing.T) {
	env := object.NewEnvironmentWithCapacity(nil, 4)
	if err := Register(env, Options{Out: &bytes.Buffer{}}); err == nil {
		t.Fatalf("expected an error registering into a tiny environment")
	}
}

func TestRangeNearIntegerLimits(t *testing.T) {
	tests := []struct {
		args     []int64
		expected []int64
	}{
		{[]int64{math.MaxInt64 - 1, math.MaxInt64, 2}, []int64{math.MaxInt64 - 1}},
		{[]int64{math.MaxInt64 - 5, math.MaxInt64, 3}, []int64{math.MaxInt64 - 5, math.MaxInt64 - 2}},
		{[]int64{math.MinInt64 + 1, math.MinInt64, -2}, []int64{math.MinInt64 + 1}},
		{[]int64{math.MinInt64 + 4, math.MinInt64, -3}, []int64{math.MinInt64 + 4, math.MinInt64 + 1}},
	}

	for i, tt := range tests {
		args := make([]object.Object, len(tt.args))
		for j, v := range tt.args {
			args[j] = &object.Integer{Value: v}
		}
		list, ok := nativeRange(nil, nil, args).(*object.List)
		if !ok {
			t.Fatalf("tests[%d] - expected a list", i)
		}
		if len(list.Elements) != len(tt.expected) {
			t.Fatalf("tests[%d] - length wrong. expected=%d, got=%d", i, len(tt.expected), len(list.Elements))
		}
		for j, want := range tt.expected {
			if got := list.Elements[j].(*object.Integer).Value; got != want {
				t.Fatalf("tests[%d] - element %d wrong. expected=%d, got=%d", i, j, want, got)
			}
		}
	}
}
