package evaluator

import (
	"bytes"
	"errors"
	"testing"
	"wisp/internal/builtins"
	"wisp/internal/gc"
	"wisp/internal/object"
	"wisp/internal/parser"
)

type session struct {
	ev  *Evaluator
	env *object.Environment
	gc  *gc.Collector
	out *bytes.Buffer
}

func newSession(t *testing.T, cfg Config, mode gc.Mode) *session {
	t.Helper()
	s := &session{
		ev:  New(cfg),
		env: object.NewEnvironment(nil),
		gc:  gc.New(mode),
		out: &bytes.Buffer{},
	}
	if err := builtins.Register(s.env, builtins.Options{Out: s.out}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return s
}

func (s *session) run(t *testing.T, input string) (object.Object, error) {
	t.Helper()
	program, errs := parser.Parse(input)
	if len(errs) != 0 {
		t.Fatalf("parser errors for %q: %v", input, errs)
	}
	return s.ev.Eval(program, s.env, s.gc)
}

func testEval(t *testing.T, input string) object.Object {
	t.Helper()
	s := newSession(t, Config{}, gc.Repl)
	result, err := s.run(t, input)
	if err != nil {
		t.Fatalf("unexpected error for %q: %v", input, err)
	}
	return result
}

func TestEvalInspect(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"5", "5"},
		{"-7", "-7"},
		{"2.5", "2.5"},
		{"\"hello\"", "hello"},
		{"nil", "nil"},
		{"t", "1"},
		{"unbound", "nil"},
		{"()", "()"},
		{"", "nil"},
		{"1 2 3", "3"},
		{"(+ 1 2)", "3"},
		{"((fn (x y) (+ x y)) 2 3)", "5"},
		{"((fn () 1 2 (list 3 4)))", "(3 4)"},
	}

	for i, tt := range tests {
		if got := testEval(t, tt.input).Inspect(); got != tt.expected {
			t.Fatalf("tests[%d] - %q wrong. expected=%q, got=%q", i, tt.input, tt.expected, got)
		}
	}
}

func TestQuotedForms(t *testing.T) {
	result := testEval(t, "'(a b (c d))")
	list, ok := result.(*object.List)
	if !ok {
		t.Fatalf("expected *object.List, got=%T (%+v)", result, result)
	}
	if len(list.Elements) != 3 {
		t.Fatalf("expected 3 elements, got=%d", len(list.Elements))
	}
	for i, name := range []string{"a", "b"} {
		sym, ok := list.Elements[i].(*object.Symbol)
		if !ok || sym.Name != name {
			t.Fatalf("element %d should be symbol %s, got=%s", i, name, list.Elements[i].Inspect())
		}
	}
	inner, ok := list.Elements[2].(*object.List)
	if !ok || inner.Inspect() != "(c d)" {
		t.Fatalf("nested element should be the list (c d), got=%s", list.Elements[2].Inspect())
	}
	if _, ok := inner.Elements[0].(*object.Symbol); !ok {
		t.Fatalf("nested elements should be symbols, got=%T", inner.Elements[0])
	}

	tests := []struct {
		input    string
		expected object.ObjectType
	}{
		{"'x", object.SYMBOL_OBJ},
		{"'5", object.INTEGER_OBJ},
		{"'1.5", object.REAL_OBJ},
		{"'\"s\"", object.STRING_OBJ},
		{"'(fn (x) x)", object.NIL_OBJ},
		{"'(+ 1 2)", object.LIST_OBJ},
	}
	for i, tt := range tests {
		if got := testEval(t, tt.input).Type(); got != tt.expected {
			t.Fatalf("tests[%d] - %q type wrong. expected=%s, got=%s", i, tt.input, tt.expected, got)
		}
	}
}

func TestConditional(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{"(if t 1 2)", "1", ""},
		{"(if nil 1 2)", "2", ""},
		{"(if 0 1 2)", "1", ""},
		{"(if nil 1)", "nil", ""},
		{"(if (< 1 2) (println \"yes\") (println \"no\"))", "nil", "yes\n"},
		{"(if '() 'empty 'none)", "empty", ""},
	}

	for i, tt := range tests {
		s := newSession(t, Config{}, gc.Repl)
		result, err := s.run(t, tt.input)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if result.Inspect() != tt.expected {
			t.Fatalf("tests[%d] - result wrong. expected=%q, got=%q", i, tt.expected, result.Inspect())
		}
		if s.out.String() != tt.output {
			t.Fatalf("tests[%d] - output wrong. expected=%q, got=%q", i, tt.output, s.out.String())
		}
	}
}

func TestArityMismatchHasNoSideEffects(t *testing.T) {
	tests := []string{
		"(set 'f (fn (x) (println \"called\") x)) (f 1 2)",
		"(set 'f (fn (x) (println \"called\") x)) (f)",
		"(set 'g (fn (a b) (println \"called\") a)) (g 1)",
		"(set 'g (fn (a b) (println \"called\") a)) (g 1 2 3)",
	}

	for i, input := range tests {
		s := newSession(t, Config{}, gc.Repl)
		result, err := s.run(t, input)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if result != object.NIL {
			t.Fatalf("tests[%d] - expected nil, got=%s", i, result.Inspect())
		}
		if s.out.Len() != 0 {
			t.Fatalf("tests[%d] - body ran despite arity mismatch: %q", i, s.out.String())
		}
	}
}

func TestClosures(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(set 'make (fn (n) (fn (x) (+ x n)))) (set 'add5 (make 5)) (add5 10)", "15"},
		{"(set 'fact (fn (n) (if (<= n 1) 1 (* n (fact (- n 1)))))) (fact 10)", "3628800"},
		{"(set 'x 1) (set 'f (fn (x) x)) (f 2) x", "1"},
		{"(set 'f (fn () (set 'local 3) local)) (f) local", "nil"},
		{"(set 'twice (fn (g v) (g (g v)))) (twice (fn (n) (* n 2)) 3)", "12"},
	}

	for i, tt := range tests {
		if got := testEval(t, tt.input).Inspect(); got != tt.expected {
			t.Fatalf("tests[%d] - %q wrong. expected=%q, got=%q", i, tt.input, tt.expected, got)
		}
	}
}

func TestSharedClosureScope(t *testing.T) {
	input := "(set 'f (fn (x) (if (= x 0) y (set 'y x)))) (f 5) (f 0)"

	shared := newSession(t, Config{SharedClosureScope: true}, gc.Repl)
	result, err := shared.run(t, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inspect() != "5" {
		t.Fatalf("shared scope should persist y. got=%s", result.Inspect())
	}

	fresh := newSession(t, Config{}, gc.Repl)
	result, err = fresh.run(t, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != object.NIL {
		t.Fatalf("fresh call scopes should not persist y. got=%s", result.Inspect())
	}
}

func TestCallResultIsCopiedToCaller(t *testing.T) {
	s := newSession(t, Config{}, gc.Repl)
	result, err := s.run(t, "((fn (n) (range 0 n)) 3)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := result.(*object.List)
	if !ok || list.Inspect() != "(0 1 2)" {
		t.Fatalf("unexpected result: %s", result.Inspect())
	}
	if !s.gc.IsTracked(list) || !s.gc.IsTracked(list.Elements[0]) {
		t.Fatalf("call result should be tracked by the caller's collector")
	}
}

func TestFatalErrors(t *testing.T) {
	tests := []struct {
		input string
		cfg   Config
		err   error
	}{
		{"(1 2)", Config{}, ErrNotCallable},
		{"(\"f\")", Config{}, ErrNotCallable},
		{"(set 'loop (fn (n) (loop n))) (loop 1)", Config{MaxDepth: 50}, ErrMaxDepth},
		{"((fn (a b) a) 1 2)", Config{CallEnvCapacity: 1}, object.ErrEnvironmentFull},
		{"((fn (a) (set 'b 2)) 1)", Config{CallEnvCapacity: 1}, object.ErrEnvironmentFull},
	}

	for i, tt := range tests {
		s := newSession(t, tt.cfg, gc.Repl)
		_, err := s.run(t, tt.input)
		if err == nil {
			t.Fatalf("tests[%d] - expected an error for %q", i, tt.input)
		}
		var fatalErr *FatalError
		if !errors.As(err, &fatalErr) {
			t.Fatalf("tests[%d] - expected *FatalError, got=%T", i, err)
		}
		if !errors.Is(err, tt.err) {
			t.Fatalf("tests[%d] - error wrong. expected=%v, got=%v", i, tt.err, err)
		}
	}
}

func TestSoftErrors(t *testing.T) {
	s := newSession(t, Config{SoftErrors: true}, gc.Repl)
	result, err := s.run(t, "(1 2) 7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inspect() != "7" {
		t.Fatalf("evaluation should continue past a soft error. got=%s", result.Inspect())
	}

	result, err = s.run(t, "(1 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Type() != object.ERROR_OBJ {
		t.Fatalf("expected an error value, got=%s", result.Type())
	}
}

func TestReevaluationIsStable(t *testing.T) {
	s := newSession(t, Config{}, gc.Interpret)
	program, errs := parser.Parse("(set 'sq (fn (x) (* x x))) (list (sq 2) (sq 3) '(a b))")
	if len(errs) != 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	before := program.String()

	for i := 0; i < 3; i++ {
		result, err := s.ev.Eval(program, s.env, s.gc)
		if err != nil {
			t.Fatalf("run %d - unexpected error: %v", i, err)
		}
		if result.Inspect() != "(4 9 (a b))" {
			t.Fatalf("run %d - result wrong. got=%s", i, result.Inspect())
		}
	}
	if program.String() != before {
		t.Fatalf("evaluation modified the syntax tree. before=%s, after=%s", before, program.String())
	}
}

func TestProgramSweepsPerStatement(t *testing.T) {
	s := newSession(t, Config{}, gc.Interpret)
	result, err := s.run(t, "(set 'x (list 1 2)) (+ 1 2) (+ 3 4)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inspect() != "7" {
		t.Fatalf("result wrong. got=%s", result.Inspect())
	}

	x, _ := s.env.Get("x")
	if !s.gc.IsTracked(x) || !s.gc.IsTracked(x.(*object.List).Elements[1]) {
		t.Fatalf("bound list was reclaimed")
	}
	if !s.gc.IsTracked(result) {
		t.Fatalf("statement result was reclaimed")
	}
	// the symbol x, the list and its two elements, and the final 7
	if got := s.gc.Stats().Live; got != 5 {
		t.Fatalf("intermediates survived the per-statement sweeps. live=%d", got)
	}
}
