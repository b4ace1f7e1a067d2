package builtins

import (
	"fmt"
	"strings"
	"wisp/internal/object"
)

func (l *library) hello(_ object.Allocator, _ *object.Environment, _ []object.Object) object.Object {
	fmt.Fprintln(l.out, "Hello from wisp!")
	return object.NIL
}

// print writes its arguments separated by single spaces, without a trailing
// newline.
func (l *library) print(_ object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.Inspect()
	}
	fmt.Fprint(l.out, strings.Join(parts, " "))
	return object.NIL
}

// println writes each argument on its own line.
func (l *library) println(_ object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	for _, arg := range args {
		fmt.Fprintln(l.out, arg.Inspect())
	}
	return object.NIL
}
