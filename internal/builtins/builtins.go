package builtins

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"wisp/internal/object"
)

// Options configures the root environment built by Register.
type Options struct {
	// Out receives output from print, println and hello. Defaults to stdout.
	Out io.Writer
	// DB holds open database handles. Register creates one when nil.
	DB *Registry
}

type library struct {
	out io.Writer
	db  *Registry
}

// Register binds the native library and the constant t in env.
func Register(env *object.Environment, opts Options) error {
	lib := &library{out: opts.Out, db: opts.DB}
	if lib.out == nil {
		lib.out = os.Stdout
	}
	if lib.db == nil {
		lib.db = NewRegistry()
	}

	natives := map[string]object.NativeFunc{
		"+":  nativeAdd,
		"-":  nativeSub,
		"*":  nativeMul,
		"/":  nativeDiv,
		"=":  compare("=", equal),
		"/=": compare("/=", notEqual),
		"<":  compare("<", ordered(func(c int) bool { return c < 0 })),
		"<=": compare("<=", ordered(func(c int) bool { return c <= 0 })),
		">":  compare(">", ordered(func(c int) bool { return c > 0 })),
		">=": compare(">=", ordered(func(c int) bool { return c >= 0 })),

		"hello":   lib.hello,
		"print":   lib.print,
		"println": lib.println,

		"set":   nativeSet,
		"error": nativeError,

		"range": nativeRange,
		"car":   nativeCar,
		"cdr":   nativeCdr,
		"list":  nativeList,
		"len":   nativeLen,

		"gc-collect": nativeGcCollect,
		"gc-mode":    nativeGcMode,
		"gc-stats":   nativeGcStats,

		"db-open":     lib.dbOpen,
		"db-exec":     lib.dbExec,
		"db-query":    lib.dbQuery,
		"db-begin":    lib.dbBegin,
		"db-commit":   lib.dbCommit,
		"db-rollback": lib.dbRollback,
		"db-close":    lib.dbClose,
	}

	for name, fn := range natives {
		if err := env.Insert(name, object.NewNative(nil, name, fn)); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
	}
	if err := env.Insert("t", object.NewInteger(nil, 1)); err != nil {
		return fmt.Errorf("registering t: %w", err)
	}

	slog.Debug("natives registered", slog.Int("count", len(natives)+1))
	return nil
}

func wrongType(a object.Allocator, name string, want string, got object.Object) *object.Error {
	return object.NewError(a, "argument to `%s` must be %s, got %s", name, want, got.Type())
}

func truth(a object.Allocator, ok bool) object.Object {
	if ok {
		return object.NewInteger(a, 1)
	}
	return object.NIL
}
