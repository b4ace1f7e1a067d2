package evaluator

import (
	"errors"
	"fmt"
)

var (
	ErrNotCallable     = errors.New("first element of a call must be callable")
	ErrMaxDepth        = errors.New("maximum call depth exceeded")
	ErrUnsupportedNode = errors.New("unsupported syntax node")
)

// FatalError aborts an evaluation. The front end reports it and, for batch
// runs, exits with a non-zero status.
type FatalError struct {
	Node string
	Err  error
}

func (f *FatalError) Error() string {
	if f.Node == "" {
		return fmt.Sprintf("fatal: %v", f.Err)
	}
	return fmt.Sprintf("fatal: %v in %s", f.Err, f.Node)
}

func (f *FatalError) Unwrap() error {
	return f.Err
}

func fatal(node string, err error) *FatalError {
	return &FatalError{Node: node, Err: err}
}
