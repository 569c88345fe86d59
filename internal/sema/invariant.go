package sema

import (
	"errors"
	"fmt"
)

// ErrInvariant is matched by every *InvariantError.
var ErrInvariant = errors.New("invariant violation")

// InvariantError reports a broken contract between phases. It is raised with
// panic: an earlier phase produced inconsistent state and the script cannot
// be processed any further.
type InvariantError struct {
	Op     string // freeze, infer, collect, finalize
	Script string
	Msg    string
}

func (e *InvariantError) Error() string {
	if e.Script == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Script, e.Msg)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

func invariantf(op, script, format string, args ...any) {
	panic(&InvariantError{Op: op, Script: script, Msg: fmt.Sprintf(format, args...)})
}

// AsInvariant extracts an *InvariantError from a recovered panic value.
func AsInvariant(recovered any) (*InvariantError, bool) {
	err, ok := recovered.(error)
	if !ok {
		return nil, false
	}
	var inv *InvariantError
	if errors.As(err, &inv) {
		return inv, true
	}
	return nil, false
}
