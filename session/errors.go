package session

import (
	"errors"
	"fmt"

	"github.com/gopherdbg/dbgcore/breakpoint"
	"github.com/gopherdbg/dbgcore/modindex"
)

// ErrQuit signals that the debugging session is unwinding because the
// UI called SetQuit. A runner facade method (Run/RunEval/RunCall)
// swallows it as a clean exit; any other caller should check for it
// with errors.Is before treating Dispatch's error as a real failure.
var ErrQuit = errors.New("dbgcore: session quit")

// SourceError and SyntaxError are the session-level names for the
// module index's own error types: "no readable lines", "line after
// the last valid statement", "function not found" (SourceError), and
// "file exists but does not compile" (SyntaxError, wrapping the
// compiler's message). Aliased rather than redeclared so breakpoint
// and modindex callers and session callers share one taxonomy.
type SourceError = modindex.SourceError
type SyntaxError = modindex.SyntaxError

// BadBreakpointError is the session-level name for a missing,
// out-of-range, or already-deleted breakpoint-number argument.
type BadBreakpointError = breakpoint.BadBreakpointError

// StackNavigationError reports a stack-cursor move above the oldest
// frame or below the newest.
type StackNavigationError struct {
	Msg string
}

func (e *StackNavigationError) Error() string { return e.Msg }

func newStackNavigationError(format string, args ...any) error {
	return &StackNavigationError{Msg: fmt.Sprintf(format, args...)}
}
