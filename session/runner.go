package session

import (
	"errors"

	"github.com/gopherdbg/dbgcore/host"
	"github.com/gopherdbg/dbgcore/step"
)

// Run wraps executing a statement under the traced frame bottom: it
// arms tracing (ignore-first-call-event defaults true, matching
// Bdb.run), guarantees teardown on every exit path, and swallows
// ErrQuit as the clean-exit case spec.md §5 describes. exec is the
// host's own execution of the traced code; it is expected to return
// ErrQuit (via errors.Is) whenever a Dispatch call reported it.
func (s *Session) Run(bottom host.Frame, exec func() error) error {
	s.reset(true, bottom)
	defer s.teardown()
	err := exec()
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

// RunEval is Run's analogue for evaluating an expression and
// returning its value.
func (s *Session) RunEval(bottom host.Frame, exec func() (any, error)) (any, error) {
	s.reset(true, bottom)
	defer s.teardown()
	v, err := exec()
	if errors.Is(err, ErrQuit) {
		return v, nil
	}
	return v, err
}

// RunCall is Run's analogue for invoking a callable directly
// (ignore-first-call-event defaults false, matching Bdb.runcall).
func (s *Session) RunCall(bottom host.Frame, exec func() (any, error)) (any, error) {
	s.reset(false, bottom)
	defer s.teardown()
	v, err := exec()
	if errors.Is(err, ErrQuit) {
		return v, nil
	}
	return v, err
}

// GetStack walks from frame up to bottom (inclusive), reverses that
// into bottom-to-top order, then appends tb in order — the Go shape
// of spec.md §6's get_stack(frame, traceback) -> (stack, focus-index).
// The returned index names the entry that was the original frame
// (or, when frame is part of tb, the last stack-walked entry).
func GetStack(frame host.Frame, bottom host.Frame, tb []host.Frame) ([]step.StackEntry, int) {
	var stack []step.StackEntry
	f := frame
	for f != nil {
		stack = append(stack, step.StackEntry{Frame: f, Line: f.Line()})
		if sameFrame(f, bottom) {
			f = nil
			break
		}
		f = f.Parent()
	}
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	focus := len(stack) - 1
	if focus < 0 {
		focus = 0
	}
	for _, t := range tb {
		stack = append(stack, step.StackEntry{Frame: t, Line: t.Line()})
	}
	return stack, focus
}

// FrameCursor is a minimal stack-navigation helper over a GetStack
// result; full navigation UX belongs to the out-of-scope interactive
// shell.
type FrameCursor struct {
	entries []step.StackEntry
	idx     int
}

// NewFrameCursor positions a cursor at focus within entries.
func NewFrameCursor(entries []step.StackEntry, focus int) *FrameCursor {
	return &FrameCursor{entries: entries, idx: focus}
}

// Current returns the entry the cursor is positioned at.
func (c *FrameCursor) Current() step.StackEntry { return c.entries[c.idx] }

// Up moves toward older frames (index 0).
func (c *FrameCursor) Up() error {
	if c.idx == 0 {
		return newStackNavigationError("already at the oldest frame")
	}
	c.idx--
	return nil
}

// Down moves toward newer frames (the end of entries).
func (c *FrameCursor) Down() error {
	if c.idx >= len(c.entries)-1 {
		return newStackNavigationError("already at the newest frame")
	}
	c.idx++
	return nil
}
