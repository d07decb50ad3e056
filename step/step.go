// Package step holds the stepping state machine: a single
// (stopframe, lineno) value whose five sentinel configurations encode
// every stepping command uniformly. Grounded on bdb.py's set_step,
// set_next, set_until, set_return, and set_continue.
package step

import "github.com/gopherdbg/dbgcore/host"

// State is the pair (Stopframe, Lineno). Its five sentinel
// configurations:
//
//	(nil, 0)   stop at the next line event anywhere
//	(nil, -1)  never stop on a line event; only breakpoints pause execution
//	(F, 0)     stop on the next line event whose frame is F or below
//	(F, N>0)   stop in frame F when its line number >= N, or when F returns
//	(F, -1)    stop only when F returns
type State struct {
	Stopframe host.Frame
	Lineno    int
}

// SetStep arms "stop at the next line event anywhere".
func SetStep() State {
	return State{Stopframe: nil, Lineno: 0}
}

// SetNext arms stopping on the next event in f, or unconditionally
// when f returns — "step over" semantics. It differs from SetStep's
// (nil, 0) only in naming f as the stop frame; the dispatcher's
// stop_here/the return-event special case give it "over" behavior.
func SetNext(f host.Frame) State {
	return State{Stopframe: f, Lineno: 0}
}

// SetUntil arms stopping in f once its line reaches line, or when f
// returns. line == 0 means "the line after f's current line".
func SetUntil(f host.Frame, line int) State {
	if line == 0 {
		line = f.Line() + 1
	}
	return State{Stopframe: f, Lineno: line}
}

// SetReturn arms stopping only on f's return event.
func SetReturn(f host.Frame) State {
	return State{Stopframe: f, Lineno: -1}
}

// SetContinue arms "never stop on a line event; only breakpoints
// pause execution".
func SetContinue() State {
	return State{Stopframe: nil, Lineno: -1}
}

// StackEntry pairs a frame with the line it was stopped at, the unit
// get_stack walks and reports.
type StackEntry struct {
	Frame host.Frame
	Line  int
}
