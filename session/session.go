// Package session wires the module index, breakpoint registry, and
// stepping state into the single entry point a host's trace callback
// calls on every debug event, plus the runner facade that arms and
// tears down tracing around one execution. Grounded on
// original_source/Lib/bdb.py's Bdb class: trace_dispatch, the
// dispatch_* methods, _set_stopinfo, _get_trace_function,
// _stop_tracing, run/runeval/runcall/set_trace.
package session

import (
	"github.com/gopherdbg/dbgcore/breakpoint"
	"github.com/gopherdbg/dbgcore/config"
	"github.com/gopherdbg/dbgcore/host"
	"github.com/gopherdbg/dbgcore/step"
	"go.uber.org/zap"
)

// LineHits is the (stop, delete) pair break_here reports: the sorted
// breakpoint numbers that demand a stop, and the sorted numbers of
// temporaries among them that have already been cleared from the
// registry by the time OnLine fires.
type LineHits struct {
	Stop        []int
	Temporaries []int
}

// Hooks are the four user-interaction entry points of spec.md §6, all
// no-ops by default (NopHooks). Idiomatic Go favors a struct of
// callbacks here over the original's virtual-method subclassing.
type Hooks struct {
	OnCall      func(frame host.Frame, arg any)
	OnLine      func(frame host.Frame, hits *LineHits)
	OnReturn    func(frame host.Frame, retval any)
	OnException func(frame host.Frame, exc host.ExceptionInfo)
}

// NopHooks is the zero value of Hooks: every callback nil, every
// event a silent no-op.
var NopHooks = Hooks{}

// Session is the trace dispatcher, runner facade, and breakpoint/
// stepping-state owner for one debugging session. Not safe for
// concurrent use by more than one traced goroutine at a time (§5).
type Session struct {
	opts config.Options
	caps host.Capabilities
	reg  *breakpoint.Registry
	log  *zap.Logger

	step                 step.State
	quitting             bool
	ignoreFirstCallEvent bool
	tracingActive        bool
	bottom               host.Frame

	// tracedFrames replaces the original's mutable per-frame f_trace
	// slot with an explicit side table keyed by frame identity (§9
	// design note): the core asks "should this frame still receive
	// events" instead of reaching into the frame to install a hook.
	tracedFrames map[host.FrameID]bool

	hooks Hooks
}

// New constructs a Session over the given capabilities. caps.Compiler
// and caps.SourceProvider must be non-nil; caps.Evaluator may be nil
// only if no breakpoint ever carries a condition.
func New(opts config.Options, caps host.Capabilities, hooks Hooks) (*Session, error) {
	if caps.Compiler == nil {
		return nil, &SourceError{Msg: "session: no Compiler capability supplied"}
	}
	if caps.SourceProvider == nil {
		return nil, &SourceError{Msg: "session: no SourceProvider capability supplied"}
	}
	return &Session{
		opts:          opts,
		caps:          caps,
		reg:           breakpoint.New(caps.SourceProvider, caps.Compiler),
		log:           zap.NewNop(),
		step:          step.SetStep(),
		tracingActive: true,
		tracedFrames:  make(map[host.FrameID]bool),
		hooks:         hooks,
	}, nil
}

// SetLogger overrides the session's diagnostic logger (a no-op
// logger by default), the way chariot/runtime.go wires a constructed
// zap.Logger into its runtime rather than defaulting to stderr.
func (s *Session) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// Registry exposes the breakpoint engine for UI mutator calls
// (set_break/clear_*/restart in spec.md §4.6 terms).
func (s *Session) Registry() *breakpoint.Registry { return s.reg }

func (s *Session) resolveIgnoreFirstCall(def bool) bool {
	if s.opts.IgnoreFirstCallEvent != nil {
		return *s.opts.IgnoreFirstCallEvent
	}
	return def
}

// reset mirrors Bdb._reset: fresh stepping state, quitting cleared,
// a new bottom frame and traced-frame side table.
func (s *Session) reset(ignoreFirstCall bool, bottom host.Frame) {
	s.ignoreFirstCallEvent = s.resolveIgnoreFirstCall(ignoreFirstCall)
	s.quitting = false
	s.step = step.SetStep()
	s.bottom = bottom
	s.tracingActive = true
	s.tracedFrames = make(map[host.FrameID]bool)
	if bottom != nil {
		s.tracedFrames[bottom.ID()] = true
	}
}

// teardown mirrors Bdb._stop_tracing: global tracing off, every
// traced-frame entry cleared so the host stops delivering events
// everywhere the session had reached.
func (s *Session) teardown() {
	s.tracingActive = false
	s.tracedFrames = make(map[host.FrameID]bool)
	s.log.Debug("dbgcore: tracing torn down")
}

// IsTraced reports whether frame is in the side table a host should
// consult before installing its own per-frame trace hook — the typed
// replacement for testing a mutable f_trace slot.
func (s *Session) IsTraced(frame host.Frame) bool {
	if frame == nil {
		return false
	}
	return s.tracedFrames[frame.ID()]
}

func (s *Session) installTrace(f host.Frame) {
	if f != nil {
		s.tracedFrames[f.ID()] = true
	}
}

// SetStep arms "stop at the next line event anywhere".
func (s *Session) SetStep() { s.step = step.SetStep() }

// SetNext arms "stop on the next event in f or below, unconditionally
// on return from f".
func (s *Session) SetNext(f host.Frame) {
	s.step = step.SetNext(f)
	s.installTrace(f)
}

// SetUntil arms "stop in f when its line reaches line (0 meaning
// f.Line()+1), or when f returns".
func (s *Session) SetUntil(f host.Frame, line int) {
	s.step = step.SetUntil(f, line)
	s.installTrace(f)
}

// SetReturn arms "stop only when f returns".
func (s *Session) SetReturn(f host.Frame) {
	s.step = step.SetReturn(f)
	s.installTrace(f)
}

// SetContinue arms "only breakpoints pause execution" and, if none
// remain anywhere, tears down tracing entirely for zero overhead.
func (s *Session) SetContinue() {
	s.step = step.SetContinue()
	if !s.reg.HasBreaks() {
		s.teardown()
	}
}

// SetQuit latches quitting and tears down tracing immediately. Safe
// to call more than once.
func (s *Session) SetQuit() {
	s.quitting = true
	s.teardown()
}

// SetTrace resets the session for an attach starting at caller: the
// ignore-first-call default is false (unlike Run/RunEval), caller
// becomes the new bottom frame, and tracing is armed globally in step
// mode.
func (s *Session) SetTrace(caller host.Frame) {
	s.reset(false, caller)
}
