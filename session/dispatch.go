package session

import (
	"path"
	"sort"

	"github.com/gopherdbg/dbgcore/host"
	"github.com/gopherdbg/dbgcore/pathkey"
	"github.com/gopherdbg/dbgcore/step"
	"go.uber.org/zap"
)

// Dispatch is the single entry point a host's trace callback invokes
// on every debug event. It returns whether the host should keep
// delivering events to this frame (the typed replacement for
// "returning self.trace_dispatch" vs "returning nil"), and a non-nil
// error only for ErrQuit.
func (s *Session) Dispatch(frame host.Frame, event host.Event, arg any) (bool, error) {
	switch event {
	case host.EventNativeCall, host.EventNativeReturn, host.EventNativeException:
		return true, nil
	case host.EventLine:
		return s.dispatchLine(frame)
	case host.EventCall:
		return s.dispatchCall(frame, arg)
	case host.EventReturn:
		return s.dispatchReturn(frame, arg)
	case host.EventException:
		return s.dispatchException(frame, arg)
	default:
		s.log.Warn("dbgcore: unknown debugging event", zap.Int("event", int(event)))
		return true, nil
	}
}

func sameFrame(a, b host.Frame) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// stopHere implements spec.md §4.4's stop_here: false when the
// frame's file matches a configured skip pattern; otherwise true iff
// (stopframe is nil or frame is stopframe) and lineno != -1 and
// frame.Line() >= lineno.
func (s *Session) stopHere(frame host.Frame) bool {
	if s.matchesSkip(frame) {
		return false
	}
	st := s.step
	if st.Stopframe == nil || sameFrame(frame, st.Stopframe) {
		if st.Lineno == -1 {
			return false
		}
		return frame.Line() >= st.Lineno
	}
	return false
}

func (s *Session) matchesSkip(frame host.Frame) bool {
	if len(s.opts.Skip) == 0 {
		return false
	}
	name := frame.FileName()
	for _, pattern := range s.opts.Skip {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// breakHere implements spec.md §4.4's break_here: the per-address
// breakpoint list at frame's current position, each run through its
// hit procedure, aggregated into sorted stop/temporary-to-clear
// number lists. Returns nil when nothing fires.
func (s *Session) breakHere(frame host.Frame) *LineHits {
	canon := pathkey.Canonic(frame.FileName())
	bps := s.reg.GetBreaksAt(canon, frame.FirstLine(), frame.Line())
	if len(bps) == 0 {
		return nil
	}
	var stop, temporaries []int
	for _, bp := range bps {
		didStop, deleteTemp := bp.ProcessHit(frame, s.caps.Evaluator)
		if didStop {
			stop = append(stop, bp.Number)
			if bp.Temporary && deleteTemp {
				temporaries = append(temporaries, bp.Number)
			}
		}
	}
	if len(stop) == 0 {
		return nil
	}
	sort.Ints(stop)
	sort.Ints(temporaries)
	return &LineHits{Stop: stop, Temporaries: temporaries}
}

// breakAtFunction implements spec.md §4.4's break_at_function: a
// cheap check of whether any breakpoint is set at this code unit's
// first line, regardless of the exact address. See SPEC_FULL.md §9's
// decided Open Question: this deliberately does not check the full
// line range.
func (s *Session) breakAtFunction(frame host.Frame) bool {
	canon := pathkey.Canonic(frame.FileName())
	return s.reg.BreakAtFunction(canon, frame.FirstLine())
}

// traceDecision is Bdb._get_trace_function: after a user callback
// fires, decide whether to keep tracing, or — if quitting — whether
// to raise ErrQuit (bottom frame still has a live parent) or unwind
// quietly (a set_trace session invoked from the program itself).
func (s *Session) traceDecision(frame host.Frame) (bool, error) {
	if s.quitting {
		if s.bottom != nil && s.bottom.Parent() != nil {
			return false, ErrQuit
		}
		return false, nil
	}
	if !s.tracingActive {
		return false, nil
	}
	return true, nil
}

func (s *Session) fireLine(frame host.Frame, hits *LineHits) {
	if s.hooks.OnLine != nil {
		s.hooks.OnLine(frame, hits)
	}
}

// dispatchLine is Bdb.dispatch_line. A plain pass-through line event
// (neither stopping nor hitting a breakpoint) returns (true, nil)
// directly without consulting traceDecision/quitting, matching the
// original returning self.trace_dispatch unconditionally on that path.
func (s *Session) dispatchLine(frame host.Frame) (bool, error) {
	if s.stopHere(frame) {
		s.fireLine(frame, nil)
		return s.traceDecision(frame)
	}
	hits := s.breakHere(frame)
	if hits == nil {
		return true, nil
	}
	for _, n := range hits.Temporaries {
		_ = s.reg.ClearByNumber(n)
	}
	s.fireLine(frame, hits)
	return s.traceDecision(frame)
}

// dispatchCall is Bdb.dispatch_call.
func (s *Session) dispatchCall(frame host.Frame, arg any) (bool, error) {
	if s.ignoreFirstCallEvent {
		s.ignoreFirstCallEvent = false
		return true, nil
	}
	stop := s.stopHere(frame)
	if !stop && !s.breakAtFunction(frame) {
		return false, nil
	}
	if stop {
		s.installTrace(frame)
		if s.hooks.OnCall != nil {
			s.hooks.OnCall(frame, arg)
		}
		return s.traceDecision(frame)
	}
	return true, nil
}

// dispatchReturn is Bdb.dispatch_return.
func (s *Session) dispatchReturn(frame host.Frame, arg any) (bool, error) {
	stopFrameMatch := sameFrame(frame, s.step.Stopframe)
	if s.stopHere(frame) || stopFrameMatch {
		if s.hooks.OnReturn != nil {
			s.hooks.OnReturn(frame, arg)
		}
		keep, err := s.traceDecision(frame)
		if err != nil {
			return false, err
		}
		if !keep {
			return false, nil
		}
		plainStep := s.step.Stopframe == nil && s.step.Lineno == 0
		if !sameFrame(frame, s.bottom) && (plainStep || stopFrameMatch) {
			if caller := frame.Parent(); caller != nil && !s.tracedFrames[caller.ID()] {
				s.installTrace(caller)
			}
			s.step = step.SetStep()
		}
	}
	if sameFrame(frame, s.bottom) {
		s.teardown()
		return false, nil
	}
	return true, nil
}

// dispatchException is Bdb.dispatch_exception.
func (s *Session) dispatchException(frame host.Frame, arg any) (bool, error) {
	if !s.stopHere(frame) {
		return true, nil
	}
	if s.hooks.OnException != nil {
		if exc, ok := arg.(host.ExceptionInfo); ok {
			s.hooks.OnException(frame, exc)
		}
	}
	return s.traceDecision(frame)
}
