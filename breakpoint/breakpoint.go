// Package breakpoint implements the Breakpoint type, its hit
// procedure, and the per-module/per-file registry that indexes
// breakpoints by sequence number and by (file, address). Grounded on
// bdb.py's Breakpoint, ModuleBreakpoints, and the Bdb methods that
// manipulate breakpoints (set_break, clear_break, clear_bpbynumber,
// clear_all_breaks, get_breaks, restart).
package breakpoint

import (
	"fmt"

	"github.com/gopherdbg/dbgcore/host"
	"github.com/gopherdbg/dbgcore/modindex"
	"github.com/gopherdbg/dbgcore/pathkey"
)

// Breakpoint is one user-visible breakpoint. Fields mirror
// SPEC_FULL.md §3's table exactly.
type Breakpoint struct {
	Number    int
	File      pathkey.Path
	UserLine  int
	Address   modindex.Address
	Enabled   bool
	Temporary bool
	Condition *string
	Ignore    int
	Hits      int

	registry *Registry
}

// Summary produces a one-line-plus-detail description of the
// breakpoint's state, the Go analogue of bdb.py's bpformat — supplied
// so a UI has something to print, without the core itself performing
// any I/O.
func (b *Breakpoint) Summary() string {
	disp := "keep "
	if b.Temporary {
		disp = "del  "
	}
	if b.Enabled {
		disp += "yes  "
	} else {
		disp += "no   "
	}
	s := fmt.Sprintf("%-4dbreakpoint   %s at %s:%d", b.Number, disp, b.File, b.UserLine)
	if b.Condition != nil {
		s += fmt.Sprintf("\n\tstop only if %s", *b.Condition)
	}
	if b.Ignore > 0 {
		s += fmt.Sprintf("\n\tignore next %d hits", b.Ignore)
	}
	if b.Hits > 0 {
		plural := ""
		if b.Hits > 1 {
			plural = "s"
		}
		s += fmt.Sprintf("\n\tbreakpoint already hit %d time%s", b.Hits, plural)
	}
	return s
}

// ProcessHit implements the §4.5 hit procedure:
//  1. disabled -> (false, false)
//  2. increment Hits
//  3. a raising or false condition gates the stop (raising still stops,
//     conservatively, but does not consume a temporary)
//  4. a positive ignore count is decremented and suppresses the stop
//  5. otherwise stop, and let a temporary be deleted
func (b *Breakpoint) ProcessHit(frame host.Frame, eval host.Evaluator) (stop, deleteTemporary bool) {
	if !b.Enabled {
		return false, false
	}
	b.Hits++
	if b.Condition != nil {
		ok, err := b.evalCondition(eval, frame)
		if err != nil {
			// Conservative: stop, but don't consume a temporary.
			return true, false
		}
		if !ok {
			return false, false
		}
	}
	if b.Ignore > 0 {
		b.Ignore--
		return false, false
	}
	return true, true
}

// evalCondition recovers from a panicking Evaluator the same way
// bdb.py's bare except: does for a raising condition expression.
func (b *Breakpoint) evalCondition(eval host.Evaluator, frame host.Frame) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("condition %q panicked: %v", *b.Condition, r)
		}
	}()
	return eval.EvalCondition(*b.Condition, frame.Globals(), frame.Locals())
}
