package breakpoint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gopherdbg/dbgcore/host"
	"github.com/gopherdbg/dbgcore/modindex"
	"github.com/gopherdbg/dbgcore/pathkey"
)

// BadBreakpointError reports a malformed or stale breakpoint-number
// argument to ClearByNumber: missing, non-numeric (not applicable in
// Go's typed API, but kept for parity with the spec's taxonomy),
// out-of-range, or already deleted.
type BadBreakpointError struct {
	Msg string
}

func (e *BadBreakpointError) Error() string { return e.Msg }

// bucket holds one canonical file's compiled module and its
// breakpoints, indexed exactly like bdb.py's ModuleBreakpoints:
// breakpts[firstLine][actualLine] -> the breakpoints stopping there.
type bucket struct {
	file      pathkey.Path
	module    *modindex.Module
	breakpts  map[int]map[int][]*Breakpoint
}

func newBucket(file pathkey.Path, m *modindex.Module) *bucket {
	return &bucket{file: file, module: m, breakpts: make(map[int]map[int][]*Breakpoint)}
}

func (b *bucket) insert(bp *Breakpoint) {
	line := b.breakpts[bp.Address.FirstLine]
	if line == nil {
		line = make(map[int][]*Breakpoint)
		b.breakpts[bp.Address.FirstLine] = line
	}
	line[bp.Address.ActualLine] = append(line[bp.Address.ActualLine], bp)
}

func (b *bucket) remove(bp *Breakpoint) {
	line, ok := b.breakpts[bp.Address.FirstLine]
	if !ok {
		return
	}
	list := line[bp.Address.ActualLine]
	for i, existing := range list {
		if existing == bp {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(line, bp.Address.ActualLine)
	} else {
		line[bp.Address.ActualLine] = list
	}
	if len(line) == 0 {
		delete(b.breakpts, bp.Address.FirstLine)
	}
}

func (b *bucket) all() []*Breakpoint {
	var out []*Breakpoint
	for _, line := range b.breakpts {
		for _, list := range line {
			out = append(out, list...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Registry is the breakpoint engine of SPEC_FULL.md §4.6: a dense
// sequence-to-breakpoint array with nil slots for deleted entries, and
// per-file buckets reachable both by the file's canonical form and by
// every related path form (pathkey.RelatedPaths).
type Registry struct {
	sources  host.SourceProvider
	compiler host.Compiler

	byPath   map[pathkey.Path]*bucket
	buckets  []*bucket // unique buckets, for Restart
	byNumber []*Breakpoint
}

// New creates an empty registry backed by the given source/compile
// capabilities.
func New(sources host.SourceProvider, compiler host.Compiler) *Registry {
	return &Registry{
		sources:  sources,
		compiler: compiler,
		byPath:   make(map[pathkey.Path]*bucket),
		byNumber: []*Breakpoint{nil}, // index 0 is never assigned
	}
}

func (r *Registry) loadBucket(canon pathkey.Path) (*bucket, error) {
	if b, ok := r.byPath[canon]; ok {
		return b, nil
	}
	mod, err := modindex.Load(canon, r.sources, r.compiler)
	if err != nil {
		return nil, err
	}
	b := newBucket(canon, mod)
	r.buckets = append(r.buckets, b)
	for _, p := range pathkey.RelatedPaths(string(canon)) {
		r.byPath[pathkey.Path(p)] = b
	}
	r.byPath[canon] = b
	return b, nil
}

// SetBreak resolves line (or funcname, if given) against file's
// current module, allocates the next sequence number, and inserts the
// new breakpoint. Matches bdb.py's Bdb.set_break.
func (r *Registry) SetBreak(file string, line int, temporary bool, condition *string, funcname string) (*Breakpoint, error) {
	canon := pathkey.Canonic(file)
	b, err := r.loadBucket(canon)
	if err != nil {
		return nil, err
	}
	if funcname != "" {
		line, err = b.module.GetFuncLine(funcname)
		if err != nil {
			return nil, err
		}
	}
	addr, err := b.module.ResolveAddress(line)
	if err != nil {
		return nil, err
	}
	bp := &Breakpoint{
		Number:    len(r.byNumber),
		File:      canon,
		UserLine:  line,
		Address:   addr,
		Enabled:   true,
		Temporary: temporary,
		Condition: condition,
		registry:  r,
	}
	b.insert(bp)
	r.byNumber = append(r.byNumber, bp)
	return bp, nil
}

// ClearBreak deletes every breakpoint whose UserLine matches line in
// file; it is an error if none exist there.
func (r *Registry) ClearBreak(file string, line int) error {
	bps := r.GetBreaks(file, line)
	if len(bps) == 0 {
		return fmt.Errorf("there is no breakpoint at %s:%d", file, line)
	}
	for _, bp := range bps {
		r.delete(bp)
	}
	return nil
}

// ClearByNumber deletes the breakpoint with the given sequence number.
func (r *Registry) ClearByNumber(number int) error {
	bp, err := r.lookup(number)
	if err != nil {
		return err
	}
	r.delete(bp)
	return nil
}

// ClearAll deletes every live breakpoint.
func (r *Registry) ClearAll() {
	for _, bp := range r.byNumber {
		if bp != nil {
			r.delete(bp)
		}
	}
}

func (r *Registry) delete(bp *Breakpoint) {
	if r.byNumber[bp.Number] == nil {
		return // already deleted
	}
	r.byNumber[bp.Number] = nil
	if b, ok := r.byPath[bp.File]; ok {
		b.remove(bp)
	}
}

func (r *Registry) lookup(number int) (*Breakpoint, error) {
	if number <= 0 || number >= len(r.byNumber) {
		return nil, &BadBreakpointError{Msg: fmt.Sprintf("breakpoint number %d out of range", number)}
	}
	bp := r.byNumber[number]
	if bp == nil {
		return nil, &BadBreakpointError{Msg: fmt.Sprintf("breakpoint %d already deleted", number)}
	}
	return bp, nil
}

// LookupByNumber exposes lookup for callers (e.g. session) that need
// the live Breakpoint without deleting it.
func (r *Registry) LookupByNumber(number int) (*Breakpoint, error) {
	return r.lookup(number)
}

// GetBreaks returns the live breakpoints at file's user line, filtered
// by UserLine == line since multiple user lines can resolve to the
// same address. A file or line that cannot resolve returns nil
// (there is no error result), matching bdb.py's get_breakpoints swallowing
// BdbSourceError.
func (r *Registry) GetBreaks(file string, line int) []*Breakpoint {
	canon := pathkey.Canonic(file)
	b, ok := r.byPath[canon]
	if !ok {
		return nil
	}
	addr, err := b.module.ResolveAddress(line)
	if err != nil {
		return nil
	}
	lineBps, ok := b.breakpts[addr.FirstLine]
	if !ok {
		return nil
	}
	list, ok := lineBps[addr.ActualLine]
	if !ok {
		return nil
	}
	var out []*Breakpoint
	for _, bp := range list {
		if bp.UserLine == line {
			out = append(out, bp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// GetBreaksAt returns every breakpoint (regardless of UserLine) set at
// the exact address (firstLine, actualLine) in file. This is what the
// trace dispatcher's break_here consults on a line event.
func (r *Registry) GetBreaksAt(file pathkey.Path, firstLine, actualLine int) []*Breakpoint {
	b, ok := r.byPath[file]
	if !ok {
		return nil
	}
	lineBps, ok := b.breakpts[firstLine]
	if !ok {
		return nil
	}
	return lineBps[actualLine]
}

// BreakAtFunction reports whether any breakpoint in file is set at
// firstLine — the cheap check dispatch_call uses to decide whether a
// newly entered frame is worth tracing at all.
func (r *Registry) BreakAtFunction(file pathkey.Path, firstLine int) bool {
	b, ok := r.byPath[file]
	if !ok {
		return false
	}
	_, ok = b.breakpts[firstLine]
	return ok
}

// GetFileBreaks lists every live breakpoint's user line for file.
// Supplemented from bdb.py's get_file_breaks (see SPEC_FULL.md §10).
func (r *Registry) GetFileBreaks(file string) []int {
	canon := pathkey.Canonic(file)
	b, ok := r.byPath[canon]
	if !ok {
		return nil
	}
	var lines []int
	for _, bp := range b.all() {
		lines = append(lines, bp.UserLine)
	}
	return lines
}

// HasBreaks reports whether any live breakpoint exists anywhere.
// Supplemented from bdb.py's has_breaks (see SPEC_FULL.md §10).
func (r *Registry) HasBreaks() bool {
	for _, bp := range r.byNumber {
		if bp != nil {
			return true
		}
	}
	return false
}

// Restart reloads every known module and re-resolves its live
// breakpoints against the new compilation, dropping any that no
// longer resolve. Matches bdb.py's Bdb.restart / ModuleBreakpoints.reset:
// a module whose reload hits a *modindex.SourceError is treated as
// changed (its breakpoints are re-resolved, and dropped if they no
// longer do) exactly like ModuleBreakpoints.reset catching
// BdbSourceError — but a *modindex.SyntaxError is not caught there
// either, and propagates out of Bdb.restart's loop over
// self.breakpoints.values(), aborting the remaining modules with that
// module's breakpoints left untouched. Restart mirrors that: it
// returns the *modindex.SyntaxError immediately, before touching this
// module's breakpoints or visiting any bucket after it.
func (r *Registry) Restart() error {
	for _, b := range r.buckets {
		changed, err := b.module.Reset()
		if err != nil {
			var syn *modindex.SyntaxError
			if errors.As(err, &syn) {
				return syn
			}
			changed = true // *modindex.SourceError: re-resolve-or-drop below
		}
		if !changed {
			continue
		}
		live := b.all()
		b.breakpts = make(map[int]map[int][]*Breakpoint)
		for _, bp := range live {
			addr, err := b.module.ResolveAddress(bp.UserLine)
			if err != nil {
				r.delete(bp)
				continue
			}
			bp.Address = addr
			b.insert(bp)
		}
	}
	return nil
}
