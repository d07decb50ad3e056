package session

import (
	"errors"

	"github.com/gopherdbg/dbgcore/host"
	"github.com/gopherdbg/dbgcore/pathkey"
)

// fakeFrame is a minimal in-process host.Frame used to drive
// deterministic dispatcher tests — the Go equivalent of the
// distilled original's Tdb/test_bdb.py harness, since this core
// performs no execution of its own to generate real frames.
type fakeFrame struct {
	name      string
	file      string
	firstLine int
	line      int
	locals    map[string]any
	globals   map[string]any
	parent    host.Frame
}

func (f *fakeFrame) ID() host.FrameID        { return f }
func (f *fakeFrame) Line() int               { return f.line }
func (f *fakeFrame) FileName() string        { return f.file }
func (f *fakeFrame) FirstLine() int          { return f.firstLine }
func (f *fakeFrame) Name() string            { return f.name }
func (f *fakeFrame) Locals() map[string]any  { return f.locals }
func (f *fakeFrame) Globals() map[string]any { return f.globals }
func (f *fakeFrame) Parent() host.Frame      { return f.parent }

type fakeUnit struct {
	firstLine int
	name      string
	execLines []int
	inner     []host.CodeUnit
}

func (u *fakeUnit) FirstLine() int         { return u.firstLine }
func (u *fakeUnit) Name() string           { return u.name }
func (u *fakeUnit) ExecutableLines() []int { return u.execLines }
func (u *fakeUnit) Inner() []host.CodeUnit { return u.inner }

type fakeSources struct {
	lines   map[string][]string
	version map[string]int
}

func newFakeSources() *fakeSources {
	return &fakeSources{lines: make(map[string][]string), version: make(map[string]int)}
}

// set stores lines under file's canonical key, since modindex.Load
// always queries SourceProvider/Compiler with the already-canonicalized
// path, never the raw string a test writes.
func (s *fakeSources) set(file string, lines []string) {
	key := string(pathkey.Canonic(file))
	s.lines[key] = lines
	s.version[key]++
}

func (s *fakeSources) Lines(file string) ([]string, host.SourceIdentity, error) {
	lines, ok := s.lines[file]
	if !ok {
		return nil, nil, errors.New("not found")
	}
	return lines, s.version[file], nil
}

type fakeCompiler struct {
	units map[string]host.CodeUnit
}

func newFakeCompiler() *fakeCompiler { return &fakeCompiler{units: make(map[string]host.CodeUnit)} }

func (c *fakeCompiler) set(file string, unit host.CodeUnit) {
	c.units[string(pathkey.Canonic(file))] = unit
}

func (c *fakeCompiler) Compile(file string, _ string) (host.CodeUnit, error) {
	u, ok := c.units[file]
	if !ok {
		return nil, errors.New("no unit registered for " + file)
	}
	return u, nil
}

type fakeEvaluator struct {
	fn func(expr string, globals, locals map[string]any) (bool, error)
}

func (e *fakeEvaluator) EvalCondition(expr string, globals, locals map[string]any) (bool, error) {
	return e.fn(expr, globals, locals)
}
