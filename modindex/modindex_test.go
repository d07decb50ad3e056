package modindex

import (
	"errors"
	"testing"

	"github.com/gopherdbg/dbgcore/host"
)

// fakeUnit is a minimal host.CodeUnit for algorithm tests.
type fakeUnit struct {
	firstLine int
	name      string
	execLines []int
	inner     []host.CodeUnit
}

func (f *fakeUnit) FirstLine() int            { return f.firstLine }
func (f *fakeUnit) Name() string              { return f.name }
func (f *fakeUnit) ExecutableLines() []int    { return f.execLines }
func (f *fakeUnit) Inner() []host.CodeUnit    { return f.inner }

// fakeSources serves fixed text for one file, with a version counter
// that acts as the identity token.
type fakeSources struct {
	lines   []string
	version int
	missing bool
}

func (s *fakeSources) Lines(string) ([]string, host.SourceIdentity, error) {
	if s.missing {
		return nil, nil, errors.New("not found")
	}
	return s.lines, s.version, nil
}

type fakeCompiler struct {
	unit host.CodeUnit
	err  error
}

func (c *fakeCompiler) Compile(string, string) (host.CodeUnit, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.unit, nil
}

func moduleLevelUnit() *fakeUnit {
	// module:
	//   1: x = 1          <- executable
	//   2: (blank)
	//   3: def foo():     <- header, not a stop point at unit level, dropped from foo's exec lines
	//   4:     y = 2       <- foo's first statement
	//   5: z = 3           <- module level after foo
	foo := &fakeUnit{firstLine: 3, name: "foo", execLines: []int{3, 4}}
	return &fakeUnit{firstLine: 1, name: "", execLines: []int{1, 3, 5}, inner: []host.CodeUnit{foo}}
}

func TestResolveAddressExactMatch(t *testing.T) {
	mod := &Module{code: moduleLevelUnit(), file: "mod.py"}
	addr, err := mod.ResolveAddress(1)
	if err != nil {
		t.Fatal(err)
	}
	if addr != (Address{FirstLine: 1, ActualLine: 1}) {
		t.Errorf("ResolveAddress(1) = %+v", addr)
	}
}

func TestResolveAddressCommentBetweenFunctions(t *testing.T) {
	mod := &Module{code: moduleLevelUnit(), file: "mod.py"}
	// line 2 is blank: nearest executable at or after it is line 3,
	// which is foo's header -> recurse into foo -> first real stmt at 4.
	addr, err := mod.ResolveAddress(2)
	if err != nil {
		t.Fatal(err)
	}
	if addr != (Address{FirstLine: 3, ActualLine: 4}) {
		t.Errorf("ResolveAddress(2) = %+v, want {3 4}", addr)
	}
}

func TestResolveAddressOnDefHeaderEntersBody(t *testing.T) {
	mod := &Module{code: moduleLevelUnit(), file: "mod.py"}
	addr, err := mod.ResolveAddress(3)
	if err != nil {
		t.Fatal(err)
	}
	if addr != (Address{FirstLine: 3, ActualLine: 4}) {
		t.Errorf("ResolveAddress(3) = %+v, want {3 4}", addr)
	}
}

func TestResolveAddressNeverEarlierThanRequested(t *testing.T) {
	mod := &Module{code: moduleLevelUnit(), file: "mod.py"}
	for _, line := range []int{1, 2, 3, 4, 5} {
		addr, err := mod.ResolveAddress(line)
		if err != nil {
			continue
		}
		if addr.ActualLine < line {
			t.Errorf("ResolveAddress(%d) = %+v, actual line before requested", line, addr)
		}
	}
}

func TestResolveAddressPastLastStatement(t *testing.T) {
	mod := &Module{code: moduleLevelUnit(), file: "mod.py"}
	_, err := mod.ResolveAddress(6)
	if err == nil {
		t.Fatal("expected SourceError for line past last statement")
	}
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SourceError", err)
	}
}

func TestLoadEmptySourceIsSourceError(t *testing.T) {
	sources := &fakeSources{lines: nil}
	_, err := Load("empty.py", sources, &fakeCompiler{unit: moduleLevelUnit()})
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SourceError", err)
	}
}

func TestLoadCompileFailureIsSyntaxError(t *testing.T) {
	sources := &fakeSources{lines: []string{"x = 1"}}
	_, err := Load("bad.py", sources, &fakeCompiler{err: errors.New("boom")})
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SyntaxError", err)
	}
}

func TestResetDetectsChange(t *testing.T) {
	sources := &fakeSources{lines: []string{"x = 1"}, version: 1}
	compiler := &fakeCompiler{unit: moduleLevelUnit()}
	mod, err := Load("live.py", sources, compiler)
	if err != nil {
		t.Fatal(err)
	}
	changed, err := mod.Reset()
	if err != nil || changed {
		t.Fatalf("Reset() with no change = %v, %v", changed, err)
	}
	sources.version = 2
	changed, err = mod.Reset()
	if err != nil || !changed {
		t.Fatalf("Reset() after version bump = %v, %v, want true, nil", changed, err)
	}
}

func TestGetFuncLineModuleAndMethod(t *testing.T) {
	lines := []string{
		"def foo():",
		"    pass",
		"",
		"class Bar:",
		"    def baz(self):",
		"        pass",
	}
	sources := &fakeSources{lines: lines}
	mod, err := Load("funcs.py", sources, &fakeCompiler{unit: moduleLevelUnit()})
	if err != nil {
		t.Fatal(err)
	}
	if line, err := mod.GetFuncLine("foo"); err != nil || line != 1 {
		t.Errorf("GetFuncLine(foo) = %d, %v, want 1, nil", line, err)
	}
	if line, err := mod.GetFuncLine("Bar.baz"); err != nil || line != 5 {
		t.Errorf("GetFuncLine(Bar.baz) = %d, %v, want 5, nil", line, err)
	}
	if _, err := mod.GetFuncLine("nope"); err == nil {
		t.Error("expected error for missing function")
	}
}

func TestGetFuncLineSkipsNestedDef(t *testing.T) {
	lines := []string{
		"def outer():",
		"    def inner():",
		"        pass",
		"    return inner",
	}
	sources := &fakeSources{lines: lines}
	mod, err := Load("nested.py", sources, &fakeCompiler{unit: moduleLevelUnit()})
	if err != nil {
		t.Fatal(err)
	}
	if line, err := mod.GetFuncLine("outer"); err != nil || line != 1 {
		t.Errorf("GetFuncLine(outer) = %d, %v, want 1, nil", line, err)
	}
	if _, err := mod.GetFuncLine("inner"); err == nil {
		t.Error("expected inner() to be skipped as nested, not recorded")
	}
}
