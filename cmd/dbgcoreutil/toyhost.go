// toyhost is an in-process, single-file host good enough to drive a
// Session end to end from the command line: it has no real
// interpreter, so "executing" a script just means walking its lines
// in order and firing the matching trace events.
package main

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/gopherdbg/dbgcore/host"
)

// toyFrame is the only kind of frame this host ever produces: the
// whole script runs as one flat code unit with no nested calls, the
// simplest shape that still exercises set_break/stepping/continue.
type toyFrame struct {
	file      string
	firstLine int
	line      int
	locals    map[string]any
	parent    host.Frame
}

func (f *toyFrame) ID() host.FrameID        { return f }
func (f *toyFrame) Line() int               { return f.line }
func (f *toyFrame) FileName() string        { return f.file }
func (f *toyFrame) FirstLine() int          { return f.firstLine }
func (f *toyFrame) Name() string            { return "" }
func (f *toyFrame) Locals() map[string]any  { return f.locals }
func (f *toyFrame) Globals() map[string]any { return f.locals }
func (f *toyFrame) Parent() host.Frame      { return f.parent }

// toyUnit treats every non-blank, non-comment line as executable and
// never nests: enough surface to resolve breakpoints against, nothing
// more.
type toyUnit struct {
	firstLine int
	execLines []int
}

func (u *toyUnit) FirstLine() int         { return u.firstLine }
func (u *toyUnit) Name() string           { return "" }
func (u *toyUnit) ExecutableLines() []int { return u.execLines }
func (u *toyUnit) Inner() []host.CodeUnit { return nil }

// toySources reads a single script file off disk, the whole of its
// SourceProvider duty.
type toySources struct{}

func (toySources) Lines(canonicalFile string) ([]string, host.SourceIdentity, error) {
	data, err := os.ReadFile(canonicalFile)
	if err != nil {
		return nil, nil, err
	}
	lines := strings.Split(string(data), "\n")
	return lines, len(data), nil
}

// toyCompiler turns a script's lines into a flat toyUnit, skipping
// blank and "#"-prefixed lines as non-executable, the toy-host
// equivalent of a real parser's statement table.
type toyCompiler struct{}

func (toyCompiler) Compile(canonicalFile string, source string) (host.CodeUnit, error) {
	lines := strings.Split(source, "\n")
	var exec []int
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		exec = append(exec, i+1)
	}
	if len(exec) == 0 {
		return nil, errors.New("toyhost: script has no executable lines")
	}
	return &toyUnit{firstLine: exec[0], execLines: exec}, nil
}

// toyEvaluator supports the one condition shape the demo needs:
// "name==N" against an integer local. Anything else is rejected
// rather than guessed at.
type toyEvaluator struct{}

func (toyEvaluator) EvalCondition(expr string, globals, locals map[string]any) (bool, error) {
	name, rhs, ok := strings.Cut(expr, "==")
	if !ok {
		return false, errors.New("toyhost: unsupported condition " + expr)
	}
	name = strings.TrimSpace(name)
	want, err := strconv.Atoi(strings.TrimSpace(rhs))
	if err != nil {
		return false, err
	}
	got, ok := locals[name].(int)
	if !ok {
		return false, nil
	}
	return got == want, nil
}
