// Package modindex holds, for each canonical filename, the compiled
// code unit and the derived tables used to turn a user-supplied line
// number into the address of an actual breakpoint: the (code-unit
// first-line, actual executable line) pair. Grounded on
// bdb.py's BdbModule (reset/get_func_lno/get_actual_bp) and shaped
// after internal/gocore/module.go's load-once, lazily-built tables.
package modindex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gopherdbg/dbgcore/host"
	"github.com/gopherdbg/dbgcore/pathkey"
	"github.com/gopherdbg/dbgcore/tokenstream"
)

// Address is the unique in-module breakpoint key: the defining code
// unit's first line, and the actual executable line a breakpoint set
// there stops on.
type Address struct {
	FirstLine  int
	ActualLine int
}

// SourceError reports a problem with the debuggee's source that is
// not a compile failure: unreadable file, a requested function that
// doesn't exist, or a line past the last valid statement.
type SourceError struct {
	File string
	Msg  string
}

func (e *SourceError) Error() string { return fmt.Sprintf("%s: %s", e.File, e.Msg) }

// SyntaxError wraps a Compiler failure with the file it was compiling.
type SyntaxError struct {
	File       string
	Underlying error
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Underlying) }
func (e *SyntaxError) Unwrap() error { return e.Underlying }

// Module is the compiled representation of one source file plus its
// memoized function line table.
type Module struct {
	file     pathkey.Path
	sources  host.SourceProvider
	compiler host.Compiler

	lines    []string
	identity host.SourceIdentity
	code     host.CodeUnit

	funcLines map[string]int // nil until first GetFuncLine call
}

// Load reads and compiles file for the first time.
func Load(file pathkey.Path, sources host.SourceProvider, compiler host.Compiler) (*Module, error) {
	m := &Module{file: file, sources: sources, compiler: compiler}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) load() error {
	lines, identity, err := m.sources.Lines(string(m.file))
	if err != nil {
		return &SourceError{File: string(m.file), Msg: err.Error()}
	}
	if len(lines) == 0 {
		return &SourceError{File: string(m.file), Msg: "no lines in file"}
	}
	source := strings.Join(lines, "\n")
	if !strings.HasSuffix(source, "\n") {
		source += "\n"
	}
	code, err := m.compiler.Compile(string(m.file), source)
	if err != nil {
		return &SyntaxError{File: string(m.file), Underlying: err}
	}
	m.lines = lines
	m.identity = identity
	m.code = code
	m.funcLines = nil
	return nil
}

// Lines returns the module's source lines.
func (m *Module) Lines() []string { return m.lines }

// Code returns the module's compiled top-level code unit.
func (m *Module) Code() host.CodeUnit { return m.code }

// Reset reloads the module if its source has changed since Load (or
// the previous Reset). It reports whether a reload happened, matching
// BdbModule.reset's boolean return, used by Registry.Restart to decide
// whether breakpoints need re-resolving.
func (m *Module) Reset() (bool, error) {
	_, identity, err := m.sources.Lines(string(m.file))
	if err != nil {
		return false, &SourceError{File: string(m.file), Msg: err.Error()}
	}
	if identity == m.identity {
		return false, nil
	}
	if err := m.load(); err != nil {
		return true, err
	}
	return true, nil
}

// GetFuncLine returns the first line of the last-defined function (or
// qualified "Class.method") named name, lazily scanning the source
// tokens the first time it's asked.
func (m *Module) GetFuncLine(name string) (int, error) {
	if m.funcLines == nil {
		m.funcLines = scanFunctionLines(m.lines)
	}
	line, ok := m.funcLines[name]
	if !ok {
		return 0, &SourceError{File: string(m.file), Msg: fmt.Sprintf("function %q not found", name)}
	}
	return line, nil
}

// scanFunctionLines implements bdb.py's BdbModule.parse: a linear
// scan over the token stream tracking indentation, recognizing
// "def"/"class" at statement position, recording a def's first line
// under its bare name (module level) or "Class.name" (immediate
// method), and skipping defs nested inside other defs.
func scanFunctionLines(lines []string) map[string]int {
	toks := tokenstream.Tokenize(lines)
	s := tokenstream.New(toks)
	out := make(map[string]int)
	scanBlock(s, out, -1, "")
	return out
}

// scanBlock consumes tokens belonging to one block (module level when
// classIndent < 0, or a class body otherwise), recording def lines.
// It returns when the block's DEDENT closes it, or the stream ends.
func scanBlock(s *tokenstream.Stream, out map[string]int, classIndent int, classPrefix string) {
	funcIndent := -1
	for {
		tok, ok := s.Next()
		if !ok {
			return
		}
		switch tok.Kind {
		case tokenstream.KindDedent:
			if funcIndent >= 0 && tok.Col <= funcIndent {
				funcIndent = -1
			}
			if classIndent >= 0 && tok.Col <= classIndent {
				return
			}
		case tokenstream.KindName:
			if tok.Text != "def" && tok.Text != "class" {
				continue
			}
			if funcIndent >= 0 && tok.Col <= funcIndent {
				funcIndent = -1
			}
			if classIndent >= 0 && tok.Col <= classIndent {
				s.Unget(tok)
				return
			}
			nameTok, ok := s.Next()
			if !ok || nameTok.Kind != tokenstream.KindName {
				continue // malformed def/class header; skip
			}
			if funcIndent >= 0 {
				// def/class nested inside a function: never recorded.
				continue
			}
			if tok.Text == "def" {
				funcIndent = tok.Col
				name := nameTok.Text
				if classPrefix != "" {
					name = classPrefix + "." + name
				}
				out[name] = tok.Line
			} else {
				qualified := nameTok.Text
				if classPrefix != "" {
					qualified = classPrefix + "." + qualified
				}
				scanBlock(s, out, tok.Col, qualified)
			}
		}
	}
}

// ResolveAddress implements the §4.2 breakpoint-line resolution
// algorithm: find the nearest executable statement at or after line,
// returning the (code-unit first-line, actual line) address. A break
// set on a comment between two functions resolves to the first
// statement of the next function; a break on a def header resolves to
// the first statement of that function body.
func (m *Module) ResolveAddress(line int) (Address, error) {
	dist, addr := distance(m.code, line, true)
	if dist < 0 {
		return Address{}, &SourceError{
			File: string(m.file),
			Msg:  fmt.Sprintf("line %d is after the last valid statement", line),
		}
	}
	return addr, nil
}

// distance mirrors bdb.py's _distance exactly: dist == -1 stands in
// for its "None" (no valid statement reachable from here). An exact,
// non-header match short-circuits; otherwise it walks up to the next
// executable line, recursing into whichever nested unit actually
// owns the answer.
func distance(code host.CodeUnit, line int, moduleLevel bool) (dist int, addr Address) {
	inner := append([]host.CodeUnit(nil), code.Inner()...)
	sort.Slice(inner, func(i, j int) bool { return inner[i].FirstLine() < inner[j].FirstLine() })
	innerFirstLines := make(map[int]bool, len(inner))
	for _, c := range inner {
		innerFirstLines[c.FirstLine()] = true
	}

	// subDist: recurse into the last nested unit whose first line is
	// <= line (bisect-style: the one immediately before the first
	// unit whose first line is strictly greater than line).
	subDist, subAddr := -1, Address{}
	if idx := sort.Search(len(inner), func(i int) bool { return inner[i].FirstLine() > line }); idx != 0 {
		subDist, subAddr = distance(inner[idx-1], line, false)
	}

	codeLines := append([]int(nil), code.ExecutableLines()...)
	sort.Ints(codeLines)
	if !moduleLevel && len(codeLines) > 1 {
		codeLines = codeLines[1:]
	}

	if containsInt(codeLines, line) && !innerFirstLines[line] {
		return 0, Address{FirstLine: code.FirstLine(), ActualLine: line}
	}

	idx := sort.SearchInts(codeLines, line+1)
	if idx == len(codeLines) {
		return subDist, subAddr
	}
	actual := codeLines[idx]
	d := actual - line

	if subDist >= 0 && subDist < d {
		return subDist, subAddr
	}
	if !innerFirstLines[actual] {
		return d, Address{FirstLine: code.FirstLine(), ActualLine: actual}
	}
	var sub host.CodeUnit
	for _, c := range inner {
		if c.FirstLine() == actual {
			sub = c
			break
		}
	}
	return distance(sub, line, false)
}

func containsInt(sorted []int, v int) bool {
	i := sort.SearchInts(sorted, v)
	return i < len(sorted) && sorted[i] == v
}
