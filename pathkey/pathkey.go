// Package pathkey produces the canonical filename keys the rest of
// dbgcore uses as module identity. Grounded on bdb.py's canonic() and
// all_pathnames(): a stable, case-folded (when needed) absolute path,
// with angle-bracketed synthetic names passed through unchanged.
package pathkey

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Path is a canonicalized filename key. The zero value is never
// produced by Canonic; use it only as a map key type.
type Path string

var (
	memo   sync.Map // map[string]Path
	probeO sync.Once
	caseIn bool // true when the filesystem is detected case-insensitive
)

// Canonic returns the canonical key for path. Angle-bracketed
// synthetic names ("<string>", "<doctest foo>") pass through
// unchanged. Otherwise it returns the absolute, cleaned path,
// additionally lower-cased when the host filesystem is
// case-insensitive.
func Canonic(path string) Path {
	if v, ok := memo.Load(path); ok {
		return v.(Path)
	}
	p := canonic(path)
	memo.Store(path, p)
	return p
}

func canonic(path string) Path {
	if strings.HasPrefix(path, "<") && strings.HasSuffix(path, ">") {
		return Path(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.Clean(abs)
	if caseInsensitiveFS() {
		abs = strings.ToLower(abs)
	}
	return Path(abs)
}

// caseInsensitiveFS detects, once per process, whether the filesystem
// backing a temp directory folds filename case. The result is assumed
// stable for the life of the process (see SPEC_FULL.md §9: case-fold
// drift mid-session is out of scope).
func caseInsensitiveFS() bool {
	probeO.Do(func() {
		caseIn = probeCaseInsensitive()
	})
	return caseIn
}

// probeCaseInsensitive is the portable fallback: write two files
// differing only in case and see if they alias. Platform-specific
// files may install a cheaper unix.Stat-based probe instead by
// setting probeCaseInsensitiveHook before first use (see
// caseprobe_unix.go).
var probeCaseInsensitiveHook func() (bool, bool) // (result, ok)

func probeCaseInsensitive() bool {
	if probeCaseInsensitiveHook != nil {
		if result, ok := probeCaseInsensitiveHook(); ok {
			return result
		}
	}
	dir, err := os.MkdirTemp("", "dbgcore-caseprobe")
	if err != nil {
		return false
	}
	defer os.RemoveAll(dir)

	one := filepath.Join(dir, "one")
	if err := os.WriteFile(one, []byte("one"), 0o600); err != nil {
		return false
	}
	oneUpper := filepath.Join(dir, "ONE")
	if err := os.WriteFile(oneUpper, []byte("ONE"), 0o600); err != nil {
		return false
	}
	data, err := os.ReadFile(one)
	if err != nil {
		return false
	}
	return string(data) == "ONE"
}

// RelatedPaths returns absPath plus, when it names a file inside the
// current working directory, its relative form and the "./"-prefixed
// relative form. breakpoint.Registry binds a breakpoint to every
// related path so that a frame whose filename field uses any of these
// forms still hits it.
func RelatedPaths(absPath string) []string {
	paths := []string{absPath}
	cwd, err := os.Getwd()
	if err != nil {
		return paths
	}
	if !strings.HasPrefix(absPath, cwd) {
		return paths
	}
	rel := strings.TrimPrefix(absPath, cwd)
	rel = strings.TrimPrefix(rel, string(os.PathSeparator))
	if rel == "" {
		return paths
	}
	if _, err := os.Stat(rel); err == nil {
		paths = append(paths, rel)
	}
	dotRel := "." + string(os.PathSeparator) + rel
	if _, err := os.Stat(dotRel); err == nil {
		paths = append(paths, dotRel)
	}
	return paths
}
