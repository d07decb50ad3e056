//go:build unix

package pathkey

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

func init() {
	probeCaseInsensitiveHook = probeCaseInsensitiveUnix
}

// probeCaseInsensitiveUnix compares inode numbers of two files
// differing only in case instead of round-tripping file content: a
// case-insensitive filesystem hands back the same inode for both
// names. Falls back to "not determined" (ok=false) when the temp
// directory or the lower-case file cannot be created or stat'ed, so
// the portable probe in pathkey.go runs instead; a failed stat of the
// upper-case name is a determined answer: case-sensitive.
func probeCaseInsensitiveUnix() (result bool, ok bool) {
	dir, err := os.MkdirTemp("", "dbgcore-caseprobe")
	if err != nil {
		return false, false
	}
	defer os.RemoveAll(dir)

	one := filepath.Join(dir, "one")
	if err := os.WriteFile(one, []byte("one"), 0o600); err != nil {
		return false, false
	}

	var st unix.Stat_t
	if err := unix.Stat(one, &st); err != nil {
		return false, false
	}
	oneIno := st.Ino

	oneUpper := filepath.Join(dir, "ONE")
	var stUpper unix.Stat_t
	if err := unix.Stat(oneUpper, &stUpper); err != nil {
		// ONE does not resolve to one: the filesystem is
		// case-sensitive.
		return false, true
	}
	return stUpper.Ino == oneIno, true
}
