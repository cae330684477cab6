// Package cos holds small generic helpers shared across the module, in the
// style of the teacher's own cmn/cos package: no component-specific logic,
// just string/length guards and verbosity plumbing that every other
// package reaches for.
package cos

import "strings"

// Module verbosity levels, set by whoever owns the process (console, test
// harness). Mirrors the teacher's cmn.Rom.FastV(level, smodule) gate.
const (
	SmoduleCore    = "core"
	SmoduleStream  = "stream"
	SmoduleFilesys = "filesys"
	SmoduleModule  = "module"
	SmoduleSync    = "ossync"
)

var verbosity = map[string]int{}

// SetVerbosity sets the log verbosity level for a named submodule.
func SetVerbosity(smodule string, level int) { verbosity[smodule] = level }

// FastV reports whether smodule is configured to log at or above level.
func FastV(level int, smodule string) bool {
	return verbosity[smodule] >= level
}

// StrlenLimited returns the length of s bounded at max, the way OS_strnlen
// treats a non-NUL-terminated fixed buffer: it never reads or reports past
// max characters.
func StrlenLimited(s string, max int) int {
	if len(s) > max {
		return max
	}
	return len(s)
}

// TooLong reports whether s would not fit (including its NUL terminator,
// hence the strict >=) in a fixed buffer of size max.
func TooLong(s string, max int) bool {
	return len(s) >= max
}

// HasPrefixBoundary reports whether target starts with prefix and the
// character immediately following the prefix is either absent (exact
// match) or a path separator -- i.e. prefix is a "proper" path component
// prefix of target, not just a textual prefix. This is the exact
// `OS_FileSys_FindVirtMountPoint` substring-then-boundary check.
func HasPrefixBoundary(target, prefix string) bool {
	if prefix == "" || len(prefix) >= len(target)+1 {
		return false
	}
	if !strings.HasPrefix(target, prefix) {
		return false
	}
	if len(target) == len(prefix) {
		return true
	}
	return target[len(prefix)] == '/'
}

// Clamp restricts v to the inclusive range [lo, hi].
func Clamp[T ~int | ~int32 | ~int64 | ~uint32 | ~uint64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
