// Package debug provides runtime-switchable assertions, grounded on the
// teacher's cmn/debug package (debug.Assert, debug.AssertNoErr used
// throughout xact/xs/tcb.go). A failed assertion panics only when Enabled
// is set; by default it logs and continues, since spec.md §7 forbids
// panics/aborts inside the core for anything reachable from production
// entry points. Call sites in core/, stream/, filesys/ use Assert only for
// conditions that are invariants of this package's own bookkeeping (never
// for validating caller-supplied arguments).
package debug

import "github.com/nasa-osal/osal-go/cmn/nlog"

// Enabled turns failed assertions into panics. It defaults to false and is
// a plain var (not a const) so tests can toggle it.
var Enabled = false

// Assert checks cond and reports a failure through nlog whenever the
// condition does not hold; it additionally panics when Enabled is set.
func Assert(cond bool, msg string) {
	if !cond {
		nlog.Debugf("assertion failed: %s", msg)
		if Enabled {
			panic("assertion failed: " + msg)
		}
	}
}

// AssertNoErr is a shorthand for the common "this internal call cannot
// fail" assertion.
func AssertNoErr(err error) {
	if err != nil {
		Assert(false, err.Error())
	}
}
