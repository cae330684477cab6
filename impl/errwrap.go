package impl

import (
	"github.com/pkg/errors"

	"github.com/nasa-osal/osal-go/cmn/nlog"
	"github.com/nasa-osal/osal-go/status"
)

// wrapErr is the impl-hook error-wrapping boundary of spec.md §7 layer 3:
// a host/syscall error never crosses into the core as a plain `error`, but
// it also shouldn't be silently discarded. wrapErr attaches a stack trace
// via github.com/pkg/errors, logs it once here, and returns the status
// code the core actually understands.
func wrapErr(op string, err error, code status.Code) status.Code {
	if err == nil {
		return status.Success
	}
	wrapped := errors.Wrap(err, op)
	nlog.Warningf("%+v", wrapped)
	return code
}
