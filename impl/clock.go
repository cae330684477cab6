package impl

import (
	"time"

	"github.com/nasa-osal/osal-go/status"
	"github.com/nasa-osal/osal-go/timeval"
)

// ClockImpl implements spec.md §4.8's Clock hook group.
type ClockImpl interface {
	GetLocalTime() (timeval.Time, status.Code)
	SetLocalTime(t timeval.Time) status.Code
}

// SystemClock is the host-backed ClockImpl: GetLocalTime reads the
// runtime's wall clock; SetLocalTime is OS_ERR_NOT_IMPLEMENTED, since a Go
// process has no portable way to set the host clock without CAP_SYS_TIME
// and platform-specific syscalls outside this module's scope.
type SystemClock struct{}

func (SystemClock) GetLocalTime() (timeval.Time, status.Code) {
	return timeval.FromTime(time.Now()), status.Success
}

func (SystemClock) SetLocalTime(t timeval.Time) status.Code {
	return status.ErrNotImplemented
}
