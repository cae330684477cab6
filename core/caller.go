package core

import "context"

type callerKey struct{}

// WithCaller attaches the calling task's ObjectID to ctx, so that
// TransactionInit/Lock can stamp the per-type owner_key and commonRecord
// creator field the way OS_TaskGetId_Impl() does in the original.
func WithCaller(ctx context.Context, taskID ObjectID) context.Context {
	return context.WithValue(ctx, callerKey{}, taskID)
}

// callerFrom extracts the calling task id from ctx. A context with no
// caller attached (e.g. the process's initial/root goroutine, which owns
// no OSAL Task object) maps to Reserved: nonzero, but guaranteed not to
// alias any real task id, matching the original's handling of callers
// that are "not an OSAL-created task".
func callerFrom(ctx context.Context) ObjectID {
	if ctx == nil {
		return Reserved
	}
	if v, ok := ctx.Value(callerKey{}).(ObjectID); ok && v.Defined() {
		return v
	}
	return Reserved
}
