package ossync

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/status"
)

// countSemRecord is the CountSem class's extension data. Unlike BinSem
// (host-impl-backed), a counting semaphore's mechanism is fully portable,
// so the shared layer owns it directly with a weighted semaphore rather
// than delegating through an impl hook.
type countSemRecord struct {
	sem   *semaphore.Weighted
	count int64
}

// CountSemTable owns the fixed-size CountSem object array.
type CountSemTable struct {
	mgr *core.Manager
	tbl *core.Table[countSemRecord]
}

// NewCountSemTable allocates the CountSem table sized maxSems.
func NewCountSemTable(mgr *core.Manager, maxSems int) *CountSemTable {
	return &CountSemTable{mgr: mgr, tbl: core.NewTable[countSemRecord](mgr, core.ObjCountSem, maxSems)}
}

// Create implements OS_CountSemCreate: a counting semaphore bounded by
// maxValue, initialized to initialValue outstanding "gives".
func (ct *CountSemTable) Create(ctx context.Context, name string, initialValue, maxValue int64) (core.ObjectID, status.Code) {
	if initialValue < 0 || initialValue > maxValue {
		return core.Undefined, status.ErrInvalidSize
	}
	tok, code := ct.mgr.AllocateNew(ctx, core.ObjCountSem, name)
	if !code.OK() {
		return core.Undefined, code
	}

	// semaphore.Weighted starts with all maxValue units takable; reserve
	// the units initialValue does NOT cover so that Take can succeed
	// immediately exactly initialValue times before it blocks, matching
	// OS_CountSemCreate/POSIX sem_init's sem_initial_value semantics.
	sem := semaphore.NewWeighted(maxValue)
	if reserved := maxValue - initialValue; reserved > 0 {
		_ = sem.Acquire(context.Background(), reserved)
	}
	*ct.tbl.Ext(tok.Index()) = countSemRecord{sem: sem, count: initialValue}

	var id core.ObjectID
	code = ct.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// Delete implements OS_CountSemDelete.
func (ct *CountSemTable) Delete(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockExclusive, core.ObjCountSem, id)
	if !code.OK() {
		return code
	}
	return ct.mgr.FinalizeDelete(status.Success, tok)
}

// Take implements OS_CountSemTake: blocks (REFCOUNT mode, global lock
// released) until a unit is available.
func (ct *CountSemTable) Take(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockRefcount, core.ObjCountSem, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)

	rec := ct.tbl.Ext(tok.Index())
	if err := rec.sem.Acquire(ctx, 1); err != nil {
		return status.ErrorTimeout
	}
	rec.count--
	return status.Success
}

// TimedTake implements OS_CountSemTimedWait.
func (ct *CountSemTable) TimedTake(ctx context.Context, id core.ObjectID, timeoutMS int32) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockRefcount, core.ObjCountSem, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)

	deadlineCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	rec := ct.tbl.Ext(tok.Index())
	if err := rec.sem.Acquire(deadlineCtx, 1); err != nil {
		return status.ErrorTimeout
	}
	rec.count--
	return status.Success
}

// Give implements OS_CountSemGive.
func (ct *CountSemTable) Give(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockGlobal, core.ObjCountSem, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)

	rec := ct.tbl.Ext(tok.Index())
	rec.sem.Release(1)
	rec.count++
	return status.Success
}
