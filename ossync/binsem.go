package ossync

import (
	"context"
	"time"

	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/status"
	"github.com/nasa-osal/osal-go/timeval"
)

// BinSemImpl is the host-specific half of a binary semaphore: take/give/
// flush, the way spec.md §4.8's ImplHooks pattern delegates the mechanism
// while the shared layer owns the object table and transaction discipline.
type BinSemImpl interface {
	Create(initialValue bool) (BinSemHandle, status.Code)
	Delete(h BinSemHandle) status.Code
	Take(h BinSemHandle) status.Code
	TimedTake(h BinSemHandle, deadline timeval.Time) status.Code
	Give(h BinSemHandle) status.Code
	Flush(h BinSemHandle) status.Code
}

// BinSemHandle is opaque host-private state for one binary semaphore,
// returned by BinSemImpl.Create and threaded back through every other call.
type BinSemHandle = any

// binSemRecord is the BinSem class's extension data.
type binSemRecord struct {
	handle BinSemHandle
}

// BinSemTable owns the fixed-size BinSem object array.
type BinSemTable struct {
	mgr  *core.Manager
	tbl  *core.Table[binSemRecord]
	impl BinSemImpl
}

// NewBinSemTable allocates the BinSem table sized maxSems.
func NewBinSemTable(mgr *core.Manager, impl BinSemImpl, maxSems int) *BinSemTable {
	return &BinSemTable{mgr: mgr, tbl: core.NewTable[binSemRecord](mgr, core.ObjBinSem, maxSems), impl: impl}
}

// Create implements OS_BinSemCreate: allocate a record, call the impl
// hook, finalize.
func (bt *BinSemTable) Create(ctx context.Context, name string, initialValue bool) (core.ObjectID, status.Code) {
	tok, code := bt.mgr.AllocateNew(ctx, core.ObjBinSem, name)
	if !code.OK() {
		return core.Undefined, code
	}

	h, code := bt.impl.Create(initialValue)
	if !code.OK() {
		var discard core.ObjectID
		bt.mgr.FinalizeNew(code, tok, &discard)
		return core.Undefined, code
	}
	bt.tbl.Ext(tok.Index()).handle = h

	var id core.ObjectID
	code = bt.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// Delete implements OS_BinSemDelete: exclusive transaction, impl cleanup,
// finalize.
func (bt *BinSemTable) Delete(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := bt.mgr.GetByID(ctx, core.LockExclusive, core.ObjBinSem, id)
	if !code.OK() {
		return code
	}
	opStatus := bt.impl.Delete(bt.tbl.Ext(tok.Index()).handle)
	return bt.mgr.FinalizeDelete(opStatus, tok)
}

// Take implements OS_BinSemTake: a REFCOUNT transaction (the host call may
// block), per spec.md §5's "never held across blocking calls" rule.
func (bt *BinSemTable) Take(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := bt.mgr.GetByID(ctx, core.LockRefcount, core.ObjBinSem, id)
	if !code.OK() {
		return code
	}
	defer bt.mgr.Release(tok)
	return bt.impl.Take(bt.tbl.Ext(tok.Index()).handle)
}

// TimedTake implements OS_BinSemTimedWait.
func (bt *BinSemTable) TimedTake(ctx context.Context, id core.ObjectID, timeoutMS int32) status.Code {
	tok, code := bt.mgr.GetByID(ctx, core.LockRefcount, core.ObjBinSem, id)
	if !code.OK() {
		return code
	}
	defer bt.mgr.Release(tok)
	if timeval.Timeout(timeoutMS) == timeval.Pend {
		return bt.impl.Take(bt.tbl.Ext(tok.Index()).handle)
	}
	deadline := timeval.Timeout(timeoutMS).Deadline(timeval.FromTime(time.Now()))
	return bt.impl.TimedTake(bt.tbl.Ext(tok.Index()).handle, deadline)
}

// Give implements OS_BinSemGive: a short GLOBAL op, since giving a
// semaphore never blocks the caller.
func (bt *BinSemTable) Give(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := bt.mgr.GetByID(ctx, core.LockGlobal, core.ObjBinSem, id)
	if !code.OK() {
		return code
	}
	defer bt.mgr.Release(tok)
	return bt.impl.Give(bt.tbl.Ext(tok.Index()).handle)
}

// Flush implements OS_BinSemFlush: release every task waiting on the
// semaphore without incrementing its count.
func (bt *BinSemTable) Flush(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := bt.mgr.GetByID(ctx, core.LockGlobal, core.ObjBinSem, id)
	if !code.OK() {
		return code
	}
	defer bt.mgr.Release(tok)
	return bt.impl.Flush(bt.tbl.Ext(tok.Index()).handle)
}
