package ossync

import (
	"context"

	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/status"
	"github.com/nasa-osal/osal-go/timeval"
)

// CondVarImpl implements spec.md §4.8's CondVar hook group exactly:
// Create, Delete, Lock, Unlock, Signal, Broadcast, Wait, TimedWait.
type CondVarImpl interface {
	Create() (CondVarHandle, status.Code)
	Delete(h CondVarHandle) status.Code
	Lock(h CondVarHandle) status.Code
	Unlock(h CondVarHandle) status.Code
	Signal(h CondVarHandle) status.Code
	Broadcast(h CondVarHandle) status.Code
	Wait(h CondVarHandle) status.Code
	TimedWait(h CondVarHandle, absWakeup timeval.Time) status.Code
}

// CondVarHandle is opaque host-private state for one condition variable:
// "an impl-private mutex+condvar pair" per spec.md §3.1's CondVarRecord.
type CondVarHandle = any

type condVarRecord struct {
	handle CondVarHandle
}

// CondVarTable owns the fixed-size CondVar object array.
type CondVarTable struct {
	mgr  *core.Manager
	tbl  *core.Table[condVarRecord]
	impl CondVarImpl
}

// NewCondVarTable allocates the CondVar table sized maxCondVars.
func NewCondVarTable(mgr *core.Manager, impl CondVarImpl, maxCondVars int) *CondVarTable {
	return &CondVarTable{mgr: mgr, tbl: core.NewTable[condVarRecord](mgr, core.ObjCondVar, maxCondVars), impl: impl}
}

// Create implements OS_CondVarCreate.
func (ct *CondVarTable) Create(ctx context.Context, name string) (core.ObjectID, status.Code) {
	tok, code := ct.mgr.AllocateNew(ctx, core.ObjCondVar, name)
	if !code.OK() {
		return core.Undefined, code
	}

	h, code := ct.impl.Create()
	if !code.OK() {
		var discard core.ObjectID
		ct.mgr.FinalizeNew(code, tok, &discard)
		return core.Undefined, code
	}
	ct.tbl.Ext(tok.Index()).handle = h

	var id core.ObjectID
	code = ct.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// Delete implements OS_CondVarDelete.
func (ct *CondVarTable) Delete(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockExclusive, core.ObjCondVar, id)
	if !code.OK() {
		return code
	}
	opStatus := ct.impl.Delete(ct.tbl.Ext(tok.Index()).handle)
	return ct.mgr.FinalizeDelete(opStatus, tok)
}

// Lock implements OS_CondVarLock: REFCOUNT mode, since acquiring the
// host mutex blocks while another task holds it, and the per-type lock
// must not be held across that wait.
func (ct *CondVarTable) Lock(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockRefcount, core.ObjCondVar, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)
	return ct.impl.Lock(ct.tbl.Ext(tok.Index()).handle)
}

// Unlock implements OS_CondVarUnlock.
func (ct *CondVarTable) Unlock(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockGlobal, core.ObjCondVar, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)
	return ct.impl.Unlock(ct.tbl.Ext(tok.Index()).handle)
}

// Signal implements OS_CondVarSignal.
func (ct *CondVarTable) Signal(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockGlobal, core.ObjCondVar, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)
	return ct.impl.Signal(ct.tbl.Ext(tok.Index()).handle)
}

// Broadcast implements OS_CondVarBroadcast.
func (ct *CondVarTable) Broadcast(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockGlobal, core.ObjCondVar, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)
	return ct.impl.Broadcast(ct.tbl.Ext(tok.Index()).handle)
}

// Wait implements OS_CondVarWait: REFCOUNT mode, since this is a
// suspension point per spec.md §5.
func (ct *CondVarTable) Wait(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockRefcount, core.ObjCondVar, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)
	return ct.impl.Wait(ct.tbl.Ext(tok.Index()).handle)
}

// TimedWait implements OS_CondVarTimedWait: absWakeup is an absolute
// OS_time_t, not a relative duration, matching spec.md §5's "Timeouts".
func (ct *CondVarTable) TimedWait(ctx context.Context, id core.ObjectID, absWakeup timeval.Time) status.Code {
	tok, code := ct.mgr.GetByID(ctx, core.LockRefcount, core.ObjCondVar, id)
	if !code.OK() {
		return code
	}
	defer ct.mgr.Release(tok)
	return ct.impl.TimedWait(ct.tbl.Ext(tok.Index()).handle, absWakeup)
}
