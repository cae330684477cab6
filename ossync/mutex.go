package ossync

import (
	"context"

	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/status"
)

// MutexImpl is the host-specific half of a recursive-unsafe mutex (plain
// lock/unlock, no timed variant in the original).
type MutexImpl interface {
	Create() (MutexHandle, status.Code)
	Delete(h MutexHandle) status.Code
	Lock(h MutexHandle) status.Code
	Unlock(h MutexHandle) status.Code
}

// MutexHandle is opaque host-private state for one mutex.
type MutexHandle = any

type mutexRecord struct {
	handle MutexHandle
}

// MutexTable owns the fixed-size Mutex object array.
type MutexTable struct {
	mgr  *core.Manager
	tbl  *core.Table[mutexRecord]
	impl MutexImpl
}

// NewMutexTable allocates the Mutex table sized maxMutexes.
func NewMutexTable(mgr *core.Manager, impl MutexImpl, maxMutexes int) *MutexTable {
	return &MutexTable{mgr: mgr, tbl: core.NewTable[mutexRecord](mgr, core.ObjMutex, maxMutexes), impl: impl}
}

// Create implements OS_MutSemCreate.
func (mt *MutexTable) Create(ctx context.Context, name string) (core.ObjectID, status.Code) {
	tok, code := mt.mgr.AllocateNew(ctx, core.ObjMutex, name)
	if !code.OK() {
		return core.Undefined, code
	}

	h, code := mt.impl.Create()
	if !code.OK() {
		var discard core.ObjectID
		mt.mgr.FinalizeNew(code, tok, &discard)
		return core.Undefined, code
	}
	mt.tbl.Ext(tok.Index()).handle = h

	var id core.ObjectID
	code = mt.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// Delete implements OS_MutSemDelete.
func (mt *MutexTable) Delete(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := mt.mgr.GetByID(ctx, core.LockExclusive, core.ObjMutex, id)
	if !code.OK() {
		return code
	}
	opStatus := mt.impl.Delete(mt.tbl.Ext(tok.Index()).handle)
	return mt.mgr.FinalizeDelete(opStatus, tok)
}

// Take implements OS_MutSemTake: REFCOUNT mode, since the host lock call
// may block.
func (mt *MutexTable) Take(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := mt.mgr.GetByID(ctx, core.LockRefcount, core.ObjMutex, id)
	if !code.OK() {
		return code
	}
	defer mt.mgr.Release(tok)
	return mt.impl.Lock(mt.tbl.Ext(tok.Index()).handle)
}

// Give implements OS_MutSemGive.
func (mt *MutexTable) Give(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := mt.mgr.GetByID(ctx, core.LockGlobal, core.ObjMutex, id)
	if !code.OK() {
		return code
	}
	defer mt.mgr.Release(tok)
	return mt.impl.Unlock(mt.tbl.Ext(tok.Index()).handle)
}
