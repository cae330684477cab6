// Package ossync implements the concurrency-primitive object classes of
// spec.md §3.1's type enum: Task, BinSem, CountSem, Mutex, CondVar. Every
// class is a thin wrapper around core.Manager's generic allocate/lookup/
// delete transactions, plus the class-specific extension record and the
// impl hook calls spec.md §4.8 names.
package ossync

import (
	"context"

	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/status"
)

// TaskRecord is the Task class's extension data: just enough to let other
// packages resolve "who is the calling task" without embedding scheduling
// policy, which spec.md §1 explicitly places out of scope.
type TaskRecord struct {
	Priority int32
	StackKB  int32
}

// TaskTable owns the fixed-size Task object array.
type TaskTable struct {
	mgr *core.Manager
	tbl *core.Table[TaskRecord]
}

// NewTaskTable allocates the Task table sized maxTasks and registers it
// with mgr.
func NewTaskTable(mgr *core.Manager, maxTasks int) *TaskTable {
	return &TaskTable{mgr: mgr, tbl: core.NewTable[TaskRecord](mgr, core.ObjTask, maxTasks)}
}

// Create implements the Task analogue of AllocateNew: a Task has no impl
// hook of its own in this package (the host scheduler owns thread
// creation out of scope, per spec.md §1) -- registering a Task object here
// only reserves the handle other objects record as their `creator`.
func (tt *TaskTable) Create(ctx context.Context, name string, priority, stackKB int32) (core.ObjectID, status.Code) {
	tok, code := tt.mgr.AllocateNew(ctx, core.ObjTask, name)
	if !code.OK() {
		return core.Undefined, code
	}
	*tt.tbl.Ext(tok.Index()) = TaskRecord{Priority: priority, StackKB: stackKB}

	var id core.ObjectID
	code = tt.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// Delete implements Task deletion: exclusive transaction, no impl cleanup
// beyond finalizing the id back to Undefined.
func (tt *TaskTable) Delete(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := tt.mgr.GetByID(ctx, core.LockExclusive, core.ObjTask, id)
	if !code.OK() {
		return code
	}
	return tt.mgr.FinalizeDelete(status.Success, tok)
}

// Info returns a Task's extension record for introspection.
func (tt *TaskTable) Info(ctx context.Context, id core.ObjectID) (TaskRecord, status.Code) {
	tok, code := tt.mgr.GetByID(ctx, core.LockRefcount, core.ObjTask, id)
	if !code.OK() {
		return TaskRecord{}, code
	}
	defer tt.mgr.Release(tok)
	return *tt.tbl.Ext(tok.Index()), status.Success
}
