package core

import (
	"context"

	"github.com/nasa-osal/osal-go/status"

	shortid "github.com/teris-io/shortid"
)

// Iterator implements spec.md §4.3: filtered traversal of one object class
// under its global lock, with safe callback dispatch via ProcessEntry.
type Iterator struct {
	mgr     *Manager
	objType ObjectType
	match   MatchFunc
	idx     int
	curID   ObjectID
	tok     *Token

	// sessionID correlates ProcessEntry's lock-release/re-acquire cycle
	// in debug logs across a single iteration session; cosmetic only.
	sessionID string
}

// Always is the built-in "always active" match predicate.
func Always(ObjectType, int, ObjectID) bool { return true }

// ByCreator builds a match predicate selecting slots created by creator.
func ByCreator(mgr *Manager, creator ObjectID) MatchFunc {
	return func(t ObjectType, idx int, id ObjectID) bool {
		return mgr.tables[t].common(idx).creator.Equal(creator)
	}
}

// ByName builds a match predicate selecting the slot whose recorded name
// equals name exactly.
func ByName(mgr *Manager, name string) MatchFunc {
	return func(t ObjectType, idx int, id ObjectID) bool {
		return mgr.tables[t].common(idx).name == name
	}
}

// ByVirtualMountPrefix is provided for filesys's close/iteration needs;
// takes a caller-supplied predicate over the record's own data via get,
// since core has no visibility into FilesysTable's extension fields.
func ByVirtualMountPrefix(get func(idx int) (mountpt string, mounted bool), target string) MatchFunc {
	return func(t ObjectType, idx int, id ObjectID) bool {
		mountpt, mounted := get(idx)
		if !mounted {
			return false
		}
		return mountpt != "" && len(target) >= len(mountpt) &&
			target[:len(mountpt)] == mountpt &&
			(len(target) == len(mountpt) || target[len(mountpt)] == '/')
	}
}

// IteratorInit implements OS_ObjectIdIteratorInit: acquires a GLOBAL lock
// on the type and positions the iterator before the first slot.
func (m *Manager) IteratorInit(ctx context.Context, match MatchFunc, t ObjectType) (*Iterator, status.Code) {
	tok, code := m.TransactionInit(ctx, LockGlobal, t)
	if !code.OK() {
		return nil, code
	}
	sid, _ := shortid.Generate()
	return &Iterator{mgr: m, objType: t, match: match, idx: -1, tok: tok, sessionID: sid}, status.Success
}

// GetNext implements OS_ObjectIdIteratorProcessEntry's traversal half:
// advances to the next slot accepted by match, returning false once the
// table is exhausted.
func (it *Iterator) GetNext() bool {
	tbl := it.mgr.tables[it.objType]
	for {
		it.idx++
		if it.idx >= tbl.max() {
			it.curID = Undefined
			return false
		}
		rec := tbl.common(it.idx)
		if rec.activeID.Defined() && it.match(it.objType, it.idx, rec.activeID) {
			it.curID = rec.activeID
			return true
		}
	}
}

// Current returns the id the iterator is positioned on after a successful
// GetNext.
func (it *Iterator) Current() ObjectID { return it.curID }

// ProcessEntry implements the "temporarily releases and re-acquires the
// global lock" dispatch of spec.md §4.3, so fn may itself start a
// transaction (e.g. OS_close on a file id) without deadlocking against the
// lock this Iterator already holds. The id and index are captured before
// the callback runs and re-validated on return, since fn may have deleted
// the very slot the iterator was positioned on.
func (it *Iterator) ProcessEntry(fn func(ObjectID) status.Code) status.Code {
	id := it.curID
	ts := it.mgr.types[it.objType]

	it.mgr.unlockGlobal(ts, it.objType, it.tok.lockKey)
	code := fn(id)
	it.tok.lockKey = it.mgr.lockGlobal(ts, it.objType, callerFrom(context.Background()))

	if id.Defined() && it.mgr.tables[it.objType].common(it.idx).activeID != id {
		// fn freed or replaced the entry; stop reporting the stale id.
		it.curID = Undefined
	}
	return code
}

// Destroy implements OS_ObjectIdIteratorDestroy: releases the GLOBAL lock
// the iterator still holds.
func (it *Iterator) Destroy() {
	if it.tok != nil {
		it.mgr.Release(it.tok)
		it.tok = nil
	}
}
