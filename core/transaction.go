package core

import (
	"context"

	"github.com/nasa-osal/osal-go/cmn/debug"
	"github.com/nasa-osal/osal-go/status"
)

// lifecycleState tracks whether the Manager is usable, mirroring the
// "pre-init" / running / "post-shutdown" checks TransactionInit performs
// in the original (OS_ObjectIdTransactionInit rejects everything before
// OS_API_Init and rejects everything except EXCLUSIVE after shutdown, so
// in-flight deletes can still finish).
type lifecycleState int32

const (
	stateUninit lifecycleState = iota
	stateRunning
	stateShutdown
)

// SetRunning marks the Manager ready to serve transactions; called once
// after every class's NewTable has registered.
func (m *Manager) SetRunning() { m.lifecycle = stateRunning }

// Shutdown marks the Manager as shutting down: new transactions of any
// mode other than LockExclusive (delete) are rejected, so outstanding
// deletes can still drain the tables.
func (m *Manager) Shutdown() { m.lifecycle = stateShutdown }

const maxConvertAttempts = 5

// TransactionInit begins a transaction on type t without naming a slot
// yet (the returned token's index is -1), acquiring the per-type lock for
// every mode but LockNone. It is the low-level primitive; most callers
// want AllocateNew, GetByID, GetByName or GetBySearch instead, which call
// it and then locate the slot.
func (m *Manager) TransactionInit(ctx context.Context, mode LockMode, t ObjectType) (*Token, status.Code) {
	if m.lifecycle == stateUninit || (m.lifecycle == stateShutdown && mode != LockExclusive) {
		return nil, status.ErrIncorrectObjState
	}
	if m.maxForType(t) == 0 {
		return nil, status.ErrInvalidID
	}

	tok := &Token{mgr: m, objType: t, idx: -1, mode: mode}
	if mode != LockNone {
		ts := m.types[t]
		tok.lockKey = m.lockGlobal(ts, t, callerFrom(ctx))
	}
	return tok, status.Success
}

// Cancel abandons a transaction token without finalizing any id change,
// releasing whatever lock it holds. Used on validation failures that
// occur after TransactionInit but before the operation committed to
// anything, while the per-type lock is still held. Cancel only unlocks:
// it never touches active_id or refcount.
func (m *Manager) Cancel(tok *Token) {
	if tok == nil {
		return
	}
	if !tok.released && tok.mode != LockNone {
		m.unlockGlobal(m.types[tok.objType], tok.objType, tok.lockKey)
	}
	tok.released = true
	tok.mode = LockNone
}

// Release finishes a read-only lookup (GetByID, GetByName, GetBySearch)
// once the caller is done with the looked-up record, matching the
// original's OS_ObjectIdRelease naming. Unlike Cancel it goes through
// TransactionFinish, which re-acquires the lock a REFCOUNT/EXCLUSIVE
// conversion released and drops the refcount.
func (m *Manager) Release(tok *Token) {
	m.TransactionFinish(tok, nil)
}

// findNextFree implements OS_ObjectIdFindNextFree: starting just after
// last_id_issued, scan forward (wrapping at 2^24) for a free slot; claim
// it by setting active_id = Reserved's successor (the freshly composed
// id) and resetting the common fields. Caller must hold the per-type lock.
func (m *Manager) findNextFree(ts *typeState, tbl recordTable, t ObjectType, caller ObjectID) (int, ObjectID, status.Code) {
	maxID := tbl.max()
	if maxID == 0 {
		return -1, Undefined, status.ErrNotImplemented
	}

	serial := ts.lastIDIssued.Serial()
	for i := 0; i < maxID; i++ {
		serial++
		idx := int(serial) % maxID
		if serial >= serialMask+1 {
			// Reset to the computed residue, not the loop counter, so the
			// rotating (last_issued + i) mod max_id sequence continues
			// unbroken across the wrap instead of restarting from i.
			serial = uint32(idx)
		}
		rec := tbl.common(idx)
		if rec.activeID == Undefined {
			id := Compose(t, serial)
			rec.activeID = id
			rec.name = ""
			rec.creator = caller
			rec.refcount = 0
			tbl.reset(idx)
			ts.lastIDIssued = id
			return idx, id, status.Success
		}
	}
	return -1, Undefined, status.ErrNoFreeIDs
}

// AllocateNew implements spec.md §4.2 "AllocateNew": reject after
// shutdown, open an EXCLUSIVE transaction, reject name collisions, find a
// free slot, emit RESOURCE_ALLOCATED, then run ConvertToken to complete
// setup. On any failure the transaction is cancelled and the slot (if
// claimed) is restored to Undefined.
func (m *Manager) AllocateNew(ctx context.Context, t ObjectType, name string) (*Token, status.Code) {
	tok, code := m.TransactionInit(ctx, LockExclusive, t)
	if !code.OK() {
		return nil, code
	}

	ts := m.types[t]
	tbl := m.tables[t]

	if name != "" && m.nameExists(ts, tbl, name) {
		m.Cancel(tok)
		return nil, status.ErrNameTaken
	}

	idx, id, code := m.findNextFree(ts, tbl, t, callerFrom(ctx))
	if !code.OK() {
		m.Cancel(tok)
		return nil, code
	}
	tok.idx = idx
	tok.id = id
	if name != "" {
		tbl.common(idx).name = name
		ts.nameFilter.InsertUnique([]byte(name))
	}

	if rc := m.emit(EventResourceAllocated, id, nil); rc != 0 {
		// Application vetoed the create; undo the claim and fail. The
		// per-type lock is still held here, so the slot is freed in place
		// and the token is only unlocked.
		tbl.reset(idx)
		rec := tbl.common(idx)
		rec.activeID = Undefined
		rec.name = ""
		m.Cancel(tok)
		return nil, status.Error
	}

	if code := m.ConvertToken(tok); !code.OK() {
		rec := tbl.common(idx)
		rec.activeID = Undefined
		rec.name = ""
		m.Cancel(tok)
		return nil, code
	}
	return tok, status.Success
}

// nameExists performs the name-collision scan AllocateNew needs. The
// cuckoo-filter pre-check only ever shortcuts the negative case; any
// positive (including a false positive) falls through to the exact scan,
// so correctness never depends on the filter.
func (m *Manager) nameExists(ts *typeState, tbl recordTable, name string) bool {
	if !ts.nameFilter.Lookup([]byte(name)) {
		return false
	}
	for i := 0; i < tbl.max(); i++ {
		rec := tbl.common(i)
		if rec.activeID.Defined() && rec.name == name {
			return true
		}
	}
	return false
}

// ConvertToken implements spec.md §4.2 "ConvertToken": validate that the
// slot named by the token still holds the expected id (or is Reserved,
// when another task is mid create/delete), promote to the token's lock
// mode, and adjust refcount/lock-holding accordingly. Retries up to 5
// times via WaitForStateChange before giving up with OS_ERR_OBJECT_IN_USE.
func (m *Manager) ConvertToken(tok *Token) status.Code {
	ts := m.types[tok.objType]
	tbl := m.tables[tok.objType]
	rec := tbl.common(tok.idx)

	expected := tok.id
	if !expected.Defined() {
		return status.ErrIncorrectObjState
	}
	if tok.mode == LockReserved {
		expected = Reserved
	}

	var code status.Code
	attempts := 0
	for {
		if rec.activeID.Equal(expected) {
			if tok.mode == LockExclusive {
				if !expected.Equal(Reserved) {
					expected = Reserved
					rec.activeID = Reserved
				}
				if rec.refcount == 0 {
					code = status.Success
					break
				}
				// fall through to the wait/retry path below
			} else {
				code = status.Success
				break
			}
		} else if tok.mode == LockNone || !rec.activeID.Equal(Reserved) {
			code = status.ErrInvalidID
			break
		}

		attempts++
		if attempts >= maxConvertAttempts {
			code = status.ErrObjectInUse
			break
		}
		m.waitForStateChange(ts)
	}

	if tok.mode != LockNone {
		if code.OK() {
			rec.refcount++
			if tok.mode == LockRefcount || tok.mode == LockExclusive {
				m.unlockGlobal(ts, tok.objType, tok.lockKey)
			}
		} else if tok.mode == LockExclusive && expected.Equal(Reserved) {
			rec.activeID = tok.id
		}
	}

	return code
}

// TransactionFinish implements spec.md §4.2: re-acquire the per-type lock
// if the mode had released it, decrement refcount (saturating at zero),
// write newID to active_id if supplied, otherwise restore the token's
// captured id for a failed EXCLUSIVE op, then release the lock and
// nullify the token so a second Finish/Release/Cancel is a no-op.
func (m *Manager) TransactionFinish(tok *Token, newID *ObjectID) {
	if tok == nil || tok.released || tok.mode == LockNone {
		if tok != nil {
			tok.released = true
			tok.mode = LockNone
		}
		return
	}

	ts := m.types[tok.objType]
	tbl := m.tables[tok.objType]

	if tok.mode == LockRefcount || tok.mode == LockExclusive {
		tok.lockKey = m.lockGlobal(ts, tok.objType, Reserved)
	}

	if tok.idx >= 0 {
		rec := tbl.common(tok.idx)
		debug.Assert(tok.idx < tbl.max(), "token index out of range for its own table")
		if rec.refcount > 0 {
			rec.refcount--
		}
		// A nil newID means no id update is pending (a plain lookup Release,
		// or a Cancel before any slot was ever claimed); active_id is left
		// exactly as ConvertToken last set it.
		if newID != nil {
			rec.activeID = *newID
			if !newID.Defined() {
				rec.name = ""
			}
		}
	}

	m.unlockGlobal(ts, tok.objType, tok.lockKey)
	m.broadcastStateChange(tok.objType)

	tok.released = true
	tok.mode = LockNone
}

// FinalizeNew implements OS_ObjectIdFinalizeNew: on success, publish the
// token's id to outID and emit RESOURCE_CREATED; on failure, clear the
// slot's active_id back to Undefined so it can be reused, and publish
// Undefined. Every caller of AllocateNew must finalize through here (or
// FinalizeDelete for a delete token), never through bare Cancel, once the
// slot has actually been claimed -- Cancel by itself never touches
// active_id.
func (m *Manager) FinalizeNew(opStatus status.Code, tok *Token, outID *ObjectID) status.Code {
	final := Undefined
	if opStatus.OK() {
		final = tok.id
	}
	*outID = final

	m.TransactionFinish(tok, &final)
	if opStatus.OK() {
		m.emit(EventResourceCreated, final, nil)
	}
	return opStatus
}

// FinalizeDelete implements OS_ObjectIdFinalizeDelete: on success, set
// active_id back to Undefined and emit RESOURCE_DELETED; on failure,
// restore the token's original id (the delete did not happen).
func (m *Manager) FinalizeDelete(opStatus status.Code, tok *Token) status.Code {
	if opStatus.OK() {
		undef := Undefined
		m.TransactionFinish(tok, &undef)
		m.emit(EventResourceDeleted, tok.id, nil)
	} else {
		orig := tok.id
		m.TransactionFinish(tok, &orig)
	}
	return opStatus
}

// GetByID implements OS_ObjectIdGetById: open a transaction of the given
// mode against the specific slot named by id's serial number.
func (m *Manager) GetByID(ctx context.Context, mode LockMode, t ObjectType, id ObjectID) (*Token, status.Code) {
	maxID := m.maxForType(t)
	if id.Type() != t || !id.Defined() || maxID == 0 {
		return nil, status.ErrInvalidID
	}
	idx := int(id.Serial()) % maxID

	tok, code := m.TransactionInit(ctx, mode, t)
	if !code.OK() {
		return nil, code
	}
	tok.idx = idx
	tok.id = id

	if code := m.ConvertToken(tok); !code.OK() {
		m.Cancel(tok)
		return nil, code
	}
	return tok, status.Success
}

// GetByName implements OS_ObjectIdGetByName: linear scan for a live slot
// of type t whose recorded name matches, then GetByID on the match.
func (m *Manager) GetByName(ctx context.Context, mode LockMode, t ObjectType, name string) (*Token, status.Code) {
	id, code := m.FindByName(t, name)
	if !code.OK() {
		return nil, code
	}
	return m.GetByID(ctx, mode, t, id)
}

// FindByName implements OS_ObjectIdFindByName: returns just the id,
// without opening a transaction, under a short-lived GLOBAL lock.
func (m *Manager) FindByName(t ObjectType, name string) (ObjectID, status.Code) {
	tok, code := m.TransactionInit(context.Background(), LockGlobal, t)
	if !code.OK() {
		return Undefined, code
	}
	defer m.Cancel(tok)

	tbl := m.tables[t]
	for i := 0; i < tbl.max(); i++ {
		rec := tbl.common(i)
		if rec.activeID.Defined() && rec.name == name {
			return rec.activeID, status.Success
		}
	}
	return Undefined, status.ErrNameNotFound
}

// MatchFunc is the predicate GetBySearch and Iterator use to select
// candidate slots, given the slot's captured id and index.
type MatchFunc func(t ObjectType, idx int, id ObjectID) bool

// GetBySearch implements OS_ObjectIdGetBySearch: scan a type's table under
// a GLOBAL lock for the first slot MatchFunc accepts, then convert to the
// requested mode.
func (m *Manager) GetBySearch(ctx context.Context, mode LockMode, t ObjectType, match MatchFunc) (*Token, status.Code) {
	init, code := m.TransactionInit(ctx, LockGlobal, t)
	if !code.OK() {
		return nil, code
	}

	tbl := m.tables[t]
	idx := -1
	var id ObjectID
	for i := 0; i < tbl.max(); i++ {
		rec := tbl.common(i)
		if rec.activeID.Defined() && match(t, i, rec.activeID) {
			idx, id = i, rec.activeID
			break
		}
	}
	if idx < 0 {
		m.Cancel(init)
		return nil, status.ErrNameNotFound
	}

	if mode == LockGlobal {
		init.idx = idx
		init.id = id
		return init, status.Success
	}

	// Release the GLOBAL probe lock and re-open with the requested mode,
	// matching the original's two-step "lock, find, then convert" flow.
	m.Cancel(init)
	tok, code := m.TransactionInit(ctx, mode, t)
	if !code.OK() {
		return nil, code
	}
	tok.idx = idx
	tok.id = id
	if code := m.ConvertToken(tok); !code.OK() {
		m.Cancel(tok)
		return nil, code
	}
	return tok, status.Success
}

