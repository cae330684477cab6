package core

import (
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/nasa-osal/osal-go/cmn/nlog"
)

// lockKeyFixed is the fixed nonzero high byte placed into every owner_key,
// per spec.md §3.1 ("0x4D XOR-combined with the caller's task id and the
// transaction counter").
const lockKeyFixed = uint32(0x4D000000)

// typeState is spec.md's ObjectTypeState: one per class, guarding the
// class's global lock, transaction counter and last-issued serial number.
type typeState struct {
	mu   sync.Mutex
	cond *sync.Cond

	lastIDIssued     ObjectID
	transactionCount uint32
	ownerKey         uint32

	// nameFilter is a probabilistic pre-check (github.com/seiflotfy/
	// cuckoofilter) consulted before the exact linear name scan in
	// AllocateNew: a negative lookup here means "definitely not taken",
	// letting the common case skip the O(MAX) scan. A positive lookup is
	// not authoritative (cuckoo filters have false positives) and always
	// falls through to the exact scan.
	nameFilter *cuckoo.Filter
}

func newTypeState() *typeState {
	ts := &typeState{nameFilter: cuckoo.NewFilter(1024)}
	ts.cond = sync.NewCond(&ts.mu)
	return ts
}

// Manager owns every per-type table and global lock in the process. There
// is normally exactly one Manager per running OSAL image, constructed once
// by NewManager at startup and threaded into every other package.
type Manager struct {
	types  [numObjectTypes]*typeState
	tables [numObjectTypes]recordTable

	lifecycle lifecycleState

	eventMu sync.Mutex
	eventCB EventCallback
}

// NewManager constructs an empty Manager. Tables are registered onto it by
// NewTable as each object-class package initializes.
func NewManager() *Manager {
	m := &Manager{}
	for i := range m.types {
		m.types[i] = newTypeState()
	}
	return m
}

func (m *Manager) registerTable(t ObjectType, rt recordTable) {
	m.tables[t] = rt
}

func (m *Manager) maxForType(t ObjectType) int {
	rt := m.tables[t]
	if rt == nil {
		return 0
	}
	return rt.max()
}

// lockGlobal acquires the per-type lock, leaves it held on return, and
// stamps the owner_key the way OS_Lock_Global does. Not exported: it is
// called by TransactionInit, by TransactionFinish (to re-acquire after a
// REFCOUNT/EXCLUSIVE phase) and by Iterator.ProcessEntry after its
// callback returns. The lock remains held until a matching
// unlockGlobal (directly, or via ConvertToken/TransactionFinish).
func (m *Manager) lockGlobal(ts *typeState, t ObjectType, caller ObjectID) uint32 {
	ts.mu.Lock()

	key := lockKeyFixed | ((uint32(caller) ^ ts.transactionCount) & 0x00FFFFFF)
	ts.transactionCount++

	if ts.ownerKey != 0 {
		// Almost certainly a bug: sync.Mutex already serializes this path,
		// so a nonzero owner_key here means a prior holder forgot to unlock.
		nlog.Debugf("global %s acquired by task %s when already assigned key 0x%x", t, caller, ts.ownerKey)
	}
	ts.ownerKey = key

	return key
}

// unlockGlobal verifies the caller's key matches the recorded owner_key
// the way OS_Unlock_Global does, then releases the per-type lock. A
// mismatch is logged, never fatal, per spec.md §4.1.
func (m *Manager) unlockGlobal(ts *typeState, t ObjectType, key uint32) {
	if ts.ownerKey&0xFF000000 != lockKeyFixed || ts.ownerKey != key {
		nlog.Debugf("global %s released using mismatched key=0x%x expected=0x%x", t, key, ts.ownerKey)
	}
	ts.ownerKey = 0
	ts.mu.Unlock()
}

// waitForStateChange atomically releases the per-type lock, waits on its
// condition variable, and re-acquires it, clearing and restoring the
// owner_key around the wait exactly as OS_WaitForStateChange does. The
// caller must already hold ts.mu (via a prior lockGlobal) before calling
// this; sync.Cond.Wait unlocks it for the duration of the wait and
// re-locks it before returning, so ts.mu is again held on return.
func (m *Manager) waitForStateChange(ts *typeState) {
	saved := ts.ownerKey
	ts.ownerKey = 0
	ts.cond.Wait()
	ts.ownerKey = saved
}

// broadcastStateChange wakes every waiter on a type's condition variable;
// called by TransactionFinish whenever it writes a slot's active_id.
// Must be called after the per-type lock has been released by the calling
// goroutine (sync.Mutex is not reentrant); a broadcast that interleaves
// with a waiter re-checking state is harmless here since ConvertToken's
// retry loop is attempt-bounded and falls back to OS_ERR_OBJECT_IN_USE.
func (m *Manager) broadcastStateChange(t ObjectType) {
	m.types[t].cond.Broadcast()
}

// RegisterEventCallback installs the application callback described in
// spec.md §6 "Event callback contract". Passing nil disables notification.
func (m *Manager) RegisterEventCallback(cb EventCallback) {
	m.eventMu.Lock()
	m.eventCB = cb
	m.eventMu.Unlock()
}

func (m *Manager) emit(kind EventKind, id ObjectID, data any) int32 {
	m.eventMu.Lock()
	cb := m.eventCB
	m.eventMu.Unlock()
	if cb == nil {
		return 0
	}
	return cb(kind, id, data)
}
