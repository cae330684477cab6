package core

// LockMode selects what concurrency rights TransactionInit/ConvertToken
// grant, per the table in spec.md §4.2.
type LockMode uint8

const (
	// LockNone acquires nothing; informational access only.
	LockNone LockMode = iota
	// LockGlobal keeps the per-type lock held across the whole operation.
	LockGlobal
	// LockRefcount increments refcount and releases the per-type lock
	// before any potentially-blocking host call.
	LockRefcount
	// LockExclusive is create/delete: active_id -> Reserved, waits for
	// refcount == 0, then releases the per-type lock.
	LockExclusive
	// LockReserved is recursive same-task access during create/delete.
	LockReserved
)

// Token is spec.md's TransactionToken: a caller-scoped transaction context
// binding {type, index, captured id, lock mode, lock key}.
type Token struct {
	mgr      *Manager
	objType  ObjectType
	idx      int
	id       ObjectID
	mode     LockMode
	lockKey  uint32
	released bool
}

// Type returns the object class this token was opened against.
func (tok *Token) Type() ObjectType { return tok.objType }

// Index returns the slot index within the class's Table[T], for use with
// Table[T].Ext/ActiveID/Name after a successful ConvertToken.
func (tok *Token) Index() int { return tok.idx }

// ID returns the id captured by the token (the id that was looked up, or
// freshly allocated by AllocateNew).
func (tok *Token) ID() ObjectID { return tok.id }

// Mode returns the token's current lock mode; Release/Finish set it back
// to LockNone to prevent double-release.
func (tok *Token) Mode() LockMode { return tok.mode }
