package core

// commonRecord holds the fields common to every object class, per
// spec.md §3.1 "ObjectRecord (shared across classes)". It is embedded in
// every per-type Table[T] slot.
type commonRecord struct {
	activeID ObjectID
	name     string
	creator  ObjectID
	refcount uint32
}

// recordTable is the type-erased view a Manager needs of a per-class
// Table[T] in order to run the generic allocation/iteration algorithms
// without knowing the class's extension record type T.
type recordTable interface {
	objType() ObjectType
	max() int
	common(idx int) *commonRecord
	// reset clears a slot's extension data back to its zero value; called
	// only while the slot is being claimed by FindNextFree.
	reset(idx int)
}

// Table is the statically sized, per-class extension record array of
// spec.md §3.1: "Per-class extension records. Statically sized arrays of
// plain records (no per-call allocation)." T is the class-specific data
// (StreamRecord, FilesysRecord, ModuleRecord, ...); classes with no
// extension data beyond the common fields (Task, BinSem, Mutex, CondVar)
// instantiate Table[struct{}].
type Table[T any] struct {
	t     ObjectType
	mgr   *Manager
	slots []tableSlot[T]
}

type tableSlot[T any] struct {
	commonRecord
	Ext T
}

// NewTable allocates a fixed-size table for the given object type and
// registers it with mgr so the generic transaction machinery can operate
// on it. size is the class's configured MAX_<CLASS> constant; a size of 0
// is legal and means "this build has no support for this object type"
// (TransactionInit rejects every transaction on it, allocation included,
// with OS_ERR_INVALID_ID).
func NewTable[T any](mgr *Manager, t ObjectType, size int) *Table[T] {
	tbl := &Table[T]{t: t, mgr: mgr, slots: make([]tableSlot[T], size)}
	mgr.registerTable(t, tbl)
	return tbl
}

func (tb *Table[T]) objType() ObjectType { return tb.t }
func (tb *Table[T]) max() int            { return len(tb.slots) }

// Max exposes the table's fixed size to other packages (filesys/stream
// scans for path translation, rename, close-by-name) that hold a
// *Table[T] directly rather than going through the generic recordTable
// interface.
func (tb *Table[T]) Max() int { return len(tb.slots) }

func (tb *Table[T]) common(idx int) *commonRecord { return &tb.slots[idx].commonRecord }

func (tb *Table[T]) reset(idx int) {
	tb.slots[idx].Ext = *new(T)
}

// Ext returns the class-specific extension record at idx, along with the
// slot's active id for a sanity check by the caller. Callers obtain idx
// from a Token (Token.Index()); no locking is performed here, the caller
// must already hold whatever lock the Token represents.
func (tb *Table[T]) Ext(idx int) *T {
	return &tb.slots[idx].Ext
}

// ActiveID returns the id currently stored at idx, without any locking.
func (tb *Table[T]) ActiveID(idx int) ObjectID {
	return tb.slots[idx].activeID
}

// Name returns the name recorded at idx.
func (tb *Table[T]) Name(idx int) string {
	return tb.slots[idx].name
}

// SetName updates the name recorded at idx; used by rename operations and
// by socket Bind's generated "<addr>:<port>" name. The new name is also
// added to the type's name filter so AllocateNew's collision check sees
// it; the caller must hold a GLOBAL transaction on the type.
func (tb *Table[T]) SetName(idx int, name string) {
	tb.slots[idx].name = name
	if name != "" {
		tb.mgr.types[tb.t].nameFilter.InsertUnique([]byte(name))
	}
}

// Creator returns the task id that allocated the slot at idx.
func (tb *Table[T]) Creator(idx int) ObjectID {
	return tb.slots[idx].creator
}
