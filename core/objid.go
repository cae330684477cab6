// Package core implements the hard engineering named in spec.md §4.1-4.3:
// the typed ObjectId handle registry, the condvar-protected per-type
// object tables, and the transaction state machine that mediates every
// create/lookup/delete on a managed object. Every other package (stream,
// filesys, module, ossync) is a thin consumer of this one.
package core

import "fmt"

// ObjectType is the closed enum occupying the upper 8 bits of an ObjectID.
type ObjectType uint8

const (
	// objTypeUndefined occupies type tag 0 so that composing a real type
	// with serial 0 can never collide with the all-zero Undefined id.
	objTypeUndefined ObjectType = iota
	ObjTask
	ObjQueue
	ObjBinSem
	ObjCountSem
	ObjMutex
	ObjStream
	ObjDir
	ObjTimeBase
	ObjTimerCb
	ObjModule
	ObjFileSys
	ObjConsole
	ObjCondVar

	numObjectTypes
)

func (t ObjectType) String() string {
	switch t {
	case ObjTask:
		return "Task"
	case ObjQueue:
		return "Queue"
	case ObjBinSem:
		return "BinSem"
	case ObjCountSem:
		return "CountSem"
	case ObjMutex:
		return "Mutex"
	case ObjStream:
		return "Stream"
	case ObjDir:
		return "Dir"
	case ObjTimeBase:
		return "TimeBase"
	case ObjTimerCb:
		return "TimerCb"
	case ObjModule:
		return "Module"
	case ObjFileSys:
		return "FileSys"
	case ObjConsole:
		return "Console"
	case ObjCondVar:
		return "CondVar"
	default:
		return fmt.Sprintf("ObjectType(%d)", uint8(t))
	}
}

// ObjectID is the opaque 32-bit handle visible to callers: type tag in the
// upper 8 bits, serial number in the lower 24.
type ObjectID uint32

const (
	serialBits = 24
	serialMask = 1<<serialBits - 1 // OS_OBJECT_INDEX_MASK

	// Undefined is the all-zero id: a free slot, or "no object".
	Undefined ObjectID = 0

	// Reserved is the sentinel stored in active_id while a slot is
	// mid-create or mid-delete. Composed with type tag 0xFF, which is
	// never assigned to a real ObjectType, so it can never alias a live id.
	Reserved ObjectID = ObjectID(0xFF)<<serialBits | serialMask
)

// Compose places a type tag and serial number into a single handle.
func Compose(t ObjectType, serial uint32) ObjectID {
	return ObjectID(t)<<serialBits | ObjectID(serial&serialMask)
}

// Type extracts the type tag from an id.
func (id ObjectID) Type() ObjectType {
	return ObjectType(id >> serialBits)
}

// Serial extracts the serial number from an id.
func (id ObjectID) Serial() uint32 {
	return uint32(id) & serialMask
}

// Defined reports whether the id is neither Undefined nor Reserved, i.e.
// it names a live object rather than a free or mid-transaction slot.
func (id ObjectID) Defined() bool {
	return id != Undefined && id != Reserved
}

// Equal reports whether two ids name the same handle. Two ObjectIDs
// compare equal iff their underlying values are equal, per spec.md §3.1.
func (id ObjectID) Equal(other ObjectID) bool {
	return id == other
}

func (id ObjectID) String() string {
	if id == Undefined {
		return "OS_OBJECT_ID_UNDEFINED"
	}
	if id == Reserved {
		return "OS_OBJECT_ID_RESERVED"
	}
	return fmt.Sprintf("%s:%d", id.Type(), id.Serial())
}
