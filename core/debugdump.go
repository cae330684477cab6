package core

import (
	"github.com/tinylib/msgp/msgp"
)

// ObjectSnapshot is a read-only, wire-encodable view of one live object
// record, used by the debug console's /debug/objects endpoint. It is kept
// deliberately flat (no nested structs, no pointers) so hand-written
// msgp encode/decode stays simple; go generate is not run in this module,
// so MarshalMsg/UnmarshalMsg below are written directly against
// github.com/tinylib/msgp/msgp's append/read helpers rather than codegen'd.
type ObjectSnapshot struct {
	ID       uint32
	Type     string
	Name     string
	Creator  uint32
	Refcount uint32
}

// DumpObjects snapshots every live object across every registered class,
// via ForEachObject, into a flat slice suitable for msgp encoding.
func (m *Manager) DumpObjects() []ObjectSnapshot {
	var out []ObjectSnapshot
	m.ForEachObject(Undefined, func(id ObjectID, arg any) {
		name, _ := m.GetResourceName(id)
		t := m.tables[id.Type()]
		idx := int(id.Serial()) % t.max()
		rec := t.common(idx)
		out = append(out, ObjectSnapshot{
			ID:       uint32(id),
			Type:     id.Type().String(),
			Name:     name,
			Creator:  uint32(rec.creator),
			Refcount: rec.refcount,
		})
	}, nil)
	return out
}

// MarshalMsg appends the msgpack encoding of s to b, as a 5-element map
// keyed by field name.
func (s ObjectSnapshot) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 5)
	b = msgp.AppendString(b, "id")
	b = msgp.AppendUint32(b, s.ID)
	b = msgp.AppendString(b, "type")
	b = msgp.AppendString(b, s.Type)
	b = msgp.AppendString(b, "name")
	b = msgp.AppendString(b, s.Name)
	b = msgp.AppendString(b, "creator")
	b = msgp.AppendUint32(b, s.Creator)
	b = msgp.AppendString(b, "refcount")
	b = msgp.AppendUint32(b, s.Refcount)
	return b, nil
}

// UnmarshalMsg decodes s from the msgpack map encoding written by
// MarshalMsg, returning the remaining unread bytes.
func (s *ObjectSnapshot) UnmarshalMsg(b []byte) ([]byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return b, err
	}
	for i := 0; i < int(n); i++ {
		var key string
		key, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return b, err
		}
		switch key {
		case "id":
			s.ID, b, err = msgp.ReadUint32Bytes(b)
		case "type":
			s.Type, b, err = msgp.ReadStringBytes(b)
		case "name":
			s.Name, b, err = msgp.ReadStringBytes(b)
		case "creator":
			s.Creator, b, err = msgp.ReadUint32Bytes(b)
		case "refcount":
			s.Refcount, b, err = msgp.ReadUint32Bytes(b)
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return b, err
		}
	}
	return b, nil
}

// DumpObjectsMsg encodes every live object snapshot as a single msgpack
// array, the wire format served by the console's /debug/objects endpoint.
func (m *Manager) DumpObjectsMsg() ([]byte, error) {
	snaps := m.DumpObjects()
	b := msgp.AppendArrayHeader(nil, uint32(len(snaps)))
	var err error
	for _, s := range snaps {
		b, err = s.MarshalMsg(b)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}
