package core

import "context"

// ArgCallback is the signature OS_ForEachObject/OS_ForEachObjectOfType
// invoke for every matching object; it receives the opaque user arg
// unchanged. Unlike Iterator.ProcessEntry, this holds the type's GLOBAL
// lock for the callback's entire duration -- the original documents it as
// intended for lightweight introspection (e.g. printing a table), never
// for callbacks that themselves start a transaction.
type ArgCallback func(id ObjectID, arg any)

// ForEachObjectOfType implements OS_ForEachObjectOfType: invoke callback
// for every live object of type t, optionally restricted to those created
// by creator (pass Undefined to match any creator).
func (m *Manager) ForEachObjectOfType(t ObjectType, creator ObjectID, callback ArgCallback, arg any) {
	tok, code := m.TransactionInit(context.Background(), LockGlobal, t)
	if !code.OK() {
		return
	}
	defer m.Cancel(tok)

	tbl := m.tables[t]
	for i := 0; i < tbl.max(); i++ {
		rec := tbl.common(i)
		if !rec.activeID.Defined() {
			continue
		}
		if creator.Defined() && !rec.creator.Equal(creator) {
			continue
		}
		callback(rec.activeID, arg)
	}
}

// ForEachObject implements OS_ForEachObject: like ForEachObjectOfType but
// scans every registered type.
func (m *Manager) ForEachObject(creator ObjectID, callback ArgCallback, arg any) {
	for t := ObjectType(1); t < numObjectTypes; t++ {
		if m.tables[t] == nil {
			continue
		}
		m.ForEachObjectOfType(t, creator, callback, arg)
	}
}

// GetResourceName implements OS_GetResourceName: look up the printable
// name recorded for id, regardless of type.
func (m *Manager) GetResourceName(id ObjectID) (string, bool) {
	t := id.Type()
	if int(t) <= 0 || t >= numObjectTypes || m.tables[t] == nil {
		return "", false
	}
	maxID := m.tables[t].max()
	if maxID == 0 {
		return "", false
	}
	idx := int(id.Serial()) % maxID
	rec := m.tables[t].common(idx)
	if !rec.activeID.Equal(id) {
		return "", false
	}
	return rec.name, true
}
