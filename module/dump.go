package module

import (
	"bytes"
	"sort"

	jsoniter "github.com/json-iterator/go"
	lz4 "github.com/pierrec/lz4/v3"
	"github.com/tidwall/buntdb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// symbolDumpEntry is the JSON shape of one static-table row in a
// SymbolTableDump, keyed so the debug console can render it directly.
type symbolDumpEntry struct {
	Name       string `json:"name"`
	ModuleName string `json:"module_name"`
	Addr       uint64 `json:"addr"`
}

// SymbolTableDump implements spec.md §4.8's Module hook "SymbolTableDump":
// serialize the static symbol registry to JSON and lz4-compress it, the
// form handed to the debug console.
func (t *Table) SymbolTableDump() ([]byte, error) {
	t.mu.RLock()
	entries := make([]symbolDumpEntry, len(t.static))
	for i, s := range t.static {
		entries[i] = symbolDumpEntry{Name: s.Name, ModuleName: s.ModuleName, Addr: uint64(s.Addr)}
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ModuleName != entries[j].ModuleName {
			return entries[i].ModuleName < entries[j].ModuleName
		}
		return entries[i].Name < entries[j].Name
	})

	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}

	var compressed bytes.Buffer
	w := lz4.NewWriter(&compressed)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return compressed.Bytes(), nil
}

// SymbolIndex is an in-memory buntdb index of the static symbol table,
// for lookups by module name without re-scanning the slice (spec.md
// §4.6's static registry).
type SymbolIndex struct {
	db *buntdb.DB
}

// NewSymbolIndex builds an in-memory (":memory:") buntdb index over
// staticSymbols, one key per "<module_name>/<name>" pair.
func NewSymbolIndex(staticSymbols []Symbol) (*SymbolIndex, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *buntdb.Tx) error {
		for _, s := range staticSymbols {
			raw, merr := json.Marshal(symbolDumpEntry{Name: s.Name, ModuleName: s.ModuleName, Addr: uint64(s.Addr)})
			if merr != nil {
				return merr
			}
			if _, _, serr := tx.Set(s.ModuleName+"/"+s.Name, string(raw), nil); serr != nil {
				return serr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SymbolIndex{db: db}, nil
}

// ByModule returns every symbol registered under moduleName, in
// lexical-key order.
func (si *SymbolIndex) ByModule(moduleName string) ([]Symbol, error) {
	var out []Symbol
	err := si.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(moduleName+"/*", func(key, value string) bool {
			var e symbolDumpEntry
			if jerr := json.Unmarshal([]byte(value), &e); jerr == nil {
				out = append(out, Symbol{Name: e.Name, ModuleName: e.ModuleName, Addr: uintptr(e.Addr)})
			}
			return true
		})
	})
	return out, err
}

// Close releases the underlying buntdb handle.
func (si *SymbolIndex) Close() error { return si.db.Close() }
