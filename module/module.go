// Package module implements spec.md §4.6: the ModuleTable, the static
// symbol registry consulted before any dynamic load, and symbol lookup
// dispatch that tries the impl loader first and falls back to the static
// table.
package module

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/blake2b"

	"github.com/nasa-osal/osal-go/cmn/nlog"
	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/status"
)

// Kind distinguishes a static built-in module from one loaded by the impl
// loader at runtime, per spec.md §3.1's ModuleRecord.
type Kind int32

const (
	KindStatic  Kind = 1
	KindDynamic Kind = 2
)

// flag is ModuleRecord's status bitset.
type flag uint8

const (
	flagLoaded flag = 1 << 0
)

// moduleRecord is the Module class's extension data.
type moduleRecord struct {
	fileName   string
	kind       Kind
	flags      flag
	entryPoint uintptr
	handle     any // impl-defined dynamic handle, nil for static modules
}

// Symbol is one entry of the build-time static symbol registry: spec.md
// §4.6's "{name, addr, module_name}" record. A zero Addr means "module
// present but no symbols", the documented placeholder case.
type Symbol struct {
	Name       string
	ModuleName string
	Addr       uintptr
}

// Loader is the dynamic-loading half of the Module hook group
// (spec.md §4.8): ModuleLoad/ModuleUnload/ModuleSymbolLookup, satisfied
// by an impl backend.
type Loader interface {
	ModuleLoad(ctx context.Context, nativePath string) (handle any, entryPoint uintptr, code status.Code)
	ModuleUnload(ctx context.Context, handle any) status.Code
	ModuleSymbolLookup(ctx context.Context, handle any, symbolName string) (uintptr, status.Code)
}

// manifestClaims is the detached JWT payload that accompanies a dynamic
// module: the module's name, the blake2b-256 digest of its file contents
// hex-encoded, and a not-before time. ModuleLoad refuses to hand a module
// to the impl loader unless the signed digest matches the file on disk.
type manifestClaims struct {
	ModuleName string `json:"module_name"`
	Digest     string `json:"digest"`
	jwt.RegisteredClaims
}

// Table owns the fixed-size Module object array plus the static symbol
// registry it consults before ever calling the dynamic loader.
type Table struct {
	mgr        *core.Manager
	tbl        *core.Table[moduleRecord]
	loader     Loader
	manifestKey []byte // HMAC key the manifest JWT is signed with; nil disables manifest checking

	mu     sync.RWMutex
	static []Symbol
}

// NewTable allocates the Module table sized maxModules. staticSymbols is
// the build-time immutable static symbol list (spec.md §4.6: "a sum type
// {Static{addr, name}, Dynamic{handle}}... The static symbol list is a
// build-time immutable table"). manifestKey, if non-nil, is the HMAC key
// dynamic-module manifests are verified against; nil disables manifest
// checking entirely (any dynamic module loads unverified).
func NewTable(mgr *core.Manager, loader Loader, staticSymbols []Symbol, manifestKey []byte) *Table {
	return &Table{
		mgr:         mgr,
		tbl:         core.NewTable[moduleRecord](mgr, core.ObjModule, len(staticSymbols)+32),
		loader:      loader,
		manifestKey: manifestKey,
		static:      append([]Symbol(nil), staticSymbols...),
	}
}

func (t *Table) staticModule(moduleName string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.static {
		if s.ModuleName == moduleName {
			return s, true
		}
	}
	return Symbol{}, false
}

// ModuleLoad implements spec.md §4.6 "On load": check the static registry
// first; only fall to the impl loader, and only after the accompanying
// manifest verifies, for a module not found there. manifestToken is the
// detached JWT string; fileContents is what the digest claim is checked
// against. Both are ignored for a module resolved statically.
func (t *Table) ModuleLoad(ctx context.Context, moduleName, nativePath, manifestToken string, fileContents []byte) (core.ObjectID, status.Code) {
	tok, code := t.mgr.AllocateNew(ctx, core.ObjModule, moduleName)
	if !code.OK() {
		return core.Undefined, code
	}

	if sym, ok := t.staticModule(moduleName); ok {
		*t.tbl.Ext(tok.Index()) = moduleRecord{
			fileName:   nativePath,
			kind:       KindStatic,
			flags:      flagLoaded,
			entryPoint: sym.Addr,
		}
		var id core.ObjectID
		return id, t.mgr.FinalizeNew(status.Success, tok, &id)
	}

	if t.manifestKey != nil {
		if verr := t.verifyManifest(moduleName, manifestToken, fileContents); !verr.OK() {
			var discard core.ObjectID
			t.mgr.FinalizeNew(verr, tok, &discard)
			return core.Undefined, verr
		}
	}

	handle, entry, opStatus := t.loader.ModuleLoad(ctx, nativePath)
	if !opStatus.OK() {
		var discard core.ObjectID
		t.mgr.FinalizeNew(opStatus, tok, &discard)
		return core.Undefined, opStatus
	}
	*t.tbl.Ext(tok.Index()) = moduleRecord{
		fileName:   nativePath,
		kind:       KindDynamic,
		flags:      flagLoaded,
		entryPoint: entry,
		handle:     handle,
	}

	var id core.ObjectID
	return id, t.mgr.FinalizeNew(status.Success, tok, &id)
}

// verifyManifest parses and validates the detached manifest JWT, then
// checks its digest claim against the blake2b-256 sum of fileContents.
// Any failure is logged via nlog (spec.md §7's non-fatal anomaly rule)
// and reported back as ErrIncorrectObjState.
func (t *Table) verifyManifest(moduleName, manifestToken string, fileContents []byte) status.Code {
	var claims manifestClaims
	_, err := jwt.ParseWithClaims(manifestToken, &claims, func(*jwt.Token) (any, error) {
		return t.manifestKey, nil
	})
	if err != nil {
		nlog.Warningln("module manifest parse failed for", moduleName, ":", err)
		return status.ErrIncorrectObjState
	}
	if claims.ModuleName != moduleName {
		nlog.Warningln("module manifest name mismatch:", claims.ModuleName, "!=", moduleName)
		return status.ErrIncorrectObjState
	}

	sum := blake2b.Sum256(fileContents)
	if claims.Digest != hex.EncodeToString(sum[:]) {
		nlog.Warningln("module manifest digest mismatch for", moduleName)
		return status.ErrIncorrectObjState
	}
	return status.Success
}

// SignManifest is a test/tooling helper that produces the detached JWT a
// module's build step would emit, signed with key.
func SignManifest(moduleName string, fileContents []byte, key []byte, notBefore int64) (string, error) {
	sum := blake2b.Sum256(fileContents)
	claims := manifestClaims{
		ModuleName: moduleName,
		Digest:     hex.EncodeToString(sum[:]),
		RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(time.Unix(notBefore, 0)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(key)
}

// Unload implements spec.md §4.6 "Unload calls impl ModuleUnload only for
// DYNAMIC modules."
func (t *Table) Unload(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := t.mgr.GetByID(ctx, core.LockExclusive, core.ObjModule, id)
	if !code.OK() {
		return code
	}
	rec := t.tbl.Ext(tok.Index())
	opStatus := status.Success
	if rec.kind == KindDynamic {
		opStatus = t.loader.ModuleUnload(ctx, rec.handle)
	}
	return t.mgr.FinalizeDelete(opStatus, tok)
}

// GetInfo implements spec.md §4.8's ModuleGetInfo.
func (t *Table) GetInfo(ctx context.Context, id core.ObjectID) (fileName string, kind Kind, code status.Code) {
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjModule, id)
	if !code.OK() {
		return "", 0, code
	}
	defer t.mgr.Release(tok)
	rec := t.tbl.Ext(tok.Index())
	return rec.fileName, rec.kind, status.Success
}

// GlobalSymbolLookup implements spec.md §4.6 "Symbol lookup tries impl
// first, then falls back to the static table": search across every loaded
// dynamic module's impl handle, then the static registry unfiltered by
// module.
func (t *Table) GlobalSymbolLookup(ctx context.Context, symbolName string) (uintptr, status.Code) {
	for i := 0; i < t.tbl.Max(); i++ {
		id := t.tbl.ActiveID(i)
		if !id.Defined() {
			continue
		}
		rec := t.tbl.Ext(i)
		if rec.kind == KindDynamic && rec.handle != nil {
			if addr, code := t.loader.ModuleSymbolLookup(ctx, rec.handle, symbolName); code.OK() {
				return addr, status.Success
			}
		}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.static {
		if s.Name == symbolName {
			if s.Addr == 0 {
				break
			}
			return s.Addr, status.Success
		}
	}
	return 0, status.ErrNameNotFound
}

// ModuleSymbolLookup implements spec.md §4.6's module-scoped lookup
// variant: restrict the search to one named module.
func (t *Table) ModuleSymbolLookup(ctx context.Context, moduleID core.ObjectID, symbolName string) (uintptr, status.Code) {
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjModule, moduleID)
	if !code.OK() {
		return 0, code
	}
	defer t.mgr.Release(tok)
	rec := t.tbl.Ext(tok.Index())
	name := t.tbl.Name(tok.Index())

	if rec.kind == KindDynamic && rec.handle != nil {
		if addr, code := t.loader.ModuleSymbolLookup(ctx, rec.handle, symbolName); code.OK() {
			return addr, status.Success
		}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.static {
		if s.ModuleName == name && s.Name == symbolName {
			if s.Addr == 0 {
				break
			}
			return s.Addr, status.Success
		}
	}
	return 0, status.ErrNameNotFound
}
