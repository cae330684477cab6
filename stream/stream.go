// Package stream implements spec.md §4.4: files and sockets sharing one
// id-space (core.ObjStream) and one table, distinguished by socket_domain.
package stream

import (
	"context"
	"fmt"

	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/impl"
	"github.com/nasa-osal/osal-go/status"
)

// SocketDomain mirrors the original's OS_SocketDomain_t; DomainInvalid
// marks a Stream record as "a regular file, not a socket".
type SocketDomain int32

const (
	DomainInvalid SocketDomain = 0
	DomainINet    SocketDomain = 1
	DomainINet6   SocketDomain = 2
)

// SocketType mirrors OS_SocketType_t.
type SocketType int32

const (
	TypeInvalid SocketType = 0
	TypeStream  SocketType = 1
	TypeDatagram SocketType = 2
)

// stateBit is the stream_state bitset of spec.md §3.1's StreamRecord.
type stateBit uint8

const (
	StateBound     stateBit = 1 << 0
	StateConnected stateBit = 1 << 1
	StateReadable  stateBit = 1 << 2
	StateWritable  stateBit = 1 << 3
)

// streamRecord is the Stream class's extension data.
type streamRecord struct {
	domain SocketDomain
	typ    SocketType
	state  stateBit
	name   string // stream_name; files also set this (the virtual path)

	file   FileHandle
	sock   SocketHandle
	local  impl.SockAddr
	remote impl.SockAddr
}

func (r *streamRecord) isSocket() bool { return r.domain != DomainInvalid }

// FileImpl implements spec.md §4.8's Stream/File hook group.
type FileImpl interface {
	FileOpen(nativePath string, flags, access int32) (FileHandle, status.Code)
	GenericClose(h FileHandle) status.Code
	GenericRead(h FileHandle, buf []byte, timeoutMS int32) (int, status.Code)
	GenericWrite(h FileHandle, buf []byte, timeoutMS int32) (int, status.Code)
	GenericSeek(h FileHandle, offset int64, whence int32) (int64, status.Code)
	FileChmod(nativePath string, mode uint32) status.Code
	FileStat(nativePath string) (FileStatInfo, status.Code)
	FileRename(oldNative, newNative string) status.Code
	FileRemove(nativePath string) status.Code
}

// FileHandle is opaque host-private per-file state.
type FileHandle = any

// FileStatInfo is the subset of host stat() data the shared layer exposes.
type FileStatInfo struct {
	Size    int64
	IsDir   bool
	ModTime int64
}

// SocketImpl implements spec.md §4.8's Socket hook group.
type SocketImpl interface {
	SocketOpen(domain SocketDomain, typ SocketType) (SocketHandle, status.Code)
	Bind(h SocketHandle, addr impl.SockAddr) status.Code
	Connect(h SocketHandle, addr impl.SockAddr, timeoutMS int32) status.Code
	Accept(h SocketHandle, timeoutMS int32) (SocketHandle, impl.SockAddr, status.Code)
	Shutdown(h SocketHandle) status.Code
	RecvFrom(h SocketHandle, buf []byte, timeoutMS int32) (int, impl.SockAddr, status.Code)
	SendTo(h SocketHandle, buf []byte, addr impl.SockAddr) (int, status.Code)
}

// SocketHandle is opaque host-private per-socket state.
type SocketHandle = any

// PathTranslator resolves a virtual path to a native one; implemented by
// filesys.Table.TranslatePath, injected here to avoid an import
// cycle (filesys depends on nothing in stream).
type PathTranslator interface {
	TranslatePath(virtualPath string) (string, status.Code)
}

// Table owns the fixed-size Stream object array and both impl hook sets.
type Table struct {
	mgr    *core.Manager
	tbl    *core.Table[streamRecord]
	files  FileImpl
	socks  SocketImpl
	paths  PathTranslator
}

// NewTable allocates the Stream table sized maxStreams.
func NewTable(mgr *core.Manager, files FileImpl, socks SocketImpl, paths PathTranslator, maxStreams int) *Table {
	return &Table{
		mgr:   mgr,
		tbl:   core.NewTable[streamRecord](mgr, core.ObjStream, maxStreams),
		files: files,
		socks: socks,
		paths: paths,
	}
}

// OpenFile implements spec.md §4.4 "Open file": AllocateNew, translate
// virtual path, impl FileOpen, finalize.
func (t *Table) OpenFile(ctx context.Context, virtualPath string, flags, access int32) (core.ObjectID, status.Code) {
	native, code := t.paths.TranslatePath(virtualPath)
	if !code.OK() {
		return core.Undefined, code
	}

	tok, code := t.mgr.AllocateNew(ctx, core.ObjStream, virtualPath)
	if !code.OK() {
		return core.Undefined, code
	}

	h, code := t.files.FileOpen(native, flags, access)
	if !code.OK() {
		var discard core.ObjectID
		t.mgr.FinalizeNew(code, tok, &discard)
		return core.Undefined, code
	}
	*t.tbl.Ext(tok.Index()) = streamRecord{domain: DomainInvalid, name: virtualPath, file: h}

	var id core.ObjectID
	code = t.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// Close implements the EXCLUSIVE-mode close path shared by files and
// sockets.
func (t *Table) Close(ctx context.Context, id core.ObjectID) status.Code {
	tok, code := t.mgr.GetByID(ctx, core.LockExclusive, core.ObjStream, id)
	if !code.OK() {
		return code
	}
	rec := t.tbl.Ext(tok.Index())

	var opStatus status.Code
	if rec.isSocket() {
		opStatus = t.socks.Shutdown(rec.sock)
	} else {
		opStatus = t.files.GenericClose(rec.file)
	}
	return t.mgr.FinalizeDelete(opStatus, tok)
}

// Read implements OS_read: REFCOUNT mode since the host call may block.
func (t *Table) Read(ctx context.Context, id core.ObjectID, buf []byte, timeoutMS int32) (int, status.Code) {
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjStream, id)
	if !code.OK() {
		return 0, code
	}
	defer t.mgr.Release(tok)
	rec := t.tbl.Ext(tok.Index())
	if rec.isSocket() {
		n, _, code := t.socks.RecvFrom(rec.sock, buf, timeoutMS)
		return n, code
	}
	return t.files.GenericRead(rec.file, buf, timeoutMS)
}

// Write implements OS_write: REFCOUNT mode.
func (t *Table) Write(ctx context.Context, id core.ObjectID, buf []byte, timeoutMS int32) (int, status.Code) {
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjStream, id)
	if !code.OK() {
		return 0, code
	}
	defer t.mgr.Release(tok)
	rec := t.tbl.Ext(tok.Index())
	if rec.isSocket() {
		return 0, status.ErrIncorrectObjType
	}
	return t.files.GenericWrite(rec.file, buf, timeoutMS)
}

// renameTo updates the name kept in both the common record and the stream
// record (the native path is renamed by the caller); the caller already
// holds a GLOBAL transaction on idx.
func (t *Table) renameTo(idx int, newName string) {
	t.tbl.SetName(idx, newName)
	t.tbl.Ext(idx).name = newName
}

// Rename implements the file-rename half of spec.md §4.4 "Rename /
// close-by-name": GLOBAL transaction, impl FileRename, update both names.
func (t *Table) Rename(ctx context.Context, oldVirtual, newVirtual string) status.Code {
	oldNative, code := t.paths.TranslatePath(oldVirtual)
	if !code.OK() {
		return code
	}
	newNative, code := t.paths.TranslatePath(newVirtual)
	if !code.OK() {
		return code
	}

	id, code := t.mgr.FindByName(core.ObjStream, oldVirtual)
	if !code.OK() {
		return code
	}
	tok, code := t.mgr.GetByID(ctx, core.LockGlobal, core.ObjStream, id)
	if !code.OK() {
		return code
	}
	defer t.mgr.Release(tok)

	if opStatus := t.files.FileRename(oldNative, newNative); !opStatus.OK() {
		return opStatus
	}
	t.renameTo(tok.Index(), newVirtual)
	return status.Success
}

// CloseFileByName implements spec.md §4.4's iterator-based close: iterate
// the Stream table skipping sockets, matching stream_name, and close each
// match via Iterator.ProcessEntry so the nested Close transaction does not
// deadlock against the iteration's own GLOBAL lock. If any close fails,
// report the first error while still attempting the rest.
func (t *Table) CloseFileByName(ctx context.Context, virtualPath string) status.Code {
	match := func(ty core.ObjectType, idx int, id core.ObjectID) bool {
		rec := t.tbl.Ext(idx)
		return !rec.isSocket() && rec.name == virtualPath
	}

	it, code := t.mgr.IteratorInit(ctx, match, core.ObjStream)
	if !code.OK() {
		return code
	}
	defer it.Destroy()

	var first status.Code
	matched := false
	for it.GetNext() {
		matched = true
		rc := it.ProcessEntry(func(id core.ObjectID) status.Code {
			return t.Close(ctx, id)
		})
		if !rc.OK() && first == status.Success {
			first = rc
		}
	}
	if !matched {
		return status.ErrNameNotFound
	}
	if first != status.Success {
		return first
	}
	return status.Success
}

// CloseAllFiles closes every open file (not socket) record, used at
// shutdown; partial failures are accumulated and the first reported,
// mirroring CloseFileByName's policy.
func (t *Table) CloseAllFiles(ctx context.Context) status.Code {
	match := func(ty core.ObjectType, idx int, id core.ObjectID) bool {
		return !t.tbl.Ext(idx).isSocket()
	}
	it, code := t.mgr.IteratorInit(ctx, match, core.ObjStream)
	if !code.OK() {
		return code
	}
	defer it.Destroy()

	var first status.Code
	for it.GetNext() {
		id := it.Current()
		rc := it.ProcessEntry(func(id core.ObjectID) status.Code {
			return t.Close(ctx, id)
		})
		if !rc.OK() && first == status.Success {
			first = rc
		}
		_ = id
	}
	return first
}

// socketName formats the "<addr>:<port>" name Bind publishes.
func socketName(addr impl.SockAddr) string {
	return fmt.Sprintf("%s:%d", addr.IP.String(), addr.Port)
}
