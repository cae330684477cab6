package stream

import (
	"context"

	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/impl"
	"github.com/nasa-osal/osal-go/status"
)

// OpenSocket implements spec.md §4.4 "Socket open": AllocateNew, set
// {domain, type, state=0}, impl SocketOpen, finalize.
func (t *Table) OpenSocket(ctx context.Context, domain SocketDomain, typ SocketType) (core.ObjectID, status.Code) {
	tok, code := t.mgr.AllocateNew(ctx, core.ObjStream, "")
	if !code.OK() {
		return core.Undefined, code
	}

	h, code := t.socks.SocketOpen(domain, typ)
	if !code.OK() {
		var discard core.ObjectID
		t.mgr.FinalizeNew(code, tok, &discard)
		return core.Undefined, code
	}
	*t.tbl.Ext(tok.Index()) = streamRecord{domain: domain, typ: typ, sock: h}

	var id core.ObjectID
	code = t.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// Bind implements spec.md §4.4's Bind transition: requires !BOUND &&
// !CONNECTED; sets BOUND and publishes the generated "<addr>:<port>" name.
func (t *Table) Bind(ctx context.Context, id core.ObjectID, addr impl.SockAddr) status.Code {
	tok, code := t.mgr.GetByID(ctx, core.LockGlobal, core.ObjStream, id)
	if !code.OK() {
		return code
	}
	defer t.mgr.Release(tok)

	rec := t.tbl.Ext(tok.Index())
	if !rec.isSocket() {
		return status.ErrIncorrectObjType
	}
	if rec.state&(StateBound|StateConnected) != 0 {
		return status.ErrIncorrectObjState
	}

	if opStatus := t.socks.Bind(rec.sock, addr); !opStatus.OK() {
		return opStatus
	}
	rec.state |= StateBound
	rec.local = addr
	name := socketName(addr)
	rec.name = name
	t.tbl.SetName(tok.Index(), name)
	return status.Success
}

// Connect implements spec.md §4.4's Connect transition: requires STREAM
// type and !CONNECTED; sets CONNECTED|READABLE|WRITABLE.
func (t *Table) Connect(ctx context.Context, id core.ObjectID, addr impl.SockAddr, timeoutMS int32) status.Code {
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjStream, id)
	if !code.OK() {
		return code
	}
	defer t.mgr.Release(tok)

	rec := t.tbl.Ext(tok.Index())
	if !rec.isSocket() || rec.typ != TypeStream {
		return status.ErrIncorrectObjType
	}
	if rec.state&StateConnected != 0 {
		return status.ErrIncorrectObjState
	}

	if opStatus := t.socks.Connect(rec.sock, addr, timeoutMS); !opStatus.OK() {
		return opStatus
	}
	rec.state |= StateConnected | StateReadable | StateWritable
	rec.remote = addr
	return status.Success
}

// Accept implements spec.md §4.4's Accept transition: server must be
// BOUND && !CONNECTED && STREAM. Creates a new Stream record (second
// AllocateNew, under an outer REFCOUNT lock on the server) named
// "<remote-addr>:<port>-<server-name>", with CONNECTED set on the new
// record; the server record remains BOUND.
func (t *Table) Accept(ctx context.Context, serverID core.ObjectID, timeoutMS int32) (core.ObjectID, status.Code) {
	serverTok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjStream, serverID)
	if !code.OK() {
		return core.Undefined, code
	}
	defer t.mgr.Release(serverTok)

	serverRec := t.tbl.Ext(serverTok.Index())
	if !serverRec.isSocket() || serverRec.typ != TypeStream {
		return core.Undefined, status.ErrIncorrectObjType
	}
	if serverRec.state&StateBound == 0 || serverRec.state&StateConnected != 0 {
		return core.Undefined, status.ErrIncorrectObjState
	}

	newSock, remote, opStatus := t.socks.Accept(serverRec.sock, timeoutMS)
	if !opStatus.OK() {
		return core.Undefined, opStatus
	}

	name := socketName(remote) + "-" + serverRec.name
	tok, code := t.mgr.AllocateNew(ctx, core.ObjStream, name)
	if !code.OK() {
		t.socks.Shutdown(newSock)
		return core.Undefined, code
	}
	*t.tbl.Ext(tok.Index()) = streamRecord{
		domain: serverRec.domain,
		typ:    serverRec.typ,
		state:  StateConnected | StateReadable | StateWritable,
		name:   name,
		sock:   newSock,
		local:  serverRec.local,
		remote: remote,
	}

	var id core.ObjectID
	code = t.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// RecvFrom implements spec.md §4.4's RecvFrom: datagram only, requires
// BOUND.
func (t *Table) RecvFrom(ctx context.Context, id core.ObjectID, buf []byte, timeoutMS int32) (int, impl.SockAddr, status.Code) {
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjStream, id)
	if !code.OK() {
		return 0, impl.SockAddr{}, code
	}
	defer t.mgr.Release(tok)

	rec := t.tbl.Ext(tok.Index())
	if !rec.isSocket() || rec.typ != TypeDatagram {
		return 0, impl.SockAddr{}, status.ErrIncorrectObjType
	}
	if rec.state&StateBound == 0 {
		return 0, impl.SockAddr{}, status.ErrIncorrectObjState
	}
	return t.socks.RecvFrom(rec.sock, buf, timeoutMS)
}

// SendTo implements spec.md §4.4's SendTo: datagram only.
func (t *Table) SendTo(ctx context.Context, id core.ObjectID, buf []byte, addr impl.SockAddr) (int, status.Code) {
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjStream, id)
	if !code.OK() {
		return 0, code
	}
	defer t.mgr.Release(tok)

	rec := t.tbl.Ext(tok.Index())
	if !rec.isSocket() || rec.typ != TypeDatagram {
		return 0, status.ErrIncorrectObjType
	}
	return t.socks.SendTo(rec.sock, buf, addr)
}
