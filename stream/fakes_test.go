package stream

import (
	"net"

	"github.com/nasa-osal/osal-go/impl"
	"github.com/nasa-osal/osal-go/status"
)

// fakeFile is the in-memory FileHandle fakeFileImpl hands out.
type fakeFile struct {
	name   string
	data   []byte
	offset int64
	closed bool
}

// fakeFileImpl is a FileImpl backed by an in-process map, standing in for
// a host filesystem the way a ramdisk backend would in production.
type fakeFileImpl struct {
	files map[string]*fakeFile
}

func newFakeFileImpl() *fakeFileImpl {
	return &fakeFileImpl{files: map[string]*fakeFile{}}
}

func (f *fakeFileImpl) FileOpen(nativePath string, flags, access int32) (FileHandle, status.Code) {
	h := &fakeFile{name: nativePath}
	f.files[nativePath] = h
	return h, status.Success
}

func (f *fakeFileImpl) GenericClose(h FileHandle) status.Code {
	h.(*fakeFile).closed = true
	return status.Success
}

func (f *fakeFileImpl) GenericRead(h FileHandle, buf []byte, timeoutMS int32) (int, status.Code) {
	fh := h.(*fakeFile)
	n := copy(buf, fh.data[fh.offset:])
	fh.offset += int64(n)
	return n, status.Success
}

func (f *fakeFileImpl) GenericWrite(h FileHandle, buf []byte, timeoutMS int32) (int, status.Code) {
	fh := h.(*fakeFile)
	fh.data = append(fh.data, buf...)
	return len(buf), status.Success
}

func (f *fakeFileImpl) GenericSeek(h FileHandle, offset int64, whence int32) (int64, status.Code) {
	h.(*fakeFile).offset = offset
	return offset, status.Success
}

func (f *fakeFileImpl) FileChmod(nativePath string, mode uint32) status.Code { return status.Success }

func (f *fakeFileImpl) FileStat(nativePath string) (FileStatInfo, status.Code) {
	fh, ok := f.files[nativePath]
	if !ok {
		return FileStatInfo{}, status.ErrNameNotFound
	}
	return FileStatInfo{Size: int64(len(fh.data))}, status.Success
}

func (f *fakeFileImpl) FileRename(oldNative, newNative string) status.Code {
	fh, ok := f.files[oldNative]
	if !ok {
		return status.ErrNameNotFound
	}
	delete(f.files, oldNative)
	fh.name = newNative
	f.files[newNative] = fh
	return status.Success
}

func (f *fakeFileImpl) FileRemove(nativePath string) status.Code {
	if _, ok := f.files[nativePath]; !ok {
		return status.ErrNameNotFound
	}
	delete(f.files, nativePath)
	return status.Success
}

// fakeSock is the handle fakeSocketImpl hands out.
type fakeSock struct {
	domain SocketDomain
	typ    SocketType
	peer   *fakeSock
	local  impl.SockAddr
	inbox  [][]byte
}

// fakeSocketImpl is an in-process SocketImpl: Connect/Accept pair sockets
// directly instead of opening a real host socket, so the Ginkgo suite can
// drive the Bind/Connect/Accept state machine deterministically.
type fakeSocketImpl struct {
	bound   map[string]*fakeSock // "ip:port" -> listening socket awaiting Accept
	pending map[string]*fakeSock // "ip:port" -> connecting socket awaiting Accept
}

func newFakeSocketImpl() *fakeSocketImpl {
	return &fakeSocketImpl{bound: map[string]*fakeSock{}, pending: map[string]*fakeSock{}}
}

func (s *fakeSocketImpl) SocketOpen(domain SocketDomain, typ SocketType) (SocketHandle, status.Code) {
	return &fakeSock{domain: domain, typ: typ}, status.Success
}

func (s *fakeSocketImpl) Bind(h SocketHandle, addr impl.SockAddr) status.Code {
	sock := h.(*fakeSock)
	sock.local = addr
	s.bound[socketName(addr)] = sock
	return status.Success
}

func (s *fakeSocketImpl) Connect(h SocketHandle, addr impl.SockAddr, timeoutMS int32) status.Code {
	sock := h.(*fakeSock)
	if _, ok := s.bound[socketName(addr)]; !ok {
		return status.ErrorTimeout
	}
	s.pending[socketName(addr)] = sock
	return status.Success
}

func (s *fakeSocketImpl) Accept(h SocketHandle, timeoutMS int32) (SocketHandle, impl.SockAddr, status.Code) {
	server := h.(*fakeSock)
	name := socketName(server.local)
	client, ok := s.pending[name]
	if !ok {
		return nil, impl.SockAddr{}, status.ErrorTimeout
	}
	delete(s.pending, name)

	accepted := &fakeSock{domain: server.domain, typ: server.typ, peer: client}
	client.peer = accepted
	remote := impl.SockAddr{IP: net.IPv4(127, 0, 0, 1), Port: 55555}
	return accepted, remote, status.Success
}

func (s *fakeSocketImpl) Shutdown(h SocketHandle) status.Code { return status.Success }

func (s *fakeSocketImpl) RecvFrom(h SocketHandle, buf []byte, timeoutMS int32) (int, impl.SockAddr, status.Code) {
	sock := h.(*fakeSock)
	if len(sock.inbox) == 0 {
		return 0, impl.SockAddr{}, status.ErrorTimeout
	}
	msg := sock.inbox[0]
	sock.inbox = sock.inbox[1:]
	n := copy(buf, msg)
	return n, sock.local, status.Success
}

func (s *fakeSocketImpl) SendTo(h SocketHandle, buf []byte, addr impl.SockAddr) (int, status.Code) {
	dest, ok := s.bound[socketName(addr)]
	if !ok {
		return 0, status.ErrBadAddress
	}
	cp := append([]byte(nil), buf...)
	dest.inbox = append(dest.inbox, cp)
	return len(buf), status.Success
}

// fakePathTranslator is the identity translator: virtual == native.
type fakePathTranslator struct{}

func (fakePathTranslator) TranslatePath(virtualPath string) (string, status.Code) {
	return virtualPath, status.Success
}
