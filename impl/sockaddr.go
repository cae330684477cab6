package impl

import (
	"net"
	"strconv"

	"github.com/nasa-osal/osal-go/status"
)

// SocketAddrCodec implements spec.md §4.8's "Socket address (optionally
// DNS-capable)" hook group: AddrInit, AddrToString, AddrFromString,
// AddrGetPort, AddrSetPort. Hooks that mutate the address take a pointer
// so the shared layer's stored SockAddr is updated in place.
type SocketAddrCodec interface {
	AddrInit(a *SockAddr)
	AddrToString(a *SockAddr) (string, status.Code)
	AddrFromString(a *SockAddr, text string) status.Code
	AddrGetPort(a *SockAddr) (uint16, status.Code)
	AddrSetPort(a *SockAddr, port uint16) status.Code
}

// SockAddr is the shared-layer's view of a socket endpoint: an IPv4/IPv6
// address plus port.
type SockAddr struct {
	IP   net.IP
	Port uint16
}

// ipCodec is the always-available, non-DNS-resolving codec: it accepts
// only literal dotted-decimal/IPv6 addresses, matching the
// `os-impl-bsd-sockets-no-dns.c` build variant.
type ipCodec struct{}

// NewSocketAddrCodec returns the IPv4/IPv6 socket address codec. When
// resolveDNS is true, AddrFromString also accepts hostnames and resolves
// them via net.LookupHost (the `os-impl-bsd-sockets-dns.c` variant);
// otherwise it accepts only numeric literals and returns ErrBadAddress
// for anything else.
func NewSocketAddrCodec(resolveDNS bool) SocketAddrCodec {
	if resolveDNS {
		return dnsCodec{}
	}
	return ipCodec{}
}

func (ipCodec) AddrInit(a *SockAddr) { *a = SockAddr{} }

func (ipCodec) AddrToString(a *SockAddr) (string, status.Code) {
	if a.IP == nil {
		return "", status.ErrBadAddress
	}
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port))), status.Success
}

func (ipCodec) AddrFromString(a *SockAddr, text string) status.Code {
	host, portStr, err := net.SplitHostPort(text)
	if err != nil {
		host, portStr = text, "0"
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return status.ErrBadAddress
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return status.ErrBadAddress
	}
	a.IP = ip
	a.Port = uint16(port)
	return status.Success
}

func (ipCodec) AddrGetPort(a *SockAddr) (uint16, status.Code) { return a.Port, status.Success }

func (ipCodec) AddrSetPort(a *SockAddr, port uint16) status.Code {
	a.Port = port
	return status.Success
}

// dnsCodec additionally resolves hostnames in AddrFromString, falling
// back to ipCodec's numeric-literal parse first since that never blocks
// on a resolver round-trip.
type dnsCodec struct{ ipCodec }

func (c dnsCodec) AddrFromString(a *SockAddr, text string) status.Code {
	if code := c.ipCodec.AddrFromString(a, text); code.OK() {
		return code
	}

	host, portStr, err := net.SplitHostPort(text)
	if err != nil {
		host, portStr = text, "0"
	}
	addrs, err := net.LookupHost(host)
	if err != nil {
		return wrapErr("net.LookupHost", err, status.ErrBadAddress)
	}
	if len(addrs) == 0 {
		return status.ErrBadAddress
	}
	ip := net.ParseIP(addrs[0])
	if ip == nil {
		return status.ErrBadAddress
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return status.ErrBadAddress
	}
	a.IP = ip
	a.Port = uint16(port)
	return status.Success
}
