package impl

import (
	"crypto/sha256"
	"encoding/binary"
	"os"

	"github.com/nasa-osal/osal-go/status"
)

// NetworkImpl implements spec.md §4.8's Network hook group.
type NetworkImpl interface {
	NetworkGetHostName() (string, status.Code)
	NetworkGetID() (int32, status.Code)
}

// SystemNetwork is the host-backed NetworkImpl.
type SystemNetwork struct{}

func (SystemNetwork) NetworkGetHostName() (string, status.Code) {
	name, err := os.Hostname()
	if err != nil {
		return "", wrapErr("os.Hostname", err, status.Error)
	}
	return name, status.Success
}

// NetworkGetID derives a stable 32-bit id from the hostname, the way the
// original derives a network id from the host's IP/MAC when no explicit
// configuration is supplied: deterministic per host, not globally unique.
func (SystemNetwork) NetworkGetID() (int32, status.Code) {
	name, err := os.Hostname()
	if err != nil {
		return 0, wrapErr("os.Hostname", err, status.Error)
	}
	sum := sha256.Sum256([]byte(name))
	return int32(binary.BigEndian.Uint32(sum[:4])), status.Success
}
