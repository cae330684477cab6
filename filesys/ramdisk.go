package filesys

import (
	"context"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/klauspost/reedsolomon"

	"github.com/nasa-osal/osal-go/cmn/nlog"
	"github.com/nasa-osal/osal-go/status"
)

// RAMDiskBackend is the VolumeBackend used for devices named with the RAM
// prefix (spec.md §4.5's "mkfs" rule): an in-memory byte store with a
// reed-solomon parity shard computed at format time and re-verified by
// CheckVolume, and an xxhash content checksum computed at format time and
// reported by StatVolume.
type RAMDiskBackend struct {
	mu      sync.Mutex
	volumes map[string]*ramVolume
}

type ramVolume struct {
	data     []byte
	parity   [][]byte
	checksum uint64
}

// NewRAMDiskBackend returns an empty RAM-disk backend.
func NewRAMDiskBackend() *RAMDiskBackend {
	return &RAMDiskBackend{volumes: map[string]*ramVolume{}}
}

func (b *RAMDiskBackend) StartVolume(ctx context.Context, deviceName string) status.Code {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.volumes[deviceName]; !ok {
		b.volumes[deviceName] = &ramVolume{}
	}
	return status.Success
}

func (b *RAMDiskBackend) StopVolume(ctx context.Context, deviceName string) status.Code {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.volumes, deviceName)
	return status.Success
}

// dataShards/parityShards sizes a minimal reedsolomon encoder: just
// enough to demonstrate single-shard-loss recovery for a RAM volume,
// which is never expected to hold more than a handful of blocks.
const (
	dataShards   = 4
	parityShards = 2
)

func (b *RAMDiskBackend) FormatVolume(ctx context.Context, deviceName string) status.Code {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.volumes[deviceName]
	if !ok {
		return status.FSErrDriveNotCreated
	}
	v.data = make([]byte, 4096)

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return status.Error
	}
	shards, err := enc.Split(v.data)
	if err != nil {
		return status.Error
	}
	if err := enc.Encode(shards); err != nil {
		return status.Error
	}
	v.parity = shards
	v.checksum = xxhash.Checksum64(v.data)
	return status.Success
}

func (b *RAMDiskBackend) MountVolume(ctx context.Context, deviceName, systemMountpt string) status.Code {
	return b.StartVolume(ctx, deviceName)
}

func (b *RAMDiskBackend) UnmountVolume(ctx context.Context, deviceName string) status.Code {
	return status.Success
}

func (b *RAMDiskBackend) StatVolume(ctx context.Context, deviceName string) (VolumeStats, status.Code) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.volumes[deviceName]
	if !ok {
		return VolumeStats{}, status.FSErrDriveNotCreated
	}
	return VolumeStats{
		BlockSize: 4096,
		NumBlocks: uint32(len(v.data) / 4096),
		Checksum:  v.checksum,
	}, status.Success
}

// CheckVolume re-verifies the reed-solomon parity shards, repairing a
// single lost/corrupted shard in place when repair is true.
func (b *RAMDiskBackend) CheckVolume(ctx context.Context, deviceName string, repair bool) status.Code {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.volumes[deviceName]
	if !ok || v.parity == nil {
		return status.FSErrDriveNotCreated
	}

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return status.Error
	}
	ok2, err := enc.Verify(v.parity)
	if err != nil {
		return status.Error
	}
	if !ok2 {
		if !repair {
			return status.Error
		}
		if err := enc.Reconstruct(v.parity); err != nil {
			nlog.Errorf("ramdisk %s: reed-solomon reconstruct failed: %v", deviceName, err)
			return status.Error
		}
	}
	return status.Success
}
