package filesys

import (
	"context"

	"github.com/colinmarc/hdfs/v2"

	"github.com/nasa-osal/osal-go/status"
)

// HDFSBackend is the VolumeBackend for an HDFS-path-backed volume.
// deviceName is the HDFS path this volume is rooted at.
type HDFSBackend struct {
	client *hdfs.Client
}

// NewHDFSBackend dials namenodeAddr the way hdfs.New expects
// ("host:port").
func NewHDFSBackend(namenodeAddr string) (*HDFSBackend, error) {
	client, err := hdfs.New(namenodeAddr)
	if err != nil {
		return nil, err
	}
	return &HDFSBackend{client: client}, nil
}

func (b *HDFSBackend) StartVolume(ctx context.Context, deviceName string) status.Code {
	if _, err := b.client.Stat(deviceName); err != nil {
		return status.FSErrDriveNotCreated
	}
	return status.Success
}

func (b *HDFSBackend) StopVolume(ctx context.Context, deviceName string) status.Code { return status.Success }

func (b *HDFSBackend) FormatVolume(ctx context.Context, deviceName string) status.Code {
	if err := b.client.MkdirAll(deviceName, 0o755); err != nil {
		return status.Error
	}
	return status.Success
}

func (b *HDFSBackend) MountVolume(ctx context.Context, deviceName, systemMountpt string) status.Code {
	return b.StartVolume(ctx, deviceName)
}

func (b *HDFSBackend) UnmountVolume(ctx context.Context, deviceName string) status.Code { return status.Success }

func (b *HDFSBackend) StatVolume(ctx context.Context, deviceName string) (VolumeStats, status.Code) {
	entries, err := b.client.ReadDir(deviceName)
	if err != nil {
		return VolumeStats{}, status.Error
	}
	return VolumeStats{BlockSize: 1, NumBlocks: uint32(len(entries))}, status.Success
}

func (b *HDFSBackend) CheckVolume(ctx context.Context, deviceName string, repair bool) status.Code {
	return b.StartVolume(ctx, deviceName)
}
