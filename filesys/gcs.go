package filesys

import (
	"context"

	"cloud.google.com/go/storage"

	"github.com/nasa-osal/osal-go/status"
)

// GCSBackend is the VolumeBackend for a Google Cloud Storage bucket-backed
// volume. deviceName is the bucket name.
type GCSBackend struct {
	client *storage.Client
}

// NewGCSBackend wraps a caller-constructed storage.Client (application
// default credentials, or explicit options -- an operational choice left
// to the caller).
func NewGCSBackend(client *storage.Client) *GCSBackend {
	return &GCSBackend{client: client}
}

func (b *GCSBackend) StartVolume(ctx context.Context, deviceName string) status.Code {
	if _, err := b.client.Bucket(deviceName).Attrs(ctx); err != nil {
		return status.FSErrDriveNotCreated
	}
	return status.Success
}

func (b *GCSBackend) StopVolume(ctx context.Context, deviceName string) status.Code { return status.Success }

func (b *GCSBackend) FormatVolume(ctx context.Context, deviceName string) status.Code {
	if err := b.client.Bucket(deviceName).Create(ctx, "", nil); err != nil {
		return status.Error
	}
	return status.Success
}

func (b *GCSBackend) MountVolume(ctx context.Context, deviceName, systemMountpt string) status.Code {
	return b.StartVolume(ctx, deviceName)
}

func (b *GCSBackend) UnmountVolume(ctx context.Context, deviceName string) status.Code { return status.Success }

func (b *GCSBackend) StatVolume(ctx context.Context, deviceName string) (VolumeStats, status.Code) {
	it := b.client.Bucket(deviceName).Objects(ctx, nil)
	var count uint32
	for {
		_, err := it.Next()
		if err != nil {
			break
		}
		count++
	}
	return VolumeStats{BlockSize: 1, NumBlocks: count}, status.Success
}

func (b *GCSBackend) CheckVolume(ctx context.Context, deviceName string, repair bool) status.Code {
	return b.StartVolume(ctx, deviceName)
}
