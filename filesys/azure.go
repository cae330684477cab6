package filesys

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/nasa-osal/osal-go/status"
)

// AzureBackend is the VolumeBackend for an Azure Blob container-backed
// volume. deviceName is the container name.
type AzureBackend struct {
	client *azblob.Client
}

// NewAzureBackend wraps an already-constructed azblob.Client (built by the
// caller from whatever credential source fits the deployment -- shared
// key, SAS, or azidentity -- since that choice is operational config, not
// something this module should hardcode).
func NewAzureBackend(client *azblob.Client) *AzureBackend {
	return &AzureBackend{client: client}
}

func (b *AzureBackend) StartVolume(ctx context.Context, deviceName string) status.Code {
	pager := b.client.NewListContainersPager(nil)
	if !pager.More() {
		return status.Success
	}
	if _, err := pager.NextPage(ctx); err != nil {
		return status.Error
	}
	return status.Success
}

func (b *AzureBackend) StopVolume(ctx context.Context, deviceName string) status.Code { return status.Success }

func (b *AzureBackend) FormatVolume(ctx context.Context, deviceName string) status.Code {
	_, err := b.client.CreateContainer(ctx, deviceName, nil)
	if err != nil {
		return status.Error
	}
	return status.Success
}

func (b *AzureBackend) MountVolume(ctx context.Context, deviceName, systemMountpt string) status.Code {
	return b.StartVolume(ctx, deviceName)
}

func (b *AzureBackend) UnmountVolume(ctx context.Context, deviceName string) status.Code { return status.Success }

func (b *AzureBackend) StatVolume(ctx context.Context, deviceName string) (VolumeStats, status.Code) {
	pager := b.client.NewListBlobsFlatPager(deviceName, nil)
	var count uint32
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return VolumeStats{}, status.Error
		}
		count += uint32(len(page.Segment.BlobItems))
	}
	return VolumeStats{BlockSize: 1, NumBlocks: count}, status.Success
}

func (b *AzureBackend) CheckVolume(ctx context.Context, deviceName string, repair bool) status.Code {
	return b.StartVolume(ctx, deviceName)
}
