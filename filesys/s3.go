package filesys

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nasa-osal/osal-go/cmn/nlog"
	"github.com/nasa-osal/osal-go/status"
)

// S3Backend is the VolumeBackend for an S3-bucket-backed volume:
// StartVolume/MountVolume/StatVolume translate to HeadBucket/ListObjectsV2
// calls against the configured bucket. deviceName is always the bucket
// name for this backend.
type S3Backend struct {
	client *s3.Client
}

// NewS3Backend loads the default AWS config chain (env vars, shared
// config file, IMDS) the way every AWS SDK v2 client does.
func NewS3Backend(ctx context.Context) (*S3Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &S3Backend{client: s3.NewFromConfig(cfg)}, nil
}

func (b *S3Backend) StartVolume(ctx context.Context, deviceName string) status.Code {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &deviceName})
	if err != nil {
		nlog.Warningf("s3 HeadBucket(%s): %v", deviceName, err)
		return status.FSErrDriveNotCreated
	}
	return status.Success
}

func (b *S3Backend) StopVolume(ctx context.Context, deviceName string) status.Code { return status.Success }

func (b *S3Backend) FormatVolume(ctx context.Context, deviceName string) status.Code {
	_, err := b.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &deviceName})
	if err != nil {
		return status.Error
	}
	return status.Success
}

func (b *S3Backend) MountVolume(ctx context.Context, deviceName, systemMountpt string) status.Code {
	return b.StartVolume(ctx, deviceName)
}

func (b *S3Backend) UnmountVolume(ctx context.Context, deviceName string) status.Code { return status.Success }

func (b *S3Backend) StatVolume(ctx context.Context, deviceName string) (VolumeStats, status.Code) {
	out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &deviceName})
	if err != nil {
		return VolumeStats{}, status.Error
	}
	return VolumeStats{BlockSize: 1, NumBlocks: uint32(len(out.Contents))}, status.Success
}

func (b *S3Backend) CheckVolume(ctx context.Context, deviceName string, repair bool) status.Code {
	return b.StartVolume(ctx, deviceName)
}
