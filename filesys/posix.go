package filesys

import (
	"context"
	"os"

	"github.com/karrick/godirwalk"
	"github.com/lufia/iostat"

	"github.com/nasa-osal/osal-go/cmn/nlog"
	"github.com/nasa-osal/osal-go/status"
)

// PosixBackend is the VolumeBackend for a plain mounted POSIX directory:
// StartVolume only checks that the directory exists, StatVolume walks the
// tree with godirwalk to estimate usage and folds in real host disk I/O
// counters via lufia/iostat where available, and CheckVolume walks the
// tree to confirm it is readable.
type PosixBackend struct{}

func (PosixBackend) StartVolume(ctx context.Context, deviceName string) status.Code {
	if _, err := os.Stat(deviceName); err != nil {
		return status.FSErrDriveNotCreated
	}
	return status.Success
}

func (PosixBackend) StopVolume(ctx context.Context, deviceName string) status.Code {
	return status.Success
}

func (PosixBackend) FormatVolume(ctx context.Context, deviceName string) status.Code {
	return okOrErr(os.MkdirAll(deviceName, 0o755))
}

func okOrErr(err error) status.Code {
	if err != nil {
		return status.Error
	}
	return status.Success
}

func (PosixBackend) MountVolume(ctx context.Context, deviceName, systemMountpt string) status.Code {
	return okOrErr(os.MkdirAll(systemMountpt, 0o755))
}

func (PosixBackend) UnmountVolume(ctx context.Context, deviceName string) status.Code {
	return status.Success
}

// StatVolume counts entries under deviceName with godirwalk and, where the
// host exposes it, folds in real disk I/O counters via lufia/iostat.
func (PosixBackend) StatVolume(ctx context.Context, deviceName string) (VolumeStats, status.Code) {
	var numEntries uint32
	err := godirwalk.Walk(deviceName, &godirwalk.Options{
		Callback: func(_ string, _ *godirwalk.Dirent) error {
			numEntries++
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return VolumeStats{}, status.FSErrDriveNotCreated
	}

	stats := VolumeStats{BlockSize: 4096, NumBlocks: numEntries}
	if drives, ierr := iostat.ReadDriveStats(); ierr == nil {
		for _, d := range drives {
			stats.FreeBlocks += uint32(d.BytesRead / 4096)
		}
	} else {
		nlog.Debugf("iostat unavailable for %s: %v", deviceName, ierr)
	}
	return stats, status.Success
}

func (PosixBackend) CheckVolume(ctx context.Context, deviceName string, repair bool) status.Code {
	err := godirwalk.Walk(deviceName, &godirwalk.Options{
		Callback: func(_ string, _ *godirwalk.Dirent) error { return nil },
		Unsorted: true,
	})
	if err != nil {
		return status.FSErrDriveNotCreated
	}
	return status.Success
}
