// Package filesys implements spec.md §4.5: the virtual-mount registry and
// path translation algorithm, with pluggable volume backends behind the
// ImplHooks Filesys hook group (StartVolume, StopVolume, FormatVolume,
// MountVolume, UnmountVolume, StatVolume, CheckVolume).
package filesys

import (
	"context"
	"strings"

	"github.com/nasa-osal/osal-go/cmn/cos"
	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/status"
)

// FSType distinguishes how a volume's storage behaves, per spec.md §4.5's
// "mkfs" rule that a device named with the RAM prefix is volatile.
type FSType int32

const (
	FSUnknown      FSType = 0
	FSNormalDisk   FSType = 1
	FSVolatileDisk FSType = 2
)

// flag is FilesysRecord's status bitset.
type flag uint8

const (
	IsReady          flag = 1 << 0
	IsMountedSystem  flag = 1 << 1
	IsMountedVirtual flag = 1 << 2
	IsFixed          flag = 1 << 3
)

// VolumeStats is what StatVolume reports, the Go-native os_fsinfo_t
// equivalent.
type VolumeStats struct {
	BlockSize  uint32
	NumBlocks  uint32
	FreeBlocks uint32
	Checksum   uint64
}

// VolumeBackend implements spec.md §4.8's Filesys hook group for one kind
// of storage (POSIX directory, S3 bucket, Azure container, GCS bucket,
// HDFS path). The core never inspects a backend's private state.
type VolumeBackend interface {
	StartVolume(ctx context.Context, deviceName string) status.Code
	StopVolume(ctx context.Context, deviceName string) status.Code
	FormatVolume(ctx context.Context, deviceName string) status.Code
	MountVolume(ctx context.Context, deviceName, systemMountpt string) status.Code
	UnmountVolume(ctx context.Context, deviceName string) status.Code
	StatVolume(ctx context.Context, deviceName string) (VolumeStats, status.Code)
	CheckVolume(ctx context.Context, deviceName string, repair bool) status.Code
}

// filesysRecord is the Filesys class's extension data, spec.md §3.1's
// FilesysRecord.
type filesysRecord struct {
	deviceName     string
	volumeName     string
	systemMountpt  string
	virtualMountpt string
	fstype         FSType
	flags          flag
	blockSize      uint32
	numBlocks      uint32
	backend        VolumeBackend
}

// Table owns the fixed-size Filesys object array.
type Table struct {
	mgr      *core.Manager
	tbl      *core.Table[filesysRecord]
	backends map[string]VolumeBackend // device name -> backend, chosen at AddFixedMap/mkfs time
	def      VolumeBackend
}

// NewTable allocates the Filesys table sized maxFilesys. def is the
// backend used unless a device-specific one was registered via
// RegisterBackend (so callers can mix POSIX, S3, Azure, GCS and HDFS
// volumes in one process).
func NewTable(mgr *core.Manager, def VolumeBackend, maxFilesys int) *Table {
	return &Table{
		mgr:      mgr,
		tbl:      core.NewTable[filesysRecord](mgr, core.ObjFileSys, maxFilesys),
		backends: map[string]VolumeBackend{},
		def:      def,
	}
}

// RegisterBackend binds deviceName to a specific VolumeBackend, overriding
// the table's default for that device only.
func (t *Table) RegisterBackend(deviceName string, backend VolumeBackend) {
	t.backends[deviceName] = backend
}

func (t *Table) backendFor(deviceName string) VolumeBackend {
	if b, ok := t.backends[deviceName]; ok {
		return b
	}
	return t.def
}

// AddFixedMap implements spec.md §4.5 "AddFixedMap": allocate a record
// already marked ready/mounted, without going through mkfs/mount.
func (t *Table) AddFixedMap(ctx context.Context, physPath, virtPath string) (core.ObjectID, status.Code) {
	tok, code := t.mgr.AllocateNew(ctx, core.ObjFileSys, virtPath)
	if !code.OK() {
		return core.Undefined, code
	}
	backend := t.backendFor(physPath)
	*t.tbl.Ext(tok.Index()) = filesysRecord{
		deviceName:     physPath,
		systemMountpt:  physPath,
		virtualMountpt: virtPath,
		flags:          IsFixed | IsReady | IsMountedSystem | IsMountedVirtual,
		backend:        backend,
	}

	if opStatus := backend.StartVolume(ctx, physPath); !opStatus.OK() {
		var discard core.ObjectID
		t.mgr.FinalizeNew(opStatus, tok, &discard)
		return core.Undefined, opStatus
	}
	if opStatus := backend.MountVolume(ctx, physPath, physPath); !opStatus.OK() {
		var discard core.ObjectID
		t.mgr.FinalizeNew(opStatus, tok, &discard)
		return core.Undefined, opStatus
	}

	var id core.ObjectID
	code = t.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// MakeFS implements spec.md §4.5 "mkfs/initfs": a RAM-prefixed device name
// is volatile; impl StartVolume, and for mkfs (format true) also
// FormatVolume; marks the record IS_READY.
func (t *Table) MakeFS(ctx context.Context, deviceName, volumeName string, format bool) (core.ObjectID, status.Code) {
	tok, code := t.mgr.AllocateNew(ctx, core.ObjFileSys, deviceName)
	if !code.OK() {
		return core.Undefined, code
	}

	fstype := FSNormalDisk
	if strings.HasPrefix(deviceName, "RAM") {
		fstype = FSVolatileDisk
	}
	backend := t.backendFor(deviceName)
	*t.tbl.Ext(tok.Index()) = filesysRecord{deviceName: deviceName, volumeName: volumeName, fstype: fstype, backend: backend}

	if opStatus := backend.StartVolume(ctx, deviceName); !opStatus.OK() {
		var discard core.ObjectID
		t.mgr.FinalizeNew(opStatus, tok, &discard)
		return core.Undefined, opStatus
	}
	if format {
		if opStatus := backend.FormatVolume(ctx, deviceName); !opStatus.OK() {
			var discard core.ObjectID
			t.mgr.FinalizeNew(opStatus, tok, &discard)
			return core.Undefined, opStatus
		}
	}
	t.tbl.Ext(tok.Index()).flags |= IsReady

	var id core.ObjectID
	code = t.mgr.FinalizeNew(status.Success, tok, &id)
	return id, code
}

// Mount implements spec.md §4.5 "mount": requires IS_READY && !IS_MOUNTED_*.
func (t *Table) Mount(ctx context.Context, deviceName, mountpoint string) status.Code {
	id, code := t.mgr.FindByName(core.ObjFileSys, deviceName)
	if !code.OK() {
		return code
	}
	tok, code := t.mgr.GetByID(ctx, core.LockGlobal, core.ObjFileSys, id)
	if !code.OK() {
		return code
	}
	defer t.mgr.Release(tok)

	rec := t.tbl.Ext(tok.Index())
	if rec.flags&IsReady == 0 || rec.flags&(IsMountedSystem|IsMountedVirtual) != 0 {
		return status.ErrIncorrectObjState
	}
	if opStatus := rec.backend.MountVolume(ctx, deviceName, mountpoint); !opStatus.OK() {
		return opStatus
	}
	rec.flags |= IsMountedSystem | IsMountedVirtual
	rec.virtualMountpt = mountpoint
	rec.systemMountpt = mountpoint
	return status.Success
}

// Unmount implements spec.md §4.5 "unmount": lookup by virtual_mountpt,
// require all three ready/mounted flags, impl UnmountVolume, clear mount
// flags.
func (t *Table) Unmount(ctx context.Context, mountpoint string) status.Code {
	var found = -1
	for i := 0; i < t.tbl.Max(); i++ {
		if t.tbl.ActiveID(i).Defined() && t.tbl.Ext(i).virtualMountpt == mountpoint {
			found = i
			break
		}
	}
	if found < 0 {
		return status.ErrNameNotFound
	}

	id := t.tbl.ActiveID(found)
	tok, code := t.mgr.GetByID(ctx, core.LockGlobal, core.ObjFileSys, id)
	if !code.OK() {
		return code
	}
	defer t.mgr.Release(tok)

	rec := t.tbl.Ext(tok.Index())
	const all = IsReady | IsMountedSystem | IsMountedVirtual
	if rec.flags&all != all {
		return status.ErrIncorrectObjState
	}
	if opStatus := rec.backend.UnmountVolume(ctx, rec.deviceName); !opStatus.OK() {
		return opStatus
	}
	rec.flags &^= IsMountedSystem | IsMountedVirtual
	return status.Success
}

// RemoveFS implements spec.md §4.5 "rmfs": exclusive delete, impl
// StopVolume.
func (t *Table) RemoveFS(ctx context.Context, deviceName string) status.Code {
	id, code := t.mgr.FindByName(core.ObjFileSys, deviceName)
	if !code.OK() {
		return code
	}
	tok, code := t.mgr.GetByID(ctx, core.LockExclusive, core.ObjFileSys, id)
	if !code.OK() {
		return code
	}
	rec := t.tbl.Ext(tok.Index())
	opStatus := rec.backend.StopVolume(ctx, deviceName)
	return t.mgr.FinalizeDelete(opStatus, tok)
}

// StatVolume implements OS_FileSysStatVolume (a supplemented feature).
func (t *Table) StatVolume(ctx context.Context, deviceName string) (VolumeStats, status.Code) {
	id, code := t.mgr.FindByName(core.ObjFileSys, deviceName)
	if !code.OK() {
		return VolumeStats{}, code
	}
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjFileSys, id)
	if !code.OK() {
		return VolumeStats{}, code
	}
	defer t.mgr.Release(tok)
	rec := t.tbl.Ext(tok.Index())
	return rec.backend.StatVolume(ctx, deviceName)
}

// CheckVolume implements OS_chkfs (a supplemented feature).
func (t *Table) CheckVolume(ctx context.Context, deviceName string, repair bool) status.Code {
	id, code := t.mgr.FindByName(core.ObjFileSys, deviceName)
	if !code.OK() {
		return code
	}
	tok, code := t.mgr.GetByID(ctx, core.LockRefcount, core.ObjFileSys, id)
	if !code.OK() {
		return code
	}
	defer t.mgr.Release(tok)
	rec := t.tbl.Ext(tok.Index())
	return rec.backend.CheckVolume(ctx, deviceName, repair)
}

const (
	maxFileName = 64
	maxPath     = 64
	maxLocalPath = 128
)

// TranslatePath implements spec.md §4.5's path translation algorithm
// exactly; satisfies stream.PathTranslator.
func (t *Table) TranslatePath(virtualPath string) (string, status.Code) {
	if !strings.HasPrefix(virtualPath, "/") {
		return "", status.FSErrPathInvalid
	}
	if base := basename(virtualPath); cos.TooLong(base, maxFileName) {
		return "", status.FSErrNameTooLong
	}
	if cos.TooLong(virtualPath, maxPath) {
		return "", status.FSErrPathTooLong
	}

	for i := 0; i < t.tbl.Max(); i++ {
		if !t.tbl.ActiveID(i).Defined() {
			continue
		}
		rec := t.tbl.Ext(i)
		if rec.flags&IsMountedVirtual == 0 {
			continue
		}
		if !cos.HasPrefixBoundary(virtualPath, rec.virtualMountpt) {
			continue
		}
		native := rec.systemMountpt + virtualPath[len(rec.virtualMountpt):]
		if cos.TooLong(native, maxLocalPath) {
			return "", status.FSErrPathTooLong
		}
		return native, status.Success
	}
	return "", status.FSErrPathInvalid
}

func basename(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
