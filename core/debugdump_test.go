package core

import (
	"context"
	"testing"

	"github.com/tinylib/msgp/msgp"

	"github.com/nasa-osal/osal-go/status"
)

func TestDumpObjectsMsgRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(4)

	tok, code := mgr.AllocateNew(context.Background(), ObjTask, "snapshot-me")
	if !code.OK() {
		t.Fatalf("AllocateNew: %v", code)
	}
	var id ObjectID
	mgr.FinalizeNew(status.Success, tok, &id)

	snaps := mgr.DumpObjects()
	if len(snaps) != 1 {
		t.Fatalf("DumpObjects() = %d entries, want 1", len(snaps))
	}
	if snaps[0].Name != "snapshot-me" || snaps[0].Type != "Task" {
		t.Fatalf("unexpected snapshot: %+v", snaps[0])
	}

	encoded, err := mgr.DumpObjectsMsg()
	if err != nil {
		t.Fatalf("DumpObjectsMsg: %v", err)
	}

	n, rest, err := msgp.ReadArrayHeaderBytes(encoded)
	if err != nil {
		t.Fatalf("read array header: %v", err)
	}
	if n != 1 {
		t.Fatalf("array header = %d, want 1", n)
	}
	var got ObjectSnapshot
	rest, err = got.UnmarshalMsg(rest)
	if err != nil {
		t.Fatalf("UnmarshalMsg: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("%d trailing bytes after decode", len(rest))
	}
	if got != snaps[0] {
		t.Fatalf("decoded %+v, want %+v", got, snaps[0])
	}
}
