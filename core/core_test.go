package core

import (
	"context"
	"sync"
	"testing"

	"github.com/nasa-osal/osal-go/status"
)

func newTestManager(size int) (*Manager, *Table[struct{}]) {
	mgr := NewManager()
	tbl := NewTable[struct{}](mgr, ObjTask, size)
	mgr.SetRunning()
	return mgr, tbl
}

func TestObjectIDComposeRoundTrip(t *testing.T) {
	id := Compose(ObjStream, 0x123456)
	if id.Type() != ObjStream {
		t.Fatalf("Type() = %v, want %v", id.Type(), ObjStream)
	}
	if id.Serial() != 0x123456 {
		t.Fatalf("Serial() = %#x, want %#x", id.Serial(), 0x123456)
	}
	if !id.Defined() {
		t.Fatalf("Compose result should be Defined")
	}
}

func TestObjectIDSentinels(t *testing.T) {
	if Undefined.Defined() {
		t.Fatalf("Undefined.Defined() = true, want false")
	}
	if Reserved.Defined() {
		t.Fatalf("Reserved.Defined() = true, want false")
	}
	if Compose(ObjTask, 0) == Undefined {
		t.Fatalf("Compose(ObjTask, 0) must not alias Undefined")
	}
}

func TestAllocateGetByIDDelete(t *testing.T) {
	mgr, tbl := newTestManager(4)
	_ = tbl

	tok, code := mgr.AllocateNew(context.Background(), ObjTask, "alpha")
	if !code.OK() {
		t.Fatalf("AllocateNew: %v", code)
	}
	var id ObjectID
	if code := mgr.FinalizeNew(status.Success, tok, &id); !code.OK() {
		t.Fatalf("FinalizeNew: %v", code)
	}
	if !id.Defined() {
		t.Fatalf("expected a defined id after create")
	}

	got, code := mgr.GetByID(context.Background(), LockRefcount, ObjTask, id)
	if !code.OK() {
		t.Fatalf("GetByID: %v", code)
	}
	mgr.Release(got)

	del, code := mgr.GetByID(context.Background(), LockExclusive, ObjTask, id)
	if !code.OK() {
		t.Fatalf("GetByID for delete: %v", code)
	}
	if code := mgr.FinalizeDelete(status.Success, del); !code.OK() {
		t.Fatalf("FinalizeDelete: %v", code)
	}

	if _, code := mgr.GetByID(context.Background(), LockRefcount, ObjTask, id); code.OK() {
		t.Fatalf("GetByID after delete should fail, got success")
	}
}

func TestFinalizeNewFailureFreesSlotAndName(t *testing.T) {
	mgr, _ := newTestManager(4)

	tok, code := mgr.AllocateNew(context.Background(), ObjTask, "retry-me")
	if !code.OK() {
		t.Fatalf("AllocateNew: %v", code)
	}
	var discard ObjectID
	mgr.FinalizeNew(status.Error, tok, &discard)
	if discard.Defined() {
		t.Fatalf("FinalizeNew on failure should publish Undefined, got %v", discard)
	}

	// The slot and name must be reusable immediately: a failed create must
	// not leave the record either permanently Reserved or falsely active.
	tok2, code := mgr.AllocateNew(context.Background(), ObjTask, "retry-me")
	if !code.OK() {
		t.Fatalf("AllocateNew after failed create should succeed, got %v", code)
	}
	var id ObjectID
	if code := mgr.FinalizeNew(status.Success, tok2, &id); !code.OK() {
		t.Fatalf("FinalizeNew: %v", code)
	}
	if !id.Defined() {
		t.Fatalf("expected a defined id")
	}
}

func TestFindNextFreeSerialWrap(t *testing.T) {
	mgr, _ := newTestManager(4)
	ts := mgr.types[ObjTask]
	// Prime last_id_issued just before the wrap boundary so the next
	// allocations straddle it exactly like osapi-idmap.c's
	// OS_ObjectIdFindNextFree does; every slot is still free, so all 4
	// allocations must succeed and land on 4 distinct slots.
	ts.lastIDIssued = Compose(ObjTask, serialMask-1)

	seen := map[int]bool{}
	for i := 0; i < 4; i++ {
		tok, code := mgr.AllocateNew(context.Background(), ObjTask, "")
		if !code.OK() {
			t.Fatalf("AllocateNew %d: %v (wrap must not spuriously report NO_FREE_IDS)", i, code)
		}
		if seen[tok.idx] {
			t.Fatalf("slot %d allocated twice across the wrap", tok.idx)
		}
		seen[tok.idx] = true
		var id ObjectID
		mgr.FinalizeNew(status.Success, tok, &id)
		if !id.Defined() {
			t.Fatalf("id %v not well-formed after wrap", id)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("wrap allocation visited %d distinct slots, want 4", len(seen))
	}
}

func TestAllocateNameCollision(t *testing.T) {
	mgr, _ := newTestManager(4)

	tok, code := mgr.AllocateNew(context.Background(), ObjTask, "dup")
	if !code.OK() {
		t.Fatalf("AllocateNew: %v", code)
	}
	var id ObjectID
	mgr.FinalizeNew(status.Success, tok, &id)

	if _, code := mgr.AllocateNew(context.Background(), ObjTask, "dup"); code != status.ErrNameTaken {
		t.Fatalf("AllocateNew duplicate name = %v, want %v", code, status.ErrNameTaken)
	}
}

func TestAllocateTableFull(t *testing.T) {
	mgr, _ := newTestManager(2)

	for i := 0; i < 2; i++ {
		tok, code := mgr.AllocateNew(context.Background(), ObjTask, "")
		if !code.OK() {
			t.Fatalf("AllocateNew %d: %v", i, code)
		}
		var id ObjectID
		mgr.FinalizeNew(status.Success, tok, &id)
	}

	if _, code := mgr.AllocateNew(context.Background(), ObjTask, ""); code != status.ErrNoFreeIDs {
		t.Fatalf("AllocateNew on full table = %v, want %v", code, status.ErrNoFreeIDs)
	}
}

func TestFindByName(t *testing.T) {
	mgr, _ := newTestManager(4)

	tok, _ := mgr.AllocateNew(context.Background(), ObjTask, "named")
	var id ObjectID
	mgr.FinalizeNew(status.Success, tok, &id)

	found, code := mgr.FindByName(ObjTask, "named")
	if !code.OK() || found != id {
		t.Fatalf("FindByName = (%v, %v), want (%v, Success)", found, code, id)
	}

	if _, code := mgr.FindByName(ObjTask, "missing"); code != status.ErrNameNotFound {
		t.Fatalf("FindByName missing = %v, want %v", code, status.ErrNameNotFound)
	}
}

func TestForEachObjectOfType(t *testing.T) {
	mgr, _ := newTestManager(4)
	creator := Compose(ObjTask, 0xABCDEF)
	ctx := WithCaller(context.Background(), creator)

	for _, name := range []string{"a", "b", "c"} {
		tok, code := mgr.AllocateNew(ctx, ObjTask, name)
		if !code.OK() {
			t.Fatalf("AllocateNew %s: %v", name, code)
		}
		var id ObjectID
		mgr.FinalizeNew(status.Success, tok, &id)
	}

	seen := map[string]bool{}
	mgr.ForEachObjectOfType(ObjTask, Undefined, func(id ObjectID, arg any) {
		name, ok := mgr.GetResourceName(id)
		if !ok {
			t.Fatalf("GetResourceName(%v) not found", id)
		}
		seen[name] = true
	}, nil)

	for _, name := range []string{"a", "b", "c"} {
		if !seen[name] {
			t.Fatalf("ForEachObjectOfType missed %q", name)
		}
	}
}

func TestIteratorProcessEntryReentrant(t *testing.T) {
	mgr, _ := newTestManager(4)

	var ids []ObjectID
	for _, name := range []string{"x", "y"} {
		tok, _ := mgr.AllocateNew(context.Background(), ObjTask, name)
		var id ObjectID
		mgr.FinalizeNew(status.Success, tok, &id)
		ids = append(ids, id)
	}

	it, code := mgr.IteratorInit(context.Background(), Always, ObjTask)
	if !code.OK() {
		t.Fatalf("IteratorInit: %v", code)
	}
	defer it.Destroy()

	var processed []ObjectID
	for it.GetNext() {
		id := it.Current()
		// ProcessEntry must release the global lock for the callback's
		// duration, so a nested delete-by-id does not deadlock.
		rc := it.ProcessEntry(func(id ObjectID) status.Code {
			del, code := mgr.GetByID(context.Background(), LockExclusive, ObjTask, id)
			if !code.OK() {
				return code
			}
			return mgr.FinalizeDelete(status.Success, del)
		})
		if !rc.OK() {
			t.Fatalf("ProcessEntry callback: %v", rc)
		}
		processed = append(processed, id)
	}

	if len(processed) != len(ids) {
		t.Fatalf("processed %d entries, want %d", len(processed), len(ids))
	}
}

func TestConcurrentAllocateGetByID(t *testing.T) {
	mgr, _ := newTestManager(16)

	var wg sync.WaitGroup
	ids := make(chan ObjectID, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, code := mgr.AllocateNew(context.Background(), ObjTask, "")
			if !code.OK() {
				t.Errorf("AllocateNew: %v", code)
				return
			}
			var id ObjectID
			mgr.FinalizeNew(status.Success, tok, &id)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[ObjectID]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %v allocated concurrently", id)
		}
		seen[id] = true
	}
	if len(seen) != 16 {
		t.Fatalf("got %d unique ids, want 16", len(seen))
	}
}
