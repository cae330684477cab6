package ossync

import (
	"context"
	"testing"

	"github.com/nasa-osal/osal-go/status"
)

func TestBinSemCreateInitiallyEmptyBlocksTake(t *testing.T) {
	mgr := newTestManager()
	bt := NewBinSemTable(mgr, newFakeBinSemImpl(), 4)
	ctx := context.Background()

	id, code := bt.Create(ctx, "empty", false)
	if !code.OK() {
		t.Fatalf("Create: %v", code)
	}
	if code := bt.TimedTake(ctx, id, 20); code != status.ErrorTimeout {
		t.Fatalf("TimedTake on an empty binsem = %v, want ErrorTimeout", code)
	}

	if code := bt.Give(ctx, id); !code.OK() {
		t.Fatalf("Give: %v", code)
	}
	if code := bt.Take(ctx, id); !code.OK() {
		t.Fatalf("Take after Give: %v", code)
	}
}

func TestBinSemCreateInitiallyFullAllowsImmediateTake(t *testing.T) {
	mgr := newTestManager()
	bt := NewBinSemTable(mgr, newFakeBinSemImpl(), 4)
	ctx := context.Background()

	id, code := bt.Create(ctx, "full", true)
	if !code.OK() {
		t.Fatalf("Create: %v", code)
	}
	if code := bt.Take(ctx, id); !code.OK() {
		t.Fatalf("Take on a full binsem should succeed immediately, got %v", code)
	}
	if code := bt.TimedTake(ctx, id, 20); code != status.ErrorTimeout {
		t.Fatalf("second TimedTake should block, got %v", code)
	}
}

func TestBinSemFlushReleasesWithoutAccumulating(t *testing.T) {
	mgr := newTestManager()
	bt := NewBinSemTable(mgr, newFakeBinSemImpl(), 4)
	ctx := context.Background()

	id, _ := bt.Create(ctx, "flush", false)
	if code := bt.Flush(ctx, id); !code.OK() {
		t.Fatalf("Flush: %v", code)
	}
	// Flush on an already-empty binsem must not leave it takable.
	if code := bt.TimedTake(ctx, id, 20); code != status.ErrorTimeout {
		t.Fatalf("TimedTake after Flush on an empty sem = %v, want ErrorTimeout", code)
	}

	if code := bt.Give(ctx, id); !code.OK() {
		t.Fatalf("Give: %v", code)
	}
	if code := bt.Flush(ctx, id); !code.OK() {
		t.Fatalf("Flush: %v", code)
	}
	if code := bt.TimedTake(ctx, id, 20); code != status.ErrorTimeout {
		t.Fatalf("TimedTake after Flush should drain the pending unit, got %v", code)
	}
}
