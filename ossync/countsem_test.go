package ossync

import (
	"context"
	"testing"
	"time"

	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/status"
)

func newTestManager() *core.Manager {
	mgr := core.NewManager()
	mgr.SetRunning()
	return mgr
}

func TestCountSemCreateInitialValueZeroBlocksFirstTake(t *testing.T) {
	mgr := newTestManager()
	ct := NewCountSemTable(mgr, 4)
	ctx := context.Background()

	id, code := ct.Create(ctx, "zero", 0, 2)
	if !code.OK() {
		t.Fatalf("Create: %v", code)
	}

	// initialValue == 0: the first Take must not succeed immediately.
	if code := ct.TimedTake(ctx, id, 20); code != status.ErrorTimeout {
		t.Fatalf("TimedTake on a 0-initial-value sem = %v, want ErrorTimeout", code)
	}

	if code := ct.Give(ctx, id); !code.OK() {
		t.Fatalf("Give: %v", code)
	}
	if code := ct.Take(ctx, id); !code.OK() {
		t.Fatalf("Take after Give: %v", code)
	}
}

func TestCountSemCreateInitialValueMaxAllowsMaxImmediateTakes(t *testing.T) {
	mgr := newTestManager()
	ct := NewCountSemTable(mgr, 4)
	ctx := context.Background()

	// This is the exact inversion regression: with initialValue == maxValue,
	// every one of the maxValue Take calls must succeed immediately, and the
	// next one must block instead of the reverse.
	id, code := ct.Create(ctx, "full", 3, 3)
	if !code.OK() {
		t.Fatalf("Create: %v", code)
	}

	for i := 0; i < 3; i++ {
		if code := ct.Take(ctx, id); !code.OK() {
			t.Fatalf("Take %d on a fully-available sem should succeed immediately, got %v", i, code)
		}
	}

	if code := ct.TimedTake(ctx, id, 20); code != status.ErrorTimeout {
		t.Fatalf("TimedTake after exhausting all units = %v, want ErrorTimeout", code)
	}
}

func TestCountSemTakeGiveRoundTrip(t *testing.T) {
	mgr := newTestManager()
	ct := NewCountSemTable(mgr, 4)
	ctx := context.Background()

	id, code := ct.Create(ctx, "rt", 1, 1)
	if !code.OK() {
		t.Fatalf("Create: %v", code)
	}

	if code := ct.Take(ctx, id); !code.OK() {
		t.Fatalf("Take: %v", code)
	}
	if code := ct.TimedTake(ctx, id, 20); code != status.ErrorTimeout {
		t.Fatalf("TimedTake after Take should time out, got %v", code)
	}
	if code := ct.Give(ctx, id); !code.OK() {
		t.Fatalf("Give: %v", code)
	}
	if code := ct.Take(ctx, id); !code.OK() {
		t.Fatalf("Take after Give: %v", code)
	}
}

func TestCountSemTakeBlocksUntilConcurrentGive(t *testing.T) {
	mgr := newTestManager()
	ct := NewCountSemTable(mgr, 4)
	ctx := context.Background()

	id, code := ct.Create(ctx, "blocker", 0, 1)
	if !code.OK() {
		t.Fatalf("Create: %v", code)
	}

	done := make(chan status.Code, 1)
	go func() {
		done <- ct.Take(ctx, id)
	}()

	time.Sleep(20 * time.Millisecond)
	if code := ct.Give(ctx, id); !code.OK() {
		t.Fatalf("Give: %v", code)
	}

	select {
	case code := <-done:
		if !code.OK() {
			t.Fatalf("blocked Take: %v", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("Take never woke up after Give")
	}
}

func TestCountSemCreateRejectsInitialValueAboveMax(t *testing.T) {
	mgr := newTestManager()
	ct := NewCountSemTable(mgr, 4)
	ctx := context.Background()

	if _, code := ct.Create(ctx, "bad", 2, 1); code != status.ErrInvalidSize {
		t.Fatalf("Create(initialValue > maxValue) = %v, want ErrInvalidSize", code)
	}
}

func TestCountSemDelete(t *testing.T) {
	mgr := newTestManager()
	ct := NewCountSemTable(mgr, 4)
	ctx := context.Background()

	id, _ := ct.Create(ctx, "gone", 0, 1)
	if code := ct.Delete(ctx, id); !code.OK() {
		t.Fatalf("Delete: %v", code)
	}
	if code := ct.Take(ctx, id); code.OK() {
		t.Fatalf("Take after Delete should fail")
	}
}
