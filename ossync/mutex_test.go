package ossync

import (
	"context"
	"testing"
	"time"

	"github.com/nasa-osal/osal-go/status"
)

func TestMutexTakeGiveRoundTrip(t *testing.T) {
	mgr := newTestManager()
	mt := NewMutexTable(mgr, newFakeMutexImpl(), 4)
	ctx := context.Background()

	id, code := mt.Create(ctx, "m")
	if !code.OK() {
		t.Fatalf("Create: %v", code)
	}
	if code := mt.Take(ctx, id); !code.OK() {
		t.Fatalf("Take: %v", code)
	}
	if code := mt.Give(ctx, id); !code.OK() {
		t.Fatalf("Give: %v", code)
	}
}

func TestMutexTakeExcludesConcurrentTake(t *testing.T) {
	mgr := newTestManager()
	mt := NewMutexTable(mgr, newFakeMutexImpl(), 4)
	ctx := context.Background()

	id, _ := mt.Create(ctx, "m")
	if code := mt.Take(ctx, id); !code.OK() {
		t.Fatalf("Take: %v", code)
	}

	acquired := make(chan struct{})
	go func() {
		mt.Take(ctx, id)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatalf("second Take succeeded while the mutex was still held")
	case <-time.After(20 * time.Millisecond):
	}

	if code := mt.Give(ctx, id); !code.OK() {
		t.Fatalf("Give: %v", code)
	}

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second Take never acquired the mutex after Give")
	}
}

func TestMutexDelete(t *testing.T) {
	mgr := newTestManager()
	mt := NewMutexTable(mgr, newFakeMutexImpl(), 4)
	ctx := context.Background()

	id, _ := mt.Create(ctx, "m")
	if code := mt.Delete(ctx, id); !code.OK() {
		t.Fatalf("Delete: %v", code)
	}
	if code := mt.Take(ctx, id); code.OK() {
		t.Fatalf("Take after Delete should fail")
	}
}
