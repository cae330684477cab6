package ossync

import (
	"sync"

	"github.com/nasa-osal/osal-go/status"
	"github.com/nasa-osal/osal-go/timeval"
)

// fakeMutex is the in-process handle fakeMutexImpl hands out: a plain
// sync.Mutex stands in for the host mutex primitive.
type fakeMutex struct {
	mu sync.Mutex
}

type fakeMutexImpl struct{}

func newFakeMutexImpl() *fakeMutexImpl { return &fakeMutexImpl{} }

func (fakeMutexImpl) Create() (MutexHandle, status.Code) { return &fakeMutex{}, status.Success }
func (fakeMutexImpl) Delete(h MutexHandle) status.Code    { return status.Success }
func (fakeMutexImpl) Lock(h MutexHandle) status.Code {
	h.(*fakeMutex).mu.Lock()
	return status.Success
}
func (fakeMutexImpl) Unlock(h MutexHandle) status.Code {
	h.(*fakeMutex).mu.Unlock()
	return status.Success
}

// fakeBinSem is a channel-backed binary semaphore: buffered capacity 1,
// mirroring the take/give/flush vocabulary BinSemImpl expects.
type fakeBinSem struct {
	ch chan struct{}
}

type fakeBinSemImpl struct{}

func newFakeBinSemImpl() *fakeBinSemImpl { return &fakeBinSemImpl{} }

func (fakeBinSemImpl) Create(initialValue bool) (BinSemHandle, status.Code) {
	ch := make(chan struct{}, 1)
	if initialValue {
		ch <- struct{}{}
	}
	return &fakeBinSem{ch: ch}, status.Success
}

func (fakeBinSemImpl) Delete(h BinSemHandle) status.Code { return status.Success }

func (fakeBinSemImpl) Take(h BinSemHandle) status.Code {
	<-h.(*fakeBinSem).ch
	return status.Success
}

func (fakeBinSemImpl) TimedTake(h BinSemHandle, deadline timeval.Time) status.Code {
	select {
	case <-h.(*fakeBinSem).ch:
		return status.Success
	default:
		return status.ErrorTimeout
	}
}

func (fakeBinSemImpl) Give(h BinSemHandle) status.Code {
	sem := h.(*fakeBinSem)
	select {
	case sem.ch <- struct{}{}:
	default:
	}
	return status.Success
}

func (fakeBinSemImpl) Flush(h BinSemHandle) status.Code {
	sem := h.(*fakeBinSem)
	select {
	case <-sem.ch:
	default:
	}
	return status.Success
}

// fakeCondVar pairs a sync.Mutex with a sync.Cond the way CondVarImpl's
// Lock/Unlock/Wait/Signal/Broadcast vocabulary expects.
type fakeCondVar struct {
	mu   sync.Mutex
	cond *sync.Cond
}

type fakeCondVarImpl struct{}

func newFakeCondVarImpl() *fakeCondVarImpl { return &fakeCondVarImpl{} }

func (fakeCondVarImpl) Create() (CondVarHandle, status.Code) {
	cv := &fakeCondVar{}
	cv.cond = sync.NewCond(&cv.mu)
	return cv, status.Success
}

func (fakeCondVarImpl) Delete(h CondVarHandle) status.Code { return status.Success }

func (fakeCondVarImpl) Lock(h CondVarHandle) status.Code {
	h.(*fakeCondVar).mu.Lock()
	return status.Success
}

func (fakeCondVarImpl) Unlock(h CondVarHandle) status.Code {
	h.(*fakeCondVar).mu.Unlock()
	return status.Success
}

func (fakeCondVarImpl) Signal(h CondVarHandle) status.Code {
	h.(*fakeCondVar).cond.Signal()
	return status.Success
}

func (fakeCondVarImpl) Broadcast(h CondVarHandle) status.Code {
	h.(*fakeCondVar).cond.Broadcast()
	return status.Success
}

func (fakeCondVarImpl) Wait(h CondVarHandle) status.Code {
	h.(*fakeCondVar).cond.Wait()
	return status.Success
}

func (fakeCondVarImpl) TimedWait(h CondVarHandle, absWakeup timeval.Time) status.Code {
	h.(*fakeCondVar).cond.Wait()
	return status.Success
}
