// Package impl provides the concrete ImplHooks backends named in spec.md
// §4.8: per-OS primitive wrappers invoked by core/ossync/stream/filesys/
// module under an already-open transaction token. Go has one native
// threading model instead of per-BSP pthread/VxWorks/RTEMS variants, so
// where the original ships os-impl-posix vs os-impl-vxworks vs
// os-impl-rtems, this package ships a single "local" backend built on the
// standard runtime's goroutines, channels and sync primitives.
package impl

import (
	"sync"
	"time"

	"github.com/nasa-osal/osal-go/status"
	"github.com/nasa-osal/osal-go/timeval"
)

// localMutex backs ossync.MutexImpl.
type localMutex struct {
	mu sync.Mutex
}

// LocalMutexImpl is the in-process MutexImpl backend.
type LocalMutexImpl struct{}

func (LocalMutexImpl) Create() (any, status.Code)   { return &localMutex{}, status.Success }
func (LocalMutexImpl) Delete(h any) status.Code     { return status.Success }
func (LocalMutexImpl) Lock(h any) status.Code       { h.(*localMutex).mu.Lock(); return status.Success }
func (LocalMutexImpl) Unlock(h any) status.Code     { h.(*localMutex).mu.Unlock(); return status.Success }

// localBinSem backs ossync.BinSemImpl with a 1-buffered channel: "full"
// means available (take succeeds immediately), matching a binary
// semaphore's two-state nature.
type localBinSem struct {
	ch chan struct{}
}

// LocalBinSemImpl is the in-process BinSemImpl backend.
type LocalBinSemImpl struct{}

func (LocalBinSemImpl) Create(initialValue bool) (any, status.Code) {
	s := &localBinSem{ch: make(chan struct{}, 1)}
	if initialValue {
		s.ch <- struct{}{}
	}
	return s, status.Success
}

func (LocalBinSemImpl) Delete(h any) status.Code { return status.Success }

func (LocalBinSemImpl) Take(h any) status.Code {
	<-h.(*localBinSem).ch
	return status.Success
}

func (LocalBinSemImpl) TimedTake(h any, deadline timeval.Time) status.Code {
	d := time.Until(deadline.ToTime())
	if d <= 0 {
		select {
		case <-h.(*localBinSem).ch:
			return status.Success
		default:
			return status.ErrorTimeout
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-h.(*localBinSem).ch:
		return status.Success
	case <-t.C:
		return status.ErrorTimeout
	}
}

func (LocalBinSemImpl) Give(h any) status.Code {
	select {
	case h.(*localBinSem).ch <- struct{}{}:
	default:
	}
	return status.Success
}

func (LocalBinSemImpl) Flush(h any) status.Code {
	select {
	case h.(*localBinSem).ch <- struct{}{}:
	default:
	}
	return status.Success
}

// localCondVar backs ossync.CondVarImpl with a standard sync.Cond paired
// to its own mutex, exactly the "opaque impl-private mutex+condvar pair"
// spec.md §3.1 describes for CondVarRecord.
type localCondVar struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// LocalCondVarImpl is the in-process CondVarImpl backend.
type LocalCondVarImpl struct{}

func (LocalCondVarImpl) Create() (any, status.Code) {
	cv := &localCondVar{}
	cv.cond = sync.NewCond(&cv.mu)
	return cv, status.Success
}

func (LocalCondVarImpl) Delete(h any) status.Code { return status.Success }

func (LocalCondVarImpl) Lock(h any) status.Code {
	h.(*localCondVar).mu.Lock()
	return status.Success
}

func (LocalCondVarImpl) Unlock(h any) status.Code {
	h.(*localCondVar).mu.Unlock()
	return status.Success
}

func (LocalCondVarImpl) Signal(h any) status.Code {
	h.(*localCondVar).cond.Signal()
	return status.Success
}

func (LocalCondVarImpl) Broadcast(h any) status.Code {
	h.(*localCondVar).cond.Broadcast()
	return status.Success
}

// Wait requires the caller to already hold the condvar's lock (via a
// preceding Lock call), matching pthread_cond_wait's contract.
func (LocalCondVarImpl) Wait(h any) status.Code {
	h.(*localCondVar).cond.Wait()
	return status.Success
}

// TimedWait polls toward absWakeup since sync.Cond has no native timed
// wait; a real VxWorks/RTEMS impl would use the host's timed primitive
// directly, but this backend only needs to be correct, not optimal.
func (LocalCondVarImpl) TimedWait(h any, absWakeup timeval.Time) status.Code {
	cv := h.(*localCondVar)
	done := make(chan struct{})
	go func() {
		cv.cond.Wait()
		close(done)
	}()

	d := time.Until(absWakeup.ToTime())
	if d < 0 {
		d = 0
	}
	select {
	case <-done:
		return status.Success
	case <-time.After(d):
		cv.cond.Broadcast()
		<-done
		return status.ErrorTimeout
	}
}
