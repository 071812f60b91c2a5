package klock

import (
	"strconv"
	"sync/atomic"
)

// PILock is a QueueLock with priority inheritance.
//
// When a process blocks on a PILock whose holder runs at a lower effective
// priority, the holder is raised to the waiter's priority before the waiter
// suspends, and moved within the ready list if it is sitting there. When the
// holder hands the lock off it drops back to the highest priority still
// owed to it by processes blocked on other PILocks it holds, or to its own
// base priority if there are none. The incoming holder inherits from the
// waiters still queued behind it.
//
// Inheritance is one level deep: a boosted holder that is itself blocked on
// another PILock does not pass the boost on to that lock's holder.
type PILock struct {
	_     noCopy
	k     *Kernel
	idx   int
	guard guard
	held  uint32 // written under guard
	q     waitQueue

	holder *Process // guarded by k.mask; stale once the lock is free
}

// NewPILock allocates and initializes a PILock.
func (k *Kernel) NewPILock() (*PILock, error) {
	l := &PILock{}
	if err := l.Init(k); err != nil {
		return nil, err
	}
	return l, nil
}

// Init resets the lock to unheld with no holder. It fails with a
// *CapacityError once the kernel's PILock limit has been reached.
func (l *PILock) Init(k *Kernel) error {
	n, err := k.reserve(KindPILock)
	if err != nil {
		return err
	}
	l.k = k
	l.idx = n
	l.guard = guard{}
	atomic.StoreUint32(&l.held, 0)
	l.q = waitQueue{}
	k.mask.disable()
	l.holder = nil
	k.mask.restore()
	return nil
}

// Acquire blocks p until it owns the lock, lending p's priority to the
// holder while p waits.
func (l *PILock) Acquire(p *Process) {
	k := l.k
	k.own(p)
	l.guard.lock(k.cfg.guardBackoff)
	if atomic.LoadUint32(&l.held) == 0 {
		atomic.StoreUint32(&l.held, 1)
		k.mask.disable()
		l.holder = p
		k.mask.restore()
		l.guard.unlock()
		k.trace(p, l, "acquired")
		return
	}
	l.q.enqueue(p)
	k.setPark(p)
	l.guard.unlock()
	k.trace(p, l, "parking")
	k.park(p, func(ev *events) {
		p.blockedOn = l
		l.inherit(p, ev)
	})
	k.trace(p, l, "acquired after wait")
}

// Release hands the lock to the longest waiting process, or frees it.
// Either way a boosted p drops back to what it is still owed. Releasing an
// unheld lock changes nothing else.
func (l *PILock) Release(p *Process) {
	k := l.k
	k.own(p)
	l.guard.lock(k.cfg.guardBackoff)
	var ev events
	if l.q.empty() {
		atomic.StoreUint32(&l.held, 0)
		k.mask.disable()
		k.restorePriority(p, l, &ev)
		k.mask.restore()
		l.guard.unlock()
		k.emit(&ev)
		k.trace(p, l, "released")
		return
	}

	k.mask.disable()
	next := l.q.dequeue()
	l.holder = next
	next.blockedOn = nil
	k.restorePriority(p, l, &ev)
	if k.cfg.donateForward {
		l.donate(p, next, &ev)
	} else {
		l.inheritFromQueue(next, &ev)
	}
	k.unparkLocked(next)
	k.mask.restore()
	l.guard.unlock()
	k.emit(&ev)
	k.trace(p, l, "handed off to "+next.String())
}

// inherit raises the holder to w's priority if w outranks it.
// Callers hold the mask.
func (l *PILock) inherit(w *Process, ev *events) {
	h := l.holder
	if h == nil || h == w || w.prio <= h.prio {
		return
	}
	h.boostTo(w.prio, ev)
}

// inheritFromQueue raises a new holder to the highest priority among the
// waiters still queued on l. Callers hold the guard and the mask.
func (l *PILock) inheritFromQueue(h *Process, ev *events) {
	top := h.prio
	l.q.each(func(w *Process) bool {
		if w.prio > top {
			top = w.prio
		}
		return true
	})
	if top > h.prio {
		h.boostTo(top, ev)
	}
}

// donate gives the incoming holder the outgoing holder's restored
// priority. Callers hold the mask.
func (l *PILock) donate(out, in *Process, ev *events) {
	if in.prio == out.prio {
		return
	}
	ev.priorityChanged(in, in.prio, out.prio)
	if !in.base.ok {
		in.base = savedPriority{value: in.prio, ok: true}
	}
	in.prio = out.prio
	if in.prio == in.base.value {
		in.base = savedPriority{}
	}
}

// restorePriority drops a boosted process that is releasing l to the
// highest priority among processes blocked on other PILocks it holds, or
// to its base priority. Callers hold the mask.
func (k *Kernel) restorePriority(p *Process, released *PILock, ev *events) {
	if !p.base.ok {
		return
	}
	floor := p.base.value
	k.procs.Range(func(_ PID, q *Process) bool {
		m := q.blockedOn
		if m != nil && m != released && m.holder == p && q.prio > floor {
			floor = q.prio
		}
		return true
	})
	if floor != p.prio {
		ev.priorityChanged(p, p.prio, floor)
		p.prio = floor
		k.ready.reposition(p)
	}
	if floor == p.base.value {
		p.base = savedPriority{}
	}
}

// Held reports whether the lock is owned.
func (l *PILock) Held() bool {
	return atomic.LoadUint32(&l.held) != 0
}

// Holder returns the current owner, or nil if the lock is free.
func (l *PILock) Holder() *Process {
	if !l.Held() {
		return nil
	}
	l.k.mask.disable()
	defer l.k.mask.restore()
	return l.holder
}

// Waiters returns the queued processes in grant order.
func (l *PILock) Waiters() []*Process {
	l.guard.lock(l.k.cfg.guardBackoff)
	defer l.guard.unlock()
	return l.q.snapshot()
}

func (l *PILock) String() string {
	return "pilock#" + strconv.Itoa(l.idx)
}
