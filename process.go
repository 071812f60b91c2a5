package klock

import (
	"fmt"

	"github.com/llxisdsh/klock/internal/opt"
)

// PID identifies a registered process. PIDs start at 1.
type PID int32

// Priority is a scheduling priority; larger values run first.
type Priority int16

// State is the run state the kernel tracks for a process.
type State uint8

const (
	// StateRunning means the process' goroutine is executing.
	StateRunning State = iota
	// StateReady means the process was unparked and sits in the ready list
	// until its goroutine resumes.
	StateReady
	// StateWaiting means the process is suspended inside a lock acquire.
	StateWaiting
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateReady:
		return "ready"
	case StateWaiting:
		return "waiting"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// savedPriority holds a process' own priority while it runs boosted.
// ok is false when the process is not boosted.
type savedPriority struct {
	value Priority
	ok    bool
}

// Process is the kernel's handle for a goroutine that takes part in
// blocking locks. The goroutine passes its own *Process to every Acquire
// and Release; the handle carries the per-process fields the locks need.
//
// Processes are created with Kernel.NewProcess and live as long as the
// kernel. A process may wait on at most one lock at a time.
type Process struct {
	_    noCopy
	k    *Kernel
	pid  PID
	name string

	// Guarded by k.mask.
	prio      Priority
	base      savedPriority
	state     State
	parking   bool
	pending   LockID
	blockedOn *PILock

	sema opt.Sema
}

// PID returns the process identifier.
func (p *Process) PID() PID {
	return p.pid
}

// Name returns the name given at registration.
func (p *Process) Name() string {
	return p.name
}

// Kernel returns the kernel the process is registered with.
func (p *Process) Kernel() *Kernel {
	return p.k
}

// Priority returns the effective (possibly inherited) priority.
func (p *Process) Priority() Priority {
	p.k.mask.disable()
	defer p.k.mask.restore()
	return p.prio
}

// BasePriority returns the process' own priority and whether it is
// currently running boosted above it.
func (p *Process) BasePriority() (Priority, bool) {
	p.k.mask.disable()
	defer p.k.mask.restore()
	if p.base.ok {
		return p.base.value, true
	}
	return p.prio, false
}

// State returns the current run state.
func (p *Process) State() State {
	p.k.mask.disable()
	defer p.k.mask.restore()
	return p.state
}

// PendingLock returns the identity of the active lock the process is
// blocked on, or NoLock.
func (p *Process) PendingLock() LockID {
	p.k.mask.disable()
	defer p.k.mask.restore()
	return p.pending
}

// BlockedOn returns the priority-inheritance lock the process is parked on,
// if any.
func (p *Process) BlockedOn() *PILock {
	p.k.mask.disable()
	defer p.k.mask.restore()
	return p.blockedOn
}

func (p *Process) String() string {
	return fmt.Sprintf("P%d", p.pid)
}

// boostTo raises p's effective priority to prio, remembering the base the
// first time. Callers hold the mask and have checked prio > p.prio.
func (p *Process) boostTo(prio Priority, ev *events) {
	ev.priorityChanged(p, p.prio, prio)
	if !p.base.ok {
		p.base = savedPriority{value: p.prio, ok: true}
	}
	p.prio = prio
	p.k.ready.reposition(p)
}
