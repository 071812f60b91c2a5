package klock

import (
	"sync/atomic"
	"time"
)

// intrMask stands in for the kernel's interrupt disable/restore pair. Every
// scheduler-visible transition (run state, parking intent, priorities, the
// ready list and the active-lock holder table) happens between disable and
// restore.
//
// It is a ticket lock, so sections are entered in FIFO order. It is not
// reentrant: code running under the mask must not call disable again, and
// must never block.
type intrMask struct {
	_       noCopy
	next    atomic.Uint32
	serving atomic.Uint32
}

func (m *intrMask) disable() {
	my := m.next.Add(1) - 1
	var spins int
	for m.serving.Load() != my {
		delay(&spins, maskBackoff)
	}
}

func (m *intrMask) restore() {
	m.serving.Add(1)
}

// maskBackoff is short: mask sections are a handful of field updates.
const maskBackoff = 50 * time.Microsecond
