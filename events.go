package klock

import (
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DeadlockEvent reports a wait-for cycle among active locks. Processes
// lists the PIDs on the cycle in ascending order; Lock is the lock whose
// acquisition closed it.
type DeadlockEvent struct {
	Lock      LockID
	Processes []PID
}

// String renders the event as `deadlock_detected=P1-P2-P3`.
func (e DeadlockEvent) String() string {
	var b strings.Builder
	b.WriteString("deadlock_detected=")
	for i, pid := range e.Processes {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteByte('P')
		b.WriteString(strconv.Itoa(int(pid)))
	}
	return b.String()
}

// PriorityChange reports that a process' effective priority moved from
// From to To, either by inheritance or by restoration.
type PriorityChange struct {
	PID  PID
	From Priority
	To   Priority
}

// String renders the change as `priority_change=P3::10-20`.
func (c PriorityChange) String() string {
	return "priority_change=P" + strconv.Itoa(int(c.PID)) +
		"::" + strconv.Itoa(int(c.From)) + "-" + strconv.Itoa(int(c.To))
}

// Observer receives the kernel's diagnostic events. Calls are made outside
// of any lock guard or mask, from the goroutine that caused the event.
// Implementations must be safe for concurrent use.
type Observer interface {
	DeadlockDetected(DeadlockEvent)
	PriorityChanged(PriorityChange)
}

// LogObserver writes one log line per event.
type LogObserver struct {
	Logger logrus.FieldLogger
}

// DeadlockDetected logs e at Info level with its lock and processes.
func (o LogObserver) DeadlockDetected(e DeadlockEvent) {
	o.Logger.WithFields(logrus.Fields{
		"lock":      e.Lock,
		"processes": e.Processes,
	}).Info(e.String())
}

// PriorityChanged logs c at Info level with pid, from and to fields.
func (o LogObserver) PriorityChanged(c PriorityChange) {
	o.Logger.WithFields(logrus.Fields{
		"pid":  c.PID,
		"from": c.From,
		"to":   c.To,
	}).Info(c.String())
}

// Recorder keeps every event in memory, in arrival order.
type Recorder struct {
	mu        sync.Mutex
	deadlocks []DeadlockEvent
	changes   []PriorityChange
}

// DeadlockDetected appends e.
func (r *Recorder) DeadlockDetected(e DeadlockEvent) {
	r.mu.Lock()
	r.deadlocks = append(r.deadlocks, e)
	r.mu.Unlock()
}

// PriorityChanged appends c.
func (r *Recorder) PriorityChanged(c PriorityChange) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

// Deadlocks returns a copy of the recorded deadlock events.
func (r *Recorder) Deadlocks() []DeadlockEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DeadlockEvent(nil), r.deadlocks...)
}

// PriorityChanges returns a copy of the recorded priority changes.
func (r *Recorder) PriorityChanges() []PriorityChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PriorityChange(nil), r.changes...)
}

// MultiObserver fans every event out to each of obs in order.
func MultiObserver(obs ...Observer) Observer {
	return multiObserver(obs)
}

type multiObserver []Observer

func (m multiObserver) DeadlockDetected(e DeadlockEvent) {
	for _, o := range m {
		o.DeadlockDetected(e)
	}
}

func (m multiObserver) PriorityChanged(c PriorityChange) {
	for _, o := range m {
		o.PriorityChanged(c)
	}
}

// events buffers what happened under the mask so it can be reported after
// the mask is restored.
type events struct {
	deadlocks []DeadlockEvent
	changes   []PriorityChange
}

func (ev *events) priorityChanged(p *Process, from, to Priority) {
	ev.changes = append(ev.changes, PriorityChange{PID: p.pid, From: from, To: to})
}

func (k *Kernel) emit(ev *events) {
	for _, e := range ev.deadlocks {
		k.obs.DeadlockDetected(e)
	}
	for _, c := range ev.changes {
		k.obs.PriorityChanged(c)
	}
}
