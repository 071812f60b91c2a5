package klock

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/llxisdsh/pb"
	"github.com/sirupsen/logrus"
)

// Kernel is the synchronization-manager context the locks run against.
// It owns what a small kernel would keep in global tables: the process
// registry, the active-lock holder table, the ready list, per-kind instance
// counters and the interrupt mask.
//
// A Kernel must be created with NewKernel. Locks and processes from
// different kernels must not be mixed.
type Kernel struct {
	_   noCopy
	cfg Config
	log *logrus.Entry
	obs Observer

	mask  intrMask
	ready readyList // guarded by mask

	procs  pb.MapOf[PID, *Process]
	counts [kindCount]atomic.Int32

	// holderOf maps an active lock's identity to its current holder.
	// Guarded by mask.
	holderOf []*Process
}

// NewKernel creates a Kernel configured by the given options.
//
// Usage:
//
//	k := klock.NewKernel(
//		klock.WithMaxActiveLocks(8),
//		klock.WithObserver(rec),
//	)
func NewKernel(options ...func(*Config)) *Kernel {
	cfg := defaultConfig()
	for _, o := range options {
		o(&cfg)
	}
	k := &Kernel{
		cfg:      cfg,
		log:      cfg.logger.WithField("component", "klock"),
		holderOf: make([]*Process, cfg.limits[KindActiveLock]),
	}
	k.obs = cfg.observer
	if k.obs == nil {
		k.obs = LogObserver{Logger: k.log}
	}
	return k
}

// NewProcess registers a process with the given name and priority. It fails
// with a *CapacityError once the process table is full.
func (k *Kernel) NewProcess(name string, prio Priority) (*Process, error) {
	n, err := k.reserve(KindProcess)
	if err != nil {
		return nil, err
	}
	p := &Process{
		k:       k,
		pid:     PID(n + 1),
		name:    name,
		prio:    prio,
		state:   StateRunning,
		pending: NoLock,
	}
	k.procs.Store(p.pid, p)
	k.log.WithFields(logrus.Fields{"pid": p.pid, "name": name, "prio": prio}).Debug("process registered")
	return p, nil
}

// Lookup returns the process registered under pid.
func (k *Kernel) Lookup(pid PID) (*Process, bool) {
	return k.procs.Load(pid)
}

// Processes returns every registered process ordered by PID.
func (k *Kernel) Processes() []*Process {
	var out []*Process
	k.procs.Range(func(_ PID, p *Process) bool {
		out = append(out, p)
		return true
	})
	slices.SortFunc(out, func(a, b *Process) int {
		return int(a.pid) - int(b.pid)
	})
	return out
}

// Ready returns the ready list, highest priority first.
func (k *Kernel) Ready() []*Process {
	k.mask.disable()
	defer k.mask.restore()
	return k.ready.snapshot()
}

// Count reports how many instances of kind have been initialized.
func (k *Kernel) Count(kind Kind) int {
	return int(k.counts[kind].Load())
}

// Limit reports the configured maximum for kind.
func (k *Kernel) Limit(kind Kind) int {
	return k.cfg.limits[kind]
}

// reserve claims the next slot of kind and returns its zero-based index.
func (k *Kernel) reserve(kind Kind) (int, error) {
	limit := k.cfg.limits[kind]
	c := &k.counts[kind]
	for {
		n := c.Load()
		if int(n) >= limit {
			k.log.WithFields(logrus.Fields{"kind": kind.String(), "limit": limit}).Warn("capacity exceeded")
			return 0, &CapacityError{Kind: kind, Limit: limit}
		}
		if c.CompareAndSwap(n, n+1) {
			return int(n), nil
		}
	}
}

// own panics unless p is a process of k.
func (k *Kernel) own(p *Process) {
	if p == nil {
		panic("klock: nil process")
	}
	if p.k != k {
		panic(fmt.Sprintf("klock: %v belongs to another kernel", p))
	}
}

// tracing reports whether debug traces are enabled; callers check it before
// building fields.
func (k *Kernel) tracing() bool {
	return k.log.Logger.IsLevelEnabled(logrus.DebugLevel)
}

func (k *Kernel) trace(p *Process, lock fmt.Stringer, msg string) {
	if !k.tracing() {
		return
	}
	k.log.WithFields(logrus.Fields{"pid": p.pid, "lock": lock.String()}).Debug(msg)
}
