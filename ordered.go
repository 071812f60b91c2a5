package klock

import (
	"context"
	"slices"
	"time"

	"github.com/cenkalti/backoff"
)

// AcquireOrdered acquires every lock in ascending LockID order. Processes
// that only take multiple active locks through AcquireOrdered cannot form a
// circular wait among them. Duplicate locks are acquired once.
func AcquireOrdered(p *Process, locks ...*ActiveLock) {
	for _, l := range byID(locks) {
		l.Acquire(p)
	}
}

// ReleaseOrdered releases locks taken by AcquireOrdered, highest LockID
// first.
func ReleaseOrdered(p *Process, locks ...*ActiveLock) {
	s := byID(locks)
	for i := len(s) - 1; i >= 0; i-- {
		s[i].Release(p)
	}
}

func byID(locks []*ActiveLock) []*ActiveLock {
	s := slices.Clone(locks)
	slices.SortFunc(s, func(a, b *ActiveLock) int {
		return int(a.id) - int(b.id)
	})
	return slices.CompactFunc(s, func(a, b *ActiveLock) bool {
		return a == b
	})
}

// AcquireAll takes every lock without ever blocking while holding one of
// them. Each round try-acquires the locks in the order given; on the first
// failure everything taken in that round is released and the round is
// retried after an exponential backoff shaped by WithRetryBackoff.
//
// AcquireAll returns nil once all locks are held, or ctx.Err() if ctx is
// done first, in which case none of the locks are held.
func AcquireAll(ctx context.Context, p *Process, locks ...*ActiveLock) error {
	if len(locks) == 0 {
		return ctx.Err()
	}
	k := locks[0].k
	k.own(p)
	round := func() bool {
		for i, l := range locks {
			if !l.TryAcquire(p) {
				for j := i - 1; j >= 0; j-- {
					locks[j].Release(p)
				}
				k.trace(p, l, "contended, backing off")
				return false
			}
		}
		return true
	}
	// MaxElapsedTime is zero, so NextBackOff never stops; only ctx ends
	// the loop.
	b := &backoff.ExponentialBackOff{
		InitialInterval:     k.cfg.retryBackoff,
		RandomizationFactor: 0.5,
		Multiplier:          1.5,
		MaxInterval:         k.cfg.maxRetryBackoff,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	var t *time.Timer
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if round() {
			return nil
		}
		next := b.NextBackOff()
		if t == nil {
			t = time.NewTimer(next)
			defer t.Stop()
		} else {
			t.Reset(next)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
