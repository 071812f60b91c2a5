package klock

import (
	"sync/atomic"
	"time"
	_ "unsafe" // for linkname
)

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// testAndSet atomically stores 1 into *addr and returns the previous value.
//
//go:nosplit
func testAndSet(addr *uint32) uint32 {
	return atomic.SwapUint32(addr, 1)
}

func trySpin(spins *int) bool {
	if runtime_canSpin(*spins) {
		*spins++
		runtime_doSpin()
		return true
	}
	return false
}

// delay spins while the runtime allows it, then sleeps for d and starts
// spinning again.
func delay(spins *int, d time.Duration) {
	if trySpin(spins) {
		return
	}
	*spins = 0
	time.Sleep(d)
}

// guard is the short-lived spin bit that protects a blocking lock's own
// fields. It is never held across a park.
type guard struct {
	bit uint32
}

func (g *guard) lock(backoff time.Duration) {
	var spins int
	for testAndSet(&g.bit) != 0 {
		delay(&spins, backoff)
	}
}

func (g *guard) unlock() {
	atomic.StoreUint32(&g.bit, 0)
}

// nolint:all
//
//go:linkname runtime_canSpin sync.runtime_canSpin
//goland:noinspection ALL
func runtime_canSpin(i int) bool

// nolint:all
//
//go:linkname runtime_doSpin sync.runtime_doSpin
//goland:noinspection ALL
func runtime_doSpin()
