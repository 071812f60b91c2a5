package klock

// setPark records that p is about to park. It must be called while the
// lock's guard is still held, so that a release which dequeues p right
// after the guard drops finds the intent set and can cancel it.
func (k *Kernel) setPark(p *Process) {
	k.mask.disable()
	p.parking = true
	k.mask.restore()
}

// park suspends p until a matching unpark, unless that unpark already ran
// and cleared the intent. onPark, if not nil, runs under the mask after p
// is marked waiting and before it suspends; events it records are emitted
// before the goroutine blocks.
func (k *Kernel) park(p *Process, onPark func(ev *events)) {
	var ev events
	k.mask.disable()
	if !p.parking {
		// The unpark won the race: p is already the owner.
		k.ready.remove(p)
		p.state = StateRunning
		k.mask.restore()
		return
	}
	p.state = StateWaiting
	if onPark != nil {
		onPark(&ev)
	}
	k.mask.restore()
	k.emit(&ev)

	p.sema.Acquire()

	k.mask.disable()
	k.ready.remove(p)
	p.state = StateRunning
	k.mask.restore()
}

// unparkLocked makes p ready: it enters the ready list by effective
// priority, its parking intent is cleared, and its goroutine is woken if it
// had already suspended. Callers hold the mask.
func (k *Kernel) unparkLocked(p *Process) {
	suspended := p.state == StateWaiting
	p.state = StateReady
	k.ready.insert(p)
	p.parking = false
	if suspended {
		p.sema.Release()
	}
}

func (k *Kernel) unpark(p *Process) {
	k.mask.disable()
	k.unparkLocked(p)
	k.mask.restore()
}
