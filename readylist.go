package klock

// readyList is the kernel's ready collection: processes that have been
// unparked but whose goroutine has not resumed yet, highest effective
// priority first and FIFO among equal priorities.
//
// All methods run under the kernel mask.
type readyList struct {
	procs []*Process
}

func (r *readyList) insert(p *Process) {
	i := len(r.procs)
	for j, q := range r.procs {
		if q.prio < p.prio {
			i = j
			break
		}
	}
	r.procs = append(r.procs, nil)
	copy(r.procs[i+1:], r.procs[i:])
	r.procs[i] = p
}

func (r *readyList) indexOf(p *Process) int {
	for i, q := range r.procs {
		if q == p {
			return i
		}
	}
	return -1
}

func (r *readyList) contains(p *Process) bool {
	return r.indexOf(p) >= 0
}

func (r *readyList) remove(p *Process) bool {
	i := r.indexOf(p)
	if i < 0 {
		return false
	}
	copy(r.procs[i:], r.procs[i+1:])
	r.procs[len(r.procs)-1] = nil
	r.procs = r.procs[:len(r.procs)-1]
	return true
}

// reposition moves p to the slot its current priority calls for. It is a
// no-op for processes that are not in the list.
func (r *readyList) reposition(p *Process) bool {
	if !r.remove(p) {
		return false
	}
	r.insert(p)
	return true
}

func (r *readyList) snapshot() []*Process {
	return append([]*Process(nil), r.procs...)
}
