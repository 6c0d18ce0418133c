package netkernel

import (
	"log"
	"runtime"
	"sync/atomic"
)

// Barrier is a debug-only, three-phase rendezvous: every worker records
// its current host slot, the worker that completes the rendezvous
// prints the graph snapshot, and all workers then proceed together.
// It is never used outside debug=true traces (§4.6) — it plays no role
// in ordinary reduction.
type Barrier struct {
	n     int
	hosts []atomic.Uint32
	done  atomic.Int64
	pass  atomic.Int64
}

// NewBarrier creates a barrier for n participating workers.
func NewBarrier(n int) *Barrier {
	return &Barrier{n: n, hosts: make([]atomic.Uint32, n)}
}

// Arrive records host for worker tid and rendezvouses with the other
// n-1 workers. The last arriver prints the snapshot via snapshot and
// releases everyone else. liveWorkers is the shared count of workers
// that have not yet terminated: a worker spinning on the release must
// bail out if it drops below b.n, since a peer that has already halted
// will never arrive and would otherwise deadlock the barrier forever.
func (b *Barrier) Arrive(tid int, host uint32, liveWorkers *atomic.Int64, snapshot func()) {
	b.hosts[tid].Store(host)

	target := b.pass.Load() + 1
	if b.done.Add(1) == int64(b.n) {
		snapshot()
		b.done.Store(0)
		b.pass.Add(1)
		return
	}

	for b.pass.Load() < target {
		if liveWorkers.Load() < int64(b.n) {
			return
		}
		runtime.Gosched()
	}
}

// LogSnapshot is the default snapshot function: it prints every
// worker's currently recorded host slot through the standard logger,
// the same ambient logging mechanism the teacher package uses for its
// own trace output.
func (b *Barrier) LogSnapshot() {
	log.Printf("netkernel: barrier snapshot (%d workers)", b.n)
	for i := range b.hosts {
		log.Printf("  worker %d at host=%d", i, b.hosts[i].Load())
	}
}
