package netkernel

import (
	"errors"
	"sync/atomic"
)

// ErrQueueFull is returned by VisitDeque.Push when the owner's fixed
// ring buffer has no room left. This is the one condition in this
// module that is not silently recovered internally (see §7 of
// SPEC_FULL.md): a full visit queue means the program outgrew the fixed
// per-worker capacity (defaultDequeCapacity), and swallowing the entry here
// would violate the "no lost work" invariant, so Reduce instead
// cancels the worker group and surfaces the error.
var ErrQueueFull = errors.New("netkernel: visit queue full")

// VisitEntry describes a place to resume graph traversal: the slot to
// visit, the continuation it should complete into, and whether the
// owning worker should hold (redirect host without pushing siblings)
// rather than publish this entry for stealing.
type VisitEntry struct {
	Host uint32
	Cont uint64
	Hold bool
}

// VisitDeque is a per-worker, fixed-capacity Chase–Lev work-stealing
// deque. The owner pushes and pops at the bottom (LIFO, lock-free);
// thieves steal from the top (FIFO) via a single-winner CAS so a
// stolen entry is removed exactly once even under concurrent steals.
type VisitDeque struct {
	buf []VisitEntry
	top atomic.Int64
	bot atomic.Int64
}

// NewVisitDeque allocates a deque with the given fixed capacity.
func NewVisitDeque(capacity int) *VisitDeque {
	if capacity < 1 {
		capacity = 1
	}
	return &VisitDeque{buf: make([]VisitEntry, capacity)}
}

// Push appends entry at the bottom. Owner-only; not safe to call
// concurrently with another Push or Pop on the same deque.
func (d *VisitDeque) Push(entry VisitEntry) error {
	b := d.bot.Load()
	t := d.top.Load()
	if b-t >= int64(len(d.buf)) {
		return ErrQueueFull
	}
	d.buf[b%int64(len(d.buf))] = entry
	d.bot.Store(b + 1)
	return nil
}

// Pop removes the most recently pushed entry (LIFO). Owner-only.
func (d *VisitDeque) Pop() (VisitEntry, bool) {
	b := d.bot.Load() - 1
	d.bot.Store(b)
	t := d.top.Load()
	if t > b {
		// Already empty; restore bottom to the canonical empty state.
		d.bot.Store(t)
		return VisitEntry{}, false
	}
	e := d.buf[b%int64(len(d.buf))]
	if t == b {
		// Last element: racing with a concurrent Steal for it.
		if !d.top.CompareAndSwap(t, t+1) {
			d.bot.Store(b + 1)
			return VisitEntry{}, false
		}
		d.bot.Store(b + 1)
	}
	return e, true
}

// Steal removes the oldest entry (FIFO). Safe to call from any worker
// other than the owner, concurrently with the owner's Pop/Push and with
// other thieves' Steal calls.
func (d *VisitDeque) Steal() (VisitEntry, bool) {
	t := d.top.Load()
	b := d.bot.Load()
	if t >= b {
		return VisitEntry{}, false
	}
	e := d.buf[t%int64(len(d.buf))]
	if !d.top.CompareAndSwap(t, t+1) {
		return VisitEntry{}, false
	}
	return e, true
}

// Len reports the approximate number of entries currently queued.
func (d *VisitDeque) Len() int {
	n := d.bot.Load() - d.top.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
