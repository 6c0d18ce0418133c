package netkernel

import (
	"fmt"
	"sync/atomic"
)

// lockFree is the zero value of a per-node spinlock: unheld.
const lockFree = 0

// LockErr is returned by Heap.AcquireLock when another worker already
// holds the lock on the requested node.
type LockErr struct {
	OtherTid int
}

func (e *LockErr) Error() string {
	return fmt.Sprintf("netkernel: node locked by worker %d", e.OtherTid)
}

// freeBlock is a freed slot range sitting on a worker's thread-local
// freelist, available for reuse by that worker's future Alloc calls.
type freeBlock struct {
	base uint32
	n    uint32
}

// Heap is the slot-addressable arena backing the reduction graph. It is
// shared by reference across all workers for the lifetime of a Reduce
// call; every cross-worker-visible write goes through Link, TakeArg, or
// AtomicSubst, all of which use release-ordered atomic stores so a
// subsequent acquire-ordered LoadPtr on another worker observes a fully
// formed Ptr, never a half-written one.
//
// Allocation is bump-pointer with per-worker freelists: Alloc first
// tries the calling worker's own freelist, falling back to an atomic
// bump of the shared cursor. Free only ever touches the freeing
// worker's own list, so freelists never contend across workers.
type Heap struct {
	slots []atomic.Uint64
	locks []atomic.Int32

	cursor atomic.Uint32
	cap    uint32

	freelists [][]freeBlock

	cost       atomic.Uint64
	workerCost []atomic.Uint64
}

// NewHeap allocates a fixed-capacity arena of the given number of slots,
// with per-worker freelists sized for workers many concurrent workers.
func NewHeap(capacity uint32, workers int) *Heap {
	if workers < 1 {
		workers = 1
	}
	return &Heap{
		slots:      make([]atomic.Uint64, capacity),
		locks:      make([]atomic.Int32, capacity),
		cap:        capacity,
		freelists:  make([][]freeBlock, workers),
		workerCost: make([]atomic.Uint64, workers),
	}
}

// Alloc reserves n contiguous slots for worker tid and returns the base
// slot address. It first looks for an exact-size block on tid's own
// freelist (LIFO reuse keeps recently freed, cache-hot slots in play),
// then falls back to an atomic bump allocation from the shared arena.
func (h *Heap) Alloc(tid int, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	fl := h.freelists[tid]
	for i := len(fl) - 1; i >= 0; i-- {
		if fl[i].n == n {
			base := fl[i].base
			h.freelists[tid] = append(fl[:i], fl[i+1:]...)
			return base
		}
	}
	base := h.cursor.Add(n) - n
	if base+n > h.cap {
		panic(fmt.Sprintf("netkernel: heap exhausted (cap=%d, requested base=%d n=%d)", h.cap, base, n))
	}
	return base
}

// Free returns n slots starting at base to tid's own freelist. It is the
// caller's responsibility to have already cleared the slots (typically
// by having taken their contents via TakeArg or by never having linked
// them); Free never touches another worker's freelist.
func (h *Heap) Free(tid int, base, n uint32) {
	if n == 0 {
		return
	}
	h.freelists[tid] = append(h.freelists[tid], freeBlock{base: base, n: n})
}

// LoadPtr reads the pointer at slot with acquire semantics, chasing
// through a bound variable's occurrence to whatever AtomicSubst has
// since written into its binder slot. A VAR pointer read back unchanged
// (the binder slot still holds its own self-referential sentinel) is a
// genuinely free, unsubstituted variable and is returned as-is.
func (h *Heap) LoadPtr(slot uint32) Ptr {
	p := Ptr(h.slots[slot].Load())
	for p.Tag() == TagVar && p.Loc() != slot {
		next := Ptr(h.slots[p.Loc()].Load())
		if next == p {
			break
		}
		slot = p.Loc()
		p = next
	}
	return p
}

// Link writes p into slot with release semantics, publishing it to any
// worker that subsequently acquire-loads the same slot.
func (h *Heap) Link(slot uint32, p Ptr) {
	h.slots[slot].Store(uint64(p))
}

// TakeArg reads slot (chasing variable indirection the same way LoadPtr
// does) and clears it to Era, detaching a child for a rewrite without
// leaving a dangling reference for a concurrent reader to chase. Unlike
// LoadPtr this is not a single atomic operation, but every caller only
// ever takes a slot it already holds exclusive rewrite rights to (the
// DUP node's per-node lock), so no concurrent writer can race it.
func (h *Heap) TakeArg(slot uint32) Ptr {
	p := h.LoadPtr(slot)
	h.slots[slot].Store(uint64(Era))
	return p
}

// LoadArg reads the i'th argument slot of a node based at base.
func (h *Heap) LoadArg(base uint32, i uint32) Ptr {
	return h.LoadPtr(base + i)
}

// AtomicSubst replaces every occurrence of a bound variable with value.
//
// Occurrences of a bound variable are never duplicated as independent
// graph edges — every VAR pointer referencing the binder carries the
// same backref slot, so "replacing every occurrence" reduces to a
// single release-ordered write into that one slot: subsequent loads of
// any VAR pointer that indirects through it observe value directly.
// This is what keeps APP-LAM a constant-time rewrite regardless of how
// many places the bound variable appears syntactically.
func (h *Heap) AtomicSubst(tid int, varSlot uint32, value Ptr) {
	h.Link(varSlot, value)
}

// AcquireLock attempts to take the per-node spinlock on slot for worker
// tid. It does not spin: on contention it returns a *LockErr naming the
// current holder, and the caller is expected to abandon this host and
// return to the outer work-stealing loop rather than busy-wait here.
func (h *Heap) AcquireLock(tid int, slot uint32) error {
	if h.locks[slot].CompareAndSwap(lockFree, int32(tid+1)) {
		return nil
	}
	return &LockErr{OtherTid: int(h.locks[slot].Load()) - 1}
}

// ReleaseLock releases the per-node spinlock on slot. A DUP node's lock
// is logically held across the detour where its payload gets reduced to
// WHNF, and that detour's continuation may complete on a different
// worker than the one that called AcquireLock — ownership is a property
// of the node's state, not of any one goroutine's stack, so release is
// an unconditional clear rather than a tid-matched CAS.
func (h *Heap) ReleaseLock(tid int, slot uint32) {
	_ = tid
	h.locks[slot].Store(lockFree)
}

// IncCost increments the global rewrite-cost counter and the calling
// worker's own per-worker counter (used by tests asserting every worker
// performed at least one rewrite under contention).
func (h *Heap) IncCost(tid int) {
	h.cost.Add(1)
	if tid >= 0 && tid < len(h.workerCost) {
		h.workerCost[tid].Add(1)
	}
}

// GetCost returns the current value of the global rewrite-cost counter.
func (h *Heap) GetCost() uint64 { return h.cost.Load() }

// WorkerCost returns the number of rewrites worker tid has performed.
func (h *Heap) WorkerCost(tid int) uint64 { return h.workerCost[tid].Load() }
