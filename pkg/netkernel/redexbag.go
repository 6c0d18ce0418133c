package netkernel

import (
	"sync"
	"sync/atomic"
)

// RootCont is the sentinel continuation id meaning "this is the root;
// completing it halts the worker" rather than resuming a parent.
const RootCont uint64 = ^uint64(0)

// RedexCont is a suspended parent-rewrite continuation: the parent host
// to resume, the continuation the parent itself completes into, and a
// count of children still outstanding before the parent may proceed.
type RedexCont struct {
	ParentHost uint32
	ParentCont uint64
	remaining  atomic.Int32
}

// redexShards bounds lock/map contention on the bag; cont ids are
// routed to a shard by their low bits, which hold the allocating
// worker's id, so each worker's continuations share one shard.
const redexShards = 32

// RedexBag stores suspended parent continuations keyed by a dense
// cont_id, sharded to spread sync.Map contention across workers, with
// per-worker id allocation so inserts never contend on a shared
// counter.
type RedexBag struct {
	shards  [redexShards]sync.Map // cont_id -> *RedexCont
	nextIDs []atomic.Uint64
}

// NewRedexBag creates a bag with per-worker id allocators for workers
// many concurrent workers.
func NewRedexBag(workers int) *RedexBag {
	if workers < 1 {
		workers = 1
	}
	return &RedexBag{nextIDs: make([]atomic.Uint64, workers)}
}

// Insert publishes a new continuation on behalf of worker tid and
// returns its id. remaining must be >= 1: a record with zero remaining
// children has no reason to be suspended.
func (b *RedexBag) Insert(tid int, parentHost uint32, parentCont uint64, remaining int32) uint64 {
	local := b.nextIDs[tid].Add(1)
	id := local<<32 | uint64(uint32(tid))
	rc := &RedexCont{ParentHost: parentHost, ParentCont: parentCont}
	rc.remaining.Store(remaining)
	b.shards[id%redexShards].Store(id, rc)
	return id
}

// Complete atomically decrements the remaining-children count of id.
// Exactly one caller — across all workers, regardless of timing — ever
// observes the decrement reach zero; that caller removes the record
// and receives the parent pair to resume. Every other caller receives
// ok=false meaning siblings are still outstanding.
func (b *RedexBag) Complete(id uint64) (parentHost uint32, parentCont uint64, ok bool) {
	shard := &b.shards[id%redexShards]
	v, found := shard.Load(id)
	if !found {
		return 0, 0, false
	}
	rc := v.(*RedexCont)
	if rc.remaining.Add(-1) != 0 {
		return 0, 0, false
	}
	shard.Delete(id)
	return rc.ParentHost, rc.ParentCont, true
}
