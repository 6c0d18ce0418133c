package netkernel

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitrdm/netkernel/internal/parallel"
)

const (
	defaultDequeCapacity = 1 << 16
	idleConfirmDelay     = 50 * time.Microsecond
	stallThreshold       = 5 * time.Second
	stallCheckInterval   = time.Second
)

// reducer holds everything the worker goroutines of a single Reduce
// call share: the heap, the redex bag, the per-worker deques, and the
// bookkeeping (idle/alive counters, stats, stall detector, optional
// debug barrier) driving termination.
type reducer struct {
	heap   *Heap
	bag    *RedexBag
	prog   *Program
	deques []*VisitDeque
	full   bool
	debug  bool

	idle  atomic.Int64
	alive atomic.Int64

	stats   *parallel.ExecutionStats
	stall   *parallel.StallDetector
	barrier *Barrier
}

// noHost is the steal-loop's stand-in for "no location yet", mirroring
// the original's use of u64::MAX at its steal-loop print call site
// (reducer.rs:405-409) before a victim has been chosen.
const noHost = ^uint32(0)

// barrierArrive is a no-op unless the reducer was built with debug=true,
// in which case it rendezvouses every worker and logs a graph snapshot.
// Call sites mirror the original's repeated print(tid, host) closure
// inside 'visit, 'apply, and 'steal (reducer.rs:84-92,103-105,223-225,
// 406-409): once per visit step, once per apply step, and once per
// steal attempt.
func (r *reducer) barrierArrive(tid int, host uint32) {
	if !r.debug {
		return
	}
	r.barrier.Arrive(tid, host, &r.alive, r.barrier.LogSnapshot)
}

// Reduce drives the graph rooted at root to weak head normal form (or,
// when full is true, propagates normalization into every WHNF node's
// children as well) using workers concurrent worker goroutines, each
// running the visit/apply/blink/steal state machine over its own
// Chase-Lev deque. It returns the pointer now stored at root once every
// worker has run out of work to steal.
func Reduce(ctx context.Context, prog *Program, heap *Heap, workers int, root uint32, full, debug bool) (Ptr, error) {
	if workers < 1 {
		workers = 1
	}

	deques := make([]*VisitDeque, workers)
	for i := range deques {
		deques[i] = NewVisitDeque(defaultDequeCapacity)
	}

	r := &reducer{
		heap:   heap,
		bag:    NewRedexBag(workers),
		prog:   prog,
		deques: deques,
		full:   full,
		debug:  debug,
		stats:  parallel.NewExecutionStats(),
		stall:  parallel.NewStallDetector(workers, stallThreshold, stallCheckInterval),
	}
	r.alive.Store(int64(workers))
	defer r.stall.Shutdown()

	if debug {
		r.barrier = NewBarrier(workers)
	}

	if err := deques[0].Push(VisitEntry{Host: root, Cont: RootCont}); err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		tid := i
		g.Go(func() error {
			return r.run(gctx, tid)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	r.stats.Finalize()
	if debug {
		log.Printf("netkernel: reduce done root=%d %s", root, r.stats.String())
	}
	return heap.LoadPtr(root), nil
}

// run is a single worker's visit/apply/blink/steal loop. visit and
// apply are folded into processChain, which walks an entire chain of
// redirects and continuation completions before this loop asks for the
// next unit of work; blink and steal are the two branches taken once a
// worker's own deque and every peer's deque come up empty.
func (r *reducer) run(gctx context.Context, tid int) error {
	ctx := &RuleCtx{Heap: r.heap, Bag: r.bag, Deque: r.deques[tid], Prog: r.prog, Tid: tid, Full: r.full}
	backoff := parallel.NewBackoff(0, 0)

	defer r.alive.Add(-1)

	for {
		if err := gctx.Err(); err != nil {
			return err
		}

		entry, ok := r.deques[tid].Pop()
		if !ok {
			r.barrierArrive(tid, noHost)
			entry, ok = r.stealSweep(tid)
		}
		if ok {
			backoff.Reset()
			ctx.Host, ctx.Cont = entry.Host, entry.Cont
			r.processChain(ctx)
			continue
		}

		if r.blink(tid) {
			return nil
		}
		backoff.Snooze()
	}
}

// blink is the idle state entered once a worker finds nothing to pop
// or steal. It records itself as idle and stays counted while it polls:
// as soon as any deque holds work it leaves the idle count and returns
// false so the caller can steal it; once every live worker is counted
// idle with every deque empty it declares termination. A worker only
// pushes while it is not idle, so that state cannot be left again.
func (r *reducer) blink(tid int) bool {
	r.idle.Add(1)
	for {
		for _, d := range r.deques {
			if d.Len() > 0 {
				r.idle.Add(-1)
				return false
			}
		}
		if r.idle.Load() >= r.alive.Load() {
			return true
		}
		time.Sleep(idleConfirmDelay)
	}
}

// stealSweep tries every peer deque once, starting just past tid so
// workers don't all converge on worker 0's victim first.
func (r *reducer) stealSweep(tid int) (VisitEntry, bool) {
	n := len(r.deques)
	for i := 1; i < n; i++ {
		victim := (tid + i) % n
		if e, ok := r.deques[victim].Steal(); ok {
			r.stats.RecordStealOK()
			return e, true
		}
	}
	r.stats.RecordStealFailed()
	return VisitEntry{}, false
}

// processChain walks ctx.Host through visit redirects, applies (the
// host is visited again after every successful rewrite), and
// continuation completions until either the chain runs dry (no parent
// left to resume) or a DUP node's lock is contended, in which case the
// entry is requeued for another attempt later.
func (r *reducer) processChain(ctx *RuleCtx) {
	var lockStack []uint32
	resumed := false

	for {
		p := ctx.Heap.LoadPtr(ctx.Host)
		r.barrierArrive(ctx.Tid, ctx.Host)

		if p.IsWHNF() {
			if r.settle(ctx) {
				resumed = true
				continue
			}
			return
		}

		if p.Tag() == TagDp0 || p.Tag() == TagDp1 {
			base := p.Loc()
			// A DUP host reached by resuming its payload's continuation
			// already holds its lock: dupVisit only redirects with it held.
			held := resumed || (len(lockStack) > 0 && lockStack[len(lockStack)-1] == base)
			resumed = false
			if !held {
				if err := ctx.Heap.AcquireLock(ctx.Tid, base); err != nil {
					r.stats.RecordLockContention()
					_ = ctx.Deque.Push(VisitEntry{Host: ctx.Host, Cont: ctx.Cont})
					return
				}
				// ABA guard: another worker may have rewritten ctx.Host
				// between the LoadPtr above and this AcquireLock. Revalidate
				// before trusting p; a changed pointer means this lock was
				// acquired on behalf of a node that no longer matters here,
				// so release it and restart the visit from scratch.
				if cur := ctx.Heap.LoadPtr(ctx.Host); cur != p {
					ctx.Heap.ReleaseLock(ctx.Tid, base)
					continue
				}
				lockStack = append(lockStack, base)
			}

			if dupVisit(ctx, p) {
				continue
			}

			r.barrierArrive(ctx.Tid, ctx.Host)
			applied := dupApply(ctx, p)
			if applied {
				r.stats.RecordRewrite()
				r.stall.Progress(ctx.Tid)
			}
			ctx.Heap.ReleaseLock(ctx.Tid, base)
			if len(lockStack) > 0 && lockStack[len(lockStack)-1] == base {
				lockStack = lockStack[:len(lockStack)-1]
			}
			if applied {
				continue
			}

			if r.settle(ctx) {
				resumed = true
				continue
			}
			return
		}
		resumed = false

		if r.dispatchVisit(ctx, p) {
			continue
		}
		r.barrierArrive(ctx.Tid, ctx.Host)
		if r.dispatchApply(ctx, p) {
			r.stats.RecordRewrite()
			r.stall.Progress(ctx.Tid)
			continue
		}
		if r.settle(ctx) {
			resumed = true
			continue
		}
		return
	}
}

// dispatchVisit routes a non-WHNF host to its tag's visit rule. DUP
// nodes are handled inline by processChain, not here, since they need
// the per-node lock wrapped around the call.
func (r *reducer) dispatchVisit(ctx *RuleCtx, p Ptr) bool {
	switch p.Tag() {
	case TagApp:
		return appVisit(ctx, p)
	case TagOp2:
		return op2Visit(ctx, p)
	case TagFun, TagCtr:
		return funVisit(ctx, p)
	default:
		return false
	}
}

func (r *reducer) dispatchApply(ctx *RuleCtx, p Ptr) bool {
	switch p.Tag() {
	case TagApp:
		return appApply(ctx, p)
	case TagOp2:
		return op2Apply(ctx, p)
	case TagFun, TagCtr:
		return funApply(ctx, p)
	default:
		return false
	}
}

// settle is called once ctx.Host holds a settled value: either genuine
// WHNF, or a stuck non-WHNF term no rule could rewrite further. In full
// mode it schedules a settled WHNF node's children for their own
// independent normalization. It then completes ctx.Cont, if any, and
// reports whether a parent continuation resumed (true) so the caller
// should keep looping, or whether this chain has nothing left upstream
// (false).
func (r *reducer) settle(ctx *RuleCtx) bool {
	p := ctx.Heap.LoadPtr(ctx.Host)
	if r.full && p.IsWHNF() {
		r.pushChildren(ctx.Tid, p)
	}

	if ctx.Cont == RootCont {
		return false
	}
	parentHost, parentCont, ok := r.bag.Complete(ctx.Cont)
	if !ok {
		return false
	}
	ctx.Host, ctx.Cont = parentHost, parentCont
	return true
}

// pushChildren enqueues a settled WHNF node's subterms as independent,
// root-continuation jobs, so full normalization reaches the whole
// graph and not just the spine the original root redirected through.
func (r *reducer) pushChildren(tid int, p Ptr) {
	base := p.Loc()

	var arity uint32
	switch p.Tag() {
	case TagCtr:
		arity = uint32(r.prog.ArityOf(p))
	case TagSup:
		arity = 2
	case TagLam:
		// Only the body (slot+1) is a subterm; slot+0 is the binder's
		// backref cell, not something to reduce.
		if err := r.deques[tid].Push(VisitEntry{Host: base + 1, Cont: RootCont}); err != nil {
			r.stats.RecordQueueFull()
		}
		return
	default:
		return
	}

	for i := uint32(0); i < arity; i++ {
		if err := r.deques[tid].Push(VisitEntry{Host: base + i, Cont: RootCont}); err != nil {
			r.stats.RecordQueueFull()
		}
	}
}
