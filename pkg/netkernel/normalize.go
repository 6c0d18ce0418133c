package netkernel

import "context"

// Normalize drives the graph rooted at root all the way to full normal
// form. A single full Reduce pass only reaches as deep as the
// substitutions it performs that round expose; new redexes uncovered by
// one pass (for example a DUP splitting open a freshly substituted
// lambda) need a further pass to reach WHNF themselves. Normalize
// repeats full Reduce passes until the heap's global rewrite cost stops
// advancing, which is the cheapest available fixpoint signal: once a
// pass performs zero rewrites, nothing further changed.
func Normalize(ctx context.Context, prog *Program, heap *Heap, workers int, root uint32, debug bool) (Ptr, error) {
	var last uint64
	for {
		result, err := Reduce(ctx, prog, heap, workers, root, true, debug)
		if err != nil {
			return 0, err
		}

		cost := heap.GetCost()
		if cost == last {
			return result, nil
		}
		last = cost

		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}
