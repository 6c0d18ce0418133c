package netkernel

// A duplication node occupies three contiguous slots at its base
// location: [0] and [1] hold the dp0/dp1 side's resolved answer (or
// dupUnset until computed), [2] holds the payload being duplicated —
// this is the spec's "slot 2 = shared payload" (§3.1). Dp0(label,base)
// and Dp1(label,base) are the two projector pointers stored at the two
// occurrence sites of whatever was duplicated.
//
// Exactly one of the two occurrences ever performs the actual split:
// whichever is visited first, while its own answer slot is still
// dupUnset, computes both halves under the per-node lock, writes both
// answer slots, and copies its own half into its own host. The other
// occurrence, visited later (by the same or a different worker), finds
// its answer slot already resolved and just copies it out — no lock
// contention beyond the brief acquire needed to read that slot safely
// alongside the first mover's writes.

// dupUnset is the "not yet resolved" sentinel for a duplication node's
// answer slots. It is a TagEra pointer distinguished from a genuine
// duplicated-to-Era answer (which uses loc 0, the package-level Era
// value) by using the otherwise-unused max loc value instead.
var dupUnset = NewPtr(TagEra, 0, ptrLocMax)

// allocDupNode allocates a fresh 3-slot duplication node around payload
// with both answer slots unresolved.
func allocDupNode(ctx *RuleCtx, payload Ptr) uint32 {
	base := ctx.Heap.Alloc(ctx.Tid, 3)
	ctx.Heap.Link(base+0, dupUnset)
	ctx.Heap.Link(base+1, dupUnset)
	ctx.Heap.Link(base+2, payload)
	return base
}

// dupSide returns 0 for a DP0 host and 1 for a DP1 host.
func dupSide(tag Tag) uint32 {
	if tag == TagDp0 {
		return 0
	}
	return 1
}

// dupVisit is called with the per-node lock already held and the
// pointer at ctx.Host already revalidated as DP0/DP1 by the caller
// (reducer.go). It decides whether the shared payload still needs
// reducing before the split can happen.
func dupVisit(ctx *RuleCtx, p Ptr) bool {
	base := p.Loc()
	side := dupSide(p.Tag())

	if ctx.Heap.LoadPtr(base+side) != dupUnset {
		return false // sibling already resolved my half; go straight to apply
	}

	payload := ctx.Heap.LoadPtr(base + 2)
	if payload.IsWHNF() {
		return false
	}

	contID := ctx.Bag.Insert(ctx.Tid, ctx.Host, ctx.Cont, 1)
	ctx.Cont = contID
	ctx.Host = base + 2
	return true
}

// dupApply performs the split (first mover) or consumes the sibling's
// precomputed half (second mover). Each occurrence counts as its own
// DP projection towards the cost, so both branches call IncCost — a
// completed `dup` interaction adds 2 to the cost: once when the first
// occurrence splits the payload, once when the second copies its
// precomputed half. The caller releases the
// per-node lock unconditionally after this returns, per §4.4.
func dupApply(ctx *RuleCtx, p Ptr) bool {
	base := p.Loc()
	label := p.Ext()
	side := dupSide(p.Tag())

	if ans := ctx.Heap.LoadPtr(base + side); ans != dupUnset {
		ctx.Heap.Link(ctx.Host, ans)
		ctx.Heap.Free(ctx.Tid, base, 3)
		ctx.Heap.IncCost(ctx.Tid)
		return true
	}

	payload := ctx.Heap.TakeArg(base + 2)
	ans0, ans1 := splitPayload(ctx, label, payload)
	ctx.Heap.Link(base+0, ans0)
	ctx.Heap.Link(base+1, ans1)

	mine := ans0
	if side == 1 {
		mine = ans1
	}
	ctx.Heap.Link(ctx.Host, mine)
	ctx.Heap.IncCost(ctx.Tid)
	return true
}

// splitPayload duplicates a WHNF payload into its two independent
// halves, per tag.
func splitPayload(ctx *RuleCtx, label int32, payload Ptr) (Ptr, Ptr) {
	switch payload.Tag() {
	case TagNum, TagEra, TagVar:
		// Numbers, the erased value, and bare variable backrefs are
		// duplicated for free: no new SUP or node is introduced, both
		// sides just get the same immutable value.
		return payload, payload

	case TagCtr:
		return splitCtr(ctx, label, payload)

	case TagLam:
		return splitLam(ctx, label, payload)

	case TagSup:
		return splitSup(ctx, label, payload)

	default:
		// visit() guarantees payload is WHNF before apply runs; no
		// other WHNF tag should reach here.
		return Era, Era
	}
}

func splitCtr(ctx *RuleCtx, label int32, payload Ptr) (Ptr, Ptr) {
	arity := uint32(ctx.Prog.ArityOf(payload))
	argsBase := payload.Loc()

	base0 := ctx.Heap.Alloc(ctx.Tid, arity)
	base1 := ctx.Heap.Alloc(ctx.Tid, arity)
	for i := uint32(0); i < arity; i++ {
		arg := ctx.Heap.LoadArg(argsBase, i)
		dupBase := allocDupNode(ctx, arg)
		ctx.Heap.Link(base0+i, Dp0(label, dupBase))
		ctx.Heap.Link(base1+i, Dp1(label, dupBase))
	}
	if arity > 0 {
		ctx.Heap.Free(ctx.Tid, argsBase, arity)
	}
	return Ctr(payload.Ext(), base0), Ctr(payload.Ext(), base1)
}

func splitLam(ctx *RuleCtx, label int32, payload Ptr) (Ptr, Ptr) {
	varSlot := payload.Loc() + 0
	body := ctx.Heap.LoadArg(payload.Loc(), 1)

	lam0 := ctx.Heap.Alloc(ctx.Tid, 2)
	lam1 := ctx.Heap.Alloc(ctx.Tid, 2)

	// The original bound variable's (at most one) occurrence now sees
	// a superposition of the two new binders.
	varSupBase := ctx.Heap.Alloc(ctx.Tid, 2)
	ctx.Heap.Link(varSupBase+0, Var(lam0+0))
	ctx.Heap.Link(varSupBase+1, Var(lam1+0))
	ctx.Heap.AtomicSubst(ctx.Tid, varSlot, Sup(label, varSupBase))

	bodyDupBase := allocDupNode(ctx, body)
	ctx.Heap.Link(lam0+0, Var(lam0+0))
	ctx.Heap.Link(lam1+0, Var(lam1+0))
	ctx.Heap.Link(lam0+1, Dp0(label, bodyDupBase))
	ctx.Heap.Link(lam1+1, Dp1(label, bodyDupBase))

	ctx.Heap.Free(ctx.Tid, payload.Loc()+1, 1) // body slot only; varSlot stays live
	return Lam(lam0), Lam(lam1)
}

func splitSup(ctx *RuleCtx, label int32, payload Ptr) (Ptr, Ptr) {
	innerLabel := payload.Ext()
	base := payload.Loc()
	left := ctx.Heap.LoadArg(base, 0)
	right := ctx.Heap.LoadArg(base, 1)

	if innerLabel == label {
		// Annihilation: a dup and a sup of the same label are inverse
		// interactions and cancel outright.
		ctx.Heap.Free(ctx.Tid, base, 2)
		return left, right
	}

	// Commutation: distinct labels, so distribute the duplication over
	// both children instead.
	dupL := allocDupNode(ctx, left)
	dupR := allocDupNode(ctx, right)

	sup0 := ctx.Heap.Alloc(ctx.Tid, 2)
	ctx.Heap.Link(sup0+0, Dp0(label, dupL))
	ctx.Heap.Link(sup0+1, Dp0(label, dupR))

	sup1 := ctx.Heap.Alloc(ctx.Tid, 2)
	ctx.Heap.Link(sup1+0, Dp1(label, dupL))
	ctx.Heap.Link(sup1+1, Dp1(label, dupR))

	ctx.Heap.Free(ctx.Tid, base, 2)
	return Sup(innerLabel, sup0), Sup(innerLabel, sup1)
}
