package netkernel

// funVisit and funApply back both TagFun and TagCtr hosts: the program
// table is consulted by ext id regardless of tag, and a constructor id
// that was never registered in Program.Funs (the normal case — CTR
// needs no rewrite, it's already WHNF) naturally falls through to
// "missing, treat as WHNF" without any special-casing.

func funVisit(ctx *RuleCtx, p Ptr) bool {
	entry, ok := ctx.Prog.Funs[p.Ext()]
	if !ok {
		return false
	}
	return entry.rule().visit(ctx)
}

func funApply(ctx *RuleCtx, p Ptr) bool {
	entry, ok := ctx.Prog.Funs[p.Ext()]
	if !ok {
		return false
	}
	return entry.rule().apply(ctx)
}

// genericFunVisit implements the shared strict-argument traversal used
// by InterpretedRule.visit: reduce every strict argument position to
// WHNF before apply is attempted, publishing one continuation for
// however many positions are not yet WHNF and pushing all but one onto
// the visit queue for stealing.
func genericFunVisit(ctx *RuleCtx, strictIdx []int) bool {
	p := ctx.Heap.LoadPtr(ctx.Host)
	base := p.Loc()

	var pending []uint32
	for _, i := range strictIdx {
		arg := ctx.Heap.LoadArg(base, uint32(i))
		if !arg.IsWHNF() {
			pending = append(pending, base+uint32(i))
		}
	}
	if len(pending) == 0 {
		return false
	}

	contID := ctx.Bag.Insert(ctx.Tid, ctx.Host, ctx.Cont, int32(len(pending)))
	for _, slot := range pending[1:] {
		_ = ctx.Deque.Push(VisitEntry{Host: slot, Cont: contID})
	}
	ctx.Cont = contID
	ctx.Host = pending[0]
	return true
}
