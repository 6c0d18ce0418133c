package netkernel

// Application is strict only in its function position: the argument is
// left untouched until a rewrite actually consumes it, matching the
// language's call-by-need discipline.

func appVisit(ctx *RuleCtx, p Ptr) bool {
	base := p.Loc()
	fn := ctx.Heap.LoadPtr(base + 0)
	if fn.IsWHNF() {
		return false
	}
	contID := ctx.Bag.Insert(ctx.Tid, ctx.Host, ctx.Cont, 1)
	ctx.Cont = contID
	ctx.Host = base + 0
	return true
}

func appApply(ctx *RuleCtx, p Ptr) bool {
	base := p.Loc()
	fn := ctx.Heap.LoadPtr(base + 0)
	switch fn.Tag() {
	case TagLam:
		appLam(ctx, base, fn)
		return true
	case TagSup:
		appSup(ctx, base, fn)
		return true
	default:
		// fn is WHNF but not something APP can rewrite against (a
		// number or bare constructor applied as a function): stuck,
		// leave the node as-is.
		return false
	}
}

// appLam implements APP-LAM: (λx.body) a -> body[x := a].
func appLam(ctx *RuleCtx, appBase uint32, lam Ptr) {
	lamBase := lam.Loc()
	arg := ctx.Heap.LoadArg(appBase, 1)
	varSlot := lamBase + 0
	body := ctx.Heap.LoadArg(lamBase, 1)

	ctx.Heap.AtomicSubst(ctx.Tid, varSlot, arg)
	ctx.Heap.Link(ctx.Host, body)

	ctx.Heap.Free(ctx.Tid, appBase, 2)
	// lamBase+0 (the bind slot) stays allocated: it is the indirection
	// target for the at-most-one remaining Var occurrence of x inside
	// body, now holding arg directly. An unused binder leaks its slot,
	// same as any term a rewrite never visits again — out of scope per
	// spec.md §1 ("no GC beyond explicit slot freeing by rewrites").
	ctx.Heap.Free(ctx.Tid, lamBase+1, 1)
	ctx.Heap.IncCost(ctx.Tid)
}

// appSup implements APP-SUP: ({a b}^l c) -> {(a c0) (b c1)}^l, where
// c0/c1 are freshly duplicated halves of c under the same label l.
func appSup(ctx *RuleCtx, appBase uint32, sup Ptr) {
	label := sup.Ext()
	supBase := sup.Loc()
	a := ctx.Heap.LoadArg(supBase, 0)
	b := ctx.Heap.LoadArg(supBase, 1)
	c := ctx.Heap.LoadArg(appBase, 1)

	dupBase := allocDupNode(ctx, c)

	app0 := ctx.Heap.Alloc(ctx.Tid, 2)
	ctx.Heap.Link(app0+0, a)
	ctx.Heap.Link(app0+1, Dp0(label, dupBase))

	app1 := ctx.Heap.Alloc(ctx.Tid, 2)
	ctx.Heap.Link(app1+0, b)
	ctx.Heap.Link(app1+1, Dp1(label, dupBase))

	resBase := ctx.Heap.Alloc(ctx.Tid, 2)
	ctx.Heap.Link(resBase+0, App(app0))
	ctx.Heap.Link(resBase+1, App(app1))

	ctx.Heap.Link(ctx.Host, Sup(label, resBase))

	ctx.Heap.Free(ctx.Tid, supBase, 2)
	ctx.Heap.Free(ctx.Tid, appBase, 2)
	ctx.Heap.IncCost(ctx.Tid)
}
