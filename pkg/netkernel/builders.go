package netkernel

// NewDup allocates a fresh duplication node over payload under the
// given label and returns its two projector pointers. Building a
// duplication node is otherwise an internal rewrite-time operation
// (allocDupNode); this wrapper is the one entry point callers seeding
// an initial graph — a demo, a test, or a future front-end — need to
// express a literal `dup a b = payload; ...` construct.
func NewDup(h *Heap, tid int, label int32, payload Ptr) (dp0, dp1 Ptr) {
	base := allocDupNode(&RuleCtx{Heap: h, Tid: tid}, payload)
	return Dp0(label, base), Dp1(label, base)
}

// NewLam allocates a fresh lambda node whose single bound-variable
// occurrence is supplied by calling bodyOf with the variable's own
// pointer. This keeps the binder-slot self-reference invariant (an
// unsubstituted binder slot holds Var(itself)) in one place rather
// than in every call site that builds a literal λ-term.
func NewLam(h *Heap, tid int, bodyOf func(x Ptr) Ptr) Ptr {
	base := h.Alloc(tid, 2)
	h.Link(base+0, Var(base+0))
	h.Link(base+1, bodyOf(Var(base+0)))
	return Lam(base)
}

// NewApp allocates a fresh application node over fn and arg.
func NewApp(h *Heap, tid int, fn, arg Ptr) Ptr {
	base := h.Alloc(tid, 2)
	h.Link(base+0, fn)
	h.Link(base+1, arg)
	return App(base)
}

// NewSup allocates a fresh superposition node over left and right.
func NewSup(h *Heap, tid int, label int32, left, right Ptr) Ptr {
	base := h.Alloc(tid, 2)
	h.Link(base+0, left)
	h.Link(base+1, right)
	return Sup(label, base)
}

// NewOp2 allocates a fresh binary-operator node.
func NewOp2(h *Heap, tid int, op int32, left, right Ptr) Ptr {
	base := h.Alloc(tid, 2)
	h.Link(base+0, left)
	h.Link(base+1, right)
	return Op2(op, base)
}

// NewCtr allocates a fresh data-constructor node with the given
// arguments, registering its arity in prog if not already present.
func NewCtr(h *Heap, prog *Program, tid int, ctorID int32, args ...Ptr) Ptr {
	if _, ok := prog.CtorArity[ctorID]; !ok {
		prog.CtorArity[ctorID] = len(args)
	}
	if len(args) == 0 {
		return Ctr(ctorID, 0)
	}
	base := h.Alloc(tid, uint32(len(args)))
	for i, a := range args {
		h.Link(base+uint32(i), a)
	}
	return Ctr(ctorID, base)
}
