package netkernel

// Binary operator ids, stored in a Ptr's ext field for TagOp2 nodes.
const (
	OpAdd int32 = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpLt
	OpGt
)

// OP2 is strict in both operands; visit reduces whichever is not yet
// WHNF, publishing a two-child continuation and pushing the sibling
// for another worker to steal when both are outstanding.
func op2Visit(ctx *RuleCtx, p Ptr) bool {
	base := p.Loc()
	left := ctx.Heap.LoadArg(base, 0)
	right := ctx.Heap.LoadArg(base, 1)

	needLeft := !left.IsWHNF()
	needRight := !right.IsWHNF()
	if !needLeft && !needRight {
		return false
	}

	if needLeft && needRight {
		contID := ctx.Bag.Insert(ctx.Tid, ctx.Host, ctx.Cont, 2)
		_ = ctx.Deque.Push(VisitEntry{Host: base + 1, Cont: contID})
		ctx.Cont = contID
		ctx.Host = base + 0
		return true
	}

	contID := ctx.Bag.Insert(ctx.Tid, ctx.Host, ctx.Cont, 1)
	ctx.Cont = contID
	if needLeft {
		ctx.Host = base + 0
	} else {
		ctx.Host = base + 1
	}
	return true
}

func op2Apply(ctx *RuleCtx, p Ptr) bool {
	base := p.Loc()
	left := ctx.Heap.LoadArg(base, 0)
	right := ctx.Heap.LoadArg(base, 1)
	if left.Tag() != TagNum || right.Tag() != TagNum {
		return false // stuck: non-numeric operand, leave as-is
	}

	result := applyOp(p.Ext(), left.Ext(), right.Ext())
	ctx.Heap.Link(ctx.Host, Num(result))
	ctx.Heap.Free(ctx.Tid, base, 2)
	ctx.Heap.IncCost(ctx.Tid)
	return true
}

func applyOp(op, a, b int32) int32 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpMod:
		return a % b
	case OpEq:
		return boolToNum(a == b)
	case OpLt:
		return boolToNum(a < b)
	case OpGt:
		return boolToNum(a > b)
	default:
		return 0
	}
}

func boolToNum(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
