package netkernel

import (
	"context"
	"testing"
)

func TestReduceIdentity(t *testing.T) {
	for _, workers := range []int{1, 2, 4} {
		t.Run(workerLabel(workers), func(t *testing.T) {
			h := NewHeap(1<<10, workers)
			id := NewLam(h, 0, func(x Ptr) Ptr { return x })
			app := NewApp(h, 0, id, Num(42))
			root := h.Alloc(0, 1)
			h.Link(root, app)

			got, err := Reduce(context.Background(), NewProgram(), h, workers, root, false, false)
			if err != nil {
				t.Fatal(err)
			}
			if got != Num(42) {
				t.Errorf("(λx.x) 42 = %v, want Num(42)", got)
			}
		})
	}
}

func TestReduceDuplicateConstant(t *testing.T) {
	h := NewHeap(1<<10, 1)
	a, b := NewDup(h, 0, 1, Num(7))
	sum := NewOp2(h, 0, OpAdd, a, b)
	root := h.Alloc(0, 1)
	h.Link(root, sum)

	got, err := Reduce(context.Background(), NewProgram(), h, 1, root, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != Num(14) {
		t.Errorf("dup a b = 7; (+ a b) = %v, want Num(14)", got)
	}
}

func TestReduceSharingThroughDuplication(t *testing.T) {
	h := NewHeap(1<<10, 1)
	id := NewLam(h, 0, func(x Ptr) Ptr { return x })
	payload := NewApp(h, 0, id, Num(5))
	a, b := NewDup(h, 0, 1, payload)
	sum := NewOp2(h, 0, OpAdd, a, b)
	root := h.Alloc(0, 1)
	h.Link(root, sum)

	got, err := Reduce(context.Background(), NewProgram(), h, 1, root, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != Num(10) {
		t.Errorf("dup a b = ((λx.x) 5); (+ a b) = %v, want Num(10)", got)
	}
	// One APP-LAM, two DP projections (one per occurrence resolving),
	// and one OP2 — four rewrites total.
	if cost := h.GetCost(); cost != 4 {
		t.Errorf("GetCost() = %d, want 4 (1 APP-LAM + 2 DP projections + 1 OP2)", cost)
	}
}

func TestNormalizeAppSupInteraction(t *testing.T) {
	h := NewHeap(1<<10, 1)
	id1 := NewLam(h, 0, func(x Ptr) Ptr { return x })
	id2 := NewLam(h, 0, func(x Ptr) Ptr { return x })
	sup := NewSup(h, 0, 1, id1, id2)
	app := NewApp(h, 0, sup, Num(9))
	root := h.Alloc(0, 1)
	h.Link(root, app)

	got, err := Normalize(context.Background(), NewProgram(), h, 1, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tag() != TagSup || got.Ext() != 1 {
		t.Fatalf("({λx.x λy.y}^1 9) = %v, want a SUP with label 1", got)
	}
	base := got.Loc()
	if l, r := h.LoadPtr(base+0), h.LoadPtr(base+1); l != Num(9) || r != Num(9) {
		t.Errorf("SUP children = (%v, %v), want (Num(9), Num(9))", l, r)
	}
}

func TestNormalizeConstructorArity(t *testing.T) {
	const pairCtor int32 = 0
	h := NewHeap(1<<10, 1)
	prog := NewProgram()
	left := NewOp2(h, 0, OpAdd, Num(1), Num(2))
	right := NewOp2(h, 0, OpAdd, Num(3), Num(4))
	pair := NewCtr(h, prog, 0, pairCtor, left, right)
	root := h.Alloc(0, 1)
	h.Link(root, pair)

	got, err := Normalize(context.Background(), prog, h, 1, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tag() != TagCtr || got.Ext() != pairCtor {
		t.Fatalf("Pair (1+2) (3+4) = %v, want CTR(pairCtor)", got)
	}
	base := got.Loc()
	if l, r := h.LoadPtr(base+0), h.LoadPtr(base+1); l != Num(3) || r != Num(7) {
		t.Errorf("Pair children = (%v, %v), want (Num(3), Num(7))", l, r)
	}
}

func TestNormalizeWorkStealingUsesEveryWorker(t *testing.T) {
	const busyCtor int32 = 1
	const workers = 4
	const children = 8

	h := NewHeap(1<<20, workers)
	prog := NewProgram()
	args := make([]Ptr, children)
	for i := 0; i < children; i++ {
		args[i] = buildHeavySumForTest(h, 0, int32(150+i*11))
	}
	busy := NewCtr(h, prog, 0, busyCtor, args...)
	root := h.Alloc(0, 1)
	h.Link(root, busy)

	if _, err := Normalize(context.Background(), prog, h, workers, root, false); err != nil {
		t.Fatal(err)
	}

	for tid := 0; tid < workers; tid++ {
		if h.WorkerCost(tid) == 0 {
			t.Errorf("worker %d performed zero rewrites; expected every worker to do at least one", tid)
		}
	}
}

func TestReduceWithOneWorkerMatchesFourWorkers(t *testing.T) {
	build := func(workers int) (*Program, *Heap, uint32) {
		h := NewHeap(1<<12, workers)
		prog := NewProgram()
		left := NewOp2(h, 0, OpAdd, Num(1), Num(2))
		right := NewOp2(h, 0, OpMul, Num(3), Num(4))
		sum := NewOp2(h, 0, OpAdd, left, right)
		root := h.Alloc(0, 1)
		h.Link(root, sum)
		return prog, h, root
	}

	prog1, h1, root1 := build(1)
	got1, err := Reduce(context.Background(), prog1, h1, 1, root1, false, false)
	if err != nil {
		t.Fatal(err)
	}

	prog4, h4, root4 := build(4)
	got4, err := Reduce(context.Background(), prog4, h4, 4, root4, false, false)
	if err != nil {
		t.Fatal(err)
	}

	if got1 != got4 {
		t.Errorf("workers=1 gave %v, workers=4 gave %v; expected the same result", got1, got4)
	}
	if got1 != Num(15) {
		t.Errorf("(1+2) + (3*4) = %v, want Num(15)", got1)
	}
}

func buildHeavySumForTest(h *Heap, tid int, n int32) Ptr {
	if n <= 1 {
		return Num(n)
	}
	return NewOp2(h, tid, OpAdd, Num(n), buildHeavySumForTest(h, tid, n-1))
}

func workerLabel(n int) string {
	switch n {
	case 1:
		return "workers=1"
	case 2:
		return "workers=2"
	default:
		return "workers=4"
	}
}
