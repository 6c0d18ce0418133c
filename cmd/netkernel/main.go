// Package main demonstrates the netkernel reduction core end to end.
package main

import (
	"context"
	"fmt"

	"github.com/gitrdm/netkernel/pkg/netkernel"
)

func main() {
	fmt.Println("=== netkernel Examples ===")
	fmt.Println()

	identity()
	duplicateConstant()
	sharingThroughDuplication()
	appSupInteraction()
	constructorArity()
	workStealing()
}

// identity reduces (λx.x) 42 to weak head normal form with 1 and then 4
// workers and prints the result of each run.
func identity() {
	fmt.Println("1. Identity:")

	build := func(h *netkernel.Heap) uint32 {
		id := netkernel.NewLam(h, 0, func(x netkernel.Ptr) netkernel.Ptr { return x })
		app := netkernel.NewApp(h, 0, id, netkernel.Num(42))
		root := h.Alloc(0, 1)
		h.Link(root, app)
		return root
	}

	for _, workers := range []int{1, 4} {
		h := netkernel.NewHeap(1<<10, workers)
		root := build(h)
		result, err := netkernel.Reduce(context.Background(), netkernel.NewProgram(), h, workers, root, false, false)
		if err != nil {
			fmt.Printf("   workers=%d error: %v\n", workers, err)
			continue
		}
		fmt.Printf("   (λx.x) 42, workers=%d => %v\n", workers, result)
	}
	fmt.Println()
}

// duplicateConstant builds `dup a b = 7; (+ a b)`, expecting 14: a
// duplication of an already-WHNF payload costs nothing but a copy.
func duplicateConstant() {
	fmt.Println("2. Duplication of a constant:")

	h := netkernel.NewHeap(1<<10, 1)
	a, b := netkernel.NewDup(h, 0, 1, netkernel.Num(7))
	sum := netkernel.NewOp2(h, 0, netkernel.OpAdd, a, b)
	root := h.Alloc(0, 1)
	h.Link(root, sum)

	result, err := netkernel.Reduce(context.Background(), netkernel.NewProgram(), h, 1, root, false, false)
	if err != nil {
		fmt.Printf("   error: %v\n", err)
	} else {
		fmt.Printf("   dup a b = 7; (+ a b) => %v\n", result)
	}
	fmt.Println()
}

// sharingThroughDuplication builds `dup a b = ((λx.x) 5); (+ a b)`,
// expecting 10: the shared payload is reduced once, to WHNF, before
// the duplication splits it between its two projectors.
func sharingThroughDuplication() {
	fmt.Println("3. Sharing through duplication:")

	h := netkernel.NewHeap(1<<10, 1)
	id := netkernel.NewLam(h, 0, func(x netkernel.Ptr) netkernel.Ptr { return x })
	payload := netkernel.NewApp(h, 0, id, netkernel.Num(5))
	a, b := netkernel.NewDup(h, 0, 1, payload)
	sum := netkernel.NewOp2(h, 0, netkernel.OpAdd, a, b)
	root := h.Alloc(0, 1)
	h.Link(root, sum)

	result, err := netkernel.Reduce(context.Background(), netkernel.NewProgram(), h, 1, root, false, false)
	if err != nil {
		fmt.Printf("   error: %v\n", err)
	} else {
		fmt.Printf("   dup a b = ((λx.x) 5); (+ a b) => %v\n", result)
	}
	fmt.Println()
}

// appSupInteraction builds ({λx.x λy.y}^l 9) and normalizes it fully,
// expecting {9 9}^l: applying a superposed function to an argument
// commutes the superposition out past the application.
func appSupInteraction() {
	fmt.Println("4. APP-SUP interaction:")

	h := netkernel.NewHeap(1<<10, 1)
	id1 := netkernel.NewLam(h, 0, func(x netkernel.Ptr) netkernel.Ptr { return x })
	id2 := netkernel.NewLam(h, 0, func(x netkernel.Ptr) netkernel.Ptr { return x })
	sup := netkernel.NewSup(h, 0, 1, id1, id2)
	app := netkernel.NewApp(h, 0, sup, netkernel.Num(9))
	root := h.Alloc(0, 1)
	h.Link(root, app)

	result, err := netkernel.Normalize(context.Background(), netkernel.NewProgram(), h, 1, root, false)
	if err != nil {
		fmt.Printf("   error: %v\n", err)
	} else {
		fmt.Printf("   ({λx.x λy.y}^1 9) => %v\n", result)
	}
	fmt.Println()
}

// constructorArity builds Pair (1+2) (3+4) and normalizes it fully,
// expecting its two children to settle to 3 and 7 independently.
func constructorArity() {
	fmt.Println("5. Constructor arity:")

	const pairCtor int32 = 0

	h := netkernel.NewHeap(1<<10, 1)
	prog := netkernel.NewProgram()
	left := netkernel.NewOp2(h, 0, netkernel.OpAdd, netkernel.Num(1), netkernel.Num(2))
	right := netkernel.NewOp2(h, 0, netkernel.OpAdd, netkernel.Num(3), netkernel.Num(4))
	pair := netkernel.NewCtr(h, prog, 0, pairCtor, left, right)
	root := h.Alloc(0, 1)
	h.Link(root, pair)

	result, err := netkernel.Normalize(context.Background(), prog, h, 1, root, false)
	if err != nil {
		fmt.Printf("   error: %v\n", err)
	} else {
		base := result.Loc()
		fmt.Printf("   Pair (1+2) (3+4) => %v, children = %v, %v\n",
			result, h.LoadPtr(base+0), h.LoadPtr(base+1))
	}
	fmt.Println()
}

// buildHeavySum builds a right-nested chain of n-1 binary additions
// (n + (n-1 + ... + 1)),
// giving a single constructor child enough independent rewrite work
// to make stealing it worthwhile.
func buildHeavySum(h *netkernel.Heap, tid int, n int32) netkernel.Ptr {
	if n <= 1 {
		return netkernel.Num(n)
	}
	return netkernel.NewOp2(h, tid, netkernel.OpAdd, netkernel.Num(n), buildHeavySum(h, tid, n-1))
}

// workStealing builds an 8-child constructor, each child a heavy
// addition chain, and normalizes it with 4 workers, reporting how many
// rewrites each worker performed.
func workStealing() {
	fmt.Println("6. Work stealing:")

	const busyCtor int32 = 1
	const workers = 4
	const children = 8

	h := netkernel.NewHeap(1<<20, workers)
	prog := netkernel.NewProgram()
	args := make([]netkernel.Ptr, children)
	for i := 0; i < children; i++ {
		args[i] = buildHeavySum(h, 0, int32(200+i*13))
	}
	busy := netkernel.NewCtr(h, prog, 0, busyCtor, args...)
	root := h.Alloc(0, 1)
	h.Link(root, busy)

	if _, err := netkernel.Normalize(context.Background(), prog, h, workers, root, false); err != nil {
		fmt.Printf("   error: %v\n", err)
		fmt.Println()
		return
	}

	total := uint64(0)
	for tid := 0; tid < workers; tid++ {
		c := h.WorkerCost(tid)
		total += c
		fmt.Printf("   worker %d performed %d rewrites\n", tid, c)
	}
	fmt.Printf("   total rewrites: %d\n", total)
	fmt.Println()
}
