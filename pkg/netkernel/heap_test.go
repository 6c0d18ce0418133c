package netkernel

import (
	"sync"
	"testing"
)

func TestAllocIsContiguousAndBumps(t *testing.T) {
	h := NewHeap(64, 1)
	a := h.Alloc(0, 3)
	b := h.Alloc(0, 2)
	if b != a+3 {
		t.Errorf("second alloc base = %d, want %d", b, a+3)
	}
}

func TestFreeListIsReusedByOwner(t *testing.T) {
	h := NewHeap(64, 1)
	a := h.Alloc(0, 2)
	h.Free(0, a, 2)
	b := h.Alloc(0, 2)
	if b != a {
		t.Errorf("expected freelist reuse to return base %d, got %d", a, b)
	}
}

func TestAllocPanicsWhenExhausted(t *testing.T) {
	h := NewHeap(4, 1)
	h.Alloc(0, 4)
	defer func() {
		if recover() == nil {
			t.Error("expected Alloc to panic once capacity is exhausted")
		}
	}()
	h.Alloc(0, 1)
}

func TestLinkAndLoadPtr(t *testing.T) {
	h := NewHeap(8, 1)
	slot := h.Alloc(0, 1)
	h.Link(slot, Num(99))
	if got := h.LoadPtr(slot); got != Num(99) {
		t.Errorf("LoadPtr = %v, want Num(99)", got)
	}
}

func TestLoadPtrChasesSubstitutedVariable(t *testing.T) {
	h := NewHeap(8, 1)
	binder := h.Alloc(0, 1)
	h.Link(binder, Var(binder)) // unsubstituted: self-referential sentinel

	occurrence := h.Alloc(0, 1)
	h.Link(occurrence, Var(binder))

	if got := h.LoadPtr(occurrence); got != Var(binder) {
		t.Errorf("unsubstituted occurrence should chase to the sentinel itself, got %v", got)
	}

	h.AtomicSubst(0, binder, Num(5))
	if got := h.LoadPtr(occurrence); got != Num(5) {
		t.Errorf("LoadPtr(occurrence) after subst = %v, want Num(5)", got)
	}
	if got := h.LoadPtr(binder); got != Num(5) {
		t.Errorf("LoadPtr(binder) after subst = %v, want Num(5)", got)
	}
}

func TestTakeArgClearsAndChases(t *testing.T) {
	h := NewHeap(8, 1)
	slot := h.Alloc(0, 1)
	h.Link(slot, Num(3))
	if got := h.TakeArg(slot); got != Num(3) {
		t.Errorf("TakeArg = %v, want Num(3)", got)
	}
	if got := h.LoadPtr(slot); got != Era {
		t.Errorf("slot after TakeArg = %v, want Era", got)
	}
}

func TestAcquireLockContention(t *testing.T) {
	h := NewHeap(8, 2)
	slot := h.Alloc(0, 1)
	if err := h.AcquireLock(0, slot); err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}
	if err := h.AcquireLock(1, slot); err == nil {
		t.Fatal("expected second AcquireLock to fail while held")
	}
	h.ReleaseLock(0, slot)
	if err := h.AcquireLock(1, slot); err != nil {
		t.Errorf("AcquireLock after release failed: %v", err)
	}
}

func TestReleaseLockIsNotOwnerRestricted(t *testing.T) {
	// A DUP node's lock may be released by a different worker than the
	// one that acquired it, since the continuation resuming its apply
	// step can land on any worker.
	h := NewHeap(8, 2)
	slot := h.Alloc(0, 1)
	if err := h.AcquireLock(0, slot); err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	h.ReleaseLock(1, slot)
	if err := h.AcquireLock(1, slot); err != nil {
		t.Errorf("expected lock to be free after a cross-worker release, got: %v", err)
	}
}

func TestCostCounters(t *testing.T) {
	h := NewHeap(8, 2)
	var wg sync.WaitGroup
	for tid := 0; tid < 2; tid++ {
		tid := tid
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h.IncCost(tid)
			}
		}()
	}
	wg.Wait()
	if h.GetCost() != 200 {
		t.Errorf("GetCost() = %d, want 200", h.GetCost())
	}
	if h.WorkerCost(0) != 100 || h.WorkerCost(1) != 100 {
		t.Errorf("WorkerCost = (%d, %d), want (100, 100)", h.WorkerCost(0), h.WorkerCost(1))
	}
}
