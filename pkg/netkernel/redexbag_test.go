package netkernel

import (
	"sync"
	"testing"
)

func TestRedexBagSingleChildCompletesImmediately(t *testing.T) {
	b := NewRedexBag(1)
	id := b.Insert(0, 7, RootCont, 1)

	host, cont, ok := b.Complete(id)
	if !ok {
		t.Fatal("expected Complete to succeed on the only outstanding child")
	}
	if host != 7 || cont != RootCont {
		t.Errorf("Complete() = (%d, %d), want (7, RootCont)", host, cont)
	}
}

func TestRedexBagTwoChildrenOnlyLastCompletes(t *testing.T) {
	b := NewRedexBag(1)
	id := b.Insert(0, 3, RootCont, 2)

	if _, _, ok := b.Complete(id); ok {
		t.Error("expected first Complete of two to report ok=false")
	}
	host, cont, ok := b.Complete(id)
	if !ok {
		t.Fatal("expected second Complete to finish the record")
	}
	if host != 3 || cont != RootCont {
		t.Errorf("Complete() = (%d, %d), want (3, RootCont)", host, cont)
	}
}

func TestRedexBagCompleteUnknownIDFails(t *testing.T) {
	b := NewRedexBag(1)
	if _, _, ok := b.Complete(12345); ok {
		t.Error("expected Complete on an unknown id to report ok=false")
	}
}

func TestRedexBagConcurrentCompletionIsExactlyOnce(t *testing.T) {
	b := NewRedexBag(4)
	const children = 50
	id := b.Insert(0, 1, RootCont, children)

	var completions int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < children; i++ {
		tid := i % 4
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			if _, _, ok := b.Complete(id); ok {
				mu.Lock()
				completions++
				mu.Unlock()
			}
		}(tid)
	}
	wg.Wait()

	if completions != 1 {
		t.Errorf("expected exactly one winning Complete, got %d", completions)
	}
}

func TestRedexBagIDsFromDistinctWorkersDontCollide(t *testing.T) {
	b := NewRedexBag(4)
	ids := make(map[uint64]bool)
	for tid := 0; tid < 4; tid++ {
		for i := 0; i < 10; i++ {
			id := b.Insert(tid, uint32(tid), RootCont, 1)
			if ids[id] {
				t.Fatalf("duplicate continuation id %d", id)
			}
			ids[id] = true
		}
	}
}
