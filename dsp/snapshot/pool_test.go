package snapshot

import (
	"sync"
	"testing"
)

func TestPoolAcquireRelease(t *testing.T) {
	p, err := NewPool[int](10)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if p.Cap() != chunkSize || p.Free() != chunkSize {
		t.Fatalf("cap=%d free=%d, want %d/%d", p.Cap(), p.Free(), chunkSize, chunkSize)
	}

	h, v, grew, err := p.Acquire()
	if err != nil || grew {
		t.Fatalf("Acquire: grew=%v err=%v", grew, err)
	}
	*v = 42

	if got := p.Get(h); got == nil || *got != 42 {
		t.Fatalf("Get = %v", got)
	}
	if !p.Release(h) {
		t.Fatal("Release failed")
	}
	if p.Get(h) != nil {
		t.Fatal("released handle still resolves")
	}
	if p.Release(h) {
		t.Fatal("double release succeeded")
	}

	h2, _, _, _ := p.Acquire()
	if h2.slot() != h.slot() {
		t.Fatalf("expected item reuse, got %v after %v", h2, h)
	}
	if h2 == h {
		t.Fatal("reused item kept the old generation")
	}
	if p.Get(h) != nil {
		t.Fatal("stale handle resolves after reuse")
	}
}

func TestPoolZeroHandle(t *testing.T) {
	p, _ := NewPool[int](0)
	if p.Get(0) != nil || p.Release(0) {
		t.Fatal("zero handle must never resolve")
	}
	if Handle(0).Valid() || Handle(0).String() != "handle(nil)" {
		t.Fatal("zero handle misreported")
	}
}

func TestPoolGrowth(t *testing.T) {
	p, _ := NewPool[[4]float64](0)
	if p.Cap() != 0 {
		t.Fatalf("cap = %d, want 0", p.Cap())
	}

	seen := make(map[Handle]bool)
	grows := 0
	for range 3*chunkSize + 1 {
		h, _, grew, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		if grew {
			grows++
		}
		if seen[h] {
			t.Fatalf("handle %v handed out twice", h)
		}
		seen[h] = true
	}

	if grows != 4 {
		t.Fatalf("grows = %d, want 4", grows)
	}
	if p.Cap() != 4*chunkSize {
		t.Fatalf("cap = %d, want %d", p.Cap(), 4*chunkSize)
	}
}

func TestPoolCapacityBounds(t *testing.T) {
	if _, err := NewPool[int](-1); err == nil {
		t.Fatal("expected error for negative capacity")
	}
	if _, err := NewPool[int](MaxPoolItems + 1); err == nil {
		t.Fatal("expected error for oversized capacity")
	}
}

func TestPoolConcurrentReleaseAcquire(t *testing.T) {
	p, _ := NewPool[int](256)

	handles := make(chan Handle, 256)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for h := range handles {
			if !p.Release(h) {
				t.Error("release failed")
				return
			}
		}
	}()

	for i := range 20000 {
		h, v, _, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		*v = i
		handles <- h
	}
	close(handles)
	wg.Wait()

	if p.Free() != p.Cap() {
		t.Fatalf("free=%d cap=%d after draining", p.Free(), p.Cap())
	}
}
