package snapshot

import (
	"sync"
	"testing"
)

func TestCellLatestWriteWins(t *testing.T) {
	p, _ := NewPool[int](4)
	var c Cell

	h1, v1, _, _ := p.Acquire()
	*v1 = 1
	if old := c.Publish(h1); old != 0 {
		t.Fatalf("first publish replaced %v", old)
	}

	h2, v2, _, _ := p.Acquire()
	*v2 = 2
	old := c.Publish(h2)
	if old != h1 {
		t.Fatalf("second publish replaced %v, want %v", old, h1)
	}
	p.Release(old)

	if !c.Pending() {
		t.Fatal("expected pending handle")
	}
	got := c.Take()
	if got != h2 || *p.Get(got) != 2 {
		t.Fatalf("Take = %v", got)
	}
	if c.Take() != 0 || c.Pending() {
		t.Fatal("cell should be empty after Take")
	}
}

// A single producer publishes increasing values while the consumer takes
// them. The consumer must only ever observe increasing values, the final
// value must arrive, and no record may leak.
func TestCellConcurrentSingleWriter(t *testing.T) {
	const n = 50000

	p, _ := NewPool[int](8)
	var c Cell
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		var current Handle
		last := -1
		for {
			h := c.Take()
			if h == 0 {
				select {
				case <-done:
					if h = c.Take(); h == 0 {
						if current != 0 {
							if v := *p.Get(current); v != n-1 {
								t.Errorf("final value %d, want %d", v, n-1)
							}
							p.Release(current)
						}
						return
					}
				default:
					continue
				}
			}

			v := *p.Get(h)
			if v <= last {
				t.Errorf("value went backwards: %d after %d", v, last)
				return
			}
			last = v
			if current != 0 {
				p.Release(current)
			}
			current = h
		}
	}()

	for i := range n {
		h, v, _, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		*v = i
		if old := c.Publish(h); old != 0 {
			p.Release(old)
		}
	}
	close(done)
	wg.Wait()

	if p.Free() != p.Cap() {
		t.Fatalf("leaked records: free=%d cap=%d", p.Free(), p.Cap())
	}
}
