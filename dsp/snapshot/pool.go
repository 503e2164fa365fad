package snapshot

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	chunkBits = 6
	chunkSize = 1 << chunkBits
	maxChunks = 1024

	// MaxPoolItems is the hard capacity of a Pool.
	MaxPoolItems = chunkSize * maxChunks
)

// ErrExhausted is returned when a pool has reached MaxPoolItems.
var ErrExhausted = errors.New("snapshot: pool exhausted")

// Handle identifies one pool item. The low 32 bits hold index+1 (so the
// zero Handle is never valid), the high 32 bits the item generation at the
// time it was acquired.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) slot() uint32 { return uint32(h) }
func (h Handle) gen() uint32  { return uint32(h >> 32) }

// Valid reports whether h is non-zero. A valid handle may still be stale.
func (h Handle) Valid() bool { return h.slot() != 0 }

func (h Handle) String() string {
	if !h.Valid() {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d@%d)", h.slot()-1, h.gen())
}

type item[T any] struct {
	value T
	gen   atomic.Uint32
	// next links free items: index+1 of the next free item, 0 at the end.
	next atomic.Uint32
}

type chunk[T any] [chunkSize]item[T]

// Pool is a generational arena of T values.
//
// Acquire is meant for control goroutines and may grow the pool; Get and
// Release never allocate, never block and may be called from the audio
// goroutine.
type Pool[T any] struct {
	chunks  [maxChunks]atomic.Pointer[chunk[T]]
	nchunks atomic.Int32

	// head is the Treiber free-list head: tag<<32 | index+1. The tag is
	// bumped on every change so a stale compare-and-swap fails.
	head atomic.Uint64
	free atomic.Int64

	growMu sync.Mutex
}

// NewPool returns a pool with room for at least capacity items.
func NewPool[T any](capacity int) (*Pool[T], error) {
	if capacity < 0 || capacity > MaxPoolItems {
		return nil, fmt.Errorf("snapshot: pool capacity must be in [0, %d]: %d", MaxPoolItems, capacity)
	}

	p := &Pool[T]{}
	for p.Cap() < capacity {
		idx, err := p.grow()
		if err != nil {
			return nil, err
		}
		p.push(idx)
	}

	return p, nil
}

// Cap returns the number of items the pool currently owns.
func (p *Pool[T]) Cap() int {
	return int(p.nchunks.Load()) * chunkSize
}

// Free returns the number of items on the free list.
func (p *Pool[T]) Free() int {
	return int(p.free.Load())
}

// Acquire takes an item from the free list, growing the pool when the list
// is empty. grew reports that new storage had to be allocated.
func (p *Pool[T]) Acquire() (h Handle, value *T, grew bool, err error) {
	idx, ok := p.pop()
	if !ok {
		idx, err = p.grow()
		if err != nil {
			return 0, nil, false, err
		}
		grew = true
	}

	it := p.item(idx)
	return makeHandle(idx, it.gen.Load()), &it.value, grew, nil
}

// Get returns the value for h, or nil if h is zero or stale.
func (p *Pool[T]) Get(h Handle) *T {
	it := p.lookup(h)
	if it == nil {
		return nil
	}
	return &it.value
}

// Release returns the item behind h to the free list and invalidates every
// outstanding copy of h. It reports false for zero, stale or already
// released handles.
func (p *Pool[T]) Release(h Handle) bool {
	it := p.lookup(h)
	if it == nil {
		return false
	}
	if !it.gen.CompareAndSwap(h.gen(), h.gen()+1) {
		return false
	}

	p.push(h.slot() - 1)
	return true
}

func (p *Pool[T]) lookup(h Handle) *item[T] {
	if !h.Valid() {
		return nil
	}

	idx := h.slot() - 1
	c := idx >> chunkBits
	if c >= maxChunks {
		return nil
	}

	ch := p.chunks[c].Load()
	if ch == nil {
		return nil
	}

	it := &ch[idx&(chunkSize-1)]
	if it.gen.Load() != h.gen() {
		return nil
	}
	return it
}

func (p *Pool[T]) item(idx uint32) *item[T] {
	return &p.chunks[idx>>chunkBits].Load()[idx&(chunkSize-1)]
}

func (p *Pool[T]) pop() (uint32, bool) {
	for {
		old := p.head.Load()
		slot := uint32(old)
		if slot == 0 {
			return 0, false
		}

		next := p.item(slot - 1).next.Load()
		tag := old>>32 + 1
		if p.head.CompareAndSwap(old, tag<<32|uint64(next)) {
			p.free.Add(-1)
			return slot - 1, true
		}
	}
}

func (p *Pool[T]) push(idx uint32) {
	it := p.item(idx)
	for {
		old := p.head.Load()
		it.next.Store(uint32(old))
		tag := old>>32 + 1
		if p.head.CompareAndSwap(old, tag<<32|uint64(idx+1)) {
			p.free.Add(1)
			return
		}
	}
}

// grow publishes one more chunk, pushes all but its first item on the free
// list and returns the index of that first item.
func (p *Pool[T]) grow() (uint32, error) {
	p.growMu.Lock()
	defer p.growMu.Unlock()

	n := p.nchunks.Load()
	if n >= maxChunks {
		return 0, ErrExhausted
	}

	p.chunks[n].Store(new(chunk[T]))
	p.nchunks.Store(n + 1)

	first := uint32(n) * chunkSize
	for i := uint32(chunkSize - 1); i >= 1; i-- {
		p.push(first + i)
	}

	return first, nil
}
