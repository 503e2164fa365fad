package snapshot

import "sync/atomic"

// Cell is a single-slot, latest-write-wins exchange of pool handles.
type Cell struct {
	v atomic.Uint64
}

// Publish installs h as the pending handle and returns the handle it
// replaced, which the caller must release.
func (c *Cell) Publish(h Handle) Handle {
	return Handle(c.v.Swap(uint64(h)))
}

// Take removes and returns the pending handle, or 0 if none is pending.
func (c *Cell) Take() Handle {
	if c.v.Load() == 0 {
		return 0
	}
	return Handle(c.v.Swap(0))
}

// Pending reports whether a handle is waiting to be taken.
func (c *Cell) Pending() bool {
	return c.v.Load() != 0
}
