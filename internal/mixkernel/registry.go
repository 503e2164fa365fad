// Package mixkernel holds the accumulate kernels every mix path funnels
// through, selected once per process for the running CPU.
package mixkernel

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// MixFn accumulates src*gain into dst. scratch has at least ChunkSize
// elements and may be clobbered.
type MixFn func(dst, src, scratch []float64, gain float64)

// Entry is one registered kernel implementation.
type Entry struct {
	Name      string
	SIMDLevel cpu.SIMDLevel
	Priority  int
	Mix       MixFn
}

// Registry stores available implementations.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	sorted  bool
}

// Global is the registry consulted by [Selected].
var Global = &Registry{}

// Register adds an implementation entry.
func (r *Registry) Register(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority implementation supported by features.
func (r *Registry) Lookup(features cpu.Features) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.sorted {
		// Stable insertion sort, highest priority first.
		for i := 1; i < len(r.entries); i++ {
			key := r.entries[i]
			j := i - 1
			for j >= 0 && r.entries[j].Priority < key.Priority {
				r.entries[j+1] = r.entries[j]
				j--
			}
			r.entries[j+1] = key
		}
		r.sorted = true
	}

	for i := range r.entries {
		if cpu.Supports(features, r.entries[i].SIMDLevel) {
			entry := r.entries[i]
			return &entry
		}
	}

	return nil
}

// Entries returns a copy of the registered entries.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

var (
	selected     *Entry
	selectedOnce sync.Once
)

// Selected returns the kernel chosen for this CPU.
func Selected() *Entry {
	selectedOnce.Do(func() {
		selected = Global.Lookup(cpu.DetectFeatures())
		if selected == nil {
			panic("mixkernel: no kernel registered (missing generic fallback?)")
		}
	})
	return selected
}
