package mixkernel

// Mixer binds the selected kernel to its own scratch space. A Mixer is
// owned by a single goroutine.
type Mixer struct {
	mix     MixFn
	name    string
	scratch [ChunkSize]float64
}

// NewMixer returns a Mixer using the kernel selected for this CPU.
func NewMixer() *Mixer {
	e := Selected()
	return &Mixer{mix: e.Mix, name: e.Name}
}

// NewMixerWith returns a Mixer using a specific entry.
func NewMixerWith(e Entry) *Mixer {
	return &Mixer{mix: e.Mix, name: e.Name}
}

// Name returns the kernel name.
func (m *Mixer) Name() string {
	return m.name
}

// Mix accumulates src*gain into dst.
func (m *Mixer) Mix(dst, src []float64, gain float64) {
	m.mix(dst, src, m.scratch[:], gain)
}
