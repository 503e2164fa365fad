package device

import (
	"sync/atomic"
	"unsafe"
)

// puller adapts a renderer to the io.Reader oto pulls float32 frames from.
type puller struct {
	r        atomic.Pointer[Renderer]
	channels int
	buf      []float32
}

func (p *puller) attach(r Renderer) {
	p.channels = r.Channels()
	p.buf = make([]float32, r.MaxBlockSize()*p.channels)
	p.r.Store(&r)
}

func (p *puller) detach() { p.r.Store(nil) }

// Read fills b with little-endian float32 frames. Without a renderer, or
// for a trailing partial frame, it writes silence.
func (p *puller) Read(b []byte) (int, error) {
	rp := p.r.Load()
	if rp == nil {
		clear(b)
		return len(b), nil
	}
	r := *rp

	frameBytes := 4 * p.channels
	frames := len(b) / frameBytes
	done := 0
	for done < frames {
		n := min(frames-done, len(p.buf)/p.channels)
		samples := p.buf[:n*p.channels]
		r.ProcessInterleaved(samples)

		raw := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*4)
		copy(b[done*frameBytes:], raw)
		done += n
	}
	clear(b[frames*frameBytes:])
	return len(b), nil
}
