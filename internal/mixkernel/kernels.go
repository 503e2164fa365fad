package mixkernel

import (
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/algo-vecmath/cpu"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
)

// ChunkSize is the scratch length kernels may rely on.
const ChunkSize = core.BufferSize

func init() {
	Global.Register(Entry{
		Name:      "generic",
		SIMDLevel: cpu.SIMDNone,
		Priority:  0,
		Mix:       mixGeneric,
	})
}

func mixGeneric(dst, src, _ []float64, gain float64) {
	n := min(len(dst), len(src))
	dst = dst[:n]
	for i, x := range src[:n] {
		dst[i] += x * gain
	}
}

// mixVector scales into scratch and adds the result, one chunk at a time.
func mixVector(dst, src, scratch []float64, gain float64) {
	n := min(len(dst), len(src))
	for base := 0; base < n; base += ChunkSize {
		td := min(ChunkSize, n-base)
		tmp := scratch[:td]
		vecmath.ScaleBlock(tmp, src[base:base+td], gain)
		vecmath.AddBlockInPlace(dst[base:base+td], tmp)
	}
}

// Ramp accumulates src*gain into dst while gain moves by step per sample,
// and returns the gain reached after the last sample.
func Ramp(dst, src []float64, gain, step float64) float64 {
	n := min(len(dst), len(src))
	dst = dst[:n]
	for i, x := range src[:n] {
		dst[i] += x * gain
		gain += step
	}
	return gain
}
