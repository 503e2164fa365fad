package pan

import (
	"math"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
)

// MaxOutputChannels is the widest output a mix path can address.
const MaxOutputChannels = 16

// Gains holds one gain per output channel.
type Gains [MaxOutputChannels]float64

// ChannelConfig is one decoder matrix row: the weight of every ambisonic
// coefficient for a single output channel.
type ChannelConfig [MaxAmbiCoeffs]float64

// BFChannelConfig maps an output channel to one scaled ambisonic channel.
type BFChannelConfig struct {
	Scale float64
	Index int
}

// MixParams describes how ambisonic coefficients reach a set of output
// buffers. Exactly one of Coeffs (matrix mode) or Map (channel-map mode) is
// set.
type MixParams struct {
	Coeffs     []ChannelConfig
	CoeffCount int
	Map        []BFChannelConfig

	NumChannels int
}

// MatrixMode reports whether p decodes through a coefficient matrix.
func (p *MixParams) MatrixMode() bool {
	return p.Coeffs != nil
}

// Output selects which device buffer set a mix path writes.
type Output int

const (
	// OutputDry is the panned main mix.
	OutputDry Output = iota
	// OutputRealOut addresses physical channels of the device directly.
	OutputRealOut
)

func (o Output) String() string {
	if o == OutputRealOut {
		return "real-out"
	}
	return "dry"
}

// ComputePanningGains returns the per-channel gains for coeffs scaled by
// gain. In matrix mode each gain is the row dot product limited to [0, 1];
// in channel-map mode it is the mapped coefficient and may be negative.
// Every result is bounded by [core.GainMixMax] in magnitude.
func ComputePanningGains(p *MixParams, coeffs *Coeffs, gain float64) Gains {
	var out Gains

	if p.MatrixMode() {
		n := min(p.NumChannels, len(p.Coeffs), MaxOutputChannels)
		count := min(p.CoeffCount, MaxAmbiCoeffs)
		for c := range n {
			row := &p.Coeffs[c]
			sum := 0.0
			for j := range count {
				sum += row[j] * coeffs[j]
			}
			out[c] = limit(core.Clamp(sum, 0, 1) * gain)
		}
		return out
	}

	n := min(p.NumChannels, len(p.Map), MaxOutputChannels)
	for c := range n {
		m := p.Map[c]
		out[c] = limit(m.Scale * coeffs[m.Index] * gain)
	}

	return out
}

// ComputeFirstOrderGains returns gains for a first-order B-Format input
// described by one row of a 4x4 transform matrix (W, Y, Z, X weights).
func ComputeFirstOrderGains(p *MixParams, mtx [MaxFirstOrderCoeffs]float64, gain float64) Gains {
	var out Gains

	if p.MatrixMode() {
		n := min(p.NumChannels, len(p.Coeffs), MaxOutputChannels)
		for c := range n {
			row := &p.Coeffs[c]
			sum := 0.0
			for j := range MaxFirstOrderCoeffs {
				sum += row[j] * mtx[j]
			}
			out[c] = limit(sum * gain)
		}
		return out
	}

	n := min(p.NumChannels, len(p.Map), MaxOutputChannels)
	for c := range n {
		m := p.Map[c]
		if m.Index < MaxFirstOrderCoeffs {
			out[c] = limit(m.Scale * mtx[m.Index] * gain)
		}
	}

	return out
}

// ComputeAmbientGains returns gains for an omnidirectional signal.
func ComputeAmbientGains(p *MixParams, gain float64) Gains {
	var omni Coeffs
	omni[0] = 1

	return ComputePanningGains(p, &omni, gain)
}

// IdentityRow returns row i of the 4x4 identity matrix.
func IdentityRow(i int) [MaxFirstOrderCoeffs]float64 {
	var row [MaxFirstOrderCoeffs]float64
	if i >= 0 && i < MaxFirstOrderCoeffs {
		row[i] = 1
	}
	return row
}

// Sum returns the sum of the first n gains.
func (g *Gains) Sum(n int) float64 {
	s := 0.0
	for _, v := range g[:min(n, MaxOutputChannels)] {
		s += v
	}
	return s
}

func limit(g float64) float64 {
	if math.IsNaN(g) {
		return 0
	}
	return core.Clamp(g, -core.GainMixMax, core.GainMixMax)
}
