package effects

import (
	"math"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
)

// Carrier phase is a 24-bit fixed-point fraction of one period.
const (
	WaveformFracBits = 24
	WaveformFracOne  = 1 << WaveformFracBits
	WaveformFracMask = WaveformFracOne - 1
)

// RingModulator multiplies each high-passed input channel by a unipolar
// carrier and decodes the first-order result into the dry mix.
type RingModulator struct {
	index    int
	step     int
	waveform Waveform

	filters [MaxEffectChannels]biquad.Filter
	gains   [MaxEffectChannels]pan.Gains
}

// NewRingModulator returns a modulator that needs Update before use.
func NewRingModulator() *RingModulator {
	return &RingModulator{step: 1}
}

func (m *RingModulator) DeviceUpdate(*Device) {
	for i := range m.filters {
		m.filters[i].Clear()
	}
}

func (m *RingModulator) Update(dev *Device, slot SlotParams, props *Props) {
	p := props.Modulator
	m.waveform = p.Waveform

	m.step = int(p.Frequency * WaveformFracOne / dev.SampleRate)
	if m.step == 0 {
		m.step = 1
	}

	// One-pole high-pass in biquad form.
	cw := math.Cos(2 * math.Pi * p.HighPassCutoff / dev.SampleRate)
	a := (2 - cw) - math.Sqrt((2-cw)*(2-cw)-1)
	coeffs := biquad.Coefficients{B0: a, B1: -a, A1: -a}

	for i := range MaxEffectChannels {
		m.filters[i].SetCoefficients(coeffs)
		m.gains[i] = pan.ComputeFirstOrderGains(&dev.Dry, pan.IdentityRow(i), slot.Gain)
	}
}

func (m *RingModulator) Process(n int, in, out [][]float64) {
	channels := min(len(out), pan.MaxOutputChannels)
	inputs := min(len(in), MaxEffectChannels)

	for base := 0; base < n; {
		var filtered, modulated [core.BufferSize]float64
		td := min(core.BufferSize, n-base)

		for j := range inputs {
			m.filters[j].Process(filtered[:td], in[j][base:base+td])
			m.modulate(modulated[:td], filtered[:td])

			for c := range channels {
				gain := m.gains[j][c]
				if !core.Audible(gain) {
					continue
				}
				dst := out[c][base : base+td]
				for i := range dst {
					dst[i] += modulated[i] * gain
				}
			}
		}

		m.index = (m.index + td*m.step) & WaveformFracMask
		base += td
	}
}

// modulate applies the carrier starting from the current index without
// advancing it, so every channel of a chunk sees the same phase.
func (m *RingModulator) modulate(dst, src []float64) {
	index := m.index
	step := m.step

	switch m.waveform {
	case Sawtooth:
		for i, x := range src {
			index = (index + step) & WaveformFracMask
			dst[i] = x * sawWave(index)
		}
	case Square:
		for i, x := range src {
			index = (index + step) & WaveformFracMask
			dst[i] = x * squareWave(index)
		}
	default:
		for i, x := range src {
			index = (index + step) & WaveformFracMask
			dst[i] = x * sinWave(index)
		}
	}
}

func sinWave(index int) float64 {
	return math.Sin(float64(index)*(2*math.Pi/WaveformFracOne)-math.Pi)*0.5 + 0.5
}

func sawWave(index int) float64 {
	return float64(index) / WaveformFracOne
}

func squareWave(index int) float64 {
	return float64((index >> (WaveformFracBits - 1)) & 1)
}

// Carrier returns the carrier value of waveform w at phase index.
func Carrier(w Waveform, index int) float64 {
	switch w {
	case Sawtooth:
		return sawWave(index & WaveformFracMask)
	case Square:
		return squareWave(index & WaveformFracMask)
	default:
		return sinWave(index & WaveformFracMask)
	}
}

// Phase returns the carrier phase index.
func (m *RingModulator) Phase() int { return m.index }

// Step returns the phase increment per sample.
func (m *RingModulator) Step() int { return m.step }

func (m *RingModulator) Output() pan.Output { return pan.OutputDry }

func (*RingModulator) sealed() {}
