package effects

import (
	"math"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/delay"
	"github.com/cwbudde/algo-spatialmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
)

// minEchoShelfGain limits damping to -24 dB at high frequencies.
const minEchoShelfGain = 0.0625

// Echo is a two-tap feedback delay. The second tap is fed back through a
// high-shelf damping filter; both raw taps are panned to opposite sides.
type Echo struct {
	line delay.Line

	tap1, tap2 int
	feedback   float64
	filter     biquad.Filter

	gains [2]pan.Gains
}

// NewEcho returns an echo that needs DeviceUpdate before use.
func NewEcho() *Echo {
	return &Echo{}
}

func (e *Echo) DeviceUpdate(dev *Device) {
	maxLen := int(EchoMaxDelay*dev.SampleRate) + 1
	maxLen += int(EchoMaxLRDelay*dev.SampleRate) + 1

	e.line.Resize(maxLen)
	e.filter.Clear()
}

func (e *Echo) Update(dev *Device, slot SlotParams, props *Props) {
	rate := dev.SampleRate
	p := props.Echo

	e.tap1 = int(p.Delay*rate) + 1
	e.tap2 = int(p.LRDelay*rate) + e.tap1

	lrpan := 1.0
	if p.Spread < 0 {
		lrpan = -1
	}
	spread := pan.EchoSpread(p.Spread)

	e.feedback = p.Feedback

	shelf := math.Max(1-p.Damping, minEchoShelfGain)
	e.filter.SetParams(biquad.HighShelf, shelf, core.LowPassFreqRef/rate, biquad.RcpQFromSlope(shelf, 1))

	left := pan.CalcAngleCoeffs(-math.Pi/2*lrpan, 0, spread)
	e.gains[0] = pan.ComputePanningGains(&dev.Dry, &left, slot.Gain)

	right := pan.CalcAngleCoeffs(math.Pi/2*lrpan, 0, spread)
	e.gains[1] = pan.ComputePanningGains(&dev.Dry, &right, slot.Gain)
}

func (e *Echo) Process(n int, in, out [][]float64) {
	src := in[0]
	channels := min(len(out), pan.MaxOutputChannels)

	for base := 0; base < n; {
		var taps [2][core.BufferSize]float64
		td := min(core.BufferSize, n-base)

		for i := range td {
			t1 := e.line.Tap(e.tap1)
			t2 := e.line.Tap(e.tap2)
			taps[0][i] = t1
			taps[1][i] = t2

			// Damp the second tap, mix in the new sample and feed it back.
			y := e.filter.ProcessSample(t2 + src[base+i])
			e.line.Write(y * e.feedback)
		}

		for c := range channels {
			dst := out[c][base : base+td]
			for t := range 2 {
				gain := e.gains[t][c]
				if !core.Audible(gain) {
					continue
				}
				for i := range dst {
					dst[i] += taps[t][i] * gain
				}
			}
		}

		base += td
	}
}

func (e *Echo) Output() pan.Output { return pan.OutputDry }

// Taps returns the two tap offsets in samples.
func (e *Echo) Taps() (tap1, tap2 int) { return e.tap1, e.tap2 }

// DelayLen returns the delay line length.
func (e *Echo) DelayLen() int { return e.line.Len() }

// Shelf returns the damping filter coefficients.
func (e *Echo) Shelf() biquad.Coefficients { return e.filter.Coefficients }

func (*Echo) sealed() {}
