package effects

import (
	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
)

// Dedicated routes the slot's mono input to one physical channel.
//
// For [TypeDedicatedLowFrequency] the signal goes to the LFE channel and is
// dropped when the layout has none. For [TypeDedicatedDialogue] it goes to
// the front-centre channel, or is panned straight ahead into the dry mix
// when the layout has no centre speaker.
type Dedicated struct {
	gains  pan.Gains
	output pan.Output
}

// NewDedicated returns a silent router.
func NewDedicated() *Dedicated {
	return &Dedicated{output: pan.OutputRealOut}
}

func (d *Dedicated) DeviceUpdate(*Device) {}

func (d *Dedicated) Update(dev *Device, slot SlotParams, props *Props) {
	d.gains = pan.Gains{}
	gain := props.Dedicated.Gain * slot.Gain

	switch slot.Type {
	case TypeDedicatedLowFrequency:
		d.output = pan.OutputRealOut
		if idx := dev.RealOut.Index(pan.LFE); idx >= 0 {
			d.gains[idx] = gain
		}
	case TypeDedicatedDialogue:
		if idx := dev.RealOut.Index(pan.FrontCenter); idx >= 0 {
			d.output = pan.OutputRealOut
			d.gains[idx] = gain
			return
		}

		coeffs := pan.CalcAngleCoeffs(0, 0, 0)
		d.output = pan.OutputDry
		d.gains = pan.ComputePanningGains(&dev.Dry, &coeffs, gain)
	}
}

func (d *Dedicated) Process(n int, in, out [][]float64) {
	src := in[0][:n]
	for c := range min(len(out), pan.MaxOutputChannels) {
		gain := d.gains[c]
		if !core.Audible(gain) {
			continue
		}

		dst := out[c][:n]
		for i, x := range src {
			dst[i] += x * gain
		}
	}
}

func (d *Dedicated) Output() pan.Output { return d.output }

// Gains returns the current per-channel routing gains.
func (d *Dedicated) Gains() pan.Gains { return d.gains }

func (*Dedicated) sealed() {}
