package mixer

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/effects"
	"github.com/cwbudde/algo-spatialmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatialmix/dsp/interp"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/dsp/snapshot"
	"github.com/cwbudde/algo-spatialmix/dsp/voice"
)

// minFilterGain keeps shelf filters above -24 dB.
const minFilterGain = 0.0625

// FilterParams describes a path filter by its gains: Gain is broadband,
// GainHF applies above core.LowPassFreqRef and GainLF below
// core.HighPassFreqRef.
type FilterParams struct {
	Gain   float64
	GainHF float64
	GainLF float64
}

// Unfiltered passes everything at unit gain.
var Unfiltered = FilterParams{Gain: 1, GainHF: 1, GainLF: 1}

func (f FilterParams) validate(what string) error {
	if !(f.Gain >= 0 && f.Gain <= core.GainMixMax) {
		return fmt.Errorf("%w: %s gain %v", ErrInvalidValue, what, f.Gain)
	}
	if !(f.GainHF >= 0 && f.GainHF <= 1) {
		return fmt.Errorf("%w: %s high-frequency gain %v", ErrInvalidValue, what, f.GainHF)
	}
	if !(f.GainLF >= 0 && f.GainLF <= 1) {
		return fmt.Errorf("%w: %s low-frequency gain %v", ErrInvalidValue, what, f.GainLF)
	}
	return nil
}

// SendProps routes a source into an effect slot.
type SendProps struct {
	Slot   *EffectSlot
	Filter FilterParams
}

// SourceProps are the authoritative control-side properties of a source.
// Angles are in radians; azimuth grows clockwise from the front.
type SourceProps struct {
	Gain  float64
	Pitch float64

	Azimuth   float64
	Elevation float64
	Spread    float64

	// StereoAngles are the azimuths of the left and right channel of a
	// stereo buffer.
	StereoAngles [2]float64
	// DirectChannels sends buffer channels straight to the matching
	// speakers when the layout has them.
	DirectChannels bool

	Resampler interp.Mode
	Looping   bool

	Direct FilterParams
	Sends  [snapshot.MaxSends]SendProps
}

// DefaultSourceProps returns a centred, unfiltered source at unit gain.
func DefaultSourceProps() SourceProps {
	return SourceProps{
		Gain:         1,
		Pitch:        1,
		StereoAngles: [2]float64{-math.Pi / 6, math.Pi / 6},
		Resampler:    interp.Linear,
		Direct:       Unfiltered,
		Sends:        [snapshot.MaxSends]SendProps{{Filter: Unfiltered}, {Filter: Unfiltered}},
	}
}

// Validate checks the ranges of every property.
func (p *SourceProps) Validate() error {
	switch {
	case !(p.Gain >= 0 && p.Gain <= core.GainMixMax):
		return fmt.Errorf("%w: gain %v", ErrInvalidValue, p.Gain)
	case !(p.Pitch > 0) || math.IsInf(p.Pitch, 0):
		return fmt.Errorf("%w: pitch %v", ErrInvalidValue, p.Pitch)
	case !core.IsFinite(p.Azimuth) || !core.IsFinite(p.Elevation):
		return fmt.Errorf("%w: direction %v/%v", ErrInvalidValue, p.Azimuth, p.Elevation)
	case !(p.Spread >= 0 && p.Spread <= 2*math.Pi):
		return fmt.Errorf("%w: spread %v", ErrInvalidValue, p.Spread)
	case !core.IsFinite(p.StereoAngles[0]) || !core.IsFinite(p.StereoAngles[1]):
		return fmt.Errorf("%w: stereo angles %v", ErrInvalidValue, p.StereoAngles)
	case p.Resampler < interp.Point || p.Resampler > interp.Cubic:
		return fmt.Errorf("%w: resampler %v", ErrInvalidValue, p.Resampler)
	}
	if err := p.Direct.validate("direct"); err != nil {
		return err
	}
	for i := range p.Sends {
		if err := p.Sends[i].Filter.validate(fmt.Sprintf("send %d", i)); err != nil {
			return err
		}
	}
	return nil
}

// designPath fills the filter part of a path.
func designPath(p *snapshot.PathParams, f FilterParams, rate float64) {
	p.Filters = snapshot.FilterNone
	if f.GainHF < 1 {
		g := max(f.GainHF, minFilterGain)
		p.Filters |= snapshot.FilterLowPass
		p.LowPass = biquad.Design(biquad.HighShelf, g, core.LowPassFreqRef/rate, biquad.RcpQFromSlope(g, 1))
	}
	if f.GainLF < 1 {
		g := max(f.GainLF, minFilterGain)
		p.Filters |= snapshot.FilterHighPass
		p.HighPass = biquad.Design(biquad.LowShelf, g, core.HighPassFreqRef/rate, biquad.RcpQFromSlope(g, 1))
	}
}

// directChannelFor is the speaker a buffer channel maps to with
// DirectChannels set.
func directChannelFor(channels, c int) pan.Channel {
	if channels == 1 {
		return pan.FrontCenter
	}
	if c == 0 {
		return pan.FrontLeft
	}
	return pan.FrontRight
}

// calcSnapshot derives the mixing parameters of a source for dev.
func calcSnapshot(s *snapshot.Snapshot, props *SourceProps, buf *voice.Buffer, slots [snapshot.MaxSends]snapshot.SlotID, dev *effects.Device, sendParams *pan.MixParams) {
	*s = snapshot.Snapshot{}

	channels := min(buf.Channels(), snapshot.MaxInputChannels)
	rate := dev.SampleRate
	s.Channels = channels
	s.Step = voice.StepFor(props.Pitch, buf.SampleRate, rate)
	s.Resampler = props.Resampler
	s.Output = pan.OutputDry

	// One coefficient set per buffer channel: mono sources use their
	// direction, stereo channels their fixed angles.
	var coeffs [snapshot.MaxInputChannels]pan.Coeffs
	if channels == 1 {
		coeffs[0] = pan.CalcAngleCoeffs(props.Azimuth, props.Elevation, props.Spread)
	} else {
		for c := range channels {
			coeffs[c] = pan.CalcAngleCoeffs(props.StereoAngles[c], 0, 0)
		}
	}

	dryGain := core.Clamp(props.Gain*props.Direct.Gain, 0, core.GainMixMax)
	designPath(&s.Direct, props.Direct, rate)

	direct := props.DirectChannels
	if direct {
		for c := range channels {
			if dev.RealOut.Index(directChannelFor(channels, c)) < 0 {
				direct = false
			}
		}
	}
	if direct {
		s.Output = pan.OutputRealOut
		for c := range channels {
			s.Direct.Gains[c][dev.RealOut.Index(directChannelFor(channels, c))] = dryGain
		}
	} else {
		for c := range channels {
			s.Direct.Gains[c] = pan.ComputePanningGains(&dev.Dry, &coeffs[c], dryGain)
		}
	}

	for i := range snapshot.MaxSends {
		if slots[i] == 0 {
			continue
		}
		send := &s.Sends[i]
		s.NumSends = i + 1
		send.Slot = slots[i]

		f := props.Sends[i].Filter
		designPath(&send.PathParams, f, rate)
		gain := core.Clamp(props.Gain*f.Gain, 0, core.GainMixMax)
		for c := range channels {
			send.Gains[c] = pan.ComputePanningGains(sendParams, &coeffs[c], gain)
		}
	}
}
