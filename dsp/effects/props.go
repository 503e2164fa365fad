package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
)

// Echo property limits and defaults.
const (
	EchoMinDelay     = 0.0
	EchoMaxDelay     = 0.207
	EchoDefaultDelay = 0.1

	EchoMinLRDelay     = 0.0
	EchoMaxLRDelay     = 0.404
	EchoDefaultLRDelay = 0.1

	EchoMinDamping     = 0.0
	EchoMaxDamping     = 0.99
	EchoDefaultDamping = 0.5

	EchoMinFeedback     = 0.0
	EchoMaxFeedback     = 1.0
	EchoDefaultFeedback = 0.5

	EchoMinSpread     = -1.0
	EchoMaxSpread     = 1.0
	EchoDefaultSpread = -1.0
)

// Ring modulator property limits and defaults.
const (
	ModulatorMinFrequency     = 0.0
	ModulatorMaxFrequency     = 8000.0
	ModulatorDefaultFrequency = 440.0

	ModulatorMinHighPassCutoff     = 0.0
	ModulatorMaxHighPassCutoff     = 24000.0
	ModulatorDefaultHighPassCutoff = 800.0
)

// Dedicated property limits and defaults.
const (
	DedicatedMinGain     = 0.0
	DedicatedMaxGain     = core.GainMixMax
	DedicatedDefaultGain = 1.0
)

// Waveform is the ring modulator carrier shape.
type Waveform int

const (
	Sinusoid Waveform = iota
	Sawtooth
	Square
)

func (w Waveform) String() string {
	switch w {
	case Sinusoid:
		return "sine"
	case Sawtooth:
		return "saw"
	case Square:
		return "square"
	default:
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
}

// ParseWaveform returns the Waveform with the given name.
func ParseWaveform(name string) (Waveform, error) {
	for _, w := range []Waveform{Sinusoid, Sawtooth, Square} {
		if w.String() == name {
			return w, nil
		}
	}
	return Sinusoid, fmt.Errorf("%w: waveform %q", ErrInvalidValue, name)
}

// EchoProps configures [Echo].
type EchoProps struct {
	Delay    float64 // seconds to the first tap
	LRDelay  float64 // seconds from the first to the second tap
	Damping  float64 // high-frequency loss per repeat, 0..0.99
	Feedback float64 // repeat gain
	Spread   float64 // -1..1; sign picks which side the first tap is on
}

// ModulatorProps configures [RingModulator].
type ModulatorProps struct {
	Frequency      float64
	HighPassCutoff float64
	Waveform       Waveform
}

// DedicatedProps configures [Dedicated].
type DedicatedProps struct {
	Gain float64
}

// Props holds the properties of every effect type; a unit reads only its
// own section.
type Props struct {
	Echo      EchoProps
	Modulator ModulatorProps
	Dedicated DedicatedProps
}

// DefaultProps returns the default properties of every effect type.
func DefaultProps() Props {
	return Props{
		Echo: EchoProps{
			Delay:    EchoDefaultDelay,
			LRDelay:  EchoDefaultLRDelay,
			Damping:  EchoDefaultDamping,
			Feedback: EchoDefaultFeedback,
			Spread:   EchoDefaultSpread,
		},
		Modulator: ModulatorProps{
			Frequency:      ModulatorDefaultFrequency,
			HighPassCutoff: ModulatorDefaultHighPassCutoff,
			Waveform:       Sinusoid,
		},
		Dedicated: DedicatedProps{Gain: DedicatedDefaultGain},
	}
}

// Validate checks the section of p used by effect type t.
func (p *Props) Validate(t Type) error {
	switch t {
	case TypeNull:
		return nil
	case TypeEcho:
		return firstErr(
			checkRange("echo delay", p.Echo.Delay, EchoMinDelay, EchoMaxDelay),
			checkRange("echo lr delay", p.Echo.LRDelay, EchoMinLRDelay, EchoMaxLRDelay),
			checkRange("echo damping", p.Echo.Damping, EchoMinDamping, EchoMaxDamping),
			checkRange("echo feedback", p.Echo.Feedback, EchoMinFeedback, EchoMaxFeedback),
			checkRange("echo spread", p.Echo.Spread, EchoMinSpread, EchoMaxSpread),
		)
	case TypeRingModulator:
		if p.Modulator.Waveform < Sinusoid || p.Modulator.Waveform > Square {
			return fmt.Errorf("%w: waveform %d", ErrInvalidValue, int(p.Modulator.Waveform))
		}
		return firstErr(
			checkRange("modulator frequency", p.Modulator.Frequency, ModulatorMinFrequency, ModulatorMaxFrequency),
			checkRange("modulator high-pass cutoff", p.Modulator.HighPassCutoff, ModulatorMinHighPassCutoff, ModulatorMaxHighPassCutoff),
		)
	case TypeDedicatedLowFrequency, TypeDedicatedDialogue:
		return checkRange("dedicated gain", p.Dedicated.Gain, DedicatedMinGain, DedicatedMaxGain)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownEffect, t)
	}
}

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%w: %s must be in [%g, %g]: %g", ErrInvalidValue, name, lo, hi, v)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
