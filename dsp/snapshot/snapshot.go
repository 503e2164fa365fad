package snapshot

import (
	"github.com/cwbudde/algo-spatialmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatialmix/dsp/interp"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
)

const (
	// MaxInputChannels is the widest buffer a voice can play.
	MaxInputChannels = 2
	// MaxSends is the number of auxiliary sends per voice.
	MaxSends = 2
)

// FilterMask selects which path filters are active.
type FilterMask uint8

const (
	FilterNone     FilterMask = 0
	FilterLowPass  FilterMask = 1 << 0
	FilterHighPass FilterMask = 1 << 1
	FilterBandPass            = FilterLowPass | FilterHighPass
)

// SlotID identifies an effect slot. Zero means "no slot".
type SlotID uint64

// PathParams are the filter and gains of one mix path.
type PathParams struct {
	Filters FilterMask
	// LowPass is a high shelf cutting highs; HighPass a low shelf cutting
	// lows. Only the ones named in Filters are applied.
	LowPass  biquad.Coefficients
	HighPass biquad.Coefficients

	// Gains holds the target output gains of each input channel.
	Gains [MaxInputChannels]pan.Gains
}

// SendParams is a path into an effect slot.
type SendParams struct {
	PathParams

	Slot SlotID
}

// Snapshot is the full set of mixing parameters of one voice. It is
// immutable once published.
type Snapshot struct {
	// Output is the device buffer the direct path writes to.
	Output pan.Output
	// Channels is the number of input channels in use.
	Channels int

	// Step is the cursor increment per output frame in 1/FractionOne units.
	Step      int
	Resampler interp.Mode

	Direct   PathParams
	Sends    [MaxSends]SendParams
	NumSends int
}
