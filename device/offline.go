package device

import (
	"errors"
	"fmt"
	"time"
)

// ErrLimit is returned when an offline render would exceed its frame limit.
var ErrLimit = errors.New("device: frame limit reached")

// Offline renders into memory. It is a Clock: waiting renders the waited
// time. Finished sources are reaped after every block.
type Offline struct {
	r     Renderer
	limit int

	out     [][]float64
	scratch [][]float64
}

// NewOffline returns an offline device rendering at most limit frames; a
// limit of zero means no limit.
func NewOffline(r Renderer, limit int) (*Offline, error) {
	if r == nil {
		return nil, errors.New("device: nil renderer")
	}
	if limit < 0 {
		return nil, fmt.Errorf("device: frame limit must be >= 0: %d", limit)
	}

	channels := r.Channels()
	o := &Offline{
		r:       r,
		limit:   limit,
		out:     make([][]float64, channels),
		scratch: make([][]float64, channels),
	}
	for c := range o.scratch {
		o.scratch[c] = make([]float64, r.MaxBlockSize())
	}
	return o, nil
}

// Advance renders frames more frames. With a limit, it renders up to the
// limit and returns ErrLimit.
func (o *Offline) Advance(frames int) error {
	var err error
	if o.limit > 0 && o.Frames()+frames > o.limit {
		frames = o.limit - o.Frames()
		err = ErrLimit
	}

	block := o.r.MaxBlockSize()
	reaper, _ := o.r.(Reaper)
	for frames > 0 {
		n := min(block, frames)
		view := o.scratch
		for c := range view {
			view[c] = view[c][:n]
		}
		o.r.Process(view)
		for c := range o.out {
			o.out[c] = append(o.out[c], view[c]...)
		}
		if reaper != nil {
			reaper.Reap()
		}
		frames -= n
	}
	return err
}

// Wait renders d worth of frames.
func (o *Offline) Wait(d time.Duration) error {
	return o.Advance(FramesFor(d, o.r.SampleRate()))
}

// Frames returns how many frames have been rendered.
func (o *Offline) Frames() int {
	if len(o.out) == 0 {
		return 0
	}
	return len(o.out[0])
}

// Duration returns the rendered length.
func (o *Offline) Duration() time.Duration {
	return time.Duration(float64(o.Frames()) / o.r.SampleRate() * float64(time.Second))
}

// Output returns the rendered channels. They stay valid until the next
// Advance.
func (o *Offline) Output() [][]float64 { return o.out }
