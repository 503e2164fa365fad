package voice

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatialmix/dsp/interp"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/dsp/snapshot"
	"github.com/cwbudde/algo-spatialmix/internal/mixkernel"
)

// ErrBound is returned by Start when the voice is already in use.
var ErrBound = errors.New("voice: already bound")

// noSeek marks an empty pending seek.
const noSeek = -1

// SnapshotPool is the pool voice parameter snapshots are drawn from.
type SnapshotPool = snapshot.Pool[snapshot.Snapshot]

// Targets resolves the buffers a voice mixes into. Send returns nil for
// slots that no longer exist, and the send is skipped.
type Targets interface {
	Output(o pan.Output) [][]float64
	Send(slot snapshot.SlotID) [][]float64
}

// pathState is the audio-side state of one mix path.
type pathState struct {
	lowPass  [snapshot.MaxInputChannels]biquad.Filter
	highPass [snapshot.MaxInputChannels]biquad.Filter

	current [snapshot.MaxInputChannels]pan.Gains
	step    [snapshot.MaxInputChannels]pan.Gains
	counter int
}

func (ps *pathState) clear() {
	for c := range snapshot.MaxInputChannels {
		ps.lowPass[c].Clear()
		ps.highPass[c].Clear()
		ps.current[c] = pan.Gains{}
		ps.step[c] = pan.Gains{}
	}
	ps.counter = 0
}

// retarget installs the coefficients of p and starts a gain ramp from the
// current gains. With jump set the gains snap to the target instead.
func (ps *pathState) retarget(p *snapshot.PathParams, jump bool) {
	for c := range snapshot.MaxInputChannels {
		ps.lowPass[c].SetCoefficients(p.LowPass)
		ps.highPass[c].SetCoefficients(p.HighPass)

		if jump {
			ps.current[c] = p.Gains[c]
			ps.step[c] = pan.Gains{}
			continue
		}
		for ch := range pan.MaxOutputChannels {
			ps.step[c][ch] = (p.Gains[c][ch] - ps.current[c][ch]) / GainRampLength
		}
	}
	if jump {
		ps.counter = 0
	} else {
		ps.counter = GainRampLength
	}
}

// Voice is one playing instance of a buffer.
type Voice struct {
	pool  *SnapshotPool
	mixer *mixkernel.Mixer

	// Shared with the control side.
	bound     atomic.Bool
	state     atomic.Int32
	looping   atomic.Bool
	exhausted atomic.Bool
	cursor    atomic.Uint64
	seek      atomic.Int64
	update    snapshot.Cell

	// Written by the control side only while unbound.
	buffer *Buffer

	// Audio side.
	current snapshot.Handle
	params  *snapshot.Snapshot
	fresh   bool
	fadeIn  bool
	pos     int
	frac    int

	direct pathState
	sends  [snapshot.MaxSends]pathState

	maxBlock int
	src      [snapshot.MaxInputChannels][]float64
	filtered []float64
}

// New returns an unbound voice that can mix blocks of up to maxBlock
// frames. Snapshots published to it must come from pool.
func New(pool *SnapshotPool, maxBlock int) (*Voice, error) {
	if pool == nil {
		return nil, errors.New("voice: nil snapshot pool")
	}
	if maxBlock <= 0 {
		return nil, fmt.Errorf("voice: block size must be > 0: %d", maxBlock)
	}

	v := &Voice{
		pool:     pool,
		mixer:    mixkernel.NewMixer(),
		maxBlock: maxBlock,
		filtered: make([]float64, maxBlock),
	}
	for c := range v.src {
		v.src[c] = make([]float64, maxBlock)
	}
	v.seek.Store(noSeek)
	return v, nil
}

// Start binds buf and makes the voice eligible for mixing from cursor at.
// Starting anywhere but the beginning fades in from silence.
func (v *Voice) Start(buf *Buffer, at Cursor, looping bool) error {
	if v.bound.Load() {
		return ErrBound
	}
	if buf == nil || buf.Channels() == 0 {
		return errors.New("voice: empty buffer")
	}

	v.buffer = buf
	v.pos, v.frac = at.Pos, at.Frac&FractionMask
	v.fresh = true
	v.fadeIn = at.Pos != 0 || at.Frac != 0
	v.direct.clear()
	for i := range v.sends {
		v.sends[i].clear()
	}
	v.seek.Store(noSeek)
	v.looping.Store(looping)
	v.exhausted.Store(false)
	v.cursor.Store(at.pack())
	v.state.Store(int32(Playing))

	// Publish last: the audio side reads nothing above until it sees this.
	v.bound.Store(true)
	return nil
}

// Pause stops a playing voice from producing samples, keeping its cursor.
func (v *Voice) Pause() bool {
	return v.state.CompareAndSwap(int32(Playing), int32(Paused))
}

// Resume continues a paused voice from where it stopped.
func (v *Voice) Resume() bool {
	return v.state.CompareAndSwap(int32(Paused), int32(Playing))
}

// Stop unbinds the voice and leaves it in the Stopped state. The caller
// must wait until no block that saw the voice bound is in flight before
// calling Release or Start.
func (v *Voice) Stop() {
	v.bound.Store(false)
	v.state.Store(int32(Stopped))
}

// Rewind unbinds the voice and returns it to the Initial state. The same
// waiting rule as Stop applies.
func (v *Voice) Rewind() {
	v.bound.Store(false)
	v.state.Store(int32(Initial))
	v.cursor.Store(0)
}

// Release returns the voice's snapshots to the pool. It must only be
// called on an unbound voice once the audio side is done with it.
func (v *Voice) Release() {
	if h := v.update.Take(); h.Valid() {
		v.pool.Release(h)
	}
	if v.current.Valid() {
		v.pool.Release(v.current)
	}
	v.current = 0
	v.params = nil
	v.buffer = nil
}

// Publish hands a new snapshot to the audio side. A snapshot published
// earlier but not yet applied is superseded and returned to the pool.
func (v *Voice) Publish(h snapshot.Handle) {
	if old := v.update.Publish(h); old.Valid() {
		v.pool.Release(old)
	}
}

// Seek moves the cursor at the next block boundary.
func (v *Voice) Seek(at Cursor) {
	packed := at.pack()
	v.seek.Store(int64(packed))
	v.cursor.Store(packed)
}

// SetLooping changes looping while playing.
func (v *Voice) SetLooping(looping bool) { v.looping.Store(looping) }

// Bound reports whether the voice is in use.
func (v *Voice) Bound() bool { return v.bound.Load() }

// State returns the playback state.
func (v *Voice) State() State { return State(v.state.Load()) }

// Eligible reports whether Mix should be called for this voice.
func (v *Voice) Eligible() bool {
	return v.bound.Load() && State(v.state.Load()) == Playing && !v.exhausted.Load()
}

// Exhausted reports that a non-looping voice ran past the end of its buffer.
func (v *Voice) Exhausted() bool { return v.exhausted.Load() }

// Cursor returns the position after the last mixed block.
func (v *Voice) Cursor() Cursor { return unpack(v.cursor.Load()) }

// Buffer returns the bound buffer.
func (v *Voice) Buffer() *Buffer { return v.buffer }

// Mix renders n frames into the buffers named by the current snapshot.
// It is called by the audio goroutine only.
func (v *Voice) Mix(n int, targets Targets) {
	n = min(n, v.maxBlock)
	v.applyPending()
	v.applySeek()

	p := v.params
	if p == nil || n <= 0 {
		return
	}

	channels := min(p.Channels, v.buffer.Channels(), snapshot.MaxInputChannels)
	v.fetch(n, channels, p.Step, p.Resampler)

	v.mixPath(&v.direct, &p.Direct, channels, n, targets.Output(p.Output))
	for i := range min(p.NumSends, snapshot.MaxSends) {
		send := &p.Sends[i]
		var dst [][]float64
		if send.Slot != 0 {
			dst = targets.Send(send.Slot)
		}
		v.mixPath(&v.sends[i], &send.PathParams, channels, n, dst)
	}

	v.cursor.Store(Cursor{Pos: v.pos, Frac: v.frac}.pack())
}

func (v *Voice) applyPending() {
	h := v.update.Take()
	if !h.Valid() {
		return
	}
	next := v.pool.Get(h)
	if next == nil {
		return
	}

	if v.current.Valid() {
		v.pool.Release(v.current)
	}
	v.current = h
	v.params = next

	jump := v.fresh && !v.fadeIn
	v.direct.retarget(&next.Direct, jump)
	for i := range v.sends {
		v.sends[i].retarget(&next.Sends[i].PathParams, jump)
	}
	v.fresh = false
}

func (v *Voice) applySeek() {
	s := v.seek.Swap(noSeek)
	if s == noSeek {
		return
	}
	at := unpack(uint64(s))
	v.pos, v.frac = at.Pos, at.Frac
	if v.pos < v.buffer.Frames() {
		v.exhausted.Store(false)
	}
}

// fetch resamples n frames of each input channel into v.src and advances
// the cursor.
func (v *Voice) fetch(n, channels, step int, mode interp.Mode) {
	frames := v.buffer.Frames()
	looping := v.looping.Load() && frames > 0
	step = min(max(step, 1), MaxPitch*FractionOne)
	if step == FractionOne && v.frac == 0 {
		mode = interp.Point
	}

	endPos, endFrac := v.pos, v.frac
	for c := range channels {
		data := v.buffer.Data[c]
		out := v.src[c][:n]
		pos, frac := v.pos, v.frac

		for i := range out {
			if pos >= frames {
				if !looping {
					clear(out[i:])
					break
				}
				pos %= frames
			}

			if mode == interp.Point {
				out[i] = data[pos]
			} else {
				t := float64(frac) / FractionOne
				out[i] = mode.At(t,
					at(data, pos-1, frames, looping),
					data[pos],
					at(data, pos+1, frames, looping),
					at(data, pos+2, frames, looping))
			}

			frac += step
			pos += frac >> FractionBits
			frac &= FractionMask
		}
		endPos, endFrac = pos, frac
	}

	if looping && endPos >= frames {
		endPos %= frames
	}
	if !looping && endPos >= frames {
		endPos, endFrac = frames, 0
		v.exhausted.Store(true)
	}
	v.pos, v.frac = endPos, endFrac
}

func at(data []float64, i, frames int, looping bool) float64 {
	if i >= 0 && i < frames {
		return data[i]
	}
	if !looping {
		return 0
	}
	i %= frames
	if i < 0 {
		i += frames
	}
	return data[i]
}

// mixPath filters the fetched input and accumulates it into dst while
// stepping the gain ramp. A nil dst still runs the filters so their state
// stays continuous.
func (v *Voice) mixPath(ps *pathState, p *snapshot.PathParams, channels, n int, dst [][]float64) {
	ramp := min(ps.counter, n)
	outputs := min(len(dst), pan.MaxOutputChannels)

	for c := range channels {
		buf := v.filtered[:n]
		copy(buf, v.src[c][:n])
		// Inactive filters still track the signal so switching them back
		// on does not start from stale history.
		if p.Filters&snapshot.FilterLowPass != 0 {
			ps.lowPass[c].Process(buf, buf)
		} else {
			ps.lowPass[c].PassThrough(buf)
		}
		if p.Filters&snapshot.FilterHighPass != 0 {
			ps.highPass[c].Process(buf, buf)
		} else {
			ps.highPass[c].PassThrough(buf)
		}

		for ch := range outputs {
			out := dst[ch][:n]
			cur := ps.current[c][ch]
			target := p.Gains[c][ch]

			if ramp > 0 && (core.Audible(cur) || core.Audible(target)) {
				mixkernel.Ramp(out[:ramp], buf[:ramp], cur, ps.step[c][ch])
			}
			// Past the ramp the gain has reached its target.
			if ramp < n && core.Audible(target) {
				v.mixer.Mix(out[ramp:], buf[ramp:], target)
			}
		}
	}

	if ramp == 0 {
		return
	}
	ps.counter -= ramp
	for c := range snapshot.MaxInputChannels {
		if ps.counter == 0 {
			ps.current[c] = p.Gains[c]
			continue
		}
		for ch := range pan.MaxOutputChannels {
			ps.current[c][ch] += ps.step[c][ch] * float64(ramp)
		}
	}
}
