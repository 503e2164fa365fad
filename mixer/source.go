package mixer

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-spatialmix/dsp/interp"
	"github.com/cwbudde/algo-spatialmix/dsp/snapshot"
	"github.com/cwbudde/algo-spatialmix/dsp/voice"
)

var errSourceDeleted = errors.New("mixer: source deleted")

// Source is a sound emitter. Its properties live on the control side;
// while it plays, a voice renders it.
type Source struct {
	ctx *Context

	// Guarded by ctx.mu.
	props   SourceProps
	buffer  *voice.Buffer
	state   voice.State
	voice   int
	offset  voice.Cursor
	dirty   bool
	deleted bool
}

// NewSource creates a stopped source with default properties.
func (c *Context) NewSource() *Source {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Source{ctx: c, props: DefaultSourceProps(), state: voice.Initial, voice: -1}
	c.sources[s] = struct{}{}
	return s
}

// DeleteSource stops s and drops its slot references.
func (c *Context) DeleteSource(s *Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s == nil || s.ctx != c || s.deleted {
		return errSourceDeleted
	}
	if s.voice >= 0 {
		c.stopVoiceLocked(s, voice.Stopped)
	}
	for i := range s.props.Sends {
		if sl := s.props.Sends[i].Slot; sl != nil {
			sl.refs--
		}
	}
	delete(c.sources, s)
	s.deleted = true
	return nil
}

// Props returns a copy of the source properties.
func (s *Source) Props() SourceProps {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.props
}

// SetProps replaces every property at once.
func (s *Source) SetProps(p SourceProps) error {
	return s.modify(func(dst *SourceProps) { *dst = p })
}

// SetGain sets the source gain.
func (s *Source) SetGain(gain float64) error {
	return s.modify(func(p *SourceProps) { p.Gain = gain })
}

// SetPitch sets the playback rate multiplier.
func (s *Source) SetPitch(pitch float64) error {
	return s.modify(func(p *SourceProps) { p.Pitch = pitch })
}

// SetDirection sets where a mono source is heard from and how wide it is.
func (s *Source) SetDirection(azimuth, elevation, spread float64) error {
	return s.modify(func(p *SourceProps) {
		p.Azimuth, p.Elevation, p.Spread = azimuth, elevation, spread
	})
}

// SetStereoAngles sets the azimuths of the two channels of a stereo buffer.
func (s *Source) SetStereoAngles(left, right float64) error {
	return s.modify(func(p *SourceProps) { p.StereoAngles = [2]float64{left, right} })
}

// SetDirectChannels toggles speaker-direct output of buffer channels.
func (s *Source) SetDirectChannels(on bool) error {
	return s.modify(func(p *SourceProps) { p.DirectChannels = on })
}

// SetResampler selects the interpolation used for pitched playback.
func (s *Source) SetResampler(m interp.Mode) error {
	return s.modify(func(p *SourceProps) { p.Resampler = m })
}

// SetDirectFilter sets the filter of the direct path.
func (s *Source) SetDirectFilter(f FilterParams) error {
	return s.modify(func(p *SourceProps) { p.Direct = f })
}

// SetSend routes send i into slot through f. A nil slot clears the send.
func (s *Source) SetSend(i int, slot *EffectSlot, f FilterParams) error {
	if i < 0 || i >= snapshot.MaxSends {
		return fmt.Errorf("%w: send index %d", ErrInvalidValue, i)
	}
	return s.modify(func(p *SourceProps) {
		p.Sends[i] = SendProps{Slot: slot, Filter: f}
	})
}

// SetLooping sets whether playback wraps at the end of the buffer.
func (s *Source) SetLooping(looping bool) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	s.props.Looping = looping
	if s.voice >= 0 {
		c.voices[s.voice].SetLooping(looping)
	}
	return nil
}

// SetBuffer attaches buf. The source must not be playing or paused.
func (s *Source) SetBuffer(buf *voice.Buffer) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	c.reapLocked(s)
	if s.voice >= 0 {
		return fmt.Errorf("%w: buffer change while %v", ErrInvalidValue, c.voices[s.voice].State())
	}
	if buf != nil && (buf.Channels() == 0 || buf.Channels() > snapshot.MaxInputChannels || buf.SampleRate <= 0) {
		return fmt.Errorf("%w: buffer with %d channels at %v Hz", ErrInvalidValue, buf.Channels(), buf.SampleRate)
	}
	s.buffer = buf
	s.offset = voice.Cursor{}
	return nil
}

// Buffer returns the attached buffer.
func (s *Source) Buffer() *voice.Buffer {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.buffer
}

func (s *Source) checkLive() error {
	if err := s.ctx.checkOpen(); err != nil {
		return err
	}
	if s.deleted {
		return errSourceDeleted
	}
	return nil
}

// modify applies edit to a copy of the properties, validates it, moves
// slot references and publishes the result.
func (s *Source) modify(edit func(*SourceProps)) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}

	next := s.props
	edit(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	for i := range next.Sends {
		sl := next.Sends[i].Slot
		if sl != nil && (sl.ctx != c || sl.id.Load() == 0) {
			return fmt.Errorf("%w: send %d", ErrUnknownSlot, i)
		}
	}

	for i := range next.Sends {
		if old, cur := s.props.Sends[i].Slot, next.Sends[i].Slot; old != cur {
			if old != nil {
				old.refs--
			}
			if cur != nil {
				cur.refs++
			}
		}
	}
	s.props = next
	return c.publishLocked(s, false)
}

// publishLocked builds a snapshot for a source that owns a voice and
// hands it to that voice. While updates are deferred the source is only
// marked dirty.
func (c *Context) publishLocked(s *Source, force bool) error {
	if s.voice < 0 {
		s.dirty = false
		return nil
	}
	if c.deferred && !force {
		s.dirty = true
		return nil
	}

	h, snap, grew, err := c.snapshots.Acquire()
	if err != nil {
		c.log.Error("snapshot pool exhausted", "cap", c.snapshots.Cap(), "err", err)
		return fmt.Errorf("mixer: publish: %w", err)
	}
	if grew {
		c.log.Warn("snapshot pool grew", "cap", c.snapshots.Cap())
	}

	var slots [snapshot.MaxSends]snapshot.SlotID
	for i, send := range s.props.Sends {
		if send.Slot != nil {
			slots[i] = send.Slot.ID()
		}
	}
	calcSnapshot(snap, &s.props, s.buffer, slots, c.dev, &c.sendParams)
	c.voices[s.voice].Publish(h)
	s.dirty = false
	return nil
}

// Play starts the source from its pending offset, resumes it when
// paused, and restarts it from the beginning when already playing.
func (s *Source) Play() error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if s.buffer == nil {
		return fmt.Errorf("%w: source has no buffer", ErrInvalidValue)
	}

	c.reapLocked(s)
	if s.voice >= 0 {
		v := c.voices[s.voice]
		if v.Resume() {
			s.state = voice.Playing
			return nil
		}
		c.stopVoiceLocked(s, voice.Stopped)
	}

	idx := -1
	for i, o := range c.owners {
		if o == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.log.Warn("voice admission failed", "voices", len(c.voices))
		return ErrNoFreeVoice
	}

	c.owners[idx] = s
	s.voice = idx
	if err := c.publishLocked(s, true); err != nil {
		c.owners[idx] = nil
		s.voice = -1
		return err
	}

	at := s.offset
	s.offset = voice.Cursor{}
	if err := c.voices[idx].Start(s.buffer, at, s.props.Looping); err != nil {
		c.voices[idx].Release()
		c.owners[idx] = nil
		s.voice = -1
		return fmt.Errorf("mixer: play: %w", err)
	}
	s.state = voice.Playing
	return nil
}

// Pause holds a playing source at its current position.
func (s *Source) Pause() error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	c.reapLocked(s)
	if s.voice >= 0 && c.voices[s.voice].Pause() {
		s.state = voice.Paused
	}
	return nil
}

// Stop ends playback. The next Play starts from the beginning.
func (s *Source) Stop() error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if s.voice >= 0 {
		c.stopVoiceLocked(s, voice.Stopped)
	}
	s.state = voice.Stopped
	s.offset = voice.Cursor{}
	return nil
}

// Rewind stops playback and returns the source to its initial state.
func (s *Source) Rewind() error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if s.voice >= 0 {
		c.stopVoiceLocked(s, voice.Initial)
	}
	s.state = voice.Initial
	s.offset = voice.Cursor{}
	return nil
}

// State returns the playback state. A source that ran off the end of its
// buffer is stopped here.
func (s *Source) State() voice.State {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reapLocked(s)
	if s.voice >= 0 {
		return c.voices[s.voice].State()
	}
	return s.state
}

// SampleOffset returns the playback position in buffer frames.
func (s *Source) SampleOffset() int {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	return s.cursorLocked().Pos
}

// SecOffset returns the playback position in seconds.
func (s *Source) SecOffset() float64 {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.buffer == nil {
		return 0
	}
	return s.cursorLocked().Seconds(s.buffer.SampleRate)
}

func (s *Source) cursorLocked() voice.Cursor {
	if s.voice >= 0 {
		return s.ctx.voices[s.voice].Cursor()
	}
	return s.offset
}

// SetSampleOffset moves playback to frame n. A playing or paused source
// jumps at the next block; otherwise the offset is used by the next Play.
func (s *Source) SetSampleOffset(n int) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if s.buffer == nil || n < 0 || n >= s.buffer.Frames() {
		return fmt.Errorf("%w: sample offset %d", ErrInvalidValue, n)
	}
	return s.seekLocked(voice.Cursor{Pos: n})
}

// SetSecOffset moves playback to t seconds.
func (s *Source) SetSecOffset(t float64) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if s.buffer == nil || !(t >= 0) {
		return fmt.Errorf("%w: offset %v s", ErrInvalidValue, t)
	}
	at := voice.CursorAt(t, s.buffer.SampleRate)
	if at.Pos >= s.buffer.Frames() {
		return fmt.Errorf("%w: offset %v s past end", ErrInvalidValue, t)
	}
	return s.seekLocked(at)
}

func (s *Source) seekLocked(at voice.Cursor) error {
	c := s.ctx
	c.reapLocked(s)
	if s.voice >= 0 {
		c.voices[s.voice].Seek(at)
		return nil
	}
	s.offset = at
	return nil
}

// stopVoiceLocked unbinds the source's voice, waits for the block in
// flight and returns the voice to the free pool.
func (c *Context) stopVoiceLocked(s *Source, next voice.State) {
	v := c.voices[s.voice]
	if next == voice.Initial {
		v.Rewind()
	} else {
		v.Stop()
	}
	c.waitForMix()
	v.Release()

	c.owners[s.voice] = nil
	s.voice = -1
	s.state = next
	s.dirty = false
}

// reapLocked stops s if its voice has run out of data.
func (c *Context) reapLocked(s *Source) bool {
	if s.voice < 0 || !c.voices[s.voice].Exhausted() {
		return false
	}
	c.stopVoiceLocked(s, voice.Stopped)
	return true
}
