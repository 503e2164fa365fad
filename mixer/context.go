package mixer

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/effects"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/dsp/snapshot"
	"github.com/cwbudde/algo-spatialmix/dsp/voice"
	"github.com/cwbudde/algo-spatialmix/internal/mixkernel"
)

// Context is an open output device together with everything mixed onto it.
// Control methods are safe for concurrent use. Process and
// ProcessInterleaved must be called from a single audio goroutine.
type Context struct {
	cfg      config
	log      *slog.Logger
	registry *effects.Registry

	// mu serialises the control side. The audio side never takes it.
	mu       sync.Mutex
	closed   atomic.Bool
	deferred bool
	sources  map[*Source]struct{}

	dev        *effects.Device
	sendParams pan.MixParams

	snapshots   *voice.SnapshotPool
	slotUpdates *snapshot.Pool[slotUpdate]

	voices []*voice.Voice
	owners []*Source

	slots   []atomic.Pointer[EffectSlot]
	slotGen []uint32

	// mixCount is odd while a block is being rendered.
	mixCount atomic.Uint64

	// Audio side.
	targets *targets
	mixer   *mixkernel.Mixer
	realOut [][]float64
	dry     [][]float64
	ambi    bool
	decode  [pan.MaxFirstOrderCoeffs]pan.Gains
}

// New opens a context.
func New(opts ...Option) (*Context, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("mixer: %w", err)
		}
	}

	snapshots, err := snapshot.NewPool[snapshot.Snapshot](cfg.poolSize)
	if err != nil {
		return nil, err
	}
	slotUpdates, err := snapshot.NewPool[slotUpdate](cfg.maxSlots * 4)
	if err != nil {
		return nil, err
	}

	c := &Context{
		cfg:         cfg,
		log:         cfg.logger,
		registry:    effects.DefaultRegistry(),
		sources:     make(map[*Source]struct{}),
		dev:         &effects.Device{},
		sendParams:  pan.FirstOrderParams(),
		snapshots:   snapshots,
		slotUpdates: slotUpdates,
		voices:      make([]*voice.Voice, cfg.maxVoices),
		owners:      make([]*Source, cfg.maxVoices),
		slots:       make([]atomic.Pointer[EffectSlot], cfg.maxSlots),
		slotGen:     make([]uint32, cfg.maxSlots),
		mixer:       mixkernel.NewMixer(),
	}
	c.targets = &targets{c: c}

	for i := range c.voices {
		v, err := voice.New(snapshots, cfg.maxBlock)
		if err != nil {
			return nil, err
		}
		c.voices[i] = v
	}
	c.configureDevice()

	c.log.Info("mixer context opened",
		"rate", cfg.sampleRate,
		"layout", cfg.layout.Name,
		"channels", cfg.layout.NumChannels(),
		"block", cfg.maxBlock,
		"voices", cfg.maxVoices,
		"slots", cfg.maxSlots,
		"ambisonic_dry", c.ambi,
		"kernel", c.mixer.Name(),
	)
	return c, nil
}

// configureDevice rebuilds the device description and the output buses
// from cfg. The audio side must not be running.
func (c *Context) configureDevice() {
	layout := c.cfg.layout
	*c.dev = *effects.NewDevice(c.cfg.sampleRate, layout)

	c.realOut = core.EnsureChannels(c.realOut, layout.NumChannels(), c.cfg.maxBlock)
	c.ambi = c.cfg.ambisonicDry && !layout.Ambisonic()
	if !c.ambi {
		c.dry = c.realOut
		return
	}

	// Sources pan onto a first-order bus that is decoded onto the
	// speakers after all voices and effects have been mixed.
	c.dev.Dry = pan.FirstOrderParams()
	c.dry = core.EnsureChannels(nil, pan.MaxFirstOrderCoeffs, c.cfg.maxBlock)
	speakers := layout.MixParams()
	for j := range pan.MaxFirstOrderCoeffs {
		c.decode[j] = pan.ComputeFirstOrderGains(&speakers, pan.IdentityRow(j), 1)
	}
}

// SampleRate returns the device sample rate.
func (c *Context) SampleRate() float64 { return c.cfg.sampleRate }

// Layout returns the output layout.
func (c *Context) Layout() *pan.Layout { return c.cfg.layout }

// Channels returns the number of output channels.
func (c *Context) Channels() int { return c.cfg.layout.NumChannels() }

// MaxBlockSize returns the largest block rendered in one piece.
func (c *Context) MaxBlockSize() int { return c.cfg.maxBlock }

// Logger returns the context logger.
func (c *Context) Logger() *slog.Logger { return c.log }

// Close stops every source and marks the context closed. Process keeps
// working and renders silence.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}
	for s := range c.sources {
		if s.voice >= 0 {
			c.stopVoiceLocked(s, voice.Stopped)
		}
	}
	c.closed.Store(true)
	c.waitForMix()

	c.log.Info("mixer context closed", "sources", len(c.sources))
	return nil
}

func (c *Context) checkOpen() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

// ResetDevice reconfigures the context for a new sample rate and layout.
// The audio side must be stopped while it runs. Every effect slot is
// device-updated and every playing source republished.
func (c *Context) ResetDevice(rate float64, layout *pan.Layout) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}

	cfg := c.cfg
	for _, opt := range []Option{WithSampleRate(rate), WithLayout(layout)} {
		if err := opt(&cfg); err != nil {
			return fmt.Errorf("mixer: reset device: %w", err)
		}
	}
	c.cfg = cfg
	c.configureDevice()

	for i := range c.slots {
		s := c.slots[i].Load()
		if s == nil {
			continue
		}
		core.ZeroChannels(s.wet, c.cfg.maxBlock)
		s.state.DeviceUpdate(c.dev)
		if err := c.publishSlotLocked(s, true); err != nil {
			return err
		}
	}
	for s := range c.sources {
		if s.voice >= 0 {
			if err := c.publishLocked(s, true); err != nil {
				return err
			}
		}
	}

	c.log.Info("mixer device reset", "rate", rate, "layout", layout.Name, "channels", layout.NumChannels())
	return nil
}

// DeferUpdates holds back property changes of sources and slots until
// ProcessUpdates, so a batch of changes reaches the audio side at once.
func (c *Context) DeferUpdates() {
	c.mu.Lock()
	c.deferred = true
	c.mu.Unlock()
}

// ProcessUpdates publishes every change held back since DeferUpdates.
func (c *Context) ProcessUpdates() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deferred = false
	var firstErr error
	for i := range c.slots {
		if s := c.slots[i].Load(); s != nil && s.dirty {
			if err := c.publishSlotLocked(s, false); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	for s := range c.sources {
		if s.dirty {
			if err := c.publishLocked(s, false); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Reap stops sources whose voice has played past the end of a
// non-looping buffer and returns how many it stopped.
func (c *Context) Reap() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for s := range c.sources {
		if c.reapLocked(s) {
			n++
		}
	}
	return n
}

// Stats is a snapshot of context occupancy.
type Stats struct {
	Sources       int
	ActiveVoices  int
	MaxVoices     int
	Slots         int
	SnapshotsFree int
	SnapshotsCap  int
	Blocks        uint64
}

// Stats returns current occupancy counters.
func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Stats{
		Sources:       len(c.sources),
		MaxVoices:     len(c.voices),
		SnapshotsFree: c.snapshots.Free(),
		SnapshotsCap:  c.snapshots.Cap(),
		Blocks:        c.mixCount.Load() / 2,
	}
	for _, o := range c.owners {
		if o != nil {
			st.ActiveVoices++
		}
	}
	for i := range c.slots {
		if c.slots[i].Load() != nil {
			st.Slots++
		}
	}
	return st
}

// waitForMix returns once no block that started before the call is still
// being rendered.
func (c *Context) waitForMix() {
	n := c.mixCount.Load()
	if n&1 == 0 {
		return
	}
	for c.mixCount.Load() == n {
		runtime.Gosched()
	}
}

// Process renders len(out[0]) frames into out, one slice per channel.
// Channels beyond the layout are zeroed.
func (c *Context) Process(out [][]float64) {
	if len(out) == 0 {
		return
	}
	frames := len(out[0])
	channels := min(len(out), len(c.realOut))

	for base := 0; base < frames; {
		td := min(c.cfg.maxBlock, frames-base)
		c.render(td)

		for ch := range channels {
			copy(out[ch][base:base+td], c.realOut[ch][:td])
		}
		for ch := channels; ch < len(out); ch++ {
			clear(out[ch][base : base+td])
		}
		base += td
	}
}

// ProcessInterleaved renders len(dst)/Channels() frames into dst as
// interleaved float32 samples.
func (c *Context) ProcessInterleaved(dst []float32) {
	channels := len(c.realOut)
	frames := len(dst) / channels

	for base := 0; base < frames; {
		td := min(c.cfg.maxBlock, frames-base)
		c.render(td)

		for i := range td {
			frame := dst[(base+i)*channels : (base+i+1)*channels]
			for ch := range frame {
				frame[ch] = float32(c.realOut[ch][i])
			}
		}
		base += td
	}
}

// render mixes one block of n <= maxBlock frames into realOut.
func (c *Context) render(n int) {
	c.mixCount.Add(1)
	defer c.mixCount.Add(1)

	core.ZeroChannels(c.realOut, n)
	if c.ambi {
		core.ZeroChannels(c.dry, n)
	}
	if c.closed.Load() {
		return
	}

	for i := range c.slots {
		s := c.slots[i].Load()
		if s == nil || s.id.Load() == 0 {
			continue
		}
		core.ZeroChannels(s.wet, n)
		s.applyUpdate(c.dev, c.slotUpdates)
	}

	for _, v := range c.voices {
		if v.Eligible() {
			v.Mix(n, c.targets)
		}
	}

	for i := range c.slots {
		s := c.slots[i].Load()
		if s == nil || s.id.Load() == 0 || s.active == nil {
			continue
		}
		s.active.Process(n, s.wet, c.targets.Output(s.active.Output()))
	}

	if c.ambi {
		for j := range pan.MaxFirstOrderCoeffs {
			src := c.dry[j][:n]
			for ch, out := range c.realOut {
				if g := c.decode[j][ch]; core.Audible(g) {
					c.mixer.Mix(out[:n], src, g)
				}
			}
		}
	}
}

// targets resolves voice destinations for the audio side.
type targets struct {
	c *Context
}

func (t *targets) Output(o pan.Output) [][]float64 {
	if o == pan.OutputRealOut {
		return t.c.realOut
	}
	return t.c.dry
}

func (t *targets) Send(id snapshot.SlotID) [][]float64 {
	s := t.c.slotByID(id)
	if s == nil {
		return nil
	}
	return s.wet
}

// slotByID resolves id without locking. Deleted or reused slots resolve
// to nil.
func (c *Context) slotByID(id snapshot.SlotID) *EffectSlot {
	idx := int(uint32(id)) - 1
	if idx < 0 || idx >= len(c.slots) {
		return nil
	}
	s := c.slots[idx].Load()
	if s == nil || s.id.Load() != uint64(id) {
		return nil
	}
	return s
}
