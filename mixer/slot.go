package mixer

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/effects"
	"github.com/cwbudde/algo-spatialmix/dsp/snapshot"
)

// slotUpdate carries the control-side state of a slot to the audio side.
type slotUpdate struct {
	state  effects.State
	params effects.SlotParams
	props  effects.Props
}

// EffectSlot is an auxiliary bus with one effect unit. Sources feed it
// through their sends; its output is mixed onto the device.
type EffectSlot struct {
	ctx   *Context
	index int

	// id is zero once the slot is deleted.
	id     atomic.Uint64
	update snapshot.Cell

	// Control side, guarded by ctx.mu.
	typ   effects.Type
	state effects.State
	props effects.Props
	gain  float64
	refs  int
	dirty bool

	// Audio side.
	active effects.State
	params effects.SlotParams
	aprops effects.Props
	wet    [][]float64
}

// NewEffectSlot creates a slot holding the null effect at unit gain.
func (c *Context) NewEffectSlot() (*EffectSlot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	idx := -1
	for i := range c.slots {
		if c.slots[i].Load() == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d slots in use", ErrNoFreeSlot, len(c.slots))
	}

	st, err := c.registry.New(effects.TypeNull)
	if err != nil {
		return nil, err
	}
	st.DeviceUpdate(c.dev)

	c.slotGen[idx]++
	s := &EffectSlot{
		ctx:   c,
		index: idx,
		typ:   effects.TypeNull,
		state: st,
		props: effects.DefaultProps(),
		gain:  1,
		wet:   core.EnsureChannels(nil, effects.MaxEffectChannels, c.cfg.maxBlock),
	}
	s.id.Store(uint64(c.slotGen[idx])<<32 | uint64(idx+1))
	if err := c.publishSlotLocked(s, true); err != nil {
		return nil, err
	}

	// Publish last: the audio side picks the slot up from here on.
	c.slots[idx].Store(s)

	c.log.Debug("effect slot created", "slot", s.ID())
	return s, nil
}

// DeleteEffectSlot removes s. It fails with ErrSlotInUse while a source
// still sends to it and returns once no block is using it.
func (c *Context) DeleteEffectSlot(s *EffectSlot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s == nil || s.ctx != c || s.id.Load() == 0 {
		return ErrUnknownSlot
	}
	if s.refs > 0 {
		return fmt.Errorf("%w: %d sends", ErrSlotInUse, s.refs)
	}

	id := s.ID()
	s.id.Store(0)
	c.waitForMix()
	c.slots[s.index].Store(nil)

	if h := s.update.Take(); h.Valid() {
		c.slotUpdates.Release(h)
	}
	s.active = nil
	s.state = nil

	c.log.Debug("effect slot deleted", "slot", id)
	return nil
}

// ID returns the slot's identifier, or zero once deleted.
func (s *EffectSlot) ID() snapshot.SlotID {
	return snapshot.SlotID(s.id.Load())
}

// Type returns the effect type.
func (s *EffectSlot) Type() effects.Type {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.typ
}

// Props returns the effect properties.
func (s *EffectSlot) Props() effects.Props {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.props
}

// Gain returns the slot output gain.
func (s *EffectSlot) Gain() float64 {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.gain
}

// Refs returns how many source sends point at the slot.
func (s *EffectSlot) Refs() int {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.refs
}

// SetEffect replaces the slot's effect. A new unit is built and prepared
// on the calling goroutine; the audio side swaps it in at the next block.
func (s *EffectSlot) SetEffect(t effects.Type, props effects.Props) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if err := props.Validate(t); err != nil {
		return err
	}

	if t != s.typ {
		st, err := c.registry.New(t)
		if err != nil {
			return err
		}
		st.DeviceUpdate(c.dev)
		c.log.Debug("effect slot type changed", "slot", s.ID(), "from", s.typ, "to", t)
		s.typ = t
		s.state = st
	}
	s.props = props
	return c.publishSlotLocked(s, false)
}

// SetProps changes the properties of the current effect.
func (s *EffectSlot) SetProps(props effects.Props) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if err := props.Validate(s.typ); err != nil {
		return err
	}
	s.props = props
	return c.publishSlotLocked(s, false)
}

// SetGain sets the slot output gain in [0, 1].
func (s *EffectSlot) SetGain(gain float64) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if !(gain >= 0 && gain <= 1) {
		return fmt.Errorf("%w: slot gain %v", ErrInvalidValue, gain)
	}
	s.gain = gain
	return c.publishSlotLocked(s, false)
}

func (s *EffectSlot) checkLive() error {
	if err := s.ctx.checkOpen(); err != nil {
		return err
	}
	if s.id.Load() == 0 {
		return ErrUnknownSlot
	}
	return nil
}

// publishSlotLocked hands the slot's control state to the audio side, or
// marks it dirty while updates are deferred.
func (c *Context) publishSlotLocked(s *EffectSlot, force bool) error {
	if c.deferred && !force {
		s.dirty = true
		return nil
	}

	h, u, grew, err := c.slotUpdates.Acquire()
	if err != nil {
		return fmt.Errorf("mixer: slot update: %w", err)
	}
	if grew {
		c.log.Warn("slot update pool grew", "cap", c.slotUpdates.Cap())
	}

	*u = slotUpdate{
		state:  s.state,
		params: effects.SlotParams{Type: s.typ, Gain: s.gain},
		props:  s.props,
	}
	if old := s.update.Publish(h); old.Valid() {
		if ou := c.slotUpdates.Get(old); ou != nil {
			ou.state = nil
		}
		c.slotUpdates.Release(old)
	}
	s.dirty = false
	return nil
}

// applyUpdate installs a pending update. Audio side only.
func (s *EffectSlot) applyUpdate(dev *effects.Device, pool *snapshot.Pool[slotUpdate]) {
	h := s.update.Take()
	if !h.Valid() {
		return
	}
	u := pool.Get(h)
	if u == nil {
		return
	}

	if u.state != nil {
		s.active = u.state
	}
	s.params = u.params
	s.aprops = u.props
	u.state = nil
	pool.Release(h)

	if s.active != nil {
		s.active.Update(dev, s.params, &s.aprops)
	}
}
