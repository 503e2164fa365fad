package scene

import (
	"math"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/cwbudde/algo-spatialmix/dsp/core"
	"github.com/cwbudde/algo-spatialmix/dsp/effects"
	"github.com/cwbudde/algo-spatialmix/dsp/interp"
	"github.com/cwbudde/algo-spatialmix/dsp/voice"
	"github.com/cwbudde/algo-spatialmix/mixer"
)

func (r *Runner) register(L *lua.LState) {
	funcs := map[string]lua.LGFunction{
		"source":    r.luaSource,
		"tone":      r.luaTone,
		"play":      r.sourceOp(func(s *mixer.Source) error { return s.Play() }),
		"pause":     r.sourceOp(func(s *mixer.Source) error { return s.Pause() }),
		"stop":      r.sourceOp(func(s *mixer.Source) error { return s.Stop() }),
		"rewind":    r.sourceOp(func(s *mixer.Source) error { return s.Rewind() }),
		"gain":      r.luaGain,
		"gaindb":    r.luaGainDB,
		"pitch":     r.luaPitch,
		"direction": r.luaDirection,
		"stereo":    r.luaStereo,
		"looping":   r.luaLooping,
		"resampler": r.luaResampler,
		"direct":    r.luaDirect,
		"remove":    r.luaRemove,
		"filter":    r.luaFilter,
		"offset":    r.luaOffset,
		"position":  r.luaPosition,
		"state":     r.luaState,
		"effect":    r.luaEffect,
		"echo":      r.luaEcho,
		"ringmod":   r.luaRingmod,
		"dedicated": r.luaDedicated,
		"slotgain":  r.luaSlotGain,
		"dropslot":  r.luaDropSlot,
		"send":      r.luaSend,
		"batch":     r.luaBatch,
		"wait":      r.luaWait,
		"time":      r.luaTime,
		"log":       r.luaLog,
	}
	for name, fn := range funcs {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

func check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%v", err)
	}
}

func degrees(L *lua.LState, n int) float64 {
	return float64(L.CheckNumber(n)) * math.Pi / 180
}

func (r *Runner) source(L *lua.LState, n int) *mixer.Source {
	name := L.CheckString(n)
	s, ok := r.sources[name]
	if !ok {
		L.ArgError(n, "unknown source "+name)
	}
	return s
}

// slot returns the named slot, creating it on first use.
func (r *Runner) slot(L *lua.LState, n int) *mixer.EffectSlot {
	name := L.CheckString(n)
	if s, ok := r.slots[name]; ok {
		return s
	}
	s, err := r.mix.NewEffectSlot()
	check(L, err)
	r.slots[name] = s
	return s
}

// attach gives the named source buf, creating the source on first use.
func (r *Runner) attach(L *lua.LState, name string, buf *voice.Buffer) *mixer.Source {
	s, ok := r.sources[name]
	if ok {
		check(L, s.Stop())
	} else {
		s = r.mix.NewSource()
		r.sources[name] = s
	}
	check(L, s.SetBuffer(buf))
	return s
}

// source(name, path [, looping])
func (r *Runner) luaSource(L *lua.LState) int {
	name := L.CheckString(1)
	path := L.CheckString(2)
	looping := L.OptBool(3, false)

	buf, err := r.loader.Load(r.clipPath(path))
	check(L, err)
	s := r.attach(L, name, buf)
	check(L, s.SetLooping(looping))

	r.log.Debug("scene source", "name", name, "path", path, "frames", buf.Frames(), "rate", buf.SampleRate)
	return 0
}

// tone(name, freq, ms [, amplitude]) makes a looping sine source of
// whole periods.
func (r *Runner) luaTone(L *lua.LState) int {
	name := L.CheckString(1)
	freq := float64(L.CheckNumber(2))
	ms := float64(L.CheckNumber(3))
	amp := float64(L.OptNumber(4, 0.5))

	rate := r.mix.SampleRate()
	if !(freq > 0 && freq < rate/2) {
		L.ArgError(2, "frequency out of range")
	}
	periods := math.Max(1, math.Round(ms/1000*freq))
	frames := int(math.Round(periods / freq * rate))
	if frames < 1 {
		L.ArgError(3, "tone too short")
	}

	data := make([]float64, frames)
	w := 2 * math.Pi * periods / float64(frames)
	for i := range data {
		data[i] = amp * math.Sin(w*float64(i))
	}
	s := r.attach(L, name, &voice.Buffer{Data: [][]float64{data}, SampleRate: rate})
	check(L, s.SetLooping(true))
	return 0
}

func (r *Runner) sourceOp(op func(*mixer.Source) error) lua.LGFunction {
	return func(L *lua.LState) int {
		check(L, op(r.source(L, 1)))
		return 0
	}
}

// gain(name, g)
func (r *Runner) luaGain(L *lua.LState) int {
	check(L, r.source(L, 1).SetGain(float64(L.CheckNumber(2))))
	return 0
}

// gaindb(name, db)
func (r *Runner) luaGainDB(L *lua.LState) int {
	check(L, r.source(L, 1).SetGain(core.DBToLinear(float64(L.CheckNumber(2)))))
	return 0
}

// pitch(name, p)
func (r *Runner) luaPitch(L *lua.LState) int {
	check(L, r.source(L, 1).SetPitch(float64(L.CheckNumber(2))))
	return 0
}

// direction(name, azimuth, elevation [, spread]), degrees
func (r *Runner) luaDirection(L *lua.LState) int {
	s := r.source(L, 1)
	az := degrees(L, 2)
	el := float64(L.OptNumber(3, 0)) * math.Pi / 180
	spread := float64(L.OptNumber(4, 0)) * math.Pi / 180
	check(L, s.SetDirection(az, el, spread))
	return 0
}

// stereo(name, left, right), degrees
func (r *Runner) luaStereo(L *lua.LState) int {
	check(L, r.source(L, 1).SetStereoAngles(degrees(L, 2), degrees(L, 3)))
	return 0
}

// looping(name, on)
func (r *Runner) luaLooping(L *lua.LState) int {
	check(L, r.source(L, 1).SetLooping(L.CheckBool(2)))
	return 0
}

// resampler(name, "point" | "linear" | "cubic")
func (r *Runner) luaResampler(L *lua.LState) int {
	s := r.source(L, 1)
	m, err := interp.ParseMode(L.CheckString(2))
	check(L, err)
	check(L, s.SetResampler(m))
	return 0
}

// direct(name, on) routes buffer channels straight to matching speakers.
func (r *Runner) luaDirect(L *lua.LState) int {
	check(L, r.source(L, 1).SetDirectChannels(L.CheckBool(2)))
	return 0
}

// remove(name) stops and deletes a source.
func (r *Runner) luaRemove(L *lua.LState) int {
	s := r.source(L, 1)
	check(L, r.mix.DeleteSource(s))
	delete(r.sources, L.CheckString(1))
	return 0
}

// filter(name, gain [, gainhf [, gainlf]])
func (r *Runner) luaFilter(L *lua.LState) int {
	f := mixer.FilterParams{
		Gain:   float64(L.CheckNumber(2)),
		GainHF: float64(L.OptNumber(3, 1)),
		GainLF: float64(L.OptNumber(4, 1)),
	}
	check(L, r.source(L, 1).SetDirectFilter(f))
	return 0
}

// offset(name, seconds)
func (r *Runner) luaOffset(L *lua.LState) int {
	check(L, r.source(L, 1).SetSecOffset(float64(L.CheckNumber(2))))
	return 0
}

// position(name) -> seconds
func (r *Runner) luaPosition(L *lua.LState) int {
	L.Push(lua.LNumber(r.source(L, 1).SecOffset()))
	return 1
}

// state(name) -> "initial" | "playing" | "paused" | "stopped"
func (r *Runner) luaState(L *lua.LState) int {
	L.Push(lua.LString(r.source(L, 1).State().String()))
	return 1
}

func (r *Runner) setEffect(L *lua.LState, s *mixer.EffectSlot, t effects.Type, edit func(*effects.Props)) {
	props := effects.DefaultProps()
	if s.Type() == t {
		props = s.Props()
	}
	edit(&props)
	check(L, s.SetEffect(t, props))
	r.log.Debug("scene effect", "slot", s.ID(), "type", t)
}

// effect(slot, type) loads an effect type with default properties.
func (r *Runner) luaEffect(L *lua.LState) int {
	s := r.slot(L, 1)
	t, err := effects.ParseType(L.CheckString(2))
	check(L, err)
	check(L, s.SetEffect(t, effects.DefaultProps()))
	return 0
}

// echo(slot, delay, lrdelay, damping, feedback, spread), seconds
func (r *Runner) luaEcho(L *lua.LState) int {
	s := r.slot(L, 1)
	r.setEffect(L, s, effects.TypeEcho, func(p *effects.Props) {
		p.Echo.Delay = float64(L.OptNumber(2, lua.LNumber(effects.EchoDefaultDelay)))
		p.Echo.LRDelay = float64(L.OptNumber(3, lua.LNumber(effects.EchoDefaultLRDelay)))
		p.Echo.Damping = float64(L.OptNumber(4, lua.LNumber(effects.EchoDefaultDamping)))
		p.Echo.Feedback = float64(L.OptNumber(5, lua.LNumber(effects.EchoDefaultFeedback)))
		p.Echo.Spread = float64(L.OptNumber(6, lua.LNumber(effects.EchoDefaultSpread)))
	})
	return 0
}

// ringmod(slot, frequency, cutoff, waveform)
func (r *Runner) luaRingmod(L *lua.LState) int {
	s := r.slot(L, 1)
	w, err := effects.ParseWaveform(L.OptString(4, effects.Sinusoid.String()))
	check(L, err)
	r.setEffect(L, s, effects.TypeRingModulator, func(p *effects.Props) {
		p.Modulator.Frequency = float64(L.OptNumber(2, lua.LNumber(effects.ModulatorDefaultFrequency)))
		p.Modulator.HighPassCutoff = float64(L.OptNumber(3, lua.LNumber(effects.ModulatorDefaultHighPassCutoff)))
		p.Modulator.Waveform = w
	})
	return 0
}

// dedicated(slot, "lfe" | "dialogue", gain)
func (r *Runner) luaDedicated(L *lua.LState) int {
	s := r.slot(L, 1)
	var t effects.Type
	switch kind := L.CheckString(2); kind {
	case "lfe":
		t = effects.TypeDedicatedLowFrequency
	case "dialogue":
		t = effects.TypeDedicatedDialogue
	default:
		L.ArgError(2, "want lfe or dialogue, got "+kind)
	}
	r.setEffect(L, s, t, func(p *effects.Props) {
		p.Dedicated.Gain = float64(L.OptNumber(3, lua.LNumber(effects.DedicatedDefaultGain)))
	})
	return 0
}

// slotgain(slot, g)
func (r *Runner) luaSlotGain(L *lua.LState) int {
	check(L, r.slot(L, 1).SetGain(float64(L.CheckNumber(2))))
	return 0
}

// dropslot(slot) deletes a slot no source sends to.
func (r *Runner) luaDropSlot(L *lua.LState) int {
	name := L.CheckString(1)
	s, ok := r.slots[name]
	if !ok {
		L.ArgError(1, "unknown slot "+name)
	}
	check(L, r.mix.DeleteEffectSlot(s))
	delete(r.slots, name)
	return 0
}

// send(name, slot [, gain [, index]]); a nil slot clears the send
func (r *Runner) luaSend(L *lua.LState) int {
	s := r.source(L, 1)
	gain := float64(L.OptNumber(3, 1))
	index := L.OptInt(4, 0)

	f := mixer.Unfiltered
	f.Gain = gain
	if L.Get(2) == lua.LNil {
		check(L, s.SetSend(index, nil, mixer.Unfiltered))
		return 0
	}
	check(L, s.SetSend(index, r.slot(L, 2), f))
	return 0
}

// batch(fn) applies every change fn makes at the same block.
func (r *Runner) luaBatch(L *lua.LState) int {
	fn := L.CheckFunction(1)
	r.mix.DeferUpdates()
	L.Push(fn)
	err := L.PCall(0, 0, nil)
	check(L, r.mix.ProcessUpdates())
	check(L, err)
	return 0
}

// wait(ms)
func (r *Runner) luaWait(L *lua.LState) int {
	ms := float64(L.CheckNumber(1))
	if ms < 0 {
		L.ArgError(1, "negative wait")
	}
	if ctx := L.Context(); ctx != nil && ctx.Err() != nil {
		check(L, ctx.Err())
	}

	d := time.Duration(ms * float64(time.Millisecond))
	if err := r.clock.Wait(d); err != nil {
		r.stop = err
		check(L, err)
	}
	r.elapsed += d
	return 0
}

// time() -> seconds of script time
func (r *Runner) luaTime(L *lua.LState) int {
	L.Push(lua.LNumber(r.elapsed.Seconds()))
	return 1
}

// log(...)
func (r *Runner) luaLog(L *lua.LState) int {
	args := make([]any, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		args = append(args, L.Get(i).String())
	}
	r.log.Info("scene log", "args", args)
	return 0
}
