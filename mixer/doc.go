// Package mixer drives the per-block mix of a spatial audio renderer.
//
// A [Context] owns the device description, a fixed table of voices and a
// fixed table of effect slots. Control goroutines create [Source] values
// and [EffectSlot] values and change their properties; every change is
// turned into an immutable parameter snapshot and handed to the audio side
// through a single-slot atomic exchange. The audio goroutine calls
// [Context.Process] or [Context.ProcessInterleaved] once per block. That
// path never locks, blocks or allocates.
//
// Usage:
//
//	ctx, err := mixer.New(mixer.WithSampleRate(48000), mixer.WithLayout(pan.Surround51))
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//
//	src := ctx.NewSource()
//	_ = src.SetBuffer(buf)
//	_ = src.SetDirection(math.Pi/4, 0, 0)
//	_ = src.Play()
//
//	out := make([][]float64, 6)
//	...
//	ctx.Process(out)
package mixer
