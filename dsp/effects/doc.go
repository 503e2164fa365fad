// Package effects provides the effect units that run on auxiliary effect
// slots.
//
// Every unit implements [State]:
//
//   - DeviceUpdate sizes internal storage for a device and clears history.
//     It may allocate and runs on a control goroutine.
//   - Update derives per-block constants (filter coefficients, tap offsets,
//     panning gains) from slot and effect properties. It never allocates.
//   - Process transforms one block of slot input into device output in
//     fixed 128-sample sub-chunks. It never allocates, locks or fails.
//
// The set of units is closed: [Dedicated] (direct routing to the LFE or
// dialogue channel), [Echo] (two-tap feedback delay) and [RingModulator].
// [Registry] dispatches from a [Type] to the unit constructor.
//
// Units assume their properties were checked with [Props.Validate]; they do
// no validation of their own.
package effects
