// Package biquad provides the second-order IIR filter used by voices and
// effect units.
//
// A [Filter] is a Direct Form I section: five [Coefficients] and two history
// pairs (last two inputs, last two outputs). Coefficients change only through
// [Filter.SetParams] or [Filter.SetCoefficients]; history survives across
// blocks until [Filter.Clear].
//
// Frequencies are expressed as a multiple of the sample rate (freqMult =
// f/fs), so coefficient sets can be computed once per parameter update
// without carrying the device rate around.
package biquad
