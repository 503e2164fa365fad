// Package pan turns a sound direction and spread into per-output-channel
// gains.
//
// A direction is first encoded as third-order ambisonic coefficients (ACN
// channel order, N3D normalization) by [CalcDirectionCoeffs] or
// [CalcAngleCoeffs]. [ComputePanningGains] then maps the coefficients onto an
// output described by [MixParams], either through a decoder matrix (one row
// per output channel) or through a channel map (each output carries one
// scaled ambisonic channel). [ComputeFirstOrderGains] does the same from a
// 1x4 slice of a transform matrix, for signals that are already first-order
// B-Format.
//
// Coordinates follow the listener frame: +X right, +Y up, -Z front.
// Azimuth is positive to the right, elevation positive upward, both in
// radians.
package pan
