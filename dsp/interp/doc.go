// Package interp provides the fractional-position interpolators used by the
// voice resampler.
//
//   - [Point]:  nearest lower sample
//   - [Linear]: 2-point linear interpolation
//   - [Cubic]:  4-point cubic Hermite
package interp
