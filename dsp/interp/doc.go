// Package interp provides interpolation primitives used by delay-based DSP blocks.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite
//
// The delay line reads fractional positions through [Linear2] by default and
// through [Hermite4] when configured for a smoother fractional read.
package interp
