// Package lfo implements a bank of low-frequency oscillator waveforms for
// parameter modulation.
//
// All waveforms produce a normalized signal in (or near) [0, 1] and are
// generated by cheap per-tick recurrences with no transcendental calls in
// the hot path. The [Oscillator] keeps independent state for every [Shape],
// so the active waveform and its rate can be switched at runtime.
package lfo
