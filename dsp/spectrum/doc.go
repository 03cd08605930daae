// Package spectrum provides small magnitude-spectrum helpers used to verify
// oscillator and delay behavior in the frequency domain.
package spectrum
