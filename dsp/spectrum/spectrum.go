package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Magnitude returns |X[k]| for each complex spectrum bin.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re := make([]float64, len(in))
	im := make([]float64, len(in))
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(out, re, im)
	return out
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re := make([]float64, len(in))
	im := make([]float64, len(in))
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(out, re, im)
	return out
}

// OfReal computes the single-sided magnitude spectrum of the first fftSize
// samples of a real signal, Hann-windowed. It returns fftSize/2+1 bins; bin k
// corresponds to frequency k*sampleRate/fftSize.
func OfReal(signal []float64, fftSize int) ([]float64, error) {
	if fftSize <= 0 {
		return nil, fmt.Errorf("spectrum fft size must be > 0: %d", fftSize)
	}
	if len(signal) < fftSize {
		return nil, fmt.Errorf("spectrum needs %d samples, have %d", fftSize, len(signal))
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum fft plan: %w", err)
	}

	in := make([]complex128, fftSize)
	out := make([]complex128, fftSize)
	for i := 0; i < fftSize; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize))
		in[i] = complex(signal[i]*w, 0)
	}

	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("spectrum forward fft: %w", err)
	}

	return Magnitude(out[:fftSize/2+1]), nil
}

// PeakBin returns the index of the largest bin in mag[lo:hi+1].
// Bounds are clamped to the valid range; an empty slice yields -1.
func PeakBin(mag []float64, lo, hi int) int {
	if len(mag) == 0 {
		return -1
	}
	if lo < 0 {
		lo = 0
	}
	if hi >= len(mag) {
		hi = len(mag) - 1
	}
	if lo > hi {
		return -1
	}

	peak := lo
	for i := lo + 1; i <= hi; i++ {
		if mag[i] > mag[peak] {
			peak = i
		}
	}
	return peak
}
