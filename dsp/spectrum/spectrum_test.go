package spectrum

import (
	"testing"

	"github.com/cwbudde/algo-looper/internal/testutil"
)

func TestOfReal_FindsSineFundamental(t *testing.T) {
	const (
		sampleRate = 1024.0
		fftSize    = 1024
		freqHz     = 50.0
	)

	sig := testutil.DeterministicSine(freqHz, sampleRate, 1.0, fftSize)
	mag, err := OfReal(sig, fftSize)
	if err != nil {
		t.Fatalf("OfReal() error = %v", err)
	}
	if len(mag) != fftSize/2+1 {
		t.Fatalf("bin count = %d, want %d", len(mag), fftSize/2+1)
	}

	// Skip DC so window leakage cannot win.
	peak := PeakBin(mag, 1, len(mag)-1)
	if peak != int(freqHz) {
		t.Fatalf("peak bin = %d, want %d", peak, int(freqHz))
	}
}

func TestOfReal_Validation(t *testing.T) {
	if _, err := OfReal(nil, 16); err == nil {
		t.Fatal("expected error for short signal")
	}
	if _, err := OfReal(make([]float64, 16), 0); err == nil {
		t.Fatal("expected error for zero fft size")
	}
}

func TestMagnitude(t *testing.T) {
	mag := Magnitude([]complex128{3 + 4i, 0, -1})
	want := []float64{5, 0, 1}
	testutil.RequireSliceNearlyEqual(t, mag, want, 1e-12)

	if Magnitude(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestPower(t *testing.T) {
	pow := Power([]complex128{3 + 4i, 1i})
	want := []float64{25, 1}
	testutil.RequireSliceNearlyEqual(t, pow, want, 1e-12)
}

func TestPeakBin_Bounds(t *testing.T) {
	mag := []float64{0, 5, 2, 9, 1}
	if got := PeakBin(mag, -3, 99); got != 3 {
		t.Fatalf("PeakBin clamped = %d, want 3", got)
	}
	if got := PeakBin(mag, 0, 2); got != 1 {
		t.Fatalf("PeakBin limited = %d, want 1", got)
	}
	if got := PeakBin(nil, 0, 1); got != -1 {
		t.Fatalf("PeakBin(nil) = %d, want -1", got)
	}
	if got := PeakBin(mag, 4, 2); got != -1 {
		t.Fatalf("PeakBin inverted range = %d, want -1", got)
	}
}
