package delay

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-looper/internal/testutil"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := New(math.Inf(1)); err == nil {
		t.Fatal("expected error for infinite sample rate")
	}
	if _, err := New(1000, WithBufferSeconds(-1)); err == nil {
		t.Fatal("expected error for negative buffer length")
	}
	if _, err := New(1000, WithTimeSmoothing(1.5)); err == nil {
		t.Fatal("expected error for smoothing > 1")
	}
	if _, err := New(1000, WithInitialFeedback(2)); err == nil {
		t.Fatal("expected error for feedback > 1")
	}
	if _, err := New(1000, WithInitialMix(-0.1)); err == nil {
		t.Fatal("expected error for negative mix")
	}
}

// TestLine_SetTargetTime_RampsGradually verifies that changing the target
// causes the effective delay to move incrementally, not in a single jump.
// A jump would manifest as a sudden change of the read position, which is
// audible as a click.
func TestLine_SetTargetTime_RampsGradually(t *testing.T) {
	const sampleRate = 1000.0

	l, err := New(sampleRate, WithInitialTime(0.25))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	startSamples := l.CurrentDelaySamples()

	// Request a much shorter delay; the smoother must ramp toward it.
	l.SetTargetTime(0.01)

	buf := make([]float64, 10)
	l.ProcessInPlace(buf)

	current := l.CurrentDelaySamples()
	if current >= startSamples {
		t.Errorf("delay did not ramp: current=%v, start=%v", current, startSamples)
	}

	targetSamples := 0.01 * sampleRate
	if current <= targetSamples {
		t.Errorf("delay reached target too fast: current=%v, target=%v", current, targetSamples)
	}
}

// TestLine_SetTargetTime_ConvergesToTarget verifies that after processing
// enough samples the effective delay settles at the requested target.
func TestLine_SetTargetTime_ConvergesToTarget(t *testing.T) {
	const sampleRate = 1000.0

	l, err := New(sampleRate, WithInitialTime(0.25))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.SetTargetTime(0.05)

	// 10x the smoothing time constant of silence.
	buf := make([]float64, 10*100)
	l.ProcessInPlace(buf)

	got := l.CurrentDelaySamples()
	want := l.TargetDelaySamples()
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("CurrentDelaySamples() = %v, want ~%v", got, want)
	}
}

func TestLine_SetTargetTime_ClampsToCapacity(t *testing.T) {
	l, err := New(1000, WithBufferSeconds(0.1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.SetTargetTime(99)
	if got := l.TargetDelaySamples(); got != float64(l.Len()-1) {
		t.Fatalf("TargetDelaySamples() = %v, want %v", got, float64(l.Len()-1))
	}

	l.SetTargetTime(-1)
	if got := l.TargetDelaySamples(); got != 0 {
		t.Fatalf("TargetDelaySamples() = %v, want 0", got)
	}

	before := l.TargetDelaySamples()
	l.SetTargetTime(math.NaN())
	if got := l.TargetDelaySamples(); got != before {
		t.Fatalf("NaN target mutated state: %v", got)
	}
}

func TestLine_SettersClamp(t *testing.T) {
	l, err := New(1000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.SetFeedback(1.5)
	if l.Feedback() != 1 {
		t.Fatalf("Feedback() = %v, want 1", l.Feedback())
	}
	l.SetFeedback(-0.5)
	if l.Feedback() != 0 {
		t.Fatalf("Feedback() = %v, want 0", l.Feedback())
	}
	l.SetMix(2)
	if l.Mix() != 1 {
		t.Fatalf("Mix() = %v, want 1", l.Mix())
	}
	l.SetMix(math.Inf(1))
	if l.Mix() != 1 {
		t.Fatalf("Mix() after Inf = %v, want 1", l.Mix())
	}
}

// TestLine_ImpulseResponse injects a unit impulse with full wet mix and no
// feedback; the impulse must come back exactly one settled delay later.
func TestLine_ImpulseResponse(t *testing.T) {
	const (
		sampleRate   = 1000.0
		delaySeconds = 0.05 // 50 samples
	)

	l, err := New(sampleRate,
		WithInitialTime(delaySeconds),
		WithInitialFeedback(0),
		WithInitialMix(1),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := testutil.Impulse(200, 0)
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = l.ProcessSample(x)
	}

	lag := int(delaySeconds * sampleRate)
	if math.Abs(out[lag]-1) > 1e-9 {
		t.Fatalf("out[%d] = %v, want ~1", lag, out[lag])
	}
	for i, v := range out {
		if i == lag {
			continue
		}
		if math.Abs(v) > 1e-9 {
			t.Fatalf("out[%d] = %v, want 0", i, v)
		}
	}
}

// TestLine_ImpulseResponseAfterRetarget settles the smoother on a new target
// with silence before measuring the echo lag.
func TestLine_ImpulseResponseAfterRetarget(t *testing.T) {
	const sampleRate = 1000.0

	l, err := New(sampleRate,
		WithInitialTime(0.02),
		WithInitialFeedback(0),
		WithInitialMix(1),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.SetTargetTime(0.05)

	// Well past 5x the smoothing time constant (tau = 100 samples at 0.01).
	silence := make([]float64, 3000)
	l.ProcessInPlace(silence)

	out := make([]float64, 100)
	for i, x := range testutil.Impulse(100, 0) {
		out[i] = l.ProcessSample(x)
	}

	lag := 50
	sum := out[lag-1] + out[lag] + out[lag+1]
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("echo energy around lag %d = %v, want ~1", lag, sum)
	}
}

// TestLine_FeedbackStability drives the line with bounded noise at feedback
// settings below 1; the output must stay bounded by the geometric series
// limit.
func TestLine_FeedbackStability(t *testing.T) {
	for _, feedback := range []float64{0, 0.5, 0.9, 0.99} {
		l, err := New(1000,
			WithInitialTime(0.01),
			WithInitialFeedback(feedback),
			WithInitialMix(1),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		in := testutil.DeterministicNoise(42, 0.5, 20000)
		out := make([]float64, len(in))
		for i, x := range in {
			out[i] = l.ProcessSample(x)
		}

		testutil.RequireFinite(t, out)
		bound := 0.5/(1-feedback) + 1
		if maxAbs := testutil.MaxAbs(out); maxAbs > bound {
			t.Fatalf("feedback %v: output %v exceeded bound %v", feedback, maxAbs, bound)
		}
	}
}

// TestLine_UnityFeedbackSustains documents the oscillation edge: at feedback
// 1.0 an injected impulse keeps circulating without decay.
func TestLine_UnityFeedbackSustains(t *testing.T) {
	const lag = 10

	l, err := New(1000,
		WithInitialTime(float64(lag)/1000),
		WithInitialFeedback(1),
		WithInitialMix(1),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.ProcessSample(1)
	echoes := 0
	for i := 1; i < 20*lag; i++ {
		v := l.ProcessSample(0)
		if i%lag == 0 {
			if math.Abs(v-1) > 1e-9 {
				t.Fatalf("echo %d at sample %d = %v, want 1", echoes, i, v)
			}
			echoes++
		}
	}
	if echoes != 19 {
		t.Fatalf("observed %d echoes, want 19", echoes)
	}
}

func TestLine_MixBlendsDryAndWet(t *testing.T) {
	l, err := New(1000,
		WithInitialTime(0.01),
		WithInitialFeedback(0),
		WithInitialMix(0),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Fully dry: output equals input.
	in := testutil.DeterministicSine(50, 1000, 0.8, 100)
	for i, x := range in {
		if got := l.ProcessSample(x); got != x {
			t.Fatalf("sample %d: dry output %v != input %v", i, got, x)
		}
	}
}

func TestLine_ResetClearsAudio(t *testing.T) {
	l, err := New(1000, WithInitialTime(0.01), WithInitialMix(1), WithInitialFeedback(0.5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 100; i++ {
		l.ProcessSample(1)
	}
	l.Reset()

	for i := 0; i < 100; i++ {
		if v := l.ProcessSample(0); v != 0 {
			t.Fatalf("sample %d after Reset = %v, want 0", i, v)
		}
	}
}

func TestLine_HermiteImpulseResponse(t *testing.T) {
	const (
		sampleRate   = 1000.0
		delaySeconds = 0.05 // 50 samples
	)

	l, err := New(sampleRate,
		WithInitialTime(delaySeconds),
		WithInitialFeedback(0),
		WithInitialMix(1),
		WithHermiteInterpolation(),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// At a settled whole-sample delay the cubic kernel passes through its
	// center tap, so the echo comes back untouched.
	in := testutil.Impulse(200, 0)
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = l.ProcessSample(x)
	}

	lag := int(delaySeconds * sampleRate)
	if math.Abs(out[lag]-1) > 1e-9 {
		t.Fatalf("out[%d] = %v, want ~1", lag, out[lag])
	}
	for i, v := range out {
		if i == lag {
			continue
		}
		if math.Abs(v) > 1e-9 {
			t.Fatalf("out[%d] = %v, want 0", i, v)
		}
	}
}

func TestLine_HermiteStaysBoundedWhileRamping(t *testing.T) {
	l, err := New(1000,
		WithInitialTime(0.02),
		WithInitialFeedback(0.5),
		WithInitialMix(1),
		WithHermiteInterpolation(),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := testutil.DeterministicNoise(7, 1, 4000)
	var maxOut float64
	for i, x := range in {
		if i%250 == 0 {
			l.SetTargetTime(0.02 + float64(i%1000)/1000)
		}
		y := l.ProcessSample(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("sample %d: non-finite output %v", i, y)
		}
		if a := math.Abs(y); a > maxOut {
			maxOut = a
		}
	}

	// Feedback 0.5 bounds the loop; the cubic kernel's mild overshoot must
	// not break that.
	if maxOut > 4 {
		t.Fatalf("max |out| = %v, want bounded", maxOut)
	}
}
