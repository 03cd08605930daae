package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-looper/dsp/core"
	"github.com/cwbudde/algo-looper/dsp/interp"
)

const (
	defaultBufferSeconds = 2.0
	defaultSmoothing     = 0.01
	defaultTimeSeconds   = 0.5
	defaultFeedback      = 0.5
	defaultMix           = 0.5
)

// Option mutates delay line construction parameters.
type Option func(*config) error

type config struct {
	bufferSeconds float64
	smoothing     float64
	timeSeconds   float64
	feedback      float64
	mix           float64
	hermite       bool
}

func defaultConfig() config {
	return config{
		bufferSeconds: defaultBufferSeconds,
		smoothing:     defaultSmoothing,
		timeSeconds:   defaultTimeSeconds,
		feedback:      defaultFeedback,
		mix:           defaultMix,
	}
}

// WithBufferSeconds sets the delay buffer capacity in seconds. The capacity
// bounds the longest reachable delay time.
func WithBufferSeconds(seconds float64) Option {
	return func(cfg *config) error {
		if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("delay buffer seconds must be > 0 and finite: %f", seconds)
		}
		cfg.bufferSeconds = seconds
		return nil
	}
}

// WithTimeSmoothing sets the one-pole smoothing coefficient in [0, 1] applied
// to delay-time changes. Higher values track the target faster; 1 snaps
// immediately.
func WithTimeSmoothing(coefficient float64) Option {
	return func(cfg *config) error {
		if coefficient < 0 || coefficient > 1 || math.IsNaN(coefficient) {
			return fmt.Errorf("delay smoothing must be in [0, 1]: %f", coefficient)
		}
		cfg.smoothing = coefficient
		return nil
	}
}

// WithInitialTime sets the starting delay time in seconds. The smoothing
// state starts settled at this time.
func WithInitialTime(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("delay time must be >= 0 and finite: %f", seconds)
		}
		cfg.timeSeconds = seconds
		return nil
	}
}

// WithInitialFeedback sets the starting feedback amount in [0, 1].
func WithInitialFeedback(feedback float64) Option {
	return func(cfg *config) error {
		if feedback < 0 || feedback > 1 || math.IsNaN(feedback) {
			return fmt.Errorf("delay feedback must be in [0, 1]: %f", feedback)
		}
		cfg.feedback = feedback
		return nil
	}
}

// WithInitialMix sets the starting wet amount in [0, 1].
func WithInitialMix(mix float64) Option {
	return func(cfg *config) error {
		if mix < 0 || mix > 1 || math.IsNaN(mix) {
			return fmt.Errorf("delay mix must be in [0, 1]: %f", mix)
		}
		cfg.mix = mix
		return nil
	}
}

// WithHermiteInterpolation switches the fractional read from 2-point linear
// to 4-point cubic Hermite interpolation. Costs two extra taps per sample and
// smooths heavily modulated delay times.
func WithHermiteInterpolation() Option {
	return func(cfg *config) error {
		cfg.hermite = true
		return nil
	}
}

// Line is a feedback delay with a smoothed, fractionally-interpolated delay
// time.
//
// Delay-time changes never jump: SetTargetTime only moves a target, and the
// effective delay chases it through one-pole smoothing inside ProcessSample,
// which keeps modulation click-free. The fractional read position is resolved
// with linear interpolation, or 4-point Hermite when enabled through
// [WithHermiteInterpolation].
//
// The feedback path regenerates from input plus the delayed signal, not from
// the mixed output, so loop gain depends on the feedback setting alone: at
// feedback 1.0 the line sustains indefinitely regardless of mix.
type Line struct {
	sampleRate float64
	buffer     []float64
	write      int

	current   float64 // smoothed delay in samples
	target    float64
	smoothing float64
	feedback  float64
	mix       float64
	hermite   bool
}

// New creates a delay line. The buffer is allocated once here; processing
// never allocates.
func New(sampleRate float64, opts ...Option) (*Line, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	capacity := int(math.Ceil(cfg.bufferSeconds*sampleRate)) + 1
	if capacity <= 1 {
		return nil, fmt.Errorf("delay capacity must be > 1: %d", capacity)
	}

	l := &Line{
		sampleRate: sampleRate,
		buffer:     make([]float64, capacity),
		smoothing:  cfg.smoothing,
		feedback:   cfg.feedback,
		mix:        cfg.mix,
		hermite:    cfg.hermite,
	}
	l.SetTargetTime(cfg.timeSeconds)
	l.current = l.target
	return l, nil
}

// SetTargetTime sets the delay-time target in seconds. The value is truncated
// to a whole sample count and clamped to the buffer capacity; the effective
// delay ramps toward it during processing. Non-finite values are ignored.
func (l *Line) SetTargetTime(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return
	}
	samples := math.Floor(seconds * l.sampleRate)
	l.target = core.Clamp(samples, 0, float64(len(l.buffer)-1))
}

// SetFeedback sets the feedback amount, clamped to [0, 1]. Non-finite values
// are ignored.
func (l *Line) SetFeedback(feedback float64) {
	if math.IsNaN(feedback) || math.IsInf(feedback, 0) {
		return
	}
	l.feedback = core.Clamp01(feedback)
}

// SetMix sets the wet amount, clamped to [0, 1]. Non-finite values are
// ignored.
func (l *Line) SetMix(mix float64) {
	if math.IsNaN(mix) || math.IsInf(mix, 0) {
		return
	}
	l.mix = core.Clamp01(mix)
}

// ProcessSample processes one sample.
func (l *Line) ProcessSample(input float64) float64 {
	l.current += l.smoothing * (l.target - l.current)

	size := float64(len(l.buffer))
	pos := float64(l.write) - l.current
	for pos < 0 {
		pos += size
	}
	for pos >= size {
		pos -= size
	}

	i0 := int(pos)
	frac := pos - float64(i0)
	i1 := i0 + 1
	if i1 >= len(l.buffer) {
		i1 = 0
	}

	var delayed float64
	if l.hermite {
		im1 := i0 - 1
		if im1 < 0 {
			im1 = len(l.buffer) - 1
		}
		i2 := i1 + 1
		if i2 >= len(l.buffer) {
			i2 = 0
		}
		delayed = interp.Hermite4(frac, l.buffer[im1], l.buffer[i0], l.buffer[i1], l.buffer[i2])
	} else {
		delayed = interp.Linear2(frac, l.buffer[i0], l.buffer[i1])
	}

	output := (1-l.mix)*input + l.mix*delayed

	l.buffer[l.write] = core.FlushDenormals(input + delayed*l.feedback)
	l.write++
	if l.write >= len(l.buffer) {
		l.write = 0
	}

	return output
}

// ProcessInPlace applies the delay to buf in place.
func (l *Line) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = l.ProcessSample(buf[i])
	}
}

// Reset clears stored audio and settles the smoother at the current target.
func (l *Line) Reset() {
	core.Zero(l.buffer)
	l.write = 0
	l.current = l.target
}

// Len returns the buffer capacity in samples.
func (l *Line) Len() int { return len(l.buffer) }

// SampleRate returns the sample rate in Hz.
func (l *Line) SampleRate() float64 { return l.sampleRate }

// CurrentDelaySamples returns the smoothed effective delay in samples.
func (l *Line) CurrentDelaySamples() float64 { return l.current }

// TargetDelaySamples returns the delay target in samples.
func (l *Line) TargetDelaySamples() float64 { return l.target }

// Feedback returns the feedback amount in [0, 1].
func (l *Line) Feedback() float64 { return l.feedback }

// Mix returns the wet amount in [0, 1].
func (l *Line) Mix() float64 { return l.mix }
