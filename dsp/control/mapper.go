package control

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-looper/dsp/core"
	"github.com/cwbudde/algo-looper/dsp/delay"
	"github.com/cwbudde/algo-looper/dsp/lfo"
)

const (
	defaultBaseDelaySeconds    = 0.1
	defaultMaxDeviationSeconds = 1.9
	defaultMinDelaySeconds     = 0.01
	defaultMaxDelaySeconds     = 2.0

	// Raw speed in [0, 1] maps linearly onto [-2, +2].
	minSpeed   = -2.0
	speedRange = 4.0
)

// Frame carries one control tick's worth of normalized inputs, each expected
// in [0, 1]. Out-of-range values are clamped on use.
type Frame struct {
	DelayMix         float64
	DelayFeedback    float64
	LFODepth         float64
	PlaybackSpeedRaw float64
}

// Option mutates mapper construction parameters.
type Option func(*config) error

type config struct {
	baseDelaySeconds    float64
	maxDeviationSeconds float64
	minDelaySeconds     float64
	maxDelaySeconds     float64
}

func defaultMapperConfig() config {
	return config{
		baseDelaySeconds:    defaultBaseDelaySeconds,
		maxDeviationSeconds: defaultMaxDeviationSeconds,
		minDelaySeconds:     defaultMinDelaySeconds,
		maxDelaySeconds:     defaultMaxDelaySeconds,
	}
}

// WithBaseDelay sets the center delay time in seconds that the LFO modulates
// around.
func WithBaseDelay(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("control base delay must be >= 0 and finite: %f", seconds)
		}
		cfg.baseDelaySeconds = seconds
		return nil
	}
}

// WithMaxDeviation sets how far, in seconds, a full-depth LFO can push the
// delay time away from the base.
func WithMaxDeviation(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("control max deviation must be >= 0 and finite: %f", seconds)
		}
		cfg.maxDeviationSeconds = seconds
		return nil
	}
}

// WithDelayRange sets the clamp range, in seconds, applied to the modulated
// delay time before it reaches the delay line.
func WithDelayRange(minSeconds, maxSeconds float64) Option {
	return func(cfg *config) error {
		if minSeconds < 0 || minSeconds >= maxSeconds ||
			math.IsNaN(minSeconds) || math.IsNaN(maxSeconds) || math.IsInf(maxSeconds, 0) {
			return fmt.Errorf("control delay range invalid: [%f, %f]", minSeconds, maxSeconds)
		}
		cfg.minDelaySeconds = minSeconds
		cfg.maxDelaySeconds = maxSeconds
		return nil
	}
}

// Mapper translates normalized control values into delay-line parameters and
// a playback speed, advancing the modulation oscillator one tick per Apply.
//
// It holds no state of its own beyond its targets: each Apply is a pure
// transform of the frame plus the oscillator's next value.
type Mapper struct {
	osc  *lfo.Oscillator
	line *delay.Line

	baseDelaySeconds    float64
	maxDeviationSeconds float64
	minDelaySeconds     float64
	maxDelaySeconds     float64
}

// NewMapper creates a mapper driving line from osc.
func NewMapper(osc *lfo.Oscillator, line *delay.Line, opts ...Option) (*Mapper, error) {
	if osc == nil {
		return nil, fmt.Errorf("control mapper needs an oscillator")
	}
	if line == nil {
		return nil, fmt.Errorf("control mapper needs a delay line")
	}

	cfg := defaultMapperConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Mapper{
		osc:                 osc,
		line:                line,
		baseDelaySeconds:    cfg.baseDelaySeconds,
		maxDeviationSeconds: cfg.maxDeviationSeconds,
		minDelaySeconds:     cfg.minDelaySeconds,
		maxDelaySeconds:     cfg.maxDelaySeconds,
	}, nil
}

// Apply forwards the frame to the delay line, advances the oscillator one
// tick to modulate the delay-time target, and returns the mapped playback
// speed in [-2, +2].
//
// The oscillator advances once per Apply, not once per audio sample, so the
// effective modulation rate is tied to the control-tick cadence.
func (m *Mapper) Apply(frame Frame) float64 {
	m.line.SetMix(core.Clamp01(frame.DelayMix))
	m.line.SetFeedback(core.Clamp01(frame.DelayFeedback))

	speed := minSpeed + core.Clamp01(frame.PlaybackSpeedRaw)*speedRange
	depth := core.Clamp01(frame.LFODepth)

	// Oscillator [0,1] -> bipolar [-1,+1].
	mod := (m.osc.Tick() - 0.5) * 2
	offset := mod * m.maxDeviationSeconds * depth
	seconds := core.Clamp(m.baseDelaySeconds+offset, m.minDelaySeconds, m.maxDelaySeconds)
	m.line.SetTargetTime(seconds)

	return speed
}

// BaseDelay returns the center delay time in seconds.
func (m *Mapper) BaseDelay() float64 { return m.baseDelaySeconds }

// MaxDeviation returns the full-depth modulation span in seconds.
func (m *Mapper) MaxDeviation() float64 { return m.maxDeviationSeconds }
