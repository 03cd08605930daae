// Package looper implements a live overdub looper with a modulated feedback
// delay on the record path.
//
// The [Engine] processes one mono input sample at a time: while recording,
// the input runs through the delay effect, is monitored on the output, and is
// blended into the loop; while playing, the loop is read back at an
// adjustable (including reverse) speed and summed into the output. A
// low-frequency oscillator, advanced at a reduced control cadence, modulates
// the delay time.
package looper

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-looper/dsp/control"
	"github.com/cwbudde/algo-looper/dsp/core"
	"github.com/cwbudde/algo-looper/dsp/delay"
	"github.com/cwbudde/algo-looper/dsp/lfo"
	"github.com/cwbudde/algo-looper/dsp/loop"
)

const (
	defaultLoopSeconds = 20.0

	defaultDelaySeconds  = 0.5
	defaultDelayFeedback = 0.7
	defaultDelayMix      = 0.5

	defaultLFORateHz = 0.1
	defaultLFOShape  = lfo.ShapeSine
)

// Option mutates engine construction parameters.
type Option func(*engineConfig) error

type engineConfig struct {
	sampleRate      float64
	loopSeconds     float64
	controlInterval int

	overdubGain    float64
	hasOverdubGain bool

	delayOpts   []delay.Option
	lfoRateHz   float64
	lfoPhaseDeg float64
	lfoShape    lfo.Shape
	mapperOpts  []control.Option
}

func defaultEngineConfig() engineConfig {
	pc := core.DefaultProcessorConfig()
	return engineConfig{
		sampleRate:      pc.SampleRate,
		loopSeconds:     defaultLoopSeconds,
		controlInterval: pc.ControlInterval,
		lfoRateHz:       defaultLFORateHz,
		lfoShape:        defaultLFOShape,
	}
}

// WithSampleRate sets the audio sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *engineConfig) error {
		if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
			return fmt.Errorf("looper sample rate must be > 0 and finite: %f", sampleRate)
		}
		cfg.sampleRate = sampleRate
		return nil
	}
}

// WithLoopSeconds sets the loop capacity in seconds.
func WithLoopSeconds(seconds float64) Option {
	return func(cfg *engineConfig) error {
		if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("looper loop length must be > 0 and finite: %f", seconds)
		}
		cfg.loopSeconds = seconds
		return nil
	}
}

// WithControlInterval sets how many audio samples pass between control-rate
// updates. Zero disables control updates entirely: delay parameters and
// playback speed then hold their last values.
func WithControlInterval(frames int) Option {
	return func(cfg *engineConfig) error {
		if frames < 0 {
			return fmt.Errorf("looper control interval must be >= 0: %d", frames)
		}
		cfg.controlInterval = frames
		return nil
	}
}

// WithOverdubGain sets the gain applied to material blended into the loop.
func WithOverdubGain(gain float64) Option {
	return func(cfg *engineConfig) error {
		if gain < 0 || math.IsNaN(gain) || math.IsInf(gain, 0) {
			return fmt.Errorf("looper overdub gain must be >= 0 and finite: %f", gain)
		}
		cfg.overdubGain = gain
		cfg.hasOverdubGain = true
		return nil
	}
}

// WithDelayOptions forwards options to the delay line built by the engine.
func WithDelayOptions(opts ...delay.Option) Option {
	return func(cfg *engineConfig) error {
		cfg.delayOpts = append(cfg.delayOpts, opts...)
		return nil
	}
}

// WithMapperOptions forwards options to the control mapper built by the
// engine.
func WithMapperOptions(opts ...control.Option) Option {
	return func(cfg *engineConfig) error {
		cfg.mapperOpts = append(cfg.mapperOpts, opts...)
		return nil
	}
}

// WithLFORateHz sets the modulation oscillator rate.
func WithLFORateHz(rateHz float64) Option {
	return func(cfg *engineConfig) error {
		if rateHz <= 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
			return fmt.Errorf("looper lfo rate must be > 0 and finite: %f", rateHz)
		}
		cfg.lfoRateHz = rateHz
		return nil
	}
}

// WithLFOPhaseDegrees sets the modulation oscillator's initial phase.
func WithLFOPhaseDegrees(degrees float64) Option {
	return func(cfg *engineConfig) error {
		if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
			return fmt.Errorf("looper lfo phase must be finite: %f", degrees)
		}
		cfg.lfoPhaseDeg = degrees
		return nil
	}
}

// WithLFOShape sets the modulation waveform.
func WithLFOShape(shape lfo.Shape) Option {
	return func(cfg *engineConfig) error {
		cfg.lfoShape = shape
		return nil
	}
}

// Engine owns the looper signal path: a modulated feedback delay on the
// record branch, the overdub loop store, the control mapper, and the
// transport state machine.
//
// All buffers are allocated at construction; the per-sample path never
// allocates. The engine is not safe for concurrent use: one goroutine (the
// audio callback) must own it, and hosts sampling controls elsewhere should
// hand frames over through an atomic snapshot.
type Engine struct {
	line   *delay.Line
	loop   *loop.Buffer
	osc    *lfo.Oscillator
	mapper *control.Mapper

	sampleRate      float64
	controlInterval int
	tick            uint64

	recording bool
	playing   bool
	indicator bool

	lastTransport bool
	lastClear     bool
	clearArmed    bool
}

// New creates an engine with the configured signal path.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	delayOpts := append([]delay.Option{
		delay.WithInitialTime(defaultDelaySeconds),
		delay.WithInitialFeedback(defaultDelayFeedback),
		delay.WithInitialMix(defaultDelayMix),
	}, cfg.delayOpts...)
	line, err := delay.New(cfg.sampleRate, delayOpts...)
	if err != nil {
		return nil, err
	}

	capacity := int(cfg.loopSeconds * cfg.sampleRate)
	var loopOpts []loop.Option
	if cfg.hasOverdubGain {
		loopOpts = append(loopOpts, loop.WithOverdubGain(cfg.overdubGain))
	}
	loopBuf, err := loop.New(capacity, loopOpts...)
	if err != nil {
		return nil, err
	}

	// The oscillator is clocked against the audio rate but ticked only at
	// the control cadence, so its effective modulation rate scales with the
	// control interval.
	osc, err := lfo.New(cfg.sampleRate,
		lfo.WithRateHz(cfg.lfoRateHz),
		lfo.WithPhaseDegrees(cfg.lfoPhaseDeg),
		lfo.WithShape(cfg.lfoShape),
	)
	if err != nil {
		return nil, err
	}

	mapper, err := control.NewMapper(osc, line, cfg.mapperOpts...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		line:            line,
		loop:            loopBuf,
		osc:             osc,
		mapper:          mapper,
		sampleRate:      cfg.sampleRate,
		controlInterval: cfg.controlInterval,
	}, nil
}

// ProcessSample advances the engine by one audio sample.
//
// in is the live input sample; controls carries the most recently sampled
// knob values (consumed only on control ticks); transport and clear are the
// current digital button levels, from which the engine detects rising and
// falling edges itself.
func (e *Engine) ProcessSample(in float64, controls control.Frame, transport, clear bool) float64 {
	if e.controlInterval > 0 && e.tick%uint64(e.controlInterval) == 0 {
		e.loop.SetSpeed(e.mapper.Apply(controls))
	}
	e.tick++

	e.handleTransport(transport)
	e.handleClear(clear)

	out := 0.0

	if e.recording {
		processed := e.line.ProcessSample(in)
		out += processed // live monitoring
		e.loop.Write(processed)
	}

	if e.playing {
		out += e.loop.Read()
	}

	return out
}

// ProcessFrame processes one sample and duplicates the result into every
// element of outs, one per output channel.
func (e *Engine) ProcessFrame(in float64, outs []float64, controls control.Frame, transport, clear bool) {
	y := e.ProcessSample(in, controls, transport, clear)
	for i := range outs {
		outs[i] = y
	}
}

// ProcessBlock processes src into dst. The control frame and button levels
// are held for the whole block, so button edges register on the block's
// first sample.
func (e *Engine) ProcessBlock(dst, src []float64, controls control.Frame, transport, clear bool) error {
	if len(dst) != len(src) {
		return fmt.Errorf("looper block length mismatch: dst=%d src=%d", len(dst), len(src))
	}
	for i := range src {
		dst[i] = e.ProcessSample(src[i], controls, transport, clear)
	}
	return nil
}

func (e *Engine) handleTransport(pressed bool) {
	if pressed && !e.lastTransport {
		if e.recording {
			e.recording = false
			e.playing = true
			e.indicator = false
		} else {
			e.recording = true
			e.playing = true
			e.indicator = true
		}
	}
	e.lastTransport = pressed
}

func (e *Engine) handleClear(pressed bool) {
	if pressed && !e.lastClear && !e.clearArmed {
		e.loop.Clear()
		e.recording = false
		e.playing = false
		e.indicator = false
		e.clearArmed = true
	}
	if !pressed && e.lastClear {
		e.clearArmed = false
	}
	e.lastClear = pressed
}

// Reset clears all audio state and returns the transport to idle. Control
// targets (delay time, feedback, mix, speed) keep their last values.
func (e *Engine) Reset() {
	e.loop.Clear()
	e.line.Reset()
	e.recording = false
	e.playing = false
	e.indicator = false
	e.lastTransport = false
	e.lastClear = false
	e.clearArmed = false
	e.tick = 0
}

// State returns the current transport state.
func (e *Engine) State() TransportState {
	switch {
	case e.recording:
		return StateRecordAndMonitor
	case e.playing:
		return StatePlayOnly
	default:
		return StateIdle
	}
}

// Recording reports whether input is being recorded into the loop.
func (e *Engine) Recording() bool { return e.recording }

// Playing reports whether the loop is playing back.
func (e *Engine) Playing() bool { return e.playing }

// Indicator returns the record LED level: high while recording.
func (e *Engine) Indicator() bool { return e.indicator }

// SampleRate returns the audio sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Delay exposes the delay line for direct host control.
func (e *Engine) Delay() *delay.Line { return e.line }

// Loop exposes the loop buffer for direct host control.
func (e *Engine) Loop() *loop.Buffer { return e.loop }

// LFO exposes the modulation oscillator for direct host control.
func (e *Engine) LFO() *lfo.Oscillator { return e.osc }
