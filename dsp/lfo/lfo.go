package lfo

import (
	"fmt"
	"math"
)

const (
	defaultRateHz       = 0.1
	defaultPhaseDegrees = 0.0
	defaultShape        = ShapeIntegratedTriangle

	// squareClipFactor controls how hard the sine is soft-clipped into a
	// square; squareMakeupGain restores the compressed swing.
	squareClipFactor = 30.0
	squareMakeupGain = 16.0

	// expRateRatio corrects the exponential segment rate so its period
	// matches the other shapes at the same nominal rate.
	expRateRatio = 1.3133
)

// Option mutates oscillator construction parameters.
type Option func(*config) error

type config struct {
	rateHz       float64
	phaseDegrees float64
	shape        Shape
}

func defaultConfig() config {
	return config{
		rateHz:       defaultRateHz,
		phaseDegrees: defaultPhaseDegrees,
		shape:        defaultShape,
	}
}

// WithRateHz sets the oscillation rate in Hz.
func WithRateHz(rateHz float64) Option {
	return func(cfg *config) error {
		if rateHz <= 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
			return fmt.Errorf("lfo rate must be > 0 and finite: %f", rateHz)
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithPhaseDegrees sets the initial phase in degrees. For the integrated
// triangle this becomes a startup hold-off during which the output stays at
// zero; for triangle and sine it offsets the waveform directly.
func WithPhaseDegrees(degrees float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
			return fmt.Errorf("lfo phase must be finite: %f", degrees)
		}
		cfg.phaseDegrees = degrees
		return nil
	}
}

// WithShape sets the initial waveform.
func WithShape(shape Shape) Option {
	return func(cfg *config) error {
		if shape < 0 || shape >= numShapes {
			return fmt.Errorf("lfo shape out of range: %d", shape)
		}
		cfg.shape = shape
		return nil
	}
}

// Oscillator is a multi-waveform low-frequency oscillator.
//
// A single Tick call advances one control tick and returns a value in (or
// near) [0, 1]. Every waveform keeps its own state, so the active shape can
// be switched at runtime without re-initialization; switching back resumes
// where that shape left off. Phase continuity across a switch is not
// guaranteed.
//
// The sine is a coupled two-state recurrence, not a trig call per tick. The
// recurrence is an approximation of a rotation and accumulates a slow
// amplitude drift over very long runs; that drift is part of the oscillator's
// character and is kept as-is.
type Oscillator struct {
	sampleRate float64
	rateHz     float64
	shape      Shape

	// Integrated triangle. The slope accumulator x sweeps between +-step;
	// its integral is the output. The *Next fields hold bounds recomputed by
	// SetRateHz that take over at the next bound crossing.
	intSlope       float64
	intX           float64
	intOut         float64
	intStep        float64
	intNegStep     float64
	intStepNext    float64
	intNegStepNext float64
	intRiseNext    float64
	intFallNext    float64
	holdoff        int

	// Triangle.
	triStep float64
	triDir  float64
	triOut  float64

	// Sine recurrence.
	sinCoeff float64
	sinPart  float64
	cosPart  float64

	// RC relaxation: one-pole integrator chasing a toggling drive level.
	rlxPole  float64
	rlxGain  float64
	rlxDrive float64
	rlxHigh  float64
	rlxLow   float64
	rlxOut   float64

	// Exponential rise/fall segments.
	expShrink float64
	expGrow   float64
	expFactor float64
	expFloor  float64
	expCeil   float64
	expState  float64
}

// New creates an oscillator for the given sample (or control-tick) rate.
func New(sampleRate float64, opts ...Option) (*Oscillator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
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

	o := &Oscillator{
		sampleRate: sampleRate,
		rateHz:     cfg.rateHz,
		shape:      cfg.shape,
	}
	o.initState(cfg.rateHz, cfg.phaseDegrees)
	return o, nil
}

// initState seeds every waveform's state from rate and phase.
func (o *Oscillator) initState(rateHz, phaseDegrees float64) {
	ts := 1.0 / o.sampleRate
	frq := 2.0 * rateHz
	t := 4.0 * frq * frq * ts * ts

	// The phase offset becomes a tick countdown during which the integrated
	// triangle holds at zero.
	p := phaseDegrees / 180.0
	if p < 0 {
		p = -p
	}
	p /= frq
	p *= o.sampleRate
	o.holdoff = int(p)

	o.intStep = 2.0 * ts * frq
	o.intStepNext = o.intStep
	o.intNegStep = -2.0 * ts * frq
	o.intNegStepNext = o.intNegStep
	o.intRiseNext = t
	o.intFallNext = -t
	o.intSlope = t
	o.intX = 0
	o.intOut = 0

	o.triStep = frq / o.sampleRate
	o.triDir = 1
	p = frq * phaseDegrees / (360.0 * rateHz)
	if p >= 1 {
		p -= 1
		o.triDir = -1
	}
	if p < 0 {
		p = 0
		o.triDir = 1
	}
	o.triOut = p

	o.sinCoeff = math.Pi * frq / o.sampleRate
	o.sinPart = math.Sin(2 * math.Pi * phaseDegrees / 360.0)
	o.cosPart = math.Cos(2 * math.Pi * phaseDegrees / 360.0)

	ie := 1.0 / (1.0 - 1.0/math.E)
	k := math.Exp(-2.0 * rateHz / o.sampleRate)
	o.rlxPole = k
	o.rlxGain = 1.0 - k
	o.rlxDrive = ie
	o.rlxHigh = ie
	o.rlxLow = 1.0 - ie
	o.rlxOut = 0

	k = math.Exp(-2.0 * expRateRatio * rateHz / o.sampleRate)
	o.expShrink = k
	o.expGrow = 1.0 / k
	o.expFactor = k
	o.expFloor = 1.0 / math.E
	o.expCeil = 1.0 + 1.0/math.E
	o.expState = o.expFloor
}

// SetRateHz changes the oscillation rate at runtime. Constants for every
// waveform are recomputed so a shape switch after a rate change needs no
// re-initialization. Waveform state is preserved; the integrated triangle
// adopts its new bounds at the next slope reversal.
func (o *Oscillator) SetRateHz(rateHz float64) error {
	if rateHz <= 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
		return fmt.Errorf("lfo rate must be > 0 and finite: %f", rateHz)
	}

	ts := 1.0 / o.sampleRate
	frq := 2.0 * rateHz
	t := 4.0 * frq * frq * ts * ts

	o.rateHz = rateHz

	o.intStepNext = 2.0 * ts * frq
	o.intNegStepNext = -2.0 * ts * frq
	o.intRiseNext = t
	o.intFallNext = -t

	o.triStep = frq / o.sampleRate

	o.sinCoeff = math.Pi * frq / o.sampleRate

	k := math.Exp(-2.0 * rateHz / o.sampleRate)
	o.rlxPole = k
	o.rlxGain = 1.0 - k

	k = math.Exp(-2.0 * expRateRatio * rateHz / o.sampleRate)
	o.expShrink = k
	o.expGrow = 1.0 / k
	if o.expFactor >= 1 {
		o.expFactor = o.expGrow
	} else {
		o.expFactor = o.expShrink
	}
	if o.expState < o.expFloor {
		o.expState = o.expFloor
	}
	if o.expState > o.expCeil {
		o.expState = o.expCeil
	}

	return nil
}

// SetShape switches the active waveform. The switch takes effect on the next
// Tick.
func (o *Oscillator) SetShape(shape Shape) error {
	if shape < 0 || shape >= numShapes {
		return fmt.Errorf("lfo shape out of range: %d", shape)
	}
	o.shape = shape
	return nil
}

// Tick advances the oscillator by one control tick and returns the current
// value. Most shapes stay inside [0, 1]; the square can overshoot slightly.
func (o *Oscillator) Tick() float64 {
	switch o.shape {
	case ShapeIntegratedTriangle:
		return o.tickIntegratedTriangle()
	case ShapeTriangle:
		return o.tickTriangle()
	case ShapeSine:
		return o.tickSine()
	case ShapeSquare:
		v := o.tickSine() - 0.5
		if v > 0 {
			v *= 1.0 / (1.0 + squareClipFactor*v)
		} else {
			v *= 1.0 / (1.0 - squareClipFactor*v)
		}
		v *= squareMakeupGain
		return v + 0.5
	case ShapeExponential:
		return o.tickExponential()
	case ShapeRelaxation:
		return o.tickRelaxation()
	case ShapeHyper:
		v := o.tickIntegratedTriangle()
		return 1.0 - math.Abs(v-0.5)
	case ShapeHyperSine:
		v := o.tickSine()
		return 1.0 - math.Abs(v-0.5)
	default:
		return o.tickIntegratedTriangle()
	}
}

func (o *Oscillator) tickIntegratedTriangle() float64 {
	if o.holdoff > 0 {
		o.holdoff--
		o.intOut = 0
		return 0
	}

	o.intX += o.intSlope
	if o.intX >= o.intStep {
		o.intSlope = o.intFallNext
		// Pending rate change lands here.
		o.intX = o.intStepNext
		o.intStep = o.intStepNext
		o.intNegStep = o.intNegStepNext
	} else if o.intX <= o.intNegStep {
		o.intSlope = o.intRiseNext
		o.intX = o.intNegStepNext
		o.intStep = o.intStepNext
		o.intNegStep = o.intNegStepNext
	}

	o.intOut += o.intX
	if o.intOut > 1 {
		o.intOut = 1
	}
	if o.intOut < 0 {
		o.intOut = 0
	}
	return o.intOut
}

func (o *Oscillator) tickTriangle() float64 {
	o.triOut += o.triStep * o.triDir
	if o.triOut >= 1 {
		o.triDir = -1
	}
	if o.triOut <= 0 {
		o.triDir = 1
	}
	return o.triOut
}

func (o *Oscillator) tickSine() float64 {
	o.sinPart += o.cosPart * o.sinCoeff
	o.cosPart -= o.sinPart * o.sinCoeff
	return 0.5 * (1.0 + o.cosPart)
}

func (o *Oscillator) tickRelaxation() float64 {
	o.rlxOut = o.rlxDrive*o.rlxGain + o.rlxPole*o.rlxOut
	if o.rlxOut >= 1 {
		o.rlxDrive = o.rlxLow
	} else if o.rlxOut <= 0 {
		o.rlxDrive = o.rlxHigh
	}
	return o.rlxOut
}

func (o *Oscillator) tickExponential() float64 {
	o.expState *= o.expFactor
	if o.expState >= o.expCeil {
		o.expFactor = o.expShrink
	} else if o.expState <= o.expFloor {
		o.expFactor = o.expGrow
	}
	return o.expState - o.expFloor
}

// SampleRate returns the tick rate in Hz.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// RateHz returns the oscillation rate in Hz.
func (o *Oscillator) RateHz() float64 { return o.rateHz }

// Shape returns the active waveform.
func (o *Oscillator) Shape() Shape { return o.shape }
