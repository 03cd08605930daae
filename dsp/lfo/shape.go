package lfo

// Shape selects the oscillator waveform.
type Shape int

const (
	// ShapeIntegratedTriangle integrates a triangular slope into a
	// quasi-sinusoidal curve with a linear rate of change.
	ShapeIntegratedTriangle Shape = iota
	// ShapeTriangle is a plain linear up/down ramp.
	ShapeTriangle
	// ShapeSine is a sine approximated by a coupled two-state recurrence.
	ShapeSine
	// ShapeSquare is a click-free square derived from the sine by
	// soft-clipping.
	ShapeSquare
	// ShapeExponential alternates exponential rise and fall segments.
	ShapeExponential
	// ShapeRelaxation models an RC relaxation oscillator: a one-pole
	// integrator chasing a toggling target level.
	ShapeRelaxation
	// ShapeHyper folds the integrated triangle around 0.5, giving a smooth
	// trough and a sharp peak.
	ShapeHyper
	// ShapeHyperSine folds the sine the same way.
	ShapeHyperSine

	numShapes
)

// String returns the waveform display name.
func (s Shape) String() string {
	switch s {
	case ShapeIntegratedTriangle:
		return "INTEGRATED TRIANGLE"
	case ShapeTriangle:
		return "TRIANGLE"
	case ShapeSine:
		return "SINE"
	case ShapeSquare:
		return "SQUARE"
	case ShapeExponential:
		return "EXPONENTIAL"
	case ShapeRelaxation:
		return "RC RELAXATION"
	case ShapeHyper:
		return "HYPER"
	case ShapeHyperSine:
		return "HYPER_SINE"
	default:
		return "DEFAULT: INTEGRATED TRIANGLE"
	}
}
