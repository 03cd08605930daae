package lfo

import "testing"

func benchmarkShape(b *testing.B, shape Shape) {
	osc, _ := New(48000, WithShape(shape), WithRateHz(2))

	x := 0.0

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		x = osc.Tick()
	}

	_ = x
}

func BenchmarkOscillatorIntegratedTriangle(b *testing.B) {
	benchmarkShape(b, ShapeIntegratedTriangle)
}

func BenchmarkOscillatorSine(b *testing.B) {
	benchmarkShape(b, ShapeSine)
}

func BenchmarkOscillatorSquare(b *testing.B) {
	benchmarkShape(b, ShapeSquare)
}

func BenchmarkOscillatorRelaxation(b *testing.B) {
	benchmarkShape(b, ShapeRelaxation)
}
