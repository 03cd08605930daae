package loop

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-looper/dsp/core"
)

const (
	defaultOverdubGain = 0.75

	maxSpeed = 2.0
)

// Option mutates loop buffer construction parameters.
type Option func(*config) error

type config struct {
	overdubGain float64
}

// WithOverdubGain sets the gain applied to material blended into the loop on
// each write. Values below 1 keep stacked overdub layers from clipping.
func WithOverdubGain(gain float64) Option {
	return func(cfg *config) error {
		if gain < 0 || math.IsNaN(gain) || math.IsInf(gain, 0) {
			return fmt.Errorf("loop overdub gain must be >= 0 and finite: %f", gain)
		}
		cfg.overdubGain = gain
		return nil
	}
}

// Buffer is a fixed-capacity circular recording store with additive overdub
// writes and a speed-controlled playback cursor.
//
// The write cursor always advances one sample per Write while the read
// position advances by the playback speed per Read, over the same storage.
// The two cursors are deliberately unsynchronized: there is no recorded-loop
// length, the whole capacity is the loop. It behaves more like an endless
// tape than a length-synced loop; at non-unity speeds read and write drift
// apart freely.
//
// Read truncates the fractional read position to the sample below instead of
// interpolating, so fractional speeds alias audibly. The aliased
// double-speed and reverse playback is part of the instrument's sound.
type Buffer struct {
	samples     []float64
	overdubGain float64

	write   int
	readPos float64
	speed   float64
}

// New creates a loop buffer holding capacity samples. Capacity must be > 1.
func New(capacity int, opts ...Option) (*Buffer, error) {
	if capacity <= 1 {
		return nil, fmt.Errorf("loop capacity must be > 1: %d", capacity)
	}

	cfg := config{overdubGain: defaultOverdubGain}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Buffer{
		samples:     make([]float64, capacity),
		overdubGain: cfg.overdubGain,
		speed:       1,
	}, nil
}

// Write blends sample onto the loop at the write cursor and advances the
// cursor by one. Writes are always additive; existing layers are never
// erased.
func (b *Buffer) Write(sample float64) {
	b.samples[b.write] += sample * b.overdubGain
	b.write++
	if b.write >= len(b.samples) {
		b.write = 0
	}
}

// Read returns the sample under the read position, then advances the
// position by the playback speed, wrapping once at either end. Speed is
// bounded well below the capacity, so a single wrap step suffices per
// direction; the lower wrap can round to exactly the capacity for read
// positions a hair below zero, so the upper bound is checked after it.
func (b *Buffer) Read() float64 {
	out := b.samples[int(b.readPos)]

	b.readPos += b.speed
	size := float64(len(b.samples))
	if b.readPos < 0 {
		b.readPos += size
	}
	if b.readPos >= size {
		b.readPos -= size
	}

	return out
}

// SetSpeed sets the playback speed, clamped to [-2, 2]. Negative values play
// in reverse; zero freezes the read position. Non-finite values are ignored.
func (b *Buffer) SetSpeed(speed float64) {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return
	}
	b.speed = core.Clamp(speed, -maxSpeed, maxSpeed)
}

// Clear zeroes the whole loop and resets both cursors. Calling it again on a
// cleared buffer is a no-op.
//
// This is O(capacity): for multi-second loops invoked from inside the audio
// callback it is a latency-spike hazard. Hosts with tight deadlines should
// trigger it from a control context.
func (b *Buffer) Clear() {
	core.Zero(b.samples)
	b.write = 0
	b.readPos = 0
}

// Len returns the loop capacity in samples.
func (b *Buffer) Len() int { return len(b.samples) }

// At returns the stored sample at index i.
func (b *Buffer) At(i int) float64 { return b.samples[i] }

// WriteCursor returns the current write index.
func (b *Buffer) WriteCursor() int { return b.write }

// ReadPosition returns the fractional read position in [0, capacity).
func (b *Buffer) ReadPosition() float64 { return b.readPos }

// Speed returns the playback speed in [-2, 2].
func (b *Buffer) Speed() float64 { return b.speed }
