// Command looper runs the tape looper and modulated delay engine against
// the default soundcard: mono input, stereo output.
//
// Usage:
//
//	looper [flags]
//
// Interactive commands on stdin, one per line:
//
//	r             toggle record / play
//	c             clear the loop
//	mix <0..1>    delay wet/dry mix
//	fb <0..1>     delay feedback
//	depth <0..1>  modulation depth
//	speed <0..1>  playback speed knob (0.5 freezes, above 0.75 doubles)
//	shape <name>  lfo shape (triangle, sine, square, ...)
//	rate <hz>     lfo rate
//	q             quit
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	pa "github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-looper/dsp/control"
	"github.com/cwbudde/algo-looper/dsp/core"
	"github.com/cwbudde/algo-looper/dsp/lfo"
	"github.com/cwbudde/algo-looper/looper"
)

var shapeNames = map[string]lfo.Shape{
	"itriangle": lfo.ShapeIntegratedTriangle,
	"triangle":  lfo.ShapeTriangle,
	"sine":      lfo.ShapeSine,
	"square":    lfo.ShapeSquare,
	"exp":       lfo.ShapeExponential,
	"rc":        lfo.ShapeRelaxation,
	"hyper":     lfo.ShapeHyper,
	"hypersine": lfo.ShapeHyperSine,
}

// shared state between the stdin reader and the audio callback; the frame
// pointer is swapped whole so the callback never sees a half-written set
// of knob values.
type surface struct {
	frame     atomic.Pointer[control.Frame]
	transport atomic.Bool
	clear     atomic.Bool
	shapeReq  atomic.Int32  // -1 when empty
	rateReq   atomic.Uint64 // Float64bits, NaN when empty
}

func (s *surface) update(mutate func(*control.Frame)) {
	next := *s.frame.Load()
	mutate(&next)
	s.frame.Store(&next)
}

func main() {
	sampleRate := flag.Float64("sr", 44100, "sample rate in Hz")
	blockSize := flag.Int("block", 256, "frames per audio block")
	loopSeconds := flag.Float64("loop", 20, "loop capacity in seconds")
	controlEvery := flag.Int("control", 16, "samples between control updates (0 freezes)")
	lfoRate := flag.Float64("lfo", 0.1, "initial lfo rate in Hz")
	shapeName := flag.String("shape", "sine", "initial lfo shape")
	flag.Parse()

	shape, ok := shapeNames[strings.ToLower(*shapeName)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown shape %q, one of:", *shapeName)
		for name := range shapeNames {
			fmt.Fprintf(os.Stderr, " %s", name)
		}
		fmt.Fprintln(os.Stderr)
		os.Exit(2)
	}

	// Invalid rate/block/interval flags fall back to the defaults.
	pc := core.ApplyProcessorOptions(
		core.WithSampleRate(*sampleRate),
		core.WithBlockSize(*blockSize),
		core.WithControlInterval(*controlEvery),
	)

	engine, err := looper.New(
		looper.WithSampleRate(pc.SampleRate),
		looper.WithLoopSeconds(*loopSeconds),
		looper.WithControlInterval(pc.ControlInterval),
		looper.WithLFORateHz(*lfoRate),
		looper.WithLFOShape(shape),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := pa.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "unable to set up portaudio: %s\n", err)
		os.Exit(1)
	}
	defer pa.Terminate()

	ctrl := &surface{}
	ctrl.frame.Store(&control.Frame{
		DelayMix:         0.5,
		DelayFeedback:    0.7,
		LFODepth:         0.0,
		PlaybackSpeedRaw: 0.75, // unity speed
	})
	ctrl.shapeReq.Store(-1)
	ctrl.rateReq.Store(math.Float64bits(math.NaN()))

	src := make([]float64, pc.BlockSize)
	dst := make([]float64, pc.BlockSize)
	lastState := looper.StateIdle

	callback := func(in []float32, out [][]float32) {
		if s := ctrl.shapeReq.Swap(-1); s >= 0 {
			_ = engine.LFO().SetShape(lfo.Shape(s))
		}
		if r := math.Float64frombits(ctrl.rateReq.Swap(math.Float64bits(math.NaN()))); !math.IsNaN(r) {
			_ = engine.LFO().SetRateHz(r)
		}

		src = core.EnsureLen(src, len(in))
		dst = core.EnsureLen(dst, len(in))
		for i := range in {
			src[i] = float64(in[i])
		}
		frame := *ctrl.frame.Load()
		transport := ctrl.transport.Swap(false)
		clear := ctrl.clear.Swap(false)
		if err := engine.ProcessBlock(dst, src, frame, transport, clear); err != nil {
			return
		}
		for i := range in {
			for ch := range out {
				out[ch][i] = float32(dst[i])
			}
		}

		if state := engine.State(); state != lastState {
			lastState = state
			fmt.Printf("\r[%s]  \n> ", state)
		}
	}

	stream, err := pa.OpenDefaultStream(1, 2, pc.SampleRate, pc.BlockSize, callback)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to open duplex stream: %s\n", err)
		os.Exit(1)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer stream.Stop()

	printBanner(pc.SampleRate, pc.BlockSize, *loopSeconds, shape)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		fmt.Print("> ")
		select {
		case <-sig:
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleCommand(ctrl, line); quit {
				return
			}
		}
	}
}

func handleCommand(ctrl *surface, line string) (quit bool) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}

	arg := func() (float64, bool) {
		if len(fields) < 2 {
			fmt.Printf("%s needs a value\n", fields[0])
			return 0, false
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			fmt.Printf("bad value %q\n", fields[1])
			return 0, false
		}
		return v, true
	}

	switch fields[0] {
	case "r":
		ctrl.transport.Store(true)
	case "c":
		ctrl.clear.Store(true)
	case "mix":
		if v, ok := arg(); ok {
			ctrl.update(func(f *control.Frame) { f.DelayMix = v })
		}
	case "fb":
		if v, ok := arg(); ok {
			ctrl.update(func(f *control.Frame) { f.DelayFeedback = v })
		}
	case "depth":
		if v, ok := arg(); ok {
			ctrl.update(func(f *control.Frame) { f.LFODepth = v })
		}
	case "speed":
		if v, ok := arg(); ok {
			ctrl.update(func(f *control.Frame) { f.PlaybackSpeedRaw = v })
		}
	case "shape":
		if len(fields) < 2 {
			fmt.Println("shape needs a name")
			return false
		}
		shape, ok := shapeNames[fields[1]]
		if !ok {
			fmt.Printf("unknown shape %q\n", fields[1])
			return false
		}
		ctrl.shapeReq.Store(int32(shape))
	case "rate":
		if v, ok := arg(); ok && v > 0 {
			ctrl.rateReq.Store(math.Float64bits(v))
		}
	case "q", "quit":
		return true
	default:
		fmt.Printf("unknown command %q\n", fields[0])
	}
	return false
}

func printBanner(sampleRate float64, blockSize int, loopSeconds float64, shape lfo.Shape) {
	fmt.Println(strings.Split(pa.VersionText(), ",")[0])
	if api, err := pa.DefaultHostApi(); err == nil {
		fmt.Printf("host api: %s\n", api.Type)
	}
	if d, err := pa.DefaultInputDevice(); err == nil {
		fmt.Printf("input:  %s\n", d.Name)
	}
	if d, err := pa.DefaultOutputDevice(); err == nil {
		fmt.Printf("output: %s\n", d.Name)
	}
	fmt.Printf("sr %.0f Hz, block %d, loop %.1f s, lfo %s\n", sampleRate, blockSize, loopSeconds, shape)
	fmt.Println("commands: r c mix fb depth speed shape rate q")
}
