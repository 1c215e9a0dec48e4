// Command ctuner-sweep is an accuracy harness: it synthesizes sinusoids
// across the detector's working range, feeds each through a pitch.Detector
// until its phase-vocoder state converges, and reports measured-vs-expected
// frequency and cents error in a table, in the spirit of the teacher's
// cmd/spectral-compare band-by-band comparison.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-ctuner/pitch"
)

func main() {
	sampleRate := flag.Int("sample-rate", 11025, "Analysis sample rate in Hz")
	fftSize := flag.Int("fft-size", pitch.DefaultFFTSize, "Analysis window size in samples")
	hopSize := flag.Int("hop-size", pitch.DefaultHopSize, "Hop size in samples between analysis frames")
	aReference := flag.Float64("a-reference", 440.0, "A4 reference frequency in Hz")
	loHz := flag.Float64("lo-hz", 80.0, "Sweep low frequency in Hz")
	hiHz := flag.Float64("hi-hz", 2000.0, "Sweep high frequency in Hz")
	steps := flag.Int("steps", 24, "Number of sweep points (log-spaced)")
	settleFrames := flag.Int("settle-frames", 8, "Analysis hops to discard before sampling a measurement")
	measureFrames := flag.Int("measure-frames", 4, "Analysis hops to average for the reported measurement")
	toleranceCents := flag.Float64("tolerance-cents", 5.0, "Cents error beyond which a sweep point is flagged")
	flag.Parse()

	if *loHz <= 0 || *hiHz <= *loHz {
		die("invalid sweep range [%.2f, %.2f]", *loHz, *hiHz)
	}
	if *steps < 1 {
		die("steps must be >= 1")
	}

	fmt.Printf("%-10s %-12s %-12s %-10s %-8s\n", "Expected", "Measured", "ErrHz", "Cents", "Flag")
	fmt.Printf("--------------------------------------------------------------\n")

	var worstCents float64
	flagged := 0

	logLo, logHi := math.Log(*loHz), math.Log(*hiHz)
	for i := 0; i < *steps; i++ {
		t := 0.0
		if *steps > 1 {
			t = float64(i) / float64(*steps-1)
		}
		expected := math.Exp(logLo + t*(logHi-logLo))

		measured, cents, ok := measureTone(expected, *sampleRate, *fftSize, *hopSize, *aReference, *settleFrames, *measureFrames)
		if !ok {
			fmt.Printf("%-10.2f %-12s %-12s %-10s %-8s\n", expected, "(no pitch)", "-", "-", "-")
			continue
		}

		errHz := measured - expected
		marker := ""
		if math.Abs(cents) > *toleranceCents {
			marker = "<<<"
			flagged++
		}
		if math.Abs(cents) > math.Abs(worstCents) {
			worstCents = cents
		}
		fmt.Printf("%-10.2f %-12.2f %-12.3f %-10.2f %-8s\n", expected, measured, errHz, cents, marker)
	}

	fmt.Println()
	fmt.Printf("Worst error: %.2f cents. Flagged points: %d/%d (tolerance %.1f cents)\n", worstCents, flagged, *steps, *toleranceCents)
}

// measureTone runs a pure sinusoid at hz through a fresh Detector, discards
// settleFrames hops to let the phase vocoder's frequency correction
// converge, then averages the primary peak's frequency and cents over the
// next measureFrames hops.
func measureTone(hz float64, sampleRate, fftSize, hopSize int, aReference float64, settleFrames, measureFrames int) (measuredHz, cents float64, ok bool) {
	det, err := pitch.NewDetector(sampleRate, fftSize, hopSize, aReference)
	if err != nil {
		die("failed to construct detector: %v", err)
	}

	totalFrames := settleFrames + measureFrames
	phase := 0.0
	hop := make([]float64, hopSize)

	var sumHz, sumCents float64
	var n int

	for f := 0; f < totalFrames; f++ {
		for i := range hop {
			hop[i] = 0.5 * math.Sin(phase)
			phase += 2 * math.Pi * hz / float64(sampleRate)
		}
		result := det.Process(hop)

		if f < settleFrames {
			continue
		}
		primary, found := result.Primary()
		if !found {
			continue
		}
		sumHz += primary.Frequency
		sumCents += cents1200(primary.Frequency, hz)
		n++
	}

	if n == 0 {
		return 0, 0, false
	}
	return sumHz / float64(n), sumCents / float64(n), true
}

func cents1200(measured, expected float64) float64 {
	if measured <= 0 || expected <= 0 {
		return 0
	}
	return 1200 * math.Log2(measured/expected)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
