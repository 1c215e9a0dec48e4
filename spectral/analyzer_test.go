package spectral

import (
	"math"
	"testing"
)

const testSampleRate = 11025.0

func TestNewAnalyzerRejectsInvalidSizes(t *testing.T) {
	if _, err := NewAnalyzer(0, 64, testSampleRate); err == nil {
		t.Error("expected error for n=0")
	}
	if _, err := NewAnalyzer(1024, 0, testSampleRate); err == nil {
		t.Error("expected error for hop=0")
	}
}

func TestAnalyzerRangeIsSevenSixteenthsOfN(t *testing.T) {
	a, err := NewAnalyzer(1024, 256, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := a.Range(), 1024*7/16; got != want {
		t.Errorf("Range() = %d, want %d", got, want)
	}
}

// TestAnalyzerSinusoidPeaksNearExpectedBin feeds a pure sinusoid and checks
// that the strongest analyzed bin's refined frequency lands close to the
// true tone frequency, exercising the phase-vocoder refinement end to end.
func TestAnalyzerSinusoidPeaksNearExpectedBin(t *testing.T) {
	const n = 2048
	const hop = 512
	const toneHz = 440.0

	a, err := NewAnalyzer(n, hop, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}

	frame := make([]float64, n)

	// Run several hops so the phase-vocoder's previous-phase state settles;
	// each frame starts hop samples after the previous one.
	var lastFreq, lastMag float64
	for iter := 0; iter < 6; iter++ {
		for i := 0; i < n; i++ {
			frame[i] = math.Sin(2 * math.Pi * toneHz * float64(iter*hop+i) / testSampleRate)
		}
		if err := a.Process(frame); err != nil {
			t.Fatal(err)
		}

		maxMag := 0.0
		maxIdx := 0
		for k, m := range a.Magnitude {
			if m > maxMag {
				maxMag = m
				maxIdx = k
			}
		}
		lastFreq = a.Frequency[maxIdx]
		lastMag = maxMag
	}

	if lastMag <= 0 {
		t.Fatal("expected nonzero peak magnitude")
	}
	if math.Abs(lastFreq-toneHz) > 2.0 {
		t.Errorf("refined frequency = %v, want close to %v", lastFreq, toneHz)
	}
}

func TestAnalyzerResetMatchesFreshInstance(t *testing.T) {
	const n = 1024
	const hop = 256

	a, err := NewAnalyzer(n, hop, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := NewAnalyzer(n, hop, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}

	frame := make([]float64, n)
	phase := 0.0
	for i := 0; i < n; i++ {
		frame[i] = math.Sin(phase)
		phase += 2 * math.Pi * 300.0 / testSampleRate
	}
	if err := a.Process(frame); err != nil {
		t.Fatal(err)
	}
	a.Reset()

	for k := range fresh.Magnitude {
		if a.Magnitude[k] != fresh.Magnitude[k] || a.Frequency[k] != fresh.Frequency[k] || a.Diff[k] != fresh.Diff[k] {
			t.Fatalf("bin %d differs after Reset: got mag=%v freq=%v diff=%v, want mag=%v freq=%v diff=%v",
				k, a.Magnitude[k], a.Frequency[k], a.Diff[k], fresh.Magnitude[k], fresh.Frequency[k], fresh.Diff[k])
		}
	}
}

func TestUnwrapToPiStaysInRange(t *testing.T) {
	cases := []float64{0, math.Pi, -math.Pi, 3 * math.Pi, -3 * math.Pi, 10.5}
	for _, dp := range cases {
		got := unwrapToPi(dp)
		if got > math.Pi+1e-9 || got <= -math.Pi-1e-9 {
			t.Errorf("unwrapToPi(%v) = %v, out of (-pi, pi]", dp, got)
		}
	}
}
