// Package spectral implements the windowed DFT and phase-vocoder frequency
// refinement stage of the analysis pipeline: given a normalized analysis
// frame, it produces per-bin magnitude and phase-refined instantaneous
// frequency over the musically useful low end of the spectrum.
package spectral

import (
	"errors"
	"math"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-ctuner/dsp"
)

// Scale is the empirical magnitude normalizer applied to the spectrum after
// the DC bin is zeroed.
const Scale = 2048.0

// fftPlan wraps algofft's fast/safe real-FFT plans, preferring the
// optimized FastPlanReal64 path and falling back to the generic
// PlanRealT when the optimized path is unavailable on this platform
// (algofft.ErrNotImplemented), mirroring the teacher's FFT-plan-caching
// convention.
type fftPlan struct {
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]
}

func newFFTPlan(n int) (*fftPlan, error) {
	p := &fftPlan{}

	fast, err := algofft.NewFastPlanReal64(n)
	if err == nil {
		p.fast = fast
	} else if !errors.Is(err, algofft.ErrNotImplemented) {
		return nil, err
	}

	safe, err := algofft.NewPlanReal64(n)
	if err != nil {
		if p.fast == nil {
			return nil, err
		}
	} else {
		p.safe = safe
	}

	return p, nil
}

func (p *fftPlan) forward(dst []complex128, src []float64) error {
	if p.fast != nil {
		p.fast.Forward(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Forward(dst, src)
	}
	return errors.New("spectral: missing forward FFT plan")
}

// Analyzer performs the windowed DFT and phase-vocoder frequency refinement
// for one fixed FFT size / hop size pair. It owns its scratch buffers and
// previous-phase state exclusively; Process must be called by one goroutine
// at a time on a given Analyzer (spec's single-threaded, non-reentrant
// concurrency model).
type Analyzer struct {
	n          int
	hop        int
	fs         float64
	rng        int // R = n*7/16, the analyzed bin range
	expect     float64
	oversample float64
	fps        float64 // frequency per bin = fs/n

	window []float64
	plan   *fftPlan

	windowed  []float64
	spectrum  []complex128
	prevPhase []float64
	phase     []float64

	Magnitude []float64 // xa[k] = |X[k]| / Scale
	Frequency []float64 // xf[k], phase-refined instantaneous frequency
	Diff      []float64 // dxa[k] = mag[k] - mag[k-1]
}

// NewAnalyzer constructs an Analyzer for a DFT of length n, hop size hop,
// and sample rate fs. It returns an error if n or hop is not positive; no
// other check is made (hop is not compared against n).
func NewAnalyzer(n, hop int, fs float64) (*Analyzer, error) {
	if n <= 0 {
		return nil, errors.New("spectral: fft size must be positive")
	}
	if hop <= 0 {
		return nil, errors.New("spectral: hop size must be positive")
	}

	plan, err := newFFTPlan(n)
	if err != nil {
		return nil, err
	}

	rng := n * 7 / 16

	a := &Analyzer{
		n:          n,
		hop:        hop,
		fs:         fs,
		rng:        rng,
		expect:     2 * math.Pi * float64(hop) / float64(n),
		oversample: float64(n) / float64(hop),
		fps:        fs / float64(n),
		window:     dsp.HammingWindow(n),
		plan:       plan,
		windowed:   make([]float64, n),
		spectrum:   make([]complex128, n/2+1),
		prevPhase:  make([]float64, rng),
		phase:      make([]float64, rng),
		Magnitude:  make([]float64, rng),
		Frequency:  make([]float64, rng),
		Diff:       make([]float64, rng),
	}
	return a, nil
}

// Range returns R, the number of analyzed bins (0..R-1).
func (a *Analyzer) Range() int {
	return a.rng
}

// Process windows frame (length n), runs the real DFT, and refines each
// analyzed bin's magnitude and instantaneous frequency via the phase
// vocoder, using and updating the analyzer's previous-phase state. frame is
// read-only; the Magnitude/Frequency/Diff fields are overwritten in place
// and hold this frame's results until the next Process call.
func (a *Analyzer) Process(frame []float64) error {
	for i, v := range frame {
		a.windowed[i] = v * a.window[i]
	}

	if err := a.plan.forward(a.spectrum, a.windowed); err != nil {
		return err
	}
	a.spectrum[0] = 0

	rng := a.rng

	for k := 0; k < rng; k++ {
		c := a.spectrum[k] / complex(Scale, 0)
		mag := cmplxAbs(c)

		a.phase[k] = cmplxPhase(c)
		a.Magnitude[k] = mag
		if k > 0 {
			a.Diff[k] = mag - a.Magnitude[k-1]
		}
	}

	for k := 1; k < rng; k++ {
		dp := a.phase[k] - a.prevPhase[k] - float64(k)*a.expect
		dp = unwrapToPi(dp)

		df := a.oversample * dp / (2 * math.Pi)
		a.Frequency[k] = (float64(k) + df) * a.fps
	}

	copy(a.prevPhase, a.phase)
	return nil
}

// Reset zeroes the previous-phase state, matching a freshly constructed
// Analyzer.
func (a *Analyzer) Reset() {
	for i := range a.prevPhase {
		a.prevPhase[i] = 0
	}
	for i := range a.Magnitude {
		a.Magnitude[i] = 0
		a.Frequency[i] = 0
		a.Diff[i] = 0
	}
}

// unwrapToPi subtracts the nearest multiple of 2*pi such that the result
// falls within (-pi, pi], matching the phase-vocoder's qpd-based unwrap:
// qpd is the nearest even integer to dp/pi.
func unwrapToPi(dp float64) float64 {
	qpd := int(dp / math.Pi)
	if qpd >= 0 {
		qpd += qpd & 1
	} else {
		qpd -= qpd & 1
	}
	return dp - math.Pi*float64(qpd)
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func cmplxPhase(c complex128) float64 {
	return math.Atan2(imag(c), real(c))
}
