package accordion

import (
	"math"

	approx "github.com/cwbudde/algo-approx"
	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-ctuner/dsp"
)

// displayMinHz/displayMaxHz bound the optional display spectrum to the
// musically useful accordion range.
const (
	displayMinHz = 20.0
	displayMaxHz = 2000.0

	// displayZeroPad multiplies the analysis window for extra visual
	// frequency resolution; the result is never used for detection, only
	// rendering, so the cost of a much larger transform is acceptable.
	displayZeroPad = 16
)

// displaySpectrum holds the cached zero-padded FFT plan used to build
// SpectrumData, built lazily on first use since it is far larger than the
// detection-path transform and many callers never enable it.
type displaySpectrum struct {
	fftSize    int
	paddedSize int
	sampleRate float64
	window     []float64
	padded     []float64
	spectrum   []complex128
	plan       *algofft.PlanRealT[float64, complex128]
}

func newDisplaySpectrum(fftSize, sampleRate int) *displaySpectrum {
	padded := fftSize * displayZeroPad
	return &displaySpectrum{
		fftSize:    fftSize,
		paddedSize: padded,
		sampleRate: float64(sampleRate),
		window:     dsp.HammingWindow(fftSize),
		padded:     make([]float64, padded),
		spectrum:   make([]complex128, padded/2+1),
	}
}

func (s *displaySpectrum) ensurePlan() error {
	if s.plan != nil {
		return nil
	}
	plan, err := algofft.NewPlanReal64(s.paddedSize)
	if err != nil {
		return err
	}
	s.plan = plan
	return nil
}

func (s *displaySpectrum) compute(samples []float64) (*SpectrumData, error) {
	if err := s.ensurePlan(); err != nil {
		return nil, err
	}

	for i := range s.padded {
		s.padded[i] = 0
	}

	n := len(samples)
	var tail []float64
	if n >= s.fftSize {
		tail = samples[n-s.fftSize:]
	} else {
		tail = samples
	}
	for i, v := range tail {
		s.padded[i] = v * s.window[i]
	}

	if err := s.plan.Forward(s.spectrum, s.padded); err != nil {
		return nil, err
	}

	binHz := s.sampleRate / float64(s.paddedSize)

	var freqs, mags []float64
	maxMag := 0.0
	for k, c := range s.spectrum {
		hz := float64(k) * binHz
		if hz < displayMinHz || hz > displayMaxHz {
			continue
		}
		mag := math.Hypot(real(c), imag(c))
		freqs = append(freqs, hz)
		mags = append(mags, mag)
		if mag > maxMag {
			maxMag = mag
		}
	}

	if maxMag > 0 {
		for i, m := range mags {
			// Visual compression toward sqrt(x), computed via the fast
			// pow2/log2-based approximate exponential rather than
			// math.Sqrt: acceptable here because the display spectrum
			// carries no cent-accuracy invariant, unlike every other
			// frequency computation in this module.
			if m <= 0 {
				mags[i] = 0
				continue
			}
			mags[i] = pow2Approx(0.5 * log2Safe(m/maxMag))
		}
	}

	return &SpectrumData{Frequencies: freqs, Magnitudes: mags}, nil
}

func (d *Detector) computeSpectrum(samples []float64) *SpectrumData {
	if d.spectrumPlan == nil {
		return nil
	}
	data, err := d.spectrumPlan.compute(samples)
	if err != nil {
		return nil
	}
	return data
}

// pow2Approx computes an approximate 2^x using algo-approx's fast
// exponential, the same helper the teacher uses to convert semitone offsets
// to frequency ratios at audio rate (piano.centsToRatio).
func pow2Approx(x float64) float64 {
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(float32(x * ln2)))
}

func log2Safe(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Log2(x)
}
