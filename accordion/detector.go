package accordion

import (
	"math"

	"github.com/cwbudde/algo-ctuner/pitch"
	"github.com/cwbudde/algo-ctuner/tuning"
)

// MaxReedsFloor/MaxReedsCeil bound the configurable reed count.
const (
	MaxReedsFloor = 1
	MaxReedsCeil  = 4
)

// ReedSpreadFloor/ReedSpreadCeil bound the configurable cents spread; [10,
// 100] is the authoritative clamp (spec's resolved Open Question).
const (
	ReedSpreadFloor = 10.0
	ReedSpreadCeil  = 100.0
)

// DefaultMinMagnitude is the reed-mode default per-bin magnitude threshold,
// lower than the plain multi-pitch default because accordion microphone
// input tends to run quieter.
const DefaultMinMagnitude = 0.1

// DefaultReedSpreadCents is the default musette spread tolerance.
const DefaultReedSpreadCents = 50.0

// DefaultMaxReeds is the default reed count.
const DefaultMaxReeds = 4

// Detector composes a pitch.Detector (with the octave filter disabled, so
// closely-spaced reed frequencies aren't suppressed as harmonics) and groups
// its output into a single nominal note's reeds.
type Detector struct {
	maxReeds     int
	reedSpread   float64
	showSpectrum bool
	detector     *pitch.Detector
	spectrumPlan *displaySpectrum
}

// NewDetector constructs an accordion Detector for the given sample rate
// and A4 reference frequency, with maxReeds and reedSpreadCents clamped to
// their documented ranges. It uses the canonical analysis window and hop
// size internally (pitch.DefaultFFTSize, pitch.DefaultHopSize); use
// NewDetectorWithWindow to override them.
func NewDetector(sampleRate int, aReference float64, maxReeds int, reedSpreadCents float64) (*Detector, error) {
	return NewDetectorWithWindow(sampleRate, pitch.DefaultFFTSize, pitch.DefaultHopSize, aReference, maxReeds, reedSpreadCents)
}

// NewDetectorWithWindow is NewDetector with an explicit FFT/hop size,
// for callers that need a non-default analysis window (e.g. tests).
func NewDetectorWithWindow(sampleRate, fftSize, hopSize int, aReference float64, maxReeds int, reedSpreadCents float64) (*Detector, error) {
	inner, err := pitch.NewDetector(sampleRate, fftSize, hopSize, aReference)
	if err != nil {
		return nil, err
	}
	inner.SetOctaveFilter(false)
	inner.SetMinMagnitude(DefaultMinMagnitude)

	d := &Detector{
		maxReeds:     clampInt(maxReeds, MaxReedsFloor, MaxReedsCeil),
		reedSpread:   clampFloat(reedSpreadCents, ReedSpreadFloor, ReedSpreadCeil),
		detector:     inner,
		spectrumPlan: newDisplaySpectrum(fftSize, sampleRate),
	}
	return d, nil
}

// SetReference sets the A4 reference frequency in Hz.
func (d *Detector) SetReference(hz float64) {
	d.detector.SetReference(hz)
}

// SetTemperament selects the musical temperament.
func (d *Detector) SetTemperament(t tuning.Temperament) {
	d.detector.SetTemperament(t)
}

// SetKey sets the tonic pitch class.
func (d *Detector) SetKey(key int) {
	d.detector.SetKey(key)
}

// SetMaxReeds sets the maximum reeds to report, clamped to [1, 4].
func (d *Detector) SetMaxReeds(count int) {
	d.maxReeds = clampInt(count, MaxReedsFloor, MaxReedsCeil)
}

// SetReedSpread sets the maximum cents spread considered the same note,
// clamped to [10, 100].
func (d *Detector) SetReedSpread(cents float64) {
	d.reedSpread = clampFloat(cents, ReedSpreadFloor, ReedSpreadCeil)
}

// SetSpectrumDisplay enables or disables computing the optional decimated
// display spectrum on each Process call.
func (d *Detector) SetSpectrumDisplay(enabled bool) {
	d.showSpectrum = enabled
}

// Reset restores the detector (and its internal pitch.Detector) to the
// state of a freshly constructed instance.
func (d *Detector) Reset() {
	d.detector.Reset()
}

// Process runs the internal multi-pitch detector and groups its output into
// a single note's reeds.
func (d *Detector) Process(samples []float64) Result {
	multi := d.detector.Process(samples)

	var spec *SpectrumData
	if d.showSpectrum {
		spec = d.computeSpectrum(samples)
	}

	if !multi.Valid || len(multi.Maxima) == 0 {
		return Result{Spectrum: spec}
	}

	primary := multi.Maxima[0]
	reeds, beats := d.groupReeds(multi.Maxima, primary)
	if len(reeds) == 0 {
		return Result{Spectrum: spec}
	}

	return Result{
		Valid:           true,
		NoteName:        primary.NoteName,
		Octave:          primary.Octave,
		RefFrequency:    primary.RefFrequency,
		Reeds:           reeds,
		BeatFrequencies: beats,
		Spectrum:        spec,
	}
}

// groupReeds selects, from maxima, the peaks within one semitone of the
// primary note and within reedSpread cents of the primary's reference
// frequency, sorts them by ascending frequency, and computes the
// beat-frequency series between adjacent reeds.
func (d *Detector) groupReeds(maxima []pitch.Maximum, primary pitch.Maximum) ([]ReedInfo, []float64) {
	reeds := make([]ReedInfo, 0, d.maxReeds)

	for _, m := range maxima {
		if len(reeds) >= d.maxReeds {
			break
		}
		if abs(m.Note-primary.Note) > 1 {
			continue
		}

		cents := m.Cents
		if primary.RefFrequency > 0 {
			cents = tuning.Cents(m.Frequency, primary.RefFrequency)
		}
		if math.Abs(cents) > d.reedSpread {
			continue
		}

		reeds = append(reeds, ReedInfo{
			Frequency: m.Frequency,
			Cents:     cents,
			Magnitude: m.Magnitude,
		})
	}

	if len(reeds) == 0 {
		return nil, nil
	}

	for i := 1; i < len(reeds); i++ {
		for j := i; j > 0 && reeds[j-1].Frequency > reeds[j].Frequency; j-- {
			reeds[j-1], reeds[j] = reeds[j], reeds[j-1]
		}
	}

	beats := make([]float64, 0, len(reeds)-1)
	for i := 0; i < len(reeds)-1; i++ {
		beats = append(beats, math.Abs(reeds[i+1].Frequency-reeds[i].Frequency))
	}

	return reeds, beats
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
