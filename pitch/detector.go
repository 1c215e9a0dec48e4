package pitch

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-ctuner/dsp"
	"github.com/cwbudde/algo-ctuner/spectral"
	"github.com/cwbudde/algo-ctuner/tuning"
)

// MinMagnitudeFloor is the lowest value SetMinMagnitude will accept (spec's
// configuration-clamp table).
const MinMagnitudeFloor = 0.05

// DefaultMinMagnitude is K_MIN, the default per-bin magnitude threshold.
const DefaultMinMagnitude = 0.5

// DefaultFFTSize and DefaultHopSize are the spec's canonical analysis
// window (N=16384) and hop (1024 samples, ~93ms at Fs=11025).
const (
	DefaultFFTSize = 16384
	DefaultHopSize = 1024
)

// Settings holds the mutable, runtime-tunable configuration of a Detector.
// It is modified only through the Detector's Set* methods, mirroring the
// teacher's Params/Set* convention.
type Settings struct {
	AReference        float64
	Temperament       tuning.Temperament
	Key               int
	FundamentalFilter bool
	OctaveFilter      bool
	Downsample        bool
	MinMagnitude      float64
}

// DefaultSettings returns the spec's documented defaults.
func DefaultSettings(aReference float64) Settings {
	return Settings{
		AReference:        aReference,
		Temperament:       tuning.Equal,
		Key:               0,
		FundamentalFilter: false,
		OctaveFilter:      true,
		Downsample:        false,
		MinMagnitude:      DefaultMinMagnitude,
	}
}

// Detector composes the ring buffer, normalizer, and spectral analyzer into
// the multi-pitch detection pipeline. It owns all of its state exclusively;
// Process must be called by exactly one goroutine at a time for a given
// Detector (it is neither thread-safe nor re-entrant).
type Detector struct {
	sampleRate int
	fftSize    int
	hopSize    int

	settings Settings

	ring     *dsp.RingBuffer
	norm     *dsp.Normalizer
	analyzer *spectral.Analyzer
	scratch  []float64 // preallocated copy of the frame, normalized in place
}

// NewDetector constructs a Detector for the given sample rate (Hz), FFT
// size, hop size (samples per Process call), and A4 reference frequency.
func NewDetector(sampleRate, fftSize, hopSize int, aReference float64) (*Detector, error) {
	if sampleRate <= 0 {
		return nil, errors.New("pitch: sample rate must be positive")
	}
	if hopSize <= 0 {
		return nil, errors.New("pitch: hop size must be positive")
	}
	if fftSize <= 0 {
		return nil, errors.New("pitch: fft size must be positive")
	}

	analyzer, err := spectral.NewAnalyzer(fftSize, hopSize, float64(sampleRate))
	if err != nil {
		return nil, err
	}

	return &Detector{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		hopSize:    hopSize,
		settings:   DefaultSettings(aReference),
		ring:       dsp.NewRingBuffer(fftSize),
		norm:       dsp.NewNormalizer(),
		analyzer:   analyzer,
		scratch:    make([]float64, fftSize),
	}, nil
}

// Settings returns a copy of the detector's current configuration.
func (d *Detector) Settings() Settings {
	return d.settings
}

// SetReference sets the A4 reference frequency in Hz.
func (d *Detector) SetReference(hz float64) {
	d.settings.AReference = hz
}

// SetTemperament selects the musical temperament used for reference-
// frequency mapping.
func (d *Detector) SetTemperament(t tuning.Temperament) {
	d.settings.Temperament = t
}

// SetKey sets the tonic pitch class (0..11) the temperament is anchored to.
func (d *Detector) SetKey(key int) {
	d.settings.Key = tuning.PitchClass(key)
}

// SetFundamentalFilter enables or disables restricting accepted peaks to
// the pitch class of the first accepted peak.
func (d *Detector) SetFundamentalFilter(enabled bool) {
	d.settings.FundamentalFilter = enabled
}

// SetOctaveFilter enables or disables the dynamic harmonic-suppression bin
// cap.
func (d *Detector) SetOctaveFilter(enabled bool) {
	d.settings.OctaveFilter = enabled
}

// SetDownsample enables or disables downsample mode, which disables the
// octave cap so content across multiple octaves can be admitted.
func (d *Detector) SetDownsample(enabled bool) {
	d.settings.Downsample = enabled
}

// SetMinMagnitude sets the per-bin magnitude acceptance threshold, clamped
// to [MinMagnitudeFloor, +Inf).
func (d *Detector) SetMinMagnitude(threshold float64) {
	if threshold < MinMagnitudeFloor {
		threshold = MinMagnitudeFloor
	}
	d.settings.MinMagnitude = threshold
}

// Reset clears all analyzer state (zeroes the frame and previous phase,
// restores the previous peak to dsp.MinPeak), restoring the Detector to the state of a freshly constructed instance
// with the same settings.
func (d *Detector) Reset() {
	d.ring.Reset()
	d.norm.Reset()
	d.analyzer.Reset()
}

// Process accepts h new samples, folds them into the analysis frame,
// normalizes, runs the spectral analyzer, and selects up to KMaxima peaks.
// It always returns a result; there is no error path once the Detector is
// constructed.
func (d *Detector) Process(samples []float64) MultiPitchResult {
	d.ring.Push(samples)

	copy(d.scratch, d.ring.Frame())
	d.norm.Apply(d.scratch)

	if err := d.analyzer.Process(d.scratch); err != nil {
		return MultiPitchResult{}
	}

	return d.selectPeaks()
}

func (d *Detector) selectPeaks() MultiPitchResult {
	mag := d.analyzer.Magnitude
	diff := d.analyzer.Diff
	freq := d.analyzer.Frequency
	rng := d.analyzer.Range()

	maxVal := 0.0
	for _, v := range mag {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal < d.settings.MinMagnitude {
		return MultiPitchResult{}
	}

	accepted := make([]Maximum, 0, KMaxima)
	limit := rng - 1

	for k := 1; k < rng-1; k++ {
		if k >= limit {
			break
		}
		if len(accepted) >= KMaxima {
			break
		}

		if mag[k] <= d.settings.MinMagnitude || mag[k] <= maxVal/4 {
			continue
		}
		if diff[k] <= 0 || diff[k+1] >= 0 {
			continue
		}
		if freq[k] <= 0 {
			continue
		}

		cf := 12 * math.Log2(freq[k]/d.settings.AReference)
		if math.IsNaN(cf) {
			continue
		}

		note := tuning.RoundHalfAwayFromZero(cf) + tuning.C5Offset
		if note < 0 {
			continue
		}

		if d.settings.FundamentalFilter && len(accepted) > 0 {
			if tuning.PitchClass(note) != tuning.PitchClass(accepted[0].Note) {
				continue
			}
		}

		ref := tuning.RefFrequency(note, d.settings.Temperament, d.settings.Key, d.settings.AReference)
		cents := 0.0
		if ref > 0 {
			cents = tuning.Cents(freq[k], ref)
		}

		name, octave := tuning.NoteName(note)

		accepted = append(accepted, Maximum{
			Frequency:    freq[k],
			RefFrequency: ref,
			Note:         note,
			Cents:        cents,
			NoteName:     name,
			Octave:       octave,
			Magnitude:    mag[k],
		})

		if d.settings.OctaveFilter && !d.settings.Downsample && limit > k*2 {
			limit = k*2 - 1
		}
	}

	if len(accepted) == 0 {
		return MultiPitchResult{}
	}

	return MultiPitchResult{Valid: true, Maxima: accepted}
}
