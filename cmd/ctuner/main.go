// Command ctuner reads a WAV file (or synthesizes a test tone) and streams
// it through the multi-pitch or accordion-reed detector, printing one
// result per analysis hop. It owns no signal-processing logic of its own;
// it only wires audioio, config, pitch, and accordion together, in the
// style of the teacher's cmd/piano-distance flag set, -preset JSON loading,
// and die-on-error helper.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-ctuner/accordion"
	"github.com/cwbudde/algo-ctuner/audioio"
	"github.com/cwbudde/algo-ctuner/config"
	"github.com/cwbudde/algo-ctuner/pitch"
	"github.com/cwbudde/algo-ctuner/tuning"
)

func main() {
	wavPath := flag.String("wav", "", "WAV file to analyze; if empty, -tone synthesizes a test sinusoid")
	toneHz := flag.Float64("tone", 440.0, "Frequency of a synthesized test tone, used when -wav is empty")
	toneSeconds := flag.Float64("tone-seconds", 2.0, "Duration of the synthesized test tone in seconds")
	writeTonePath := flag.String("write-tone", "", "Optional path to write the synthesized test tone as a WAV file")
	sampleRate := flag.Int("sample-rate", 11025, "Analysis sample rate in Hz")
	fftSize := flag.Int("fft-size", pitch.DefaultFFTSize, "Analysis window size in samples")
	hopSize := flag.Int("hop-size", pitch.DefaultHopSize, "Hop size in samples between analysis frames")
	presetPath := flag.String("preset", "", "Analyzer preset JSON path (overrides -a-reference/-temperament/-key/-fundamental-filter/-octave-filter/-min-magnitude)")
	aReference := flag.Float64("a-reference", 440.0, "A4 reference frequency in Hz")
	temperamentName := flag.String("temperament", tuning.Equal.String(), "Musical temperament name")
	key := flag.Int("key", 0, "Tonic pitch class (0=C .. 11=B) the temperament is anchored to")
	fundamentalFilter := flag.Bool("fundamental-filter", false, "Restrict accepted peaks to the first peak's pitch class")
	octaveFilter := flag.Bool("octave-filter", true, "Enable dynamic octave/harmonic suppression")
	minMagnitude := flag.Float64("min-magnitude", pitch.DefaultMinMagnitude, "Per-bin magnitude acceptance threshold")
	accordionMode := flag.Bool("accordion", false, "Group peaks as accordion reeds instead of reporting independent pitches")
	reedPresetPath := flag.String("reed-preset", "", "Accordion reed preset JSON path (overrides -a-reference/-max-reeds/-reed-spread-cents and sets the spectrum display, accordion mode)")
	maxReeds := flag.Int("max-reeds", accordion.DefaultMaxReeds, "Maximum reeds to report per note (accordion mode)")
	reedSpread := flag.Float64("reed-spread-cents", accordion.DefaultReedSpreadCents, "Maximum cents spread considered the same note (accordion mode)")
	jsonOut := flag.Bool("json", false, "Print each frame's result as JSON")
	flag.Parse()

	samples, inputRate, err := loadSamples(*wavPath, *toneHz, *toneSeconds, *sampleRate)
	if err != nil {
		die("failed to load input: %v", err)
	}
	if *wavPath == "" && *writeTonePath != "" {
		if err := writeTone(*writeTonePath, samples, inputRate); err != nil {
			die("failed to write tone wav: %v", err)
		}
	}

	if *accordionMode {
		reedSettings := config.DefaultReedSettings(*aReference)
		reedSettings.MaxReeds = *maxReeds
		reedSettings.ReedSpreadCents = *reedSpread
		if *reedPresetPath != "" {
			loaded, err := config.LoadReedJSON(*reedPresetPath)
			if err != nil {
				die("failed to load reed preset: %v", err)
			}
			reedSettings = *loaded
		}
		runAccordion(samples, *sampleRate, *fftSize, *hopSize, reedSettings, *temperamentName, *key, *jsonOut)
		return
	}

	settings := pitch.DefaultSettings(*aReference)
	temperament, ok := tuning.ParseTemperament(*temperamentName)
	if !ok {
		die("unknown temperament %q", *temperamentName)
	}
	settings.Temperament = temperament
	settings.Key = *key
	settings.FundamentalFilter = *fundamentalFilter
	settings.OctaveFilter = *octaveFilter
	settings.MinMagnitude = *minMagnitude
	if *presetPath != "" {
		loaded, err := config.LoadAnalyzerJSON(*presetPath)
		if err != nil {
			die("failed to load analyzer preset: %v", err)
		}
		settings = *loaded
	}

	runPitch(samples, *sampleRate, *fftSize, *hopSize, settings, *jsonOut)
}

// loadSamples returns the analysis samples and the sample rate they are at
// after resampling, which is always the requested analysis sample rate.
func loadSamples(wavPath string, toneHz, toneSeconds float64, sampleRate int) ([]float64, int, error) {
	if wavPath == "" {
		return synthesizeTone(toneHz, toneSeconds, sampleRate), sampleRate, nil
	}

	raw, nativeRate, err := audioio.ReadWAVMono(wavPath)
	if err != nil {
		return nil, 0, err
	}
	resampled, err := audioio.ResampleIfNeeded(raw, nativeRate, sampleRate)
	if err != nil {
		return nil, 0, err
	}
	return resampled, sampleRate, nil
}

func synthesizeTone(hz, seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate))
	}
	return out
}

// writeTone writes the synthesized tone to path as a 16-bit mono WAV and
// reports its RMS level to stderr, so a caller can inspect exactly what was
// fed into the detector.
func writeTone(path string, samples []float64, sampleRate int) error {
	data := make([]float32, len(samples))
	for i, v := range samples {
		data[i] = float32(v)
	}
	if err := audioio.WriteMonoWAV(path, data, sampleRate); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s: %d samples @ %d Hz, RMS %.4f\n", path, len(data), sampleRate, audioio.StereoRMS(data))
	return nil
}

func runPitch(samples []float64, sampleRate, fftSize, hopSize int, settings pitch.Settings, jsonOut bool) {
	det, err := pitch.NewDetector(sampleRate, fftSize, hopSize, settings.AReference)
	if err != nil {
		die("failed to construct detector: %v", err)
	}
	det.SetTemperament(settings.Temperament)
	det.SetKey(settings.Key)
	det.SetFundamentalFilter(settings.FundamentalFilter)
	det.SetOctaveFilter(settings.OctaveFilter)
	det.SetDownsample(settings.Downsample)
	det.SetMinMagnitude(settings.MinMagnitude)

	enc := newEncoder(jsonOut)
	forEachHop(samples, hopSize, func(hop []float64, frameIdx int) {
		result := det.Process(hop)
		enc.emitPitch(frameIdx, result)
	})
}

func runAccordion(samples []float64, sampleRate, fftSize, hopSize int, settings config.ReedSettings, temperamentName string, key int, jsonOut bool) {
	temperament, ok := tuning.ParseTemperament(temperamentName)
	if !ok {
		die("unknown temperament %q", temperamentName)
	}

	det, err := accordion.NewDetectorWithWindow(sampleRate, fftSize, hopSize, settings.AReference, settings.MaxReeds, settings.ReedSpreadCents)
	if err != nil {
		die("failed to construct accordion detector: %v", err)
	}
	det.SetTemperament(temperament)
	det.SetKey(key)
	det.SetSpectrumDisplay(settings.SpectrumDisplay)

	enc := newEncoder(jsonOut)
	forEachHop(samples, hopSize, func(hop []float64, frameIdx int) {
		result := det.Process(hop)
		enc.emitAccordion(frameIdx, result)
	})
}

func forEachHop(samples []float64, hopSize int, fn func(hop []float64, frameIdx int)) {
	frame := 0
	for offset := 0; offset < len(samples); offset += hopSize {
		end := offset + hopSize
		if end > len(samples) {
			end = len(samples)
		}
		fn(samples[offset:end], frame)
		frame++
	}
}

type encoder struct {
	json bool
	enc  *json.Encoder
}

func newEncoder(jsonOut bool) *encoder {
	e := &encoder{json: jsonOut}
	if jsonOut {
		e.enc = json.NewEncoder(os.Stdout)
		e.enc.SetIndent("", "  ")
	}
	return e
}

func (e *encoder) emitPitch(frame int, result pitch.MultiPitchResult) {
	if e.json {
		if err := e.enc.Encode(result); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	primary, ok := result.Primary()
	if !ok {
		fmt.Printf("frame %5d: (no pitch)\n", frame)
		return
	}
	fmt.Printf("frame %5d: %-3s%d  %8.2f Hz  ref %8.2f Hz  %+6.1f cents  mag %.3f  (%d peaks)\n",
		frame, primary.NoteName, primary.Octave, primary.Frequency, primary.RefFrequency, primary.Cents, primary.Magnitude, len(result.Maxima))
}

func (e *encoder) emitAccordion(frame int, result accordion.Result) {
	if e.json {
		if err := e.enc.Encode(result); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	if !result.Valid {
		fmt.Printf("frame %5d: (no pitch)\n", frame)
		return
	}
	fmt.Printf("frame %5d: %-3s%d  ref %8.2f Hz  %d reeds  avg %+6.1f cents  beats %v\n",
		frame, result.NoteName, result.Octave, result.RefFrequency, result.ReedCount(), result.AverageCents(), result.BeatFrequencies)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
