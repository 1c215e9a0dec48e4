package audioio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteThenReadMonoWAVRoundTrips(t *testing.T) {
	const sampleRate = 8000
	const n = 800

	data := make([]float32, n)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*220*float64(i)/float64(sampleRate)))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WriteMonoWAV(path, data, sampleRate); err != nil {
		t.Fatal(err)
	}

	samples, rate, err := ReadWAVMono(path)
	if err != nil {
		t.Fatal(err)
	}
	if rate != sampleRate {
		t.Errorf("sample rate = %d, want %d", rate, sampleRate)
	}
	if len(samples) != n {
		t.Errorf("len(samples) = %d, want %d", len(samples), n)
	}

	// 16-bit PCM round trip introduces quantization noise; check the shape
	// is close rather than bit-exact.
	var sumSqErr float64
	for i, v := range samples {
		d := v - float64(data[i])
		sumSqErr += d * d
	}
	rmse := math.Sqrt(sumSqErr / float64(n))
	if rmse > 0.01 {
		t.Errorf("round-trip RMSE = %v, want < 0.01", rmse)
	}
}

func TestResampleIfNeededIdentityWhenRatesMatch(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := ResampleIfNeeded(in, 11025, 11025)
	if err != nil {
		t.Fatal(err)
	}
	if &in[0] != &out[0] {
		t.Error("expected identity (same backing array) when rates match")
	}
}

func TestResampleIfNeededChangesLength(t *testing.T) {
	in := make([]float64, 1000)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 100 * float64(i) / 44100)
	}
	out, err := ResampleIfNeeded(in, 44100, 11025)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Error("expected non-empty resampled output")
	}
}

func TestStereoRMSSilence(t *testing.T) {
	if got := StereoRMS(nil); got != 0 {
		t.Errorf("StereoRMS(nil) = %v, want 0", got)
	}
	if got := StereoRMS([]float32{0, 0, 0, 0}); got != 0 {
		t.Errorf("StereoRMS(silence) = %v, want 0", got)
	}
}

func TestStereoRMSKnownSignal(t *testing.T) {
	// Constant amplitude 1.0 has RMS 1.0.
	samples := []float32{1, -1, 1, -1}
	got := StereoRMS(samples)
	if math.Abs(got-1.0) > 1e-6 {
		t.Errorf("StereoRMS = %v, want 1.0", got)
	}
}
