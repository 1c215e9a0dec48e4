package dsp

import "math"

// MinPeak is the floor applied to the tracked peak before it is used as a
// normalization divisor, preventing near-silent frames from being amplified
// into noise.
const MinPeak = 0.125

// RingBuffer accumulates incoming sample blocks into a fixed-length analysis
// frame using overlap-add semantics: each Push shifts the frame left and
// copies the newest samples into the tail, discarding the oldest content.
type RingBuffer struct {
	frame []float64
}

// NewRingBuffer allocates a ring buffer holding exactly n samples, all zero.
func NewRingBuffer(n int) *RingBuffer {
	return &RingBuffer{frame: make([]float64, n)}
}

// Len returns the frame length N.
func (r *RingBuffer) Len() int {
	return len(r.frame)
}

// Frame returns the current analysis frame. The returned slice aliases the
// buffer's internal storage and is only valid until the next Push.
func (r *RingBuffer) Frame() []float64 {
	return r.frame
}

// Push shifts the frame left by min(len(samples), N) and copies the tail of
// samples into the vacated space. An empty block leaves the frame unchanged;
// a block at least as long as N replaces the frame outright with its last N
// samples.
func (r *RingBuffer) Push(samples []float64) {
	n := len(r.frame)
	shift := len(samples)
	if shift == 0 {
		return
	}
	if shift >= n {
		copy(r.frame, samples[len(samples)-n:])
		return
	}
	copy(r.frame, r.frame[shift:])
	copy(r.frame[n-shift:], samples)
}

// Reset zeroes the frame.
func (r *RingBuffer) Reset() {
	for i := range r.frame {
		r.frame[i] = 0
	}
}

// Normalizer applies one-frame-lag amplitude normalization: each call
// divides the frame by the *previous* call's peak (clamped to at least
// MinPeak), not the current one, smoothing transients without an adaptive
// filter inside the frame being analyzed. This is intentional, not a bug —
// a contemporaneous division would make transient onsets look spectrally
// small.
type Normalizer struct {
	prevPeak float64
}

// NewNormalizer returns a Normalizer primed with the documented initial
// divisor (MinPeak), matching a freshly constructed analyzer.
func NewNormalizer() *Normalizer {
	return &Normalizer{prevPeak: MinPeak}
}

// Apply divides frame in place by the previous call's clamped peak, then
// records frame's own peak (clamped to MinPeak) for the next call.
func (n *Normalizer) Apply(frame []float64) {
	divisor := n.prevPeak

	peak := 0.0
	for _, v := range frame {
		a := math.Abs(v)
		if a > peak {
			peak = a
		}
	}
	if peak < MinPeak {
		peak = MinPeak
	}
	n.prevPeak = peak

	for i, v := range frame {
		frame[i] = FlushDenormals(v / divisor)
	}
}

// Reset restores the normalizer to its just-constructed state.
func (n *Normalizer) Reset() {
	n.prevPeak = MinPeak
}
