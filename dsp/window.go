package dsp

import (
	"math"
	"sync"
)

var (
	windowMu    sync.Mutex
	windowCache = map[int][]float64{}
)

// HammingWindow returns the length-n Hamming window 0.54 - 0.46*cos(2*pi*k/(n-1)).
// Windows are computed once per length and cached; the returned slice is a
// read-only shared copy and must not be mutated by callers.
func HammingWindow(n int) []float64 {
	windowMu.Lock()
	defer windowMu.Unlock()

	if w, ok := windowCache[n]; ok {
		return w
	}

	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
	} else {
		denom := float64(n - 1)
		for k := range w {
			w[k] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(k)/denom)
		}
	}
	windowCache[n] = w
	return w
}
