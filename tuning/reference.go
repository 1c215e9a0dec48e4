package tuning

import "math"

// RefFrequency computes the temperament-aware expected frequency, in Hz, for
// a chromatic note index under the given temperament, key (tonic pitch
// class, 0=C), and A4 reference frequency.
//
// The temperament's effect is isolated as a multiplicative perturbation
// around equal temperament: the ratio by which the chosen temperament
// differs from Equal at this pitch class, relative to A, is applied on top
// of the equal-tempered frequency. A in the chosen key is therefore always a
// fixed point of the mapping.
func RefFrequency(note int, t Temperament, key int, aReference float64) float64 {
	key = PitchClass(key)

	pc := PitchClass(note)
	pcShifted := PitchClass(pc - key)
	aShifted := PitchClass(AOffset - key)

	tr := Ratios(t)
	er := Ratios(Equal)

	r := tr[pcShifted] / tr[aShifted]
	e := er[pcShifted] / er[aShifted]
	adjust := r / e

	equalFreq := aReference * math.Pow(2, float64(note-C5Offset)/12.0)
	return equalFreq * adjust
}

// Cents returns the signed deviation, in cents, of frequency from ref:
// 1200*log2(frequency/ref).
func Cents(frequency, ref float64) float64 {
	return 1200 * math.Log2(frequency/ref)
}

// NoteFromFrequency returns the chromatic note index closest to frequency
// given an A4 reference, per note = round(12*log2(frequency/aReference)) +
// C5Offset. ok is false if frequency is non-positive (the ratio's log is
// undefined).
func NoteFromFrequency(frequency, aReference float64) (note int, ok bool) {
	if frequency <= 0 || aReference <= 0 {
		return 0, false
	}
	cf := 12 * math.Log2(frequency/aReference)
	if math.IsNaN(cf) || math.IsInf(cf, 0) {
		return 0, false
	}
	return RoundHalfAwayFromZero(cf) + C5Offset, true
}
