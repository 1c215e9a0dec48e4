package tuning

import "math"

// OctaveSize is the number of pitch classes per octave.
const OctaveSize = 12

// C5Offset is the note index of A4 (nine semitones into the fifth octave
// counted from C0).
const C5Offset = 57

// AOffset is A's position within an octave.
const AOffset = 9

// PitchClassNames is the fixed pitch-class name sequence, indexed by
// note%OctaveSize.
var PitchClassNames = [OctaveSize]string{
	"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B",
}

// PitchClass returns note mod OctaveSize, always in [0, OctaveSize).
func PitchClass(note int) int {
	pc := note % OctaveSize
	if pc < 0 {
		pc += OctaveSize
	}
	return pc
}

// NoteName returns the pitch-class name and octave number for note.
func NoteName(note int) (name string, octave int) {
	pc := PitchClass(note)
	octave = note / OctaveSize
	if note < 0 && pc != 0 {
		octave--
	}
	return PitchClassNames[pc], octave
}

// RoundHalfAwayFromZero rounds x to the nearest integer, breaking ties away
// from zero (the cents-to-note mapping's rounding rule, per spec — distinct
// from Go's math.Round only in that math.Round already rounds half away
// from zero, so this is a readability alias, not a behavioral change).
func RoundHalfAwayFromZero(x float64) int {
	return int(math.Round(x))
}
