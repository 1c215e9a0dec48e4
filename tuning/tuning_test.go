package tuning

import (
	"math"
	"testing"
)

func TestParseTemperamentRoundTrip(t *testing.T) {
	for tmp := Temperament(0); tmp < numTemperaments; tmp++ {
		name := tmp.String()
		got, ok := ParseTemperament(name)
		if !ok {
			t.Fatalf("ParseTemperament(%q): not found", name)
		}
		if got != tmp {
			t.Errorf("ParseTemperament(%q) = %v, want %v", name, got, tmp)
		}
	}
}

func TestParseTemperamentUnknown(t *testing.T) {
	if _, ok := ParseTemperament("not-a-real-temperament"); ok {
		t.Fatal("expected ok=false for unknown temperament name")
	}
}

func TestRatiosEqualTemperamentIsTwelfthRootOfTwo(t *testing.T) {
	r := Ratios(Equal)
	if math.Abs(r[0]-1.0) > 1e-9 {
		t.Errorf("Equal[0] = %v, want 1.0", r[0])
	}
	want := math.Pow(2, 9.0/12.0)
	if math.Abs(r[AOffset]-want) > 1e-6 {
		t.Errorf("Equal[A] = %v, want %v", r[AOffset], want)
	}
}

func TestRatiosInvalidFallsBackToEqual(t *testing.T) {
	r := Ratios(Temperament(-1))
	eq := Ratios(Equal)
	if r != eq {
		t.Errorf("Ratios(invalid) = %v, want Equal ratios %v", r, eq)
	}
}

func TestPitchClassAlwaysNonNegative(t *testing.T) {
	cases := []int{-25, -13, -1, 0, 1, 11, 12, 13, 100}
	for _, note := range cases {
		pc := PitchClass(note)
		if pc < 0 || pc >= OctaveSize {
			t.Errorf("PitchClass(%d) = %d, out of range", note, pc)
		}
	}
}

func TestNoteNameA4(t *testing.T) {
	name, octave := NoteName(C5Offset)
	if name != "A" || octave != 4 {
		t.Errorf("NoteName(C5Offset) = (%s, %d), want (A, 4)", name, octave)
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := map[float64]int{
		0.5:  1,
		-0.5: -1,
		1.4:  1,
		1.5:  2,
		-1.5: -2,
	}
	for in, want := range cases {
		if got := RoundHalfAwayFromZero(in); got != want {
			t.Errorf("RoundHalfAwayFromZero(%v) = %d, want %d", in, got, want)
		}
	}
}

// TestRefFrequencyEqualTemperamentIsPureA440 checks that under Equal
// temperament, RefFrequency(C5Offset, ...) returns exactly aReference, and
// that the octave above doubles it.
func TestRefFrequencyEqualTemperamentIsPureA440(t *testing.T) {
	got := RefFrequency(C5Offset, Equal, 0, 440.0)
	if math.Abs(got-440.0) > 1e-9 {
		t.Errorf("RefFrequency(A4, Equal) = %v, want 440", got)
	}

	octaveUp := RefFrequency(C5Offset+OctaveSize, Equal, 0, 440.0)
	if math.Abs(octaveUp-880.0) > 1e-6 {
		t.Errorf("RefFrequency(A5, Equal) = %v, want 880", octaveUp)
	}
}

// TestRefFrequencyAnchoredAtKeyTonicA verifies the documented invariant that
// A in the chosen key is always a fixed point of the temperament mapping,
// regardless of which temperament or key is selected.
func TestRefFrequencyAnchoredAtKeyTonicA(t *testing.T) {
	for tmp := Temperament(0); tmp < numTemperaments; tmp++ {
		for key := 0; key < OctaveSize; key++ {
			// A4: its pitch class is A whatever the key.
			note := C5Offset
			got := RefFrequency(note, tmp, key, 440.0)
			want := RefFrequency(note, Equal, key, 440.0)
			if math.Abs(got-want) > 1e-6 {
				t.Errorf("temperament %v key %d: RefFrequency at A = %v, want equal-tempered %v", tmp, key, got, want)
			}
		}
	}
}

func TestCentsZeroWhenFrequencyEqualsRef(t *testing.T) {
	if c := Cents(440.0, 440.0); math.Abs(c) > 1e-9 {
		t.Errorf("Cents(440, 440) = %v, want 0", c)
	}
	// One octave above should read +1200 cents.
	if c := Cents(880.0, 440.0); math.Abs(c-1200) > 1e-6 {
		t.Errorf("Cents(880, 440) = %v, want 1200", c)
	}
}

func TestNoteFromFrequency(t *testing.T) {
	note, ok := NoteFromFrequency(440.0, 440.0)
	if !ok || note != C5Offset {
		t.Errorf("NoteFromFrequency(440, 440) = (%d, %v), want (%d, true)", note, ok, C5Offset)
	}

	if _, ok := NoteFromFrequency(-1, 440.0); ok {
		t.Error("NoteFromFrequency(-1, 440) expected ok=false")
	}
}

// TestPythagoreanEDeviatesFromEqual exercises spec.md's worked Pythagorean
// example: Pythagorean tuning's E is audibly sharp of equal temperament.
func TestPythagoreanEDeviatesFromEqual(t *testing.T) {
	noteE := C5Offset + 7 // E above A4's note index (E5)
	pyth := RefFrequency(noteE, Pythagorean, 0, 440.0)
	equal := RefFrequency(noteE, Equal, 0, 440.0)

	cents := Cents(pyth, equal)
	if math.Abs(cents) < 1.0 {
		t.Errorf("expected audible Pythagorean/Equal deviation at E, got %v cents", cents)
	}
}
