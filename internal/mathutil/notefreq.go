// Package mathutil provides math utilities shared by the sampler engine.
package mathutil

import "math"

// MIDI tuning constants for twelve-tone equal temperament.
const (
	// NoteCount is the number of MIDI note numbers (0-127).
	NoteCount = 128

	// ReferenceNote is the MIDI note number of the tuning reference (A4).
	ReferenceNote = 69

	// ReferenceFrequency is the tuning reference frequency in Hz (A4 = 440).
	ReferenceFrequency = 440.0

	// SemitonesPerOctave is the number of semitones in one octave.
	SemitonesPerOctave = 12
)

// noteFrequencies holds the precomputed equal-temperament frequency for
// every MIDI note. Built once at init so the render path never calls
// math.Pow. The table is deterministic: 440 * 2^((n-69)/12).
var noteFrequencies [NoteCount]float64

func init() {
	for n := range noteFrequencies {
		noteFrequencies[n] = ReferenceFrequency *
			math.Pow(2, float64(n-ReferenceNote)/SemitonesPerOctave)
	}
}

// NoteFrequency returns the equal-temperament frequency in Hz for a MIDI
// note number. Notes outside 0-127 are masked into range, matching raw
// 7-bit MIDI data semantics.
func NoteFrequency(note uint8) float64 {
	return noteFrequencies[note&0x7F]
}

// BendMultiplier converts a 14-bit pitch wheel value (-8192..8191) and a
// bend range in semitones into a playback speed multiplier.
func BendMultiplier(value int16, rangeSemitones float64) float64 {
	semitones := float64(value) / 8192.0 * rangeSemitones
	return math.Pow(2, semitones/SemitonesPerOctave)
}
