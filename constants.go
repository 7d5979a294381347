package sampler

// Configuration limits.
const (
	// minSampleRate and maxSampleRate bound accepted render rates.
	minSampleRate = 8000
	maxSampleRate = 192000

	// maxChannels is the maximum supported output channel count.
	maxChannels = 8

	// maxVoiceLimit is the maximum supported polyphony.
	maxVoiceLimit = 256

	// maxSamplesPerInstrument bounds the sample slots of one instrument.
	maxSamplesPerInstrument = 128
)

// DefaultEventQueueSize is the event queue capacity used when the
// configuration leaves EventQueueSize at zero.
const DefaultEventQueueSize = 256

// DefaultPitchBendRange is the pitch wheel range in semitones assigned to
// new instruments.
const DefaultPitchBendRange = 2.0

// Default instrument envelope, tuned for low-latency playback.
const (
	defaultAttackTime   = 0.005
	defaultDecayTime    = 0.05
	defaultSustainLevel = 0.7
	defaultReleaseTime  = 0.1
)

// Pitch bend wheel value range (14-bit MIDI, centered on zero).
const (
	// PitchBendMin is the lowest pitch wheel value.
	PitchBendMin = -8192
	// PitchBendMax is the highest pitch wheel value.
	PitchBendMax = 8191
)
