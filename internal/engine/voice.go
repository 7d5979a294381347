package engine

import (
	"github.com/tphakala/go-midi-sampler/internal/mathutil"
)

// velocityGainScale converts a 7-bit MIDI velocity to a linear gain.
const velocityGainScale = 1.0 / 127.0

// Voice is one playback slot. Voices are created once per pool slot and
// re-triggered in place; triggering never allocates. Position and speed
// use float64 so long loops do not drift.
type Voice struct {
	active   bool
	note     uint8
	velocity uint8

	sample *SampleBuffer

	// Owner identifies the instrument the voice was triggered for.
	// The engine only compares it, so any comparable reference works.
	Owner any

	position     float64
	baseSpeed    float64
	speed        float64
	bendMultiple float64

	velocityGain float32
	envelope     Envelope
}

// Trigger starts the voice playing a sample. The playback speed is the
// ratio of the target note's frequency to the sample root's frequency,
// from the precomputed equal-temperament table, scaled by the current
// pitch-bend multiplier.
func (v *Voice) Trigger(sample *SampleBuffer, note, velocity uint8,
	env EnvelopeConfig, sampleRate, bendMultiplier float64,
) {
	v.active = true
	v.note = note
	v.velocity = velocity
	v.sample = sample
	v.position = 0

	v.velocityGain = float32(velocity) * velocityGainScale

	targetFreq := mathutil.NoteFrequency(note)
	rootFreq := mathutil.NoteFrequency(sample.Meta.RootNote)
	v.baseSpeed = targetFreq / rootFreq
	v.bendMultiple = bendMultiplier
	v.speed = v.baseSpeed * bendMultiplier

	v.envelope.Init(sampleRate, env)
	v.envelope.Trigger()
}

// Release starts the envelope release. The voice stays active and audible
// through the release tail until the envelope reaches idle.
func (v *Voice) Release() {
	v.envelope.Release()
}

// SetBendMultiplier recomputes the playback speed for a new pitch-bend
// multiplier. Called between blocks, never inside the per-sample loop.
func (v *Voice) SetBendMultiplier(m float64) {
	v.bendMultiple = m
	v.speed = v.baseSpeed * m
}

// Active reports whether the voice is currently producing output.
func (v *Voice) Active() bool {
	return v.active
}

// Note returns the MIDI note the voice was triggered with.
func (v *Voice) Note() uint8 {
	return v.note
}

// Position returns the fractional playback position in source frames.
func (v *Voice) Position() float64 {
	return v.position
}

// Render mixes the voice into out for the given number of output frames.
// Each source frame is linearly interpolated at the fractional position,
// multiplied by the envelope level and velocity gain, and accumulated
// into every output channel. Multi-channel sources play their first
// channel only. The voice deactivates when the sample exhausts without
// looping or the envelope reaches idle, and rendering stops for the rest
// of the block.
func (v *Voice) Render(out []float32, frames, channels int) {
	if !v.active || v.sample == nil {
		return
	}

	sample := v.sample
	data := sample.Data
	position := v.position
	speed := v.speed
	gain := v.velocityGain

	srcChannels := sample.Channels
	maxFrames := float64(sample.Frames)
	loopEnabled := sample.Meta.LoopEnabled
	loopStart := float64(sample.Meta.LoopStart)
	loopOK := loopEnabled && sample.Meta.LoopEnd > sample.Meta.LoopStart

	for i := 0; i < frames; i++ {
		if position >= maxFrames {
			if loopOK {
				position = loopStart
			} else {
				v.active = false
				break
			}
		}

		index := int(position)
		frac := float32(position - float64(index))

		s0 := data[index*srcChannels]
		s1 := s0
		if index+1 < sample.Frames {
			s1 = data[(index+1)*srcChannels]
		}
		value := s0 + frac*(s1-s0)

		level := v.envelope.Process()
		value *= level * gain

		base := i * channels
		for ch := 0; ch < channels; ch++ {
			out[base+ch] += value
		}

		position += speed

		if !v.envelope.IsActive() {
			v.active = false
			break
		}
	}

	v.position = position
}
