package sampler

import (
	"fmt"

	"github.com/tphakala/go-midi-sampler/formats/wav"
	"github.com/tphakala/go-midi-sampler/internal/engine"
	"github.com/tphakala/go-midi-sampler/internal/mathutil"
)

// EnvelopeConfig holds ADSR envelope parameters for an instrument.
// Times are in seconds; the sustain level is in [0, 1].
type EnvelopeConfig struct {
	AttackTime   float64
	DecayTime    float64
	SustainLevel float64
	ReleaseTime  float64
}

// Validate checks the envelope parameters.
func (e *EnvelopeConfig) Validate() error {
	if e.AttackTime < 0 || e.DecayTime < 0 || e.ReleaseTime < 0 {
		return fmt.Errorf("%w: envelope times must not be negative", ErrInvalidArgument)
	}
	if e.SustainLevel < 0 || e.SustainLevel > 1 {
		return fmt.Errorf("%w: sustain level must be in [0, 1]", ErrInvalidArgument)
	}
	return nil
}

// SampleMetadata describes a sample's keyboard mapping and loop points.
type SampleMetadata struct {
	// RootNote is the MIDI note number the sample was recorded at.
	RootNote uint8

	// VelocityLow and VelocityHigh bound the velocity layer this sample
	// serves, inclusive.
	VelocityLow  uint8
	VelocityHigh uint8

	// LoopEnabled makes the sample loop between LoopStart and the end of
	// the buffer. LoopStart < LoopEnd <= frame count must hold.
	LoopEnabled bool
	LoopStart   uint32
	LoopEnd     uint32
}

// Instrument is a bounded ordered collection of samples sharing one
// envelope configuration and pitch bend state.
//
// Loading samples and changing the envelope are control operations that
// are not real-time safe: callers must not mutate an instrument
// concurrently with RenderBlock on its sampler. The usual pattern is to
// configure instruments fully before triggering notes on them.
type Instrument struct {
	name    string
	sampler *Sampler

	// Read by the rendering context during event application.
	samples  []*engine.SampleBuffer
	envelope engine.EnvelopeConfig

	// pitchBendRange is read on the control side when a bend request is
	// translated into a speed multiplier.
	pitchBendRange float64

	// bendValue and bendMultiplier are owned by the rendering context;
	// they change only when a queued bend event is applied.
	bendValue      int16
	bendMultiplier float64
}

// NewInstrument creates an instrument attached to the sampler, with the
// default envelope and a pitch bend range of 2 semitones.
func (s *Sampler) NewInstrument(name string) *Instrument {
	return &Instrument{
		name:    name,
		sampler: s,
		samples: make([]*engine.SampleBuffer, 0, maxSamplesPerInstrument),
		envelope: engine.EnvelopeConfig{
			Attack:  defaultAttackTime,
			Decay:   defaultDecayTime,
			Sustain: defaultSustainLevel,
			Release: defaultReleaseTime,
		},
		pitchBendRange: DefaultPitchBendRange,
		bendMultiplier: 1,
	}
}

// Name returns the instrument name.
func (i *Instrument) Name() string {
	return i.name
}

// SampleCount returns the number of loaded samples.
func (i *Instrument) SampleCount() int {
	return len(i.samples)
}

// LoadSampleData loads an in-memory PCM sample. The data is interleaved
// normalized float32 with frames * channels samples; it is copied, so the
// caller may reuse the slice. Returns ErrCapacityExceeded when the
// instrument's sample slots are full.
func (i *Instrument) LoadSampleData(data []float32, frames, channels int, meta SampleMetadata) error {
	if len(i.samples) >= maxSamplesPerInstrument {
		return fmt.Errorf("%w: instrument %q already holds %d samples",
			ErrCapacityExceeded, i.name, maxSamplesPerInstrument)
	}

	buf := &engine.SampleBuffer{
		Data:     make([]float32, len(data)),
		Frames:   frames,
		Channels: channels,
		Meta: engine.SampleMetadata{
			RootNote:     meta.RootNote,
			VelocityLow:  meta.VelocityLow,
			VelocityHigh: meta.VelocityHigh,
			LoopEnabled:  meta.LoopEnabled,
			LoopStart:    meta.LoopStart,
			LoopEnd:      meta.LoopEnd,
		},
	}
	copy(buf.Data, data)

	if err := buf.Validate(); err != nil {
		return err
	}

	i.samples = append(i.samples, buf)
	return nil
}

// LoadSampleFile decodes a WAV file and loads it as a sample.
func (i *Instrument) LoadSampleFile(path string, meta SampleMetadata) error {
	decoded, err := wav.Load(path)
	if err != nil {
		return fmt.Errorf("loading sample %q: %w", path, err)
	}
	return i.LoadSampleData(decoded.Data, decoded.Frames, decoded.Channels, meta)
}

// SetEnvelope replaces the instrument's envelope configuration. Voices
// already playing keep the envelope they were triggered with.
func (i *Instrument) SetEnvelope(env EnvelopeConfig) error {
	if err := env.Validate(); err != nil {
		return err
	}
	i.envelope = engine.EnvelopeConfig{
		Attack:  env.AttackTime,
		Decay:   env.DecayTime,
		Sustain: env.SustainLevel,
		Release: env.ReleaseTime,
	}
	return nil
}

// SetPitchBendRange sets the pitch wheel range in semitones.
func (i *Instrument) SetPitchBendRange(semitones float64) error {
	if semitones <= 0 {
		return fmt.Errorf("%w: pitch bend range must be positive", ErrInvalidArgument)
	}
	i.pitchBendRange = semitones
	return nil
}

// NoteOn triggers a note. The request is queued for the rendering
// context; sample selection and voice allocation happen when the next
// block is rendered. Safe to call from any goroutine. Returns
// ErrQueueFull when the event queue is saturated.
func (i *Instrument) NoteOn(note, velocity uint8) error {
	if note > 127 || velocity > 127 {
		return fmt.Errorf("%w: note and velocity must be 0-127", ErrInvalidArgument)
	}
	return i.sampler.push(event{
		kind:     eventNoteOn,
		note:     note,
		velocity: velocity,
		target:   i,
	})
}

// NoteOff releases every voice playing note on this instrument. Voices
// stay audible through their release tail. Releasing a note with no
// active voice is a no-op.
func (i *Instrument) NoteOff(note uint8) error {
	if note > 127 {
		return fmt.Errorf("%w: note must be 0-127", ErrInvalidArgument)
	}
	return i.sampler.push(event{
		kind:   eventNoteOff,
		note:   note,
		target: i,
	})
}

// SetPitchBend applies a pitch wheel value (-8192 to 8191, 0 = no bend)
// to the instrument. The speed multiplier is computed here, on the
// control side, and applied to active voices when the next block is
// rendered.
func (i *Instrument) SetPitchBend(value int16) error {
	if value < PitchBendMin || value > PitchBendMax {
		return fmt.Errorf("%w: pitch bend value %d out of range", ErrInvalidArgument, value)
	}
	return i.sampler.push(event{
		kind:           eventPitchBend,
		bendValue:      value,
		bendMultiplier: mathutil.BendMultiplier(value, i.pitchBendRange),
		target:         i,
	})
}
