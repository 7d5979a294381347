// Package sampler provides a polyphonic sample-playback engine with
// bounded, predictable latency suitable for real-time audio callbacks.
//
// The engine renders fixed-size audio blocks from a pool of voices.
// Notes are triggered from any control goroutine (UI, sequencer, MIDI
// input) and handed to the rendering goroutine through a bounded
// lock-free event queue, so neither side ever blocks the other.
//
// # Features
//
//   - Fixed-size voice pool with deterministic first-slot voice stealing
//   - Linear-segment ADSR envelope per voice with precomputed increments
//   - Velocity-layered sample selection with closest-root-note matching
//   - Pitch-accurate playback via linear interpolation and a precomputed
//     equal-temperament note table (A4 = 440 Hz)
//   - Pitch bend routed through the event queue, applied between blocks
//   - Allocation-free, non-blocking block rendering
//   - WAV sample loading via github.com/go-audio/wav
//
// # Quick Start
//
//	s, err := sampler.New(&sampler.Config{
//	    SampleRate: 44100,
//	    Channels:   2,
//	    MaxVoices:  32,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	piano := s.NewInstrument("piano")
//	err = piano.LoadSampleFile("c4.wav", sampler.SampleMetadata{
//	    RootNote:     60,
//	    VelocityLow:  0,
//	    VelocityHigh: 127,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = piano.NoteOn(60, 100)
//
//	// Inside the audio callback:
//	block := make([]float32, 512*2)
//	for running {
//	    _ = s.RenderBlock(block, 512)
//	    writeOutput(block)
//	}
//
// # Real-Time Contract
//
// RenderBlock never blocks, never allocates, and never fails on
// per-event conditions: a note with no matching sample is dropped
// silently, and queue overflows surface only through [Sampler.Stats].
// Exactly one goroutine may call RenderBlock. Control entry points
// ([Instrument.NoteOn], [Instrument.NoteOff], [Instrument.SetPitchBend])
// are safe from any number of goroutines; they fail fast with
// [ErrQueueFull] when the event queue is saturated.
//
// Instrument configuration (loading samples, changing envelopes) is not
// real-time safe and must not run concurrently with RenderBlock for the
// same instrument.
//
// # Output Semantics
//
// Voices are mixed additively without clipping; downstream consumers are
// responsible for limiting. Multi-channel samples play their first
// channel only, duplicated across all output channels.
//
// # Collaborators
//
// The engine core has no on-disk format of its own. WAV decoding lives
// in formats/wav and Standard MIDI File parsing in formats/smf; timeline
// playback is external orchestration that calls the control entry points
// at the right times (see cmd/render-midi).
package sampler
