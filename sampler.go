package sampler

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tphakala/simd/f32"

	"github.com/tphakala/go-midi-sampler/internal/engine"
	"github.com/tphakala/go-midi-sampler/internal/eventring"
)

// Common errors returned by the sampler.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid sampler configuration")

	// ErrInvalidArgument indicates an out-of-range or nil argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrQueueFull indicates the control event queue is saturated. The
	// event was dropped; the condition is also counted in Stats.
	ErrQueueFull = errors.New("event queue full")

	// ErrCapacityExceeded indicates an instrument's sample slots are full.
	ErrCapacityExceeded = errors.New("sample capacity exceeded")

	// ErrShortBuffer indicates the output buffer cannot hold the
	// requested number of frames.
	ErrShortBuffer = errors.New("output buffer too small")
)

// Config holds sampler configuration.
type Config struct {
	// SampleRate is the render sample rate in Hz (e.g. 44100, 48000).
	SampleRate int

	// Channels is the number of output channels (1 = mono, 2 = stereo).
	// Every channel receives the same mixed signal.
	Channels int

	// MaxVoices is the polyphony limit. When all voices are busy the
	// first pool slot is stolen for new notes.
	MaxVoices int

	// EventQueueSize bounds the control event queue. 0 selects
	// DefaultEventQueueSize. The queue capacity is rounded up to a
	// power of two.
	EventQueueSize int

	// MasterGain scales the mixed output block. 0 selects unity gain.
	// Values other than 1 are applied with SIMD scaling after mixing.
	MasterGain float64
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate < minSampleRate || c.SampleRate > maxSampleRate {
		return fmt.Errorf("%w: sample rate must be %d-%d Hz", ErrInvalidConfig, minSampleRate, maxSampleRate)
	}
	if c.Channels < 1 || c.Channels > maxChannels {
		return fmt.Errorf("%w: channels must be 1-%d", ErrInvalidConfig, maxChannels)
	}
	if c.MaxVoices < 1 || c.MaxVoices > maxVoiceLimit {
		return fmt.Errorf("%w: max voices must be 1-%d", ErrInvalidConfig, maxVoiceLimit)
	}
	if c.EventQueueSize < 0 {
		return fmt.Errorf("%w: event queue size must not be negative", ErrInvalidConfig)
	}
	if c.MasterGain < 0 {
		return fmt.Errorf("%w: master gain must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Stats holds the sampler's monotonically increasing counters. Counters
// are updated with relaxed atomics and safe to read from any goroutine.
type Stats struct {
	// FramesRendered is the total number of frames produced by
	// RenderBlock since creation.
	FramesRendered uint64

	// QueueOverflows counts control events dropped because the event
	// queue was full.
	QueueOverflows uint32
}

// eventKind discriminates queued control events.
type eventKind uint8

const (
	eventNoteOn eventKind = iota
	eventNoteOff
	eventPitchBend
)

// event is the control record carried through the ring into the
// rendering context. Consumed exactly once.
type event struct {
	kind     eventKind
	note     uint8
	velocity uint8

	// Pitch bend payload; the multiplier is precomputed on the control
	// side so the render side never calls math.Pow.
	bendValue      int16
	bendMultiplier float64

	target *Instrument
}

// Sampler is a polyphonic sample-playback engine. Control entry points
// (note on/off, pitch bend) may be called from any goroutine; they hand
// events to the rendering context through a bounded lock-free queue.
// RenderBlock must be called by exactly one goroutine and never blocks
// or allocates.
type Sampler struct {
	cfg        Config
	masterGain float32

	pool   *engine.Pool
	events *eventring.Ring[event]

	framesRendered atomic.Uint64
	queueOverflows atomic.Uint32
}

// New creates a sampler with the specified configuration. The voice pool
// and event queue are fully allocated up front; rendering performs no
// further allocation.
func New(cfg *Config) (*Sampler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	queueSize := cfg.EventQueueSize
	if queueSize == 0 {
		queueSize = DefaultEventQueueSize
	}
	ring, err := eventring.New[event](queueSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	gain := cfg.MasterGain
	if gain == 0 {
		gain = 1
	}

	return &Sampler{
		cfg:        *cfg,
		masterGain: float32(gain),
		pool:       engine.NewPool(cfg.MaxVoices, float64(cfg.SampleRate)),
		events:     ring,
	}, nil
}

// SampleRate returns the render sample rate in Hz.
func (s *Sampler) SampleRate() int {
	return s.cfg.SampleRate
}

// Channels returns the number of output channels.
func (s *Sampler) Channels() int {
	return s.cfg.Channels
}

// MaxVoices returns the polyphony limit.
func (s *Sampler) MaxVoices() int {
	return s.pool.Size()
}

// ActiveVoices returns the number of voices currently producing output.
// Meaningful between RenderBlock calls.
func (s *Sampler) ActiveVoices() int {
	return s.pool.ActiveCount()
}

// Stats returns the current statistics counters.
func (s *Sampler) Stats() Stats {
	return Stats{
		FramesRendered: s.framesRendered.Load(),
		QueueOverflows: s.queueOverflows.Load(),
	}
}

// AllNotesOff silences every voice immediately, skipping release tails.
// This is a control operation for quiescent samplers; it must not run
// concurrently with RenderBlock.
func (s *Sampler) AllNotesOff() {
	s.pool.SilenceAll()
}

// push enqueues a control event, counting and reporting overflow.
func (s *Sampler) push(ev event) error {
	if !s.events.Push(ev) {
		s.queueOverflows.Add(1)
		return ErrQueueFull
	}
	return nil
}

// RenderBlock renders the next block of frames into out, which must hold
// at least frames * Channels() samples. It drains pending control events,
// applies them, mixes every active voice additively into the zeroed
// buffer and advances the statistics counters.
//
// The call is bounded and synchronous: work is proportional to the event
// queue capacity plus frames times active voices. It never blocks, never
// allocates, and never fails on per-event conditions — a note with no
// matching sample is dropped silently and an empty instrument simply
// renders silence.
func (s *Sampler) RenderBlock(out []float32, frames int) error {
	if frames < 0 {
		return fmt.Errorf("%w: negative frame count %d", ErrInvalidArgument, frames)
	}
	samples := frames * s.cfg.Channels
	if len(out) < samples {
		return fmt.Errorf("%w: need %d samples, have %d", ErrShortBuffer, samples, len(out))
	}

	block := out[:samples]
	for i := range block {
		block[i] = 0
	}

	s.drainEvents()
	s.pool.Render(block, frames, s.cfg.Channels)

	if s.masterGain != 1 && samples > 0 {
		f32.Scale(block, block, s.masterGain)
	}

	s.framesRendered.Add(uint64(frames))
	return nil
}

// drainEvents applies queued control events. At most one full queue
// capacity of events is consumed per call so the render call always
// terminates even while producers keep pushing.
func (s *Sampler) drainEvents() {
	for i := 0; i < s.events.Cap(); i++ {
		ev, ok := s.events.Pop()
		if !ok {
			break
		}
		s.applyEvent(ev)
	}
}

// applyEvent dispatches one control event inside the rendering context.
func (s *Sampler) applyEvent(ev event) {
	inst := ev.target

	switch ev.kind {
	case eventNoteOn:
		sample := engine.SelectSample(inst.samples, ev.note, ev.velocity)
		if sample == nil {
			// No sample loaded for this note: silent no-op.
			return
		}
		s.pool.Trigger(inst, sample, ev.note, ev.velocity, inst.envelope, inst.bendMultiplier)

	case eventNoteOff:
		s.pool.ReleaseMatching(inst, ev.note)

	case eventPitchBend:
		inst.bendValue = ev.bendValue
		inst.bendMultiplier = ev.bendMultiplier
		s.pool.ApplyBend(inst, ev.bendMultiplier)
	}
}
