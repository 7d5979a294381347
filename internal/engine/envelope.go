// Package engine implements the real-time voice engine: per-voice ADSR
// envelopes, sample selection, pitch-accurate sample playback and the
// fixed-size voice pool. Nothing in this package blocks or allocates on
// the rendering path.
package engine

import "math"

// EnvelopeStage identifies the current segment of the ADSR state machine.
type EnvelopeStage int

const (
	// StageIdle means the envelope produces no output.
	StageIdle EnvelopeStage = iota
	// StageAttack ramps the level from 0 to 1.
	StageAttack
	// StageDecay ramps the level from 1 down to the sustain level.
	StageDecay
	// StageSustain holds the sustain level until release.
	StageSustain
	// StageRelease ramps the level from the sustain level down to 0.
	StageRelease
)

// EnvelopeConfig holds ADSR parameters. Times are in seconds, the sustain
// level is in [0, 1].
type EnvelopeConfig struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Envelope is a linear-segment ADSR generator. All per-sample increments
// are derived once in Init; Process performs no division or transcendental
// math. Level is clamped to [0, 1] after every update and Idle implies a
// level of exactly 0.
type Envelope struct {
	stage EnvelopeStage
	level float32

	sustain float32

	// Per-sample increments, derived in Init.
	attackInc  float32
	decayInc   float32
	releaseInc float32

	// Stage durations in samples, floored at 1.
	attackSamples  uint32
	decaySamples   uint32
	releaseSamples uint32

	// Current stage progress.
	stageSamples uint32
	processed    uint32
}

// stageDuration converts a stage time in seconds to a sample count,
// floored at 1 so a zero or negative time never divides by zero.
func stageDuration(seconds, sampleRate float64) uint32 {
	n := math.Round(seconds * sampleRate)
	if n < 1 {
		return 1
	}
	return uint32(n)
}

// Init derives the per-sample increments for the given render sample rate.
// It resets the envelope to Idle.
func (e *Envelope) Init(sampleRate float64, cfg EnvelopeConfig) {
	e.attackSamples = stageDuration(cfg.Attack, sampleRate)
	e.decaySamples = stageDuration(cfg.Decay, sampleRate)
	e.releaseSamples = stageDuration(cfg.Release, sampleRate)

	e.sustain = float32(cfg.Sustain)
	e.attackInc = float32(1.0 / float64(e.attackSamples))
	e.decayInc = float32((1.0 - cfg.Sustain) / float64(e.decaySamples))
	e.releaseInc = float32(cfg.Sustain / float64(e.releaseSamples))

	e.stage = StageIdle
	e.level = 0
	e.stageSamples = 0
	e.processed = 0
}

// Trigger starts the attack stage from the current level.
func (e *Envelope) Trigger() {
	e.stage = StageAttack
	e.stageSamples = e.attackSamples
	e.processed = 0
}

// Release starts the release stage regardless of the current stage, so a
// note can be stopped during attack or decay as well as from sustain.
func (e *Envelope) Release() {
	e.stage = StageRelease
	e.stageSamples = e.releaseSamples
	e.processed = 0
}

// Process returns the level at entry, then advances the state machine by
// one sample. Stage transitions happen on the exact sample the stage
// duration elapses: attack forces the level to 1 before decay, release
// forces it to 0 before idle.
func (e *Envelope) Process() float32 {
	out := e.level

	switch e.stage {
	case StageIdle:
		return 0

	case StageAttack:
		e.level += e.attackInc
		e.processed++
		if e.processed >= e.stageSamples {
			e.stage = StageDecay
			e.stageSamples = e.decaySamples
			e.processed = 0
			e.level = 1
		}

	case StageDecay:
		e.level -= e.decayInc
		e.processed++
		if e.processed >= e.stageSamples {
			e.stage = StageSustain
			e.level = e.sustain
		}

	case StageSustain:
		e.level = e.sustain

	case StageRelease:
		e.level -= e.releaseInc
		e.processed++
		if e.processed >= e.stageSamples {
			e.stage = StageIdle
			e.level = 0
		}
	}

	if e.level < 0 {
		e.level = 0
	} else if e.level > 1 {
		e.level = 1
	}

	return out
}

// IsActive reports whether the envelope is producing output. Only the
// Idle stage is inactive.
func (e *Envelope) IsActive() bool {
	return e.stage != StageIdle
}

// Stage returns the current envelope stage.
func (e *Envelope) Stage() EnvelopeStage {
	return e.stage
}

// Level returns the current output level without advancing the envelope.
func (e *Envelope) Level() float32 {
	return e.level
}
