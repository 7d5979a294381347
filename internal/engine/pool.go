package engine

// Pool is a fixed-size collection of voices. All slots are created up
// front; allocation and stealing never allocate memory.
type Pool struct {
	voices     []Voice
	sampleRate float64
}

// NewPool creates a pool with maxVoices slots for the given render
// sample rate.
func NewPool(maxVoices int, sampleRate float64) *Pool {
	p := &Pool{
		voices:     make([]Voice, maxVoices),
		sampleRate: sampleRate,
	}
	for i := range p.voices {
		p.voices[i].bendMultiple = 1
	}
	return p
}

// SampleRate returns the render sample rate the pool was created for.
func (p *Pool) SampleRate() float64 {
	return p.sampleRate
}

// Size returns the number of voice slots.
func (p *Pool) Size() int {
	return len(p.voices)
}

// Allocate returns the first inactive voice. When every slot is active it
// steals the first slot in pool order; the caller overwrites its state by
// re-triggering. This is a fixed simplest-available stealing rule, not a
// true least-recently-used policy.
func (p *Pool) Allocate() *Voice {
	for i := range p.voices {
		if !p.voices[i].active {
			return &p.voices[i]
		}
	}
	return &p.voices[0]
}

// Trigger allocates a voice (stealing if needed) and starts it on the
// given sample for the owner instrument.
func (p *Pool) Trigger(owner any, sample *SampleBuffer, note, velocity uint8,
	env EnvelopeConfig, bendMultiplier float64,
) *Voice {
	v := p.Allocate()
	v.Trigger(sample, note, velocity, env, p.sampleRate, bendMultiplier)
	v.Owner = owner
	return v
}

// ReleaseMatching releases every active voice playing note for the owner
// instrument. Releasing a note with no matching voice is a no-op.
func (p *Pool) ReleaseMatching(owner any, note uint8) {
	for i := range p.voices {
		v := &p.voices[i]
		if v.active && v.note == note && v.Owner == owner {
			v.Release()
		}
	}
}

// ApplyBend updates the pitch-bend multiplier of every active voice
// belonging to the owner instrument. Linear in the number of voices;
// runs between blocks, outside the per-sample loop.
func (p *Pool) ApplyBend(owner any, multiplier float64) {
	for i := range p.voices {
		v := &p.voices[i]
		if v.active && v.Owner == owner {
			v.SetBendMultiplier(multiplier)
		}
	}
}

// Render mixes every active voice into out.
func (p *Pool) Render(out []float32, frames, channels int) {
	for i := range p.voices {
		if p.voices[i].active {
			p.voices[i].Render(out, frames, channels)
		}
	}
}

// ActiveCount returns the number of currently active voices.
func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].active {
			n++
		}
	}
	return n
}

// SilenceAll deactivates every voice immediately, without a release tail.
// Not safe to call concurrently with Render.
func (p *Pool) SilenceAll() {
	for i := range p.voices {
		p.voices[i].active = false
	}
}

// Voice returns the voice at slot i, for inspection in tests.
func (p *Pool) Voice(i int) *Voice {
	return &p.voices[i]
}
