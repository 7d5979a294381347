package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-midi-sampler/internal/testutil"
)

const (
	testSampleRate = 44100
	testBlockSize  = 512
)

// newTestSampler creates a mono sampler with a sine instrument whose
// sample loops, so held notes sustain until released.
func newTestSampler(t *testing.T, cfg *Config) (*Sampler, *Instrument) {
	t.Helper()

	s, err := New(cfg)
	require.NoError(t, err)

	inst := s.NewInstrument("test")
	loadLoopingSine(t, inst)
	return s, inst
}

func loadLoopingSine(t *testing.T, inst *Instrument) {
	t.Helper()

	const frames = testSampleRate / 10
	data := testutil.GenerateSine(frames, 261.63, testSampleRate, 0.5)
	err := inst.LoadSampleData(data, frames, 1, SampleMetadata{
		RootNote:     60,
		VelocityLow:  0,
		VelocityHigh: 127,
		LoopEnabled:  true,
		LoopStart:    0,
		LoopEnd:      frames,
	})
	require.NoError(t, err)
}

func renderBlocks(t *testing.T, s *Sampler, block []float32, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.RenderBlock(block, testBlockSize))
	}
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{SampleRate: testSampleRate, Channels: 2, MaxVoices: 8}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"sample_rate_too_low", func(c *Config) { c.SampleRate = 4000 }, true},
		{"sample_rate_too_high", func(c *Config) { c.SampleRate = 384000 }, true},
		{"zero_channels", func(c *Config) { c.Channels = 0 }, true},
		{"too_many_channels", func(c *Config) { c.Channels = 9 }, true},
		{"zero_voices", func(c *Config) { c.MaxVoices = 0 }, true},
		{"too_many_voices", func(c *Config) { c.MaxVoices = 257 }, true},
		{"negative_queue", func(c *Config) { c.EventQueueSize = -1 }, true},
		{"negative_gain", func(c *Config) { c.MasterGain = -0.5 }, true},
		{"explicit_gain", func(c *Config) { c.MasterGain = 0.5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestSampler_NoteLifecycle walks the full note life cycle: trigger,
// audible sustain, release, silent again after the release tail.
func TestSampler_NoteLifecycle(t *testing.T) {
	s, inst := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   1,
		MaxVoices:  8,
	})
	require.NoError(t, inst.SetEnvelope(EnvelopeConfig{
		AttackTime:   0.01,
		DecayTime:    0.1,
		SustainLevel: 0.7,
		ReleaseTime:  0.3,
	}))

	block := make([]float32, testBlockSize)

	// Nothing queued: silence.
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	testutil.AssertSilent(t, block)
	assert.Zero(t, s.ActiveVoices())

	require.NoError(t, inst.NoteOn(60, 80))
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	assert.Equal(t, 1, s.ActiveVoices())
	testutil.AssertNotSilent(t, block)
	testutil.AssertNoNaNOrInf(t, block)

	require.NoError(t, inst.NoteOff(60))

	// 0.3 s of release is 13230 frames; 27 blocks cover it with margin.
	renderBlocks(t, s, block, 27)
	assert.Zero(t, s.ActiveVoices(), "voice inactive after release elapses")
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	testutil.AssertSilent(t, block)

	// Releasing an already-released note must not fail or retrigger.
	require.NoError(t, inst.NoteOff(60))
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	assert.Zero(t, s.ActiveVoices())
}

// TestSampler_ChordMixesVoices verifies simultaneous notes allocate one
// voice each and mix additively.
func TestSampler_ChordMixesVoices(t *testing.T) {
	s, inst := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   2,
		MaxVoices:  8,
	})

	for _, note := range []uint8{60, 64, 67} {
		require.NoError(t, inst.NoteOn(note, 100))
	}

	block := make([]float32, testBlockSize*2)
	require.NoError(t, s.RenderBlock(block, testBlockSize))

	assert.Equal(t, 3, s.ActiveVoices())
	testutil.AssertNotSilent(t, block)
	testutil.AssertNoNaNOrInf(t, block)
}

// TestSampler_VoiceStealing verifies polyphony never exceeds MaxVoices
// and that the newest note is playing after a steal.
func TestSampler_VoiceStealing(t *testing.T) {
	s, inst := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   1,
		MaxVoices:  2,
	})

	block := make([]float32, testBlockSize)
	for _, note := range []uint8{60, 64, 67} {
		require.NoError(t, inst.NoteOn(note, 100))
	}
	require.NoError(t, s.RenderBlock(block, testBlockSize))

	assert.Equal(t, 2, s.ActiveVoices(), "stealing keeps polyphony at the limit")

	// The stolen slot restarts on the newest note, so releasing it must
	// eventually drop the voice count.
	require.NoError(t, inst.NoteOff(67))
	renderBlocks(t, s, block, 30)
	assert.Equal(t, 1, s.ActiveVoices())
}

// TestSampler_NoteWithoutSample verifies a note on an empty instrument is
// dropped silently.
func TestSampler_NoteWithoutSample(t *testing.T) {
	s, err := New(&Config{SampleRate: testSampleRate, Channels: 1, MaxVoices: 4})
	require.NoError(t, err)
	empty := s.NewInstrument("empty")

	require.NoError(t, empty.NoteOn(60, 100))

	block := make([]float32, testBlockSize)
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	assert.Zero(t, s.ActiveVoices())
	testutil.AssertSilent(t, block)
}

// TestSampler_QueueOverflow verifies the bounded queue rejects the
// overflowing event, counts it, and keeps the queued events intact.
func TestSampler_QueueOverflow(t *testing.T) {
	s, inst := newTestSampler(t, &Config{
		SampleRate:     testSampleRate,
		Channels:       1,
		MaxVoices:      8,
		EventQueueSize: 4,
	})

	for _, note := range []uint8{60, 62, 64, 65} {
		require.NoError(t, inst.NoteOn(note, 100))
	}
	err := inst.NoteOn(67, 100)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uint32(1), s.Stats().QueueOverflows)

	// The four queued notes survive the rejected fifth.
	block := make([]float32, testBlockSize)
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	assert.Equal(t, 4, s.ActiveVoices())

	// Draining made room again.
	assert.NoError(t, inst.NoteOn(67, 100))
}

// TestSampler_MasterGain verifies the configured gain scales the mix.
func TestSampler_MasterGain(t *testing.T) {
	full, fullInst := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   1,
		MaxVoices:  4,
	})
	half, halfInst := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   1,
		MaxVoices:  4,
		MasterGain: 0.5,
	})

	require.NoError(t, fullInst.NoteOn(60, 127))
	require.NoError(t, halfInst.NoteOn(60, 127))

	fullBlock := make([]float32, testBlockSize)
	halfBlock := make([]float32, testBlockSize)
	require.NoError(t, full.RenderBlock(fullBlock, testBlockSize))
	require.NoError(t, half.RenderBlock(halfBlock, testBlockSize))

	for i := range fullBlock {
		assert.InDelta(t, fullBlock[i]*0.5, halfBlock[i], 1e-6, "sample %d", i)
	}
}

// TestSampler_PitchBendAdvancesFaster verifies a full-up bend speeds up
// sample consumption relative to an unbent voice.
func TestSampler_PitchBendAdvancesFaster(t *testing.T) {
	s, inst := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   1,
		MaxVoices:  4,
	})
	require.NoError(t, inst.SetPitchBendRange(12))

	require.NoError(t, inst.NoteOn(60, 100))
	require.NoError(t, inst.SetPitchBend(PitchBendMax))

	block := make([]float32, testBlockSize)
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	testutil.AssertNotSilent(t, block)
	testutil.AssertNoNaNOrInf(t, block)

	// Out-of-range wheel values are rejected on the control side.
	assert.ErrorIs(t, inst.SetPitchBend(PitchBendMin-1), ErrInvalidArgument)
}

func TestSampler_RenderBlockValidation(t *testing.T) {
	s, _ := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   2,
		MaxVoices:  4,
	})

	block := make([]float32, testBlockSize*2)
	assert.ErrorIs(t, s.RenderBlock(block, -1), ErrInvalidArgument)
	assert.ErrorIs(t, s.RenderBlock(block[:10], testBlockSize), ErrShortBuffer)
	assert.NoError(t, s.RenderBlock(block, 0), "zero frames is a valid no-op")
}

func TestSampler_AllNotesOff(t *testing.T) {
	s, inst := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   1,
		MaxVoices:  8,
	})

	for _, note := range []uint8{60, 64, 67} {
		require.NoError(t, inst.NoteOn(note, 100))
	}
	block := make([]float32, testBlockSize)
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	require.Equal(t, 3, s.ActiveVoices())

	s.AllNotesOff()
	assert.Zero(t, s.ActiveVoices())
	require.NoError(t, s.RenderBlock(block, testBlockSize))
	testutil.AssertSilent(t, block, "no release tail after all notes off")
}

func TestSampler_StatsCountFrames(t *testing.T) {
	s, _ := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   1,
		MaxVoices:  4,
	})

	block := make([]float32, testBlockSize)
	renderBlocks(t, s, block, 3)
	assert.Equal(t, uint64(3*testBlockSize), s.Stats().FramesRendered)
}

func TestInstrument_ArgumentValidation(t *testing.T) {
	_, inst := newTestSampler(t, &Config{
		SampleRate: testSampleRate,
		Channels:   1,
		MaxVoices:  4,
	})

	assert.ErrorIs(t, inst.NoteOn(128, 100), ErrInvalidArgument)
	assert.ErrorIs(t, inst.NoteOn(60, 128), ErrInvalidArgument)
	assert.ErrorIs(t, inst.NoteOff(128), ErrInvalidArgument)
	assert.ErrorIs(t, inst.SetPitchBendRange(0), ErrInvalidArgument)

	assert.ErrorIs(t, inst.SetEnvelope(EnvelopeConfig{AttackTime: -1}), ErrInvalidArgument)
	assert.ErrorIs(t, inst.SetEnvelope(EnvelopeConfig{SustainLevel: 1.5}), ErrInvalidArgument)
}

func TestInstrument_LoadSampleData_Validation(t *testing.T) {
	s, err := New(&Config{SampleRate: testSampleRate, Channels: 1, MaxVoices: 4})
	require.NoError(t, err)
	inst := s.NewInstrument("strict")

	// Frame count inconsistent with the data length.
	err = inst.LoadSampleData(make([]float32, 10), 20, 1, SampleMetadata{VelocityHigh: 127})
	assert.Error(t, err)
	assert.Zero(t, inst.SampleCount(), "rejected sample must not be kept")
}

func TestInstrument_LoadSampleData_CapacityLimit(t *testing.T) {
	s, err := New(&Config{SampleRate: testSampleRate, Channels: 1, MaxVoices: 4})
	require.NoError(t, err)
	inst := s.NewInstrument("crowded")

	data := make([]float32, 4)
	meta := SampleMetadata{RootNote: 60, VelocityHigh: 127}
	for j := 0; j < maxSamplesPerInstrument; j++ {
		require.NoError(t, inst.LoadSampleData(data, 4, 1, meta))
	}

	err = inst.LoadSampleData(data, 4, 1, meta)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, maxSamplesPerInstrument, inst.SampleCount())
}
