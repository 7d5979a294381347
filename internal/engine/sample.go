package engine

import (
	"errors"
	"fmt"
)

// Errors reported when validating sample buffers.
var (
	// ErrInvalidSample indicates inconsistent sample data or metadata.
	ErrInvalidSample = errors.New("invalid sample")
)

// SampleMetadata describes how a sample maps onto the keyboard and whether
// it loops.
type SampleMetadata struct {
	// RootNote is the MIDI note the sample was recorded at.
	RootNote uint8

	// VelocityLow and VelocityHigh bound the velocity range this sample
	// serves, inclusive.
	VelocityLow  uint8
	VelocityHigh uint8

	// LoopEnabled makes playback wrap to LoopStart when the position
	// passes the end of the sample. LoopStart < LoopEnd <= frame count
	// must hold when enabled.
	LoopEnabled bool
	LoopStart   uint32
	LoopEnd     uint32
}

// SampleBuffer holds decoded PCM audio with its keyboard metadata. Data is
// interleaved normalized float32 in [-1, 1]. Buffers are immutable after
// load and shared read-only by any voice playing them; a buffer must
// outlive every voice that references it.
type SampleBuffer struct {
	Data     []float32
	Frames   int
	Channels int
	Meta     SampleMetadata
}

// Validate checks the internal consistency of the buffer.
func (s *SampleBuffer) Validate() error {
	if s.Frames <= 0 || s.Channels <= 0 {
		return fmt.Errorf("%w: frames and channels must be positive", ErrInvalidSample)
	}
	if len(s.Data) != s.Frames*s.Channels {
		return fmt.Errorf("%w: data length %d does not match %d frames x %d channels",
			ErrInvalidSample, len(s.Data), s.Frames, s.Channels)
	}
	if s.Meta.VelocityLow > s.Meta.VelocityHigh {
		return fmt.Errorf("%w: velocity range [%d, %d] is inverted",
			ErrInvalidSample, s.Meta.VelocityLow, s.Meta.VelocityHigh)
	}
	if s.Meta.LoopEnabled {
		if s.Meta.LoopStart >= s.Meta.LoopEnd || s.Meta.LoopEnd > uint32(s.Frames) {
			return fmt.Errorf("%w: loop [%d, %d) outside frame count %d",
				ErrInvalidSample, s.Meta.LoopStart, s.Meta.LoopEnd, s.Frames)
		}
	}
	return nil
}

// noteDistanceMax is larger than any possible |note - root| distance.
const noteDistanceMax = 128

func noteDistance(note, root uint8) int {
	d := int(note) - int(root)
	if d < 0 {
		return -d
	}
	return d
}

// SelectSample picks the buffer that serves a (note, velocity) pair: among
// buffers whose velocity range contains the velocity, the one with the
// smallest distance between note and root note wins, first encountered on
// ties. When no velocity range matches, the globally closest root note is
// used regardless of velocity. Returns nil only for an empty slice. The
// selection is a pure function of its inputs.
func SelectSample(samples []*SampleBuffer, note, velocity uint8) *SampleBuffer {
	var best *SampleBuffer
	minDistance := noteDistanceMax

	for _, s := range samples {
		if velocity < s.Meta.VelocityLow || velocity > s.Meta.VelocityHigh {
			continue
		}
		if d := noteDistance(note, s.Meta.RootNote); d < minDistance {
			minDistance = d
			best = s
		}
	}

	if best == nil {
		for _, s := range samples {
			if d := noteDistance(note, s.Meta.RootNote); d < minDistance {
				minDistance = d
				best = s
			}
		}
	}

	return best
}
