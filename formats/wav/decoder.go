// Package wav decodes WAV/PCM files into normalized float32 sample data
// for the sampler engine.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	gowav "github.com/go-audio/wav"
)

// Errors reported by the decoder.
var (
	// ErrInvalidWAV indicates the input is not a valid WAV file.
	ErrInvalidWAV = errors.New("invalid WAV file")

	// ErrUnsupportedFormat indicates a PCM bit depth the decoder does
	// not handle.
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// Supported PCM bit depths.
const (
	bitDepth8  = 8
	bitDepth16 = 16
	bitDepth24 = 24
	bitDepth32 = 32
)

// unsigned8Offset centers unsigned 8-bit PCM around zero.
const unsigned8Offset = 128

// Sample holds decoded PCM audio: interleaved normalized float32
// amplitudes in [-1, 1].
type Sample struct {
	Data       []float32
	Frames     int
	Channels   int
	SampleRate int
}

// Load decodes a WAV file from disk.
func Load(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening WAV file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a complete WAV stream and converts its PCM data to
// normalized float32. Only uncompressed PCM at 8, 16, 24 or 32 bits is
// supported.
func Decode(r io.ReadSeeker) (*Sample, error) {
	dec := gowav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: missing format information", ErrInvalidWAV)
	}

	bitDepth := int(dec.BitDepth)
	scale, offset, err := pcmScale(bitDepth)
	if err != nil {
		return nil, err
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels

	data := make([]float32, frames*channels)
	for i, v := range buf.Data[:frames*channels] {
		data[i] = float32(v-offset) * scale
	}

	return &Sample{
		Data:       data,
		Frames:     frames,
		Channels:   channels,
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// pcmScale returns the normalization factor and integer offset for a PCM
// bit depth. 8-bit WAV is unsigned and needs recentering.
func pcmScale(bitDepth int) (scale float32, offset int, err error) {
	switch bitDepth {
	case bitDepth8:
		return 1.0 / unsigned8Offset, unsigned8Offset, nil
	case bitDepth16, bitDepth24, bitDepth32:
		return 1.0 / float32(int64(1)<<(bitDepth-1)), 0, nil
	default:
		return 0, 0, fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, bitDepth)
	}
}
