package wav

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 44100

// writeWAV encodes int PCM data to a temp file and returns its path.
func writeWAV(t *testing.T, data []int, channels, bitDepth int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := gowav.NewEncoder(f, testRate, bitDepth, channels, 1)
	err = enc.Write(&audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  testRate,
		},
		SourceBitDepth: bitDepth,
	})
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLoad_Mono16Bit(t *testing.T) {
	ints := []int{0, 16384, 32767, -16384, -32768}
	path := writeWAV(t, ints, 1, 16)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Channels)
	assert.Equal(t, len(ints), s.Frames)
	assert.Equal(t, testRate, s.SampleRate)

	want := []float64{0, 0.5, 32767.0 / 32768.0, -0.5, -1}
	require.Len(t, s.Data, len(want))
	for i, w := range want {
		assert.InDelta(t, w, s.Data[i], 1e-6, "sample %d", i)
	}
}

func TestLoad_StereoInterleaved(t *testing.T) {
	// Two frames: (L, R) pairs stay interleaved after decoding.
	ints := []int{16384, -16384, 8192, -8192}
	path := writeWAV(t, ints, 2, 16)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Channels)
	assert.Equal(t, 2, s.Frames)
	require.Len(t, s.Data, 4)
	assert.InDelta(t, 0.5, s.Data[0], 1e-6)
	assert.InDelta(t, -0.5, s.Data[1], 1e-6)
	assert.InDelta(t, 0.25, s.Data[2], 1e-6)
	assert.InDelta(t, -0.25, s.Data[3], 1e-6)
}

func TestLoad_24Bit(t *testing.T) {
	full := 1 << 23
	ints := []int{0, full / 2, -full / 2}
	path := writeWAV(t, ints, 1, 24)

	s, err := Load(path)
	require.NoError(t, err)

	require.Len(t, s.Data, 3)
	assert.InDelta(t, 0, s.Data[0], 1e-6)
	assert.InDelta(t, 0.5, s.Data[1], 1e-6)
	assert.InDelta(t, -0.5, s.Data[2], 1e-6)
}

func TestDecode_InvalidData(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not a wav file")))
	assert.ErrorIs(t, err, ErrInvalidWAV)

	_, err = Decode(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrInvalidWAV)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.wav"))
	assert.Error(t, err)
}

func TestPCMScale(t *testing.T) {
	tests := []struct {
		bitDepth   int
		wantScale  float32
		wantOffset int
		wantErr    bool
	}{
		{8, 1.0 / 128, 128, false},
		{16, 1.0 / 32768, 0, false},
		{24, 1.0 / 8388608, 0, false},
		{32, 1.0 / 2147483648, 0, false},
		{12, 0, 0, true},
		{0, 0, 0, true},
	}

	for _, tt := range tests {
		scale, offset, err := pcmScale(tt.bitDepth)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, "%d-bit", tt.bitDepth)
			continue
		}
		require.NoError(t, err)
		assert.InDelta(t, tt.wantScale, scale, 1e-12, "%d-bit scale", tt.bitDepth)
		assert.Equal(t, tt.wantOffset, offset, "%d-bit offset", tt.bitDepth)
	}
}
