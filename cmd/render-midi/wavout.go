package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

const (
	outputBitDepth = 16
	wavAudioFormat = 1 // uncompressed PCM

	maxInt16 = 32767
	minInt16 = -32768
)

// wavOutput streams rendered float32 blocks into a 16-bit PCM WAV file.
type wavOutput struct {
	file    *os.File
	encoder *gowav.Encoder
	format  *audio.Format
	intBuf  []int
}

// newWAVOutput creates the output file and WAV encoder.
func newWAVOutput(path string, sampleRate, channels int) (*wavOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	return &wavOutput{
		file:    f,
		encoder: gowav.NewEncoder(f, sampleRate, outputBitDepth, channels, wavAudioFormat),
		format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
	}, nil
}

// WriteBlock quantizes one rendered block to 16-bit PCM and appends it.
// Samples outside [-1, 1] are clipped; the engine mixes without limiting.
func (w *wavOutput) WriteBlock(block []float32) error {
	if cap(w.intBuf) < len(block) {
		w.intBuf = make([]int, len(block))
	}
	buf := w.intBuf[:len(block)]

	for i, v := range block {
		n := int(v * maxInt16)
		if n > maxInt16 {
			n = maxInt16
		} else if n < minInt16 {
			n = minInt16
		}
		buf[i] = n
	}

	return w.encoder.Write(&audio.IntBuffer{
		Data:           buf,
		Format:         w.format,
		SourceBitDepth: outputBitDepth,
	})
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutput) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
