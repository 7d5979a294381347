// Command render-midi renders a Standard MIDI File to a WAV file using a
// single-sample instrument.
//
// Usage:
//
//	render-midi -sample piano_c4.wav -root 60 -midi song.mid -out song.wav
//	render-midi -sample kick.wav -root 36 -midi beat.mid -rate 48000 -out beat.wav
//
// The MIDI timeline is walked outside the engine: events are converted
// from ticks to frame positions and injected between rendered blocks.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tphakala/go-midi-sampler/formats/smf"

	sampler "github.com/tphakala/go-midi-sampler"
)

const (
	// defaultTailSeconds is rendered after the last event so release
	// tails are not cut off.
	defaultTailSeconds = 2.0

	// maxRenderMinutes caps output length against malformed files.
	maxRenderMinutes = 30

	microsPerSecond = 1e6
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	samplePath := flag.String("sample", "", "WAV sample to build the instrument from (required)")
	rootNote := flag.Int("root", 60, "MIDI root note of the sample (0-127)")
	midiPath := flag.String("midi", "", "Standard MIDI File to render (required)")
	outPath := flag.String("out", "out.wav", "Output WAV path")
	rate := flag.Int("rate", sampler.RateCD, "Render sample rate in Hz")
	channels := flag.Int("channels", 2, "Output channels")
	voices := flag.Int("voices", 32, "Polyphony limit")
	gain := flag.Float64("gain", 0.5, "Master gain applied to the mix")
	blockSize := flag.Int("block", sampler.BlockDefault, "Render block size in frames")
	tail := flag.Float64("tail", defaultTailSeconds, "Seconds rendered after the last event")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if *samplePath == "" || *midiPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -sample instrument.wav -midi song.mid [options]\n\n", os.Args[0])
		flag.PrintDefaults()
		return fmt.Errorf("missing required -sample or -midi argument")
	}
	if *rootNote < 0 || *rootNote > 127 {
		return fmt.Errorf("root note %d out of MIDI range", *rootNote)
	}

	track, err := smf.ParseFile(*midiPath)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", *midiPath, err)
	}
	if *verbose {
		log.Printf("MIDI: %d events, %d ticks/beat, tempo %d us/beat",
			len(track.Events), track.TicksPerBeat, track.TempoMicrosPerBeat)
	}

	s, err := sampler.New(&sampler.Config{
		SampleRate: *rate,
		Channels:   *channels,
		MaxVoices:  *voices,
		MasterGain: *gain,
	})
	if err != nil {
		return err
	}

	inst := s.NewInstrument("render")
	err = inst.LoadSampleFile(*samplePath, sampler.SampleMetadata{
		RootNote:     uint8(*rootNote),
		VelocityLow:  0,
		VelocityHigh: 127,
	})
	if err != nil {
		return err
	}
	if *verbose {
		log.Printf("Instrument: %s root=%d", *samplePath, *rootNote)
	}

	writer, err := newWAVOutput(*outPath, *rate, *channels)
	if err != nil {
		return err
	}

	rendered, err := renderTimeline(s, inst, track, writer, *blockSize, *tail)
	if err != nil {
		_ = writer.Close()
		return err
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", *outPath, err)
	}

	stats := s.Stats()
	if *verbose {
		log.Printf("Rendered %d frames (%.2f s), %d queue overflows",
			rendered, float64(rendered)/float64(*rate), stats.QueueOverflows)
	}
	fmt.Printf("Wrote %s (%.2f s)\n", *outPath, float64(rendered)/float64(*rate))
	return nil
}

// renderTimeline walks the MIDI event list, injecting events between
// blocks and streaming rendered audio to the writer. Returns the total
// number of frames rendered.
func renderTimeline(
	s *sampler.Sampler,
	inst *sampler.Instrument,
	track *smf.Track,
	writer *wavOutput,
	blockSize int,
	tailSeconds float64,
) (int64, error) {
	rate := s.SampleRate()
	channels := s.Channels()

	// Frame position of each tick under the track's tempo.
	framesPerTick := float64(rate) * float64(track.TempoMicrosPerBeat) /
		microsPerSecond / float64(track.TicksPerBeat)

	tailFrames := int64(tailSeconds * float64(rate))
	maxFrames := int64(maxRenderMinutes) * 60 * int64(rate)

	var lastEventFrame int64
	if n := len(track.Events); n > 0 {
		lastEventFrame = int64(float64(track.Events[n-1].Tick) * framesPerTick)
	}
	endFrame := lastEventFrame + tailFrames
	if endFrame > maxFrames {
		endFrame = maxFrames
	}

	block := make([]float32, blockSize*channels)
	next := 0

	for frame := int64(0); frame < endFrame; frame += int64(blockSize) {
		blockEnd := frame + int64(blockSize)

		for next < len(track.Events) {
			ev := track.Events[next]
			evFrame := int64(float64(ev.Tick) * framesPerTick)
			if evFrame >= blockEnd {
				break
			}
			if err := dispatch(inst, ev); err != nil {
				return frame, fmt.Errorf("event %d at tick %d: %w", next, ev.Tick, err)
			}
			next++
		}

		if err := s.RenderBlock(block, blockSize); err != nil {
			return frame, err
		}
		if err := writer.WriteBlock(block); err != nil {
			return frame, err
		}

		// Past the last event, stop as soon as all voices finish.
		if next >= len(track.Events) && s.ActiveVoices() == 0 {
			return blockEnd, nil
		}
	}

	return endFrame, nil
}

// dispatch forwards one timeline event to the sampler's control surface.
func dispatch(inst *sampler.Instrument, ev smf.Event) error {
	switch ev.Type {
	case smf.NoteOn:
		return inst.NoteOn(ev.Note, ev.Velocity)
	case smf.NoteOff:
		return inst.NoteOff(ev.Note)
	case smf.PitchBend:
		return inst.SetPitchBend(ev.Bend)
	}
	return nil
}
