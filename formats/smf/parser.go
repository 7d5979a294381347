// Package smf parses Standard MIDI Files into a flat, timestamped event
// list. Only the events the sampler engine consumes are extracted: note
// on, note off, pitch bend and tempo. Timeline walking is left to the
// caller, which converts ticks to wall-clock time and drives the
// sampler's control entry points.
package smf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Errors reported by the parser.
var (
	// ErrNotSMF indicates the input does not start with a MIDI header chunk.
	ErrNotSMF = errors.New("not a standard MIDI file")

	// ErrNoTrack indicates the file has no track chunk after the header.
	ErrNoTrack = errors.New("MIDI file has no track chunk")

	// ErrTruncated indicates the file ended inside a chunk or event.
	ErrTruncated = errors.New("truncated MIDI file")
)

// EventType identifies the kind of a timeline event.
type EventType int

const (
	// NoteOn starts a note. A note-on with velocity zero is reported as
	// NoteOff, per MIDI convention.
	NoteOn EventType = iota
	// NoteOff releases a note.
	NoteOff
	// PitchBend carries a 14-bit pitch wheel value centered on zero.
	PitchBend
)

// Event is one timestamped entry of the flat event list. Tick is the
// absolute time in MIDI ticks from the start of the track.
type Event struct {
	Tick     uint32
	Type     EventType
	Channel  uint8
	Note     uint8
	Velocity uint8
	Bend     int16
}

// Track is the parsed event timeline of the file's first track.
type Track struct {
	Events []Event

	// TicksPerBeat is the time division from the file header.
	TicksPerBeat uint16

	// TempoMicrosPerBeat is the last tempo meta event found, or the
	// MIDI default of 500000 (120 BPM).
	TempoMicrosPerBeat uint32
}

// MIDI status and meta constants.
const (
	statusNoteOff      = 0x80
	statusNoteOn       = 0x90
	statusPolyPressure = 0xA0
	statusController   = 0xB0
	statusProgram      = 0xC0
	statusChanPressure = 0xD0
	statusPitchBend    = 0xE0

	statusMeta     = 0xFF
	statusSysEx    = 0xF0
	statusSysExEnd = 0xF7

	metaSetTempo = 0x51

	defaultTempo = 500000

	headerChunkLen = 6
	pitchBendBias  = 8192
)

// ParseFile parses a Standard MIDI File from disk.
func ParseFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening MIDI file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads the header chunk and the first track chunk, returning the
// flat event list. Later tracks of multi-track files are ignored.
func Parse(r io.Reader) (*Track, error) {
	br := bufio.NewReader(r)

	ticksPerBeat, err := parseHeader(br)
	if err != nil {
		return nil, err
	}

	track := &Track{
		TicksPerBeat:       ticksPerBeat,
		TempoMicrosPerBeat: defaultTempo,
	}
	if err := parseTrack(br, track); err != nil {
		return nil, err
	}
	return track, nil
}

// parseHeader validates the MThd chunk and returns the time division.
func parseHeader(br *bufio.Reader) (uint16, error) {
	var id [4]byte
	if _, err := io.ReadFull(br, id[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotSMF, err)
	}
	if string(id[:]) != "MThd" {
		return 0, ErrNotSMF
	}

	length, err := readUint32(br)
	if err != nil {
		return 0, err
	}
	if length < headerChunkLen {
		return 0, fmt.Errorf("%w: header chunk too short", ErrNotSMF)
	}

	// format and track count are read but not needed: only the first
	// track is parsed.
	if _, err := readUint16(br); err != nil {
		return 0, err
	}
	if _, err := readUint16(br); err != nil {
		return 0, err
	}
	division, err := readUint16(br)
	if err != nil {
		return 0, err
	}

	// Skip any extra header bytes.
	if _, err := br.Discard(int(length) - headerChunkLen); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	// SMPTE time division (high bit set) is not supported; mask keeps
	// the metrical ticks-per-beat value.
	return division & 0x7FFF, nil
}

// parseTrack reads the MTrk chunk and appends events to track.
func parseTrack(br *bufio.Reader, track *Track) error {
	var id [4]byte
	if _, err := io.ReadFull(br, id[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrNoTrack, err)
	}
	if string(id[:]) != "MTrk" {
		return ErrNoTrack
	}

	trackLen, err := readUint32(br)
	if err != nil {
		return err
	}

	// Bound the reader so a malformed track cannot run past its chunk.
	lr := &io.LimitedReader{R: br, N: int64(trackLen)}
	tr := bufio.NewReader(lr)

	var currentTick uint32
	var runningStatus uint8

	for {
		delta, err := readVarLen(tr)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		currentTick += delta

		status, err := tr.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTruncated, err)
		}

		// Running status: a data byte re-uses the previous status.
		if status < 0x80 {
			if err := tr.UnreadByte(); err != nil {
				return err
			}
			status = runningStatus
		} else if status < statusSysEx {
			runningStatus = status
		}

		if err := parseEvent(tr, track, currentTick, status); err != nil {
			return err
		}
	}
}

// parseEvent reads the data bytes of one event and appends it to the
// track when the engine consumes its type.
func parseEvent(tr *bufio.Reader, track *Track, tick uint32, status uint8) error {
	kind := status & 0xF0
	channel := status & 0x0F

	switch {
	case kind == statusNoteOn || kind == statusNoteOff:
		note, velocity, err := readTwo(tr)
		if err != nil {
			return err
		}
		eventType := NoteOff
		if kind == statusNoteOn && velocity > 0 {
			eventType = NoteOn
		}
		track.Events = append(track.Events, Event{
			Tick:     tick,
			Type:     eventType,
			Channel:  channel,
			Note:     note,
			Velocity: velocity,
		})

	case kind == statusPitchBend:
		lsb, msb, err := readTwo(tr)
		if err != nil {
			return err
		}
		bend := int16(uint16(msb)<<7|uint16(lsb)) - pitchBendBias
		track.Events = append(track.Events, Event{
			Tick:    tick,
			Type:    PitchBend,
			Channel: channel,
			Bend:    bend,
		})

	case kind == statusController || kind == statusPolyPressure:
		if _, _, err := readTwo(tr); err != nil {
			return err
		}

	case kind == statusProgram || kind == statusChanPressure:
		if _, err := tr.ReadByte(); err != nil {
			return fmt.Errorf("%w: %v", ErrTruncated, err)
		}

	case status == statusMeta:
		return parseMeta(tr, track)

	case status == statusSysEx || status == statusSysExEnd:
		length, err := readVarLen(tr)
		if err != nil {
			return err
		}
		if _, err := tr.Discard(int(length)); err != nil {
			return fmt.Errorf("%w: %v", ErrTruncated, err)
		}

	default:
		return fmt.Errorf("%w: unexpected status byte 0x%02X", ErrTruncated, status)
	}

	return nil
}

// parseMeta handles meta events, keeping only tempo changes.
func parseMeta(tr *bufio.Reader, track *Track) error {
	metaType, err := tr.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	length, err := readVarLen(tr)
	if err != nil {
		return err
	}

	if metaType == metaSetTempo && length == 3 {
		var b [3]byte
		if _, err := io.ReadFull(tr, b[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		track.TempoMicrosPerBeat = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		return nil
	}

	if _, err := tr.Discard(int(length)); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return nil
}

// readVarLen reads a MIDI variable-length quantity.
func readVarLen(tr *bufio.Reader) (uint32, error) {
	var value uint32
	for {
		b, err := tr.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && value == 0 {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		value = value<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return value, nil
		}
	}
}

// readTwo reads two consecutive data bytes.
func readTwo(tr *bufio.Reader) (uint8, uint8, error) {
	a, err := tr.ReadByte()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	b, err := tr.ReadByte()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return a, b, nil
}

// readUint16 reads a big-endian uint16.
func readUint16(br *bufio.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(br, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// readUint32 reads a big-endian uint32.
func readUint32(br *bufio.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(br, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
