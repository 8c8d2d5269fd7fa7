// Package midifile writes notes as a single-track Standard MIDI File.
package midifile

import (
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/lsys-music-go/models"
)

const (
	// DefaultChannel is the channel every note is written to
	DefaultChannel = 1
	// TicksPerQuarter gives one tick per sixteenth note
	TicksPerQuarter = 4
)

// Options controls how notes are written
type Options struct {
	Channel uint8   // 0-15
	BPM     float64 // Tempo meta event; 0 omits it
}

// DefaultOptions returns the channel and tempo used by the command line
func DefaultOptions() Options {
	return Options{Channel: DefaultChannel}
}

// Write encodes notes into w. Each note becomes a NoteOn at delta 0 followed
// by a NoteOff after Duration ticks, so notes play back to back.
func Write(w io.Writer, notes []models.Note, opts Options) error {
	s, err := build(notes, opts)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("could not write MIDI data: %w", err)
	}
	return nil
}

// Save writes notes to a MIDI file at path
func Save(path string, notes []models.Note, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not save MIDI file to path %s: %w", path, err)
	}

	if err := Write(f, notes, opts); err != nil {
		f.Close()
		return fmt.Errorf("could not save MIDI file to path %s: %w", path, err)
	}
	return f.Close()
}

func build(notes []models.Note, opts Options) (*smf.SMF, error) {
	if opts.Channel > 15 {
		return nil, fmt.Errorf("MIDI channel %d out of range 0-15", opts.Channel)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var track smf.Track
	if opts.BPM > 0 {
		track.Add(0, smf.MetaTempo(opts.BPM))
	}

	for _, n := range notes {
		key := n.Pitch & 0x7F
		vel := n.Velocity & 0x7F
		track.Add(0, midi.NoteOn(opts.Channel, key, vel))
		track.Add(n.Duration, midi.NoteOffVelocity(opts.Channel, key, vel))
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("could not add MIDI track: %w", err)
	}
	return s, nil
}
