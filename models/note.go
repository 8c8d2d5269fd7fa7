package models

import "fmt"

// MaxVelocity is the loudest MIDI velocity
const MaxVelocity = 127

// noteNames spells accidentals as flats
var noteNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// Note is one played pitch.
// Duration is counted in sixteenth notes and is at least 1.
type Note struct {
	Pitch    uint8  `json:"pitch"`
	Duration uint32 `json:"duration"`
	Velocity uint8  `json:"velocity"`
}

// Name returns the pitch name of the note, e.g. "C4" for MIDI key 60
func (n Note) Name() string {
	return NoteName(int(n.Pitch))
}

func (n Note) String() string {
	return fmt.Sprintf("%s(%d)x%d", n.Name(), n.Pitch, n.Duration)
}

// NoteName names a MIDI key number.
// Middle C (key 60) is C4: octave = key/12 - 1.
func NoteName(key int) string {
	if key < 0 {
		return fmt.Sprintf("?%d", key)
	}
	return fmt.Sprintf("%s%d", noteNames[key%12], key/12-1)
}

// NoteEvent is a note placed on a timeline, in beats (quarter notes)
type NoteEvent struct {
	MidiNoteNumber int     `json:"midiNoteNumber"`
	Velocity       int     `json:"velocity"`
	StartBeats     float64 `json:"startBeats"`
	DurationBeats  float64 `json:"durationBeats"`
}
