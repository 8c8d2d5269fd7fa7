package music

import (
	"fmt"
	"strconv"
	"strings"
)

// Note to semitone offset from C
var noteOffsets = map[string]int{
	"C":  0,
	"C#": 1, "Db": 1,
	"D":  2,
	"D#": 3, "Eb": 3,
	"E":  4, "Fb": 4,
	"E#": 5, "F": 5,
	"F#": 6, "Gb": 6,
	"G":  7,
	"G#": 8, "Ab": 8,
	"A":  9,
	"A#": 10, "Bb": 10,
	"B":  11,
	// Cb and B# cross into the neighbouring octave
	"Cb": -1, "B#": 12,
}

// ParseKey converts a MIDI key number ("60") or a note name ("C4", "Eb3",
// "F#-1") to a key in 0-127. C4 = 60.
func ParseKey(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty key")
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("key %d out of range 0-127", n)
		}
		return uint8(n), nil
	}

	root, err := parseRootNote(s)
	if err != nil {
		return 0, err
	}

	octave, err := strconv.Atoi(s[len(root):])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q", s)
	}

	key := noteToMIDI(root, octave)
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("note %s is MIDI key %d, out of range 0-127", s, key)
	}
	return uint8(key), nil
}

// parseRootNote extracts the root (C, C#, Db, ...) from the front of a note name
func parseRootNote(name string) (string, error) {
	if len(name) == 0 {
		return "", fmt.Errorf("empty note name")
	}

	root := name[:1]
	if len(name) > 1 && (name[1] == '#' || name[1] == 'b') {
		root = name[:2]
	}

	if _, ok := noteOffsets[root]; !ok {
		return "", fmt.Errorf("invalid root note: %s", root)
	}
	return root, nil
}

func noteToMIDI(root string, octave int) int {
	return (octave+1)*12 + noteOffsets[root]
}
