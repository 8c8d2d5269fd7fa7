package music

import (
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/lsys-music-go/lsystem"
	"github.com/Conceptual-Machines/lsys-music-go/models"
)

// ErrPitchOutOfRange is returned in strict mode when a move leaves 0-127
var ErrPitchOutOfRange = errors.New("pitch out of MIDI range")

// PitchMode selects how pitch moves past the ends of the range are handled
type PitchMode int

const (
	PitchWrap   PitchMode = iota // 8-bit wraparound, never errors
	PitchStrict                  // error when a move leaves 0-127
)

// maxKey is the highest valid MIDI key
const maxKey = 127

// Interpreter turns a symbol sequence into notes
type Interpreter struct {
	scale    Scale
	mode     PitchMode
	velocity uint8
}

// InterpreterOption configures an Interpreter
type InterpreterOption func(*Interpreter)

// WithPitchMode sets wraparound or strict pitch handling
func WithPitchMode(mode PitchMode) InterpreterOption {
	return func(in *Interpreter) {
		in.mode = mode
	}
}

// WithVelocity sets the velocity of emitted notes (clamped to 0-127)
func WithVelocity(v uint8) InterpreterOption {
	return func(in *Interpreter) {
		if v > models.MaxVelocity {
			v = models.MaxVelocity
		}
		in.velocity = v
	}
}

// NewInterpreter creates an interpreter for the given scale
func NewInterpreter(scale Scale, opts ...InterpreterOption) *Interpreter {
	in := &Interpreter{
		scale:    scale,
		mode:     PitchWrap,
		velocity: models.MaxVelocity,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

type frame struct {
	pitch  uint8
	degree int
}

// state is the per-run turtle state
type state struct {
	frame
	stack     []frame
	notes     []models.Note
	lastPitch uint8
	emitted   bool
}

// Run walks the sequence from left to right starting at the given pitch and
// returns the notes in performance order. Consecutive plays at the same pitch
// are tied into one longer note. Run only fails in PitchStrict mode.
func (in *Interpreter) Run(seq []lsystem.Symbol, start uint8) ([]models.Note, error) {
	st := &state{frame: frame{pitch: start}}

	for i, sym := range seq {
		switch sym.Kind {
		case lsystem.KindPush:
			st.stack = append(st.stack, st.frame)

		case lsystem.KindPop:
			if len(st.stack) == 0 {
				continue
			}
			st.frame = st.stack[len(st.stack)-1]
			st.stack = st.stack[:len(st.stack)-1]

		case lsystem.KindRaise:
			next := int(st.pitch) + in.scale.NextFrom(st.degree)
			if in.mode == PitchStrict && next > maxKey {
				return nil, fmt.Errorf("symbol %d (+) moves %s to key %d: %w",
					i, models.NoteName(int(st.pitch)), next, ErrPitchOutOfRange)
			}
			st.pitch = uint8(next)
			st.degree++

		case lsystem.KindLower:
			next := int(st.pitch) - in.scale.PrevFrom(st.degree)
			if in.mode == PitchStrict && next < 0 {
				return nil, fmt.Errorf("symbol %d (-) moves %s to key %d: %w",
					i, models.NoteName(int(st.pitch)), next, ErrPitchOutOfRange)
			}
			st.pitch = uint8(next)
			st.degree--

		case lsystem.KindPlay:
			if in.mode == PitchStrict && st.pitch > maxKey {
				return nil, fmt.Errorf("symbol %d (S) plays key %d: %w", i, st.pitch, ErrPitchOutOfRange)
			}
			st.play(in.velocity)

		case lsystem.KindLetter:
			// Rewriting placeholder only
		}
	}

	return st.notes, nil
}

// play ties onto the previous note when the pitch repeats, else starts a new one
func (st *state) play(velocity uint8) {
	if st.emitted && st.lastPitch == st.pitch {
		st.notes[len(st.notes)-1].Duration++
	} else {
		st.notes = append(st.notes, models.Note{
			Pitch:    st.pitch,
			Duration: 1,
			Velocity: velocity,
		})
	}
	st.lastPitch = st.pitch
	st.emitted = true
}

// Schedule lays notes end to end on a timeline in beats.
// One duration unit is a sixteenth note, a quarter of a beat.
func Schedule(notes []models.Note) []models.NoteEvent {
	events := make([]models.NoteEvent, 0, len(notes))
	currentBeat := 0.0
	for _, n := range notes {
		length := float64(n.Duration) / 4
		events = append(events, models.NoteEvent{
			MidiNoteNumber: int(n.Pitch),
			Velocity:       int(n.Velocity),
			StartBeats:     currentBeat,
			DurationBeats:  length,
		})
		currentBeat += length
	}
	return events
}
