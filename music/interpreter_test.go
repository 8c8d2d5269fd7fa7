package music

import (
	"testing"

	"github.com/Conceptual-Machines/lsys-music-go/lsystem"
	"github.com/Conceptual-Machines/lsys-music-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chromatic(t *testing.T) Scale {
	t.Helper()
	s, err := ScalePreset("chromatic")
	require.NoError(t, err)
	return s
}

func run(t *testing.T, scale Scale, seq string, start uint8, opts ...InterpreterOption) []models.Note {
	t.Helper()
	symbols, err := lsystem.ParseSymbols(seq)
	require.NoError(t, err)
	notes, err := NewInterpreter(scale, opts...).Run(symbols, start)
	require.NoError(t, err)
	return notes
}

func note(pitch uint8, duration uint32) models.Note {
	return models.Note{Pitch: pitch, Duration: duration, Velocity: models.MaxVelocity}
}

func TestInterpreter_Chromatic(t *testing.T) {
	tests := []struct {
		name     string
		seq      string
		expected []models.Note
	}{
		{
			name:     "step up",
			seq:      "S+S",
			expected: []models.Note{note(60, 1), note(61, 1)},
		},
		{
			name:     "step down",
			seq:      "S-S",
			expected: []models.Note{note(60, 1), note(59, 1)},
		},
		{
			name:     "tie",
			seq:      "SS",
			expected: []models.Note{note(60, 2)},
		},
		{
			name:     "quarter note",
			seq:      "SSSS",
			expected: []models.Note{note(60, 4)},
		},
		{
			name:     "push and pop",
			seq:      "S[+S]S",
			expected: []models.Note{note(60, 1), note(61, 1), note(60, 1)},
		},
		{
			name:     "no re-merge after a different pitch",
			seq:      "S+S-S",
			expected: []models.Note{note(60, 1), note(61, 1), note(60, 1)},
		},
		{
			name:     "tie across brackets",
			seq:      "S[S]S",
			expected: []models.Note{note(60, 3)},
		},
		{
			name:     "letters are inert",
			seq:      "XSYSZ",
			expected: []models.Note{note(60, 2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := run(t, chromatic(t), tt.seq, 60)
			assert.Equal(t, tt.expected, notes)
		})
	}
}

func TestInterpreter_PopOnEmptyStack(t *testing.T) {
	notes := run(t, chromatic(t), "+]S]]-S", 60)
	assert.Equal(t, []models.Note{note(61, 1), note(60, 1)}, notes)
}

func TestInterpreter_MajorScaleWalk(t *testing.T) {
	major, err := ScalePreset("major")
	require.NoError(t, err)

	notes := run(t, major, "S+S+S+S+S+S+S+S", 60)
	pitches := make([]uint8, len(notes))
	for i, n := range notes {
		pitches[i] = n.Pitch
	}
	assert.Equal(t, []uint8{60, 62, 64, 65, 67, 69, 71, 72}, pitches)

	// Walking down from the root uses the last interval first
	notes = run(t, major, "S-S-S", 60)
	assert.Equal(t, []models.Note{note(60, 1), note(59, 1), note(57, 1)}, notes)
}

func TestInterpreter_DegreeRestoredByPop(t *testing.T) {
	major, err := ScalePreset("major")
	require.NoError(t, err)

	// After ] the degree is back at 0, so + moves a whole step again
	notes := run(t, major, "[++]+S", 60)
	assert.Equal(t, []models.Note{note(62, 1)}, notes)
}

func TestInterpreter_WrapAround(t *testing.T) {
	s, err := NewScale(10)
	require.NoError(t, err)

	notes := run(t, s, "S+S", 250)
	assert.Equal(t, []models.Note{note(250, 1), note(4, 1)}, notes)

	notes = run(t, s, "S-S", 3)
	assert.Equal(t, []models.Note{note(3, 1), note(249, 1)}, notes)
}

func TestInterpreter_Strict(t *testing.T) {
	s, err := NewScale(12)
	require.NoError(t, err)
	symbols, err := lsystem.ParseSymbols("S+S+S")
	require.NoError(t, err)

	_, err = NewInterpreter(s, WithPitchMode(PitchStrict)).Run(symbols, 110)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPitchOutOfRange)

	_, err = NewInterpreter(s, WithPitchMode(PitchStrict)).Run(symbols, 100)
	assert.NoError(t, err)

	down, err := lsystem.ParseSymbols("-S")
	require.NoError(t, err)
	_, err = NewInterpreter(s, WithPitchMode(PitchStrict)).Run(down, 5)
	assert.ErrorIs(t, err, ErrPitchOutOfRange)
}

func TestInterpreter_LettersOnlyProduceNothing(t *testing.T) {
	rules := lsystem.Productions{}
	rules.Set(lsystem.Letter('A'), []lsystem.Symbol{lsystem.Letter('A')})
	rules.Set(lsystem.Letter('B'), []lsystem.Symbol{lsystem.Letter('B')})
	axiom := []lsystem.Symbol{lsystem.Letter('A'), lsystem.Letter('B')}

	for depth := uint(0); depth < 5; depth++ {
		e := lsystem.NewEngine(rules, axiom)
		require.NoError(t, e.Forward(depth))
		notes, err := NewInterpreter(chromatic(t)).Run(e.Sequence(), 60)
		require.NoError(t, err)
		assert.Empty(t, notes, "depth %d", depth)
	}
}

func TestInterpreter_Velocity(t *testing.T) {
	notes := run(t, chromatic(t), "S", 60, WithVelocity(80))
	require.Len(t, notes, 1)
	assert.Equal(t, uint8(80), notes[0].Velocity)

	notes = run(t, chromatic(t), "S", 60, WithVelocity(200))
	assert.Equal(t, uint8(127), notes[0].Velocity)
}

func TestInterpreter_FractalGrammar(t *testing.T) {
	rules := lsystem.Productions{}
	rules.Set(lsystem.Play, []lsystem.Symbol{lsystem.Play, lsystem.Play})
	rhs, err := lsystem.ParseSymbols("S+[X]-X")
	require.NoError(t, err)
	rules.Set(lsystem.Letter('X'), rhs)

	e := lsystem.NewEngine(rules, []lsystem.Symbol{lsystem.Letter('X')})
	require.NoError(t, e.Forward(2))
	// SS+[S+[X]-X]-S+[X]-X
	notes, err := NewInterpreter(chromatic(t)).Run(e.Sequence(), 60)
	require.NoError(t, err)

	assert.Equal(t, []models.Note{note(60, 2), note(61, 1), note(60, 1)}, notes)
}

func TestSchedule(t *testing.T) {
	events := Schedule([]models.Note{note(60, 2), note(62, 1), note(64, 4)})
	require.Len(t, events, 3)

	assert.Equal(t, 0.0, events[0].StartBeats)
	assert.Equal(t, 0.5, events[0].DurationBeats)
	assert.Equal(t, 0.5, events[1].StartBeats)
	assert.Equal(t, 0.25, events[1].DurationBeats)
	assert.Equal(t, 0.75, events[2].StartBeats)
	assert.Equal(t, 1.0, events[2].DurationBeats)
	assert.Equal(t, 64, events[2].MidiNoteNumber)
	assert.Equal(t, 127, events[2].Velocity)
}
