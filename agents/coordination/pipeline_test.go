package coordination

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/lsys-music-go/audio"
	"github.com/Conceptual-Machines/lsys-music-go/grammar"
	"github.com/Conceptual-Machines/lsys-music-go/lsystem"
	"github.com/Conceptual-Machines/lsys-music-go/models"
	"github.com/Conceptual-Machines/lsys-music-go/music"
)

const fractal = `S => SS
X => S+[X]-X
X
`

func majorRequest(t *testing.T) *RenderRequest {
	t.Helper()
	scale, err := music.ScalePreset("major")
	require.NoError(t, err)
	return &RenderRequest{
		Source:    fractal,
		Depth:     2,
		Scale:     scale,
		ScaleName: "major",
		Start:     60,
		BPM:       120,
		Audio:     audio.RenderConfig{SampleRate: 8000, BPM: 120, Wave: audio.WaveSine, Volume: 0.5},
	}
}

func TestPipeline_RenderMIDI(t *testing.T) {
	req := majorRequest(t)
	req.MIDIPath = filepath.Join(t.TempDir(), "out.mid")

	result, err := NewPipeline().Render(context.Background(), req)
	require.NoError(t, err)

	expected := []models.Note{
		{Pitch: 60, Duration: 2, Velocity: models.MaxVelocity},
		{Pitch: 62, Duration: 1, Velocity: models.MaxVelocity},
		{Pitch: 60, Duration: 1, Velocity: models.MaxVelocity},
	}
	assert.Equal(t, expected, result.Notes)
	assert.Len(t, result.Events, 3)
	assert.Equal(t, 20, result.Symbols)
	assert.Contains(t, result.Report, "SS+[S+[X]-X]-S+[X]-X")

	data, err := os.ReadFile(req.MIDIPath)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data[:4]))
}

func TestPipeline_RenderMIDIAndWAV(t *testing.T) {
	dir := t.TempDir()
	req := majorRequest(t)
	req.MIDIPath = filepath.Join(dir, "out.mid")
	req.WAVPath = filepath.Join(dir, "out.wav")

	_, err := NewPipeline().Render(context.Background(), req)
	require.NoError(t, err)

	for _, path := range []string{req.MIDIPath, req.WAVPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestPipeline_RenderFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "double.lsys")
	require.NoError(t, os.WriteFile(path, []byte("S => SS\nS\n"), 0o644))

	req := majorRequest(t)
	req.Source = ""
	req.GrammarPath = path
	req.Depth = 3
	req.MIDIPath = filepath.Join(dir, "out.mid")

	result, err := NewPipeline().Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []models.Note{{Pitch: 60, Duration: 8, Velocity: models.MaxVelocity}}, result.Notes)
}

func TestPipeline_Errors(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(req *RenderRequest)
		sentinel error
	}{
		{
			name:     "no output",
			modify:   func(req *RenderRequest) { req.MIDIPath = "" },
			sentinel: ErrNoOutput,
		},
		{
			name:     "empty scale",
			modify:   func(req *RenderRequest) { req.Scale = music.Scale{} },
			sentinel: music.ErrEmptyScale,
		},
		{
			name:     "parse error",
			modify:   func(req *RenderRequest) { req.Source = "S => SS\n" },
			sentinel: grammar.ErrMissingAxiom,
		},
		{
			name: "symbol ceiling",
			modify: func(req *RenderRequest) {
				req.Source = "S => SS\nS"
				req.Depth = 10
				req.MaxSymbols = 100
			},
			sentinel: lsystem.ErrSequenceTooLarge,
		},
		{
			name: "strict pitch",
			modify: func(req *RenderRequest) {
				req.Source = "S++S"
				req.Start = 126
				req.Strict = true
			},
			sentinel: music.ErrPitchOutOfRange,
		},
		{
			name:   "missing grammar file",
			modify: func(req *RenderRequest) { req.Source = ""; req.GrammarPath = "/nonexistent/file.lsys" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := majorRequest(t)
			req.MIDIPath = filepath.Join(t.TempDir(), "out.mid")
			tt.modify(req)

			_, err := NewPipeline().Render(context.Background(), req)
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestPipeline_WriteErrorsAreJoined(t *testing.T) {
	req := majorRequest(t)
	req.MIDIPath = filepath.Join(t.TempDir(), "missing", "out.mid")
	req.WAVPath = filepath.Join(t.TempDir(), "missing", "out.wav")

	_, err := NewPipeline().Render(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIDI")
	assert.Contains(t, err.Error(), "WAV")
}
