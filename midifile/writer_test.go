package midifile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/lsys-music-go/models"
)

type decodedEvent struct {
	delta   uint32
	on      bool
	channel uint8
	key     uint8
}

func decodeNotes(t *testing.T, data []byte) (*smf.SMF, []decodedEvent) {
	t.Helper()
	s, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)

	var events []decodedEvent
	var pending uint32
	for _, ev := range s.Tracks[0] {
		pending += ev.Delta
		msg := midi.Message(ev.Message)
		var ch, key, vel uint8
		switch {
		case msg.GetNoteOn(&ch, &key, &vel):
			events = append(events, decodedEvent{delta: pending, on: true, channel: ch, key: key})
			pending = 0
		case msg.GetNoteOff(&ch, &key, &vel):
			events = append(events, decodedEvent{delta: pending, on: false, channel: ch, key: key})
			pending = 0
		}
	}
	return s, events
}

func TestWrite_NoteTiming(t *testing.T) {
	notes := []models.Note{
		{Pitch: 60, Duration: 2, Velocity: 127},
		{Pitch: 61, Duration: 1, Velocity: 127},
		{Pitch: 60, Duration: 4, Velocity: 127},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, notes, DefaultOptions()))

	s, events := decodeNotes(t, buf.Bytes())
	assert.Equal(t, smf.MetricTicks(TicksPerQuarter), s.TimeFormat)

	expected := []decodedEvent{
		{delta: 0, on: true, channel: 1, key: 60},
		{delta: 2, on: false, channel: 1, key: 60},
		{delta: 0, on: true, channel: 1, key: 61},
		{delta: 1, on: false, channel: 1, key: 61},
		{delta: 0, on: true, channel: 1, key: 60},
		{delta: 4, on: false, channel: 1, key: 60},
	}
	assert.Equal(t, expected, events)
}

func TestWrite_ChannelAndTempo(t *testing.T) {
	notes := []models.Note{{Pitch: 72, Duration: 1, Velocity: 100}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, notes, Options{Channel: 9, BPM: 90}))

	s, events := decodeNotes(t, buf.Bytes())
	require.Len(t, events, 2)
	assert.Equal(t, uint8(9), events[0].channel)

	var bpm float64
	found := false
	for _, ev := range s.Tracks[0] {
		if ev.Message.GetMetaTempo(&bpm) {
			found = true
		}
	}
	assert.True(t, found, "tempo meta event missing")
	assert.InDelta(t, 90.0, bpm, 0.01)
}

func TestWrite_InvalidChannel(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, nil, Options{Channel: 16})
	assert.Error(t, err)
}

func TestWrite_EmptyNotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, DefaultOptions()))

	_, events := decodeNotes(t, buf.Bytes())
	assert.Empty(t, events)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mid")
	notes := []models.Note{{Pitch: 64, Duration: 3, Velocity: 127}}

	require.NoError(t, Save(path, notes, DefaultOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data[:4]))

	_, events := decodeNotes(t, data)
	require.Len(t, events, 2)
	assert.Equal(t, uint32(3), events[1].delta)

	err = Save(filepath.Join(t.TempDir(), "missing", "out.mid"), notes, DefaultOptions())
	assert.Error(t, err)
}
