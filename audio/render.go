// Package audio renders notes to a WAV file for quick listening.
// Rendering is offline; nothing is sent to a sound device.
package audio

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/Conceptual-Machines/lsys-music-go/models"
)

const (
	defaultSampleRate = 44100
	defaultBPM        = 120
	attackTime        = 5 * time.Millisecond
	releaseTime       = 20 * time.Millisecond
)

// RenderConfig controls WAV rendering
type RenderConfig struct {
	SampleRate int
	BPM        float64
	Wave       WaveType
	Volume     float64 // Master gain, 0.0-1.0
}

// DefaultRenderConfig returns 44.1kHz sine at 120 BPM
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		SampleRate: defaultSampleRate,
		BPM:        defaultBPM,
		Wave:       WaveSine,
		Volume:     0.8,
	}
}

// LoadRenderConfig applies LSYS_AUDIO_* environment overrides to the defaults
func LoadRenderConfig() RenderConfig {
	cfg := DefaultRenderConfig()

	if sampleRate := os.Getenv("LSYS_AUDIO_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	// 0-100 converted to 0.0-1.0
	if volume := os.Getenv("LSYS_AUDIO_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.Volume = float64(val) / 100.0
			if cfg.Volume < 0 {
				cfg.Volume = 0
			}
			if cfg.Volume > 1 {
				cfg.Volume = 1
			}
		}
	}

	if wave := os.Getenv("LSYS_AUDIO_WAVE"); wave != "" {
		if w, err := ParseWave(wave); err == nil {
			cfg.Wave = w
		}
	}

	return cfg
}

// ParseWave maps a wave name (sine, square, saw, triangle) to its WaveType
func ParseWave(name string) (WaveType, error) {
	w, ok := waveNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return WaveSine, fmt.Errorf("unknown wave type %q", name)
	}
	return w, nil
}

// SixteenthDuration is the length of one duration unit at the given tempo
func SixteenthDuration(bpm float64) time.Duration {
	return time.Duration(float64(time.Minute) / bpm / 4)
}

// NoteSamples returns how many samples a note occupies
func (c RenderConfig) NoteSamples(n models.Note) int {
	rate := beep.SampleRate(c.SampleRate)
	return rate.N(SixteenthDuration(c.BPM) * time.Duration(n.Duration))
}

// Streamer builds the mono-in-stereo stream for the notes, played back to back
func (c RenderConfig) Streamer(notes []models.Note) (beep.Streamer, error) {
	if c.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.BPM <= 0 {
		return nil, fmt.Errorf("invalid tempo %.2f BPM", c.BPM)
	}

	rate := beep.SampleRate(c.SampleRate)
	attack := rate.N(attackTime)
	release := rate.N(releaseTime)

	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		total := c.NoteSamples(n)
		osc := newOscillator(NoteFreq(int(n.Pitch)), total, c.Wave, rate)
		shaped := newEnvelope(osc, total, attack, release)
		gain := c.Volume * float64(n.Velocity) / float64(models.MaxVelocity)
		parts = append(parts, newVolume(shaped, gain))
	}
	return beep.Seq(parts...), nil
}

// RenderWAV encodes the notes as 16-bit stereo WAV into w
func RenderWAV(w io.WriteSeeker, notes []models.Note, cfg RenderConfig) error {
	stream, err := cfg.Streamer(notes)
	if err != nil {
		return err
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(cfg.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(w, stream, format); err != nil {
		return fmt.Errorf("could not encode WAV: %w", err)
	}
	return nil
}

// SaveWAV renders the notes into a WAV file at path
func SaveWAV(path string, notes []models.Note, cfg RenderConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create WAV file %s: %w", path, err)
	}

	if err := RenderWAV(f, notes, cfg); err != nil {
		f.Close()
		return fmt.Errorf("could not save WAV file %s: %w", path, err)
	}
	return f.Close()
}
