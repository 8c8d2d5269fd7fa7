package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteName(t *testing.T) {
	tests := []struct {
		key      int
		expected string
	}{
		{60, "C4"},
		{61, "Db4"},
		{69, "A4"},
		{0, "C-1"},
		{11, "B-1"},
		{127, "G9"},
		{255, "Eb20"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, NoteName(tt.key))
		})
	}
}

func TestNote_String(t *testing.T) {
	n := Note{Pitch: 62, Duration: 4, Velocity: MaxVelocity}
	assert.Equal(t, "D4", n.Name())
	assert.Equal(t, "D4(62)x4", n.String())
}
