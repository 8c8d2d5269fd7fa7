package music

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrEmptyScale   = errors.New("scale must have at least one step")
	ErrInvalidStep  = errors.New("scale steps must be between 1 and 255 half-steps")
	ErrUnknownScale = errors.New("unknown scale")
)

// Scale is a cyclic table of half-step distances between consecutive degrees
type Scale struct {
	steps []int
}

// Preset scales, as half-step intervals starting from the root
var presets = map[string][]int{
	"chromatic":  {1},
	"major":      {2, 2, 1, 2, 2, 2, 1},
	"minor":      {2, 1, 2, 2, 1, 2, 2},
	"dorian":     {2, 1, 2, 2, 2, 1, 2},
	"pentatonic": {2, 2, 3, 2, 3},
	"blues":      {3, 2, 1, 1, 3, 2},
	"whole-tone": {2, 2, 2, 2, 2, 2},
}

// NewScale builds a scale from half-step counts
func NewScale(steps ...int) (Scale, error) {
	if len(steps) == 0 {
		return Scale{}, ErrEmptyScale
	}
	for i, s := range steps {
		if s < 1 || s > 255 {
			return Scale{}, fmt.Errorf("step %d is %d: %w", i+1, s, ErrInvalidStep)
		}
	}
	return Scale{steps: append([]int(nil), steps...)}, nil
}

// ScalePreset returns a named preset scale
func ScalePreset(name string) (Scale, error) {
	steps, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scale{}, fmt.Errorf("%w: %q (allowed: %s)", ErrUnknownScale, name, strings.Join(PresetNames(), ", "))
	}
	return NewScale(steps...)
}

// PresetNames lists the available preset names
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseScaleSteps parses a comma-separated list such as "2,2,1,2,2,2,1"
func ParseScaleSteps(s string) (Scale, error) {
	fields := strings.Split(s, ",")
	steps := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Scale{}, fmt.Errorf("invalid scale step %q: %w", f, err)
		}
		steps = append(steps, n)
	}
	return NewScale(steps...)
}

// NextFrom returns the half-steps needed to move one degree up from degree.
// Negative degrees wrap from the end of the table.
func (s Scale) NextFrom(degree int) int {
	n := len(s.steps)
	return s.steps[((degree%n)+n)%n]
}

// PrevFrom returns the half-steps needed to move one degree down from degree
func (s Scale) PrevFrom(degree int) int {
	return s.NextFrom(degree - 1)
}

// Steps returns a copy of the interval table
func (s Scale) Steps() []int {
	return append([]int(nil), s.steps...)
}

// Len returns the number of degrees per cycle
func (s Scale) Len() int {
	return len(s.steps)
}

func (s Scale) String() string {
	parts := make([]string, len(s.steps))
	for i, step := range s.steps {
		parts[i] = strconv.Itoa(step)
	}
	return strings.Join(parts, ",")
}
