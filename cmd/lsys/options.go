package main

import (
	"fmt"
	"strconv"

	"github.com/docopt/docopt-go"

	"github.com/Conceptual-Machines/lsys-music-go/music"
)

const version = "lsys 0.3.0"

const usage = `lsys - L-system music generator

Usage:
  lsys render FILE --depth=N --out=PATH [--scale=NAME | --custom-scale=STEPS] [--start-at=KEY] [--wav=PATH] [--bpm=BPM] [--strict] [--max-symbols=N] [--print-result]
  lsys compose DESCRIPTION --out=PATH [--provider=NAME] [--model=MODEL]
  lsys explore
  lsys -h | --help
  lsys --version

Arguments:
  FILE         Grammar file: rules, one per line, then the axiom.
  DESCRIPTION  What the composed grammar should sound like.

Options:
  -d, --depth=N          Generations of rewriting to apply.
  -o, --out=PATH         Output path: a MIDI file for render, a grammar file for compose.
  -s, --scale=NAME       Preset scale: chromatic, major, minor, dorian, pentatonic, blues, whole-tone [default: major].
  --custom-scale=STEPS   Comma-separated half-step intervals, e.g. 2,2,1,2,2,2,1.
  --start-at=KEY         Starting note, a MIDI number or a name like C4 [default: 60].
  --wav=PATH             Also render a WAV preview.
  --bpm=BPM              Tempo for the MIDI tempo event and the WAV preview [default: 120].
  --strict               Fail when the melody leaves the MIDI range instead of wrapping.
  --max-symbols=N        Stop when a generation would exceed N symbols, 0 for no limit.
  --print-result         Print the expanded sequence and grammar summary.
  --provider=NAME        LLM provider: openai or gemini.
  --model=MODEL          LLM model name.
  -h, --help             Display this help.
  --version              Print version.

Environment:
  OPENAI_API_KEY, GEMINI_API_KEY, SENTRY_DSN, LSYS_PROVIDER, LSYS_MODEL,
  LSYS_MAX_SYMBOLS and LSYS_AUDIO_* are read from the environment or .env.
`

// Command names
const (
	cmdRender  = "render"
	cmdCompose = "compose"
	cmdExplore = "explore"
)

// Options is the validated command line
type Options struct {
	Command     string
	GrammarPath string
	Depth       uint
	Out         string
	Scale       music.Scale
	ScaleName   string
	Start       uint8
	WAV         string
	BPM         float64
	Strict      bool
	MaxSymbols  int // -1 when not given on the command line
	PrintResult bool
	Description string
	Provider    string
	Model       string
}

func parseOptions(parser *docopt.Parser, argv []string) (*Options, error) {
	opts, err := parser.ParseArgs(usage, argv, version)
	if err != nil {
		return nil, err
	}

	o := &Options{MaxSymbols: -1}
	switch {
	case isSet(opts, cmdRender):
		o.Command = cmdRender
		if err := o.parseRender(opts); err != nil {
			return nil, err
		}
		return o, nil
	case isSet(opts, cmdCompose):
		o.Command = cmdCompose
		o.Description, _ = opts.String("DESCRIPTION")
		o.Out, _ = opts.String("--out")
		o.Provider, _ = opts.String("--provider")
		o.Model, _ = opts.String("--model")
		return o, nil
	case isSet(opts, cmdExplore):
		o.Command = cmdExplore
		return o, nil
	}
	return nil, fmt.Errorf("no command given")
}

func isSet(opts docopt.Opts, key string) bool {
	v, _ := opts.Bool(key)
	return v
}

func (o *Options) parseRender(opts docopt.Opts) error {
	o.GrammarPath, _ = opts.String("FILE")
	o.Out, _ = opts.String("--out")
	o.WAV, _ = opts.String("--wav")
	o.Strict, _ = opts.Bool("--strict")
	o.PrintResult, _ = opts.Bool("--print-result")

	depth, _ := opts.String("--depth")
	d, err := strconv.ParseUint(depth, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid --depth %q: must be a non-negative integer", depth)
	}
	o.Depth = uint(d)

	if custom, _ := opts.String("--custom-scale"); custom != "" {
		if o.Scale, err = music.ParseScaleSteps(custom); err != nil {
			return fmt.Errorf("invalid --custom-scale: %w", err)
		}
		o.ScaleName = "custom(" + custom + ")"
	} else {
		o.ScaleName, _ = opts.String("--scale")
		if o.Scale, err = music.ScalePreset(o.ScaleName); err != nil {
			return fmt.Errorf("invalid --scale: %w", err)
		}
	}

	startAt, _ := opts.String("--start-at")
	if o.Start, err = music.ParseKey(startAt); err != nil {
		return fmt.Errorf("invalid --start-at: %w", err)
	}

	bpm, _ := opts.String("--bpm")
	if o.BPM, err = strconv.ParseFloat(bpm, 64); err != nil || o.BPM <= 0 {
		return fmt.Errorf("invalid --bpm %q: must be a positive number", bpm)
	}

	if maxSymbols, _ := opts.String("--max-symbols"); maxSymbols != "" {
		n, err := strconv.Atoi(maxSymbols)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid --max-symbols %q: must be a non-negative integer", maxSymbols)
		}
		o.MaxSymbols = n
	}

	return nil
}
