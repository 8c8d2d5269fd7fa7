// Package ui provides an interactive explorer for L-system grammars.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/Conceptual-Machines/lsys-music-go/grammar"
	"github.com/Conceptual-Machines/lsys-music-go/lsystem"
	"github.com/Conceptual-Machines/lsys-music-go/models"
	"github.com/Conceptual-Machines/lsys-music-go/music"
)

const prompt = "lsys> "

// ErrQuit is returned by Eval when the session should end
var ErrQuit = errors.New("quit")

var commands = []string{":go ", ":scale ", ":start ", ":rules", ":reset", ":help", ":quit"}

const help = `Enter rules and an axiom, then expand:
  X => S+[X]-X   add or replace a rule
  X              set the axiom
  :go N          expand N generations and show the notes
  :scale NAME    use a preset scale (%s) or steps like 2,2,1,2,2,2,1
  :start KEY     starting note, a MIDI number or a name like C4 or F#3
  :rules         show the current grammar
  :reset         clear rules and axiom
  :quit          leave
`

// Session holds the grammar being explored
type Session struct {
	out        io.Writer
	rules      lsystem.Productions
	axiom      []lsystem.Symbol
	scale      music.Scale
	scaleName  string
	start      uint8
	maxSymbols int
}

// NewSession creates a session writing to out. Expansion stops with an error
// beyond maxSymbols symbols; 0 means unlimited.
func NewSession(out io.Writer, maxSymbols int) *Session {
	scale, _ := music.ScalePreset("major")
	return &Session{
		out:        out,
		rules:      lsystem.Productions{},
		scale:      scale,
		scaleName:  "major",
		start:      60,
		maxSymbols: maxSymbols,
	}
}

// Eval runs one line of input
func (s *Session) Eval(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if !strings.HasPrefix(line, ":") {
		return s.statement(line)
	}

	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch fields[0] {
	case ":go":
		return s.expand(arg)
	case ":scale":
		return s.setScale(arg)
	case ":start":
		return s.setStart(arg)
	case ":rules":
		s.showRules()
	case ":reset":
		s.rules = lsystem.Productions{}
		s.axiom = nil
		fmt.Fprintln(s.out, "cleared")
	case ":help":
		fmt.Fprintf(s.out, help, strings.Join(music.PresetNames(), ", "))
	case ":quit", ":q":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %s (try :help)", fields[0])
	}
	return nil
}

func (s *Session) statement(line string) error {
	st, err := grammar.ParseStatement(line)
	if err != nil {
		return err
	}
	if st.IsRule {
		s.rules.Set(st.Head, st.Body)
		fmt.Fprintf(s.out, "rule %s -> %s\n", st.Head, lsystem.FormatSymbols(st.Body))
		return nil
	}
	s.axiom = st.Body
	fmt.Fprintf(s.out, "axiom %s\n", lsystem.FormatSymbols(st.Body))
	return nil
}

func (s *Session) expand(arg string) error {
	if len(s.axiom) == 0 {
		return grammar.ErrMissingAxiom
	}
	depth, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return fmt.Errorf("expected a generation count, got %q", arg)
	}

	var opts []lsystem.EngineOption
	if s.maxSymbols > 0 {
		opts = append(opts, lsystem.WithMaxSymbols(s.maxSymbols))
	}
	engine := lsystem.NewEngine(s.rules, s.axiom, opts...)
	if err := engine.Forward(uint(depth)); err != nil {
		return err
	}

	notes, err := music.NewInterpreter(s.scale).Run(engine.Sequence(), s.start)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Result: %s\n", engine.SequenceString())
	fmt.Fprintf(s.out, "Notes (%d): %s\n", len(notes), formatNotes(notes))
	return nil
}

func (s *Session) setScale(arg string) error {
	var (
		scale music.Scale
		err   error
	)
	if strings.ContainsAny(arg, "0123456789") {
		scale, err = music.ParseScaleSteps(arg)
	} else {
		scale, err = music.ScalePreset(arg)
	}
	if err != nil {
		return err
	}
	s.scale = scale
	s.scaleName = arg
	fmt.Fprintf(s.out, "scale %s %s\n", arg, scale)
	return nil
}

func (s *Session) setStart(arg string) error {
	key, err := music.ParseKey(arg)
	if err != nil {
		return err
	}
	s.start = key
	fmt.Fprintf(s.out, "start %s\n", models.NoteName(int(key)))
	return nil
}

func (s *Session) showRules() {
	for _, head := range s.rules.Keys() {
		body, _ := s.rules.Lookup(head)
		fmt.Fprintf(s.out, "%s => %s\n", head, lsystem.FormatSymbols(body))
	}
	if len(s.axiom) > 0 {
		fmt.Fprintln(s.out, lsystem.FormatSymbols(s.axiom))
	}
	fmt.Fprintf(s.out, "# scale %s, start %s\n", s.scaleName, models.NoteName(int(s.start)))
}

func formatNotes(notes []models.Note) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}

// Run reads from stdin, with line editing when stdin is a terminal
func Run(s *Session) error {
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return runInteractive(s)
	}
	return RunScript(s, os.Stdin)
}

// RunScript evaluates lines from r, stopping at the first error
func RunScript(s *Session, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		err := s.Eval(scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func runInteractive(s *Session) error {
	cli := liner.NewLiner()
	defer cli.Close()

	cli.SetCtrlCAborts(true)
	cli.SetCompleter(func(line string) []string {
		var out []string
		for _, c := range commands {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	})

	fmt.Fprintln(s.out, "L-system explorer. Type :help for commands.")
	for {
		line, err := cli.Prompt(prompt)
		switch {
		case err == liner.ErrPromptAborted:
			continue
		case err == io.EOF:
			fmt.Fprintln(s.out)
			return nil
		case err != nil:
			return err
		}

		cli.AppendHistory(line)
		err = s.Eval(line)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}
