package lsystem

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSequenceTooLarge is returned by Forward when the next generation would
// exceed the configured symbol ceiling
var ErrSequenceTooLarge = errors.New("sequence exceeds symbol limit")

// Engine advances an axiom through generations of parallel, context-free
// rewriting.
//
// Each generation scans the current sequence once and builds a new one from
// the productions; substitutions never see each other's output within the
// same generation. Sequence length can grow exponentially with the number of
// generations, so callers that accept untrusted grammars should set a
// ceiling with WithMaxSymbols.
type Engine struct {
	productions Productions
	axiom       []Symbol
	sequence    []Symbol
	generation  int
	maxSymbols  int // 0 = unlimited
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithMaxSymbols caps the sequence length. Zero disables the cap.
func WithMaxSymbols(n int) EngineOption {
	return func(e *Engine) {
		if n < 0 {
			n = 0
		}
		e.maxSymbols = n
	}
}

// NewEngine creates an engine at generation 0.
// The productions and axiom are copied; later changes to the arguments have
// no effect on the engine.
func NewEngine(productions Productions, axiom []Symbol, opts ...EngineOption) *Engine {
	table := productions.Clone()

	// No productions: every axiom symbol maps to itself, so the sequence
	// stays frozen for any number of generations.
	if len(table) == 0 {
		for _, sym := range axiom {
			table[sym] = []Symbol{sym}
		}
	}

	e := &Engine{
		productions: table,
		axiom:       append([]Symbol(nil), axiom...),
		sequence:    append([]Symbol(nil), axiom...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Forward performs the given number of rewriting generations.
// Forward(0) is a no-op and Forward(a) followed by Forward(b) equals
// Forward(a+b). When a symbol ceiling is set and the next generation would
// exceed it, Forward stops before that generation and returns an error
// wrapping ErrSequenceTooLarge.
func (e *Engine) Forward(generations uint) error {
	for i := uint(0); i < generations; i++ {
		size := e.nextSize()
		if e.maxSymbols > 0 && size > e.maxSymbols {
			return fmt.Errorf("generation %d would hold %d symbols (limit %d): %w",
				e.generation+1, size, e.maxSymbols, ErrSequenceTooLarge)
		}

		next := make([]Symbol, 0, size)
		for _, sym := range e.sequence {
			if rhs, ok := e.productions.Lookup(sym); ok {
				next = append(next, rhs...)
			} else {
				next = append(next, sym)
			}
		}

		e.sequence = next
		e.generation++
	}
	return nil
}

// nextSize computes the length of the next generation without building it
func (e *Engine) nextSize() int {
	size := 0
	for _, sym := range e.sequence {
		if rhs, ok := e.productions.Lookup(sym); ok {
			size += len(rhs)
		} else {
			size++
		}
	}
	return size
}

// Sequence returns a copy of the current generation
func (e *Engine) Sequence() []Symbol {
	return append([]Symbol(nil), e.sequence...)
}

// Len returns the length of the current generation
func (e *Engine) Len() int {
	return len(e.sequence)
}

// Generation returns how many generations have been applied
func (e *Engine) Generation() int {
	return e.generation
}

// Axiom returns a copy of the starting sequence
func (e *Engine) Axiom() []Symbol {
	return append([]Symbol(nil), e.axiom...)
}

// Productions returns a copy of the production table in use
func (e *Engine) Productions() Productions {
	return e.productions.Clone()
}

// SequenceString renders the current generation as grammar characters
func (e *Engine) SequenceString() string {
	return FormatSymbols(e.sequence)
}

// Alphabet returns every distinct symbol in the axiom and productions
func (e *Engine) Alphabet() []Symbol {
	seen := make(map[Symbol]struct{})
	add := func(symbols []Symbol) {
		for _, sym := range symbols {
			seen[sym] = struct{}{}
		}
	}
	add(e.axiom)
	for lhs, rhs := range e.productions {
		add([]Symbol{lhs})
		add(rhs)
	}

	out := make([]Symbol, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rune() < out[j].Rune() })
	return out
}

// String reports the engine state for diagnostic printing
func (e *Engine) String() string {
	alphabet := make([]string, 0)
	for _, sym := range e.Alphabet() {
		alphabet = append(alphabet, sym.String())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Result: %s\n", e.SequenceString())
	fmt.Fprintf(&sb, "Step: %d\n", e.generation)
	fmt.Fprintf(&sb, "Axiom: %s\n", FormatSymbols(e.axiom))
	fmt.Fprintf(&sb, "Alphabet: %s\n", strings.Join(alphabet, " "))
	fmt.Fprintf(&sb, "Rules: %s", e.productions.String())
	return sb.String()
}
