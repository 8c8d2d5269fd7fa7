package lsystem

import (
	"fmt"
	"strings"
)

// Kind identifies what a Symbol does when a sequence is interpreted
type Kind uint8

const (
	KindLetter Kind = iota // Rewriting placeholder, no musical effect
	KindPush               // '[' save pitch and degree
	KindPop                // ']' restore pitch and degree
	KindRaise              // '+' move one scale degree up
	KindLower              // '-' move one scale degree down
	KindPlay               // 'S' play (or extend) a sixteenth note
)

// Symbol is one token of an L-system sequence.
// Symbols are comparable and are used directly as map keys; two letters are
// equal only when their characters match.
type Symbol struct {
	Kind Kind
	Char rune // Set for KindLetter only
}

var (
	Push  = Symbol{Kind: KindPush}
	Pop   = Symbol{Kind: KindPop}
	Raise = Symbol{Kind: KindRaise}
	Lower = Symbol{Kind: KindLower}
	Play  = Symbol{Kind: KindPlay}
)

// Letter returns the inert letter symbol for an uppercase character
func Letter(r rune) Symbol {
	return Symbol{Kind: KindLetter, Char: r}
}

// ParseSymbol maps a grammar character to its symbol.
// 'S' is reserved for Play; every other uppercase letter becomes a Letter.
func ParseSymbol(r rune) (Symbol, bool) {
	switch {
	case r == '[':
		return Push, true
	case r == ']':
		return Pop, true
	case r == '+':
		return Raise, true
	case r == '-':
		return Lower, true
	case r == 'S':
		return Play, true
	case r >= 'A' && r <= 'Z':
		return Letter(r), true
	}
	return Symbol{}, false
}

// ParseSymbols converts a run of grammar characters, ignoring spaces and tabs
func ParseSymbols(s string) ([]Symbol, error) {
	symbols := make([]Symbol, 0, len(s))
	for i, r := range s {
		if r == ' ' || r == '\t' {
			continue
		}
		sym, ok := ParseSymbol(r)
		if !ok {
			return nil, fmt.Errorf("invalid symbol %q at offset %d", r, i)
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// Rune returns the grammar character for the symbol
func (s Symbol) Rune() rune {
	switch s.Kind {
	case KindPush:
		return '['
	case KindPop:
		return ']'
	case KindRaise:
		return '+'
	case KindLower:
		return '-'
	case KindPlay:
		return 'S'
	}
	return s.Char
}

func (s Symbol) String() string {
	return string(s.Rune())
}

// FormatSymbols renders a sequence back into grammar characters
func FormatSymbols(symbols []Symbol) string {
	var sb strings.Builder
	sb.Grow(len(symbols))
	for _, sym := range symbols {
		sb.WriteRune(sym.Rune())
	}
	return sb.String()
}
