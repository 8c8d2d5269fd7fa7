package lsystem

import (
	"fmt"
	"sort"
	"strings"
)

// Productions maps a symbol to its replacement sequence.
// A symbol without an entry rewrites to itself.
type Productions map[Symbol][]Symbol

// Set stores the production for lhs, replacing any previous one
func (p Productions) Set(lhs Symbol, rhs []Symbol) {
	p[lhs] = append([]Symbol(nil), rhs...)
}

// Lookup returns the replacement for sym and whether an explicit production exists
func (p Productions) Lookup(sym Symbol) ([]Symbol, bool) {
	rhs, ok := p[sym]
	return rhs, ok
}

// Clone returns a deep copy
func (p Productions) Clone() Productions {
	out := make(Productions, len(p))
	for lhs, rhs := range p {
		out[lhs] = append([]Symbol(nil), rhs...)
	}
	return out
}

// Keys returns the rule heads in grammar-character order
func (p Productions) Keys() []Symbol {
	keys := make([]Symbol, 0, len(p))
	for lhs := range p {
		keys = append(keys, lhs)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Rune() < keys[j].Rune() })
	return keys
}

func (p Productions) String() string {
	parts := make([]string, 0, len(p))
	for _, lhs := range p.Keys() {
		parts = append(parts, fmt.Sprintf("[%s -> %s]", lhs, FormatSymbols(p[lhs])))
	}
	return strings.Join(parts, " ")
}
