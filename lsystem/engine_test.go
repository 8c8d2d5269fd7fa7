package lsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSymbols(t *testing.T, s string) []Symbol {
	t.Helper()
	symbols, err := ParseSymbols(s)
	require.NoError(t, err)
	return symbols
}

func fractalRules(t *testing.T) Productions {
	rules := Productions{}
	rules.Set(Play, mustSymbols(t, "SS"))
	rules.Set(Letter('X'), mustSymbols(t, "S+[X]-X"))
	return rules
}

func TestEngine_ForwardZeroKeepsAxiom(t *testing.T) {
	axiom := mustSymbols(t, "X+SX")
	e := NewEngine(fractalRules(t), axiom)

	require.NoError(t, e.Forward(0))

	assert.Equal(t, axiom, e.Sequence())
	assert.Equal(t, 0, e.Generation())
}

func TestEngine_DoublingRule(t *testing.T) {
	rules := Productions{}
	rules.Set(Play, []Symbol{Play, Play})
	e := NewEngine(rules, []Symbol{Play})

	require.NoError(t, e.Forward(3))

	seq := e.Sequence()
	require.Len(t, seq, 8)
	for i, sym := range seq {
		assert.Equal(t, Play, sym, "symbol %d", i)
	}
	assert.Equal(t, 3, e.Generation())
}

func TestEngine_ForwardIsAdditive(t *testing.T) {
	tests := []struct {
		a, b uint
	}{
		{0, 0},
		{0, 3},
		{1, 1},
		{2, 3},
		{4, 0},
	}

	axiom := mustSymbols(t, "X")
	for _, tt := range tests {
		split := NewEngine(fractalRules(t), axiom)
		require.NoError(t, split.Forward(tt.a))
		require.NoError(t, split.Forward(tt.b))

		whole := NewEngine(fractalRules(t), axiom)
		require.NoError(t, whole.Forward(tt.a+tt.b))

		assert.Equal(t, whole.SequenceString(), split.SequenceString(), "a=%d b=%d", tt.a, tt.b)
		assert.Equal(t, whole.Generation(), split.Generation())
	}
}

func TestEngine_EmptyTableFreezesSequence(t *testing.T) {
	axiom := mustSymbols(t, "S[+X]-YS")
	e := NewEngine(Productions{}, axiom)

	for i := 0; i < 5; i++ {
		require.NoError(t, e.Forward(1))
		assert.Equal(t, axiom, e.Sequence())
	}

	// Identity entries are materialised for every axiom symbol
	table := e.Productions()
	for _, sym := range axiom {
		rhs, ok := table.Lookup(sym)
		require.True(t, ok, "missing identity production for %s", sym)
		assert.Equal(t, []Symbol{sym}, rhs)
	}
}

func TestEngine_ParallelRewriting(t *testing.T) {
	// A => B and B => A swap in one generation; sequential rewriting would
	// produce AA or BB instead.
	rules := Productions{}
	rules.Set(Letter('A'), []Symbol{Letter('B')})
	rules.Set(Letter('B'), []Symbol{Letter('A')})
	e := NewEngine(rules, mustSymbols(t, "AB"))

	require.NoError(t, e.Forward(1))
	assert.Equal(t, "BA", e.SequenceString())

	require.NoError(t, e.Forward(1))
	assert.Equal(t, "AB", e.SequenceString())
}

func TestEngine_MissingProductionIsIdentity(t *testing.T) {
	rules := Productions{}
	rules.Set(Letter('X'), mustSymbols(t, "S+X"))
	e := NewEngine(rules, mustSymbols(t, "[X]"))

	require.NoError(t, e.Forward(2))
	assert.Equal(t, "[S+S+X]", e.SequenceString())
}

func TestEngine_ErasingRule(t *testing.T) {
	rules := Productions{}
	rules.Set(Letter('X'), nil)
	e := NewEngine(rules, mustSymbols(t, "SXS"))

	require.NoError(t, e.Forward(1))
	assert.Equal(t, "SS", e.SequenceString())
}

func TestEngine_MaxSymbols(t *testing.T) {
	rules := Productions{}
	rules.Set(Play, []Symbol{Play, Play})
	e := NewEngine(rules, []Symbol{Play}, WithMaxSymbols(10))

	err := e.Forward(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSequenceTooLarge)

	// Stops at the last generation that fit: 2^3 = 8
	assert.Equal(t, 3, e.Generation())
	assert.Equal(t, 8, e.Len())
}

func TestEngine_CopiesInputs(t *testing.T) {
	rules := Productions{}
	rules.Set(Letter('X'), mustSymbols(t, "SX"))
	axiom := mustSymbols(t, "X")
	e := NewEngine(rules, axiom)

	rules.Set(Letter('X'), mustSymbols(t, "--"))
	axiom[0] = Play

	require.NoError(t, e.Forward(1))
	assert.Equal(t, "SX", e.SequenceString())
	assert.Equal(t, "X", FormatSymbols(e.Axiom()))
}

func TestEngine_String(t *testing.T) {
	e := NewEngine(fractalRules(t), mustSymbols(t, "X"))
	require.NoError(t, e.Forward(1))

	report := e.String()
	assert.Contains(t, report, "Result: S+[X]-X")
	assert.Contains(t, report, "Step: 1")
	assert.Contains(t, report, "Axiom: X")
	assert.Contains(t, report, "[S -> SS]")
	assert.Contains(t, report, "[X -> S+[X]-X]")
}
