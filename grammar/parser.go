// Package grammar parses L-system grammar files.
//
// A grammar file is a list of rules, one per line, followed by the axiom:
//
//	S => SS      # rule 1
//	X => S+[X]-X # rule 2
//
//	X            # axiom
//
// Symbols are uppercase letters and the characters '[', ']', '+' and '-'.
// Anything after '#' is a comment. Rule order does not matter, but the axiom
// must come after every rule.
package grammar

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/Conceptual-Machines/lsys-music-go/lsystem"
)

var (
	ErrMissingAxiom       = errors.New("missing axiom")
	ErrMultipleAxioms     = errors.New("more than one axiom")
	ErrRuleAfterAxiom     = errors.New("rule after axiom")
	ErrInvalidRuleHead    = errors.New("rule must rewrite exactly one symbol")
	ErrNotSingleStatement = errors.New("expected a single rule or axiom")
)

var grammarLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Arrow", Pattern: `=>`},
	{Name: "Symbol", Pattern: `[A-Z\[\]+\-]`},
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
})

// fileAST is the raw syntax tree: statements separated by line breaks
type fileAST struct {
	Statements []*statementAST `parser:"( @@ | EOL )*"`
}

type statementAST struct {
	Pos  lexer.Position
	Left []string  `parser:"@Symbol+"`
	Rule *ruleTail `parser:"@@?"`
}

type ruleTail struct {
	Arrow string   `parser:"@Arrow"`
	Right []string `parser:"@Symbol*"`
}

var fileParser = participle.MustBuild[fileAST](
	participle.Lexer(grammarLexer),
	participle.Elide("Comment", "Whitespace"),
)

// Definition is a parsed grammar, ready for lsystem.NewEngine
type Definition struct {
	Productions lsystem.Productions
	Axiom       []lsystem.Symbol
	Rules       int // Rule lines read, including overridden duplicates
}

// NewEngine builds a rewriting engine from the definition
func (d *Definition) NewEngine(opts ...lsystem.EngineOption) *lsystem.Engine {
	return lsystem.NewEngine(d.Productions, d.Axiom, opts...)
}

// Statement is a single parsed line: a rule when IsRule is set, else an axiom
type Statement struct {
	Line   int
	IsRule bool
	Head   lsystem.Symbol   // Rule head, only set for rules
	Body   []lsystem.Symbol // Rule body, or the axiom symbols
}

// ParseFile reads and parses a grammar file
func ParseFile(path string) (*Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", path, err)
	}
	return Parse(path, string(src))
}

// Parse parses grammar source. The name is used in error positions.
func Parse(name, src string) (*Definition, error) {
	statements, err := parseStatements(name, src)
	if err != nil {
		return nil, err
	}

	def := &Definition{Productions: lsystem.Productions{}}
	axiomLine := 0
	ruleLines := make(map[lsystem.Symbol]int)

	for _, st := range statements {
		if !st.IsRule {
			if axiomLine != 0 {
				return nil, fmt.Errorf("%s:%d: %w (first on line %d)", name, st.Line, ErrMultipleAxioms, axiomLine)
			}
			def.Axiom = st.Body
			axiomLine = st.Line
			continue
		}

		if axiomLine != 0 {
			return nil, fmt.Errorf("%s:%d: %w on line %d", name, st.Line, ErrRuleAfterAxiom, axiomLine)
		}
		if prev, ok := ruleLines[st.Head]; ok {
			log.Printf("⚠️  %s:%d: rule for %s overrides line %d", name, st.Line, st.Head, prev)
		}
		ruleLines[st.Head] = st.Line
		def.Productions.Set(st.Head, st.Body)
		def.Rules++
	}

	if axiomLine == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingAxiom)
	}

	return def, nil
}

// ParseStatement parses a single rule or axiom line
func ParseStatement(line string) (*Statement, error) {
	statements, err := parseStatements("input", line)
	if err != nil {
		return nil, err
	}
	if len(statements) != 1 {
		return nil, fmt.Errorf("got %d statements: %w", len(statements), ErrNotSingleStatement)
	}
	return statements[0], nil
}

func parseStatements(name, src string) ([]*Statement, error) {
	ast, err := fileParser.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", name, err)
	}

	statements := make([]*Statement, 0, len(ast.Statements))
	for _, node := range ast.Statements {
		st, err := node.toStatement(name)
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}
	return statements, nil
}

func (n *statementAST) toStatement(name string) (*Statement, error) {
	left, err := toSymbols(n.Left)
	if err != nil {
		return nil, fmt.Errorf("%s:%d: %w", name, n.Pos.Line, err)
	}

	if n.Rule == nil {
		return &Statement{Line: n.Pos.Line, Body: left}, nil
	}

	if len(left) != 1 {
		return nil, fmt.Errorf("%s:%d:%d: %w, got %q",
			name, n.Pos.Line, n.Pos.Column, ErrInvalidRuleHead, lsystem.FormatSymbols(left))
	}

	right, err := toSymbols(n.Rule.Right)
	if err != nil {
		return nil, fmt.Errorf("%s:%d: %w", name, n.Pos.Line, err)
	}

	return &Statement{Line: n.Pos.Line, IsRule: true, Head: left[0], Body: right}, nil
}

func toSymbols(tokens []string) ([]lsystem.Symbol, error) {
	symbols := make([]lsystem.Symbol, 0, len(tokens))
	for _, tok := range tokens {
		parsed, err := lsystem.ParseSymbols(tok)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, parsed...)
	}
	return symbols, nil
}
