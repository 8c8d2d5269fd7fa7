package llm

// GetLSystemGrammar returns the Lark grammar definition for L-system grammar files.
// One rule per line, then exactly one axiom line.
//
//	S   = play (a tie when repeated)
//	+ - = one scale degree up / down
//	[ ] = save / restore pitch and degree
//	A-Z = other letters, rewritten but silent
func GetLSystemGrammar() string {
	return `
// L-system grammar file
// SYNTAX:
//   X => S+[X]-X    - production rule: one head symbol, any body (may be empty)
//   X               - axiom: the starting sequence, last non-empty line
//
// SYMBOLS:
//   S     play the current pitch; consecutive plays tie into one longer note
//   +     move one scale degree up
//   -     move one scale degree down
//   [     push pitch and degree
//   ]     pop pitch and degree
//   A-Z   any other capital letter: rewritten by rules, ignored when played

// ---------- Start rule ----------
start: (rule NL)* axiom NL?

// ---------- Statements ----------
rule: SYMBOL SP? "=>" SP? body?
axiom: body

body: SYMBOL (SP? SYMBOL)*

// ---------- Terminals ----------
SYMBOL: /[A-Z\[\]+\-]/
SP: " "+
NL: /\n+/
`
}

// GetLSystemToolDescription describes the grammar tool to the model
func GetLSystemToolDescription() string {
	return "Write an L-system grammar file. Each rule line rewrites one capital " +
		"letter or S into a body of symbols; the final line is the axiom. " +
		"S plays a note, + and - move through the scale, [ and ] save and restore the position."
}
