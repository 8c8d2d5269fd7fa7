package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/lsys-music-go/music"
)

// ComposerPromptBuilder builds prompts for the grammar composer agent
type ComposerPromptBuilder struct{}

// NewComposerPromptBuilder creates a new composer prompt builder
func NewComposerPromptBuilder() *ComposerPromptBuilder {
	return &ComposerPromptBuilder{}
}

// BuildPrompt builds the complete system prompt for the composer
func (b *ComposerPromptBuilder) BuildPrompt() (string, error) {
	sections := []string{
		b.getSystemInstructions(),
		b.getSymbolReference(),
		b.getExamples(),
		b.getOutputFormatInstructions(),
	}

	return strings.Join(sections, "\n\n"), nil
}

// BuildRetryMessage asks the model to fix a grammar the parser rejected
func (b *ComposerPromptBuilder) BuildRetryMessage(parseErr error) string {
	return "The grammar you wrote could not be parsed: " + parseErr.Error() +
		"\nWrite the corrected grammar file. Keep every rule on its own line and end with a single axiom line."
}

func (b *ComposerPromptBuilder) getSystemInstructions() string {
	return `You are a composer who writes L-system grammars that turn into melodies.

An L-system starts from an axiom and rewrites every symbol in parallel, once per
generation, using the production rules. The final string is played by a turtle that
walks through a musical scale. Small grammars grow into long, self-similar phrases.

When writing a grammar for a request:
- Keep it small: two to five rules are usually enough
- Make sure at least one rule eventually produces S, otherwise nothing is played
- Balance + and - so the melody does not drift far from the starting note
- Use [ and ] to branch away from a pitch and return to it
- Uppercase letters other than S are silent placeholders that carry structure`
}

func (b *ComposerPromptBuilder) getSymbolReference() string {
	return `## Symbols

| Symbol | Meaning |
|---|---|
| S | play the current pitch for one sixteenth note; consecutive S tie into one longer note |
| + | move one scale degree up |
| - | move one scale degree down |
| [ | remember the current pitch and scale degree |
| ] | return to the last remembered pitch and scale degree |
| A-Z | any other capital letter: rewritten by rules, silent when played |

Available scales: ` + strings.Join(music.PresetNames(), ", ") + `. The scale and the
starting note are chosen when the grammar is rendered, not in the grammar itself.`
}

func (b *ComposerPromptBuilder) getExamples() string {
	return `## Examples

A branching figure that climbs and falls back:

    S => SS
    X => S+[X]-X
    X

A two-letter alternation that produces an irregular rhythm:

    A => S+B
    B => A-S
    A`
}

func (b *ComposerPromptBuilder) getOutputFormatInstructions() string {
	return `## Output format

Reply with the grammar file and nothing else:
- One rule per line in the form HEAD => BODY, where HEAD is a single symbol
- After the rules, exactly one axiom line containing only symbols
- Comments start with # and run to the end of the line
- No markdown, no explanations`
}
