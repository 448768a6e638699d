// Package gate guards destructive actions behind a typed confirmation token.
package gate

import "strings"

// Token is the only input that confirms a guarded action.
const Token = "YES"

// LineReader shows a prompt and returns one line typed by the operator.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

type Gate struct {
	In LineReader
}

func New(in LineReader) Gate {
	return Gate{In: in}
}

// Confirm asks once. Anything other than Token, including a read error,
// declines; callers must not retry on the operator's behalf.
func (g Gate) Confirm(prompt string) bool {
	if g.In == nil {
		return false
	}
	answer, err := g.In.ReadLine(prompt + "\nType " + Token + " to continue: ")
	if err != nil {
		return false
	}
	return Accepts(answer)
}

// Accepts reports whether input confirms, ignoring surrounding whitespace.
func Accepts(input string) bool {
	return strings.TrimSpace(input) == Token
}
