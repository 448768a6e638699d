package gate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type scripted struct {
	answer  string
	err     error
	prompts []string
}

func (s *scripted) ReadLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.answer, s.err
}

func TestConfirmOnlyExactToken(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"YES", true},
		{"  YES\n", true},
		{"yes", false},
		{"Yes ", false},
		{"", false},
		{"y", false},
		{"YESS", false},
		{"Y E S", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ran := 0
			g := New(&scripted{answer: tt.input})
			if g.Confirm("This will reinstall everything") {
				ran++
			}
			assert.Equal(t, tt.want, ran == 1)
			if !tt.want {
				assert.Zero(t, ran, "guarded action must not run")
			}
		})
	}
}

func TestConfirmRestatesRiskAndAsksOnce(t *testing.T) {
	in := &scripted{answer: "no"}
	assert.False(t, New(in).Confirm("Reset Snapper config?"))
	assert.Len(t, in.prompts, 1)
	assert.True(t, strings.HasPrefix(in.prompts[0], "Reset Snapper config?"))
	assert.Contains(t, in.prompts[0], "Type YES to continue")
}

func TestConfirmReadErrorDeclines(t *testing.T) {
	assert.False(t, New(&scripted{answer: "YES", err: errors.New("eof")}).Confirm("x"))
	assert.False(t, Gate{}.Confirm("x"))
}
