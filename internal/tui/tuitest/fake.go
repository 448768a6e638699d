// Package tuitest provides a scripted UI for screen tests.
package tuitest

import (
	"errors"
	"strings"

	"auri/internal/tui"
)

// ErrNoInput is returned once the scripted keys or lines run out.
var ErrNoInput = errors.New("tuitest: no scripted input left")

// Fake replays Keys and Lines and records everything shown.
type Fake struct {
	Keys    []tui.Key
	Lines   []string
	Rows    int
	Frames  [][]string
	Printed []string
	Prompts []string

	Suspended int
}

var _ tui.UI = (*Fake)(nil)

func (f *Fake) Render(lines []string) error {
	f.Frames = append(f.Frames, append([]string(nil), lines...))
	return nil
}

func (f *Fake) Print(text string) error {
	f.Printed = append(f.Printed, text)
	return nil
}

func (f *Fake) ReadKey() (tui.Key, error) {
	if len(f.Keys) == 0 {
		return 0, ErrNoInput
	}
	k := f.Keys[0]
	f.Keys = f.Keys[1:]
	return k, nil
}

func (f *Fake) ReadLine(prompt string) (string, error) {
	f.Prompts = append(f.Prompts, prompt)
	if len(f.Lines) == 0 {
		return "", ErrNoInput
	}
	l := f.Lines[0]
	f.Lines = f.Lines[1:]
	return l, nil
}

func (f *Fake) Suspend(fn func() error) error {
	f.Suspended++
	return fn()
}

func (f *Fake) Height() int { return f.Rows }

// Output is everything printed, concatenated.
func (f *Fake) Output() string {
	return strings.Join(f.Printed, "")
}

// LastFrame is the most recent Render call.
func (f *Fake) LastFrame() []string {
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}
